// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package geostat

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// A Predictor is a kriging interpolator
// built from values observed at calibration locations
// and a fitted covariance model.
// Without a drift it is an ordinary kriging predictor;
// with a drift it is an external-drift kriging predictor.
// Both are exact at the calibration locations.
type Predictor struct {
	x, y, v []float64
	vg      Variogram
	drift   []float64

	lu mat.LU
}

// NewOrdinary builds an ordinary kriging predictor
// for the values v observed at coordinates (x, y).
func NewOrdinary(x, y, v []float64, vg Variogram) (*Predictor, error) {
	return newPredictor(x, y, v, vg, nil)
}

// NewExtDrift builds an external-drift kriging predictor
// for the values v observed at coordinates (x, y),
// using the drift variable
// (such as elevation)
// observed at the same locations.
func NewExtDrift(x, y, v, drift []float64, vg Variogram) (*Predictor, error) {
	if len(drift) != len(v) {
		return nil, fmt.Errorf("geostat: mismatched drift size %d for %d samples", len(drift), len(v))
	}
	return newPredictor(x, y, v, vg, drift)
}

func newPredictor(x, y, v []float64, vg Variogram, drift []float64) (*Predictor, error) {
	n := len(v)
	if len(x) != n || len(y) != n {
		return nil, fmt.Errorf("geostat: mismatched sample sizes %d, %d and %d", len(x), len(y), n)
	}
	if n < 2 {
		return nil, fmt.Errorf("geostat: kriging requires at least 2 samples, got %d", n)
	}

	k := 1
	if drift != nil {
		k = 2
	}
	a := mat.NewDense(n+k, n+k, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			h := math.Hypot(x[i]-x[j], y[i]-y[j])
			a.Set(i, j, vg.Cov(h))
		}
		a.Set(i, n, 1)
		a.Set(n, i, 1)
		if drift != nil {
			a.Set(i, n+1, drift[i])
			a.Set(n+1, i, drift[i])
		}
	}

	p := &Predictor{
		x:     x,
		y:     y,
		v:     v,
		vg:    vg,
		drift: drift,
	}
	p.lu.Factorize(a)
	if p.lu.Cond() > 1e14 {
		return nil, fmt.Errorf("geostat: singular kriging system")
	}
	return p, nil
}

// At returns the kriging prediction at (px, py).
// For an external-drift predictor
// pz must be the drift value at the target location;
// it is ignored otherwise.
func (p *Predictor) At(px, py, pz float64) (float64, error) {
	n := len(p.v)
	k := 1
	if p.drift != nil {
		k = 2
	}

	b := mat.NewVecDense(n+k, nil)
	for i := 0; i < n; i++ {
		h := math.Hypot(p.x[i]-px, p.y[i]-py)
		b.SetVec(i, p.vg.Cov(h))
	}
	b.SetVec(n, 1)
	if p.drift != nil {
		b.SetVec(n+1, pz)
	}

	var w mat.VecDense
	if err := p.lu.SolveVecTo(&w, false, b); err != nil {
		return 0, fmt.Errorf("geostat: kriging solve: %v", err)
	}

	var est float64
	for i := 0; i < n; i++ {
		est += w.AtVec(i) * p.v[i]
	}
	return est, nil
}

// Interpolate returns the kriging predictions
// at every target location.
// For an external-drift predictor
// z must hold the drift values at the targets;
// it is ignored otherwise.
func (p *Predictor) Interpolate(x, y, z []float64) ([]float64, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("geostat: mismatched target sizes %d and %d", len(x), len(y))
	}
	if p.drift != nil && len(z) != len(x) {
		return nil, fmt.Errorf("geostat: mismatched target drift size %d for %d targets", len(z), len(x))
	}

	est := make([]float64, len(x))
	for i := range x {
		var pz float64
		if p.drift != nil {
			pz = z[i]
		}
		e, err := p.At(x[i], y[i], pz)
		if err != nil {
			return nil, err
		}
		est[i] = e
	}
	return est, nil
}
