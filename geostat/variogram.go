// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package geostat

import (
	"fmt"
	"math"
)

// A Model is a covariance model kind
// for a fitted variogram.
type Model int

// Valid covariance models.
const (
	Exponential Model = iota
	Spherical
)

func (m Model) String() string {
	switch m {
	case Exponential:
		return "exponential"
	case Spherical:
		return "spherical"
	}
	return "unknown"
}

// DefaultBins is the number of distance bins
// used for empirical variogram estimation.
const DefaultBins = 7

// Empirical estimates the empirical semivariogram
// of the values v observed at coordinates (x, y).
// Pairwise distances are binned into the given number
// of equal-width intervals spanning [0, max distance],
// with the last bin edge nudged outward
// so that the maximum-distance pair is always included.
// Empty bins are dropped.
// It returns the bin centres and the semivariances.
func Empirical(x, y, v []float64, bins int) (dist, gamma []float64, err error) {
	n := len(v)
	if len(x) != n || len(y) != n {
		return nil, nil, fmt.Errorf("geostat: mismatched sample sizes %d, %d and %d", len(x), len(y), n)
	}
	if n < 2 {
		return nil, nil, fmt.Errorf("geostat: variogram requires at least 2 samples, got %d", n)
	}
	if bins <= 0 {
		bins = DefaultBins
	}

	var maxDist float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := math.Hypot(x[i]-x[j], y[i]-y[j])
			if d > maxDist {
				maxDist = d
			}
		}
	}
	if maxDist == 0 {
		return nil, nil, fmt.Errorf("geostat: all sample locations are coincident")
	}

	interval := maxDist / float64(bins)
	edges := make([]float64, bins+1)
	for i := range edges {
		edges[i] = float64(i) * interval
	}
	edges[bins] = maxDist + 0.1

	sum := make([]float64, bins)
	dSum := make([]float64, bins)
	count := make([]int, bins)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := math.Hypot(x[i]-x[j], y[i]-y[j])
			b := int(d / interval)
			if b >= bins {
				b = bins - 1
			}
			dv := v[i] - v[j]
			sum[b] += dv * dv
			dSum[b] += d
			count[b]++
		}
	}

	for b := 0; b < bins; b++ {
		if count[b] == 0 {
			continue
		}
		dist = append(dist, dSum[b]/float64(count[b]))
		gamma = append(gamma, 0.5*sum[b]/float64(count[b]))
	}
	return dist, gamma, nil
}

// A Variogram is a fitted covariance model
// with zero nugget.
type Variogram struct {
	Model Model
	Sill  float64
	Range float64

	// R2 is the coefficient of determination
	// of the fit against the empirical variogram.
	R2 float64
}

// Gamma returns the modelled semivariance
// at separation distance h.
func (v Variogram) Gamma(h float64) float64 {
	if h <= 0 {
		return 0
	}
	switch v.Model {
	case Exponential:
		return v.Sill * (1 - math.Exp(-h/v.Range))
	case Spherical:
		if h >= v.Range {
			return v.Sill
		}
		r := h / v.Range
		return v.Sill * (1.5*r - 0.5*r*r*r)
	}
	return 0
}

// Cov returns the modelled covariance
// at separation distance h.
func (v Variogram) Cov(h float64) float64 {
	return v.Sill - v.Gamma(h)
}

// Fit fits a covariance model of the given kind
// to an empirical variogram
// by least squares with zero nugget.
// The range is found by a stepped search
// refined over successively smaller intervals;
// for a fixed range the sill has a closed form solution.
func Fit(m Model, dist, gamma []float64) (Variogram, error) {
	if len(dist) != len(gamma) || len(dist) == 0 {
		return Variogram{}, fmt.Errorf("geostat: invalid empirical variogram with %d bins", len(dist))
	}

	var maxDist float64
	for _, d := range dist {
		if d > maxDist {
			maxDist = d
		}
	}

	min := maxDist * 1e-3
	max := maxDist * 3
	best := fitRange(m, dist, gamma, min, max, (max-min)/100)
	for st := (max - min) / 100; st > maxDist*1e-6; st /= 10 {
		lo := best.Range - st
		if lo < maxDist*1e-6 {
			lo = maxDist * 1e-6
		}
		best = fitRange(m, dist, gamma, lo, best.Range+st, st/10)
	}
	best.Model = m
	return best, nil
}

// fitRange searches for the best fitting range
// within [min, max] at the given step.
func fitRange(m Model, dist, gamma []float64, min, max, step float64) Variogram {
	var mean float64
	for _, g := range gamma {
		mean += g
	}
	mean /= float64(len(gamma))
	var ssTot float64
	for _, g := range gamma {
		ssTot += (g - mean) * (g - mean)
	}

	best := Variogram{R2: math.Inf(-1)}
	for r := min; r <= max; r += step {
		v := Variogram{Model: m, Sill: 1, Range: r}

		// closed form sill for a fixed range
		var num, den float64
		for i, d := range dist {
			f := v.Gamma(d)
			num += f * gamma[i]
			den += f * f
		}
		if den == 0 {
			continue
		}
		v.Sill = num / den

		var ssRes float64
		for i, d := range dist {
			e := gamma[i] - v.Gamma(d)
			ssRes += e * e
		}
		r2 := 1.0
		if ssTot > 0 {
			r2 = 1 - ssRes/ssTot
		} else if ssRes > 0 {
			r2 = math.Inf(-1)
		}
		if r2 > best.R2 {
			v.R2 = r2
			best = v
		}
	}
	return best
}

// FitBest fits both an exponential and a spherical model
// and returns whichever achieves the higher R².
func FitBest(dist, gamma []float64) (Variogram, error) {
	e, err := Fit(Exponential, dist, gamma)
	if err != nil {
		return Variogram{}, err
	}
	s, err := Fit(Spherical, dist, gamma)
	if err != nil {
		return Variogram{}, err
	}
	if e.R2 > s.R2 {
		return e, nil
	}
	return s, nil
}
