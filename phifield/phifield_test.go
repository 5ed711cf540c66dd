// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package phifield_test

import (
	"math"
	"strings"
	"testing"

	"github.com/js-arias/nsrp/phifield"
)

func TestReadCalibration(t *testing.T) {
	data := "season\teasting\tnorthing\televation\tphi\n" +
		"1\t656200\t233700\t125\t0.97\n" +
		"1\t671500\t241200\t340\t1.14\n" +
		"2\t656200\t233700\t125\t1.02\n"
	c, err := phifield.ReadCalibration(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Phi) != 3 {
		t.Fatalf("calibration: got %d rows, want 3", len(c.Phi))
	}
	if c.Season[2] != 2 || c.Phi[1] != 1.14 || c.Z[1] != 340 {
		t.Errorf("row values: got season %d, phi %g, elevation %g", c.Season[2], c.Phi[1], c.Z[1])
	}

	// missing column
	data = "season\teasting\tnorthing\tphi\n1\t0\t0\t1\n"
	if _, err := phifield.ReadCalibration(strings.NewReader(data)); err == nil {
		t.Errorf("expecting error for missing elevation column")
	}
}

// calibration returns a scattered set of points
// with a smooth spatial phi field
// and no elevation dependence.
func calibration() *phifield.Calibration {
	c := &phifield.Calibration{}
	xs := []float64{0, 2000, 4000, 6000, 1000, 3000, 5000, 500, 2500, 4500, 6500, 1500}
	ys := []float64{0, 500, 0, 500, 2000, 2500, 2000, 4000, 4500, 4000, 4500, 6000}
	for i := range xs {
		c.Season = append(c.Season, 1)
		c.X = append(c.X, xs[i])
		c.Y = append(c.Y, ys[i])
		c.Z = append(c.Z, 100) // flat
		c.Phi = append(c.Phi, 1+0.1*math.Sin(xs[i]/2000)+0.05*math.Cos(ys[i]/1500))
	}
	return c
}

func TestEstimatorExact(t *testing.T) {
	c := calibration()
	e, err := phifield.NewEstimator(c, []int{1}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// kriging must reproduce calibration values
	// at the calibration locations
	est, err := e.Interpolate(1, c.X, c.Y, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, got := range est {
		if math.Abs(got-c.Phi[i]) > 1e-6*math.Abs(c.Phi[i]) {
			t.Errorf("phi at calibration point %d: got %g, want %g", i, got, c.Phi[i])
		}
	}
}

func TestEstimatorElevationTrend(t *testing.T) {
	// phi strictly increasing with elevation
	c := &phifield.Calibration{}
	xs := []float64{0, 2000, 4000, 6000, 1000, 3000, 5000, 500, 2500, 4500}
	ys := []float64{0, 500, 0, 500, 2000, 2500, 2000, 4000, 4500, 4000}
	zs := []float64{100, 150, 220, 310, 120, 260, 180, 90, 330, 240}
	for i := range xs {
		c.Season = append(c.Season, 1)
		c.X = append(c.X, xs[i])
		c.Y = append(c.Y, ys[i])
		c.Z = append(c.Z, zs[i])
		c.Phi = append(c.Phi, 0.8+0.002*zs[i]+0.03*math.Sin(xs[i]/1500))
	}

	e, err := phifield.NewEstimator(c, []int{1}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	est, err := e.Interpolate(1, c.X, c.Y, c.Z)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, got := range est {
		if math.Abs(got-c.Phi[i]) > 1e-6*math.Abs(c.Phi[i]) {
			t.Errorf("phi at calibration point %d: got %g, want %g", i, got, c.Phi[i])
		}
	}

	// a target at a new location with a high drift value
	// should give a phi above the low-elevation values
	got, err := e.Interpolate(1, []float64{3000}, []float64{1000}, []float64{400})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0] <= 1.0 {
		t.Errorf("phi at high elevation: got %g, want > 1", got[0])
	}
}

func TestEstimatorNonNegative(t *testing.T) {
	c := calibration()
	e, err := phifield.NewEstimator(c, []int{1}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// a coarse target mesh over and beyond the calibration extent
	var xs, ys []float64
	for x := -2000.0; x <= 9000; x += 1000 {
		for y := -2000.0; y <= 8000; y += 1000 {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	est, err := e.Interpolate(1, xs, ys, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range est {
		if v < 0 {
			t.Errorf("phi at target %d: got %g, want non-negative", i, v)
		}
	}
}

func TestEstimatorUnknownSeason(t *testing.T) {
	c := calibration()
	e, err := phifield.NewEstimator(c, []int{1}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := e.Interpolate(2, []float64{0}, []float64{0}, nil); err == nil {
		t.Errorf("expecting error for an unfitted season")
	}
}
