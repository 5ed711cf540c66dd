// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package discretise_test

import (
	"math"
	"testing"

	"github.com/js-arias/nsrp/discretise"
	"github.com/js-arias/nsrp/raincell"
)

func TestPointSingleTimestep(t *testing.T) {
	// a raincell fully contained in one timestep
	// deposits intensity × duration,
	// independent of the timestep length
	for _, stepLength := range []float64{1, 3, 6, 24} {
		cells := []raincell.Raincell{
			{Arrival: 0.2, End: 0.7, Intensity: 4},
		}
		dst := make([]float64, 10)
		discretise.Point(0, stepLength, cells, dst)

		if math.Abs(dst[0]-4*0.5) > 1e-12 {
			t.Errorf("step length %g: got depth %g, want %g", stepLength, dst[0], 4*0.5)
		}
		for i := 1; i < len(dst); i++ {
			if dst[i] != 0 {
				t.Errorf("step length %g: step %d got %g, want 0", stepLength, i, dst[i])
			}
		}
	}
}

func TestPointConservation(t *testing.T) {
	// a raincell spanning several timesteps
	// conserves intensity × total duration
	cells := []raincell.Raincell{
		{Arrival: 0.3, End: 7.9, Intensity: 2.5},
	}
	dst := make([]float64, 24)
	discretise.Point(0, 1, cells, dst)

	var sum float64
	for _, v := range dst {
		sum += v
	}
	want := 2.5 * (7.9 - 0.3)
	if math.Abs(sum-want) > 1e-12 {
		t.Errorf("total depth: got %g, want %g", sum, want)
	}
}

func TestPointKnownValues(t *testing.T) {
	// arrival 0, end 1.5, intensity 2, timestep 1
	// gives depths [2.0, 1.0] and zeros after
	cells := []raincell.Raincell{
		{Arrival: 0, End: 1.5, Intensity: 2},
	}
	dst := make([]float64, 5)
	discretise.Point(0, 1, cells, dst)

	want := []float64{2, 1, 0, 0, 0}
	for i, w := range want {
		if math.Abs(dst[i]-w) > 1e-12 {
			t.Errorf("step %d: got %g, want %g", i, dst[i], w)
		}
	}
}

func TestPointClipsAtBound(t *testing.T) {
	// contributions past the final timestep are dropped
	cells := []raincell.Raincell{
		{Arrival: 2.5, End: 6, Intensity: 1},
	}
	dst := make([]float64, 4)
	discretise.Point(0, 1, cells, dst)

	want := []float64{0, 0, 0.5, 1}
	for i, w := range want {
		if math.Abs(dst[i]-w) > 1e-12 {
			t.Errorf("step %d: got %g, want %g", i, dst[i], w)
		}
	}
}

func TestPointRelativeStart(t *testing.T) {
	// a raincell that began before the period start
	// contributes only from the first timestep on
	cells := []raincell.Raincell{
		{Arrival: 98, End: 101.5, Intensity: 2},
	}
	dst := make([]float64, 4)
	discretise.Point(100, 1, cells, dst)

	want := []float64{2, 1, 0, 0}
	for i, w := range want {
		if math.Abs(dst[i]-w) > 1e-12 {
			t.Errorf("step %d: got %g, want %g", i, dst[i], w)
		}
	}
}

func TestPointZeroesBuffer(t *testing.T) {
	dst := []float64{7, 7, 7}
	discretise.Point(0, 1, nil, dst)
	for i, v := range dst {
		if v != 0 {
			t.Errorf("step %d: got %g, want 0", i, v)
		}
	}
}

func TestSpatialDegeneratesToPoint(t *testing.T) {
	// at a location with phi = 1,
	// with exactly one raincell within radius,
	// spatial discretisation equals point discretisation
	// of that raincell
	cells := []raincell.Raincell{
		{Arrival: 0, End: 1.5, Intensity: 2, X: 0, Y: 0, Radius: 5000},
		{Arrival: 0.5, End: 3, Intensity: 9, X: 30000, Y: 30000, Radius: 100},
	}
	buf := discretise.NewBuffer(5, 1)
	discretise.Spatial(0, 1, cells, []float64{1000}, []float64{1000}, []float64{1}, buf)

	dst := make([]float64, 5)
	discretise.Point(0, 1, cells[:1], dst)

	col := buf.Column(0)
	for i := range dst {
		if math.Abs(col[i]-dst[i]) > 1e-12 {
			t.Errorf("step %d: got %g, want %g", i, col[i], dst[i])
		}
	}
}

func TestSpatialPhiScaling(t *testing.T) {
	cells := []raincell.Raincell{
		{Arrival: 0, End: 2, Intensity: 1, X: 0, Y: 0, Radius: 10000},
	}
	buf := discretise.NewBuffer(3, 2)
	x := []float64{0, 5000}
	y := []float64{0, 0}
	phi := []float64{0.5, 2}
	discretise.Spatial(0, 1, cells, x, y, phi, buf)

	if got := buf.Column(0)[0]; math.Abs(got-0.5) > 1e-12 {
		t.Errorf("location 0: got %g, want 0.5", got)
	}
	if got := buf.Column(1)[0]; math.Abs(got-2) > 1e-12 {
		t.Errorf("location 1: got %g, want 2", got)
	}
}

func TestSpatialRadiusBoundary(t *testing.T) {
	// a raincell exactly at the influence boundary is active
	cells := []raincell.Raincell{
		{Arrival: 0, End: 1, Intensity: 1, X: 0, Y: 0, Radius: 1000},
	}
	buf := discretise.NewBuffer(2, 2)
	x := []float64{1000, 1001}
	y := []float64{0, 0}
	phi := []float64{1, 1}
	discretise.Spatial(0, 1, cells, x, y, phi, buf)

	if got := buf.Column(0)[0]; got != 1 {
		t.Errorf("at radius: got %g, want 1", got)
	}
	if got := buf.Column(1)[0]; got != 0 {
		t.Errorf("beyond radius: got %g, want 0", got)
	}
}

func TestSpatialNonNegative(t *testing.T) {
	cells := []raincell.Raincell{
		{Arrival: 0.1, End: 5.3, Intensity: 1.7, X: 500, Y: 500, Radius: 3000},
		{Arrival: 2.9, End: 3.4, Intensity: 0.2, X: 1500, Y: 0, Radius: 2000},
	}
	buf := discretise.NewBuffer(6, 3)
	x := []float64{0, 1000, 2000}
	y := []float64{0, 500, 1000}
	phi := []float64{0.9, 1.1, 0}
	discretise.Spatial(0, 1, cells, x, y, phi, buf)

	for l := 0; l < buf.Locations(); l++ {
		for i, v := range buf.Column(l) {
			if v < 0 {
				t.Errorf("location %d step %d: got %g, want non-negative", l, i, v)
			}
		}
	}
}

func TestSubset(t *testing.T) {
	cells := []raincell.Raincell{
		{Arrival: 0, End: 5},
		{Arrival: 8, End: 12},
		{Arrival: 11, End: 14},
		{Arrival: 20, End: 30},
	}
	sub := discretise.Subset(cells, 10, 20)
	if len(sub) != 2 {
		t.Fatalf("subset: got %d raincells, want 2", len(sub))
	}
	if sub[0].Arrival != 8 || sub[1].Arrival != 11 {
		t.Errorf("subset: got arrivals %g and %g", sub[0].Arrival, sub[1].Arrival)
	}

	// the original slice is untouched
	if len(cells) != 4 || cells[0].Arrival != 0 {
		t.Errorf("input slice modified")
	}
}
