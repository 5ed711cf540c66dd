// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package raincell_test

import (
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/js-arias/nsrp/grid"
	"github.com/js-arias/nsrp/raincell"
)

func TestReadParameters(t *testing.T) {
	data := "season\tlambda\tbeta\tnu\teta\txi\tgamma\trho\n" +
		"1\t0.012\t0.08\t5\t1.1\t1.4\t0.35\t0.008\n" +
		"2\t0.021\t0.11\t7\t0.9\t1.1\t0.42\t0.011\n"
	p, err := raincell.ReadParameters(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p) != 2 {
		t.Fatalf("parameters: got %d seasons, want 2", len(p))
	}
	if p[1].Lambda != 0.012 || p[2].Eta != 0.9 || p[1].Rho != 0.008 {
		t.Errorf("values: got %g, %g, %g", p[1].Lambda, p[2].Eta, p[1].Rho)
	}

	// missing required column
	data = "season\tlambda\tbeta\tnu\teta\n1\t1\t1\t1\t1\n"
	if _, err := raincell.ReadParameters(strings.NewReader(data)); err == nil {
		t.Errorf("expecting error for missing xi column")
	}
}

func TestScale(t *testing.T) {
	cells := []raincell.Raincell{
		{Arrival: 1, End: 2, Intensity: 3, X: 4, Y: 5, Radius: 6},
	}
	raincell.Scale(cells, raincell.SpatialScale)
	c := cells[0]
	if c.X != 4000 || c.Y != 5000 || c.Radius != 6000 {
		t.Errorf("scaled: got (%g, %g) radius %g", c.X, c.Y, c.Radius)
	}
	// temporal fields untouched
	if c.Arrival != 1 || c.End != 2 || c.Intensity != 3 {
		t.Errorf("temporal fields changed: %v", c)
	}
}

func testPeriod(spatial bool, months int) raincell.Period {
	lens := make([]float64, months)
	seasons := make([]int, months)
	for i := range lens {
		lens[i] = 30 * 24
		seasons[i] = 1
	}
	return raincell.Period{
		Spatial: spatial,
		Parameters: map[int]raincell.Parameters{
			1: {Lambda: 0.01, Beta: 0.1, Nu: 5, Eta: 1, Xi: 1, Gamma: 0.5, Rho: 0.01},
		},
		MonthLengths: lens,
		MonthSeasons: seasons,
		Intensity:    raincell.Exponential,
		Domain:       grid.Extent{XMin: 0, YMin: 0, XMax: 10000, YMax: 10000},
	}
}

func TestNSRPInvariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	cells, err := raincell.NSRP{}.Generate(testPeriod(true, 12), rng)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cells) == 0 {
		t.Fatalf("expecting raincells for a year of simulation")
	}

	total := 12 * 30 * 24.0
	for i, c := range cells {
		if c.Arrival >= c.End {
			t.Errorf("raincell %d: arrival %g not before end %g", i, c.Arrival, c.End)
		}
		if c.Intensity < 0 {
			t.Errorf("raincell %d: negative intensity %g", i, c.Intensity)
		}
		if c.Radius < 0 {
			t.Errorf("raincell %d: negative radius %g", i, c.Radius)
		}
		if c.Arrival < 0 || c.Arrival > total+1000 {
			t.Errorf("raincell %d: arrival %g outside period", i, c.Arrival)
		}
	}
}

func TestNSRPDeterminism(t *testing.T) {
	p := testPeriod(false, 6)

	a, err := raincell.NSRP{}.Generate(p, rand.New(rand.NewPCG(7, 1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := raincell.NSRP{}.Generate(p, rand.New(rand.NewPCG(7, 1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("runs differ: %d and %d raincells", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("raincell %d differs: %v and %v", i, a[i], b[i])
		}
	}

	c, err := raincell.NSRP{}.Generate(p, rand.New(rand.NewPCG(7, 2)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	same := len(a) == len(c)
	if same {
		for i := range a {
			if a[i] != c[i] {
				same = false
				break
			}
		}
	}
	if same {
		t.Errorf("different seeds produced identical raincells")
	}
}

func TestNSRPWeibullIntensity(t *testing.T) {
	// with Kappa = 1 the Weibull reduces to an exponential,
	// so with Xi = 2 the mean intensity should be near 0.5
	p := testPeriod(false, 120)
	p.Intensity = raincell.Weibull
	p.Parameters[1] = raincell.Parameters{Lambda: 0.02, Beta: 0.1, Nu: 10, Eta: 1, Xi: 2, Kappa: 1}

	a, err := raincell.NSRP{}.Generate(p, rand.New(rand.NewPCG(11, 4)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a) < 1000 {
		t.Fatalf("expecting a large sample, got %d", len(a))
	}
	var sum float64
	for _, c := range a {
		sum += c.Intensity
	}
	mean := sum / float64(len(a))
	if math.Abs(mean-0.5) > 0.05 {
		t.Errorf("mean intensity: got %g, want ~0.5", mean)
	}

	// the intensity draws must come from the realisation stream
	b, err := raincell.NSRP{}.Generate(p, rand.New(rand.NewPCG(11, 4)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("runs differ: %d and %d raincells", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("raincell %d differs: %v and %v", i, a[i], b[i])
		}
	}
}

func TestNSRPMeanIntensity(t *testing.T) {
	// with Xi = 2 the mean intensity should be near 0.5
	p := testPeriod(false, 120)
	p.Parameters[1] = raincell.Parameters{Lambda: 0.02, Beta: 0.1, Nu: 10, Eta: 1, Xi: 2}

	cells, err := raincell.NSRP{}.Generate(p, rand.New(rand.NewPCG(3, 3)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cells) < 1000 {
		t.Fatalf("expecting a large sample, got %d", len(cells))
	}
	var sum float64
	for _, c := range cells {
		sum += c.Intensity
	}
	mean := sum / float64(len(cells))
	if math.Abs(mean-0.5) > 0.05 {
		t.Errorf("mean intensity: got %g, want ~0.5", mean)
	}
}
