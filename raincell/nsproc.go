// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package raincell

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// domainBuffer is the margin,
// in mean radii,
// added around the simulation domain
// so that raincells centred outside the domain
// can still influence locations inside it.
const domainBuffer = 4.0

// NSRP is a Neyman-Scott rectangular pulse generator.
// Storm origins arrive by a Poisson process;
// raincells are scattered around each origin
// with exponential delays,
// exponential durations,
// and intensities from the configured distribution.
// In the spatial variant each raincell also gets
// a uniform centre within a buffered domain
// and an exponential influence radius.
type NSRP struct{}

// Generate implements the Generator interface.
func (NSRP) Generate(p Period, rng *rand.Rand) ([]Raincell, error) {
	if len(p.MonthLengths) != len(p.MonthSeasons) {
		return nil, fmt.Errorf("raincell: %d month lengths for %d seasons", len(p.MonthLengths), len(p.MonthSeasons))
	}

	// buffered domain in the native unit (km)
	var xMin, xMax, yMin, yMax float64
	if p.Spatial {
		xMin = p.Domain.XMin / SpatialScale
		xMax = p.Domain.XMax / SpatialScale
		yMin = p.Domain.YMin / SpatialScale
		yMax = p.Domain.YMax / SpatialScale
	}

	var cells []Raincell
	start := 0.0
	for m, h := range p.MonthLengths {
		par, ok := p.Parameters[p.MonthSeasons[m]]
		if !ok {
			return nil, fmt.Errorf("raincell: no parameters for season %d", p.MonthSeasons[m])
		}

		bx0, bx1, by0, by1 := xMin, xMax, yMin, yMax
		var area float64
		if p.Spatial {
			if par.Gamma <= 0 || par.Rho <= 0 {
				return nil, fmt.Errorf("raincell: season %d: spatial model requires gamma and rho", p.MonthSeasons[m])
			}
			buffer := domainBuffer / par.Gamma
			bx0 -= buffer
			bx1 += buffer
			by0 -= buffer
			by1 += buffer
			area = (bx1 - bx0) * (by1 - by0)
		}

		storms := poisson(par.Lambda*h, rng)
		for s := 0; s < storms; s++ {
			origin := start + rng.Float64()*h

			var n int
			if p.Spatial {
				n = poisson(par.Rho*area, rng)
			} else {
				n = poisson(par.Nu, rng)
			}
			for c := 0; c < n; c++ {
				delay := rng.ExpFloat64() / par.Beta
				duration := rng.ExpFloat64() / par.Eta
				rc := Raincell{
					Arrival:   origin + delay,
					End:       origin + delay + duration,
					Intensity: intensity(par, p.Intensity, rng),
				}
				if p.Spatial {
					rc.X = bx0 + rng.Float64()*(bx1-bx0)
					rc.Y = by0 + rng.Float64()*(by1-by0)
					rc.Radius = rng.ExpFloat64() / par.Gamma
				}
				cells = append(cells, rc)
			}
		}
		start += h
	}
	return cells, nil
}

// source adapts the realisation stream
// to the random source expected by the distributions.
// Reseeding is done by forking a fresh stream,
// so Seed is a no-op.
type source struct {
	rng *rand.Rand
}

func (s source) Uint64() uint64 {
	return s.rng.Uint64()
}

func (s source) Seed(uint64) {}

func poisson(lambda float64, rng *rand.Rand) int {
	if lambda <= 0 {
		return 0
	}
	d := distuv.Poisson{Lambda: lambda, Src: source{rng}}
	return int(d.Rand())
}

func intensity(par Parameters, kind Intensity, rng *rand.Rand) float64 {
	if kind == Weibull {
		d := distuv.Weibull{K: par.Kappa, Lambda: 1 / par.Xi, Src: source{rng}}
		return d.Rand()
	}
	return rng.ExpFloat64() / par.Xi
}
