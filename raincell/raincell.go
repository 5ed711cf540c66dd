// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package raincell implements the raincells
// of a Neyman-Scott rectangular pulse process
// and the stochastic process that generates them.
// A raincell is a rectangular-in-time rainfall pulse
// with an arrival time,
// a duration,
// and an intensity;
// in the spatial variant it also has
// a circular area of influence.
package raincell

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/js-arias/nsrp/grid"
)

// A Raincell is one rectangular pulse rainfall event.
// Times are in hours relative to the start
// of the simulated period;
// the intensity is in mm per hour.
// Centre coordinates and influence radius
// are in the generator's native unit
// (kilometres)
// until rescaled for discretisation.
type Raincell struct {
	Arrival   float64
	End       float64
	Intensity float64

	// Spatial model only.
	X, Y   float64
	Radius float64
}

// SpatialScale is the factor that converts
// the generator's native spatial unit
// (kilometres)
// to the discretisation grid's unit
// (metres).
const SpatialScale = 1000.0

// Scale converts the raincell centre coordinates
// and influence radii
// by the given factor,
// in place.
func Scale(cells []Raincell, factor float64) {
	for i := range cells {
		cells[i].X *= factor
		cells[i].Y *= factor
		cells[i].Radius *= factor
	}
}

// An Intensity is a raincell intensity distribution kind.
type Intensity string

// Valid intensity distributions.
const (
	Exponential Intensity = "exponential"
	Weibull     Intensity = "weibull"
)

// ParseIntensity returns the intensity distribution
// for a keyword used in configuration files.
func ParseIntensity(s string) (Intensity, error) {
	switch Intensity(strings.ToLower(strings.TrimSpace(s))) {
	case Exponential, "":
		return Exponential, nil
	case Weibull:
		return Weibull, nil
	}
	return "", fmt.Errorf("raincell: unknown intensity distribution %q", s)
}

// Parameters holds the Neyman-Scott process parameters
// for one season.
// Rates are per hour unless indicated.
type Parameters struct {
	// Storm origin arrival rate.
	Lambda float64

	// Raincell displacement rate
	// (the delay of a raincell after its storm origin
	// is exponential with this rate).
	Beta float64

	// Mean number of raincells per storm
	// (temporal model).
	Nu float64

	// Raincell duration rate.
	Eta float64

	// Intensity distribution scale parameter.
	// For an exponential distribution
	// this is the rate
	// (mean intensity 1/Xi).
	Xi float64

	// Weibull intensity shape parameter.
	Kappa float64

	// Raincell radius rate in 1/km
	// (spatial model).
	Gamma float64

	// Raincell density per storm in 1/km²
	// (spatial model).
	Rho float64
}

// ReadParameters reads a process parameter table
// from a TSV file,
// one row per season.
//
// The TSV must contain the columns
// season, lambda, beta, nu, eta, and xi;
// the columns kappa, gamma, and rho are optional.
//
// Here is an example file:
//
//	season	lambda	beta	nu	eta	xi	gamma	rho
//	1	0.012	0.08	5	1.1	1.4	0.35	0.008
//	2	0.021	0.11	7	0.9	1.1	0.42	0.011
func ReadParameters(r io.Reader) (map[int]Parameters, error) {
	tsv := csv.NewReader(r)
	tsv.Comma = '\t'
	tsv.Comment = '#'

	head, err := tsv.Read()
	if err != nil {
		return nil, fmt.Errorf("while reading header: %v", err)
	}
	fields := make(map[string]int, len(head))
	for i, h := range head {
		fields[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, h := range []string{"season", "lambda", "beta", "nu", "eta", "xi"} {
		if _, ok := fields[h]; !ok {
			return nil, fmt.Errorf("expecting field %q", h)
		}
	}

	read := func(row []string, field string) (float64, bool, error) {
		i, ok := fields[field]
		if !ok {
			return 0, false, nil
		}
		s := strings.TrimSpace(row[i])
		if s == "" {
			return 0, false, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, fmt.Errorf("field %q: %v", field, err)
		}
		return v, true, nil
	}

	params := make(map[int]Parameters)
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on line %d: %v", ln, err)
		}

		s, err := strconv.Atoi(strings.TrimSpace(row[fields["season"]]))
		if err != nil {
			return nil, fmt.Errorf("on line %d: field %q: %v", ln, "season", err)
		}
		var p Parameters
		for _, f := range []struct {
			name string
			dst  *float64
		}{
			{"lambda", &p.Lambda},
			{"beta", &p.Beta},
			{"nu", &p.Nu},
			{"eta", &p.Eta},
			{"xi", &p.Xi},
			{"kappa", &p.Kappa},
			{"gamma", &p.Gamma},
			{"rho", &p.Rho},
		} {
			v, ok, err := read(row, f.name)
			if err != nil {
				return nil, fmt.Errorf("on line %d: %v", ln, err)
			}
			if ok {
				*f.dst = v
			}
		}
		params[s] = p
	}
	if len(params) == 0 {
		return nil, errors.New("empty parameter table")
	}
	return params, nil
}

// A Period describes the simulated period
// for which raincells are requested.
type Period struct {
	// Spatial indicates the spatial process variant.
	Spatial bool

	// Parameters of the process,
	// per season.
	Parameters map[int]Parameters

	// MonthLengths is the elapsed-hours span
	// of each month of the period,
	// and MonthSeasons the season of each month.
	MonthLengths []float64
	MonthSeasons []int

	// Intensity distribution of the raincells.
	Intensity Intensity

	// Domain is the simulation domain
	// in the discretisation grid's unit
	// (metres; spatial model only).
	Domain grid.Extent
}

// A Generator produces the raincells of a simulated period.
// The raincells are relative to the period start
// and in the generator's native spatial unit.
type Generator interface {
	Generate(p Period, rng *rand.Rand) ([]Raincell, error)
}
