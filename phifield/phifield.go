// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package phifield implements the spatial model
// of the phi scaling parameter of a rainfall field.
// Phi is a multiplicative factor
// applied to discretised rainfall intensity
// to represent spatial rainfall variability.
// For each season a variogram is fitted
// to calibrated phi values
// and interpolated by kriging
// onto the discretisation locations,
// optionally using elevation as an external drift.
package phifield

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/js-arias/nsrp/geostat"
)

// SignificanceLevel is the p-value threshold
// under which an elevation trend is deemed significant.
const SignificanceLevel = 0.05

// A Calibration is a table of calibrated phi values
// at known locations,
// one set per season.
type Calibration struct {
	Season []int
	X      []float64
	Y      []float64
	Z      []float64
	Phi    []float64
}

// ReadCalibration reads a phi calibration table from a TSV file.
//
// The TSV must contain the following columns:
//
//	-season, the season identifier
//	-easting, the x coordinate in metres
//	-northing, the y coordinate in metres
//	-elevation, the elevation in metres
//	-phi, the calibrated phi value
//
// Here is an example file:
//
//	season	easting	northing	elevation	phi
//	1	656200	233700	125	0.97
//	1	671500	241200	340	1.14
//	2	656200	233700	125	1.02
//	2	671500	241200	340	0.97
func ReadCalibration(r io.Reader) (*Calibration, error) {
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
	for _, h := range []string{"season", "easting", "northing", "elevation", "phi"} {
		if _, ok := fields[h]; !ok {
			return nil, fmt.Errorf("expecting field %q", h)
		}
	}

	c := &Calibration{}
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
		vals := make([]float64, 4)
		for i, f := range []string{"easting", "northing", "elevation", "phi"} {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[fields[f]]), 64)
			if err != nil {
				return nil, fmt.Errorf("on line %d: field %q: %v", ln, f, err)
			}
			vals[i] = v
		}
		c.Season = append(c.Season, s)
		c.X = append(c.X, vals[0])
		c.Y = append(c.Y, vals[1])
		c.Z = append(c.Z, vals[2])
		c.Phi = append(c.Phi, vals[3])
	}
	return c, nil
}

// season returns the calibration subset for a season.
func (c *Calibration) season(s int) (x, y, z, phi []float64) {
	for i, cs := range c.Season {
		if cs != s {
			continue
		}
		x = append(x, c.X[i])
		y = append(y, c.Y[i])
		z = append(z, c.Z[i])
		phi = append(phi, c.Phi[i])
	}
	return x, y, z, phi
}

// A seasonModel is the fitted spatial model of phi
// for a single season.
type seasonModel struct {
	krig *geostat.Predictor

	// log indicates that the model was fitted
	// on log-transformed phi values.
	log bool

	// drift indicates an external-drift predictor.
	drift bool
}

// An Estimator interpolates the phi parameter
// onto discretisation locations,
// season by season.
type Estimator struct {
	models map[int]*seasonModel
}

// NewEstimator fits a spatial model of phi
// for each of the given seasons.
// If withElevation is true,
// an elevation trend is tested for each season
// and used as an external drift when significant.
func NewEstimator(c *Calibration, seasons []int, withElevation bool) (*Estimator, error) {
	e := &Estimator{models: make(map[int]*seasonModel, len(seasons))}
	for _, s := range seasons {
		m, err := fitSeason(c, s, withElevation)
		if err != nil {
			return nil, fmt.Errorf("phifield: season %d: %v", s, err)
		}
		e.models[s] = m
	}
	return e, nil
}

func fitSeason(c *Calibration, season int, withElevation bool) (*seasonModel, error) {
	x, y, z, phi := c.season(season)
	if len(phi) == 0 {
		return nil, errors.New("no calibration values")
	}

	logPhi := make([]float64, len(phi))
	for i, p := range phi {
		if p <= 0 {
			return nil, fmt.Errorf("non-positive phi %g at calibration point %d", p, i)
		}
		logPhi[i] = math.Log(p)
	}

	// Test for elevation dependence of phi,
	// trying untransformed and log-transformed values.
	var trend geostat.Regression
	significant := false
	logT := false
	if withElevation {
		un, err := geostat.Linregress(z, phi)
		if err != nil {
			return nil, err
		}
		lg, err := geostat.Linregress(z, logPhi)
		if err != nil {
			return nil, err
		}
		if un.PValue < SignificanceLevel || lg.PValue < SignificanceLevel {
			significant = true
			if un.R >= lg.R {
				trend = un
			} else {
				logT = true
				trend = lg
			}
		}
	}

	vals := phi
	if logT {
		vals = logPhi
	}

	// Remove the elevation signal before variogram estimation
	// to isolate the spatial correlation structure.
	vario := vals
	if significant {
		vario = make([]float64, len(vals))
		for i, v := range vals {
			vario[i] = v - trend.Predict(z[i])
		}
	}

	dist, gamma, err := geostat.Empirical(x, y, vario, geostat.DefaultBins)
	if err != nil {
		return nil, err
	}
	vg, err := geostat.FitBest(dist, gamma)
	if err != nil {
		return nil, err
	}

	m := &seasonModel{log: logT}
	if significant {
		m.drift = true
		m.krig, err = geostat.NewExtDrift(x, y, vals, z, vg)
	} else {
		m.krig, err = geostat.NewOrdinary(x, y, vals, vg)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Interpolate returns the phi values of a season
// at every target location.
// The returned array is positionally aligned
// with the target coordinate arrays.
// Negative interpolated values are clamped to zero.
func (e *Estimator) Interpolate(season int, x, y, z []float64) ([]float64, error) {
	m, ok := e.models[season]
	if !ok {
		return nil, fmt.Errorf("phifield: season %d not fitted", season)
	}
	if m.drift && len(z) != len(x) {
		return nil, fmt.Errorf("phifield: season %d requires elevations for %d targets", season, len(x))
	}

	est, err := m.krig.Interpolate(x, y, z)
	if err != nil {
		return nil, fmt.Errorf("phifield: season %d: %v", season, err)
	}
	for i, v := range est {
		if m.log {
			v = math.Exp(v)
		}
		if v < 0 {
			v = 0
		}
		est[i] = v
	}
	return est, nil
}
