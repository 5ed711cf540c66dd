// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package simulate

import (
	"fmt"

	"github.com/js-arias/nsrp/catchment"
	"github.com/js-arias/nsrp/grid"
	"github.com/js-arias/nsrp/phifield"
)

// Locations is the flattened location set
// of one output kind,
// with the per-season scaling factors
// aligned index-for-index with the coordinates.
type Locations struct {
	// Name is the location name,
	// set only for point locations.
	Name []string

	X, Y []float64
	Z    []float64

	// Phi is the scaling factor of each location,
	// per season.
	Phi map[int][]float64
}

// Len returns the number of locations.
func (l *Locations) Len() int {
	return len(l.X)
}

// A Metadata holds the discretisation locations
// of a simulation
// and the catchment weights over the grid locations.
type Metadata struct {
	// Point locations,
	// nil when no point output is requested.
	Point *Locations

	// Grid locations in north-to-south row order,
	// nil when neither grid nor catchment output
	// is requested.
	Grid *Locations

	// Desc is the output grid.
	Desc grid.Descriptor

	// Weights is the areal weight of each grid location,
	// per catchment.
	Weights map[int][]float64

	// Names is the name of each catchment.
	Names map[int]string
}

// A MetadataParam is a collection of parameters
// to build the discretisation metadata.
type MetadataParam struct {
	// Grid is the output grid,
	// required when grid or catchment output
	// is requested.
	Grid *grid.Descriptor

	// Points are the point output locations.
	Points *grid.Points

	// DEM is the elevation raster,
	// at the output grid's resolution or finer.
	DEM *grid.Raster

	// Phi estimates the scaling factor field,
	// nil for a spatially uniform model.
	Phi *phifield.Estimator

	// Seasons are the season identifiers in use.
	Seasons []int

	// Catchments are the catchment polygons.
	Catchments []catchment.Catchment

	// NeedGrid indicates that gridded output
	// is requested,
	// so grid locations cannot be pruned.
	NeedGrid bool
}

// BuildMetadata builds the discretisation metadata
// of a simulation.
// Grid locations follow the grid's flattened
// cell-centre ordering,
// and elevations are resampled from the DEM
// to that same ordering.
func BuildMetadata(p MetadataParam) (*Metadata, error) {
	m := &Metadata{}

	if p.Points != nil && p.Points.Len() > 0 {
		l := &Locations{
			Name: p.Points.Name,
			X:    p.Points.X,
			Y:    p.Points.Y,
			Z:    p.Points.Z,
		}
		if err := setPhi(l, p.Phi, p.Seasons); err != nil {
			return nil, fmt.Errorf("point locations: %v", err)
		}
		m.Point = l
	}

	if p.NeedGrid || len(p.Catchments) > 0 {
		if p.Grid == nil {
			return nil, grid.ErrNoGeometry
		}
		m.Desc = *p.Grid

		l := &Locations{}
		l.X, l.Y = p.Grid.Centers()
		if p.DEM != nil {
			r, err := p.DEM.Resample(*p.Grid)
			if err != nil {
				return nil, fmt.Errorf("grid locations: %v", err)
			}
			l.Z = r.Values
		}
		if err := setPhi(l, p.Phi, p.Seasons); err != nil {
			return nil, fmt.Errorf("grid locations: %v", err)
		}
		m.Grid = l

		if len(p.Catchments) > 0 {
			w, err := catchment.Weights(p.Catchments, *p.Grid)
			if err != nil {
				return nil, err
			}
			m.Weights = make(map[int][]float64, len(w))
			m.Names = make(map[int]string, len(p.Catchments))
			for _, ct := range p.Catchments {
				m.Names[ct.ID] = ct.Name
			}
			for id, pw := range w {
				if err := m.attach(id, pw); err != nil {
					return nil, err
				}
			}
		}
		if !p.NeedGrid {
			m.prune()
		}
	}
	return m, nil
}

// setPhi fills the per-season scaling factors
// of a location set,
// using a uniform factor of one
// when no estimator is given.
func setPhi(l *Locations, e *phifield.Estimator, seasons []int) error {
	l.Phi = make(map[int][]float64, len(seasons))
	for _, s := range seasons {
		if e == nil {
			phi := make([]float64, len(l.X))
			for i := range phi {
				phi[i] = 1
			}
			l.Phi[s] = phi
			continue
		}
		phi, err := e.Interpolate(s, l.X, l.Y, l.Z)
		if err != nil {
			return err
		}
		l.Phi[s] = phi
	}
	return nil
}

// attach stores the weight array of a catchment,
// checking that it follows the grid location ordering.
func (m *Metadata) attach(id int, pw catchment.PointWeights) error {
	if len(pw.X) != m.Grid.Len() {
		return fmt.Errorf("catchment %d: %w", id, catchment.ErrMisaligned)
	}
	for i := range pw.X {
		if pw.X[i] != m.Grid.X[i] || pw.Y[i] != m.Grid.Y[i] {
			return fmt.Errorf("catchment %d: %w", id, catchment.ErrMisaligned)
		}
	}
	m.Weights[id] = pw.Weight
	return nil
}

// prune drops grid locations outside every catchment,
// so a catchment-only run does not discretise
// the full grid.
func (m *Metadata) prune() {
	if len(m.Weights) == 0 {
		return
	}
	keep := make([]int, 0, m.Grid.Len())
	for i := range m.Grid.X {
		for _, w := range m.Weights {
			if w[i] > 0 {
				keep = append(keep, i)
				break
			}
		}
	}
	if len(keep) == m.Grid.Len() {
		return
	}

	l := &Locations{
		X:   pick(m.Grid.X, keep),
		Y:   pick(m.Grid.Y, keep),
		Phi: make(map[int][]float64, len(m.Grid.Phi)),
	}
	if m.Grid.Z != nil {
		l.Z = pick(m.Grid.Z, keep)
	}
	for s, phi := range m.Grid.Phi {
		l.Phi[s] = pick(phi, keep)
	}
	m.Grid = l
	for id, w := range m.Weights {
		m.Weights[id] = pick(w, keep)
	}
}

func pick(v []float64, idx []int) []float64 {
	p := make([]float64, len(idx))
	for i, j := range idx {
		p[i] = v[j]
	}
	return p
}
