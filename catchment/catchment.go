// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package catchment implements catchment polygons
// and the areal weights that relate them
// to the cells of a discretisation grid.
// Catchment-average rainfall is a weighted mean
// over grid cells,
// with each weight proportional to the area of the cell
// inside the catchment.
package catchment

import (
	"errors"
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/index/rtree"
	"gonum.org/v1/gonum/floats"

	"github.com/js-arias/nsrp/grid"
)

// ErrZeroWeight is returned when a catchment
// has zero total weight over the grid,
// so its average rainfall is undefined.
var ErrZeroWeight = errors.New("catchment: zero total weight")

// ErrMisaligned is returned when independently computed
// point orderings do not match.
var ErrMisaligned = errors.New("catchment: misaligned point ordering")

// A Catchment is a named polygon
// over which rainfall is averaged.
type Catchment struct {
	ID   int
	Name string
	Poly geom.Polygonal
}

// ReadShapefile reads catchment polygons from a shapefile,
// taking the catchment identifier from the idField attribute
// and the catchment name from the nameField attribute.
// If nameField is empty,
// or the attribute is blank,
// the identifier is used as the name.
func ReadShapefile(path, idField, nameField string) ([]Catchment, error) {
	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("catchment: on file %q: %v", path, err)
	}
	defer d.Close()

	fields := []string{idField}
	if nameField != "" {
		fields = append(fields, nameField)
	}

	var cats []Catchment
	for {
		g, attrs, more := d.DecodeRowFields(fields...)
		if !more {
			break
		}
		p, ok := g.(geom.Polygonal)
		if !ok {
			return nil, fmt.Errorf("catchment: on file %q: geometry %T is not polygonal", path, g)
		}

		var id int
		if _, err := fmt.Sscan(attrs[idField], &id); err != nil {
			return nil, fmt.Errorf("catchment: on file %q: field %q: %v", path, idField, err)
		}
		name := ""
		if nameField != "" {
			name = attrs[nameField]
		}
		if name == "" {
			name = attrs[idField]
		}
		cats = append(cats, Catchment{ID: id, Name: name, Poly: p})
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("catchment: on file %q: %v", path, err)
	}
	if len(cats) == 0 {
		return nil, fmt.Errorf("catchment: on file %q: no polygons", path)
	}
	return cats, nil
}

// PointWeights is the per-grid-point weight array
// of one catchment,
// with the coordinates of the points
// in the same order as the weights.
type PointWeights struct {
	X, Y   []float64
	Weight []float64
}

// a cell is one grid cell stored in the spatial index,
// as its square polygon
// plus its position in the flattened cell ordering.
type cell struct {
	geom.Polygon
	index int
}

// Weights computes the areal weight of every grid cell
// for each catchment.
// The weight of a cell is the fraction of its area
// inside the catchment polygon,
// so cells outside the catchment weigh zero.
// The returned arrays follow the grid's flattened
// cell-centre ordering.
func Weights(cats []Catchment, d grid.Descriptor) (map[int]PointWeights, error) {
	x, y := d.Centers()
	half := d.CellSize / 2
	cellArea := d.CellSize * d.CellSize

	tree := rtree.NewTree(25, 50)
	for i := range x {
		sq := geom.Polygon{{
			{X: x[i] - half, Y: y[i] - half},
			{X: x[i] + half, Y: y[i] - half},
			{X: x[i] + half, Y: y[i] + half},
			{X: x[i] - half, Y: y[i] + half},
		}}
		tree.Insert(&cell{Polygon: sq, index: i})
	}

	w := make(map[int]PointWeights, len(cats))
	for _, ct := range cats {
		pw := PointWeights{
			X:      x,
			Y:      y,
			Weight: make([]float64, len(x)),
		}
		for _, it := range tree.SearchIntersect(ct.Poly.Bounds()) {
			c := it.(*cell)
			isect := ct.Poly.Intersection(c.Polygon)
			if isect == nil {
				continue
			}
			pw.Weight[c.index] = isect.Area() / cellArea
		}
		if floats.Sum(pw.Weight) == 0 {
			return nil, fmt.Errorf("%w: catchment %q", ErrZeroWeight, ct.Name)
		}
		w[ct.ID] = pw
	}
	return w, nil
}

// Average computes the weighted catchment mean
// of the first steps timesteps of a discretised buffer,
// given one rainfall column per grid point,
// storing the result in dst.
// Zero-weight points do not contribute to the mean.
func Average(cols [][]float64, steps int, weights []float64, dst []float64) error {
	if len(cols) != len(weights) {
		return fmt.Errorf("%w: %d columns for %d weights", ErrMisaligned, len(cols), len(weights))
	}
	total := floats.Sum(weights)
	if total == 0 {
		return ErrZeroWeight
	}

	for t := 0; t < steps; t++ {
		dst[t] = 0
	}
	for l, col := range cols {
		w := weights[l]
		if w == 0 {
			continue
		}
		for t := 0; t < steps; t++ {
			dst[t] += w * col[t]
		}
	}
	for t := 0; t < steps; t++ {
		dst[t] /= total
	}
	return nil
}
