// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package grid implements the regular output grid
// used to discretise a simulated rainfall field,
// and the elevation rasters associated with it.
package grid

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ErrNoGeometry is returned when a simulation domain is requested
// but neither a grid nor output points were defined.
var ErrNoGeometry = errors.New("grid: no grid or points defined")

// A Descriptor describes a regular grid
// by its lower-left corner,
// its cell size,
// and its number of rows and columns.
type Descriptor struct {
	XLLCorner float64
	YLLCorner float64
	CellSize  float64
	Rows      int
	Cols      int
}

// ReadDescriptor reads a grid descriptor from a TSV file
// with a key-value pair per row.
//
// Here is an example file:
//
//	# output grid
//	xllcorner	655000
//	yllcorner	230000
//	cellsize	1000
//	nrows	20
//	ncols	30
func ReadDescriptor(r io.Reader) (Descriptor, error) {
	tsv := csv.NewReader(r)
	tsv.Comma = '\t'
	tsv.Comment = '#'
	tsv.FieldsPerRecord = -1

	var d Descriptor
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return Descriptor{}, fmt.Errorf("on line %d: %v", ln, err)
		}
		if len(row) < 2 {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(row[0]))
		val := strings.TrimSpace(row[1])
		if key == "" || val == "" {
			continue
		}
		switch key {
		case "xllcorner", "yllcorner", "cellsize":
			v, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return Descriptor{}, fmt.Errorf("on line %d: field %q: %v", ln, key, err)
			}
			switch key {
			case "xllcorner":
				d.XLLCorner = v
			case "yllcorner":
				d.YLLCorner = v
			case "cellsize":
				d.CellSize = v
			}
		case "nrows", "ncols":
			v, err := strconv.Atoi(val)
			if err != nil {
				return Descriptor{}, fmt.Errorf("on line %d: field %q: %v", ln, key, err)
			}
			if key == "nrows" {
				d.Rows = v
			} else {
				d.Cols = v
			}
		}
	}
	if d.CellSize <= 0 {
		return Descriptor{}, fmt.Errorf("grid: invalid cell size %g", d.CellSize)
	}
	if d.Rows <= 0 || d.Cols <= 0 {
		return Descriptor{}, fmt.Errorf("grid: invalid dimensions %dx%d", d.Rows, d.Cols)
	}
	return d, nil
}

// Limits returns the outer bounds of the grid.
func (d Descriptor) Limits() (xMin, yMin, xMax, yMax float64) {
	xMin = d.XLLCorner
	yMin = d.YLLCorner
	xMax = d.XLLCorner + float64(d.Cols)*d.CellSize
	yMax = d.YLLCorner + float64(d.Rows)*d.CellSize
	return xMin, yMin, xMax, yMax
}

// Centers returns the flattened cell-centre coordinates of the grid.
// Rows are ordered from north to south
// to match conventional raster layouts;
// all arrays that are positionally keyed to the grid
// must preserve this order.
func (d Descriptor) Centers() (x, y []float64) {
	x = make([]float64, 0, d.Rows*d.Cols)
	y = make([]float64, 0, d.Rows*d.Cols)
	for i := d.Rows - 1; i >= 0; i-- {
		cy := d.YLLCorner + (float64(i)+0.5)*d.CellSize
		for j := 0; j < d.Cols; j++ {
			cx := d.XLLCorner + (float64(j)+0.5)*d.CellSize
			x = append(x, cx)
			y = append(y, cy)
		}
	}
	return x, y
}

// An Extent is a simulation domain extent.
type Extent struct {
	XMin, YMin float64
	XMax, YMax float64
}

// Bounds returns the simulation domain extent
// enclosing the output grid
// (if g is not nil)
// and the output point locations
// (if x and y are not empty).
// Each bound is rounded outward to a multiple of the cell size
// so that the domain aligns with the discretisation grid.
func Bounds(g *Descriptor, x, y []float64, cellSize float64) (Extent, error) {
	if g == nil && len(x) == 0 {
		return Extent{}, ErrNoGeometry
	}

	var e Extent
	first := true
	if g != nil {
		e.XMin, e.YMin, e.XMax, e.YMax = g.Limits()
		first = false
	}
	for i := range x {
		if first {
			e.XMin, e.XMax = x[i], x[i]
			e.YMin, e.YMax = y[i], y[i]
			first = false
			continue
		}
		e.XMin = math.Min(e.XMin, x[i])
		e.XMax = math.Max(e.XMax, x[i])
		e.YMin = math.Min(e.YMin, y[i])
		e.YMax = math.Max(e.YMax, y[i])
	}

	e.XMin = math.Floor(e.XMin/cellSize) * cellSize
	e.YMin = math.Floor(e.YMin/cellSize) * cellSize
	e.XMax = math.Ceil(e.XMax/cellSize) * cellSize
	e.YMax = math.Ceil(e.YMax/cellSize) * cellSize
	return e, nil
}
