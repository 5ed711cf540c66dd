// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package grid

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Points is a table of named output point locations.
type Points struct {
	Name []string
	X    []float64
	Y    []float64

	// Z is the point elevations,
	// or nil if the table has no elevation column.
	Z []float64
}

// Len returns the number of points in the table.
func (p *Points) Len() int {
	return len(p.Name)
}

// ReadPoints reads a point table from a TSV file.
//
// The TSV must contain the following columns:
//
//	-name, the point identifier
//	-easting, the x coordinate in metres
//	-northing, the y coordinate in metres
//
// An elevation column, in metres, is optional,
// but if present it must be defined for every point.
//
// Here is an example file:
//
//	name	easting	northing	elevation
//	gauge-1	656200	233700	125
//	gauge-2	671500	241200	340
func ReadPoints(r io.Reader) (*Points, error) {
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
	for _, h := range []string{"name", "easting", "northing"} {
		if _, ok := fields[h]; !ok {
			return nil, fmt.Errorf("expecting field %q", h)
		}
	}
	zCol, hasZ := fields["elevation"]

	p := &Points{}
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on line %d: %v", ln, err)
		}

		name := strings.TrimSpace(row[fields["name"]])
		if name == "" {
			continue
		}
		x, err := strconv.ParseFloat(row[fields["easting"]], 64)
		if err != nil {
			return nil, fmt.Errorf("on line %d: field %q: %v", ln, "easting", err)
		}
		y, err := strconv.ParseFloat(row[fields["northing"]], 64)
		if err != nil {
			return nil, fmt.Errorf("on line %d: field %q: %v", ln, "northing", err)
		}
		p.Name = append(p.Name, name)
		p.X = append(p.X, x)
		p.Y = append(p.Y, y)
		if hasZ {
			z, err := strconv.ParseFloat(row[zCol], 64)
			if err != nil {
				return nil, fmt.Errorf("on line %d: field %q: %v", ln, "elevation", err)
			}
			p.Z = append(p.Z, z)
		}
	}
	return p, nil
}
