// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package output implements the staging and writing
// of discretised rainfall series,
// one file per output type,
// location,
// and realisation.
package output

import (
	"fmt"
	"path/filepath"
	"strconv"
)

// A Type is an output kind.
type Type string

// Valid output types.
const (
	Point     Type = "point"
	Catchment Type = "catchment"
	Grid      Type = "grid"
)

// ParseType returns the output type
// for a keyword used in configuration files.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case Point, Catchment, Grid:
		return Type(s), nil
	}
	return "", fmt.Errorf("output: unknown output type %q", s)
}

// A Key identifies one output series.
type Key struct {
	Type        Type
	Location    string
	Realisation int
}

// Paths maps every output series to its file path.
type Paths map[Key]string

// extensions of the valid text output formats.
var extensions = map[string]string{
	"csv":  ".csv",
	"csvy": ".csvy",
	"txt":  ".txt",
}

// Extension returns the file extension
// for a text output format keyword.
func Extension(format string) (string, error) {
	e, ok := extensions[format]
	if !ok {
		return "", fmt.Errorf("output: unknown format %q", format)
	}
	return e, nil
}

// A PathsParam is a collection of parameters
// for the output path table.
type PathsParam struct {
	// Spatial indicates a spatial model run.
	Spatial bool

	// Requested output types.
	Types []Type

	// Format is the text output format keyword.
	Format string

	// Folder is the output folder,
	// with one subfolder per output type.
	Folder     string
	Subfolders map[Type]string

	// Location names per output type.
	PointNames     []string
	CatchmentNames []string

	// Realisations is the number of realisations.
	Realisations int
}

// MakePaths builds the output path table.
// Non-spatial runs use files named r<realisation>;
// spatial runs prefix the location name.
// Grid output always uses the NetCDF extension
// regardless of the configured text format.
func MakePaths(p PathsParam) (Paths, error) {
	ext, err := Extension(p.Format)
	if err != nil {
		return nil, err
	}

	paths := make(Paths)
	for _, typ := range p.Types {
		e := ext
		var locations []string
		switch typ {
		case Point:
			if p.Spatial {
				locations = p.PointNames
			} else {
				locations = []string{"1"}
			}
		case Catchment:
			locations = p.CatchmentNames
		case Grid:
			locations = []string{"1"}
			e = ".nc"
		}

		sub := p.Folder
		if s, ok := p.Subfolders[typ]; ok {
			sub = filepath.Join(p.Folder, s)
		}
		for r := 1; r <= p.Realisations; r++ {
			for _, loc := range locations {
				name := "r" + strconv.Itoa(r) + e
				if p.Spatial {
					name = loc + "_" + name
				}
				paths[Key{Type: typ, Location: loc, Realisation: r}] = filepath.Join(sub, name)
			}
		}
	}
	return paths, nil
}
