// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package project

import (
	"fmt"
	"os"

	"github.com/js-arias/nsrp/calendar"
	"github.com/js-arias/nsrp/catchment"
	"github.com/js-arias/nsrp/grid"
	"github.com/js-arias/nsrp/phifield"
	"github.com/js-arias/nsrp/raincell"
)

// Catchments reads the catchment polygons
// as defined in a project.
// The field names identify the ID and name attributes
// of the shapefile records.
func (p *Project) Catchments(idField, nameField string) ([]catchment.Catchment, error) {
	name := p.Path(Catchments)
	if name == "" {
		return nil, fmt.Errorf("catchments not defined in project %q", p.name)
	}

	cats, err := catchment.ReadShapefile(name, idField, nameField)
	if err != nil {
		return nil, fmt.Errorf("when reading %q: %v", name, err)
	}
	return cats, nil
}

// DEM reads the elevation raster
// as defined in a project.
func (p *Project) DEM() (*grid.Raster, error) {
	name := p.Path(DEM)
	if name == "" {
		return nil, fmt.Errorf("dem not defined in project %q", p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := grid.ReadASCII(f)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return r, nil
}

// Grid reads the output grid definition
// as defined in a project.
func (p *Project) Grid() (grid.Descriptor, error) {
	name := p.Path(Grid)
	if name == "" {
		return grid.Descriptor{}, fmt.Errorf("grid not defined in project %q", p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return grid.Descriptor{}, err
	}
	defer f.Close()

	d, err := grid.ReadDescriptor(f)
	if err != nil {
		return grid.Descriptor{}, fmt.Errorf("on file %q: %v", name, err)
	}
	return d, nil
}

// Parameters reads the process parameters
// as defined in a project.
func (p *Project) Parameters() (map[int]raincell.Parameters, error) {
	name := p.Path(Parameters)
	if name == "" {
		return nil, fmt.Errorf("parameters not defined in project %q", p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	par, err := raincell.ReadParameters(f)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return par, nil
}

// Phi reads the scaling factor calibration values
// as defined in a project.
func (p *Project) Phi() (*phifield.Calibration, error) {
	name := p.Path(Phi)
	if name == "" {
		return nil, fmt.Errorf("phi not defined in project %q", p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := phifield.ReadCalibration(f)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return c, nil
}

// Points reads the point output locations
// as defined in a project.
func (p *Project) Points() (*grid.Points, error) {
	name := p.Path(Points)
	if name == "" {
		return nil, fmt.Errorf("points not defined in project %q", p.name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pts, err := grid.ReadPoints(f)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return pts, nil
}

// Seasons reads the month-to-season definitions
// as defined in a project.
// An undefined dataset is not an error:
// it yields a single annual season.
func (p *Project) Seasons() (calendar.Seasons, error) {
	name := p.Path(Seasons)
	if name == "" {
		return calendar.Annual(), nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := calendar.ReadSeasons(f)
	if err != nil {
		return nil, fmt.Errorf("on file %q: %v", name, err)
	}
	return s, nil
}
