// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package add implements a command to add a dataset file
// to an NSRP project.
package add

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/js-arias/command"
	"github.com/js-arias/nsrp/calendar"
	"github.com/js-arias/nsrp/catchment"
	"github.com/js-arias/nsrp/grid"
	"github.com/js-arias/nsrp/phifield"
	"github.com/js-arias/nsrp/project"
	"github.com/js-arias/nsrp/raincell"
)

var Command = &command.Command{
	Usage: "add --type <file-type> [--id <field>] [--name <field>] <project-file> <dataset-file>",
	Short: "add a dataset file to a project",
	Long: `
Command add adds the path of a dataset file to an NSRP project. The dataset
is validated before the project is updated.

The first argument of the command is the name of the project file. If no
project exists, a new project will be created.

The second argument is the valid path of the dataset file. If there is a
dataset of the same type already defined in the project, its path will be
replaced by the path of the added file.

The type of the added dataset must be explicitly defined using the flag
--type with one of the following values:

	catchments	catchment polygons, as an ESRI shapefile
	dem		an elevation raster, as an ESRI ASCII grid
	grid		the output grid definition, as a TSV file
	parameters	process parameters per season, as a TSV file
	phi		scaling factor calibration values, as a TSV file
	points		point output locations, as a TSV file
	seasons		month-to-season definitions, as a TSV file

For a catchment shapefile, the flags --id and --name define the attribute
fields used for the catchment identifiers and names. The defaults are "ID"
and "Name".
	`,
	SetFlags: setFlags,
	Run:      run,
}

var typeFlag string
var idFlag string
var nameFlag string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&typeFlag, "type", "", "")
	c.Flags().StringVar(&idFlag, "id", "ID", "")
	c.Flags().StringVar(&nameFlag, "name", "Name", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}
	if len(args) < 2 {
		return c.UsageError("expecting dataset file")
	}
	if typeFlag == "" {
		return c.UsageError("flag --type undefined")
	}

	pFile := args[0]
	p, err := openProject(pFile)
	if err != nil {
		return err
	}

	path := args[1]
	typeFlag = strings.ToLower(typeFlag)
	d := project.Dataset(typeFlag)
	switch d {
	case project.Catchments:
		_, err = catchment.ReadShapefile(path, idFlag, nameFlag)
	case project.DEM:
		err = validate(path, func(f *os.File) error {
			_, err := grid.ReadASCII(f)
			return err
		})
	case project.Grid:
		err = validate(path, func(f *os.File) error {
			_, err := grid.ReadDescriptor(f)
			return err
		})
	case project.Parameters:
		err = validate(path, func(f *os.File) error {
			_, err := raincell.ReadParameters(f)
			return err
		})
	case project.Phi:
		err = validate(path, func(f *os.File) error {
			_, err := phifield.ReadCalibration(f)
			return err
		})
	case project.Points:
		err = validate(path, func(f *os.File) error {
			_, err := grid.ReadPoints(f)
			return err
		})
	case project.Seasons:
		err = validate(path, func(f *os.File) error {
			_, err := calendar.ReadSeasons(f)
			return err
		})
	default:
		msg := fmt.Sprintf("flag --type: unknown value %q", typeFlag)
		return c.UsageError(msg)
	}
	if err != nil {
		return fmt.Errorf("%s file %q: %v", typeFlag, path, err)
	}

	p.Add(d, path)
	p.SetName(pFile)
	if err := p.Write(); err != nil {
		return err
	}
	return nil
}

func openProject(name string) (*project.Project, error) {
	p, err := project.Read(name)
	if errors.Is(err, os.ErrNotExist) {
		return project.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to open project %q: %v", name, err)
	}
	return p, nil
}

func validate(name string, read func(*os.File) error) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	return read(f)
}
