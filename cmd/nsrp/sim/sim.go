// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package sim implements a command to run a rainfall simulation
// from an NSRP project.
package sim

import (
	"fmt"
	"strings"

	"github.com/js-arias/command"
	"github.com/js-arias/nsrp/calendar"
	"github.com/js-arias/nsrp/catchment"
	"github.com/js-arias/nsrp/grid"
	"github.com/js-arias/nsrp/output"
	"github.com/js-arias/nsrp/phifield"
	"github.com/js-arias/nsrp/project"
	"github.com/js-arias/nsrp/raincell"
	"github.com/js-arias/nsrp/simulate"
)

var Command = &command.Command{
	Usage: `sim [--spatial] [--realisations <number>] [--years <number>]
	[--start <year>] [--timestep <hours>] [--calendar <kind>]
	[--intensity <kind>] [--types <type>[,<type>...]] [--format <format>]
	[--o|--output <dir>] [--seed <number>] [--memory <mb>] [--cpu <number>]
	[--elevation] [--cellsize <meters>] [--id <field>] [--name <field>]
	<project-file>`,
	Short: "run a rainfall simulation",
	Long: `
Command sim runs a stochastic rainfall simulation using the Neyman-Scott
rectangular pulse process, with the parameters and geometry defined in an
NSRP project, and writes discretised rainfall series for the requested output
locations.

The argument of the command is the name of the project file. The project must
define at least the process parameters. A spatial simulation also requires
the geometry of the output locations: a grid definition, point locations, or
catchment polygons, depending on the requested output types.

By default, the simulation is for a single point process. If the flag
--spatial is defined, a spatial process will be simulated over the domain of
the project geometry, and the rainfall of each location will be scaled by a
factor interpolated from the calibration values of the phi dataset. If the
flag --elevation is defined, and the project has an elevation raster, the
interpolation will take into account a linear trend of the factor with the
elevation, if the trend is statistically significant.

The flag --types defines the requested outputs as a comma separated list of
the following values:

	point		series at point locations
	catchment	areal average series per catchment
	grid		gridded series, as NetCDF files

The default is point. Point and catchment text series are written with the
format defined by the flag --format, either txt (the default), csv, or csvy.
Output files are written under the directory defined by the flag --output, or
-o, with a subdirectory per output type, and a file per location and
realisation. Files are named r<realisation>, prefixed with the location name
in a spatial simulation.

The flags --realisations, --years, --start, and --timestep define the
simulated period: the number of independent realisations (default 1), the
length in years of each realisation (default 30), the first simulated year
(default 2000), and the timestep length in hours (default 1). The flag
--calendar defines the simulation calendar, one of gregorian (the default),
365-day, or 360-day. The flag --intensity defines the raincell intensity
distribution, either exponential (the default) or weibull.

The flag --seed defines the seed of the random number generator, so a
simulation can be repeated exactly. If no seed is defined, a random seed will
be drawn and reported.

The flag --memory bounds the per-realisation memory demand of the simulation
buffers, in megabytes; larger simulations are split into smaller blocks to
fit the bound. The flag --cpu defines the number of realisations simulated in
parallel; the default uses all available processors.

The flag --cellsize defines the grid cell size in meters (default 1000) used
to derive the simulation domain when the project defines point locations but
no grid. The flags --id and --name define the attribute fields of the
catchment shapefile used for the catchment identifiers and names; the
defaults are "ID" and "Name".
	`,
	SetFlags: setFlags,
	Run:      run,
}

var spatialFlag bool
var elevFlag bool
var realisations int
var years int
var startYear int
var numCPU int
var stepLength float64
var cellSize float64
var calFlag string
var intensityFlag string
var typesFlag string
var formatFlag string
var outputFlag string
var seedFlag uint64
var memFlag int64
var idFlag string
var nameFlag string

func setFlags(c *command.Command) {
	c.Flags().BoolVar(&spatialFlag, "spatial", false, "")
	c.Flags().BoolVar(&elevFlag, "elevation", false, "")
	c.Flags().IntVar(&realisations, "realisations", 1, "")
	c.Flags().IntVar(&years, "years", 30, "")
	c.Flags().IntVar(&startYear, "start", 2000, "")
	c.Flags().IntVar(&numCPU, "cpu", 0, "")
	c.Flags().Float64Var(&stepLength, "timestep", 1, "")
	c.Flags().Float64Var(&cellSize, "cellsize", 1000, "")
	c.Flags().StringVar(&calFlag, "calendar", "gregorian", "")
	c.Flags().StringVar(&intensityFlag, "intensity", "exponential", "")
	c.Flags().StringVar(&typesFlag, "types", "point", "")
	c.Flags().StringVar(&formatFlag, "format", "txt", "")
	c.Flags().StringVar(&outputFlag, "output", "output", "")
	c.Flags().StringVar(&outputFlag, "o", "output", "")
	c.Flags().Uint64Var(&seedFlag, "seed", 0, "")
	c.Flags().Int64Var(&memFlag, "memory", 0, "")
	c.Flags().StringVar(&idFlag, "id", "ID", "")
	c.Flags().StringVar(&nameFlag, "name", "Name", "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting project file")
	}
	p, err := project.Read(args[0])
	if err != nil {
		return err
	}

	kind, err := calendar.ParseKind(calFlag)
	if err != nil {
		return err
	}
	intensity, err := raincell.ParseIntensity(intensityFlag)
	if err != nil {
		return err
	}
	types, err := parseTypes(typesFlag)
	if err != nil {
		return err
	}

	params, err := p.Parameters()
	if err != nil {
		return err
	}
	seasons, err := p.Seasons()
	if err != nil {
		return err
	}

	var gd *grid.Descriptor
	if p.Path(project.Grid) != "" {
		d, err := p.Grid()
		if err != nil {
			return err
		}
		gd = &d
	}
	var pts *grid.Points
	if p.Path(project.Points) != "" {
		if pts, err = p.Points(); err != nil {
			return err
		}
	}
	var dem *grid.Raster
	if spatialFlag && p.Path(project.DEM) != "" {
		if dem, err = p.DEM(); err != nil {
			return err
		}
	}

	var cats []catchment.Catchment
	if wantType(types, output.Catchment) {
		if cats, err = p.Catchments(idFlag, nameFlag); err != nil {
			return err
		}
	}

	var est *phifield.Estimator
	if spatialFlag && p.Path(project.Phi) != "" {
		cal, err := p.Phi()
		if err != nil {
			return err
		}
		est, err = phifield.NewEstimator(cal, seasons.Unique(), elevFlag && dem != nil)
		if err != nil {
			return err
		}
	}

	var domain grid.Extent
	if spatialFlag {
		var x, y []float64
		if pts != nil {
			x, y = pts.X, pts.Y
		}
		if domain, err = grid.Bounds(gd, x, y, cellSize); err != nil {
			return err
		}
	}

	meta, err := simulate.BuildMetadata(simulate.MetadataParam{
		Grid:       gd,
		Points:     pts,
		DEM:        dem,
		Phi:        est,
		Seasons:    seasons.Unique(),
		Catchments: cats,
		NeedGrid:   wantType(types, output.Grid),
	})
	if err != nil {
		return err
	}

	pp := output.PathsParam{
		Spatial: spatialFlag,
		Types:   types,
		Format:  formatFlag,
		Folder:  outputFlag,
		Subfolders: map[output.Type]string{
			output.Point:     "point",
			output.Catchment: "catchment",
			output.Grid:      "grid",
		},
		Realisations: realisations,
	}
	if meta.Point != nil {
		pp.PointNames = meta.Point.Name
	}
	for _, ct := range cats {
		pp.CatchmentNames = append(pp.CatchmentNames, ct.Name)
	}
	paths, err := output.MakePaths(pp)
	if err != nil {
		return err
	}
	var wg *grid.Descriptor
	if wantType(types, output.Grid) {
		wg = gd
	}

	seq := simulate.NewSeedSequence(seedFlag)
	if seedFlag == 0 {
		fmt.Fprintf(c.Stdout(), "seed: %d\n", seq.Seed())
	}

	s := &simulate.Simulator{
		Cfg: simulate.Config{
			Spatial:      spatialFlag,
			Realisations: realisations,
			StartYear:    startYear,
			Years:        years,
			StepLength:   stepLength,
			Calendar:     kind,
			Seasons:      seasons,
			Parameters:   params,
			Intensity:    intensity,
			Domain:       domain,
			Types:        types,
			MemoryBudget: memFlag * 1024 * 1024,
			CPU:          numCPU,
		},
		Meta:   meta,
		Gen:    raincell.NSRP{},
		Writer: output.NewMultiWriter(paths, wg),
		Seq:    seq,
	}
	return s.Run()
}

func parseTypes(s string) ([]output.Type, error) {
	var types []output.Type
	for _, v := range strings.Split(s, ",") {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		typ, err := output.ParseType(strings.ToLower(v))
		if err != nil {
			return nil, err
		}
		if !wantType(types, typ) {
			types = append(types, typ)
		}
	}
	if len(types) == 0 {
		return nil, fmt.Errorf("output: no output types defined")
	}
	return types, nil
}

func wantType(types []output.Type, typ output.Type) bool {
	for _, t := range types {
		if t == typ {
			return true
		}
	}
	return false
}
