// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package simulate implements the realisation loop
// of a rainfall simulation:
// calendar partitioning,
// adaptive block sizing,
// raincell generation,
// discretisation,
// and output staging.
package simulate

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"

	"github.com/js-arias/nsrp/calendar"
	"github.com/js-arias/nsrp/catchment"
	"github.com/js-arias/nsrp/discretise"
	"github.com/js-arias/nsrp/grid"
	"github.com/js-arias/nsrp/output"
	"github.com/js-arias/nsrp/raincell"
)

// MaxBlockYears is the starting candidate block size
// of the sizing pass.
const MaxBlockYears = 1000

// ErrCapacity is returned when a realisation
// does not fit the memory budget
// even at a block size of a single year.
var ErrCapacity = errors.New("simulate: memory budget too small for a single year")

// ErrNotImplemented is returned
// for the event-totals discretisation mode.
var ErrNotImplemented = errors.New("simulate: event totals not implemented")

// A Config is the static configuration of a run.
type Config struct {
	// Spatial indicates the spatial process variant.
	Spatial bool

	// Realisations is the number of realisations.
	Realisations int

	// Simulated period.
	StartYear int
	Years     int

	// StepLength is the timestep length in hours.
	StepLength float64

	// Calendar and season definition.
	Calendar calendar.Kind
	Seasons  calendar.Seasons

	// Process parameters per season
	// and the raincell intensity distribution.
	Parameters map[int]raincell.Parameters
	Intensity  raincell.Intensity

	// Domain is the simulation domain in metres
	// (spatial model only).
	Domain grid.Extent

	// Types are the requested output kinds.
	Types []output.Type

	// EventTotals requests per-event rainfall totals
	// instead of timestep series.
	EventTotals bool

	// MemoryBudget is the peak per-realisation
	// memory demand allowed for the discretisation
	// and staging buffers,
	// in bytes.
	// Zero or negative means unbounded.
	MemoryBudget int64

	// CPU is the number of parallel realisations.
	// The default (zero) uses all available CPU.
	CPU int
}

// A Simulator runs the realisations of a rainfall simulation.
type Simulator struct {
	Cfg    Config
	Meta   *Metadata
	Gen    raincell.Generator
	Writer output.Writer
	Seq    SeedSequence
}

// Run simulates every realisation of the run,
// in parallel.
// Realisations are independent:
// each derives its own random stream
// from the run's seed sequence,
// so the output does not depend
// on the number of CPUs in use.
func (s *Simulator) Run() error {
	if s.Cfg.EventTotals {
		return ErrNotImplemented
	}
	if err := s.validate(); err != nil {
		return err
	}
	part, err := calendar.NewPartition(s.Cfg.StartYear, s.Cfg.Years, s.Cfg.StepLength, s.Cfg.Seasons, s.Cfg.Calendar)
	if err != nil {
		return err
	}

	cpu := s.Cfg.CPU
	if cpu == 0 {
		cpu = runtime.NumCPU()
	}
	jobs := make(chan int, cpu*2)
	errCh := make(chan error)

	var wg sync.WaitGroup
	for range cpu {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range jobs {
				if err := s.realisation(part, r); err != nil {
					s.Writer.Discard(r)
					errCh <- fmt.Errorf("realisation %d: %w", r, err)
				}
			}
		}()
	}
	go func() {
		for r := 1; r <= s.Cfg.Realisations; r++ {
			jobs <- r
		}
		close(jobs)
		wg.Wait()
		close(errCh)
	}()

	var first error
	for err := range errCh {
		if first == nil {
			first = err
		}
	}
	return first
}

func (s *Simulator) validate() error {
	if s.Cfg.Realisations < 1 {
		return fmt.Errorf("simulate: invalid number of realisations %d", s.Cfg.Realisations)
	}
	if s.Cfg.Years < 1 {
		return fmt.Errorf("simulate: invalid number of years %d", s.Cfg.Years)
	}
	for _, sn := range s.Cfg.Seasons.Unique() {
		if _, ok := s.Cfg.Parameters[sn]; !ok {
			return fmt.Errorf("simulate: no parameters for season %d", sn)
		}
	}
	for _, typ := range s.Cfg.Types {
		switch typ {
		case output.Point:
			if s.Cfg.Spatial && s.Meta.Point == nil {
				return fmt.Errorf("simulate: point output: %w", grid.ErrNoGeometry)
			}
		case output.Catchment:
			if !s.Cfg.Spatial {
				return fmt.Errorf("simulate: catchment output requires a spatial model")
			}
			if s.Meta.Grid == nil || len(s.Meta.Weights) == 0 {
				return fmt.Errorf("simulate: catchment output: %w", grid.ErrNoGeometry)
			}
		case output.Grid:
			if !s.Cfg.Spatial {
				return fmt.Errorf("simulate: grid output requires a spatial model")
			}
			if s.Meta.Grid == nil {
				return fmt.Errorf("simulate: grid output: %w", grid.ErrNoGeometry)
			}
		}
	}
	return nil
}

func (s *Simulator) wantType(typ output.Type) bool {
	return slices.Contains(s.Cfg.Types, typ)
}

// pointColumns returns the number of kernel columns
// of the point output.
// A non-spatial run discretises a single
// unlocated point.
func (s *Simulator) pointColumns() int {
	if !s.wantType(output.Point) {
		return 0
	}
	if !s.Cfg.Spatial {
		return 1
	}
	return s.Meta.Point.Len()
}

// gridColumns returns the number of kernel columns
// of the grid locations,
// shared by the grid and catchment outputs.
func (s *Simulator) gridColumns() int {
	if !s.wantType(output.Grid) && !s.wantType(output.Catchment) {
		return 0
	}
	return s.Meta.Grid.Len()
}

// demand returns the peak memory demand of a block,
// in bytes:
// the discretisation buffers
// sized for the largest month,
// plus the reduced-precision staging
// of the text series across the block.
// Gridded series stay staged
// until the realisation finishes,
// so their demand covers the whole realisation
// and does not shrink with the block size.
func (s *Simulator) demand(part *calendar.Partition, blockSteps int) int64 {
	d := discretise.Bytes(part.MaxMonthSteps(), s.pointColumns()+s.gridColumns())

	perStep := int64(s.pointColumns())
	if s.wantType(output.Catchment) {
		perStep += int64(len(s.Meta.Weights))
	}
	d += int64(blockSteps) * perStep * 4
	if s.wantType(output.Grid) {
		d += int64(part.Steps) * int64(s.Meta.Grid.Len()) * 4
	}
	return d
}

// period builds the raincell generation request
// for a block of months.
func (s *Simulator) period(months []calendar.Month) raincell.Period {
	hours := make([]float64, len(months))
	seasons := make([]int, len(months))
	for i, m := range months {
		hours[i] = m.EndTime - m.StartTime
		seasons[i] = m.Season
	}
	return raincell.Period{
		Spatial:      s.Cfg.Spatial,
		Parameters:   s.Cfg.Parameters,
		MonthLengths: hours,
		MonthSeasons: seasons,
		Intensity:    s.Cfg.Intensity,
		Domain:       s.Cfg.Domain,
	}
}

// size runs the sizing pass of a realisation:
// starting from the largest candidate block size,
// generate and discard the raincells of every block
// and probe the memory demand of its buffers.
// On a capacity failure the block size is halved,
// the random stream reset to the realisation's
// initial state,
// and the pass restarted from the first block.
func (s *Simulator) size(part *calendar.Partition, r int) (int, error) {
	for blockYears := MaxBlockYears; blockYears > 0; blockYears /= 2 {
		rng := s.Seq.Fork(r)
		fits := true
		for b := 0; fits; b++ {
			months := part.Block(b, blockYears)
			if len(months) == 0 {
				break
			}
			if s.demand(part, part.BlockSteps(b, blockYears)) > s.budget() {
				fits = false
				break
			}
			if _, err := s.Gen.Generate(s.period(months), rng); err != nil {
				return 0, err
			}
		}
		if fits {
			return blockYears, nil
		}
	}
	return 0, ErrCapacity
}

func (s *Simulator) budget() int64 {
	if s.Cfg.MemoryBudget <= 0 {
		return int64(^uint64(0) >> 1)
	}
	return s.Cfg.MemoryBudget
}

// realisation simulates one realisation:
// a sizing pass to pick the block size,
// then the simulating pass proper,
// with the random stream reset in between
// so the sizing draws do not perturb the output.
func (s *Simulator) realisation(part *calendar.Partition, r int) error {
	blockYears, err := s.size(part, r)
	if err != nil {
		return err
	}
	rng := s.Seq.Fork(r)

	var pointBuf, gridBuf *discretise.Buffer
	if n := s.pointColumns(); n > 0 {
		pointBuf = discretise.NewBuffer(part.MaxMonthSteps(), n)
	}
	if n := s.gridColumns(); n > 0 {
		gridBuf = discretise.NewBuffer(part.MaxMonthSteps(), n)
	}
	stage := make([]float32, part.MaxMonthSteps())
	var gridStage []float32
	var avg []float64
	if s.wantType(output.Grid) {
		gridStage = make([]float32, part.MaxMonthSteps()*s.Meta.Grid.Len())
	}
	if s.wantType(output.Catchment) {
		avg = make([]float64, part.MaxMonthSteps())
	}

	for b := 0; ; b++ {
		months := part.Block(b, blockYears)
		if len(months) == 0 {
			break
		}
		cells, err := s.Gen.Generate(s.period(months), rng)
		if err != nil {
			return err
		}
		if s.Cfg.Spatial {
			raincell.Scale(cells, raincell.SpatialScale)
		}

		blockStart := months[0].StartTime
		for _, m := range months {
			start := m.StartTime - blockStart
			mc := discretise.Subset(cells, start, m.EndTime-blockStart)
			if err := s.month(m, start, mc, r, pointBuf, gridBuf, stage, gridStage, avg); err != nil {
				return err
			}
		}
	}
	return s.Writer.Finish(r)
}

// month discretises the raincells of one month
// and stages every output series.
func (s *Simulator) month(m calendar.Month, start float64, cells []raincell.Raincell, r int, pointBuf, gridBuf *discretise.Buffer, stage, gridStage []float32, avg []float64) error {
	steps := m.Steps()

	if pointBuf != nil {
		if s.Cfg.Spatial {
			l := s.Meta.Point
			discretise.Spatial(start, s.Cfg.StepLength, cells, l.X, l.Y, l.Phi[m.Season], pointBuf)
			for i, name := range l.Name {
				k := output.Key{Type: output.Point, Location: name, Realisation: r}
				if err := s.Writer.Append(k, reduce(pointBuf.Column(i)[:steps], stage)); err != nil {
					return err
				}
			}
		} else {
			discretise.Point(start, s.Cfg.StepLength, cells, pointBuf.Column(0))
			k := output.Key{Type: output.Point, Location: "1", Realisation: r}
			if err := s.Writer.Append(k, reduce(pointBuf.Column(0)[:steps], stage)); err != nil {
				return err
			}
		}
	}

	if gridBuf == nil {
		return nil
	}
	l := s.Meta.Grid
	discretise.Spatial(start, s.Cfg.StepLength, cells, l.X, l.Y, l.Phi[m.Season], gridBuf)

	if s.wantType(output.Catchment) {
		for id, w := range s.Meta.Weights {
			if err := catchment.Average(gridBuf.Columns(), steps, w, avg[:steps]); err != nil {
				return err
			}
			k := output.Key{Type: output.Catchment, Location: s.Meta.Names[id], Realisation: r}
			if err := s.Writer.Append(k, reduce(avg[:steps], stage)); err != nil {
				return err
			}
		}
	}
	if s.wantType(output.Grid) {
		n := l.Len()
		for t := 0; t < steps; t++ {
			for i := 0; i < n; i++ {
				gridStage[t*n+i] = float32(gridBuf.Column(i)[t])
			}
		}
		k := output.Key{Type: output.Grid, Location: "1", Realisation: r}
		if err := s.Writer.Append(k, gridStage[:steps*n]); err != nil {
			return err
		}
	}
	return nil
}

// reduce converts a depth column
// to the reduced-precision staging representation.
func reduce(col []float64, stage []float32) []float32 {
	for i, v := range col {
		stage[i] = float32(v)
	}
	return stage[:len(col)]
}
