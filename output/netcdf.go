// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ctessum/cdf"

	"github.com/js-arias/nsrp/grid"
)

// A GridWriter writes gridded series
// as NetCDF files,
// one file per realisation,
// with dimensions (time, y, x).
// Values are staged in memory
// and written on Finish.
type GridWriter struct {
	mu     sync.Mutex
	paths  Paths
	grid   grid.Descriptor
	series map[Key][]float32
}

// NewGridWriter returns a NetCDF writer
// over the given path table
// for the given output grid.
func NewGridWriter(paths Paths, g grid.Descriptor) *GridWriter {
	return &GridWriter{
		paths:  paths,
		grid:   g,
		series: make(map[Key][]float32),
	}
}

// Append implements the Writer interface.
// Values must be flattened time-major:
// for each timestep all grid cells
// in north-to-south row order.
func (w *GridWriter) Append(k Key, vals []float32) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.paths[k]; !ok {
		return fmt.Errorf("output: no path for %v", k)
	}
	w.series[k] = append(w.series[k], vals...)
	return nil
}

// Finish implements the Writer interface.
func (w *GridWriter) Finish(realisation int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	cells := w.grid.Rows * w.grid.Cols
	for k, vals := range w.series {
		if k.Realisation != realisation {
			continue
		}
		if len(vals)%cells != 0 {
			return fmt.Errorf("output: series %v: %d values for a %d-cell grid", k, len(vals), cells)
		}
		steps := len(vals) / cells

		path := w.paths[k]
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("output: %v", err)
		}
		if err := w.writeFile(tmpPath(path), steps, vals); err != nil {
			return fmt.Errorf("output: on file %q: %v", path, err)
		}
		if err := os.Rename(tmpPath(path), path); err != nil {
			return fmt.Errorf("output: %v", err)
		}
		delete(w.series, k)
	}
	return nil
}

func (w *GridWriter) writeFile(path string, steps int, vals []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	h := cdf.NewHeader(
		[]string{"time", "y", "x"},
		[]int{steps, w.grid.Rows, w.grid.Cols})
	h.AddAttribute("", "comment", "simulated rainfall depth per timestep")
	h.AddAttribute("", "x0", []float64{w.grid.XLLCorner})
	h.AddAttribute("", "y0", []float64{w.grid.YLLCorner})
	h.AddAttribute("", "dx", []float64{w.grid.CellSize})
	h.AddAttribute("", "dy", []float64{w.grid.CellSize})
	h.AddVariable("rainfall", []string{"time", "y", "x"}, []float32{0})
	h.AddAttribute("rainfall", "units", "mm")
	h.Define()

	nc, err := cdf.Create(f, h)
	if err != nil {
		return err
	}
	end := nc.Header.Lengths("rainfall")
	start := make([]int, len(end))
	wr := nc.Writer("rainfall", start, end)
	if _, err := wr.Write(vals); err != nil {
		return err
	}
	return cdf.UpdateNumRecs(f)
}

// Discard implements the Writer interface.
func (w *GridWriter) Discard(realisation int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for k := range w.series {
		if k.Realisation != realisation {
			continue
		}
		delete(w.series, k)
	}
}

// A MultiWriter routes each series
// to the writer for its output type:
// gridded series to a NetCDF writer
// and any other series to a text writer.
type MultiWriter struct {
	Text *TextWriter
	Grid *GridWriter
}

// NewMultiWriter returns a writer
// routing grid output to NetCDF files
// and point and catchment output to text files.
// The grid descriptor may be nil
// when grid output is not requested.
func NewMultiWriter(paths Paths, g *grid.Descriptor) *MultiWriter {
	w := &MultiWriter{Text: NewTextWriter(paths)}
	if g != nil {
		w.Grid = NewGridWriter(paths, *g)
	}
	return w
}

// Append implements the Writer interface.
func (w *MultiWriter) Append(k Key, vals []float32) error {
	if k.Type == Grid {
		if w.Grid == nil {
			return fmt.Errorf("output: grid output without a grid")
		}
		return w.Grid.Append(k, vals)
	}
	return w.Text.Append(k, vals)
}

// Finish implements the Writer interface.
func (w *MultiWriter) Finish(realisation int) error {
	if err := w.Text.Finish(realisation); err != nil {
		return err
	}
	if w.Grid != nil {
		return w.Grid.Finish(realisation)
	}
	return nil
}

// Discard implements the Writer interface.
func (w *MultiWriter) Discard(realisation int) {
	w.Text.Discard(realisation)
	if w.Grid != nil {
		w.Grid.Discard(realisation)
	}
}
