// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package grid

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// A Raster is a gridded field of values,
// such as a digital elevation model.
// Values are stored row-major
// with rows ordered from north to south,
// so the flattened values align with Descriptor.Centers.
// Missing values are stored as NaN.
type Raster struct {
	Descriptor
	Values []float64
}

// ReadASCII reads a raster from an ESRI ASCII grid file.
//
// The file starts with a header
// of whitespace-separated key-value pairs
// (ncols, nrows, xllcorner, yllcorner, cellsize,
// and an optional nodata_value),
// followed by the cell values,
// one row per line,
// from north to south.
func ReadASCII(r io.Reader) (*Raster, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)

	ras := &Raster{}
	noData := math.NaN()
	hasNoData := false

	ln := 0
	inHeader := true
	for sc.Scan() {
		ln++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		f := strings.Fields(line)

		if inHeader {
			if len(f) == 2 {
				key := strings.ToLower(f[0])
				switch key {
				case "ncols", "nrows":
					v, err := strconv.Atoi(f[1])
					if err != nil {
						return nil, fmt.Errorf("on line %d: field %q: %v", ln, key, err)
					}
					if key == "ncols" {
						ras.Cols = v
					} else {
						ras.Rows = v
					}
					continue
				case "xllcorner", "yllcorner", "cellsize", "nodata_value":
					v, err := strconv.ParseFloat(f[1], 64)
					if err != nil {
						return nil, fmt.Errorf("on line %d: field %q: %v", ln, key, err)
					}
					switch key {
					case "xllcorner":
						ras.XLLCorner = v
					case "yllcorner":
						ras.YLLCorner = v
					case "cellsize":
						ras.CellSize = v
					case "nodata_value":
						noData = v
						hasNoData = true
					}
					continue
				}
			}
			if ras.Rows <= 0 || ras.Cols <= 0 || ras.CellSize <= 0 {
				return nil, fmt.Errorf("on line %d: incomplete raster header", ln)
			}
			inHeader = false
			ras.Values = make([]float64, 0, ras.Rows*ras.Cols)
		}

		for _, s := range f {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("on line %d: value %q: %v", ln, s, err)
			}
			if hasNoData && v == noData {
				v = math.NaN()
			}
			ras.Values = append(ras.Values, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(ras.Values) != ras.Rows*ras.Cols {
		return nil, fmt.Errorf("expecting %d values, got %d", ras.Rows*ras.Cols, len(ras.Values))
	}
	return ras, nil
}

// At returns the value of the cell at row i
// (from the north)
// and column j.
func (r *Raster) At(i, j int) float64 {
	return r.Values[i*r.Cols+j]
}

// Crop returns a raster restricted to the cells
// whose centres fall strictly inside the given extent.
func (r *Raster) Crop(e Extent) *Raster {
	j0, j1 := r.Cols, 0
	for j := 0; j < r.Cols; j++ {
		cx := r.XLLCorner + (float64(j)+0.5)*r.CellSize
		if cx > e.XMin && cx < e.XMax {
			if j < j0 {
				j0 = j
			}
			if j+1 > j1 {
				j1 = j + 1
			}
		}
	}
	i0, i1 := r.Rows, 0
	for i := 0; i < r.Rows; i++ {
		cy := r.YLLCorner + (float64(r.Rows-1-i)+0.5)*r.CellSize
		if cy > e.YMin && cy < e.YMax {
			if i < i0 {
				i0 = i
			}
			if i+1 > i1 {
				i1 = i + 1
			}
		}
	}
	if j0 >= j1 || i0 >= i1 {
		return &Raster{Descriptor: Descriptor{CellSize: r.CellSize}}
	}

	nc := &Raster{
		Descriptor: Descriptor{
			XLLCorner: r.XLLCorner + float64(j0)*r.CellSize,
			YLLCorner: r.YLLCorner + float64(r.Rows-i1)*r.CellSize,
			CellSize:  r.CellSize,
			Rows:      i1 - i0,
			Cols:      j1 - j0,
		},
	}
	nc.Values = make([]float64, 0, nc.Rows*nc.Cols)
	for i := i0; i < i1; i++ {
		for j := j0; j < j1; j++ {
			nc.Values = append(nc.Values, r.At(i, j))
		}
	}
	return nc
}

// Coarsen returns a raster aggregated by block means
// over windows of the given number of cells per side.
// Missing values are skipped in each mean;
// a window with no valid values becomes NaN.
// Windows at the south and east edges may be partial
// when the raster extent is not evenly divisible by the window.
func (r *Raster) Coarsen(window int) *Raster {
	if window <= 1 {
		cp := *r
		cp.Values = append([]float64(nil), r.Values...)
		return &cp
	}

	rows := (r.Rows + window - 1) / window
	cols := (r.Cols + window - 1) / window
	nc := &Raster{
		Descriptor: Descriptor{
			XLLCorner: r.XLLCorner,
			YLLCorner: r.YLLCorner + float64(r.Rows)*r.CellSize - float64(rows*window)*r.CellSize,
			CellSize:  r.CellSize * float64(window),
			Rows:      rows,
			Cols:      cols,
		},
		Values: make([]float64, rows*cols),
	}
	for bi := 0; bi < rows; bi++ {
		for bj := 0; bj < cols; bj++ {
			var sum float64
			var n int
			for i := bi * window; i < (bi+1)*window && i < r.Rows; i++ {
				for j := bj * window; j < (bj+1)*window && j < r.Cols; j++ {
					v := r.At(i, j)
					if math.IsNaN(v) {
						continue
					}
					sum += v
					n++
				}
			}
			if n == 0 {
				nc.Values[bi*cols+bj] = math.NaN()
				continue
			}
			nc.Values[bi*cols+bj] = sum / float64(n)
		}
	}
	return nc
}

// Resample crops the raster to the extent of the output grid
// and coarsens it to the grid's cell size.
// The flattened values of the returned raster
// align index-for-index with the grid's flattened cell centres.
func (r *Raster) Resample(g Descriptor) (*Raster, error) {
	if r.CellSize > g.CellSize {
		return nil, fmt.Errorf("raster cell size %g coarser than grid cell size %g", r.CellSize, g.CellSize)
	}
	window := int(g.CellSize / r.CellSize)

	xMin, yMin, xMax, yMax := g.Limits()
	c := r.Crop(Extent{XMin: xMin, YMin: yMin, XMax: xMax, YMax: yMax})
	if len(c.Values) == 0 {
		return nil, fmt.Errorf("raster does not cover grid extent")
	}
	return c.Coarsen(window), nil
}
