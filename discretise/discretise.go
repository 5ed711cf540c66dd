// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package discretise converts continuous-time raincells
// into rainfall depths at fixed timesteps.
// The point kernel accumulates the temporal overlap
// of each raincell with each timestep;
// the spatial kernel runs the point kernel
// at many locations under a circular influence model,
// scaling each location by its phi value.
// These loops dominate the simulation cost
// and must not allocate per raincell.
package discretise

import (
	"github.com/js-arias/nsrp/raincell"
)

// A Buffer is the scratch space
// for the discretised rainfall of one period,
// one column of timestep depths per location.
// The kernels zero the columns they write,
// so a buffer can be reused across periods
// within a block.
type Buffer struct {
	steps int
	cols  [][]float64
}

// NewBuffer returns a buffer
// for the given number of timesteps and locations.
func NewBuffer(steps, locations int) *Buffer {
	b := &Buffer{
		steps: steps,
		cols:  make([][]float64, locations),
	}
	for i := range b.cols {
		b.cols[i] = make([]float64, steps)
	}
	return b
}

// Steps returns the number of timesteps per column.
func (b *Buffer) Steps() int {
	return b.steps
}

// Locations returns the number of location columns.
func (b *Buffer) Locations() int {
	return len(b.cols)
}

// Column returns the depth column of a location.
func (b *Buffer) Column(i int) []float64 {
	return b.cols[i]
}

// Columns returns the depth columns of all locations.
func (b *Buffer) Columns() [][]float64 {
	return b.cols
}

// Bytes returns the memory demand of a buffer
// with the given dimensions,
// as used for capacity probing.
func Bytes(steps, locations int) int64 {
	return int64(steps) * int64(locations) * 8
}

// addCell accumulates the contribution of one raincell
// into a depth column.
// Times are relative to the period start.
// Contributions before the first timestep
// and past the last timestep of the column
// are clipped.
func addCell(dst []float64, arrival, end, intensity, stepLength float64) {
	first := int(arrival / stepLength)
	if arrival < 0 {
		first = 0
	}
	last := int(end / stepLength)
	if last >= len(dst) {
		last = len(dst) - 1
	}
	for ts := first; ts <= last; ts++ {
		t0 := float64(ts) * stepLength
		t1 := t0 + stepLength
		if arrival > t0 {
			t0 = arrival
		}
		if end < t1 {
			t1 = end
		}
		if t1 > t0 {
			dst[ts] += intensity * (t1 - t0)
		}
	}
}

// Point discretises raincells at a single location.
// The destination column is zeroed
// and then accumulates intensity × overlap
// for every raincell and every timestep it covers.
// start is the period start
// in the raincells' time reference,
// and stepLength the timestep length,
// both in hours.
func Point(start, stepLength float64, cells []raincell.Raincell, dst []float64) {
	for i := range dst {
		dst[i] = 0
	}
	for i := range cells {
		addCell(dst, cells[i].Arrival-start, cells[i].End-start, cells[i].Intensity, stepLength)
	}
}

// Spatial discretises raincells at many locations.
// A raincell contributes at a location
// when its influence radius reaches the location
// (binary membership, no partial-area weighting);
// each location's depths are then scaled
// by the location's phi value.
// The coordinate unit of the locations
// must match the raincells'.
func Spatial(start, stepLength float64, cells []raincell.Raincell, x, y, phi []float64, buf *Buffer) {
	for l := range x {
		dst := buf.cols[l]
		for i := range dst {
			dst[i] = 0
		}

		px, py := x[l], y[l]
		for i := range cells {
			dx := px - cells[i].X
			dy := py - cells[i].Y
			r := cells[i].Radius
			if dx*dx+dy*dy > r*r {
				continue
			}
			addCell(dst, cells[i].Arrival-start, cells[i].End-start, cells[i].Intensity, stepLength)
		}

		f := phi[l]
		for i := range dst {
			dst[i] *= f
		}
	}
}

// Subset returns the raincells
// whose active interval overlaps the period
// from start to end,
// in hours.
// The spatial kernels are much cheaper
// when run on the temporal subset of a month
// than on a whole block.
func Subset(cells []raincell.Raincell, start, end float64) []raincell.Raincell {
	sub := cells[:0:0]
	for i := range cells {
		if cells[i].Arrival < end && cells[i].End > start {
			sub = append(sub, cells[i])
		}
	}
	return sub
}
