// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package calendar

import (
	"fmt"
	"time"
)

// A Month is one simulated calendar month
// within a realisation.
type Month struct {
	Year   int
	Month  time.Month
	Season int

	// Timestep range of the month within the realisation,
	// as a half-open interval [StartStep, EndStep).
	StartStep int
	EndStep   int

	// Elapsed hours since the realisation start
	// at the beginning and end of the month.
	StartTime float64
	EndTime   float64
}

// Steps returns the number of timesteps in the month.
func (m Month) Steps() int {
	return m.EndStep - m.StartStep
}

// A Partition maps every simulated (year, month)
// to its timestep range and elapsed-hours span
// within a realisation.
// It is built once per realisation and then read-only.
type Partition struct {
	Months     []Month
	StepLength float64
	Steps      int
}

// NewPartition builds the month partition of a realisation
// starting at the given year
// and spanning the given number of years.
// The timestep length is in hours
// and must evenly divide 24.
func NewPartition(startYear, years int, stepLength float64, seasons Seasons, kind Kind) (*Partition, error) {
	if stepLength <= 0 || stepLength > 24 {
		return nil, fmt.Errorf("calendar: invalid timestep length %g", stepLength)
	}
	perDay := 24 / stepLength
	if perDay != float64(int(perDay)) {
		return nil, fmt.Errorf("calendar: timestep length %g does not divide 24 hours", stepLength)
	}

	p := &Partition{
		Months:     make([]Month, 0, years*12),
		StepLength: stepLength,
	}
	step := 0
	for y := startYear; y < startYear+years; y++ {
		for m := time.January; m <= time.December; m++ {
			days := kind.DaysIn(y, m)
			n := days * int(perDay)
			mo := Month{
				Year:      y,
				Month:     m,
				Season:    seasons[m],
				StartStep: step,
				EndStep:   step + n,
				StartTime: float64(step) * stepLength,
				EndTime:   float64(step+n) * stepLength,
			}
			p.Months = append(p.Months, mo)
			step += n
		}
	}
	p.Steps = step
	return p, nil
}

// MaxMonthSteps returns the largest number of timesteps
// of any month in the partition.
// It bounds the size of the discretisation buffer.
func (p *Partition) MaxMonthSteps() int {
	max := 0
	for _, m := range p.Months {
		if m.Steps() > max {
			max = m.Steps()
		}
	}
	return max
}

// Block returns the months of a block of years,
// given the block index and the block size in years.
// The last block may be partial.
func (p *Partition) Block(id, size int) []Month {
	i := id * size * 12
	if i >= len(p.Months) {
		return nil
	}
	j := (id + 1) * size * 12
	if j > len(p.Months) {
		j = len(p.Months)
	}
	return p.Months[i:j]
}

// BlockHours returns the elapsed-hours span of each month
// of a block of years.
func (p *Partition) BlockHours(id, size int) []float64 {
	ms := p.Block(id, size)
	h := make([]float64, len(ms))
	for i, m := range ms {
		h[i] = m.EndTime - m.StartTime
	}
	return h
}

// BlockSteps returns the total number of timesteps
// of a block of years.
func (p *Partition) BlockSteps(id, size int) int {
	ms := p.Block(id, size)
	if len(ms) == 0 {
		return 0
	}
	return ms[len(ms)-1].EndStep - ms[0].StartStep
}
