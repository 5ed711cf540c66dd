// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package calendar implements the simulation calendar,
// the season definitions,
// and the partition of a realisation into months.
package calendar

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"
)

// A Kind is a simulation calendar kind.
type Kind int

// Valid calendar kinds.
const (
	// Gregorian calendar with leap years.
	Gregorian Kind = iota

	// Fixed 365-day years.
	NoLeap

	// Fixed 360-day years with 30-day months.
	ThreeSixty
)

// ParseKind returns the calendar kind
// for a keyword used in configuration files.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gregorian", "":
		return Gregorian, nil
	case "365-day", "noleap":
		return NoLeap, nil
	case "360-day":
		return ThreeSixty, nil
	}
	return 0, fmt.Errorf("calendar: unknown kind %q", s)
}

func (k Kind) String() string {
	switch k {
	case Gregorian:
		return "gregorian"
	case NoLeap:
		return "365-day"
	case ThreeSixty:
		return "360-day"
	}
	return "unknown"
}

// DaysIn returns the number of days of a month
// in the given year.
func (k Kind) DaysIn(year int, month time.Month) int {
	switch k {
	case ThreeSixty:
		return 30
	case NoLeap:
		if month == time.February {
			return 28
		}
	case Gregorian:
		if month == time.February {
			if isLeap(year) {
				return 29
			}
			return 28
		}
	}
	switch month {
	case time.April, time.June, time.September, time.November:
		return 30
	}
	return 31
}

func isLeap(year int) bool {
	if year%400 == 0 {
		return true
	}
	if year%100 == 0 {
		return false
	}
	return year%4 == 0
}

// Seasons assigns a season to each month of the year.
type Seasons map[time.Month]int

// ReadSeasons reads season definitions from a TSV file.
//
// The TSV must be without header
// and contain the month number
// (1 to 12)
// in the first column
// and the season identifier in the second.
//
// Here is an example file
// defining a summer and a winter season:
//
//	# season definitions
//	1	1
//	2	1
//	3	1
//	4	2
//	5	2
//	6	2
//	7	2
//	8	2
//	9	2
//	10	1
//	11	1
//	12	1
func ReadSeasons(r io.Reader) (Seasons, error) {
	tsv := csv.NewReader(r)
	tsv.Comma = '\t'
	tsv.Comment = '#'

	s := make(Seasons, 12)
	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tsv.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("on line %d: %v", ln, err)
		}

		m, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			return nil, fmt.Errorf("on line %d: read %q: %v", ln, row[0], err)
		}
		if m < 1 || m > 12 {
			return nil, fmt.Errorf("on line %d: invalid month %d", ln, m)
		}
		v, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("on line %d: read %q: %v", ln, row[1], err)
		}
		s[time.Month(m)] = v
	}

	for m := time.January; m <= time.December; m++ {
		if _, ok := s[m]; !ok {
			return nil, fmt.Errorf("month %d without a season", m)
		}
	}
	return s, nil
}

// Annual returns season definitions
// with a single season for the whole year.
func Annual() Seasons {
	s := make(Seasons, 12)
	for m := time.January; m <= time.December; m++ {
		s[m] = 1
	}
	return s
}

// Unique returns the sorted set of seasons
// used by the definitions.
func (s Seasons) Unique() []int {
	set := make(map[int]bool)
	for _, v := range s {
		set[v] = true
	}
	u := make([]int, 0, len(set))
	for v := range set {
		u = append(u, v)
	}
	slices.Sort(u)
	return u
}
