// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dataset holds the reference data an estimation is fitted to.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/curioloop/paramfit/param"
)

// TimeColumn is the name of the time column of a Table.
const TimeColumn = "Time [s]"

// Table is a time-indexed set of named signal columns.
// It is read-only once created.
type Table struct {
	time    []float64
	columns map[string][]float64
}

// NewTable validates and copies the time stamps and columns.
func NewTable(time []float64, columns map[string][]float64) (*Table, error) {
	var err error
	switch {
	case len(time) == 0:
		err = errors.New("table has no rows")
	case len(columns) == 0:
		err = errors.New("table has no signal columns")
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", param.ErrConfiguration, err)
	}

	for i, t := range time {
		if math.IsNaN(t) || (i > 0 && t <= time[i-1]) {
			return nil, fmt.Errorf("%w: time must be strictly increasing (row %d)", param.ErrConfiguration, i)
		}
	}

	tb := &Table{time: slices.Clone(time), columns: make(map[string][]float64, len(columns))}
	for name, col := range columns {
		if name == TimeColumn {
			continue
		}
		if len(col) != len(time) {
			return nil, fmt.Errorf("%w: column %q has %d rows, time has %d",
				param.ErrConfiguration, name, len(col), len(time))
		}
		tb.columns[name] = slices.Clone(col)
	}
	return tb, nil
}

// Len returns the number of rows.
func (tb *Table) Len() int { return len(tb.time) }

// Times returns a copy of the time column.
func (tb *Table) Times() []float64 { return slices.Clone(tb.time) }

// LastTime returns the final time stamp.
func (tb *Table) LastTime() float64 { return tb.time[len(tb.time)-1] }

// Column returns a copy of a named column. TimeColumn is accepted.
func (tb *Table) Column(name string) ([]float64, bool) {
	if name == TimeColumn {
		return tb.Times(), true
	}
	col, ok := tb.columns[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(col), true
}

// Has reports whether the table holds a column.
func (tb *Table) Has(name string) bool {
	_, ok := tb.columns[name]
	return ok || name == TimeColumn
}

// Names returns the signal column names in sorted order.
func (tb *Table) Names() []string {
	names := make([]string, 0, len(tb.columns))
	for n := range tb.columns {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
