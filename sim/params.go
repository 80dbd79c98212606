// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"maps"
	"slices"
	"sort"
)

// CurrentParameter is the applied current used when a simulation has no
// experiment. Positive current discharges the cell.
const CurrentParameter = "Current function [A]"

// ParameterValues is a table of named model constants. Names marked as
// inputs are not taken from the table but supplied on every solve.
type ParameterValues struct {
	values map[string]float64
	inputs map[string]struct{}
}

// NewParameterValues copies values into a new table.
func NewParameterValues(values map[string]float64) *ParameterValues {
	pv := &ParameterValues{
		values: make(map[string]float64, len(values)),
		inputs: make(map[string]struct{}),
	}
	maps.Copy(pv.values, values)
	return pv
}

// Get returns the value of a name.
func (pv *ParameterValues) Get(name string) (float64, bool) {
	v, ok := pv.values[name]
	return v, ok
}

// Set assigns a value.
func (pv *ParameterValues) Set(name string, v float64) {
	pv.values[name] = v
}

// Update assigns every value of the map.
func (pv *ParameterValues) Update(values map[string]float64) {
	maps.Copy(pv.values, values)
}

// MarkInput declares names as solve-time inputs.
func (pv *ParameterValues) MarkInput(names ...string) {
	for _, n := range names {
		pv.inputs[n] = struct{}{}
	}
}

// IsInput reports whether a name is a solve-time input.
func (pv *ParameterValues) IsInput(name string) bool {
	_, ok := pv.inputs[name]
	return ok
}

// Inputs returns the input names in sorted order.
func (pv *ParameterValues) Inputs() []string {
	names := slices.Collect(maps.Keys(pv.inputs))
	sort.Strings(names)
	return names
}

// Names returns the names holding a value, in sorted order.
func (pv *ParameterValues) Names() []string {
	names := slices.Collect(maps.Keys(pv.values))
	sort.Strings(names)
	return names
}

// Copy returns a deep copy.
func (pv *ParameterValues) Copy() *ParameterValues {
	return &ParameterValues{
		values: maps.Clone(pv.values),
		inputs: maps.Clone(pv.inputs),
	}
}

// resolve merges the table with the solve-time inputs.
func (pv *ParameterValues) resolve(inputs map[string]float64) map[string]float64 {
	merged := maps.Clone(pv.values)
	if merged == nil {
		merged = make(map[string]float64, len(inputs))
	}
	maps.Copy(merged, inputs)
	return merged
}
