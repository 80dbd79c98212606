// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/interp"
)

// Solution holds the output signals of one solve on its time grid.
type Solution struct {
	time   []float64
	values map[string][]float64
	inputs map[string]float64
	fits   map[string]*interp.PiecewiseLinear
}

func newSolution(time []float64, values map[string][]float64, inputs map[string]float64) (*Solution, error) {
	s := &Solution{
		time:   time,
		values: values,
		inputs: maps.Clone(inputs),
		fits:   make(map[string]*interp.PiecewiseLinear, len(values)),
	}
	if len(time) < 2 {
		return s, nil
	}
	for name, ys := range values {
		pl := new(interp.PiecewiseLinear)
		if err := pl.Fit(time, ys); err != nil {
			return nil, fmt.Errorf("fit %s: %w", name, err)
		}
		s.fits[name] = pl
	}
	return s, nil
}

// Time returns a copy of the time grid.
func (s *Solution) Time() []float64 { return slices.Clone(s.time) }

// Variables returns the output names in sorted order.
func (s *Solution) Variables() []string {
	names := slices.Collect(maps.Keys(s.values))
	sort.Strings(names)
	return names
}

// Entries returns a copy of a variable on the time grid.
func (s *Solution) Entries(name string) ([]float64, bool) {
	v, ok := s.values[name]
	return slices.Clone(v), ok
}

// AllInputs returns the inputs the solution was computed with.
func (s *Solution) AllInputs() map[string]float64 { return maps.Clone(s.inputs) }

// Sample evaluates a variable at arbitrary time stamps by linear
// interpolation. Time stamps outside the solved range yield NaN.
func (s *Solution) Sample(name string, ts []float64) ([]float64, error) {
	ys, ok := s.values[name]
	if !ok {
		return nil, fmt.Errorf("solution has no variable %q", name)
	}
	out := make([]float64, len(ts))
	if len(s.time) == 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out, nil
	}

	t0, t1 := s.time[0], s.time[len(s.time)-1]
	slack := 1e-9 * math.Max(1, math.Abs(t1))
	fit := s.fits[name]
	for i, t := range ts {
		switch {
		case math.IsNaN(t) || t < t0-slack || t > t1+slack:
			out[i] = math.NaN()
		case fit == nil:
			out[i] = ys[0]
		default:
			out[i] = fit.Predict(t)
		}
	}
	return out, nil
}
