// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package param

import (
	"math"
	"slices"
)

// Map is the immutable layout of a decision vector built from a Spec.
//
// Every decision entry 𝐱ᵢ is expressed in scaled units so that all entries
// start near unit magnitude:
//   - 𝐩ᵢ = 𝐱ᵢ · 𝒔ᵢ (physical value)
//   - 𝒔ᵢ = 𝐠ᵢ if 𝐠ᵢ ≠ 0 else 1 (𝐠ᵢ is the initial guess)
//   - 𝒍ᵢ/𝒔ᵢ ≤ 𝐱ᵢ ≤ 𝒖ᵢ/𝒔ᵢ (interval reordered when 𝒔ᵢ < 0)
type Map struct {
	spec     Spec
	index    map[string]int
	x0       []float64
	bounds   []Bound
	scalings []float64
}

// Build validates the spec and lays out the decision vector.
func Build(spec Spec) (*Map, error) {
	if len(spec) == 0 {
		return nil, configError("parameter spec is empty")
	}

	m := &Map{
		spec:     slices.Clone(spec),
		index:    make(map[string]int),
		x0:       make([]float64, len(spec)),
		bounds:   make([]Bound, len(spec)),
		scalings: make([]float64, len(spec)),
	}

	for i, e := range spec {
		b := e.Bounds
		switch {
		case len(e.Key) == 0:
			return nil, configError("parameter key at %d is empty", i)
		case math.IsNaN(e.Guess) || math.IsInf(e.Guess, 0):
			return nil, configError("initial guess of %s must be finite", e.Key)
		case math.IsNaN(b.Lower) || math.IsNaN(b.Upper):
			return nil, configError("bounds of %s must not be NaN", e.Key)
		case b.Lower > b.Upper:
			return nil, configError("lower bound of %s is greater than its upper bound", e.Key)
		case !b.Contains(e.Guess):
			return nil, configError("initial guess %g of %s violates bounds [%g, %g]",
				e.Guess, e.Key, b.Lower, b.Upper)
		}
		for _, name := range e.Key {
			if name == "" {
				return nil, configError("parameter key %s contains an empty name", e.Key)
			}
			if j, dup := m.index[name]; dup {
				return nil, configError("parameter %q appears in keys %d and %d", name, j, i)
			}
			m.index[name] = i
		}

		s := e.Guess
		if s == 0 {
			s = 1
		}
		lo, hi := b.Lower/s, b.Upper/s
		if s < 0 {
			lo, hi = hi, lo
		}
		m.scalings[i] = s
		m.x0[i] = e.Guess / s
		m.bounds[i] = Bound{lo, hi}
	}
	return m, nil
}

// Len returns the dimension of the decision vector.
func (m *Map) Len() int { return len(m.spec) }

// Spec returns the spec the map was built from.
func (m *Map) Spec() Spec { return slices.Clone(m.spec) }

// X0 returns the scaled initial guess.
func (m *Map) X0() []float64 { return slices.Clone(m.x0) }

// Bounds returns the scaled bounds.
func (m *Map) Bounds() []Bound { return slices.Clone(m.bounds) }

// Scalings returns the scaling factor of each decision entry.
func (m *Map) Scalings() []float64 { return slices.Clone(m.scalings) }

// Index returns the decision index of a parameter name.
func (m *Map) Index(name string) (int, bool) {
	i, ok := m.index[name]
	return i, ok
}

// Keys returns the key of each decision entry.
func (m *Map) Keys() []Key {
	keys := make([]Key, len(m.spec))
	for i, e := range m.spec {
		keys[i] = slices.Clone(e.Key)
	}
	return keys
}

// Names returns every parameter name in decision order.
func (m *Map) Names() []string { return m.spec.Names() }

// Source returns who contributed decision entry i.
func (m *Map) Source(i int) Source { return m.spec[i].Source }

// Physical converts a scaled vector into physical units.
func (m *Map) Physical(x []float64) []float64 {
	p := make([]float64, len(x))
	for i := range x {
		p[i] = x[i] * m.scalings[i]
	}
	return p
}

// Scaled converts a physical vector into scaled units.
func (m *Map) Scaled(p []float64) []float64 {
	x := make([]float64, len(p))
	for i := range p {
		x[i] = p[i] / m.scalings[i]
	}
	return x
}

// Inputs fans a physical vector out to every name of the given source.
// Names of a shared key receive the same value.
func (m *Map) Inputs(physical []float64, src Source) map[string]float64 {
	in := make(map[string]float64, len(m.index))
	for i, e := range m.spec {
		if e.Source != src {
			continue
		}
		for _, name := range e.Key {
			in[name] = physical[i]
		}
	}
	return in
}

// Tail returns the physical values of the entries contributed by src,
// in decision order.
func (m *Map) Tail(physical []float64, src Source) []float64 {
	var out []float64
	for i, e := range m.spec {
		if e.Source == src {
			out = append(out, physical[i])
		}
	}
	return out
}

// Values keys a physical vector by the string form of each key.
func (m *Map) Values(physical []float64) map[string]float64 {
	v := make(map[string]float64, len(m.spec))
	for i, e := range m.spec {
		v[e.Key.String()] = physical[i]
	}
	return v
}
