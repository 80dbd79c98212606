// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package param

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSpec() Spec {
	return Spec{
		{Key: Name("Negative electrode diffusivity [m2.s-1]"), Guess: 3.9e-14, Bounds: Bound{1e-15, 1e-12}},
		{Key: Shared("Cation transference number", "Anion transference number"), Guess: 0.4, Bounds: Bound{0, 1}},
		{Key: Name("Offset [V]"), Guess: 0, Bounds: Bound{-0.5, 0.5}},
		{Key: Name("Entropic change [V.K-1]"), Guess: -2e-4, Bounds: Bound{-1e-3, 1e-3}},
	}
}

func TestBuildScalingRoundTrip(t *testing.T) {
	spec := sampleSpec()
	m, err := Build(spec)
	require.NoError(t, err)
	require.Equal(t, len(spec), m.Len())

	x0, scalings := m.X0(), m.Scalings()
	for i, e := range spec {
		assert.Equal(t, e.Guess, x0[i]*scalings[i], "entry %d", i)
	}
	assert.Equal(t, 1.0, scalings[2])
	assert.Equal(t, 0.0, x0[2])
}

func TestBuildBoundsContainment(t *testing.T) {
	m, err := Build(sampleSpec())
	require.NoError(t, err)

	x0 := m.X0()
	for i, b := range m.Bounds() {
		assert.LessOrEqual(t, b.Lower, b.Upper, "entry %d", i)
		assert.True(t, b.Contains(x0[i]), "entry %d: %v not in %v", i, x0[i], b)
	}

	// negative guess flips the scaled interval
	b := m.Bounds()[3]
	assert.InDelta(t, -5.0, b.Lower, 1e-12)
	assert.InDelta(t, 5.0, b.Upper, 1e-12)
}

func TestSharedKeyFanOut(t *testing.T) {
	m, err := Build(sampleSpec())
	require.NoError(t, err)

	i, ok := m.Index("Cation transference number")
	require.True(t, ok)
	j, ok := m.Index("Anion transference number")
	require.True(t, ok)
	assert.Equal(t, i, j)

	in := m.Inputs(m.Physical(m.X0()), SourceUser)
	assert.Len(t, in, 5)
	assert.Equal(t, in["Cation transference number"], in["Anion transference number"])
	assert.Equal(t, 0.4, in["Anion transference number"])

	assert.Equal(t, []string{
		"Negative electrode diffusivity [m2.s-1]",
		"Cation transference number",
		"Anion transference number",
		"Offset [V]",
		"Entropic change [V.K-1]",
	}, m.Names())
}

func TestPhysicalScaledInverse(t *testing.T) {
	m, err := Build(sampleSpec())
	require.NoError(t, err)

	x := []float64{0.5, 1.5, 0.2, 2}
	back := m.Scaled(m.Physical(x))
	for i := range x {
		assert.InDelta(t, x[i], back[i], 1e-12)
	}
}

func TestBuildRejects(t *testing.T) {
	cases := []struct {
		name string
		spec Spec
	}{
		{"empty", Spec{}},
		{"empty key", Spec{{Key: Key{}, Guess: 1, Bounds: Bound{0, 2}}}},
		{"empty name", Spec{{Key: Name(""), Guess: 1, Bounds: Bound{0, 2}}}},
		{"duplicate", Spec{
			{Key: Name("a"), Guess: 1, Bounds: Bound{0, 2}},
			{Key: Shared("b", "a"), Guess: 1, Bounds: Bound{0, 2}},
		}},
		{"inverted", Spec{{Key: Name("a"), Guess: 1, Bounds: Bound{2, 0}}}},
		{"outside", Spec{{Key: Name("a"), Guess: 3, Bounds: Bound{0, 2}}}},
		{"nan guess", Spec{{Key: Name("a"), Guess: math.NaN(), Bounds: Bound{0, 2}}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Build(c.spec)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestKeyOf(t *testing.T) {
	k, err := KeyOf("a")
	require.NoError(t, err)
	assert.Equal(t, Key{"a"}, k)

	k, err = KeyOf([]any{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, Key{"a", "b"}, k)
	assert.Equal(t, "(a, b)", k.String())

	for _, bad := range []any{42, []any{"a", 1}, map[string]any{}} {
		_, err = KeyOf(bad)
		assert.ErrorIs(t, err, ErrConfiguration, "%v", bad)
	}
}

func TestTailAndFilter(t *testing.T) {
	spec := Spec{{Key: Name("a"), Guess: 2, Bounds: Bound{0, 4}}}.Merge(Spec{
		{Key: Name("sd"), Guess: 1, Bounds: Bound{1e-16, 1e3}, Source: SourceCost},
	})
	m, err := Build(spec)
	require.NoError(t, err)

	p := m.Physical([]float64{1.5, 0.25})
	assert.Equal(t, []float64{0.25}, m.Tail(p, SourceCost))
	assert.Equal(t, map[string]float64{"a": 3}, m.Inputs(p, SourceUser))
	assert.Len(t, spec.Filter(SourceCost), 1)
	assert.Equal(t, SourceCost, m.Source(1))
}

func TestClip(t *testing.T) {
	b := Bound{-1, 1}
	assert.Equal(t, -1.0, b.Clip(-3))
	assert.Equal(t, 0.5, b.Clip(0.5))
	assert.Equal(t, float32(2), Clip[float32](5, 0, 2))

	x := []float64{-2, 0, 2}
	ClipAll(x, []Bound{b, b, b})
	assert.Equal(t, []float64{-1, 0, 1}, x)
}
