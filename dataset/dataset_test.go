// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curioloop/paramfit/param"
)

func TestNewTable(t *testing.T) {
	tb, err := NewTable([]float64{0, 10, 20}, map[string][]float64{
		"Voltage [V]":     {4.2, 4.1, 4.0},
		"Temperature [K]": {298, 299, 300},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, tb.Len())
	assert.Equal(t, 20.0, tb.LastTime())
	assert.Equal(t, []string{"Temperature [K]", "Voltage [V]"}, tb.Names())

	v, ok := tb.Column("Voltage [V]")
	require.True(t, ok)
	v[0] = 0
	v, _ = tb.Column("Voltage [V]")
	assert.Equal(t, 4.2, v[0])

	ts, ok := tb.Column(TimeColumn)
	require.True(t, ok)
	assert.Equal(t, []float64{0, 10, 20}, ts)
	assert.True(t, tb.Has(TimeColumn))
	assert.False(t, tb.Has("Current [A]"))
}

func TestNewTableRejects(t *testing.T) {
	cases := map[string]struct {
		time []float64
		cols map[string][]float64
	}{
		"no rows":    {nil, map[string][]float64{"v": nil}},
		"no columns": {[]float64{0}, nil},
		"unsorted":   {[]float64{0, 2, 1}, map[string][]float64{"v": {1, 2, 3}}},
		"length":     {[]float64{0, 1}, map[string][]float64{"v": {1}}},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewTable(c.time, c.cols)
			assert.ErrorIs(t, err, param.ErrConfiguration)
		})
	}
}

func TestSplitBranches(t *testing.T) {
	c, err := NewCurve([]float64{0, 1, 2, 3, 2, 1, 0}, []float64{1, 2, 3, 4, 3.1, 2.1, 1.1})
	require.NoError(t, err)

	ch, dch := c.SplitBranches()
	assert.Equal(t, []float64{0, 1, 2, 3}, ch.X)
	assert.Equal(t, []float64{1, 2, 3, 4}, ch.Y)
	assert.Equal(t, []float64{3, 2, 1, 0}, dch.X)
	assert.Equal(t, []float64{4, 3.1, 2.1, 1.1}, dch.Y)
	assert.Equal(t, 3, c.ArgMaxY())
	assert.Equal(t, 0, c.ArgMinY())
}

func TestInterpolant(t *testing.T) {
	// unsorted input with a repeated x
	c, err := NewCurve([]float64{3, 1, 2, 0, 2}, []float64{4, 2, 3, 1, 9})
	require.NoError(t, err)
	ip, err := c.Interpolant()
	require.NoError(t, err)

	lo, hi := ip.Domain()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 3.0, hi)

	assert.InDelta(t, 2.5, ip.At(1.5), 1e-12)
	assert.InDelta(t, 3.0, ip.At(2), 1e-12)
	// extrapolation continues the end segments
	assert.InDelta(t, 0.0, ip.At(-1), 1e-12)
	assert.InDelta(t, 6.0, ip.At(5), 1e-12)
	assert.True(t, math.IsNaN(ip.At(math.NaN())))
	assert.Equal(t, []float64{1, 4}, ip.AtAll([]float64{0, 3}))
}

func TestNewCurveRejects(t *testing.T) {
	_, err := NewCurve([]float64{1}, []float64{1})
	assert.ErrorIs(t, err, param.ErrConfiguration)
	_, err = NewCurve([]float64{1, 2}, []float64{1})
	assert.ErrorIs(t, err, param.ErrConfiguration)

	c, err := NewCurve([]float64{1, 1}, []float64{1, 2})
	require.NoError(t, err)
	_, err = c.Interpolant()
	assert.ErrorIs(t, err, param.ErrConfiguration)
}
