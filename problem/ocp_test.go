// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package problem

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curioloop/paramfit/cost"
	"github.com/curioloop/paramfit/dataset"
	"github.com/curioloop/paramfit/param"
)

// ocpCurves builds a reference branch pair y = f(t) + shift on [0, 1] and
// fit curves sampled at x = (t - a)/b.
func ocpCurves(t *testing.T, a, b float64) (fit, ref []dataset.Curve) {
	t.Helper()
	const n = 41
	for _, shift := range []float64{0, 0.05} {
		ts := make([]float64, n)
		ys := make([]float64, n)
		xs := make([]float64, n)
		for i := range ts {
			ts[i] = float64(i) / (n - 1)
			ys[i] = 4.2 - 1.5*ts[i] - 0.2*math.Sin(3*ts[i]) + shift
			xs[i] = (ts[i] - a) / b
		}
		r, err := dataset.NewCurve(ts, ys)
		require.NoError(t, err)
		f, err := dataset.NewCurve(xs, ys)
		require.NoError(t, err)
		ref = append(ref, r)
		fit = append(fit, f)
	}
	return
}

func TestOCPBalanceExact(t *testing.T) {
	const a, b = 0.1, 0.8
	fit, ref := ocpCurves(t, a, b)

	p, err := OCPBalance{Fit: fit, Reference: ref}.New()
	require.NoError(t, err)
	assert.Equal(t, "Root Mean Square Error", p.CostName())
	assert.Equal(t, []string{OffsetParameter, ScaleParameter}, p.Map().Names())

	// the closed form guess recovers the transform
	x0 := p.Map().Physical(p.X0())
	assert.InDelta(t, a, x0[0], 1e-12)
	assert.InDelta(t, b, x0[1], 1e-12)

	ctx := context.Background()
	f, err := p.Objective(ctx, p.Map().Scaled([]float64{a, b}))
	require.NoError(t, err)
	assert.InDelta(t, 0, f, 1e-12)

	off, err := p.Objective(ctx, p.Map().Scaled([]float64{a + 0.05, b}))
	require.NoError(t, err)
	assert.Greater(t, off, 1e-3)
}

func TestOCPBalanceBounds(t *testing.T) {
	for _, tc := range []struct{ a, b float64 }{{0.1, 0.8}, {-0.3, 1.7}, {0.9, -0.6}} {
		fit, ref := ocpCurves(t, tc.a, tc.b)
		p, err := OCPBalance{Fit: fit, Reference: ref}.New()
		require.NoError(t, err)

		x0 := p.X0()
		for i, bd := range p.Bounds() {
			assert.Less(t, bd.Lower, bd.Upper)
			assert.True(t, bd.Contains(x0[i]), "%v: entry %d", tc, i)
		}
		phys := p.Map().Spec()
		assert.InDelta(t, math.Abs(tc.b)*0.2, phys[1].Bounds.Width(), 1e-12)
	}
}

func TestOCPBalanceMLE(t *testing.T) {
	fit, ref := ocpCurves(t, 0.1, 0.8)
	p, err := OCPBalance{Fit: fit, Reference: ref, Cost: cost.MLE{}}.New()
	require.NoError(t, err)
	require.Equal(t, 2+len(fit), p.Map().Len())
	assert.Equal(t, param.Bound{Lower: 1e-16, Upper: 1e3}, p.Bounds()[3])

	f, err := p.Objective(context.Background(), p.X0())
	require.NoError(t, err)
	assert.False(t, math.IsNaN(f))
}

func TestOCPBalanceRejects(t *testing.T) {
	fit, ref := ocpCurves(t, 0.1, 0.8)

	_, err := OCPBalance{Fit: fit, Reference: ref[:1]}.New()
	assert.ErrorIs(t, err, param.ErrConfiguration)

	_, err = OCPBalance{}.New()
	assert.ErrorIs(t, err, param.ErrConfiguration)

	flat, err := dataset.NewCurve([]float64{0, 1}, []float64{1, 1})
	require.NoError(t, err)
	_, err = OCPBalance{Fit: []dataset.Curve{flat}, Reference: ref[:1]}.New()
	assert.ErrorIs(t, err, param.ErrConfiguration)
}

func TestOCPOverlay(t *testing.T) {
	fit, ref := ocpCurves(t, 0.1, 0.8)
	p, err := OCPBalance{Fit: fit, Reference: ref}.New()
	require.NoError(t, err)

	ov, err := p.Overlay(context.Background(), []float64{0.1, 0.8})
	require.NoError(t, err)
	require.Len(t, ov, 2)
	assert.Equal(t, "Curve 1", ov[1].Variable)
	for i := range ov[0].Data {
		assert.InDelta(t, ov[0].Data[i], ov[0].Optimised[i], 1e-12)
	}

	c, err := p.Clone()
	require.NoError(t, err)
	assert.Equal(t, p.X0(), c.X0())
}
