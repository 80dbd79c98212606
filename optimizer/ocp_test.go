// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package optimizer

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/curioloop/paramfit/dataset"
	"github.com/curioloop/paramfit/problem"
)

// stretchedBranch returns a reference branch on [0, 1] and the same
// branch measured on the capacity axis x = (t - a)/b.
func stretchedBranch(t *testing.T, a, b float64) (fit, ref dataset.Curve) {
	t.Helper()
	const n = 41
	ts, xs, ys := make([]float64, n), make([]float64, n), make([]float64, n)
	for i := range ts {
		ts[i] = float64(i) / (n - 1)
		xs[i] = (ts[i] - a) / b
		ys[i] = 4.2 - 1.5*ts[i] - 0.2*math.Sin(3*ts[i])
	}
	ref, err := dataset.NewCurve(ts, ys)
	require.NoError(t, err)
	fit, err = dataset.NewCurve(xs, ys)
	require.NoError(t, err)
	return fit, ref
}

func TestDifferentialEvolutionAlignsOCP(t *testing.T) {
	const a, b = 0.1, 0.8
	fit, ref := stretchedBranch(t, a, b)
	p, err := problem.OCPBalance{
		Fit:       []dataset.Curve{fit},
		Reference: []dataset.Curve{ref},
		Logger:    zaptest.NewLogger(t),
	}.New()
	require.NoError(t, err)

	// start away from the closed form guess
	x0 := p.Map().Scaled([]float64{a + 0.03, b * 1.05})

	de := DifferentialEvolution{
		Hooks:         Hooks{Logger: zaptest.NewLogger(t)},
		MaxIterations: 200,
		Seed:          7,
		Workers:       2,
		Polish:        true,
	}
	res, err := de.Optimise(context.Background(), p, x0, nil)
	require.NoError(t, err)

	assert.InDelta(t, a, res.Values[problem.OffsetParameter], 1e-3)
	assert.InDelta(t, b, res.Values[problem.ScaleParameter], 1e-3)
	assert.Less(t, res.Fun, 1e-3)
	assert.InDelta(t, a+0.03, res.InitialGuess[problem.OffsetParameter], 1e-12)

	overlay, err := res.Overlay(context.Background())
	require.NoError(t, err)
	require.Len(t, overlay, 1)
	assert.Len(t, overlay[0].Optimised, fit.Len())

	_, err = res.CalculateSolution(context.Background(), Optimised)
	require.Error(t, err)
}
