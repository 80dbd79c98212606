// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package optimizer

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/curioloop/paramfit/config"
	"github.com/curioloop/paramfit/param"
	"github.com/curioloop/paramfit/store"
)

func backends(t *testing.T) []struct {
	opt   Optimizer
	delta float64
} {
	hooks := Hooks{Logger: zaptest.NewLogger(t)}
	return []struct {
		opt   Optimizer
		delta float64
	}{
		{NelderMead{Hooks: hooks}, 1e-3},
		{SLSQP{Hooks: hooks}, 1e-3},
		{DifferentialEvolution{Hooks: hooks, Seed: 1, Workers: 2, Polish: true}, 1e-3},
		{Genetic{Hooks: hooks, Seed: 1, Workers: 2}, 0.1},
	}
}

func TestBackendsReduceQuadratic(t *testing.T) {
	for _, tc := range backends(t) {
		t.Run(tc.opt.Name(), func(t *testing.T) {
			q := newQuadratic(t)
			initial := q.cost(q.physical(q.X0()))

			res, err := tc.opt.Optimise(context.Background(), q, nil, nil)
			require.NoError(t, err)

			assert.Less(t, res.Fun, initial)
			assert.InDelta(t, 4, res.X[0], tc.delta)
			assert.InDelta(t, -1.5, res.X[1], tc.delta)
			assert.Equal(t, res.X[0], res.Values["a"])
			assert.Equal(t, res.X[1], res.Values["b"])
			assert.InDelta(t, 2, res.InitialGuess["a"], 1e-12)
			assert.InDelta(t, -3, res.InitialGuess["b"], 1e-12)
			assert.InDelta(t, 0.5, res.Bounds["a"].Lower, 1e-12)
			assert.InDelta(t, 10, res.Bounds["a"].Upper, 1e-12)
			assert.InDelta(t, -10, res.Bounds["b"].Lower, 1e-12)
			assert.InDelta(t, -0.5, res.Bounds["b"].Upper, 1e-12)

			assert.Equal(t, tc.opt.Name(), res.Optimiser)
			assert.Positive(t, res.NumEval)
			assert.Positive(t, res.SolveTime)
			assert.NotEmpty(t, res.Message)
			assert.Zero(t, q.calls.Load(), "caller's problem must not be evaluated")
			assert.Positive(t, q.resets.Load())
		})
	}
}

func TestGlobalFlag(t *testing.T) {
	assert.False(t, NelderMead{}.Global())
	assert.False(t, SLSQP{}.Global())
	assert.True(t, DifferentialEvolution{}.Global())
	assert.True(t, Genetic{}.Global())
}

func TestUnscaledPassThrough(t *testing.T) {
	q := newUnscaled([]float64{3}, []param.Bound{{Lower: -10, Upper: 10}}, []float64{1})

	res, err := NelderMead{}.Optimise(context.Background(), q, nil, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1, res.X[0], 1e-3)
	assert.Equal(t, res.X[0], res.Values["x0"])
	assert.Equal(t, 3.0, res.InitialGuess["x0"])
	assert.Equal(t, param.Bound{Lower: -10, Upper: 10}, res.Bounds["x0"])
}

func TestExplicitStart(t *testing.T) {
	q := newQuadratic(t)
	res, err := SLSQP{}.Optimise(context.Background(), q, []float64{4, 1}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 8, res.InitialGuess["a"], 1e-12)
	assert.InDelta(t, 4, res.X[0], 1e-3)

	_, err = SLSQP{}.Optimise(context.Background(), q, []float64{1}, nil)
	assert.ErrorIs(t, err, param.ErrConfiguration)
}

func TestSLSQPRejectsOutsideBounds(t *testing.T) {
	q := newQuadratic(t)
	_, err := SLSQP{}.Optimise(context.Background(), q, []float64{6, 1}, nil)
	assert.ErrorIs(t, err, param.ErrConfiguration)
	assert.ErrorContains(t, err, "outside bounds")
}

func TestGlobalRejectsInfiniteBounds(t *testing.T) {
	q := newUnscaled([]float64{0}, []param.Bound{{Lower: math.Inf(-1), Upper: 1}}, []float64{0})
	_, err := DifferentialEvolution{Seed: 1}.Optimise(context.Background(), q, nil, nil)
	assert.ErrorIs(t, err, param.ErrConfiguration)
	_, err = Genetic{Seed: 1}.Optimise(context.Background(), q, nil, nil)
	assert.ErrorIs(t, err, param.ErrConfiguration)
}

func TestSeedReproducible(t *testing.T) {
	for _, mk := range []func(workers int) Optimizer{
		func(w int) Optimizer { return DifferentialEvolution{Seed: 42, Workers: w, MaxIterations: 30} },
		func(w int) Optimizer { return Genetic{Seed: 42, Workers: w, MaxIterations: 30} },
	} {
		first, err := mk(1).Optimise(context.Background(), newQuadratic(t), nil, nil)
		require.NoError(t, err)
		again, err := mk(1).Optimise(context.Background(), newQuadratic(t), nil, nil)
		require.NoError(t, err)
		parallel, err := mk(3).Optimise(context.Background(), newQuadratic(t), nil, nil)
		require.NoError(t, err)

		assert.Equal(t, first.X, again.X, first.Optimiser)
		assert.Equal(t, first.NumEval, again.NumEval, first.Optimiser)
		assert.Equal(t, first.X, parallel.X, first.Optimiser)
		assert.NotEqual(t, first.ID, again.ID)
	}
}

func TestNaNCostIsRejected(t *testing.T) {
	q := newQuadratic(t)
	q.reject = func(p []float64) bool { return p[0] > 6 }
	obs := &recorder{}

	res, err := DifferentialEvolution{Hooks: Hooks{Observer: obs}, Seed: 3}.Optimise(context.Background(), q, nil, nil)
	require.NoError(t, err)
	assert.Positive(t, res.NumRejected)
	assert.InDelta(t, 4, res.X[0], 0.05)
	assert.False(t, math.IsNaN(res.Fun))

	assert.Equal(t, res.NumEval, obs.evals)
	assert.Equal(t, res.NumRejected, obs.rejected)
	assert.Equal(t, 1, obs.runs)
	assert.Equal(t, res.Success, obs.success)
}

func TestEvaluationFailure(t *testing.T) {
	boom := errors.New("solver diverged")
	for _, tc := range backends(t) {
		q := newQuadratic(t)
		q.fail = boom
		_, err := tc.opt.Optimise(context.Background(), q, nil, nil)
		assert.ErrorIs(t, err, boom, tc.opt.Name())
	}
}

func TestPartialEvaluationFailureStopsSearch(t *testing.T) {
	boom := errors.New("solver diverged")
	for _, mk := range []func(Hooks) Optimizer{
		func(h Hooks) Optimizer { return NelderMead{Hooks: h} },
		func(h Hooks) Optimizer { return SLSQP{Hooks: h} },
		func(h Hooks) Optimizer { return DifferentialEvolution{Hooks: h, Seed: 1, Workers: 2} },
		func(h Hooks) Optimizer { return Genetic{Hooks: h, Seed: 1, Workers: 2} },
	} {
		obs := &recorder{}
		opt := mk(Hooks{Logger: zaptest.NewLogger(t), Observer: obs})

		// the optimum a = 4 lies beyond the region where solves fail
		q := newQuadratic(t)
		q.fail = boom
		q.failAt = func(p []float64) bool { return p[0] > 2.5 }

		res, err := opt.Optimise(context.Background(), q, nil, nil)
		assert.Nil(t, res, opt.Name())
		assert.ErrorIs(t, err, boom, opt.Name())
		assert.ErrorContains(t, err, opt.Name(), opt.Name())
		assert.Positive(t, obs.evals, opt.Name())
		assert.Zero(t, obs.runs, opt.Name())
	}
}

func TestEveryPointRejected(t *testing.T) {
	hooks := Hooks{Logger: zaptest.NewLogger(t)}
	for _, opt := range []Optimizer{
		NelderMead{Hooks: hooks, MaxIterations: 20},
		SLSQP{Hooks: hooks, MaxIterations: 5},
		DifferentialEvolution{Hooks: hooks, Seed: 1, MaxIterations: 5},
		Genetic{Hooks: hooks, Seed: 1, MaxIterations: 5},
	} {
		q := newQuadratic(t)
		q.reject = func([]float64) bool { return true }

		res, err := opt.Optimise(context.Background(), q, nil, nil)
		require.NoError(t, err, opt.Name())
		assert.False(t, res.Success, opt.Name())
		assert.True(t, math.IsNaN(res.Fun), opt.Name())
		assert.Equal(t, res.NumEval, res.NumRejected, opt.Name())
		assert.Contains(t, res.Message, "No admissible point found", opt.Name())
	}
}

func TestNelderMeadRejectsOutsideBounds(t *testing.T) {
	q := newQuadratic(t)
	_, err := NelderMead{}.Optimise(context.Background(), q, []float64{6, 1}, nil)
	assert.ErrorIs(t, err, param.ErrConfiguration)
	assert.ErrorContains(t, err, "outside bounds")
	assert.Zero(t, q.calls.Load())
}

func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, tc := range backends(t) {
		_, err := tc.opt.Optimise(ctx, newQuadratic(t), nil, nil)
		assert.ErrorIs(t, err, context.Canceled, tc.opt.Name())
	}
}

func TestNilProblem(t *testing.T) {
	_, err := NelderMead{}.Optimise(context.Background(), nil, nil, nil)
	assert.ErrorIs(t, err, param.ErrConfiguration)
}

func TestResultReport(t *testing.T) {
	q := newQuadratic(t)
	res, err := NelderMead{}.Optimise(context.Background(), q, nil, nil)
	require.NoError(t, err)

	report := res.String()
	for _, label := range []string{
		"Optimal values:", "Initial values:", "Optimiser: Nelder-Mead simplex optimiser",
		"Cost function value:", "Solve time:", "Message:",
	} {
		assert.Contains(t, report, label)
	}
	assert.True(t, strings.Contains(report, "a=4") || strings.Contains(report, "a=3.99"), report)
	assert.Contains(t, report, "b=-3")
}

func TestResultOverlayCached(t *testing.T) {
	q := newQuadratic(t)
	res, err := NelderMead{}.Optimise(context.Background(), q, nil, nil)
	require.NoError(t, err)

	first, err := res.Overlay(context.Background())
	require.NoError(t, err)
	second, err := res.Overlay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), q.overlays.Load())
	assert.Less(t, first[0].Optimised[0], first[0].Initial[0])

	_, err = res.CalculateSolution(context.Background(), Optimised)
	assert.Error(t, err)
}

func TestResultRecord(t *testing.T) {
	q := newQuadratic(t)
	res, err := SLSQP{}.Optimise(context.Background(), q, nil, nil)
	require.NoError(t, err)

	rec := res.Record()
	assert.Equal(t, res.ID.String(), rec.ID)
	assert.Equal(t, store.CurrentSchemaVersion, rec.SchemaVersion)
	assert.Equal(t, "Sum of squares", rec.CostFunction)
	assert.Equal(t, res.Values, rec.Values)
	assert.Equal(t, res.InitialGuess, rec.InitialGuess)
	assert.Equal(t, res.Fun, rec.Fun)
	assert.Equal(t, res.NumEval, rec.NumEval)
}

func TestFromConfig(t *testing.T) {
	cases := map[string]string{
		"":                                 "Nelder-Mead simplex optimiser",
		config.MethodNelderMead:            "Nelder-Mead simplex optimiser",
		config.MethodSLSQP:                 "SLSQP bound-constrained optimiser",
		config.MethodDifferentialEvolution: "Differential Evolution optimiser",
		config.MethodGenetic:               "Genetic algorithm optimiser",
	}
	for method, name := range cases {
		o, err := FromConfig(config.Optimizer{Method: method}, Hooks{})
		require.NoError(t, err)
		assert.Equal(t, name, o.Name())
	}

	o, err := FromConfig(config.Optimizer{
		Method: config.MethodDifferentialEvolution, MaxIter: 5, PopSize: 12, Seed: 9, Workers: 2, Polish: true,
	}, Hooks{})
	require.NoError(t, err)
	de := o.(DifferentialEvolution)
	assert.Equal(t, 5, de.MaxIterations)
	assert.Equal(t, 12, de.PopSize)
	assert.Equal(t, uint64(9), de.Seed)
	assert.True(t, de.Polish)

	_, err = FromConfig(config.Optimizer{Method: "annealing"}, Hooks{})
	assert.ErrorIs(t, err, param.ErrConfiguration)
}
