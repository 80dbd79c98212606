// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package optimizer

import (
	"context"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/optimize"

	"github.com/curioloop/paramfit/param"
	"github.com/curioloop/paramfit/problem"
)

// NelderMead is a derivative-free local simplex search.
// The initial guess must lie inside the bounds. Probed points are
// clipped into the bounds before evaluation.
type NelderMead struct {
	Hooks
	// Maximum simplex iterations, 200·n when zero.
	MaxIterations int
	// Maximum objective evaluations, 200·n when zero.
	MaxEvaluations int
	// Absolute cost improvement below which an iteration counts as stalled, 1e-8 when zero.
	Tolerance float64
	// Stalled iterations before termination, 50 when zero.
	StallIterations int
	// Size of the initial simplex in scaled units, 0.05 when zero.
	SimplexSize float64
}

func (NelderMead) Name() string { return "Nelder-Mead simplex optimiser" }
func (NelderMead) Global() bool { return false }

func (nm NelderMead) Optimise(ctx context.Context, p problem.Problem, x0 []float64, bounds []param.Bound) (*Result, error) {
	return optimise(ctx, nm.Name(), nm.Hooks, p, x0, bounds, nm.search)
}

// stopOnCancel ends the search at the next iteration once ctx is done.
type stopOnCancel struct {
	ctx context.Context
	optimize.Converger
}

func (c stopOnCancel) Converged(loc *optimize.Location) optimize.Status {
	if c.ctx.Err() != nil {
		return optimize.Failure
	}
	return c.Converger.Converged(loc)
}

var convergedStatus = map[optimize.Status]bool{
	optimize.Success:             true,
	optimize.FunctionThreshold:   true,
	optimize.FunctionConvergence: true,
	optimize.GradientThreshold:   true,
	optimize.StepConvergence:     true,
	optimize.MethodConverge:      true,
}

func (nm NelderMead) search(ctx context.Context, s *session) (outcome, error) {
	if err := s.startInBounds(); err != nil {
		return outcome{}, err
	}
	n := len(s.x0)
	maxIter, maxEval := nm.MaxIterations, nm.MaxEvaluations
	if maxIter <= 0 {
		maxIter = 200 * n
	}
	if maxEval <= 0 {
		maxEval = 200 * n
	}
	tol, stall := nm.Tolerance, nm.StallIterations
	if tol <= 0 {
		tol = 1e-8
	}
	if stall <= 0 {
		stall = 50
	}

	buf := make([]float64, n)
	prob := optimize.Problem{
		Func: func(x []float64) float64 {
			f, ok := s.evaluate(ctx, s.prob, clipped(buf, x, s.bounds))
			if !ok {
				return math.Inf(1)
			}
			return f
		},
	}
	settings := &optimize.Settings{
		MajorIterations: maxIter,
		FuncEvaluations: maxEval,
		Converger: stopOnCancel{ctx, &optimize.FunctionConverge{
			Absolute:   tol,
			Iterations: stall,
		}},
	}
	method := &optimize.NelderMead{SimplexSize: nm.SimplexSize}

	res, err := optimize.Minimize(prob, append([]float64(nil), s.x0...), settings, method)
	if res == nil {
		return outcome{}, err
	}
	if err != nil {
		s.logger.Debug("simplex search stopped", zap.Error(err))
	}

	f := res.F
	if math.IsInf(f, 1) {
		f = math.NaN()
	}
	return outcome{
		X:       clipped(nil, res.X, s.bounds),
		F:       f,
		Success: convergedStatus[res.Status],
		Message: res.Status.String(),
		Iter:    res.MajorIterations,
		Raw:     res,
	}, nil
}
