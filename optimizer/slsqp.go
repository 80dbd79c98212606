// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package optimizer

import (
	"context"
	"math"

	"github.com/curioloop/paramfit/param"
	"github.com/curioloop/paramfit/problem"
	"github.com/curioloop/paramfit/slsqp"
)

// rejectedPenalty replaces a rejected cost inside gradient-based searches.
const rejectedPenalty = 1e100

// SLSQP is a gradient-based local search over box bounds. Gradients are
// estimated by finite differences, so every iteration costs n+1
// evaluations.
type SLSQP struct {
	Hooks
	// Maximum SQP iterations, 100 when zero.
	MaxIterations int
	// Requested accuracy of the solution, 1e-6 when zero.
	Accuracy float64
}

func (SLSQP) Name() string { return "SLSQP bound-constrained optimiser" }
func (SLSQP) Global() bool { return false }

func (o SLSQP) Optimise(ctx context.Context, p problem.Problem, x0 []float64, bounds []param.Bound) (*Result, error) {
	return optimise(ctx, o.Name(), o.Hooks, p, x0, bounds, o.search)
}

func (o SLSQP) search(ctx context.Context, s *session) (outcome, error) {
	if err := s.startInBounds(); err != nil {
		return outcome{}, err
	}
	return localSQP(ctx, s, s.prob, s.x0, o.MaxIterations, o.Accuracy)
}

// localSQP runs the SQP kernel from x0 evaluating with p.
func localSQP(ctx context.Context, s *session, p problem.Problem, x0 []float64, maxIter int, acc float64) (outcome, error) {
	bounds := make([]slsqp.Bound, len(s.bounds))
	for i, b := range s.bounds {
		bounds[i] = slsqp.Bound{Lower: b.Lower, Upper: b.Upper}
	}
	f := func(x []float64) float64 {
		v, ok := s.evaluate(ctx, p, x)
		if !ok {
			return rejectedPenalty
		}
		return v
	}

	r, err := slsqp.Minimize(ctx, f, x0, bounds, slsqp.Termination{
		Accuracy:      acc,
		MaxIterations: maxIter,
	}, s.logger)
	if err != nil {
		return outcome{}, err
	}

	fun := r.F
	if fun >= rejectedPenalty || math.IsNaN(fun) {
		fun = math.NaN()
	}
	return outcome{
		X:       r.X,
		F:       fun,
		Success: r.OK,
		Message: r.Status.String(),
		Iter:    r.NumIter,
		Raw:     r,
	}, nil
}
