// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package optimizer adapts local and global search algorithms to the
// problem contract and normalises what they return into a Result.
package optimizer

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/curioloop/paramfit/logging"
	"github.com/curioloop/paramfit/param"
	"github.com/curioloop/paramfit/problem"
)

// Optimizer searches the decision space of a problem.
type Optimizer interface {
	// Name is printed in reports and used as the metrics label.
	Name() string
	// Global reports whether x0 is only a population seed.
	Global() bool
	// Optimise minimises the problem objective starting from x0 within bounds,
	// both in scaled units. Nil x0 or bounds default to the problem's own.
	Optimise(ctx context.Context, p problem.Problem, x0 []float64, bounds []param.Bound) (*Result, error)
}

// Observer receives evaluation and run events, typically a metrics collector.
type Observer interface {
	ObserveEvaluation(optimiser string, rejected bool)
	ObserveRun(optimiser string, success bool, d time.Duration)
}

// Hooks carries the ambient collaborators shared by every backend.
type Hooks struct {
	Logger   *zap.Logger
	Observer Observer
}

// outcome is what a search reports, in scaled units.
type outcome struct {
	X       []float64
	F       float64
	Success bool
	Message string
	Iter    int
	Raw     any
}

type search func(ctx context.Context, s *session) (outcome, error)

// session is the state of one Optimise call. It owns a private clone of
// the problem so that the caller's problem is never evaluated.
type session struct {
	name   string
	prob   problem.Problem
	x0     []float64
	bounds []param.Bound
	logger *zap.Logger
	obs    Observer

	evals    atomic.Int64
	rejected atomic.Int64

	// stop cancels the search context after a failed evaluation.
	stop context.CancelFunc

	mu       sync.Mutex
	firstErr error
	clones   []problem.Problem
}

// evaluate computes the objective with p. NaN costs are counted as
// rejected and reported with ok false. A failed evaluation is recorded and
// stops the search.
func (s *session) evaluate(ctx context.Context, p problem.Problem, x []float64) (f float64, ok bool) {
	f, err := p.Objective(ctx, x)
	s.evals.Add(1)
	ok = err == nil && !math.IsNaN(f)
	if !ok {
		s.rejected.Add(1)
	}
	if err != nil && ctx.Err() == nil {
		s.mu.Lock()
		if s.firstErr == nil {
			s.firstErr = err
			s.logger.Warn("objective evaluation failed", zap.Error(err))
		}
		s.mu.Unlock()
		if s.stop != nil {
			s.stop()
		}
	}
	if s.obs != nil {
		s.obs.ObserveEvaluation(s.name, !ok)
	}
	if !ok {
		return math.NaN(), false
	}
	return f, true
}

// workers returns n problems safe to evaluate concurrently. The first is
// the session problem, the others are clones made on first use.
func (s *session) workers(n int) ([]problem.Problem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.clones) == 0 {
		s.clones = []problem.Problem{s.prob}
	}
	for len(s.clones) < n {
		c, err := s.prob.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone problem for worker %d: %w", len(s.clones), err)
		}
		c.Reset()
		s.clones = append(s.clones, c)
	}
	return s.clones[:n], nil
}

// optimise is the run step shared by every backend.
func optimise(ctx context.Context, name string, hooks Hooks, p problem.Problem, x0 []float64, bounds []param.Bound, run search) (*Result, error) {
	if p == nil {
		return nil, fmt.Errorf("%s: %w: problem is required", name, param.ErrConfiguration)
	}

	clone, err := p.Clone()
	if err != nil {
		return nil, fmt.Errorf("%s: clone problem: %w", name, err)
	}
	clone.Reset()

	if x0 == nil {
		x0 = clone.X0()
	}
	if bounds == nil {
		bounds = clone.Bounds()
	}
	switch n := len(x0); {
	case n == 0:
		return nil, fmt.Errorf("%s: %w: empty decision vector", name, param.ErrConfiguration)
	case len(bounds) != n:
		return nil, fmt.Errorf("%s: %w: %d bounds for %d decision entries", name, param.ErrConfiguration, len(bounds), n)
	case clone.Map() != nil && clone.Map().Len() != n:
		return nil, fmt.Errorf("%s: %w: decision vector has %d entries, want %d", name, param.ErrConfiguration, n, clone.Map().Len())
	}

	s := &session{
		name:   name,
		prob:   clone,
		x0:     append([]float64(nil), x0...),
		bounds: append([]param.Bound(nil), bounds...),
		logger: logging.OrNop(hooks.Logger).With(zap.String("optimiser", name)),
		obs:    hooks.Observer,
	}

	s.logger.Info("optimisation started",
		zap.Int("dimension", len(x0)),
		zap.String("cost", clone.CostName()))

	searchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.stop = cancel

	start := time.Now()
	out, err := run(searchCtx, s)
	elapsed := time.Since(start)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%s: %w", name, ctxErr)
	}
	s.mu.Lock()
	evalErr := s.firstErr
	s.mu.Unlock()
	if evalErr != nil {
		return nil, fmt.Errorf("%s: objective evaluation failed: %w", name, evalErr)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	evals, rejected := s.evals.Load(), s.rejected.Load()
	if rejected == evals || math.IsNaN(out.F) {
		out.Success = false
		out.Message = fmt.Sprintf("No admissible point found: %d of %d evaluations rejected (%s)",
			rejected, evals, out.Message)
	}

	scalings := clone.Scalings()
	res := &Result{
		ID:          uuid.New(),
		CreatedAt:   start,
		X:           rescale(out.X, scalings),
		Success:     out.Success,
		Message:     out.Message,
		Fun:         out.F,
		SolveTime:   elapsed,
		Optimiser:   name,
		NumEval:     int(evals),
		NumRejected: int(rejected),
		NumIter:     out.Iter,
		Raw:         out.Raw,
		problem:     clone,
		initial:     rescale(s.x0, scalings),
	}
	res.names = decisionNames(clone.Map(), len(out.X))
	res.Values = keyed(res.names, res.X)
	res.InitialGuess = keyed(res.names, res.initial)
	res.Bounds = make(map[string]param.Bound, len(s.bounds))
	for i, b := range rescaleBounds(s.bounds, scalings) {
		res.Bounds[res.names[i]] = b
	}

	if s.obs != nil {
		s.obs.ObserveRun(name, res.Success, elapsed)
	}
	s.logger.Info("optimisation finished",
		zap.Bool("success", res.Success),
		zap.Float64("cost", res.Fun),
		zap.Int("evaluations", res.NumEval),
		zap.Int("rejected", res.NumRejected),
		zap.Duration("solve_time", elapsed),
		zap.String("message", res.Message))
	return res, nil
}

// rescale returns x multiplied by scalings, or a copy of x when the
// problem has no scalings.
func rescale(x, scalings []float64) []float64 {
	out := append([]float64(nil), x...)
	if len(scalings) != len(x) {
		return out
	}
	for i := range out {
		out[i] *= scalings[i]
	}
	return out
}

func rescaleBounds(bounds []param.Bound, scalings []float64) []param.Bound {
	out := append([]param.Bound(nil), bounds...)
	if len(scalings) != len(bounds) {
		return out
	}
	for i, b := range out {
		lo, hi := b.Lower*scalings[i], b.Upper*scalings[i]
		if scalings[i] < 0 {
			lo, hi = hi, lo
		}
		out[i] = param.Bound{Lower: lo, Upper: hi}
	}
	return out
}

func decisionNames(m *param.Map, n int) []string {
	names := make([]string, n)
	if m != nil && m.Len() == n {
		for i, k := range m.Keys() {
			names[i] = k.String()
		}
		return names
	}
	for i := range names {
		names[i] = fmt.Sprintf("x%d", i)
	}
	return names
}

func keyed(names []string, v []float64) map[string]float64 {
	out := make(map[string]float64, len(v))
	for i, x := range v {
		out[names[i]] = x
	}
	return out
}

// clipped copies x into dst kept inside bounds.
func clipped(dst, x []float64, bounds []param.Bound) []float64 {
	dst = append(dst[:0], x...)
	param.ClipAll(dst, bounds)
	return dst
}

// startInBounds rejects an x0 a local search cannot start from.
func (s *session) startInBounds() error {
	for i, b := range s.bounds {
		if !b.Contains(s.x0[i]) {
			return fmt.Errorf("%w: initial guess %g of entry %d is outside bounds [%g, %g]",
				param.ErrConfiguration, s.x0[i], i, b.Lower, b.Upper)
		}
	}
	return nil
}

// finiteBounds rejects bounds a population cannot be sampled from.
func finiteBounds(bounds []param.Bound) error {
	for i, b := range bounds {
		if !b.Finite() {
			return fmt.Errorf("%w: bounds of entry %d must be finite for a global search", param.ErrConfiguration, i)
		}
	}
	return nil
}
