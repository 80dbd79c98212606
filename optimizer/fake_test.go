// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package optimizer

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/curioloop/paramfit/param"
	"github.com/curioloop/paramfit/problem"
)

// quadratic is a problem whose cost is the squared distance between the
// physical point and target.
type quadratic struct {
	pmap   *param.Map // nil means an unscaled problem named x0, x1, ...
	x0     []float64
	bounds []param.Bound
	target []float64

	// reject returns NaN for physical points where it is true
	reject func(p []float64) bool
	// fail is returned for physical points where failAt is true, or
	// everywhere when failAt is nil
	fail   error
	failAt func(p []float64) bool

	calls    atomic.Int64
	resets   *atomic.Int64
	clones   *atomic.Int64
	overlays *atomic.Int64
}

func newQuadratic(t *testing.T) *quadratic {
	t.Helper()
	m, err := param.Build(param.Spec{
		{Key: param.Name("a"), Guess: 2, Bounds: param.Bound{Lower: 0.5, Upper: 10}},
		{Key: param.Name("b"), Guess: -3, Bounds: param.Bound{Lower: -10, Upper: -0.5}},
	})
	require.NoError(t, err)
	return &quadratic{
		pmap:     m,
		target:   []float64{4, -1.5},
		resets:   new(atomic.Int64),
		clones:   new(atomic.Int64),
		overlays: new(atomic.Int64),
	}
}

func newUnscaled(x0 []float64, bounds []param.Bound, target []float64) *quadratic {
	return &quadratic{
		x0: x0, bounds: bounds, target: target,
		resets: new(atomic.Int64), clones: new(atomic.Int64), overlays: new(atomic.Int64),
	}
}

func (q *quadratic) X0() []float64 {
	if q.pmap != nil {
		return q.pmap.X0()
	}
	return append([]float64(nil), q.x0...)
}

func (q *quadratic) Bounds() []param.Bound {
	if q.pmap != nil {
		return q.pmap.Bounds()
	}
	return append([]param.Bound(nil), q.bounds...)
}

func (q *quadratic) Scalings() []float64 {
	if q.pmap != nil {
		return q.pmap.Scalings()
	}
	return nil
}

func (q *quadratic) Map() *param.Map  { return q.pmap }
func (q *quadratic) CostName() string { return "Sum of squares" }
func (q *quadratic) Reset()           { q.resets.Add(1) }

func (q *quadratic) physical(x []float64) []float64 {
	if q.pmap != nil {
		return q.pmap.Physical(x)
	}
	return append([]float64(nil), x...)
}

func (q *quadratic) cost(p []float64) float64 {
	var f float64
	for i, v := range p {
		f += (v - q.target[i]) * (v - q.target[i])
	}
	return f
}

func (q *quadratic) Objective(ctx context.Context, x []float64) (float64, error) {
	q.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p := q.physical(x)
	if q.fail != nil && (q.failAt == nil || q.failAt(p)) {
		return 0, q.fail
	}
	if q.reject != nil && q.reject(p) {
		return math.NaN(), nil
	}
	return q.cost(p), nil
}

func (q *quadratic) Overlay(_ context.Context, physical []float64) ([]problem.Overlay, error) {
	q.overlays.Add(1)
	return []problem.Overlay{{Variable: "distance", X: []float64{0}, Data: []float64{0},
		Initial: []float64{q.cost(q.physical(q.X0()))}, Optimised: []float64{q.cost(physical)}}}, nil
}

func (q *quadratic) Clone() (problem.Problem, error) {
	q.clones.Add(1)
	return &quadratic{
		pmap: q.pmap, x0: q.x0, bounds: q.bounds, target: q.target,
		reject: q.reject, fail: q.fail, failAt: q.failAt,
		resets: q.resets, clones: q.clones, overlays: q.overlays,
	}, nil
}

// recorder counts observer events.
type recorder struct {
	mu       sync.Mutex
	evals    int
	rejected int
	runs     int
	success  bool
	elapsed  time.Duration
}

func (r *recorder) ObserveEvaluation(_ string, rejected bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evals++
	if rejected {
		r.rejected++
	}
}

func (r *recorder) ObserveRun(_ string, success bool, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs++
	r.success = success
	r.elapsed = d
}
