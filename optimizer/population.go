// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package optimizer

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/sourcegraph/conc/pool"

	"github.com/curioloop/paramfit/param"
)

// PopulationStats is the raw outcome of a population search.
type PopulationStats struct {
	Generations int
	// Best cost after each generation.
	History  []float64
	Polished bool
}

// newRand returns a PCG generator, randomly seeded when seed is zero.
func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed))
}

// energies evaluates every member of xs. Members are split into one
// contiguous chunk per worker and each worker evaluates with its own
// problem clone, so the result does not depend on scheduling.
// Rejected members get +Inf.
func (s *session) energies(ctx context.Context, xs [][]float64, out []float64, workers int) error {
	if len(xs) == 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	workers = min(workers, len(xs))
	probs, err := s.workers(workers)
	if err != nil {
		return err
	}

	chunk := (len(xs) + workers - 1) / workers
	p := pool.New().WithMaxGoroutines(workers).WithContext(ctx).WithCancelOnError()
	for w := 0; w < workers; w++ {
		lo, hi := w*chunk, min((w+1)*chunk, len(xs))
		prob := probs[w]
		p.Go(func(ctx context.Context) error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				f, ok := s.evaluate(ctx, prob, xs[i])
				if !ok {
					f = math.Inf(1)
				}
				out[i] = f
			}
			return nil
		})
	}
	return p.Wait()
}

// sample draws a point uniformly inside finite bounds.
func sample(rng *rand.Rand, bounds []param.Bound) []float64 {
	x := make([]float64, len(bounds))
	for i, b := range bounds {
		x[i] = b.Lower + rng.Float64()*b.Width()
	}
	return x
}

// seedPopulation samples size members and replaces the first with x0
// clipped into the bounds.
func seedPopulation(rng *rand.Rand, size int, x0 []float64, bounds []param.Bound) [][]float64 {
	pop := make([][]float64, size)
	for i := range pop {
		pop[i] = sample(rng, bounds)
	}
	pop[0] = clipped(nil, x0, bounds)
	return pop
}

// argmin returns the index of the smallest value, NaN and +Inf last.
func argmin(fs []float64) int {
	best := 0
	for i, f := range fs {
		if f < fs[best] || math.IsNaN(fs[best]) && !math.IsNaN(f) {
			best = i
		}
	}
	return best
}
