// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package optimizer

import (
	"context"
	"math"
	"math/rand/v2"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/curioloop/paramfit/param"
	"github.com/curioloop/paramfit/problem"
)

// DifferentialEvolution is a global stochastic search using the
// best1bin strategy. The initial guess only seeds one population member.
type DifferentialEvolution struct {
	Hooks
	// Maximum generations, 1000 when zero.
	MaxIterations int
	// Population size, 15·n when zero.
	PopSize int
	// Mutation factor range; a new factor is drawn from it every generation.
	// [0.5, 1) when zero.
	Mutation [2]float64
	// Crossover probability, 0.7 when zero.
	Recombination float64
	// Relative spread of population costs at convergence, 0.01 when zero.
	Tolerance float64
	// Seed of the random generator, random when zero.
	Seed uint64
	// Concurrent evaluations, each with its own problem clone.
	Workers int
	// Refine the best member with a local SQP search.
	Polish bool
}

func (DifferentialEvolution) Name() string { return "Differential Evolution optimiser" }
func (DifferentialEvolution) Global() bool { return true }

func (de DifferentialEvolution) Optimise(ctx context.Context, p problem.Problem, x0 []float64, bounds []param.Bound) (*Result, error) {
	return optimise(ctx, de.Name(), de.Hooks, p, x0, bounds, de.search)
}

func (de DifferentialEvolution) settings(n int) (maxGen, size int, mut [2]float64, cr, tol float64) {
	maxGen, size, mut, cr, tol = de.MaxIterations, de.PopSize, de.Mutation, de.Recombination, de.Tolerance
	if maxGen <= 0 {
		maxGen = 1000
	}
	if size <= 0 {
		size = 15 * n
	}
	size = max(size, 5)
	if mut == [2]float64{} {
		mut = [2]float64{0.5, 1}
	}
	if cr <= 0 {
		cr = 0.7
	}
	if tol <= 0 {
		tol = 0.01
	}
	return
}

func (de DifferentialEvolution) search(ctx context.Context, s *session) (outcome, error) {
	if err := finiteBounds(s.bounds); err != nil {
		return outcome{}, err
	}
	n := len(s.x0)
	maxGen, size, mut, cr, tol := de.settings(n)
	rng := newRand(de.Seed)

	pop := seedPopulation(rng, size, s.x0, s.bounds)
	fit := make([]float64, size)
	if err := s.energies(ctx, pop, fit, de.Workers); err != nil {
		return outcome{}, err
	}

	stats := &PopulationStats{}
	trials := make([][]float64, size)
	trialFit := make([]float64, size)
	best := argmin(fit)
	converged := false

	for gen := 1; gen <= maxGen && !converged; gen++ {
		scale := mut[0] + rng.Float64()*(mut[1]-mut[0])
		for i := range pop {
			trials[i] = de.trial(rng, pop, i, best, scale, cr, s.bounds)
		}
		if err := s.energies(ctx, trials, trialFit, de.Workers); err != nil {
			return outcome{}, err
		}
		for i := range pop {
			if trialFit[i] <= fit[i] {
				pop[i], fit[i] = trials[i], trialFit[i]
			}
		}
		best = argmin(fit)
		stats.Generations = gen
		stats.History = append(stats.History, fit[best])
		s.logger.Debug("generation", zap.Int("generation", gen), zap.Float64("best", fit[best]))

		mean, std := stat.PopMeanStdDev(fit, nil)
		converged = std <= tol*math.Abs(mean)
	}

	out := outcome{
		X:       append([]float64(nil), pop[best]...),
		F:       fit[best],
		Success: converged,
		Iter:    stats.Generations,
		Raw:     stats,
	}
	if converged {
		out.Message = "Optimization terminated successfully."
	} else {
		out.Message = "Maximum number of iterations has been exceeded."
	}

	if de.Polish && !math.IsInf(out.F, 1) {
		polished, err := localSQP(ctx, s, s.prob, out.X, 0, 0)
		if err != nil {
			return outcome{}, err
		}
		if !math.IsNaN(polished.F) && polished.F < out.F {
			out.X, out.F = polished.X, polished.F
			stats.Polished = true
		}
	}
	if math.IsInf(out.F, 1) {
		out.F = math.NaN()
	}
	return out, nil
}

// trial builds the best1bin candidate for member i. Entries leaving the
// bounds are redrawn uniformly inside them.
func (de DifferentialEvolution) trial(rng *rand.Rand, pop [][]float64, i, best int, scale, cr float64, bounds []param.Bound) []float64 {
	size, n := len(pop), len(pop[i])
	r1 := rng.IntN(size)
	for r1 == i {
		r1 = rng.IntN(size)
	}
	r2 := rng.IntN(size)
	for r2 == i || r2 == r1 {
		r2 = rng.IntN(size)
	}

	x := append([]float64(nil), pop[i]...)
	fill := rng.IntN(n)
	for j := 0; j < n; j++ {
		if j == fill || rng.Float64() < cr {
			x[j] = pop[best][j] + scale*(pop[r1][j]-pop[r2][j])
		}
		if b := bounds[j]; !b.Contains(x[j]) {
			x[j] = b.Lower + rng.Float64()*b.Width()
		}
	}
	return x
}
