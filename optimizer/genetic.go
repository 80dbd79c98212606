// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package optimizer

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"go.uber.org/zap"

	"github.com/curioloop/paramfit/param"
	"github.com/curioloop/paramfit/problem"
)

// Genetic is a real-coded genetic algorithm with tournament selection,
// simulated binary crossover, polynomial mutation and elitism.
// The initial guess only seeds one population member.
type Genetic struct {
	Hooks
	// Maximum generations, 200 when zero.
	MaxIterations int
	// Population size, max(20, 10·n) when zero.
	PopSize int
	// Members copied unchanged into the next generation, 2 when zero.
	EliteCount int
	// Members competing in each tournament, 3 when zero.
	TournamentSize int
	// Probability of crossover between two parents, 0.9 when zero.
	CrossoverRate float64
	// Per-entry mutation probability, 1/n when zero.
	MutationRate float64
	// Distribution indices of crossover and mutation, 15 and 20 when zero.
	CrossoverEta, MutationEta float64
	// Relative improvement of the best cost below which a generation counts as stalled, 1e-8 when zero.
	Tolerance float64
	// Stalled generations before termination, 25 when zero.
	StallGenerations int
	// Seed of the random generator, random when zero.
	Seed uint64
	// Concurrent evaluations, each with its own problem clone.
	Workers int
}

func (Genetic) Name() string { return "Genetic algorithm optimiser" }
func (Genetic) Global() bool { return true }

func (ga Genetic) Optimise(ctx context.Context, p problem.Problem, x0 []float64, bounds []param.Bound) (*Result, error) {
	return optimise(ctx, ga.Name(), ga.Hooks, p, x0, bounds, ga.search)
}

func (ga Genetic) withDefaults(n int) Genetic {
	g := ga
	if g.MaxIterations <= 0 {
		g.MaxIterations = 200
	}
	if g.PopSize <= 0 {
		g.PopSize = max(20, 10*n)
	}
	if g.EliteCount <= 0 {
		g.EliteCount = 2
	}
	g.EliteCount = min(g.EliteCount, g.PopSize-1)
	if g.TournamentSize <= 0 {
		g.TournamentSize = 3
	}
	if g.CrossoverRate <= 0 {
		g.CrossoverRate = 0.9
	}
	if g.MutationRate <= 0 {
		g.MutationRate = 1 / float64(n)
	}
	if g.CrossoverEta <= 0 {
		g.CrossoverEta = 15
	}
	if g.MutationEta <= 0 {
		g.MutationEta = 20
	}
	if g.Tolerance <= 0 {
		g.Tolerance = 1e-8
	}
	if g.StallGenerations <= 0 {
		g.StallGenerations = 25
	}
	return g
}

func (ga Genetic) search(ctx context.Context, s *session) (outcome, error) {
	if err := finiteBounds(s.bounds); err != nil {
		return outcome{}, err
	}
	g := ga.withDefaults(len(s.x0))
	if g.PopSize < 2 {
		return outcome{}, fmt.Errorf("%w: population size must be at least 2", param.ErrConfiguration)
	}
	rng := newRand(g.Seed)

	pop := seedPopulation(rng, g.PopSize, s.x0, s.bounds)
	fit := make([]float64, g.PopSize)
	if err := s.energies(ctx, pop, fit, g.Workers); err != nil {
		return outcome{}, err
	}

	stats := &PopulationStats{}
	best := fit[argmin(fit)]
	stalled := 0
	order := make([]int, g.PopSize)

	for gen := 1; gen <= g.MaxIterations && stalled < g.StallGenerations; gen++ {
		for i := range order {
			order[i] = i
		}
		slices.SortStableFunc(order, func(a, b int) int { return cmp.Compare(fit[a], fit[b]) })

		next := make([][]float64, 0, g.PopSize)
		nextFit := make([]float64, 0, g.PopSize)
		for _, i := range order[:g.EliteCount] {
			next = append(next, pop[i])
			nextFit = append(nextFit, fit[i])
		}

		var children [][]float64
		for len(next)+len(children) < g.PopSize {
			p1, p2 := pop[g.tournament(rng, fit)], pop[g.tournament(rng, fit)]
			c1, c2 := append([]float64(nil), p1...), append([]float64(nil), p2...)
			if rng.Float64() < g.CrossoverRate {
				c1, c2 = g.crossover(rng, p1, p2, s.bounds)
			}
			g.mutate(rng, c1, s.bounds)
			g.mutate(rng, c2, s.bounds)
			children = append(children, c1, c2)
		}
		children = children[:g.PopSize-len(next)]

		childFit := make([]float64, len(children))
		if err := s.energies(ctx, children, childFit, g.Workers); err != nil {
			return outcome{}, err
		}
		pop, fit = append(next, children...), append(nextFit, childFit...)

		current := fit[argmin(fit)]
		if best-current > g.Tolerance*math.Max(1, math.Abs(best)) || math.IsInf(best, 1) && !math.IsInf(current, 1) {
			stalled = 0
		} else {
			stalled++
		}
		best = math.Min(best, current)
		stats.Generations = gen
		stats.History = append(stats.History, current)
		s.logger.Debug("generation", zap.Int("generation", gen), zap.Float64("best", current))
	}

	i := argmin(fit)
	out := outcome{
		X:    append([]float64(nil), pop[i]...),
		F:    fit[i],
		Iter: stats.Generations,
		Raw:  stats,
	}
	if stalled >= g.StallGenerations {
		out.Success = true
		out.Message = fmt.Sprintf("Best cost stalled for %d generations", g.StallGenerations)
	} else {
		out.Message = "Maximum number of generations reached"
	}
	if math.IsInf(out.F, 1) {
		out.F = math.NaN()
	}
	return out, nil
}

func (ga Genetic) tournament(rng *rand.Rand, fit []float64) int {
	best := rng.IntN(len(fit))
	for k := 1; k < ga.TournamentSize; k++ {
		if i := rng.IntN(len(fit)); fit[i] < fit[best] {
			best = i
		}
	}
	return best
}

// crossover applies bounded simulated binary crossover entry by entry.
func (ga Genetic) crossover(rng *rand.Rand, p1, p2 []float64, bounds []param.Bound) (c1, c2 []float64) {
	n := len(p1)
	c1, c2 = make([]float64, n), make([]float64, n)
	exp := 1 / (ga.CrossoverEta + 1)
	spread := func(beta, u float64) float64 {
		alpha := 2 - math.Pow(beta, -(ga.CrossoverEta+1))
		if u <= 1/alpha {
			return math.Pow(u*alpha, exp)
		}
		return math.Pow(1/(2-u*alpha), exp)
	}
	for j := 0; j < n; j++ {
		c1[j], c2[j] = p1[j], p2[j]
		if rng.Float64() > 0.5 || math.Abs(p1[j]-p2[j]) < 1e-14 {
			continue
		}
		y1, y2 := math.Min(p1[j], p2[j]), math.Max(p1[j], p2[j])
		b, d := bounds[j], y2-y1
		u := rng.Float64()
		lo := 0.5 * ((y1 + y2) - spread(1+2*(y1-b.Lower)/d, u)*d)
		hi := 0.5 * ((y1 + y2) + spread(1+2*(b.Upper-y2)/d, u)*d)
		lo, hi = b.Clip(lo), b.Clip(hi)
		if rng.Float64() < 0.5 {
			lo, hi = hi, lo
		}
		c1[j], c2[j] = lo, hi
	}
	return c1, c2
}

// mutate applies bounded polynomial mutation in place.
func (ga Genetic) mutate(rng *rand.Rand, x []float64, bounds []param.Bound) {
	exp := 1 / (ga.MutationEta + 1)
	for j := range x {
		b := bounds[j]
		w := b.Width()
		if w <= 0 || rng.Float64() >= ga.MutationRate {
			continue
		}
		d1, d2 := (x[j]-b.Lower)/w, (b.Upper-x[j])/w
		u := rng.Float64()
		var dq float64
		if u < 0.5 {
			v := 2*u + (1-2*u)*math.Pow(1-d1, ga.MutationEta+1)
			dq = math.Pow(v, exp) - 1
		} else {
			v := 2*(1-u) + 2*(u-0.5)*math.Pow(1-d2, ga.MutationEta+1)
			dq = 1 - math.Pow(v, exp)
		}
		x[j] = b.Clip(x[j] + dq*w)
	}
}
