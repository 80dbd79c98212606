// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package optimizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/curioloop/paramfit/param"
	"github.com/curioloop/paramfit/problem"
	"github.com/curioloop/paramfit/sim"
	"github.com/curioloop/paramfit/store"
)

// Point selects which parameter set CalculateSolution solves at.
type Point int

const (
	Optimised Point = iota
	Initial
)

// Result is the outcome of one optimiser run in physical units.
// Only the simulation cache of the owned problem changes after creation.
type Result struct {
	ID        uuid.UUID
	CreatedAt time.Time

	X            []float64 // Best decision vector in physical units
	Values       map[string]float64
	InitialGuess map[string]float64
	Bounds       map[string]param.Bound

	Success     bool
	Message     string
	Fun         float64
	SolveTime   time.Duration
	Optimiser   string
	NumEval     int
	NumRejected int
	NumIter     int
	Raw         any // Backend specific result

	problem problem.Problem
	names   []string
	initial []float64

	mu      sync.Mutex
	overlay []problem.Overlay
}

// Problem returns the private problem copy the result was produced from.
func (r *Result) Problem() problem.Problem { return r.problem }

// InitialPoint returns the starting point in physical units.
func (r *Result) InitialPoint() []float64 { return append([]float64(nil), r.initial...) }

// CalculateSolution solves the owned problem at the optimised or the
// initial parameters. The problem must be backed by a simulation.
func (r *Result) CalculateSolution(ctx context.Context, at Point) (*sim.Solution, error) {
	solver, ok := r.problem.(problem.Solver)
	if !ok {
		return nil, errors.New("problem is not backed by a simulation")
	}
	x := r.X
	if at == Initial {
		x = r.initial
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return solver.CalculateSolution(ctx, x)
}

// Overlay compares the initial and optimised traces with the reference
// data. The comparison is computed once and cached.
func (r *Result) Overlay(ctx context.Context) ([]problem.Overlay, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.overlay == nil {
		o, err := r.problem.Overlay(ctx, r.X)
		if err != nil {
			return nil, err
		}
		r.overlay = o
	}
	return r.overlay, nil
}

// String renders the textual report.
func (r *Result) String() string {
	var b strings.Builder
	b.WriteString("OptimisationResult:\n")
	fmt.Fprintf(&b, "  Optimal values: %s\n", r.format(r.X))
	fmt.Fprintf(&b, "  Initial values: %s\n", r.format(r.initial))
	fmt.Fprintf(&b, "  Optimiser: %s\n", r.Optimiser)
	fmt.Fprintf(&b, "  Cost function value: %.8g\n", r.Fun)
	fmt.Fprintf(&b, "  Solve time: %s\n", r.SolveTime.Round(time.Microsecond))
	fmt.Fprintf(&b, "  Message: %s\n", r.Message)
	return b.String()
}

func (r *Result) format(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%s=%.6g", r.names[i], x)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Record converts the result into its persisted form.
func (r *Result) Record() store.Record {
	rec := store.Record{
		SchemaVersion: store.CurrentSchemaVersion,
		ID:            r.ID.String(),
		CreatedAt:     r.CreatedAt,
		Optimiser:     r.Optimiser,
		Success:       r.Success,
		Message:       r.Message,
		Fun:           r.Fun,
		SolveTime:     r.SolveTime,
		NumEval:       r.NumEval,
		Values:        keyed(r.names, r.X),
		InitialGuess:  keyed(r.names, r.initial),
	}
	if r.problem != nil {
		rec.CostFunction = r.problem.CostName()
	}
	return rec
}
