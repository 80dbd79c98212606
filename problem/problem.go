// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package problem turns a parameter specification, reference data and a
// cost function into an objective over a scaled decision vector.
package problem

import (
	"context"
	"fmt"

	"github.com/curioloop/paramfit/param"
	"github.com/curioloop/paramfit/sim"
)

// Problem is the contract every optimizer backend consumes.
//
// Objective must be re-entrant: it may be called in any order and never
// accumulates state between calls. A NaN cost with a nil error is a valid
// outcome meaning the point should be rejected; an error means the
// evaluation itself failed.
type Problem interface {
	// X0 returns the scaled initial guess.
	X0() []float64
	// Bounds returns the scaled bounds.
	Bounds() []param.Bound
	// Scalings returns the physical scale of each entry, nil when the
	// decision vector is already physical.
	Scalings() []float64
	// Map returns the decision layout.
	Map() *param.Map
	// Objective evaluates the cost at a scaled point.
	Objective(ctx context.Context, x []float64) (float64, error)
	// Overlay compares the initial guess and a physical point against the
	// reference data.
	Overlay(ctx context.Context, physical []float64) ([]Overlay, error)
	// Clone returns a deep copy safe to evaluate on another goroutine.
	Clone() (Problem, error)
	// Reset drops cached solver state.
	Reset()
	// CostName names the cost function.
	CostName() string
}

// Solver is implemented by problems backed by a simulation.
type Solver interface {
	// CalculateSolution solves at a physical point, or at the initial
	// guess when physical is nil.
	CalculateSolution(ctx context.Context, physical []float64) (*sim.Solution, error)
}

// Overlay is one fitted signal compared at the reference abscissae.
type Overlay struct {
	Variable  string
	X         []float64 // Time stamps or capacity values
	Data      []float64
	Initial   []float64
	Optimised []float64
}

func checkLen(m *param.Map, x []float64) error {
	if len(x) != m.Len() {
		return fmt.Errorf("decision vector has %d entries, want %d", len(x), m.Len())
	}
	return nil
}
