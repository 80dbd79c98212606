// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cost provides the residual measures used to compare simulated
// and reference signals.
package cost

import (
	"fmt"

	"github.com/curioloop/paramfit/param"
)

// Function reduces simulated and reference signals to a scalar cost.
//
// The signals are parallel lists: sim[i] and data[i] hold the i-th fitted
// variable sampled at the same time stamps. weights[i] holds either a single
// factor or one factor per sample; a nil weights list means unit weights.
// extra holds the physical values of the entries the function contributed
// through Parameters, in order.
type Function interface {
	Name() string
	Evaluate(sim, data, weights [][]float64, extra []float64) float64
	Parameters(variables []string) param.Spec
}

// Ensure coerces a single signal into a one-element list.
// It accepts []float64 and [][]float64 and panics on any other type.
func Ensure(v any) [][]float64 {
	switch s := v.(type) {
	case nil:
		return nil
	case []float64:
		return [][]float64{s}
	case [][]float64:
		return s
	}
	panic(fmt.Sprintf("cost: unsupported signal type %T", v))
}

// weightAt returns the weight of sample j of variable i.
func weightAt(weights [][]float64, i, j int) float64 {
	if i >= len(weights) {
		return 1
	}
	switch w := weights[i]; len(w) {
	case 0:
		return 1
	case 1:
		return w[0]
	default:
		return w[j]
	}
}
