// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slsqp

import (
	"context"
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/curioloop/paramfit/numdiff"
)

type abort struct{ err error }

// Minimize solves the bound-constrained problem min 𝒇(𝐱) subject to 𝒍 ≤ 𝐱 ≤ 𝒖,
// estimating 𝒇′(𝐱) by forward differences.
// The function is only evaluated inside the bounds.
// Cancelling ctx stops the search at the next evaluation and returns ctx.Err().
// A non-nil logger traces the major iterations at debug level.
func Minimize(ctx context.Context, f func(x []float64) float64, x0 []float64, bounds []Bound, stop Termination, logger *zap.Logger) (*Result, error) {

	n := len(x0)
	if n == 0 {
		return nil, errors.New("empty initial guess")
	}
	if bounds != nil && len(bounds) != n {
		return nil, errors.New("bound size must equal to n")
	}
	if stop.MaxIterations <= 0 {
		stop.MaxIterations = 100
	}
	if stop.Accuracy <= 0 {
		stop.Accuracy = 1e-6
	}

	diffBnd := make([]numdiff.Bound, n)
	for i := range diffBnd {
		diffBnd[i] = numdiff.Bound{math.Inf(-1), math.Inf(1)}
		if bounds == nil {
			continue
		}
		if b := bounds[i]; !math.IsNaN(b.Lower) {
			diffBnd[i][0] = b.Lower
		}
		if b := bounds[i]; !math.IsNaN(b.Upper) {
			diffBnd[i][1] = b.Upper
		}
	}

	inside := make([]float64, n)
	clip := func(x []float64) []float64 {
		for i, v := range x {
			inside[i] = math.Min(math.Max(v, diffBnd[i][0]), diffBnd[i][1])
		}
		return inside
	}

	eval := func(x []float64) float64 {
		if err := ctx.Err(); err != nil {
			panic(abort{err})
		}
		return f(x)
	}

	grad, err := numdiff.NewGradient(n, eval, numdiff.Forward, diffBnd)
	if err != nil {
		return nil, err
	}

	var failure error
	obj := func(x []float64, g []float64) float64 {
		defer func() {
			if r := recover(); r != nil {
				if a, ok := r.(abort); ok {
					failure = a.err
				} else {
					failure = errors.New("objective evaluation panic")
				}
				panic(r)
			}
		}()
		x = clip(x)
		if g != nil {
			if err := grad.At(x, g); err != nil {
				panic(abort{err})
			}
			return 0
		}
		return eval(x)
	}

	p := Problem{N: n, Object: obj, Bounds: bounds, Stop: stop, Logger: logger}
	o, err := p.New()
	if err != nil {
		return nil, err
	}

	r := o.Fit(x0, o.Init())
	r.X = clamp(r.X, diffBnd)
	if failure != nil {
		return r, failure
	}
	return r, nil
}

func clamp(x []float64, b []numdiff.Bound) []float64 {
	for i := range x {
		x[i] = math.Min(math.Max(x[i], b[i][0]), b[i][1])
	}
	return x
}
