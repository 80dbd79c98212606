// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package numdiff

import "errors"

// Gradient estimates the gradient of a scalar function.
// It keeps the approximation context between calls, so one Gradient
// must not be shared between goroutines.
type Gradient struct {
	Method Method
	Bounds []Bound
	spec   ApproxSpec
	f      func(x []float64) float64
}

// NewGradient creates a gradient estimator of f over n variables.
// Evaluation points are kept inside bounds when they are given.
func NewGradient(n int, f func(x []float64) float64, method Method, bounds []Bound) (*Gradient, error) {
	if f == nil {
		return nil, errors.New("object function is required")
	}
	g := &Gradient{Method: method, Bounds: bounds, f: f}
	g.spec = ApproxSpec{
		N: n, M: 1,
		Method:    method,
		Bounds:    bounds,
		NotChkBnd: true,
		Object: func(x, y []float64) {
			y[0] = g.f(x)
		},
	}
	return g, nil
}

// At stores ∇f(x) in grad.
func (g *Gradient) At(x, grad []float64) error {
	return g.spec.Diff(x, grad)
}
