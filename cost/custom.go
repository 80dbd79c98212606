// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cost

import "github.com/curioloop/paramfit/param"

// Custom adapts a plain function to the Function interface.
type Custom struct {
	Label string
	Func  func(sim, data, weights [][]float64, extra []float64) float64
	// Extra builds additional decision entries for the given variables.
	Extra func(variables []string) param.Spec
}

func (c Custom) Name() string {
	if c.Label == "" {
		return "Custom cost function"
	}
	return c.Label
}

func (c Custom) Evaluate(sim, data, weights [][]float64, extra []float64) float64 {
	return c.Func(sim, data, weights, extra)
}

func (c Custom) Parameters(variables []string) param.Spec {
	if c.Extra == nil {
		return nil
	}
	spec := c.Extra(variables)
	for i := range spec {
		spec[i].Source = param.SourceCost
	}
	return spec
}

// SumSquares is a plain sum of squared residuals, NaN terms dropped.
var SumSquares = Custom{
	Label: "Sum of Squares",
	Func: func(sim, data, _ [][]float64, _ []float64) float64 {
		var s float64
		for i := range data {
			for j := range data[i] {
				if d := sim[i][j] - data[i][j]; d == d {
					s += d * d
				}
			}
		}
		return s
	},
}
