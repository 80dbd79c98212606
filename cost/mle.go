// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cost

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/curioloop/paramfit/param"
)

// Bounds and initial guess of the noise scale introduced per variable.
const (
	sdGuess = 1
	sdLower = 1e-16
	sdUpper = 1e3
)

// MLE is the negative log-likelihood of the data under Gaussian noise
// centred on the simulation:
//   - 𝑪 = -∑ᵥ ∑ⱼ log 𝒩(𝒚ᵈᵃᵗᵃⱼ; 𝒚ˢⁱᵐⱼ, σᵥ)
//
// Each fitted variable v contributes one extra decision entry σᵥ.
// Weights are not part of the likelihood and are ignored.
type MLE struct{}

func (MLE) Name() string { return "Maximum Likelihood Estimation" }

// Parameters returns one standard deviation entry per variable.
func (MLE) Parameters(variables []string) param.Spec {
	spec := make(param.Spec, len(variables))
	for i, v := range variables {
		spec[i] = param.Entry{
			Key:    param.Name(StandardDeviationName(v)),
			Guess:  sdGuess,
			Bounds: param.Bound{Lower: sdLower, Upper: sdUpper},
			Source: param.SourceCost,
		}
	}
	return spec
}

func (MLE) Evaluate(sim, data, _ [][]float64, extra []float64) float64 {
	if len(extra) < len(data) {
		return math.NaN()
	}
	var nll float64
	var n int
	for i := range data {
		normal := distuv.Normal{Sigma: extra[i]}
		for j, y := range data[i] {
			normal.Mu = sim[i][j]
			lp := normal.LogProb(y)
			if math.IsNaN(lp) {
				continue
			}
			nll -= lp
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return nll
}

// StandardDeviationName is the parameter name of the noise scale of a variable.
func StandardDeviationName(variable string) string {
	return "Standard deviation " + variable
}
