// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cost

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/curioloop/paramfit/param"
)

// RMSE is the root mean square of the mean-normalised residual, summed
// over variables:
//   - 𝒆ⱼ = (𝒚ˢⁱᵐⱼ - 𝒚ᵈᵃᵗᵃⱼ) · 𝒘ⱼ / mean(𝒚ᵈᵃᵗᵃ)
//   - 𝑪 = ∑ᵥ √(mean(𝒆²))
//
// Residuals that are NaN (a simulation sampled outside its solved range)
// are dropped before reducing. A variable without any finite residual
// yields NaN.
type RMSE struct{}

func (RMSE) Name() string { return "Root Mean Square Error" }

func (RMSE) Parameters([]string) param.Spec { return nil }

func (RMSE) Evaluate(sim, data, weights [][]float64, _ []float64) float64 {
	var total float64
	for i := range data {
		y, s := data[i], sim[i]
		mean := stat.Mean(y, nil)
		var sum float64
		var n int
		for j := range y {
			e := (s[j] - y[j]) * weightAt(weights, i, j) / mean
			if math.IsNaN(e) {
				continue
			}
			sum += e * e
			n++
		}
		if n == 0 {
			return math.NaN()
		}
		total += math.Sqrt(sum / float64(n))
	}
	return total
}
