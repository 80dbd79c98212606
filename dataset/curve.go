// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"github.com/curioloop/paramfit/param"
)

// Curve is a sampled y(x) trace, such as an open circuit potential
// against capacity. Samples keep their acquisition order.
type Curve struct {
	X, Y []float64
}

// NewCurve validates and copies the samples.
func NewCurve(x, y []float64) (Curve, error) {
	switch {
	case len(x) != len(y):
		return Curve{}, fmt.Errorf("%w: curve has %d x and %d y samples", param.ErrConfiguration, len(x), len(y))
	case len(x) < 2:
		return Curve{}, fmt.Errorf("%w: curve needs at least 2 samples", param.ErrConfiguration)
	}
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			return Curve{}, fmt.Errorf("%w: curve sample %d is NaN", param.ErrConfiguration, i)
		}
	}
	return Curve{X: slices.Clone(x), Y: slices.Clone(y)}, nil
}

// Len returns the number of samples.
func (c Curve) Len() int { return len(c.X) }

// ArgMaxY returns the sample index of the largest y.
func (c Curve) ArgMaxY() int { return floats.MaxIdx(c.Y) }

// ArgMinY returns the sample index of the smallest y.
func (c Curve) ArgMinY() int { return floats.MinIdx(c.Y) }

// SplitBranches splits a round-trip trace at its largest x. The sample
// at the turning point belongs to both branches.
func (c Curve) SplitBranches() (charge, discharge Curve) {
	k := floats.MaxIdx(c.X)
	charge = Curve{X: slices.Clone(c.X[:k+1]), Y: slices.Clone(c.Y[:k+1])}
	discharge = Curve{X: slices.Clone(c.X[k:]), Y: slices.Clone(c.Y[k:])}
	return
}

// Interpolant resamples a curve anywhere on the real line: linear
// interpolation inside the sampled range, linear extrapolation of the
// end segments outside it.
type Interpolant struct {
	pl     interp.PiecewiseLinear
	xs, ys []float64
}

// Interpolant sorts the samples by x, drops repeated x values (keeping the
// first) and fits a piecewise linear interpolant.
func (c Curve) Interpolant() (*Interpolant, error) {
	idx := make([]int, len(c.X))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return c.X[idx[a]] < c.X[idx[b]] })

	xs := make([]float64, 0, len(idx))
	ys := make([]float64, 0, len(idx))
	for _, i := range idx {
		if n := len(xs); n > 0 && c.X[i] == xs[n-1] {
			continue
		}
		xs = append(xs, c.X[i])
		ys = append(ys, c.Y[i])
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("%w: curve needs at least 2 distinct x values", param.ErrConfiguration)
	}

	ip := &Interpolant{xs: xs, ys: ys}
	if err := ip.pl.Fit(xs, ys); err != nil {
		return nil, err
	}
	return ip, nil
}

// At evaluates the interpolant at x.
func (ip *Interpolant) At(x float64) float64 {
	n := len(ip.xs)
	switch {
	case math.IsNaN(x):
		return math.NaN()
	case x < ip.xs[0]:
		return extrapolate(ip.xs[0], ip.ys[0], ip.xs[1], ip.ys[1], x)
	case x > ip.xs[n-1]:
		return extrapolate(ip.xs[n-2], ip.ys[n-2], ip.xs[n-1], ip.ys[n-1], x)
	}
	return ip.pl.Predict(x)
}

// AtAll evaluates the interpolant at every x.
func (ip *Interpolant) AtAll(xs []float64) []float64 {
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = ip.At(x)
	}
	return ys
}

// Domain returns the sampled x range.
func (ip *Interpolant) Domain() (lo, hi float64) {
	return ip.xs[0], ip.xs[len(ip.xs)-1]
}

func extrapolate(x0, y0, x1, y1, x float64) float64 {
	return y0 + (y1-y0)*(x-x0)/(x1-x0)
}
