// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package param

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Bound represents the closed interval [Lower, Upper] of a decision entry.
type Bound struct {
	Lower, Upper float64
}

// Contains reports whether v lies inside the bound.
func (b Bound) Contains(v float64) bool {
	return v >= b.Lower && v <= b.Upper
}

// Width returns Upper - Lower.
func (b Bound) Width() float64 {
	return b.Upper - b.Lower
}

// Finite reports whether both ends are finite numbers.
func (b Bound) Finite() bool {
	return !math.IsInf(b.Lower, 0) && !math.IsInf(b.Upper, 0) &&
		!math.IsNaN(b.Lower) && !math.IsNaN(b.Upper)
}

// Clip projects v onto the bound.
func (b Bound) Clip(v float64) float64 {
	return Clip(v, b.Lower, b.Upper)
}

// Clip projects v onto [lo, hi].
func Clip[T constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClipAll projects every entry of x onto its bound in place.
func ClipAll(x []float64, bounds []Bound) {
	for i, b := range bounds {
		x[i] = b.Clip(x[i])
	}
}
