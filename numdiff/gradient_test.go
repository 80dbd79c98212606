// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package numdiff

import (
	"math"
	"testing"
)

func TestGradient(t *testing.T) {

	f := func(x []float64) float64 {
		return (x[0]-1)*(x[0]-1) + 3*x[1]*x[1] + math.Sin(x[0]*x[1])
	}
	df := func(x []float64) []float64 {
		c := math.Cos(x[0] * x[1])
		return []float64{2*(x[0]-1) + x[1]*c, 6*x[1] + x[0]*c}
	}

	for _, m := range []Method{Forward, Central} {
		g, err := NewGradient(2, f, m, nil)
		if err != nil {
			t.Fatal(err)
		}
		x := []float64{0.3, -0.7}
		grad := make([]float64, 2)
		if err = g.At(x, grad); err != nil {
			t.Fatal(err)
		}
		if !relativeEqual(grad, df(x), 1e-5) {
			t.Fatalf("unexpected gradient %v", grad)
		}
		if x[0] != 0.3 || x[1] != -0.7 {
			t.Fatal("evaluation point was modified")
		}
	}

}

func TestGradientBound(t *testing.T) {

	var outside bool
	bounds := []Bound{{0, 1}}
	f := func(x []float64) float64 {
		if x[0] < 0 || x[0] > 1 {
			outside = true
		}
		return x[0] * x[0]
	}

	for _, m := range []Method{Forward, Central} {
		g, err := NewGradient(1, f, m, bounds)
		if err != nil {
			t.Fatal(err)
		}
		grad := make([]float64, 1)
		if err = g.At([]float64{1}, grad); err != nil {
			t.Fatal(err)
		}
		if outside {
			t.Fatal("evaluated outside bounds")
		}
		if !relativeEqual(grad[0], 2.0, 1e-4) {
			t.Fatalf("unexpected gradient %v", grad)
		}
	}

	if _, err := NewGradient(1, nil, Forward, nil); err == nil {
		t.Fatal("expect error for missing function")
	}

}
