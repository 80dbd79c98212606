// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package numdiff

import (
	"math"
	"reflect"
	"testing"
)

// polar maps (r, θ) to (r cos θ, r sin θ, r²).
func polar(x, y []float64) {
	y[0] = x[0] * math.Cos(x[1])
	y[1] = x[0] * math.Sin(x[1])
	y[2] = x[0] * x[0]
}

func polarJac(x []float64) []float64 {
	c, s := math.Cos(x[1]), math.Sin(x[1])
	return []float64{
		c, -x[0] * s,
		s, x[0] * c,
		2 * x[0], 0,
	}
}

func TestDiffJacobian(t *testing.T) {

	x0 := []float64{2, 0.4}
	want := polarJac(x0)

	cases := []struct {
		method Method
		step   float64
		tol    float64
	}{
		{Forward, 0, 1e-6},
		{Central, 0, 1e-9},
		{Forward, 1e-7, 1e-6},
		{Central, 1e-5, 1e-8},
	}
	for _, c := range cases {
		as := ApproxSpec{N: 2, M: 3, Method: c.method, Object: polar, AbsStep: c.step}
		got := make([]float64, 6)
		if err := as.Diff(x0, got); err != nil {
			t.Fatal(err)
		}
		for i := range got {
			if math.Abs(got[i]-want[i]) > c.tol*math.Max(1, math.Abs(want[i])) {
				t.Fatalf("method %d step %g: entry %d = %g, want %g", c.method, c.step, i, got[i], want[i])
			}
		}
	}

}

func TestDiffOneSidedAtBound(t *testing.T) {

	bounds := []Bound{{0, 1}, {math.Inf(-1), math.Inf(1)}}
	obj := func(x, y []float64) {
		if x[0] > 1 {
			y[0] = math.NaN()
			return
		}
		y[0] = math.Exp(x[0]) + x[1]*x[1]
	}
	for _, m := range []Method{Forward, Central} {
		as := ApproxSpec{N: 2, M: 1, Method: m, Object: obj, Bounds: bounds}
		got := make([]float64, 2)
		if err := as.Diff([]float64{1, 3}, got); err != nil {
			t.Fatal(err)
		}
		if !relativeEqual(got, []float64{math.E, 6}, 1e-5) {
			t.Fatalf("method %d: unexpected derivative %v", m, got)
		}
	}

}

func TestDiffCheck(t *testing.T) {

	obj := func(x, y []float64) { y[0] = x[0] }
	cases := map[string]ApproxSpec{
		"dimension":   {N: 0, M: 1, Object: obj},
		"method":      {N: 1, M: 1, Method: Method(7), Object: obj},
		"function":    {N: 1, M: 1},
		"bound order": {N: 1, M: 1, Object: obj, Bounds: []Bound{{1, 0}}},
		"outside":     {N: 1, M: 1, Object: obj, Bounds: []Bound{{1, 2}}},
	}
	for name, as := range cases {
		if err := as.Diff([]float64{0}, make([]float64, 1)); err == nil {
			t.Fatalf("%s: invalid spec accepted", name)
		}
	}

}

func relativeEqual[T float64 | []float64](a, b T, tol float64) bool {
	equalWithinRel := func(a, b float64) bool {
		if a == b {
			return true
		}
		delta := math.Abs(a - b)
		return delta/math.Max(math.Abs(a), math.Abs(b)) <= tol
	}
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Float64:
		return equalWithinRel(any(a).(float64), any(b).(float64))
	case reflect.Slice:
		a, b := any(a).([]float64), any(b).([]float64)
		if len(a) != len(b) {
			return false
		}
		for i, a := range a {
			if !equalWithinRel(a, b[i]) {
				return false
			}
		}
		return true
	default:
		panic("unknown type")
	}
}
