// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slsqp

import (
	"testing"
)

// rosenbrock evaluates the Rosenbrock function, or its gradient when g is given.
func rosenbrock(x, g []float64) float64 {
	a, b := 1-x[0], x[1]-x[0]*x[0]
	if g != nil {
		g[0] = -2*a - 400*b*x[0]
		g[1] = 200 * b
		return 0
	}
	return a*a + 100*b*b
}

// insideDisc is non-negative on the unit disc.
func insideDisc(x, g []float64) float64 {
	if g != nil {
		g[0], g[1] = -2*x[0], -2*x[1]
		return 0
	}
	return 1 - x[0]*x[0] - x[1]*x[1]
}

func TestRosenbrockOnDisc(t *testing.T) {

	p := Problem{
		N:       2,
		Object:  rosenbrock,
		NeqCons: []Evaluation{insideDisc},
		Bounds:  []Bound{{-1, 1}, {-1, 1}},
		Stop:    Termination{Accuracy: 1e-8, MaxIterations: 50},
	}
	s, err := p.New()
	if err != nil {
		t.Fatal(err)
	}
	r := s.Fit([]float64{0.1, 0.1}, s.Init())

	switch {
	case !r.OK:
		t.Fatalf("TestRosenbrockOnDisc: Not Converge (%v)", r.Status)
	case !almostEqual(r.X, []float64{0.7864151509718389, 0.6176983165954114}, 1e-6):
		t.Fatalf("TestRosenbrockOnDisc: Bad Solution %v", r.X)
	case !almostEqual(r.F, 0.0456748087191604, 1e-7):
		t.Fatalf("TestRosenbrockOnDisc: Bad Object %v", r.F)
	case !almostEqual(insideDisc(r.X, nil), 0, 1e-6):
		t.Fatalf("TestRosenbrockOnDisc: constraint not active %v", insideDisc(r.X, nil))
	}

}

func TestEqualityConstrained(t *testing.T) {

	// min x² + y² + z subject to xy = z and z ≥ 1
	obj := func(x, g []float64) float64 {
		if g != nil {
			g[0], g[1], g[2] = 2*x[0], 2*x[1], 1
			return 0
		}
		return x[0]*x[0] + x[1]*x[1] + x[2]
	}
	eq := func(x, g []float64) float64 {
		if g != nil {
			g[0], g[1], g[2] = x[1], x[0], -1
			return 0
		}
		return x[0]*x[1] - x[2]
	}
	ge := func(x, g []float64) float64 {
		if g != nil {
			g[0], g[1], g[2] = 0, 0, 1
			return 0
		}
		return x[2] - 1
	}

	for _, exact := range []bool{false, true} {
		p := Problem{
			N:       3,
			Object:  obj,
			EqCons:  []Evaluation{eq},
			NeqCons: []Evaluation{ge},
			Bounds:  []Bound{{-10, 10}, {-10, 10}, {-10, 10}},
			Line:    LineSearch{Alpha: &Bound{Lower: 0.1, Upper: 0.5}, Exact: exact},
			Stop:    Termination{Accuracy: 1e-7, MaxIterations: 50},
		}
		s, err := p.New()
		if err != nil {
			t.Fatal(err)
		}
		r := s.Fit([]float64{1, 2, 3}, s.Init())
		if !r.OK || !almostEqual(r.X, []float64{1, 1, 1}, 1e-6) || !almostEqual(r.F, 3, 1e-6) {
			t.Fatalf("exact line search %v: got %v f=%v (%v)", exact, r.X, r.F, r.Status)
		}
	}

}
