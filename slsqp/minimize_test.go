// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slsqp

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestMinimizeBounded(t *testing.T) {

	f := func(x []float64) float64 {
		return (x[0]-3)*(x[0]-3) + (x[1]+1)*(x[1]+1)
	}

	bounds := []Bound{{-2, 2}, {-2, 2}}
	r, err := Minimize(context.Background(), f, []float64{0, 0}, bounds, Termination{Accuracy: 1e-10, MaxIterations: 100}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}

	switch {
	case !r.OK:
		t.Fatalf("TestMinimizeBounded: Not Converge (%v)", r.Status)
	case !almostEqual(r.X, []float64{2, -1}, 1e-5):
		t.Fatalf("TestMinimizeBounded: Bad Solution %v", r.X)
	case !almostEqual(r.F, 1.0, 1e-6):
		t.Fatalf("TestMinimizeBounded: Bad Object %v", r.F)
	}

}

func TestMinimizeBox(t *testing.T) {

	shifted := func(c ...float64) func(x []float64) float64 {
		return func(x []float64) float64 {
			var f float64
			for i, v := range x {
				f += (v - c[i]) * (v - c[i])
			}
			return f
		}
	}
	rosen := func(x []float64) float64 {
		a, b := 1-x[0], x[1]-x[0]*x[0]
		return a*a + 100*b*b
	}
	free := math.NaN()

	cases := []struct {
		name   string
		f      func(x []float64) float64
		x0     []float64
		bounds []Bound
		wantX  []float64
		wantF  float64
		tol    float64
	}{
		{"upper active", shifted(1), []float64{-0.5}, []Bound{{-1, 0}}, []float64{0}, 1, 1e-6},
		{"lower only", shifted(1), []float64{5}, []Bound{{2, free}}, []float64{2}, 1, 1e-6},
		{"upper only", shifted(1), []float64{-3}, []Bound{{free, 0}}, []float64{0}, 1, 1e-6},
		{"mixed", shifted(-3, 0.5, 4), []float64{0, 0, 0},
			[]Bound{{-1, 1}, {-1, 1}, {free, free}}, []float64{-1, 0.5, 4}, 4, 1e-5},
		{"rosenbrock corner", rosen, []float64{-1.2, 1},
			[]Bound{{-2, 0.5}, {-1, 2}}, []float64{0.5, 0.25}, 0.25, 1e-4},
	}

	for _, c := range cases {
		var outside bool
		f := func(x []float64) float64 {
			for i, b := range c.bounds {
				if x[i] < b.Lower || x[i] > b.Upper {
					outside = true
				}
			}
			return c.f(x)
		}
		r, err := Minimize(context.Background(), f, c.x0, c.bounds,
			Termination{Accuracy: 1e-8, MaxIterations: 200}, zaptest.NewLogger(t))
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		switch {
		case !r.OK:
			t.Fatalf("%s: Not Converge (%v)", c.name, r.Status)
		case outside:
			t.Fatalf("%s: evaluated outside bounds", c.name)
		case !almostEqual(r.X, c.wantX, c.tol):
			t.Fatalf("%s: Bad Solution %v", c.name, r.X)
		case !almostEqual(r.F, c.wantF, c.tol):
			t.Fatalf("%s: Bad Object %v", c.name, r.F)
		}
	}

}

func TestMinimizeCancel(t *testing.T) {

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	f := func(x []float64) float64 {
		calls++
		if calls == 5 {
			cancel()
		}
		return math.Exp(x[0]) + x[0]*x[0]
	}

	r, err := Minimize(ctx, f, []float64{1}, nil, Termination{}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("TestMinimizeCancel: unexpected error %v", err)
	}
	if r == nil || r.Status != BadArgument {
		t.Fatal("TestMinimizeCancel: expect aborted status")
	}

}

func TestModeString(t *testing.T) {
	if OK.String() != "Optimization terminated successfully" {
		t.Fatal("unexpected message")
	}
	if SQPExceedMaxIter.String() != "Iteration limit reached" {
		t.Fatal("unexpected message")
	}
	if sqpMode(42).String() != "sqpMode(42)" {
		t.Fatal("unexpected message")
	}
}

func TestInvalidProblem(t *testing.T) {
	p := Problem{N: 2, Stop: Termination{Accuracy: 1e-6, MaxIterations: 10}}
	if _, err := p.New(); !errors.Is(err, ErrInvalidProblem) {
		t.Fatalf("TestInvalidProblem: missing objective accepted (%v)", err)
	}
	p.Object = func(x, g []float64) float64 { return 0 }
	p.Bounds = []Bound{{1, 0}, {0, 1}}
	if _, err := p.New(); !errors.Is(err, ErrInvalidProblem) {
		t.Fatalf("TestInvalidProblem: crossed bound accepted (%v)", err)
	}
}
