// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package numdiff estimates derivatives by finite differences, keeping
// every evaluation point inside optional box bounds.
package numdiff

import (
	"errors"
	"math"
)

var (
	sqrtEps = math.Sqrt(math.Nextafter(1, 2) - 1)
	cubeEps = math.Cbrt(math.Nextafter(1, 2) - 1)
)

// Method selects the difference scheme.
type Method int

const (
	// Forward differences, first order accurate.
	Forward Method = iota
	// Central differences, second order accurate. Next to a bound the
	// three point one-sided formula is used instead.
	Central
)

// Bound is a [lower, upper] range. NaN or infinite ends are open.
type Bound [2]float64

// ApproxSpec describes the Jacobian estimate of Object, a map from an
// n-vector to an m-vector. The Jacobian is stored row-major, m rows of n.
//
// Step selection follows scipy.optimize._numdiff:
// https://github.com/scipy/scipy/blob/main/scipy/optimize/_numdiff.py
type ApproxSpec struct {
	N, M   int
	Object func(x, y []float64)
	Method Method
	// Evaluation points never leave these bounds.
	Bounds []Bound
	// Absolute step. Zero picks eps·max(1, |x|) with eps the square root
	// (Forward) or cube root (Central) of the machine epsilon.
	AbsStep float64
	// Skip checking that x0 lies inside Bounds.
	NotChkBnd bool

	f0, f1, f2 []float64
	x          []float64
	step       []float64
	oneSided   []bool
}

// Check validates the spec against x0 and the Jacobian buffer and
// allocates the scratch space.
func (as *ApproxSpec) Check(x0, jac []float64) error {
	switch {
	case as.N <= 0 || as.M <= 0:
		return errors.New("dimensions must be positive")
	case as.Method != Forward && as.Method != Central:
		return errors.New("unknown method")
	case as.Object == nil:
		return errors.New("object function is required")
	case len(x0) != as.N:
		return errors.New("invalid x0 dimensions")
	case len(jac) != as.N*as.M:
		return errors.New("invalid jacobian dimensions")
	case as.Bounds != nil && len(as.Bounds) != as.N:
		return errors.New("invalid bound dimension")
	}
	for i := range as.Bounds {
		lo, hi := as.limits(i)
		if lo > hi {
			return errors.New("invalid bound range")
		}
		if !as.NotChkBnd && (x0[i] < lo || x0[i] > hi) {
			return errors.New("x0 violates bound constraints")
		}
	}

	if len(as.f0) != as.M {
		as.f0 = make([]float64, as.M)
		as.f1 = make([]float64, as.M)
		as.f2 = make([]float64, as.M)
	}
	if len(as.x) != as.N {
		as.x = make([]float64, as.N)
		as.step = make([]float64, as.N)
		as.oneSided = make([]bool, as.N)
	}
	return nil
}

// limits returns the bounds of entry i with open ends as infinities.
func (as *ApproxSpec) limits(i int) (lo, hi float64) {
	lo, hi = math.Inf(-1), math.Inf(1)
	if as.Bounds == nil {
		return
	}
	if b := as.Bounds[i]; !math.IsNaN(b[0]) {
		lo = b[0]
	}
	if b := as.Bounds[i]; !math.IsNaN(b[1]) {
		hi = b[1]
	}
	return
}

// Diff stores the Jacobian of Object at x0 in jac. x0 is not modified.
func (as *ApproxSpec) Diff(x0, jac []float64) error {
	if err := as.Check(x0, jac); err != nil {
		return err
	}
	as.chooseSteps(x0)
	copy(as.x, x0)
	as.Object(as.x, as.f0)

	n := as.N
	for i, h := range as.step {
		v := x0[i]
		switch {
		case as.Method == Forward:
			as.x[i] = v + h
			as.Object(as.x, as.f1)
			for j, f := range as.f0 {
				jac[j*n+i] = (as.f1[j] - f) / h
			}
		case as.oneSided[i]:
			as.x[i] = v + h
			as.Object(as.x, as.f1)
			as.x[i] = v + 2*h
			as.Object(as.x, as.f2)
			for j, f := range as.f0 {
				jac[j*n+i] = (4*as.f1[j] - 3*f - as.f2[j]) / (2 * h)
			}
		default:
			as.x[i] = v - h
			as.Object(as.x, as.f1)
			as.x[i] = v + h
			as.Object(as.x, as.f2)
			for j := range as.f0 {
				jac[j*n+i] = (as.f2[j] - as.f1[j]) / (2 * h)
			}
		}
		as.x[i] = v
	}
	return nil
}

// chooseSteps picks the step of every entry and flips or shrinks it so
// that the probed points stay inside the bounds.
func (as *ApproxSpec) chooseSteps(x0 []float64) {
	eps := sqrtEps
	if as.Method == Central {
		eps = cubeEps
	}
	for i, v := range x0 {
		h := as.AbsStep
		if h == 0 || (v+h)-v == 0 {
			h = math.Copysign(eps, v) * math.Max(1, math.Abs(v))
		}
		lo, hi := as.limits(i)
		below, above := v-lo, hi-v

		if as.Method == Forward {
			switch {
			case math.Abs(h) >= math.Max(below, above):
				// the range is narrower than the step: use all of it
				if above >= below {
					h = above
				} else {
					h = -below
				}
			case v+h < lo || v+h > hi:
				h = -h
			}
			as.step[i], as.oneSided[i] = h, false
			continue
		}

		h = math.Abs(h)
		oneSided := false
		if below < h || above < h {
			oneSided = true
			if above >= below {
				h = math.Min(h, 0.5*above)
			} else {
				h = -math.Min(h, 0.5*below)
			}
			if d := math.Min(above, below); math.Abs(h) <= d {
				h, oneSided = d, false
			}
		}
		as.step[i], as.oneSided[i] = h, oneSided
	}
}
