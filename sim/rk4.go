// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"context"
	"math"
)

// rk4 is a classic fixed-step fourth order Runge-Kutta integrator.
//   - 𝒌₁ = 𝒇(𝑡, 𝐲)
//   - 𝒌₂ = 𝒇(𝑡 + 𝒉/2, 𝐲 + 𝒉𝒌₁/2)
//   - 𝒌₃ = 𝒇(𝑡 + 𝒉/2, 𝐲 + 𝒉𝒌₂/2)
//   - 𝒌₄ = 𝒇(𝑡 + 𝒉, 𝐲 + 𝒉𝒌₃)
//   - 𝐲 ← 𝐲 + 𝒉(𝒌₁ + 2𝒌₂ + 2𝒌₃ + 𝒌₄)/6
type rk4 struct {
	k1, k2, k3, k4, tmp []float64
	steps               int
}

func newRK4(n int) *rk4 {
	buf := make([]float64, 5*n)
	return &rk4{
		k1: buf[0*n : 1*n], k2: buf[1*n : 2*n], k3: buf[2*n : 3*n],
		k4: buf[3*n : 4*n], tmp: buf[4*n : 5*n],
	}
}

func (r *rk4) step(f func(t float64, y, dy []float64), t, h float64, y []float64) {
	f(t, y, r.k1)
	for i := range y {
		r.tmp[i] = y[i] + 0.5*h*r.k1[i]
	}
	f(t+0.5*h, r.tmp, r.k2)
	for i := range y {
		r.tmp[i] = y[i] + 0.5*h*r.k2[i]
	}
	f(t+0.5*h, r.tmp, r.k3)
	for i := range y {
		r.tmp[i] = y[i] + h*r.k3[i]
	}
	f(t+h, r.tmp, r.k4)
	for i := range y {
		y[i] += h * (r.k1[i] + 2*r.k2[i] + 2*r.k3[i] + r.k4[i]) / 6
	}
	r.steps++
}

// segment is a constant-current interval of the integration.
type segment struct {
	current, duration float64
}

// integrate advances sys over the segments, recording outputs after every
// step. The context is polled every checkEvery steps.
func integrate(ctx context.Context, sys System, outputs []string, t0, maxStep float64, segs []segment) ([]float64, map[string][]float64, error) {
	const checkEvery = 256

	y := make([]float64, sys.Size())
	sys.Init(y)
	out := make([]float64, len(outputs))
	values := make(map[string][]float64, len(outputs))
	var time []float64

	record := func(t, current float64) {
		sys.Output(t, current, y, out)
		time = append(time, t)
		for i, name := range outputs {
			values[name] = append(values[name], out[i])
		}
	}

	first := 0.0
	if len(segs) > 0 {
		first = segs[0].current
	}
	t := t0
	record(t, first)

	r := newRK4(len(y))
	for _, sg := range segs {
		n := int(math.Ceil(sg.duration / maxStep))
		h := sg.duration / float64(n)
		cur := sg.current
		f := func(t float64, y, dy []float64) { sys.Derivative(t, cur, y, dy) }
		start := t
		for k := 1; k <= n; k++ {
			if r.steps%checkEvery == 0 {
				if err := ctx.Err(); err != nil {
					return nil, nil, err
				}
			}
			r.step(f, t, h, y)
			t = start + float64(k)*h
			record(t, cur)
		}
	}

	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, nil, errSolverDiverged{state: i, time: t}
		}
	}
	return time, values, nil
}
