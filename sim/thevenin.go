// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import "fmt"

// Thevenin is a first order equivalent circuit model with a lumped
// thermal balance:
//   - d𝑧/d𝑡 = -𝐼 / (3600 𝑄ₙ)
//   - d𝑣₁/d𝑡 = 𝐼/𝐶₁ - 𝑣₁/(𝑅₁𝐶₁)
//   - 𝑚 d𝑇/d𝑡 = 𝐼²𝑅₀ + 𝑣₁²/𝑅₁ - 𝒉(𝑇 - 𝑇ₐ)
//   - 𝑉 = 𝑈(𝑧) - 𝐼𝑅₀ - 𝑣₁, with 𝑈 linear in 𝑧
type Thevenin struct{}

func (Thevenin) Name() string { return "Thevenin equivalent circuit model" }

func (Thevenin) Outputs() []string {
	return []string{"Voltage [V]", "Current [A]", "Temperature [K]", "Discharge capacity [A.h]", "State of charge"}
}

func (Thevenin) Parameters() []string {
	return []string{
		"Nominal cell capacity [A.h]",
		"Initial SoC",
		"Open-circuit voltage at 0% SoC [V]",
		"Open-circuit voltage at 100% SoC [V]",
		"R0 [Ohm]",
		"R1 [Ohm]",
		"C1 [F]",
		"Ambient temperature [K]",
		"Initial temperature [K]",
		"Cell thermal mass [J/K]",
		"Cell-jig heat transfer coefficient [W/K]",
	}
}

// DefaultParameterValues returns a parameter set of a 5 A.h cell.
func (Thevenin) DefaultParameterValues() *ParameterValues {
	return NewParameterValues(map[string]float64{
		"Nominal cell capacity [A.h]":              5,
		"Initial SoC":                              1,
		"Open-circuit voltage at 0% SoC [V]":       3.0,
		"Open-circuit voltage at 100% SoC [V]":     4.2,
		"R0 [Ohm]":                                 0.01,
		"R1 [Ohm]":                                 0.015,
		"C1 [F]":                                   3000,
		"Ambient temperature [K]":                  298.15,
		"Initial temperature [K]":                  298.15,
		"Cell thermal mass [J/K]":                  1000,
		"Cell-jig heat transfer coefficient [W/K]": 10,
		CurrentParameter:                           1,
	})
}

func (Thevenin) Prepare(v map[string]float64) (System, error) {
	s := &theveninSystem{
		capacity: v["Nominal cell capacity [A.h]"],
		soc0:     v["Initial SoC"],
		u0:       v["Open-circuit voltage at 0% SoC [V]"],
		u1:       v["Open-circuit voltage at 100% SoC [V]"],
		r0:       v["R0 [Ohm]"],
		r1:       v["R1 [Ohm]"],
		c1:       v["C1 [F]"],
		tAmb:     v["Ambient temperature [K]"],
		t0:       v["Initial temperature [K]"],
		mass:     v["Cell thermal mass [J/K]"],
		h:        v["Cell-jig heat transfer coefficient [W/K]"],
	}
	switch {
	case !(s.capacity > 0):
		return nil, fmt.Errorf("cell capacity must be positive, got %g", s.capacity)
	case !(s.r1 > 0) || !(s.c1 > 0):
		return nil, fmt.Errorf("RC pair must be positive, got R1=%g C1=%g", s.r1, s.c1)
	case !(s.mass > 0):
		return nil, fmt.Errorf("thermal mass must be positive, got %g", s.mass)
	}
	return s, nil
}

type theveninSystem struct {
	capacity, soc0, u0, u1 float64
	r0, r1, c1             float64
	tAmb, t0, mass, h      float64
}

// state layout: soc, v1, T, Q
func (s *theveninSystem) Size() int { return 4 }

func (s *theveninSystem) Init(y []float64) {
	y[0], y[1], y[2], y[3] = s.soc0, 0, s.t0, 0
}

func (s *theveninSystem) Derivative(_, i float64, y, dy []float64) {
	v1, temp := y[1], y[2]
	dy[0] = -i / (3600 * s.capacity)
	dy[1] = i/s.c1 - v1/(s.r1*s.c1)
	dy[2] = (i*i*s.r0 + v1*v1/s.r1 - s.h*(temp-s.tAmb)) / s.mass
	dy[3] = i / 3600
}

func (s *theveninSystem) Output(_, i float64, y, out []float64) {
	ocv := s.u0 + (s.u1-s.u0)*y[0]
	out[0] = ocv - i*s.r0 - y[1]
	out[1] = i
	out[2] = y[2]
	out[3] = y[3]
	out[4] = y[0]
}

func (s *theveninSystem) MaxStep() float64 {
	tau := s.r1 * s.c1
	if s.h > 0 {
		tau = min(tau, s.mass/s.h)
	}
	return tau / 2
}
