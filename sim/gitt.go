// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import "fmt"

const faraday = 96485.33212

// GITT is a linearised single particle model of the positive electrode,
// suited to galvanostatic intermittent titration. Lithium diffuses in a
// spherical particle discretised into equal-width shells:
//   - ∂𝑐/∂𝑡 = (1/𝑟²) ∂/∂𝑟 (𝑟²𝐷 ∂𝑐/∂𝑟)
//   - -𝐷 ∂𝑐/∂𝑟 |ᵣ₌ᵣ = -𝐼 / (𝐹 𝑎 𝐿 𝐴), 𝑎 = 3ε/𝑅
//   - 𝑉 = 𝑈 + 𝑈′ (𝑐ₛ - 𝑐₀)/𝑐ₘₐₓ - 𝑅ₑ𝐼
type GITT struct {
	Shells int // 10 when zero
}

func (GITT) Name() string { return "GITT model" }

func (GITT) Outputs() []string {
	return []string{
		"Voltage [V]",
		"Current [A]",
		"Discharge capacity [A.h]",
		"Positive particle surface concentration [mol.m-3]",
	}
}

func (GITT) Parameters() []string {
	return []string{
		"Positive electrode diffusivity [m2.s-1]",
		"Reference OCP [V]",
		"Derivative of the OCP wrt stoichiometry [V]",
		"Effective resistance [Ohm]",
		"Positive particle radius [m]",
		"Maximum concentration in positive electrode [mol.m-3]",
		"Initial concentration in positive electrode [mol.m-3]",
		"Positive electrode active material volume fraction",
		"Positive electrode thickness [m]",
		"Electrode area [m2]",
	}
}

// DefaultParameterValues returns a parameter set of an NMC positive electrode.
func (GITT) DefaultParameterValues() *ParameterValues {
	return NewParameterValues(map[string]float64{
		"Positive electrode diffusivity [m2.s-1]":               5e-14,
		"Reference OCP [V]":                                     4.2,
		"Derivative of the OCP wrt stoichiometry [V]":           -1,
		"Effective resistance [Ohm]":                            0.1,
		"Positive particle radius [m]":                          1e-5,
		"Maximum concentration in positive electrode [mol.m-3]": 51217.9257309275,
		"Initial concentration in positive electrode [mol.m-3]": 30730.7554385565,
		"Positive electrode active material volume fraction":    0.665,
		"Positive electrode thickness [m]":                      7.56e-5,
		"Electrode area [m2]":                                   0.1027,
		CurrentParameter:                                        5,
	})
}

func (g GITT) Prepare(v map[string]float64) (System, error) {
	n := g.Shells
	if n <= 0 {
		n = 10
	}
	s := &gittSystem{
		n:     n,
		d:     v["Positive electrode diffusivity [m2.s-1]"],
		u:     v["Reference OCP [V]"],
		du:    v["Derivative of the OCP wrt stoichiometry [V]"],
		res:   v["Effective resistance [Ohm]"],
		r:     v["Positive particle radius [m]"],
		cMax:  v["Maximum concentration in positive electrode [mol.m-3]"],
		cInit: v["Initial concentration in positive electrode [mol.m-3]"],
	}
	eps := v["Positive electrode active material volume fraction"]
	thick := v["Positive electrode thickness [m]"]
	area := v["Electrode area [m2]"]

	switch {
	case !(s.d > 0):
		return nil, fmt.Errorf("diffusivity must be positive, got %g", s.d)
	case !(s.r > 0) || !(s.cMax > 0):
		return nil, fmt.Errorf("particle radius and maximum concentration must be positive")
	case !(eps > 0) || !(thick > 0) || !(area > 0):
		return nil, fmt.Errorf("electrode geometry must be positive")
	}

	s.dr = s.r / float64(n)
	s.vol = make([]float64, n)
	for i := range s.vol {
		ri, ro := float64(i)*s.dr, float64(i+1)*s.dr
		s.vol[i] = (ro*ro*ro - ri*ri*ri) / 3
	}
	// surface molar flux per unit current
	s.fluxPerAmp = 1 / (faraday * (3 * eps / s.r) * thick * area)
	return s, nil
}

type gittSystem struct {
	n                int
	d, u, du, res, r float64
	cMax, cInit, dr  float64
	fluxPerAmp       float64
	vol              []float64
}

// state layout: shell concentrations from the centre outwards, then Q
func (s *gittSystem) Size() int { return s.n + 1 }

func (s *gittSystem) Init(y []float64) {
	for i := range s.n {
		y[i] = s.cInit
	}
	y[s.n] = 0
}

func (s *gittSystem) Derivative(_, current float64, y, dy []float64) {
	// outward flow through the sphere of radius r_k, 4π omitted
	flow := func(k int) float64 {
		if k == 0 {
			return 0
		}
		if k == s.n {
			return -current * s.fluxPerAmp * s.r * s.r
		}
		rk := float64(k) * s.dr
		return -s.d * (y[k] - y[k-1]) / s.dr * rk * rk
	}
	in := flow(0)
	for i := range s.n {
		out := flow(i + 1)
		dy[i] = (in - out) / s.vol[i]
		in = out
	}
	dy[s.n] = current / 3600
}

func (s *gittSystem) surface(current float64, y []float64) float64 {
	return y[s.n-1] + current*s.fluxPerAmp*(s.dr/2)/s.d
}

func (s *gittSystem) Output(_, current float64, y, out []float64) {
	cs := s.surface(current, y)
	out[0] = s.u + s.du*(cs-s.cInit)/s.cMax - s.res*current
	out[1] = current
	out[2] = y[s.n]
	out[3] = cs
}

func (s *gittSystem) MaxStep() float64 {
	return 0.2 * s.dr * s.dr / s.d
}
