// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package problem

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/curioloop/paramfit/cost"
	"github.com/curioloop/paramfit/dataset"
	"github.com/curioloop/paramfit/logging"
	"github.com/curioloop/paramfit/param"
)

// Names of the two alignment parameters.
const (
	OffsetParameter = "Offset a"
	ScaleParameter  = "Scale b"
)

// ocpTolerance widens the initial equations into bounds.
const ocpTolerance = 0.1

// OCPBalance aligns measured open circuit potential curves onto reference
// curves through an affine map of the capacity axis:
//   - 𝑪(𝑎, 𝑏) = ∑ₖ cost(refₖ(𝑎 + 𝑏·fitₖ.𝑥), fitₖ.𝑦)
//
// Fit curves are supplied pre-split into monotonic branches; Fit[k] is
// compared with Reference[k].
type OCPBalance struct {
	Fit       []dataset.Curve
	Reference []dataset.Curve
	Cost      cost.Function // RMSE when nil
	Logger    *zap.Logger
}

// OCPProblem is a validated OCPBalance.
type OCPProblem struct {
	spec   OCPBalance
	pmap   *param.Map
	refs   []*dataset.Interpolant
	data   [][]float64
	names  []string
	logger *zap.Logger
}

// New derives the initial guess and bounds in closed form.
//
// Let 𝑄ᵥ₊ and 𝑄ᵥ₋ be the fit capacities where the fit voltage is largest
// and smallest over all fit curves, and 𝑡₊, 𝑡₋ the reference capacities
// at the reference voltage extremes. The guess solves
//   - 𝑎 + 𝑏𝑄ᵥ₊ = 𝑡₊
//   - 𝑎 + 𝑏𝑄ᵥ₋ = 𝑡₋
//
// and the bounds widen both equations by 10%.
func (o OCPBalance) New() (*OCPProblem, error) {
	switch {
	case len(o.Fit) == 0:
		return nil, fmt.Errorf("%w: no curve to fit", param.ErrConfiguration)
	case len(o.Fit) != len(o.Reference):
		return nil, fmt.Errorf("%w: %d fit curves but %d reference curves",
			param.ErrConfiguration, len(o.Fit), len(o.Reference))
	}
	if o.Cost == nil {
		o.Cost = cost.RMSE{}
	}
	o.Logger = logging.OrNop(o.Logger)

	p := &OCPProblem{
		spec:   o,
		refs:   make([]*dataset.Interpolant, len(o.Reference)),
		data:   make([][]float64, len(o.Fit)),
		names:  make([]string, len(o.Fit)),
		logger: o.Logger,
	}
	for k, ref := range o.Reference {
		ip, err := ref.Interpolant()
		if err != nil {
			return nil, fmt.Errorf("reference curve %d: %w", k, err)
		}
		p.refs[k] = ip
		p.data[k] = append([]float64(nil), o.Fit[k].Y...)
		p.names[k] = "Curve " + strconv.Itoa(k)
	}

	qMax, qMin := extremes(o.Fit)
	tMax, tMin := extremes(o.Reference)
	if qMax == qMin {
		return nil, fmt.Errorf("%w: fit voltage extremes share the capacity %g", param.ErrConfiguration, qMax)
	}

	b0 := (tMax - tMin) / (qMax - qMin)
	a0 := tMax - b0*qMax

	bb := param.Bound{Lower: b0 * (1 - ocpTolerance), Upper: b0 * (1 + ocpTolerance)}
	if bb.Lower > bb.Upper {
		bb.Lower, bb.Upper = bb.Upper, bb.Lower
	}
	da := ocpTolerance * (math.Abs(tMin-tMax) + math.Abs(b0*qMax))
	ab := param.Bound{Lower: a0 - da, Upper: a0 + da}

	spec := param.Spec{
		{Key: param.Name(OffsetParameter), Guess: a0, Bounds: ab},
		{Key: param.Name(ScaleParameter), Guess: b0, Bounds: bb},
	}
	var err error
	if p.pmap, err = param.Build(spec.Merge(o.Cost.Parameters(p.names))); err != nil {
		return nil, err
	}

	p.logger.Debug("ocp balance ready",
		zap.Float64("a0", a0), zap.Float64("b0", b0),
		zap.Int("curves", len(o.Fit)))
	return p, nil
}

// extremes returns the x at the largest and at the smallest y across curves.
func extremes(curves []dataset.Curve) (xMax, xMin float64) {
	yMax, yMin := math.Inf(-1), math.Inf(1)
	for _, c := range curves {
		if i := c.ArgMaxY(); c.Y[i] > yMax {
			yMax, xMax = c.Y[i], c.X[i]
		}
		if i := c.ArgMinY(); c.Y[i] < yMin {
			yMin, xMin = c.Y[i], c.X[i]
		}
	}
	return
}

func (p *OCPProblem) X0() []float64         { return p.pmap.X0() }
func (p *OCPProblem) Bounds() []param.Bound { return p.pmap.Bounds() }
func (p *OCPProblem) Scalings() []float64   { return p.pmap.Scalings() }
func (p *OCPProblem) Map() *param.Map       { return p.pmap }
func (p *OCPProblem) CostName() string      { return p.spec.Cost.Name() }

// Objective resamples every reference curve at the mapped capacities.
func (p *OCPProblem) Objective(_ context.Context, x []float64) (float64, error) {
	if err := checkLen(p.pmap, x); err != nil {
		return 0, err
	}
	physical := p.pmap.Physical(x)
	ys := p.resample(physical[0], physical[1])
	return p.spec.Cost.Evaluate(ys, p.data, nil, p.pmap.Tail(physical, param.SourceCost)), nil
}

func (p *OCPProblem) resample(a, b float64) [][]float64 {
	out := make([][]float64, len(p.refs))
	for k, ref := range p.refs {
		xs := p.spec.Fit[k].X
		ys := make([]float64, len(xs))
		for j, x := range xs {
			ys[j] = ref.At(a + b*x)
		}
		out[k] = ys
	}
	return out
}

func (p *OCPProblem) Overlay(_ context.Context, physical []float64) ([]Overlay, error) {
	if err := checkLen(p.pmap, physical); err != nil {
		return nil, err
	}
	x0 := p.pmap.Physical(p.pmap.X0())
	initial := p.resample(x0[0], x0[1])
	optimised := p.resample(physical[0], physical[1])

	out := make([]Overlay, len(p.refs))
	for k := range p.refs {
		out[k] = Overlay{
			Variable:  p.names[k],
			X:         append([]float64(nil), p.spec.Fit[k].X...),
			Data:      append([]float64(nil), p.data[k]...),
			Initial:   initial[k],
			Optimised: optimised[k],
		}
	}
	return out, nil
}

// Clone shares the interpolants and data, which are read-only after New.
func (p *OCPProblem) Clone() (Problem, error) {
	c := *p
	return &c, nil
}

func (p *OCPProblem) Reset() {}
