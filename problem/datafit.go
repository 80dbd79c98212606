// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package problem

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/curioloop/paramfit/cost"
	"github.com/curioloop/paramfit/dataset"
	"github.com/curioloop/paramfit/logging"
	"github.com/curioloop/paramfit/param"
	"github.com/curioloop/paramfit/sim"
)

// DefaultVariable is the signal fitted when none is named.
const DefaultVariable = "Voltage [V]"

// DataFit specifies the fit of simulated signals to reference data.
type DataFit struct {
	Simulation sim.Simulation
	Data       *dataset.Table
	Parameters param.Spec
	Variables  []string
	// Weights holds one factor, or one factor per data row, per variable.
	Weights map[string][]float64
	Cost    cost.Function
	Logger  *zap.Logger
}

// DataFitProblem is a validated DataFit. It owns a simulation rebuilt
// with every fitted parameter bound as a solve-time input.
type DataFitProblem struct {
	spec    DataFit
	pmap    *param.Map
	sim     sim.Simulation
	times   []float64
	data    [][]float64
	weights [][]float64
	logger  *zap.Logger
}

// CollectParameters merges the parameters introduced by the cost function
// after the user parameters. The result defines the decision layout.
func (d *DataFit) CollectParameters() param.Spec {
	user := make(param.Spec, len(d.Parameters))
	for i, e := range d.Parameters {
		e.Source = param.SourceUser
		user[i] = e
	}
	return user.Merge(d.Cost.Parameters(d.Variables))
}

// New validates the specification, lays out the decision vector and
// rebuilds the simulation once with the fitted parameters as inputs.
func (d DataFit) New() (*DataFitProblem, error) {
	var err error
	switch {
	case d.Cost == nil:
		err = fmt.Errorf("%w: cost function is required", param.ErrConfiguration)
	case d.Simulation == nil:
		err = fmt.Errorf("%w: simulation is required", param.ErrConfiguration)
	case d.Data == nil:
		err = fmt.Errorf("%w: reference data is required", param.ErrConfiguration)
	case len(d.Parameters) == 0:
		err = fmt.Errorf("%w: no parameter to fit", param.ErrConfiguration)
	}
	if err != nil {
		return nil, err
	}

	if len(d.Variables) == 0 {
		d.Variables = []string{DefaultVariable}
	}
	d.Logger = logging.OrNop(d.Logger)

	p := &DataFitProblem{
		spec:    d,
		times:   d.Data.Times(),
		data:    make([][]float64, len(d.Variables)),
		weights: make([][]float64, len(d.Variables)),
		logger:  d.Logger,
	}

	known := make(map[string]int, len(d.Variables))
	for i, v := range d.Variables {
		col, ok := d.Data.Column(v)
		if !ok {
			return nil, fmt.Errorf("%w: reference data has no column %q", param.ErrConfiguration, v)
		}
		if _, dup := known[v]; dup {
			return nil, fmt.Errorf("%w: variable %q is fitted twice", param.ErrConfiguration, v)
		}
		known[v] = i
		p.data[i] = col
	}
	for v, w := range d.Weights {
		i, ok := known[v]
		if !ok {
			return nil, fmt.Errorf("%w: weights given for %q which is not fitted", param.ErrConfiguration, v)
		}
		if len(w) != 1 && len(w) != d.Data.Len() {
			return nil, fmt.Errorf("%w: weights of %q have length %d, want 1 or %d",
				param.ErrConfiguration, v, len(w), d.Data.Len())
		}
		p.weights[i] = append([]float64(nil), w...)
	}
	switch d.Cost.(type) {
	case cost.MLE, *cost.MLE:
		if len(d.Weights) > 0 {
			p.logger.Warn("weights are ignored by the likelihood cost function",
				zap.String("cost", d.Cost.Name()))
		}
	}

	if p.pmap, err = param.Build(d.CollectParameters()); err != nil {
		return nil, err
	}

	pv := d.Simulation.ParameterValues()
	pv.MarkInput(d.Parameters.Names()...)
	if p.sim, err = d.Simulation.WithParameterValues(pv); err != nil {
		return nil, fmt.Errorf("rebuild simulation: %w", err)
	}

	p.logger.Debug("data fit ready",
		zap.Strings("parameters", p.pmap.Names()),
		zap.Strings("variables", d.Variables),
		zap.String("cost", d.Cost.Name()))
	return p, nil
}

func (p *DataFitProblem) X0() []float64              { return p.pmap.X0() }
func (p *DataFitProblem) Bounds() []param.Bound      { return p.pmap.Bounds() }
func (p *DataFitProblem) Scalings() []float64        { return p.pmap.Scalings() }
func (p *DataFitProblem) Map() *param.Map            { return p.pmap }
func (p *DataFitProblem) CostName() string           { return p.spec.Cost.Name() }
func (p *DataFitProblem) Variables() []string        { return append([]string(nil), p.spec.Variables...) }
func (p *DataFitProblem) Simulation() sim.Simulation { return p.sim }

// Objective solves the simulation at the physical point and compares the
// fitted variables with the reference data.
func (p *DataFitProblem) Objective(ctx context.Context, x []float64) (float64, error) {
	if err := checkLen(p.pmap, x); err != nil {
		return 0, err
	}
	physical := p.pmap.Physical(x)
	inputs := p.pmap.Inputs(physical, param.SourceUser)

	end := p.times[len(p.times)-1]
	sol, err := p.sim.Solve(ctx, []float64{0, end}, inputs)
	if err != nil {
		return 0, err
	}
	ys, err := p.sample(sol)
	if err != nil {
		return 0, err
	}
	return p.spec.Cost.Evaluate(ys, p.data, p.weights, p.pmap.Tail(physical, param.SourceCost)), nil
}

func (p *DataFitProblem) sample(sol *sim.Solution) ([][]float64, error) {
	ys := make([][]float64, len(p.spec.Variables))
	for i, v := range p.spec.Variables {
		y, err := sol.Sample(v, p.times)
		if err != nil {
			return nil, err
		}
		ys[i] = y
	}
	return ys, nil
}

// CalculateSolution solves for reporting. The horizon is the experiment
// when the simulation has one, the last reference time otherwise.
func (p *DataFitProblem) CalculateSolution(ctx context.Context, physical []float64) (*sim.Solution, error) {
	if physical == nil {
		physical = p.pmap.Physical(p.pmap.X0())
	} else if err := checkLen(p.pmap, physical); err != nil {
		return nil, err
	}

	var window []float64
	if p.sim.Experiment() == nil {
		window = []float64{0, p.times[len(p.times)-1]}
	}
	return p.sim.Solve(ctx, window, p.pmap.Inputs(physical, param.SourceUser))
}

func (p *DataFitProblem) Overlay(ctx context.Context, physical []float64) ([]Overlay, error) {
	initial, err := p.CalculateSolution(ctx, nil)
	if err != nil {
		return nil, err
	}
	yi, err := p.sample(initial)
	if err != nil {
		return nil, err
	}
	optimised, err := p.CalculateSolution(ctx, physical)
	if err != nil {
		return nil, err
	}
	yo, err := p.sample(optimised)
	if err != nil {
		return nil, err
	}

	out := make([]Overlay, len(p.spec.Variables))
	for i, v := range p.spec.Variables {
		out[i] = Overlay{
			Variable:  v,
			X:         append([]float64(nil), p.times...),
			Data:      append([]float64(nil), p.data[i]...),
			Initial:   yi[i],
			Optimised: yo[i],
		}
	}
	return out, nil
}

// Clone shares the immutable layout and reference data and deep copies
// the simulation.
func (p *DataFitProblem) Clone() (Problem, error) {
	c := *p
	c.sim = p.sim.Clone()
	return &c, nil
}

func (p *DataFitProblem) Reset() { p.sim.Reset() }
