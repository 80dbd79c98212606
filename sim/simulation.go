// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sim provides the simulation collaborator an estimation problem
// drives: a parameter table, a solve contract returning sampled signals,
// and reference cell models integrated with a fixed-step solver.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/curioloop/paramfit/logging"
)

// Simulation is a model bound to a parameter table. A simulation never
// changes its inputs in place: reconfiguring parameters yields a new
// simulation through WithParameterValues.
type Simulation interface {
	// ParameterValues returns a copy of the parameter table.
	ParameterValues() *ParameterValues
	// WithParameterValues builds a new simulation from the same model,
	// experiment and solver settings with a different parameter table.
	WithParameterValues(pv *ParameterValues) (Simulation, error)
	// Solve integrates over window, or over the experiment when the
	// simulation has one, with the given values of the input parameters.
	Solve(ctx context.Context, window []float64, inputs map[string]float64) (*Solution, error)
	// Experiment returns the schedule, nil when driven by a constant current.
	Experiment() *Experiment
	// Reset drops every cached solution.
	Reset()
	// Clone returns an independent deep copy.
	Clone() Simulation
}

// System is a model prepared with concrete parameter values.
type System interface {
	Size() int
	Init(y []float64)
	Derivative(t, current float64, y, dy []float64)
	Output(t, current float64, y, out []float64)
	// MaxStep is the largest stable step, 0 when unlimited.
	MaxStep() float64
}

// Model describes a set of differential equations and its outputs.
type Model interface {
	Name() string
	Outputs() []string
	Parameters() []string
	Prepare(values map[string]float64) (System, error)
}

// Config holds the construction arguments of an Engine besides its
// model and parameter table.
type Config struct {
	Step       float64     // Largest integration step [s], 1 when zero
	Experiment *Experiment // Optional current schedule
	Logger     *zap.Logger
}

// Engine is the reference Simulation: a Model integrated with RK4.
type Engine struct {
	model  Model
	params *ParameterValues
	config Config
	logger *zap.Logger

	mu    sync.Mutex
	key   string
	cache *Solution
}

// NewEngine validates the configuration and copies the parameter table.
func NewEngine(model Model, pv *ParameterValues, cfg Config) (*Engine, error) {
	switch {
	case model == nil:
		return nil, errors.New("model is required")
	case cfg.Step < 0 || math.IsNaN(cfg.Step):
		return nil, errors.New("integration step must not be negative")
	}
	if cfg.Experiment != nil {
		if err := cfg.Experiment.Validate(); err != nil {
			return nil, err
		}
	}
	if pv == nil {
		pv = NewParameterValues(nil)
	}
	if cfg.Step == 0 {
		cfg.Step = 1
	}
	cfg.Experiment = cfg.Experiment.clone()

	logger := logging.OrNop(cfg.Logger)
	return &Engine{
		model:  model,
		params: pv.Copy(),
		config: cfg,
		logger: logger.With(zap.String("model", model.Name())),
	}, nil
}

// Model returns the model being simulated.
func (e *Engine) Model() Model { return e.model }

func (e *Engine) ParameterValues() *ParameterValues { return e.params.Copy() }

func (e *Engine) Experiment() *Experiment { return e.config.Experiment.clone() }

func (e *Engine) WithParameterValues(pv *ParameterValues) (Simulation, error) {
	cfg := e.config
	cfg.Logger = e.logger
	return NewEngine(e.model, pv, cfg)
}

func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.key, e.cache = "", nil
}

func (e *Engine) Clone() Simulation {
	cfg := e.config
	cfg.Experiment = cfg.Experiment.clone()
	return &Engine{
		model:  e.model,
		params: e.params.Copy(),
		config: cfg,
		logger: e.logger,
	}
}

func (e *Engine) Solve(ctx context.Context, window []float64, inputs map[string]float64) (*Solution, error) {
	if err := e.checkInputs(inputs); err != nil {
		return nil, err
	}
	t0, segs, err := e.schedule(window)
	if err != nil {
		return nil, err
	}

	key := fingerprint(t0, segs, inputs)
	e.mu.Lock()
	if e.cache != nil && e.key == key {
		s := e.cache
		e.mu.Unlock()
		return s, nil
	}
	e.mu.Unlock()

	values := e.params.resolve(inputs)
	for _, name := range e.model.Parameters() {
		if _, ok := values[name]; !ok {
			return nil, fmt.Errorf("parameter %q of %s has no value", name, e.model.Name())
		}
	}
	sys, err := e.model.Prepare(values)
	if err != nil {
		return nil, err
	}

	step := e.config.Step
	if ms := sys.MaxStep(); ms > 0 && ms < step {
		step = ms
	}

	time, out, err := integrate(ctx, sys, e.model.Outputs(), t0, step, segs)
	if err != nil {
		return nil, fmt.Errorf("solve %s: %w", e.model.Name(), err)
	}
	sol, err := newSolution(time, out, inputs)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("solved", zap.Int("points", len(time)), zap.Float64("step", step))

	e.mu.Lock()
	e.key, e.cache = key, sol
	e.mu.Unlock()
	return sol, nil
}

// checkInputs requires the inputs to be exactly the declared input names.
func (e *Engine) checkInputs(inputs map[string]float64) error {
	for name, v := range inputs {
		if !e.params.IsInput(name) {
			return fmt.Errorf("%q is not an input parameter of this simulation", name)
		}
		if math.IsNaN(v) {
			return fmt.Errorf("input %q is NaN", name)
		}
	}
	for _, name := range e.params.Inputs() {
		if _, ok := inputs[name]; !ok {
			return fmt.Errorf("input parameter %q has no value", name)
		}
	}
	return nil
}

func (e *Engine) schedule(window []float64) (float64, []segment, error) {
	if x := e.config.Experiment; x != nil {
		segs := make([]segment, len(x.Steps))
		for i, s := range x.Steps {
			segs[i] = segment{current: s.Current, duration: s.Duration}
		}
		return 0, segs, nil
	}

	switch {
	case window == nil:
		return 0, nil, errors.New("a time window is required without an experiment")
	case len(window) != 2 || !(window[1] > window[0]):
		return 0, nil, fmt.Errorf("invalid time window %v", window)
	}
	current, ok := e.params.Get(CurrentParameter)
	if !ok {
		return 0, nil, fmt.Errorf("parameter %q has no value", CurrentParameter)
	}
	return window[0], []segment{{current: current, duration: window[1] - window[0]}}, nil
}

func fingerprint(t0 float64, segs []segment, inputs map[string]float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v|%v|", t0, segs)
	names := make([]string, 0, len(inputs))
	for n := range inputs {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(&b, "%s=%v;", n, inputs[n])
	}
	return b.String()
}

type errSolverDiverged struct {
	state int
	time  float64
}

func (e errSolverDiverged) Error() string {
	return fmt.Sprintf("state %d diverged at t=%g", e.state, e.time)
}
