// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package run wires a configuration into one estimation run: logger,
// metrics, result store and optimiser backend.
package run

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/curioloop/paramfit/config"
	"github.com/curioloop/paramfit/dataset"
	"github.com/curioloop/paramfit/logging"
	"github.com/curioloop/paramfit/metrics"
	"github.com/curioloop/paramfit/optimizer"
	"github.com/curioloop/paramfit/problem"
	"github.com/curioloop/paramfit/sim"
	"github.com/curioloop/paramfit/store"
)

// Runner owns the collaborators of configured runs. It is safe to call
// Run from several goroutines when the optimiser and store are.
type Runner struct {
	cfg       *config.Config
	logger    *zap.Logger
	registry  *prometheus.Registry
	collector *metrics.Collector
	store     store.Store
	optimizer optimizer.Optimizer
}

// Option customises a Runner.
type Option func(*Runner)

// WithLogger replaces the logger built from the configured level.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithStore replaces the configured store. The runner initialises it.
func WithStore(s store.Store) Option {
	return func(r *Runner) { r.store = s }
}

// WithRegistry registers metrics with reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(r *Runner) { r.registry = reg }
}

// New validates cfg and builds the runner collaborators.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Runner{cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}

	var err error
	if r.logger == nil {
		if r.logger, err = logging.New(cfg.LogLevel); err != nil {
			return nil, err
		}
	}

	hooks := optimizer.Hooks{Logger: r.logger}
	if cfg.Metrics.Enabled {
		if r.registry == nil {
			r.registry = prometheus.NewRegistry()
		}
		if r.collector, err = metrics.NewCollector(r.registry); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		hooks.Observer = r.collector
	}

	if r.optimizer, err = optimizer.FromConfig(cfg.Optimizer, hooks); err != nil {
		return nil, err
	}

	if r.store == nil {
		if r.store, err = store.NewStore(cfg.Store.Kind, cfg.Store.Path); err != nil {
			return nil, err
		}
	}
	if err = r.store.Init(ctx); err != nil {
		_ = store.CloseIfSupported(r.store)
		return nil, fmt.Errorf("init store: %w", err)
	}

	r.logger.Debug("runner ready",
		zap.String("optimiser", r.optimizer.Name()),
		zap.String("store", cfg.Store.Kind),
		zap.Bool("metrics", cfg.Metrics.Enabled))
	return r, nil
}

// Logger returns the runner logger.
func (r *Runner) Logger() *zap.Logger { return r.logger }

// Optimizer returns the configured backend.
func (r *Runner) Optimizer() optimizer.Optimizer { return r.optimizer }

// Store returns the result store.
func (r *Runner) Store() store.Store { return r.store }

// Gatherer exposes the metrics, nil when metrics are disabled.
func (r *Runner) Gatherer() prometheus.Gatherer {
	if r.registry == nil {
		return nil
	}
	return r.registry
}

// DataFit builds a data fit problem from the configured parameters,
// variables, cost function and weights.
func (r *Runner) DataFit(simulation sim.Simulation, data *dataset.Table) (*problem.DataFitProblem, error) {
	spec, err := r.cfg.ParameterSpec()
	if err != nil {
		return nil, err
	}
	fn, err := r.cfg.Cost.Function()
	if err != nil {
		return nil, err
	}
	return problem.DataFit{
		Simulation: simulation,
		Data:       data,
		Parameters: spec,
		Variables:  r.cfg.Variables,
		Weights:    r.cfg.WeightMap(),
		Cost:       fn,
		Logger:     r.logger,
	}.New()
}

// Run optimises p from its own initial guess and bounds, then saves the
// result record. The result is returned even when saving fails.
func (r *Runner) Run(ctx context.Context, p problem.Problem) (*optimizer.Result, error) {
	res, err := r.optimizer.Optimise(ctx, p, nil, nil)
	if err != nil {
		return nil, err
	}
	if err = r.store.Save(ctx, res.Record()); err != nil {
		return res, fmt.Errorf("save run %s: %w", res.ID, err)
	}
	r.logger.Info("run saved",
		zap.Stringer("id", res.ID),
		zap.Bool("success", res.Success),
		zap.Float64("fun", res.Fun))
	return res, nil
}

// Close releases the store and flushes the logger.
func (r *Runner) Close() error {
	err := store.CloseIfSupported(r.store)
	_ = r.logger.Sync()
	return err
}
