// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package metrics exports optimiser activity as Prometheus metrics.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "paramfit"

// Collector counts objective evaluations and optimiser runs.
type Collector struct {
	evaluations *prometheus.CounterVec
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewCollector creates the collector and registers it with reg.
// A nil reg leaves the metrics unregistered.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "objective_evaluations_total",
				Help:      "Objective evaluations by optimiser; rejected counts NaN or failed points",
			},
			[]string{"optimiser", "outcome"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "optimiser_runs_total",
				Help:      "Completed optimiser runs by termination status",
			},
			[]string{"optimiser", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "optimiser_run_seconds",
				Help:      "Wall-clock solve time of optimiser runs",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
			},
			[]string{"optimiser"},
		),
	}
	if reg == nil {
		return c, nil
	}
	var err error
	if c.evaluations, err = register(reg, c.evaluations); err != nil {
		return nil, err
	}
	if c.runs, err = register(reg, c.runs); err != nil {
		return nil, err
	}
	if c.duration, err = register(reg, c.duration); err != nil {
		return nil, err
	}
	return c, nil
}

// register adopts an identical collector already present in reg.
func register[T prometheus.Collector](reg prometheus.Registerer, m T) (T, error) {
	if err := reg.Register(m); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return m, err
	}
	return m, nil
}

// ObserveEvaluation records one objective evaluation.
func (c *Collector) ObserveEvaluation(optimiser string, rejected bool) {
	outcome := "accepted"
	if rejected {
		outcome = "rejected"
	}
	c.evaluations.WithLabelValues(optimiser, outcome).Inc()
}

// ObserveRun records a finished run.
func (c *Collector) ObserveRun(optimiser string, success bool, d time.Duration) {
	status := "failure"
	if success {
		status = "success"
	}
	c.runs.WithLabelValues(optimiser, status).Inc()
	c.duration.WithLabelValues(optimiser).Observe(d.Seconds())
}
