// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func counterValue(f *dto.MetricFamily, labels map[string]string) float64 {
	for _, m := range f.GetMetric() {
		match := true
		for _, lp := range m.GetLabel() {
			if v, ok := labels[lp.GetName()]; ok && v != lp.GetValue() {
				match = false
			}
		}
		if match {
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		c.ObserveEvaluation("simplex", false)
	}
	c.ObserveEvaluation("simplex", true)
	c.ObserveRun("simplex", true, 250*time.Millisecond)

	families := gather(t, reg)
	evals := families["paramfit_objective_evaluations_total"]
	require.NotNil(t, evals)
	assert.Equal(t, 3.0, counterValue(evals, map[string]string{"optimiser": "simplex", "outcome": "accepted"}))
	assert.Equal(t, 1.0, counterValue(evals, map[string]string{"optimiser": "simplex", "outcome": "rejected"}))

	runs := families["paramfit_optimiser_runs_total"]
	require.NotNil(t, runs)
	assert.Equal(t, 1.0, counterValue(runs, map[string]string{"status": "success"}))

	hist := families["paramfit_optimiser_run_seconds"]
	require.NotNil(t, hist)
	assert.Equal(t, uint64(1), hist.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestCollectorRegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewCollector(reg)
	require.NoError(t, err)
	second, err := NewCollector(reg)
	require.NoError(t, err)
	first.ObserveEvaluation("x", false)
	second.ObserveEvaluation("x", false)
	evals := gather(t, reg)["paramfit_objective_evaluations_total"]
	assert.Equal(t, 2.0, counterValue(evals, map[string]string{"optimiser": "x", "outcome": "accepted"}))

	c, err := NewCollector(nil)
	require.NoError(t, err)
	c.ObserveEvaluation("x", false)
}
