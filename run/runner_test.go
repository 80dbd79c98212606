// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package run

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/curioloop/paramfit/config"
	"github.com/curioloop/paramfit/dataset"
	"github.com/curioloop/paramfit/sim"
	"github.com/curioloop/paramfit/store"
)

const resistanceYAML = `
log_level: debug
optimizer:
  method: nelder-mead
  max_iter: %d
parameters:
  - name: "R0 [Ohm]"
    guess: 0.015
    bounds: [0.001, 0.1]
  - name: "R1 [Ohm]"
    guess: 0.01
    bounds: [0.001, 0.1]
variables: ["Voltage [V]"]
cost:
  kind: rmse
store:
  kind: %s
  path: %q
metrics:
  enabled: %t
`

func parse(t *testing.T, maxIter int, kind, path string, metrics bool) *config.Config {
	t.Helper()
	cfg, err := config.ParseConfigYAML([]byte(fmt.Sprintf(resistanceYAML, maxIter, kind, path, metrics)))
	require.NoError(t, err)
	return cfg
}

func theveninEngine(t *testing.T) *sim.Engine {
	t.Helper()
	e, err := sim.NewEngine(sim.Thevenin{}, sim.Thevenin{}.DefaultParameterValues(), sim.Config{Step: 5})
	require.NoError(t, err)
	return e
}

// voltageData tabulates the voltage of the default cell over ten minutes.
func voltageData(t *testing.T) *dataset.Table {
	t.Helper()
	sol, err := theveninEngine(t).Solve(context.Background(), []float64{0, 600}, nil)
	require.NoError(t, err)
	v, ok := sol.Entries("Voltage [V]")
	require.True(t, ok)
	tb, err := dataset.NewTable(sol.Time(), map[string][]float64{"Voltage [V]": v})
	require.NoError(t, err)
	return tb
}

func counterSum(t *testing.T, g prometheus.Gatherer, name string) float64 {
	t.Helper()
	families, err := g.Gather()
	require.NoError(t, err)
	var sum float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			sum += m.GetCounter().GetValue()
		}
	}
	return sum
}

func TestRunFitsResistances(t *testing.T) {
	ctx := context.Background()
	r, err := New(ctx, parse(t, 0, "memory", "", true), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	defer r.Close()

	p, err := r.DataFit(theveninEngine(t), voltageData(t))
	require.NoError(t, err)

	res, err := r.Run(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "Nelder-Mead simplex optimiser", res.Optimiser)

	want := map[string]float64{"R0 [Ohm]": 0.01, "R1 [Ohm]": 0.015}
	if diff := cmp.Diff(want, res.Values, cmpopts.EquateApprox(0, 1e-3)); diff != "" {
		t.Errorf("fitted values mismatch (-want +got):\n%s", diff)
	}
	initial := map[string]float64{"R0 [Ohm]": 0.015, "R1 [Ohm]": 0.01}
	if diff := cmp.Diff(initial, res.InitialGuess); diff != "" {
		t.Errorf("initial guess mismatch (-want +got):\n%s", diff)
	}

	rec, ok, err := r.Store().Get(ctx, res.ID.String())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Root Mean Square Error", rec.CostFunction)
	assert.Equal(t, res.NumEval, rec.NumEval)
	if diff := cmp.Diff(res.Values, rec.Values); diff != "" {
		t.Errorf("stored values mismatch (-want +got):\n%s", diff)
	}

	g := r.Gatherer()
	require.NotNil(t, g)
	assert.Equal(t, float64(res.NumEval), counterSum(t, g, "paramfit_objective_evaluations_total"))
	assert.Equal(t, 1.0, counterSum(t, g, "paramfit_optimiser_runs_total"))
}

func TestRunPersistsToSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")

	r, err := New(ctx, parse(t, 10, "sqlite", path, false), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	assert.Nil(t, r.Gatherer())

	p, err := r.DataFit(theveninEngine(t), voltageData(t))
	require.NoError(t, err)
	res, err := r.Run(ctx, p)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	reopened := store.NewSQLiteStore(path)
	require.NoError(t, reopened.Init(ctx))
	defer reopened.Close()

	recs, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, res.ID.String(), recs[0].ID)
	assert.Equal(t, res.Optimiser, recs[0].Optimiser)
	if diff := cmp.Diff(res.Values, recs[0].Values); diff != "" {
		t.Errorf("stored values mismatch (-want +got):\n%s", diff)
	}
}

func TestRunnerOptions(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	reg := prometheus.NewRegistry()

	r, err := New(ctx, parse(t, 0, "memory", "", true),
		WithLogger(zaptest.NewLogger(t)), WithStore(mem), WithRegistry(reg))
	require.NoError(t, err)
	assert.Same(t, mem, r.Store())
	assert.Equal(t, prometheus.Gatherer(reg), r.Gatherer())
	assert.False(t, r.Optimizer().Global())

	// An initialised store accepts records.
	require.NoError(t, mem.Save(ctx, store.Record{ID: "x"}))
}

func TestNewRejects(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, nil)
	require.Error(t, err)

	cfg := parse(t, 0, "memory", "", false)
	cfg.Optimizer.Method = "simulated-annealing"
	_, err = New(ctx, cfg)
	require.ErrorContains(t, err, "unknown optimizer method")

	cfg = parse(t, 0, "memory", "", false)
	cfg.Cost.Kind = "mae"
	_, err = New(ctx, cfg)
	require.ErrorContains(t, err, "unknown cost kind")
}

func TestDataFitMissingColumn(t *testing.T) {
	cfg := parse(t, 0, "memory", "", false)
	cfg.Variables = []string{"Temperature [K]"}
	r, err := New(context.Background(), cfg, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.DataFit(theveninEngine(t), voltageData(t))
	require.ErrorContains(t, err, "no column")
}
