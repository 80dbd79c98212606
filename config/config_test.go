// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curioloop/paramfit/cost"
	"github.com/curioloop/paramfit/param"
)

const sampleYAML = `
log_level: debug
optimizer:
  method: differential-evolution
  max_iter: 200
  pop_size: 30
  seed: 7
  tolerance: 0.001
  workers: 4
  polish: true
parameters:
  - name: "R0 [Ohm]"
    guess: 0.015
    bounds: [0.001, 0.1]
  - name: ["R1 [Ohm]", "R2 [Ohm]"]
    guess: 0.01
    bounds: [0.001, 0.1]
  - name: "C1 [F]"
    guess: 3000
variables: ["Voltage [V]"]
cost:
  kind: mle
weights:
  "Voltage [V]": [1]
store:
  kind: sqlite
  path: runs.db
metrics:
  enabled: true
`

func TestParseConfigYAML(t *testing.T) {
	cfg, err := ParseConfigYAML([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, Optimizer{
		Method: MethodDifferentialEvolution, MaxIter: 200, PopSize: 30,
		Seed: 7, Tolerance: 0.001, Workers: 4, Polish: true,
	}, cfg.Optimizer)
	assert.Equal(t, Store{Kind: "sqlite", Path: "runs.db"}, cfg.Store)
	assert.True(t, cfg.Metrics.Enabled)

	spec, err := cfg.ParameterSpec()
	require.NoError(t, err)
	require.Len(t, spec, 3)
	assert.Equal(t, param.Name("R0 [Ohm]"), spec[0].Key)
	assert.Equal(t, param.Shared("R1 [Ohm]", "R2 [Ohm]"), spec[1].Key)
	assert.Equal(t, param.Bound{Lower: 0.001, Upper: 0.1}, spec[1].Bounds)
	assert.True(t, math.IsInf(spec[2].Bounds.Lower, -1))
	assert.True(t, math.IsInf(spec[2].Bounds.Upper, 1))

	fn, err := cfg.Cost.Function()
	require.NoError(t, err)
	assert.IsType(t, cost.MLE{}, fn)

	w := cfg.WeightMap()
	assert.Equal(t, map[string][]float64{"Voltage [V]": {1}}, w)
	w["Voltage [V]"][0] = 5
	assert.Equal(t, 1.0, cfg.Weights["Voltage [V]"][0])
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfigYAML([]byte("parameters: []\n"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, MethodNelderMead, cfg.Optimizer.Method)
	assert.Equal(t, 1, cfg.Optimizer.Workers)
	assert.Equal(t, "rmse", cfg.Cost.Kind)
	assert.Equal(t, "memory", cfg.Store.Kind)
	assert.Nil(t, cfg.WeightMap())
}

func TestParseConfigRejects(t *testing.T) {
	cases := map[string]string{
		"log level":    "log_level: chatty\n",
		"method":       "optimizer: {method: annealing}\n",
		"max iter":     "optimizer: {max_iter: -1}\n",
		"tolerance":    "optimizer: {tolerance: -0.5}\n",
		"numeric key":  "parameters: [{name: 42, guess: 1}]\n",
		"mixed list":   "parameters: [{name: [a, 3], guess: 1}]\n",
		"bounds arity": "parameters: [{name: a, guess: 1, bounds: [0]}]\n",
		"variables":    "variables: [V, V]\n",
		"weights":      "weights: {V: []}\n",
		"cost":         "cost: {kind: mae}\n",
		"store":        "store: {kind: redis}\n",
		"sqlite path":  "store: {kind: sqlite}\n",
	}
	for name, doc := range cases {
		_, err := ParseConfigYAML([]byte(doc))
		assert.ErrorIs(t, err, param.ErrConfiguration, name)
	}

	_, err := ParseConfigYAML([]byte("optimizer: [\n"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, param.ErrConfiguration)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Parameters, 3)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}
