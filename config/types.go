// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the YAML description of an estimation run.
package config

// Config is the root of a run configuration file.
type Config struct {
	LogLevel   string               `yaml:"log_level"`
	Optimizer  Optimizer            `yaml:"optimizer"`
	Parameters []Parameter          `yaml:"parameters"`
	Variables  []string             `yaml:"variables"`
	Cost       Cost                 `yaml:"cost"`
	Weights    map[string][]float64 `yaml:"weights"`
	Store      Store                `yaml:"store"`
	Metrics    Metrics              `yaml:"metrics"`
}

// Optimizer selects a backend and its settings. Zero values mean the
// backend default.
type Optimizer struct {
	Method    string  `yaml:"method"`
	MaxIter   int     `yaml:"max_iter"`
	PopSize   int     `yaml:"pop_size"`
	Seed      uint64  `yaml:"seed"`
	Tolerance float64 `yaml:"tolerance"`
	Workers   int     `yaml:"workers"`
	Polish    bool    `yaml:"polish"`
}

// Parameter is one fitted parameter. Name is a string, or a list of
// strings sharing one value.
type Parameter struct {
	Name   any       `yaml:"name"`
	Guess  float64   `yaml:"guess"`
	Bounds []float64 `yaml:"bounds"`
}

// Cost selects the cost function: "rmse" or "mle".
type Cost struct {
	Kind string `yaml:"kind"`
}

// Store selects result persistence.
type Store struct {
	Kind string `yaml:"kind"`
	Path string `yaml:"path"`
}

// Metrics toggles Prometheus metrics.
type Metrics struct {
	Enabled bool `yaml:"enabled"`
}

// Optimiser methods understood by the optimizer factory.
const (
	MethodNelderMead            = "nelder-mead"
	MethodSLSQP                 = "slsqp"
	MethodDifferentialEvolution = "differential-evolution"
	MethodGenetic               = "genetic"
)
