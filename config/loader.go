// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/curioloop/paramfit/cost"
	"github.com/curioloop/paramfit/logging"
	"github.com/curioloop/paramfit/param"
)

// LoadConfig loads and parses a configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := ParseConfigYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfigYAML parses a Config from YAML bytes, fills defaults and validates it.
func ParseConfigYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config yaml: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Optimizer.Method == "" {
		c.Optimizer.Method = MethodNelderMead
	}
	if c.Optimizer.Workers == 0 {
		c.Optimizer.Workers = 1
	}
	if c.Cost.Kind == "" {
		c.Cost.Kind = "rmse"
	}
	if c.Store.Kind == "" {
		c.Store.Kind = "memory"
	}
}

// Validate checks every section of the configuration.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", param.ErrConfiguration, err)
	}

	o := c.Optimizer
	switch o.Method {
	case MethodNelderMead, MethodSLSQP, MethodDifferentialEvolution, MethodGenetic:
	default:
		return fmt.Errorf("%w: unknown optimizer method: %s", param.ErrConfiguration, o.Method)
	}
	switch {
	case o.MaxIter < 0:
		return fmt.Errorf("%w: optimizer: max_iter cannot be negative", param.ErrConfiguration)
	case o.PopSize < 0:
		return fmt.Errorf("%w: optimizer: pop_size cannot be negative", param.ErrConfiguration)
	case o.Workers < 0:
		return fmt.Errorf("%w: optimizer: workers cannot be negative", param.ErrConfiguration)
	case o.Tolerance < 0 || math.IsNaN(o.Tolerance):
		return fmt.Errorf("%w: optimizer: tolerance must be a non-negative number", param.ErrConfiguration)
	}

	if _, err := c.ParameterSpec(); err != nil {
		return fmt.Errorf("parameters: %w", err)
	}

	seen := make(map[string]bool, len(c.Variables))
	for _, v := range c.Variables {
		if v == "" {
			return fmt.Errorf("%w: variable name cannot be empty", param.ErrConfiguration)
		}
		if seen[v] {
			return fmt.Errorf("%w: duplicate variable: %s", param.ErrConfiguration, v)
		}
		seen[v] = true
	}
	for name, w := range c.Weights {
		if len(w) == 0 {
			return fmt.Errorf("%w: weights for %s cannot be empty", param.ErrConfiguration, name)
		}
	}

	if _, err := c.Cost.Function(); err != nil {
		return err
	}

	switch c.Store.Kind {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("%w: store: path is required for sqlite", param.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unsupported store backend: %s", param.ErrConfiguration, c.Store.Kind)
	}
	return nil
}

// ParameterSpec converts the parameters section. Missing bounds are infinite.
func (c *Config) ParameterSpec() (param.Spec, error) {
	spec := make(param.Spec, 0, len(c.Parameters))
	for i, p := range c.Parameters {
		key, err := param.KeyOf(p.Name)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
		b := param.Bound{Lower: math.Inf(-1), Upper: math.Inf(1)}
		switch len(p.Bounds) {
		case 0:
		case 2:
			b = param.Bound{Lower: p.Bounds[0], Upper: p.Bounds[1]}
		default:
			return nil, fmt.Errorf("%w: parameter %s: bounds need exactly two values, got %d",
				param.ErrConfiguration, key, len(p.Bounds))
		}
		spec = append(spec, param.Entry{Key: key, Guess: p.Guess, Bounds: b})
	}
	return spec, nil
}

// WeightMap returns a copy of the weights section, nil when it is empty.
func (c *Config) WeightMap() map[string][]float64 {
	if len(c.Weights) == 0 {
		return nil
	}
	out := make(map[string][]float64, len(c.Weights))
	for k, v := range c.Weights {
		out[k] = append([]float64(nil), v...)
	}
	return out
}

// Function builds the configured cost function.
func (c Cost) Function() (cost.Function, error) {
	switch c.Kind {
	case "", "rmse":
		return cost.RMSE{}, nil
	case "mle":
		return cost.MLE{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown cost kind: %s", param.ErrConfiguration, c.Kind)
	}
}
