// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package optimizer

import (
	"fmt"

	"github.com/curioloop/paramfit/config"
	"github.com/curioloop/paramfit/param"
)

// FromConfig builds the backend named by cfg.Method.
func FromConfig(cfg config.Optimizer, hooks Hooks) (Optimizer, error) {
	switch cfg.Method {
	case "", config.MethodNelderMead:
		return NelderMead{
			Hooks:         hooks,
			MaxIterations: cfg.MaxIter,
			Tolerance:     cfg.Tolerance,
		}, nil
	case config.MethodSLSQP:
		return SLSQP{
			Hooks:         hooks,
			MaxIterations: cfg.MaxIter,
			Accuracy:      cfg.Tolerance,
		}, nil
	case config.MethodDifferentialEvolution:
		return DifferentialEvolution{
			Hooks:         hooks,
			MaxIterations: cfg.MaxIter,
			PopSize:       cfg.PopSize,
			Tolerance:     cfg.Tolerance,
			Seed:          cfg.Seed,
			Workers:       cfg.Workers,
			Polish:        cfg.Polish,
		}, nil
	case config.MethodGenetic:
		return Genetic{
			Hooks:         hooks,
			MaxIterations: cfg.MaxIter,
			PopSize:       cfg.PopSize,
			Tolerance:     cfg.Tolerance,
			Seed:          cfg.Seed,
			Workers:       cfg.Workers,
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown optimizer method %q", param.ErrConfiguration, cfg.Method)
	}
}
