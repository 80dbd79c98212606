// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package problem

import (
	"go.uber.org/zap"

	"github.com/curioloop/paramfit/cost"
	"github.com/curioloop/paramfit/dataset"
	"github.com/curioloop/paramfit/param"
	"github.com/curioloop/paramfit/sim"
)

// GITTParameters are the parameters identified from a GITT voltage trace.
func GITTParameters() param.Spec {
	return param.Spec{
		{
			Key:    param.Name("Positive electrode diffusivity [m2.s-1]"),
			Guess:  5e-14,
			Bounds: param.Bound{Lower: 2.06e-16, Upper: 2.06e-12},
		},
		{
			Key:    param.Name("Reference OCP [V]"),
			Guess:  4.2,
			Bounds: param.Bound{Lower: 0, Upper: 5},
		},
	}
}

// NewGITT builds the fit of the GITT model voltage to a measured trace.
// A nil cost function selects RMSE.
func NewGITT(pv *sim.ParameterValues, experiment *sim.Experiment, data *dataset.Table, fn cost.Function, logger *zap.Logger) (*DataFitProblem, error) {
	if pv == nil {
		pv = sim.GITT{}.DefaultParameterValues()
	}
	if fn == nil {
		fn = cost.RMSE{}
	}
	engine, err := sim.NewEngine(sim.GITT{}, pv, sim.Config{Experiment: experiment, Logger: logger})
	if err != nil {
		return nil, err
	}
	return DataFit{
		Simulation: engine,
		Data:       data,
		Parameters: GITTParameters(),
		Variables:  []string{"Voltage [V]"},
		Cost:       fn,
		Logger:     logger,
	}.New()
}
