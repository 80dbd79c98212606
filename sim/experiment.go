// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"errors"
	"fmt"
	"slices"
)

// Step is one constant-current segment of an experiment.
type Step struct {
	Current  float64 // Applied current [A], positive on discharge
	Duration float64 // Segment length [s]
}

// Experiment is a schedule of constant-current steps, such as the pulse
// and rest sequence of a GITT measurement.
type Experiment struct {
	Steps []Step
}

// Validate checks every step has a positive duration.
func (e *Experiment) Validate() error {
	if len(e.Steps) == 0 {
		return errors.New("experiment has no steps")
	}
	for i, s := range e.Steps {
		if !(s.Duration > 0) {
			return fmt.Errorf("experiment step %d has non positive duration %g", i, s.Duration)
		}
	}
	return nil
}

// Duration returns the total length of the schedule.
func (e *Experiment) Duration() (d float64) {
	for _, s := range e.Steps {
		d += s.Duration
	}
	return
}

// Pulses builds an experiment of n repetitions of a pulse followed by a rest.
func Pulses(n int, current, pulse, rest float64) *Experiment {
	steps := make([]Step, 0, 2*n)
	for range n {
		steps = append(steps, Step{Current: current, Duration: pulse}, Step{Duration: rest})
	}
	return &Experiment{Steps: steps}
}

func (e *Experiment) clone() *Experiment {
	if e == nil {
		return nil
	}
	return &Experiment{Steps: slices.Clone(e.Steps)}
}
