// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package store persists optimisation results.
package store

import (
	"context"
	"time"
)

// Record is the persisted summary of one optimiser run.
type Record struct {
	SchemaVersion int                `json:"schema_version"`
	ID            string             `json:"id"`
	CreatedAt     time.Time          `json:"created_at"`
	Optimiser     string             `json:"optimiser"`
	CostFunction  string             `json:"cost_function"`
	Success       bool               `json:"success"`
	Message       string             `json:"message"`
	Fun           float64            `json:"-"`
	SolveTime     time.Duration      `json:"solve_time_ns"`
	NumEval       int                `json:"num_eval"`
	Values        map[string]float64 `json:"-"`
	InitialGuess  map[string]float64 `json:"-"`
}

// Store saves and loads run records.
type Store interface {
	Init(ctx context.Context) error
	Save(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, bool, error)
	// List returns every record ordered by creation time.
	List(ctx context.Context) ([]Record, error)
}
