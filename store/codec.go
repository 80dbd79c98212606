// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

const CurrentSchemaVersion = 1

var ErrVersionMismatch = errors.New("record version mismatch")

// number is a float64 whose JSON form also carries NaN and ±Inf.
type number float64

func (n number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	switch {
	case math.IsNaN(f):
		return []byte(`"NaN"`), nil
	case math.IsInf(f, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Inf"`), nil
	}
	return json.Marshal(f)
}

func (n *number) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("decode number %q: %w", s, err)
		}
		*n = number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = number(f)
	return nil
}

type wireRecord struct {
	Record
	Fun          number            `json:"fun"`
	Values       map[string]number `json:"values"`
	InitialGuess map[string]number `json:"initial_guess"`
}

func toWire(m map[string]float64) map[string]number {
	if m == nil {
		return nil
	}
	out := make(map[string]number, len(m))
	for k, v := range m {
		out[k] = number(v)
	}
	return out
}

func fromWire(m map[string]number) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = float64(v)
	}
	return out
}

// EncodeRecord serialises rec as JSON.
func EncodeRecord(rec Record) ([]byte, error) {
	if rec.SchemaVersion == 0 {
		rec.SchemaVersion = CurrentSchemaVersion
	}
	return json.Marshal(wireRecord{
		Record:       rec,
		Fun:          number(rec.Fun),
		Values:       toWire(rec.Values),
		InitialGuess: toWire(rec.InitialGuess),
	})
}

// DecodeRecord parses a record produced by EncodeRecord.
func DecodeRecord(data []byte) (Record, error) {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return Record{}, err
	}
	if w.SchemaVersion != CurrentSchemaVersion {
		return Record{}, fmt.Errorf("%w: schema %d", ErrVersionMismatch, w.SchemaVersion)
	}
	rec := w.Record
	rec.Fun = float64(w.Fun)
	rec.Values = fromWire(w.Values)
	rec.InitialGuess = fromWire(w.InitialGuess)
	return rec, nil
}

func cloneRecord(rec Record) Record {
	rec.Values = fromWire(toWire(rec.Values))
	rec.InitialGuess = fromWire(toWire(rec.InitialGuess))
	return rec
}
