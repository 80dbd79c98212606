// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package param

// Source tells who contributed a parameter entry.
type Source int

const (
	// SourceUser marks a model parameter supplied by the caller.
	SourceUser Source = iota
	// SourceCost marks an extra entry introduced by a cost function,
	// such as the noise scale of a likelihood.
	SourceCost
)

// Entry is the initial guess and bounds of one parameter key.
type Entry struct {
	Key    Key
	Guess  float64
	Bounds Bound
	Source Source
}

// Spec is an ordered parameter specification. The order of entries
// defines the layout of the decision vector.
type Spec []Entry

// Merge returns a new spec holding s followed by every entry of others.
func (s Spec) Merge(others ...Spec) Spec {
	n := len(s)
	for _, o := range others {
		n += len(o)
	}
	merged := make(Spec, 0, n)
	merged = append(merged, s...)
	for _, o := range others {
		merged = append(merged, o...)
	}
	return merged
}

// Names returns every name of the spec, shared names included, in order.
func (s Spec) Names() []string {
	var names []string
	for _, e := range s {
		names = append(names, e.Key...)
	}
	return names
}

// Filter returns the entries contributed by src.
func (s Spec) Filter(src Source) Spec {
	var out Spec
	for _, e := range s {
		if e.Source == src {
			out = append(out, e)
		}
	}
	return out
}
