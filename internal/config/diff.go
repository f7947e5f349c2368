// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"reflect"
)

// Change is a single option that differs between two settings.
type Change struct {
	Option string
	Old    any
	New    any
	Scope  Scope
}

// ChangeSummary describes the result of comparing two settings.
type ChangeSummary struct {
	Changes           []Change // sorted by option name
	RecomputeRequired bool     // true if any physics or numerics option changed
}

// ChangedOptions returns the names of the changed options.
func (s ChangeSummary) ChangedOptions() []string {
	out := make([]string, len(s.Changes))
	for i, c := range s.Changes {
		out[i] = c.Option
	}
	return out
}

// Diff compares two settings option by option. A nil side compares as
// the defaults.
func Diff(old, next *Settings) ChangeSummary {
	r := mustRegistry()
	oldMap := mapOrDefaults(old)
	nextMap := mapOrDefaults(next)

	summary := ChangeSummary{}
	for _, key := range r.keys {
		if reflect.DeepEqual(oldMap[key], nextMap[key]) {
			continue
		}
		entry := r.ByKey[key]
		summary.Changes = append(summary.Changes, Change{
			Option: key,
			Old:    oldMap[key],
			New:    nextMap[key],
			Scope:  entry.Scope,
		})
		if entry.Scope == ScopePhysics || entry.Scope == ScopeNumerics {
			summary.RecomputeRequired = true
		}
	}
	return summary
}

func mapOrDefaults(s *Settings) Mapping {
	if s != nil {
		return s.ToMap()
	}
	d, err := Load(nil)
	if err != nil {
		panic("config: defaults do not validate: " + err.Error())
	}
	return d.ToMap()
}
