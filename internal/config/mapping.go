// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"reflect"
	"sort"
)

// Mapping is an untyped settings document: option name to raw value.
type Mapping map[string]any

// Clone returns a deep copy of m.
func (m Mapping) Clone() Mapping {
	if m == nil {
		return nil
	}
	out := make(Mapping, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// Keys returns the keys of m in sorted order.
func (m Mapping) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []float64:
		return append([]float64(nil), t...)
	case []string:
		return append([]string(nil), t...)
	case map[string]any:
		return map[string]any(Mapping(t).Clone())
	case Mapping:
		return t.Clone()
	default:
		return v
	}
}

// overlay copies src onto dst, resolving aliases to canonical keys.
// Unknown names yield UnknownOptionError; a key and its alias set to
// different values in the same src yield ConflictingOptionError.
func overlay(dst, src Mapping, source string, r *Registry) error {
	var errs []error
	seen := make(map[string]string, len(src))

	for _, name := range src.Keys() {
		key, ok := r.Resolve(name)
		if !ok {
			errs = append(errs, &UnknownOptionError{Option: name, Source: source})
			continue
		}
		value := src[name]
		if prev, dup := seen[key]; dup {
			if !sameValue(src[prev], value) {
				errs = append(errs, &ConflictingOptionError{
					Options: []string{key, aliasOf(prev, name, key)},
					Reason:  fmt.Sprintf("%s and its alias are set to different values", key),
				})
			}
			continue
		}
		seen[key] = name
		dst[key] = cloneValue(value)
	}
	return joinErrors(errs)
}

func aliasOf(a, b, key string) string {
	if a == key {
		return b
	}
	return a
}

// sameValue compares raw values, treating numerically equal numbers as equal.
func sameValue(a, b any) bool {
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	if okA && okB {
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}
