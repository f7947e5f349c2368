// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// mechanismSelection is the typed value of scattering_type.
type mechanismSelection struct {
	auto bool
	list []Mechanism
}

// typeCheck converts every option of m to its typed form. All mismatches
// are reported together.
func typeCheck(m Mapping, r *Registry) (map[string]any, error) {
	typed := make(map[string]any, len(r.keys))
	var errs []error
	for _, key := range r.keys {
		raw, ok := m[key]
		if !ok {
			return nil, fmt.Errorf("defaults: missing option %q", key)
		}
		v, err := coerce(r.ByKey[key], raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		typed[key] = v
	}
	if err := joinErrors(errs); err != nil {
		return nil, err
	}
	return typed, nil
}

func coerce(e OptionEntry, raw any) (any, error) {
	mismatch := func(reason string) error {
		return &TypeMismatchError{Option: e.Key, Expected: e.Kind.String(), Value: raw, Reason: reason}
	}

	switch e.Kind {
	case KindBool:
		if b, ok := raw.(bool); ok {
			return b, nil
		}
		return nil, mismatch("")

	case KindInt:
		if n, ok := toInt(raw); ok {
			return n, nil
		}
		return nil, mismatch("")

	case KindFloat:
		f, reason, ok := toFiniteFloat(raw)
		if !ok {
			return nil, mismatch(reason)
		}
		return f, nil

	case KindOptionalFloat:
		if raw == nil {
			return nil, nil
		}
		f, reason, ok := toFiniteFloat(raw)
		if !ok {
			return nil, mismatch(reason)
		}
		return f, nil

	case KindOptionalString:
		if raw == nil {
			return nil, nil
		}
		if s, ok := raw.(string); ok {
			return s, nil
		}
		return nil, mismatch("")

	case KindFloatList:
		list, reason, ok := toFloatList(raw)
		if !ok {
			return nil, mismatch(reason)
		}
		return list, nil

	case KindMechanisms:
		sel, reason, ok := toMechanisms(raw)
		if !ok {
			return nil, mismatch(reason)
		}
		return sel, nil

	case KindFileFormat:
		s, ok := toEnum(raw, fileFormats)
		if !ok {
			return nil, mismatch("")
		}
		return FileFormat(s), nil

	case KindKpointPolicy:
		s, ok := toEnum(raw, kpointPolicies)
		if !ok {
			return nil, mismatch("")
		}
		return KpointPolicy(s), nil

	default:
		return nil, fmt.Errorf("option %q: unhandled kind %s", e.Key, e.Kind)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// toFiniteFloat is toFloat restricted to finite values.
func toFiniteFloat(v any) (float64, string, bool) {
	f, ok := toFloat(v)
	if !ok {
		return 0, "", false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, "not finite", false
	}
	return f, "", true
}

// maxExactInt is the largest magnitude at which every float64 is an exact integer.
const maxExactInt = 1 << 53

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		if n > math.MaxInt || n < math.MinInt {
			return 0, false
		}
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.Abs(n) > maxExactInt {
			return 0, false
		}
		return int(n), true
	case float32:
		return toInt(float64(n))
	default:
		return 0, false
	}
}

// toFloatList accepts a sequence of numbers, a single number or a
// comma separated string.
func toFloatList(v any) ([]float64, string, bool) {
	switch t := v.(type) {
	case nil:
		return nil, "", false
	case []float64:
		for i, f := range t {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, fmt.Sprintf("element %d is not finite", i), false
			}
		}
		return append([]float64{}, t...), "", true
	case string:
		parts := splitList(t)
		if len(parts) == 0 {
			return nil, "empty string", false
		}
		out := make([]float64, 0, len(parts))
		for i, p := range parts {
			f, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return nil, fmt.Sprintf("element %d (%q) is not a real number", i, p), false
			}
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, fmt.Sprintf("element %d is not finite", i), false
			}
			out = append(out, f)
		}
		return out, "", true
	}

	if _, ok := toFloat(v); ok {
		f, reason, ok := toFiniteFloat(v)
		if !ok {
			return nil, reason, false
		}
		return []float64{f}, "", true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, "", false
	}
	out := make([]float64, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		el := rv.Index(i).Interface()
		f, reason, ok := toFiniteFloat(el)
		if !ok {
			if reason == "" {
				reason = "is " + describeValue(el)
			}
			return nil, fmt.Sprintf("element %d %s", i, reason), false
		}
		out = append(out, f)
	}
	return out, "", true
}

func toMechanisms(v any) (mechanismSelection, string, bool) {
	var names []string
	switch t := v.(type) {
	case string:
		names = splitList(t)
	case []string:
		names = t
	default:
		rv := reflect.ValueOf(v)
		if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
			return mechanismSelection{}, "", false
		}
		for i := 0; i < rv.Len(); i++ {
			s, ok := rv.Index(i).Interface().(string)
			if !ok {
				return mechanismSelection{}, fmt.Sprintf("element %d is %s", i, describeValue(rv.Index(i).Interface())), false
			}
			names = append(names, strings.TrimSpace(s))
		}
	}

	if len(names) == 0 {
		return mechanismSelection{}, "no scattering mechanisms given", false
	}
	if len(names) == 1 && strings.EqualFold(names[0], scatteringAuto) {
		return mechanismSelection{auto: true}, "", true
	}

	sel := mechanismSelection{}
	seen := make(map[Mechanism]bool, len(names))
	for _, name := range names {
		if strings.EqualFold(name, scatteringAuto) {
			return mechanismSelection{}, "auto cannot be combined with explicit mechanisms", false
		}
		m, err := ParseMechanism(name)
		if err != nil {
			return mechanismSelection{}, err.Error(), false
		}
		if seen[m] {
			continue
		}
		seen[m] = true
		sel.list = append(sel.list, m)
	}
	return sel, "", true
}

func toEnum(v any, allowed []string) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.ToLower(strings.TrimSpace(s))
	for _, a := range allowed {
		if s == a {
			return s, true
		}
	}
	return "", false
}

// splitList splits a comma separated string, trimming blanks. An empty
// or blank string yields no elements.
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}
