// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"sort"
	"strings"

	xglog "github.com/ManuGH/amset/internal/log"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// ParseValue interprets a raw string from the environment or the command
// line. YAML scalars and flow sequences are understood ("0.5", "true",
// "[300, 400]", "null"); "none" is accepted as null. Anything that does
// not parse as YAML is kept as a string.
func ParseValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if strings.EqualFold(trimmed, "none") {
		return nil
	}
	var v any
	if err := yaml.Unmarshal([]byte(trimmed), &v); err != nil {
		return trimmed
	}
	return v
}

// ParseAssignments parses "option=value" pairs as given to --set.
func ParseAssignments(pairs []string) (Mapping, error) {
	m := Mapping{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q: want option=value", pair)
		}
		m[key] = ParseValue(value)
	}
	return m, nil
}

// envOverrides collects AMSET_<OPTION> variables from environ. Variables
// with the prefix that name no option are returned as unknown, except the
// reserved ones used by the command line tool.
func envOverrides(logger zerolog.Logger, environ []string, reserved map[string]struct{}, r *Registry) (Mapping, []string) {
	m := Mapping{}
	var unknown []string

	for _, pair := range environ {
		key, value, _ := strings.Cut(pair, "=")
		if !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		if _, skip := reserved[key]; skip {
			continue
		}
		entry, ok := r.ByEnv[key]
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		if value == "" {
			logger.Debug().
				Str("key", key).
				Str(xglog.FieldSource, "default").
				Msg("ignoring empty environment variable")
			continue
		}

		// Aliases keep their own name so that overlay can detect conflicts.
		name := entry.Key
		if alias := strings.ToLower(strings.TrimPrefix(key, EnvPrefix)); r.IsAlias(alias) {
			name = alias
		}
		m[name] = ParseValue(value)
		logger.Debug().
			Str("key", key).
			Str(xglog.FieldOption, entry.Key).
			Str("value", value).
			Str(xglog.FieldSource, "environment").
			Msg("using environment variable")
	}

	sort.Strings(unknown)
	return m, unknown
}

// optionFromEnv maps an environment variable name back to an option name.
func optionFromEnv(key string) string {
	return strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
}
