// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"
)

//go:embed defaults.yaml
var defaultsYAML []byte

var (
	defaultsOnce sync.Once
	defaultsMap  Mapping
	defaultsErr  error
)

// Defaults returns a fresh copy of the default settings mapping.
func Defaults() Mapping {
	defaultsOnce.Do(func() {
		defaultsMap, defaultsErr = decodeYAML(bytes.NewReader(defaultsYAML))
		if defaultsErr == nil {
			defaultsErr = checkComplete(defaultsMap)
		}
	})
	if defaultsErr != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", defaultsErr))
	}
	return defaultsMap.Clone()
}

// DefaultsDocument returns the commented defaults document.
func DefaultsDocument() []byte {
	return append([]byte(nil), defaultsYAML...)
}

// checkComplete verifies that m carries exactly the registered keys.
func checkComplete(m Mapping) error {
	r := mustRegistry()
	for _, key := range r.Keys() {
		if _, ok := m[key]; !ok {
			return fmt.Errorf("defaults: missing option %q", key)
		}
	}
	for key := range m {
		if _, ok := r.ByKey[key]; !ok {
			return &UnknownOptionError{Option: key, Source: "defaults"}
		}
	}
	return nil
}
