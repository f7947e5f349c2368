// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// ErrNullInTOML reports a null option whose default is not null. TOML has
// no null, so reading the document back would restore the default.
var ErrNullInTOML = errors.New("null option with a non-null default cannot be written as TOML")

// InputFileName is the file written into the output directory when
// write_input is enabled.
const InputFileName = "amset_settings.yaml"

// Marshal serializes the canonical mapping of s as a YAML, JSON or TOML document.
func Marshal(s *Settings, format string) ([]byte, error) {
	return MarshalMapping(s.ToMap(), format)
}

// MarshalMapping serializes m. Null options are omitted from TOML, which
// has no null. A null option whose default is not null fails with
// ErrNullInTOML instead of being dropped.
func MarshalMapping(m Mapping, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case DocYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(map[string]any(m)); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
	case DocJSON:
		data, err := json.MarshalIndent(map[string]any(m), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	case DocTOML:
		nonNull, err := tomlValues(m)
		if err != nil {
			return nil, err
		}
		if err := toml.NewEncoder(&buf).Encode(nonNull); err != nil {
			return nil, fmt.Errorf("encode toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported document format %q", format)
	}
	return buf.Bytes(), nil
}

// tomlValues drops null options, which TOML cannot express. Dropping is
// only lossless when the option's default is null as well.
func tomlValues(m Mapping) (map[string]any, error) {
	r := mustRegistry()
	defaults := Defaults()

	out := make(map[string]any, len(m))
	for _, k := range m.Keys() {
		v := m[k]
		if v != nil {
			out[k] = v
			continue
		}
		if key, ok := r.Resolve(k); ok && defaults[key] != nil {
			return nil, fmt.Errorf("%w: %s (default %s)", ErrNullInTOML, k, describeValue(defaults[key]))
		}
	}
	return out, nil
}

// Save atomically writes s to path, choosing the format from the extension.
func Save(path string, s *Settings) error {
	format, err := DocFormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := Marshal(s, format)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("mkdir settings dir: %w", err)
	}

	// renameio handles: temp file creation, fsync, atomic rename, cleanup on error
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending settings file: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write settings data: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace settings file: %w", err)
	}
	return nil
}

// WriteInput writes s to InputFileName inside dir and returns the path.
func WriteInput(dir string, s *Settings) (string, error) {
	path := filepath.Join(dir, InputFileName)
	if err := Save(path, s); err != nil {
		return "", err
	}
	return path, nil
}
