// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Document formats understood by ReadFile and Decode.
const (
	DocYAML = "yaml"
	DocJSON = "json"
	DocTOML = "toml"
)

// DocFormatFromPath derives the document format from a file extension.
func DocFormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DocYAML, nil
	case ".json":
		return DocJSON, nil
	case ".toml":
		return DocTOML, nil
	default:
		return "", fmt.Errorf("unsupported settings file extension %q (want .yaml, .yml, .json or .toml)", filepath.Ext(path))
	}
}

// ReadFile reads a settings document from path.
func ReadFile(path string) (Mapping, error) {
	format, err := DocFormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path) // #nosec G304 -- user supplied settings path
	if err != nil {
		return nil, fmt.Errorf("open settings file: %w", err)
	}
	defer func() { _ = f.Close() }()

	m, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("parse settings file %s: %w", path, err)
	}
	return m, nil
}

// Decode parses a settings document in the given format.
func Decode(r io.Reader, format string) (Mapping, error) {
	switch format {
	case DocYAML, DocJSON:
		// JSON documents are valid YAML flow documents.
		return decodeYAML(r)
	case DocTOML:
		return decodeTOML(r)
	default:
		return nil, fmt.Errorf("unsupported document format %q", format)
	}
}

func decodeYAML(r io.Reader) (Mapping, error) {
	dec := yaml.NewDecoder(r)

	var m Mapping
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return Mapping{}, nil
		}
		return nil, err
	}

	// Reject multiple documents
	var extra any
	if err := dec.Decode(&extra); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("multiple YAML documents are not allowed")
		}
		return nil, err
	}

	if m == nil {
		m = Mapping{}
	}
	return m, nil
}

func decodeTOML(r io.Reader) (Mapping, error) {
	m := Mapping{}
	if _, err := toml.NewDecoder(r).Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}
