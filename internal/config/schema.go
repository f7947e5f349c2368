// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"encoding/json"
	"fmt"
)

// SchemaID is the $id of the settings document schema.
const SchemaID = "https://github.com/ManuGH/amset/settings.schema.json"

// Schema returns a JSON Schema (draft 2020-12) for settings documents,
// generated from the option registry. It checks the shape of a document
// only; ranges and mechanism dependencies are left to Build.
func Schema() map[string]any {
	r := mustRegistry()
	defaults := mapOrDefaults(nil)

	props := make(map[string]any, len(r.keys))
	for _, key := range r.keys {
		entry := r.ByKey[key]
		prop := kindSchema(entry.Kind)
		prop["description"] = describeEntry(entry)
		prop["default"] = defaults[key]
		props[key] = prop

		for _, alias := range entry.Aliases {
			aliasProp := kindSchema(entry.Kind)
			aliasProp["description"] = fmt.Sprintf("alias of %s", key)
			props[alias] = aliasProp
		}
	}

	return map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"$id":                  SchemaID,
		"title":                "amset settings",
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}

// SchemaJSON returns Schema as indented JSON.
func SchemaJSON() ([]byte, error) {
	data, err := json.MarshalIndent(Schema(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	return append(data, '\n'), nil
}

func describeEntry(e OptionEntry) string {
	if e.Unit == "" {
		return e.Doc
	}
	return fmt.Sprintf("%s (%s)", e.Doc, e.Unit)
}

func kindSchema(k Kind) map[string]any {
	switch k {
	case KindBool:
		return map[string]any{"type": "boolean"}
	case KindInt:
		return map[string]any{"type": "integer"}
	case KindFloat:
		return map[string]any{"type": "number"}
	case KindOptionalFloat:
		return map[string]any{"type": []string{"number", "null"}}
	case KindOptionalString:
		return map[string]any{"type": []string{"string", "null"}}
	case KindFloatList:
		// A single number or a comma separated string is also accepted.
		return map[string]any{
			"type":  []string{"array", "number", "string"},
			"items": map[string]any{"type": "number"},
		}
	case KindMechanisms:
		return map[string]any{
			"anyOf": []any{
				map[string]any{"type": "string"},
				map[string]any{
					"type":     "array",
					"items":    map[string]any{"type": "string"},
					"minItems": 1,
				},
			},
			"examples": []any{scatteringAuto, mechanismNames(autoMechanisms)},
		}
	case KindFileFormat:
		return map[string]any{"enum": fileFormats}
	case KindKpointPolicy:
		return map[string]any{"enum": kpointPolicies}
	default:
		return map[string]any{}
	}
}
