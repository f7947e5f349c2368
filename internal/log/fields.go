// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRunID = "run_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldResult    = "result"

	// Settings fields
	FieldOption    = "option"
	FieldSource    = "source"
	FieldMechanism = "mechanism"
	FieldOldValue  = "old_value"
	FieldNewValue  = "new_value"

	// Path fields
	FieldPath = "path"
)
