// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package validate

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestValidator_Positive(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		wantErr bool
	}{
		{"small positive", 1e-9, false},
		{"one", 1, false},
		{"zero", 0, true},
		{"negative", -0.5, true},
		{"nan", math.NaN(), true},
		{"inf", math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Positive("energy_cutoff", tt.value)

			if tt.wantErr && v.IsValid() {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && !v.IsValid() {
				t.Errorf("unexpected error: %v", v.Err())
			}
		})
	}
}

func TestValidator_PositiveInt(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		wantErr bool
	}{
		{"one", 1, false},
		{"ten", 10, false},
		{"zero", 0, true},
		{"negative", -3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.PositiveInt("interpolation_factor", tt.value)
			if tt.wantErr == v.IsValid() {
				t.Errorf("PositiveInt(%d): wantErr=%v, got %v", tt.value, tt.wantErr, v.Err())
			}
		})
	}
}

func TestValidator_Lists(t *testing.T) {
	v := New()
	v.NonEmptyList("doping", nil)
	v.EachPositive("temperatures", []float64{300, 0, -1})
	v.EachPositive("temperatures_ok", []float64{100, 200})

	errs := v.Errors()
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), v.Err())
	}
	if errs[0].Field != "doping" {
		t.Errorf("expected doping first, got %s", errs[0].Field)
	}
	if !strings.Contains(errs[1].Message, "element 1") {
		t.Errorf("expected first offending index in message, got %q", errs[1].Message)
	}
}

func TestValidator_OneOfAndNonNegative(t *testing.T) {
	v := New()
	v.OneOf("file_format", "json", []string{"json", "yaml", "dat"})
	v.NonNegative("donor_charge", 0)
	if !v.IsValid() {
		t.Fatalf("unexpected error: %v", v.Err())
	}

	v.OneOf("file_format", "xml", []string{"json", "yaml", "dat"})
	v.NonNegative("donor_charge", -1)
	if len(v.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %v", v.Err())
	}
}

func TestValidationError_Message(t *testing.T) {
	v := New()
	if v.Err() != nil {
		t.Fatal("empty validator must not produce an error")
	}

	v.AddError("symprec", "value must be positive, got 0", 0.0)
	if got := v.Err().Error(); got != "validation failed for symprec: value must be positive, got 0" {
		t.Errorf("unexpected single error message: %q", got)
	}

	v.NotEmpty("wavefunction_coefficients", "  ")
	err := v.Err()
	var ve ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(ve.Errors()) != 2 {
		t.Errorf("expected 2 errors, got %d", len(ve.Errors()))
	}
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("expected joined message, got %q", err.Error())
	}

	// Err must return a snapshot.
	v.AddError("extra", "late", nil)
	if len(ve.Errors()) != 2 {
		t.Errorf("snapshot mutated after AddError")
	}
}

func TestValidator_Custom(t *testing.T) {
	v := New()
	v.Custom("nworkers", 0, func(value any) error {
		if n := value.(int); n != -1 && n < 1 {
			return errors.New("must be -1 or at least 1")
		}
		return nil
	})
	if v.IsValid() {
		t.Error("expected custom validator to record an error")
	}
}

func TestParseLogLevelAndFormat(t *testing.T) {
	if l, err := ParseLogLevel(" INFO "); err != nil || l != LogLevelInfo {
		t.Errorf("ParseLogLevel: got %q, %v", l, err)
	}
	if _, err := ParseLogLevel("verbose"); err != ErrInvalidLogLevel {
		t.Errorf("expected ErrInvalidLogLevel, got %v", err)
	}
	if f, err := ParseLogFormat("Console"); err != nil || f != LogFormatConsole {
		t.Errorf("ParseLogFormat: got %q, %v", f, err)
	}
	if _, err := ParseLogFormat("xml"); err != ErrInvalidLogFormat {
		t.Errorf("expected ErrInvalidLogFormat, got %v", err)
	}
}
