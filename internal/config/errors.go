// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownOption classifies failures caused by option names outside the registry.
	// Use errors.Is(err, ErrUnknownOption) instead of string matching.
	ErrUnknownOption = errors.New("unknown option")
	// ErrTypeMismatch classifies values that do not have the option's type.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrConflictingOption classifies mutually exclusive options set together.
	ErrConflictingOption = errors.New("conflicting options")
	// ErrRange classifies values outside their permitted range.
	ErrRange = errors.New("value out of range")
	// ErrMissingDependentOption classifies scattering mechanisms lacking a required parameter.
	ErrMissingDependentOption = errors.New("missing dependent option")
)

// UnknownOptionError reports an option name that is not part of the settings surface.
type UnknownOptionError struct {
	Option string
	Source string // "overrides", "file <path>", "env AMSET_X", "--set"
}

func (e *UnknownOptionError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("unknown option %q", e.Option)
	}
	return fmt.Sprintf("unknown option %q (from %s)", e.Option, e.Source)
}

func (e *UnknownOptionError) Is(target error) bool { return target == ErrUnknownOption }

// TypeMismatchError reports a value whose type does not match its option.
type TypeMismatchError struct {
	Option   string
	Expected string
	Value    any
	Reason   string // optional detail, e.g. the offending list element
}

func (e *TypeMismatchError) Error() string {
	msg := fmt.Sprintf("option %q: expected %s, got %s", e.Option, e.Expected, describeValue(e.Value))
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// ConflictingOptionError reports options that cannot be set together.
type ConflictingOptionError struct {
	Options []string
	Reason  string
}

func (e *ConflictingOptionError) Error() string {
	quoted := make([]string, len(e.Options))
	for i, o := range e.Options {
		quoted[i] = fmt.Sprintf("%q", o)
	}
	msg := "conflicting options " + strings.Join(quoted, " and ")
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *ConflictingOptionError) Is(target error) bool { return target == ErrConflictingOption }

// RangeError reports a value outside the permitted range of its option.
type RangeError struct {
	Option string
	Value  any
	Reason string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("option %q out of range: %s", e.Option, e.Reason)
}

func (e *RangeError) Is(target error) bool { return target == ErrRange }

// MissingDependentOptionError reports a selected scattering mechanism whose
// physical parameter is unset.
type MissingDependentOptionError struct {
	Option    string
	Mechanism Mechanism
}

func (e *MissingDependentOptionError) Error() string {
	return fmt.Sprintf("option %q is required by %s scattering (%s)", e.Option, e.Mechanism, e.Mechanism.Description())
}

func (e *MissingDependentOptionError) Is(target error) bool {
	return target == ErrMissingDependentOption
}

// Result labels returned by KindOf.
const (
	KindOK                     = "ok"
	KindUnknownOption          = "unknown_option"
	KindTypeMismatch           = "type_mismatch"
	KindConflictingOption      = "conflicting_option"
	KindRange                  = "range"
	KindMissingDependentOption = "missing_dependent_option"
	KindOther                  = "error"
)

// KindOf classifies err for metrics and CLI output.
func KindOf(err error) string {
	switch {
	case err == nil:
		return KindOK
	case errors.Is(err, ErrUnknownOption):
		return KindUnknownOption
	case errors.Is(err, ErrTypeMismatch):
		return KindTypeMismatch
	case errors.Is(err, ErrConflictingOption):
		return KindConflictingOption
	case errors.Is(err, ErrRange):
		return KindRange
	case errors.Is(err, ErrMissingDependentOption):
		return KindMissingDependentOption
	default:
		return KindOther
	}
}

// joinErrors returns nil, the single error, or an errors.Join of all of them.
func joinErrors(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return errors.Join(errs...)
	}
}

func describeValue(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%T (%v)", v, v)
}
