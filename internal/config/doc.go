// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads, validates and serves amset settings.
//
// Settings are built from the embedded defaults document overlaid with
// user overrides. Precedence, lowest to highest:
//
//  1. Defaults (defaults.yaml, embedded)
//  2. Settings file (YAML, JSON or TOML)
//  3. Environment variables (AMSET_<OPTION>)
//  4. Command line assignments (--set option=value)
//
// Validation runs in a fixed order and stops at the first failing stage:
//
//  1. Type check of every option (TypeMismatchError)
//  2. scissor/bandgap exclusion (ConflictingOptionError)
//  3. Ranges of numerical options (RangeError)
//  4. Parameters required by the selected scattering mechanisms
//     (MissingDependentOptionError)
//
// Unknown option names fail before validation with UnknownOptionError.
// The resulting *Settings is immutable; slice accessors return copies.
package config
