// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"os"

	xglog "github.com/ManuGH/amset/internal/log"
	"github.com/ManuGH/amset/internal/metrics"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Loader builds settings from defaults, an optional file, the environment
// and command line assignments.
type Loader struct {
	path        string
	environ     func() []string
	assignments Mapping
	reservedEnv map[string]struct{}
	strictEnv   bool
	applyPrint  bool
	clock       clockwork.Clock
	logger      zerolog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithEnviron replaces os.Environ as the environment source.
func WithEnviron(environ []string) LoaderOption {
	return func(l *Loader) {
		env := append([]string(nil), environ...)
		l.environ = func() []string { return env }
	}
}

// WithAssignments sets the highest precedence layer (--set pairs).
func WithAssignments(m Mapping) LoaderOption {
	return func(l *Loader) { l.assignments = m.Clone() }
}

// WithReservedEnv names AMSET_* variables that belong to the caller and
// are neither options nor unknown.
func WithReservedEnv(keys ...string) LoaderOption {
	return func(l *Loader) {
		for _, k := range keys {
			l.reservedEnv[k] = struct{}{}
		}
	}
}

// WithStrictEnv makes unknown AMSET_* variables fail the load.
func WithStrictEnv(strict bool) LoaderOption {
	return func(l *Loader) { l.strictEnv = strict }
}

// WithApplyPrintLog makes every successful load switch the process logger's
// quiet mode to match print_log, before the load itself is logged.
func WithApplyPrintLog(apply bool) LoaderOption {
	return func(l *Loader) { l.applyPrint = apply }
}

// WithClock sets the clock used for load timestamps.
func WithClock(c clockwork.Clock) LoaderOption {
	return func(l *Loader) { l.clock = c }
}

// WithLogger sets the loader's logger.
func WithLogger(logger zerolog.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logger }
}

// NewLoader creates a loader. An empty path skips the file layer.
func NewLoader(path string, opts ...LoaderOption) *Loader {
	l := &Loader{
		path:        path,
		environ:     os.Environ,
		reservedEnv: make(map[string]struct{}),
		clock:       clockwork.NewRealClock(),
		logger:      xglog.WithComponent("config"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the settings file path, or "" when none is used.
func (l *Loader) Path() string { return l.path }

// Load builds and validates the settings. The outcome is recorded in
// the settings load metrics.
func (l *Loader) Load() (*Settings, error) {
	s, err := l.load()
	result := KindOf(err)
	metrics.RecordLoad(result)
	if err != nil {
		l.logger.Debug().
			Err(err).
			Str(xglog.FieldEvent, "settings.load_failed").
			Str(xglog.FieldResult, result).
			Msg("settings rejected")
		return nil, err
	}

	if l.applyPrint {
		xglog.SetQuiet(!s.printLog)
	}
	metrics.SetActiveMechanisms(mechanismNames(allMechanisms), mechanismNames(s.mechanisms))
	metrics.SetLoadedAt(float64(l.clock.Now().Unix()))

	l.logger.Info().
		Str(xglog.FieldEvent, "settings.load").
		Str(xglog.FieldPath, l.path).
		Strs("mechanisms", mechanismNames(s.mechanisms)).
		Bool("auto", s.scattering.auto).
		Msg("settings loaded")
	return s, nil
}

func (l *Loader) load() (*Settings, error) {
	overrides, err := l.Overrides()
	if err != nil {
		return nil, err
	}
	return Build(Defaults(), overrides)
}

// Overrides merges the file, environment and assignment layers into a
// single override mapping keyed by canonical option names.
func (l *Loader) Overrides() (Mapping, error) {
	r, err := GetRegistry()
	if err != nil {
		return nil, err
	}

	out := Mapping{}
	if l.path != "" {
		fileMap, err := ReadFile(l.path)
		if err != nil {
			return nil, err
		}
		if err := overlay(out, fileMap, "file "+l.path, r); err != nil {
			return nil, err
		}
	}

	env, unknown := envOverrides(l.logger, l.environ(), l.reservedEnv, r)
	if len(unknown) > 0 {
		if l.strictEnv {
			errs := make([]error, 0, len(unknown))
			for _, key := range unknown {
				errs = append(errs, &UnknownOptionError{Option: optionFromEnv(key), Source: "env " + key})
			}
			return nil, joinErrors(errs)
		}
		l.logger.Warn().
			Str(xglog.FieldEvent, "settings.env_unknown").
			Strs("keys", unknown).
			Msg("ignoring unknown AMSET_* environment variables")
	}
	if err := overlay(out, env, "environment", r); err != nil {
		return nil, err
	}

	if err := overlay(out, l.assignments, "--set", r); err != nil {
		return nil, fmt.Errorf("command line: %w", err)
	}
	return out, nil
}
