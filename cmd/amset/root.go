// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"io"

	"github.com/ManuGH/amset/internal/config"
	xglog "github.com/ManuGH/amset/internal/log"
	"github.com/ManuGH/amset/internal/metrics"
	"github.com/ManuGH/amset/internal/validate"
	"github.com/ManuGH/amset/internal/version"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app carries the state shared by every subcommand.
type app struct {
	stdout  io.Writer
	stderr  io.Writer
	environ []string

	env          cliEnv
	settingsPath string
	assignments  []string
	logLevel     string
	logFormat    string
	strictEnv    bool

	logger zerolog.Logger
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "amset",
		Short:         "Inspect and validate amset settings",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	flags := root.PersistentFlags()
	flags.StringVarP(&a.settingsPath, "settings", "s", "", "settings file (yaml, json or toml); defaults to $AMSET_SETTINGS")
	flags.StringArrayVar(&a.assignments, "set", nil, "override an option as key=value (repeatable)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: json or console")
	flags.BoolVar(&a.strictEnv, "strict-env", false, "fail on unknown AMSET_* environment variables")

	root.AddCommand(newSettingsCmd(a))
	return root
}

// setup resolves the ambient environment and configures logging. Flags
// take precedence over the environment.
func (a *app) setup(cmd *cobra.Command) error {
	ambient, err := parseCLIEnv(a.environ)
	if err != nil {
		return usageError{err: err}
	}
	a.env = ambient

	flags := cmd.Flags()
	if !flags.Changed("settings") {
		a.settingsPath = ambient.Settings
	}
	if !flags.Changed("log-level") {
		a.logLevel = ambient.LogLevel
	}
	if !flags.Changed("log-format") {
		a.logFormat = ambient.LogFormat
	}
	if !flags.Changed("strict-env") {
		a.strictEnv = ambient.StrictEnv
	}

	level, err := validate.ParseLogLevel(a.logLevel)
	if err != nil {
		return usageError{err: err}
	}
	format, err := validate.ParseLogFormat(a.logFormat)
	if err != nil {
		return usageError{err: err}
	}

	xglog.Configure(xglog.Config{
		Level:   level.String(),
		Format:  string(format),
		Output:  a.stderr,
		Service: "amset",
		Version: version.Version,
	})

	ctx := xglog.ContextWithRunID(cmd.Context(), uuid.NewString())
	cmd.SetContext(ctx)
	a.logger = xglog.WithComponentFromContext(ctx, "cli")
	return nil
}

func (a *app) newLoader(cmd *cobra.Command) (*config.Loader, error) {
	assignments, err := config.ParseAssignments(a.assignments)
	if err != nil {
		return nil, usageError{err: err}
	}
	logger := xglog.WithContext(cmd.Context(), xglog.WithComponent("config"))
	return config.NewLoader(a.settingsPath,
		config.WithEnviron(a.environ),
		config.WithAssignments(assignments),
		config.WithReservedEnv(reservedEnvKeys...),
		config.WithStrictEnv(a.strictEnv),
		config.WithApplyPrintLog(true),
		config.WithLogger(logger),
	), nil
}

// load runs the loader. The loader applies print_log to the logger.
func (a *app) load(cmd *cobra.Command) (*config.Settings, *config.Loader, error) {
	loader, err := a.newLoader(cmd)
	if err != nil {
		return nil, nil, err
	}
	s, err := loader.Load()
	a.writeMetrics()
	if err != nil {
		return nil, loader, err
	}
	return s, loader, nil
}

// writeMetrics exports the settings metrics when a textfile is configured.
func (a *app) writeMetrics() {
	if a.env.MetricsTextfile == "" {
		return
	}
	if err := metrics.WriteTextfile(a.env.MetricsTextfile); err != nil {
		a.logger.Warn().Err(err).
			Str(xglog.FieldEvent, "metrics.write_failed").
			Str(xglog.FieldPath, a.env.MetricsTextfile).
			Msg("failed to write metrics textfile")
	}
}

func (a *app) source() string {
	if a.settingsPath == "" {
		return "defaults"
	}
	return a.settingsPath
}
