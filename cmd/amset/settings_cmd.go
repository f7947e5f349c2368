// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"fmt"
	"strings"

	"github.com/ManuGH/amset/internal/config"
	xglog "github.com/ManuGH/amset/internal/log"
	"github.com/ManuGH/amset/internal/validate"
	"github.com/spf13/cobra"
)

var dumpFormats = []string{config.DocYAML, config.DocJSON, config.DocTOML}

func newSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Load, check and export settings",
	}
	cmd.AddCommand(
		newValidateCmd(a),
		newDumpCmd(a),
		newDiffCmd(a),
		newExampleCmd(a),
		newSchemaCmd(a),
		newWriteCmd(a),
		newWatchCmd(a),
	)
	return cmd
}

func newValidateCmd(a *app) *cobra.Command {
	var outputDir string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, _, err := a.load(cmd)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "✓ %s is valid\n", a.source())
			fmt.Fprintf(a.stdout, "  mechanisms: %s\n", formatMechanisms(s.Mechanisms()))
			fmt.Fprintf(a.stdout, "  gap: %s\n", s.Gap())

			if s.WriteInput() {
				path, err := config.WriteInput(outputDir, s)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "  wrote %s\n", path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outputDir, "output", ".", "directory for the settings file written when write_input is true")
	return cmd
}

func newDumpCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := validate.New()
			v.OneOf("format", format, dumpFormats)
			if err := v.Err(); err != nil {
				return usageError{err: err}
			}

			s, _, err := a.load(cmd)
			if err != nil {
				return err
			}
			data, err := config.Marshal(s, format)
			if err != nil {
				return err
			}
			_, err = a.stdout.Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", config.DocYAML, "output format: yaml, json or toml")
	return cmd
}

func newDiffCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "diff",
		Short: "Show options that differ from the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, _, err := a.load(cmd)
			if err != nil {
				return err
			}

			summary := config.Diff(nil, s)
			if len(summary.Changes) == 0 {
				fmt.Fprintln(a.stdout, "no changes from defaults")
				return nil
			}
			for _, c := range summary.Changes {
				fmt.Fprintf(a.stdout, "%s [%s]: %s -> %s\n", c.Option, c.Scope, formatValue(c.Old), formatValue(c.New))
			}
			if summary.RecomputeRequired {
				fmt.Fprintln(a.stdout, "physics or numerics changed: results must be recomputed")
			}
			return nil
		},
	}
}

func newExampleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "example",
		Short: "Print the documented default settings",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			_, err := a.stdout.Write(config.DefaultsDocument())
			return err
		},
	}
}

func newSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of settings documents",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			data, err := config.SchemaJSON()
			if err != nil {
				return err
			}
			_, err = a.stdout.Write(data)
			return err
		},
	}
}

func newWriteCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write the effective settings to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output == "" {
				return usagef("--output is required")
			}
			if _, err := config.DocFormatFromPath(output); err != nil {
				return usageError{err: err}
			}

			s, _, err := a.load(cmd)
			if err != nil {
				return err
			}
			if err := config.Save(output, s); err != nil {
				return err
			}
			a.logger.Info().
				Str(xglog.FieldEvent, "settings.write").
				Str(xglog.FieldPath, output).
				Msg("settings written")
			fmt.Fprintf(a.stdout, "wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination file (.yaml, .yml, .json or .toml)")
	return cmd
}

func formatMechanisms(ms []config.Mechanism) string {
	if len(ms) == 0 {
		return "none"
	}
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.String()
	}
	return strings.Join(names, ", ")
}

func formatValue(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprint(v)
}
