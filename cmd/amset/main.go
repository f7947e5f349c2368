// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command amset inspects, validates and serves amset settings.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ManuGH/amset/internal/config"
)

// Exit codes.
const (
	exitOK      = 0
	exitInvalid = 1
	exitUsage   = 2
)

// usageError marks errors caused by the command line rather than the settings.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{err: fmt.Errorf(format, args...)}
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Environ(), os.Stdout, os.Stderr))
}

func run(ctx context.Context, args, environ []string, stdout, stderr io.Writer) int {
	root := newRootCmd(&app{stdout: stdout, stderr: stderr, environ: environ})
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var usage usageError
	switch {
	case errors.As(err, &usage):
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	case config.KindOf(err) != config.KindOther:
		printSettingsError(stderr, err)
		return exitInvalid
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitInvalid
	}
}

func printSettingsError(w io.Writer, err error) {
	fmt.Fprintf(w, "Settings error (%s):\n", config.KindOf(err))
	for _, e := range config.Unwrap(err) {
		fmt.Fprintf(w, "  %v\n", e)
	}
}
