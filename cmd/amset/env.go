// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v10"
)

// cliEnv holds the command's own environment. These AMSET_* names are
// not settings options.
type cliEnv struct {
	LogLevel        string `env:"AMSET_LOG_LEVEL" envDefault:"info"`
	LogFormat       string `env:"AMSET_LOG_FORMAT" envDefault:"console"`
	Settings        string `env:"AMSET_SETTINGS"`
	MetricsTextfile string `env:"AMSET_METRICS_TEXTFILE"`
	StrictEnv       bool   `env:"AMSET_STRICT_ENV" envDefault:"false"`
}

var reservedEnvKeys = []string{
	"AMSET_LOG_LEVEL",
	"AMSET_LOG_FORMAT",
	"AMSET_SETTINGS",
	"AMSET_METRICS_TEXTFILE",
	"AMSET_STRICT_ENV",
}

func parseCLIEnv(environ []string) (cliEnv, error) {
	vars := make(map[string]string, len(environ))
	for _, pair := range environ {
		if k, v, ok := strings.Cut(pair, "="); ok {
			vars[k] = v
		}
	}

	var cfg cliEnv
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return cliEnv{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
