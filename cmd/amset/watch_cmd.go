// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ManuGH/amset/internal/config"
	xglog "github.com/ManuGH/amset/internal/log"
	"github.com/ManuGH/amset/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newWatchCmd(a *app) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reload the settings file whenever it changes",
		Long: "Watch keeps the last valid settings and reloads them when the file changes " +
			"or on SIGHUP. Invalid edits are logged and ignored.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.watch(cmd, debounce)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", config.DefaultDebounce, "quiet period before a changed file is reloaded")
	return cmd
}

func (a *app) watch(cmd *cobra.Command, debounce time.Duration) error {
	if a.settingsPath == "" {
		return usagef("watch needs a settings file (--settings or AMSET_SETTINGS)")
	}
	if debounce <= 0 {
		return usagef("--debounce must be positive")
	}

	s, loader, err := a.load(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	holder := config.NewHolder(s, loader, config.WithDebounce(debounce))
	updates := make(chan *config.Settings, 1)
	holder.RegisterListener(updates)

	if err := holder.StartWatcher(ctx); err != nil {
		return fmt.Errorf("start settings watcher: %w", err)
	}
	defer holder.Stop()

	a.logger.Info().
		Str(xglog.FieldEvent, "settings.watch.start").
		Str(xglog.FieldPath, loader.Path()).
		Msg("watching settings file")
	fmt.Fprintf(a.stdout, "watching %s (mechanisms: %s)\n", loader.Path(), formatMechanisms(s.Mechanisms()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case next := <-updates:
				a.writeMetrics()
				fmt.Fprintf(a.stdout, "reloaded %s (mechanisms: %s)\n", loader.Path(), formatMechanisms(next.Mechanisms()))
			}
		}
	})
	g.Go(func() error {
		return a.reloadOnHangup(gctx, holder)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	event := a.logger.Info().Str(xglog.FieldEvent, "settings.watch.stop")
	if totals, err := metrics.ReloadTotals(prometheus.DefaultGatherer); err == nil {
		var total float64
		for _, n := range totals {
			total += n
		}
		event = event.Float64("reloads_ok", totals[config.KindOK]).Float64("reloads_total", total)
	}
	event.Msg("stopped watching settings file")
	return nil
}

// reloadOnHangup reloads the settings on SIGHUP until ctx is done.
func (a *app) reloadOnHangup(ctx context.Context, holder *config.Holder) error {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			if err := holder.Reload(ctx); err != nil {
				a.writeMetrics()
				a.logger.Warn().Err(err).
					Str(xglog.FieldEvent, "settings.reload.signal").
					Msg("reload on SIGHUP failed, keeping previous settings")
			}
		}
	}
}
