// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	xglog "github.com/ManuGH/amset/internal/log"
	"github.com/ManuGH/amset/internal/metrics"
	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// DefaultDebounce is the quiet period after the last file event before a reload.
const DefaultDebounce = 500 * time.Millisecond

// Holder holds settings with atomic reloading capability.
// It provides thread-safe access and supports hot reloading from the
// settings file or a manual trigger.
type Holder struct {
	mu       sync.RWMutex
	current  *Settings
	loadedAt time.Time

	reloadMu sync.Mutex // serializes reloads
	loader   *Loader
	clock    clockwork.Clock
	debounce time.Duration
	logger   zerolog.Logger

	watchMu sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}

	listenersMu sync.RWMutex
	listeners   []chan<- *Settings
}

// HolderOption configures a Holder.
type HolderOption func(*Holder)

// WithHolderClock sets the clock used for timestamps and debouncing.
func WithHolderClock(c clockwork.Clock) HolderOption {
	return func(h *Holder) { h.clock = c }
}

// WithDebounce sets the watcher's debounce period.
func WithDebounce(d time.Duration) HolderOption {
	return func(h *Holder) { h.debounce = d }
}

// NewHolder creates a holder serving initial until the first reload.
func NewHolder(initial *Settings, loader *Loader, opts ...HolderOption) *Holder {
	h := &Holder{
		current:  initial,
		loader:   loader,
		clock:    clockwork.NewRealClock(),
		debounce: DefaultDebounce,
		logger:   xglog.WithComponent("config"),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.loadedAt = h.clock.Now()
	return h
}

// Get returns the current settings (thread-safe read).
func (h *Holder) Get() *Settings {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// LoadedAt returns when the current settings were installed.
func (h *Holder) LoadedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loadedAt
}

// Reload loads and validates the settings again. If loading fails the
// previous settings stay in place and the error is returned.
func (h *Holder) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	logger := xglog.WithContext(ctx, h.logger)
	logger.Info().Str(xglog.FieldEvent, "settings.reload_start").Msg("reloading settings")

	next, err := h.loader.Load()
	if err != nil {
		metrics.RecordReload(KindOf(err), 0)
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "settings.reload_failed").
			Str(xglog.FieldResult, KindOf(err)).
			Msg("new settings rejected, keeping previous settings")
		return fmt.Errorf("reload settings: %w", err)
	}

	h.mu.Lock()
	prev := h.current
	h.current = next
	h.loadedAt = h.clock.Now()
	h.mu.Unlock()

	summary := Diff(prev, next)
	metrics.RecordReload(KindOK, len(summary.Changes))
	h.notifyListeners(next)
	h.logChanges(logger, summary)

	logger.Info().
		Str(xglog.FieldEvent, "settings.reload_success").
		Int("changed", len(summary.Changes)).
		Bool("recompute_required", summary.RecomputeRequired).
		Msg("settings reloaded")
	return nil
}

// StartWatcher watches the settings file and reloads after changes.
// It is a no-op when the loader has no file. The watcher stops when ctx
// is cancelled or Stop is called.
func (h *Holder) StartWatcher(ctx context.Context) error {
	path := h.loader.Path()
	if path == "" {
		h.logger.Info().
			Str(xglog.FieldEvent, "settings.watcher_disabled").
			Msg("settings watcher disabled (no settings file)")
		return nil
	}

	h.watchMu.Lock()
	defer h.watchMu.Unlock()
	if h.watcher != nil {
		return errors.New("settings watcher already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// Watch the directory: editors replace the file rather than write it.
	abs, err := filepath.Abs(path)
	if err != nil {
		_ = watcher.Close()
		return fmt.Errorf("resolve settings path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch settings dir: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	h.watcher = watcher
	h.cancel = cancel
	h.done = make(chan struct{})

	h.logger.Info().
		Str(xglog.FieldEvent, "settings.watcher_started").
		Str(xglog.FieldPath, abs).
		Msg("watching settings file for changes")

	go h.watchLoop(ctx, watcher, abs, h.done)
	return nil
}

func (h *Holder) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, path string, done chan struct{}) {
	defer close(done)
	defer func() { _ = watcher.Close() }()

	var (
		timerMu sync.Mutex
		timer   clockwork.Timer
		pending sync.WaitGroup
	)
	defer func() {
		timerMu.Lock()
		if timer != nil && timer.Stop() {
			pending.Done()
		}
		timerMu.Unlock()
		pending.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str(xglog.FieldEvent, "settings.watcher_stopped").Msg("settings watcher stopped")
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			h.logger.Debug().
				Str(xglog.FieldEvent, "settings.file_changed").
				Str("op", event.Op.String()).
				Msg("settings file changed")

			timerMu.Lock()
			if timer != nil && timer.Stop() {
				pending.Done()
			}
			pending.Add(1)
			timer = h.clock.AfterFunc(h.debounce, func() {
				defer pending.Done()
				if err := h.Reload(ctx); err != nil && ctx.Err() == nil {
					h.logger.Error().
						Err(err).
						Str(xglog.FieldEvent, "settings.auto_reload_failed").
						Msg("automatic settings reload failed")
				}
			})
			timerMu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().
				Err(err).
				Str(xglog.FieldEvent, "settings.watcher_error").
				Msg("settings watcher error")
		}
	}
}

// Stop stops the watcher (if running) and waits for it to exit.
func (h *Holder) Stop() {
	h.watchMu.Lock()
	cancel, done := h.cancel, h.done
	h.watcher, h.cancel, h.done = nil, nil, nil
	h.watchMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Done is closed when the running watcher exits. It is nil when no
// watcher was started.
func (h *Holder) Done() <-chan struct{} {
	h.watchMu.Lock()
	defer h.watchMu.Unlock()
	return h.done
}

// RegisterListener registers a channel to receive settings after each
// successful reload. Sends never block; a full channel misses the update.
func (h *Holder) RegisterListener(ch chan<- *Settings) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()
	h.listeners = append(h.listeners, ch)
}

func (h *Holder) notifyListeners(next *Settings) {
	h.listenersMu.RLock()
	defer h.listenersMu.RUnlock()

	for _, ch := range h.listeners {
		select {
		case ch <- next:
		default:
			h.logger.Warn().
				Str(xglog.FieldEvent, "settings.listener_skip").
				Msg("skipped notifying listener (channel full)")
		}
	}
}

func (h *Holder) logChanges(logger zerolog.Logger, summary ChangeSummary) {
	for _, c := range summary.Changes {
		logger.Info().
			Str(xglog.FieldEvent, "settings.changed").
			Str(xglog.FieldOption, c.Option).
			Interface(xglog.FieldOldValue, c.Old).
			Interface(xglog.FieldNewValue, c.New).
			Str("scope", string(c.Scope)).
			Msg("setting changed")
	}
}
