// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics provides Prometheus metrics for the amset settings layer.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Label values are bounded: results are error kinds, mechanisms are the
// fixed scattering set. Option names never appear as labels.

var (
	// SettingsLoadTotal counts settings loads by result ("ok" or an error kind).
	SettingsLoadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "amset_settings_load_total",
		Help: "Total number of settings loads, by result.",
	}, []string{"result"})

	// SettingsReloadTotal counts hot reloads triggered by the watcher or CLI.
	SettingsReloadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "amset_settings_reload_total",
		Help: "Total number of settings reloads, by result.",
	}, []string{"result"})

	// SettingsChangedOptions counts options changed by successful reloads.
	SettingsChangedOptions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "amset_settings_changed_options_total",
		Help: "Total number of options changed across successful reloads.",
	})

	// ActiveMechanisms is 1 for each scattering mechanism selected by the current settings.
	ActiveMechanisms = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "amset_settings_active_mechanism",
		Help: "Scattering mechanisms selected by the current settings (1 = active).",
	}, []string{"mechanism"})

	// LastReloadTimestamp is the unix time of the last successful load or reload.
	LastReloadTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "amset_settings_last_load_timestamp_seconds",
		Help: "Unix timestamp of the last successful settings load.",
	})
)

// RecordLoad increments the load counter.
func RecordLoad(result string) {
	SettingsLoadTotal.WithLabelValues(result).Inc()
}

// RecordReload increments the reload counter and, on success, the changed-option counter.
func RecordReload(result string, changed int) {
	SettingsReloadTotal.WithLabelValues(result).Inc()
	if changed > 0 {
		SettingsChangedOptions.Add(float64(changed))
	}
}

// SetLoadedAt records the time of the last successful load.
func SetLoadedAt(unixSeconds float64) {
	LastReloadTimestamp.Set(unixSeconds)
}

// SetActiveMechanisms marks the given mechanisms active and every other
// mechanism in all inactive.
func SetActiveMechanisms(all, active []string) {
	on := make(map[string]bool, len(active))
	for _, m := range active {
		on[m] = true
	}
	for _, m := range all {
		v := 0.0
		if on[m] {
			v = 1
		}
		ActiveMechanisms.WithLabelValues(m).Set(v)
	}
}

// LoadCount returns the current value of the load counter for result.
func LoadCount(result string) float64 {
	var m dto.Metric
	if err := SettingsLoadTotal.WithLabelValues(result).Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

// ReloadCount returns the current value of the reload counter for result.
func ReloadCount(result string) float64 {
	var m dto.Metric
	if err := SettingsReloadTotal.WithLabelValues(result).Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

// ReloadTotals returns the reload counter per result, read from gatherer.
// Results that never occurred are absent; no series is created.
func ReloadTotals(gatherer prometheus.Gatherer) (map[string]float64, error) {
	families, err := gatherer.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}
	totals := make(map[string]float64)
	for _, mf := range families {
		if mf.GetName() != "amset_settings_reload_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "result" {
					totals[lp.GetValue()] += m.GetCounter().GetValue()
				}
			}
		}
	}
	return totals, nil
}

// WriteTextfile writes the default registry in text exposition format to
// path, for pickup by a node_exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
