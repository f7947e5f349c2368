// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getGaugeVecValue(t *testing.T, gaugeVec *prometheus.GaugeVec, labels ...string) float64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, gaugeVec.WithLabelValues(labels...).Write(metric))
	return metric.GetGauge().GetValue()
}

func getCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, counter.Write(metric))
	return metric.GetCounter().GetValue()
}

func TestRecordLoad(t *testing.T) {
	before := LoadCount("range")
	RecordLoad("range")
	RecordLoad("range")
	assert.Equal(t, before+2, LoadCount("range"))
}

func TestRecordReload(t *testing.T) {
	okBefore := ReloadCount("ok")
	changedBefore := getCounterValue(t, SettingsChangedOptions)

	RecordReload("ok", 3)
	RecordReload("ok", 0)

	assert.Equal(t, okBefore+2, ReloadCount("ok"))
	assert.Equal(t, changedBefore+3, getCounterValue(t, SettingsChangedOptions))
}

func TestReloadTotals(t *testing.T) {
	before, err := ReloadTotals(prometheus.DefaultGatherer)
	require.NoError(t, err)

	RecordReload("ok", 1)
	RecordReload("range", 0)

	after, err := ReloadTotals(prometheus.DefaultGatherer)
	require.NoError(t, err)
	assert.Equal(t, before["ok"]+1, after["ok"])
	assert.Equal(t, before["range"]+1, after["range"])

	_, seen := after["missing_dependent_option"]
	assert.False(t, seen, "reading totals must not create series")
}

func TestSetActiveMechanisms(t *testing.T) {
	all := []string{"ACD", "PIE", "IMP", "DIS", "POP", "CRT", "MFP"}

	SetActiveMechanisms(all, []string{"ACD", "POP"})
	assert.Equal(t, 1.0, getGaugeVecValue(t, ActiveMechanisms, "ACD"))
	assert.Equal(t, 1.0, getGaugeVecValue(t, ActiveMechanisms, "POP"))
	assert.Equal(t, 0.0, getGaugeVecValue(t, ActiveMechanisms, "IMP"))

	SetActiveMechanisms(all, []string{"IMP"})
	assert.Equal(t, 0.0, getGaugeVecValue(t, ActiveMechanisms, "ACD"))
	assert.Equal(t, 1.0, getGaugeVecValue(t, ActiveMechanisms, "IMP"))
}

func TestWriteTextfile(t *testing.T) {
	RecordLoad("ok")
	SetLoadedAt(1_700_000_000)

	path := filepath.Join(t.TempDir(), "amset.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "amset_settings_load_total")
	assert.Contains(t, string(data), "amset_settings_last_load_timestamp_seconds")
}

func TestWriteTextfile_BadPath(t *testing.T) {
	err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "amset.prom"))
	assert.Error(t, err)
}
