// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/amset/internal/config"
	"github.com/ManuGH/amset/internal/testutil"
	"github.com/ManuGH/amset/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lockedBuffer is safe for concurrent writes from the watcher goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type result struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, environ []string, args ...string) result {
	t.Helper()
	var stdout, stderr lockedBuffer
	code := run(context.Background(), args, environ, &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func TestValidate_Defaults(t *testing.T) {
	res := runCLI(t, nil, "settings", "validate")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "✓ defaults is valid")
	assert.Contains(t, res.stdout, "mechanisms: none")
	assert.Contains(t, res.stdout, "gap: unset")
}

func TestValidate_File(t *testing.T) {
	path := testutil.WriteFile(t, "settings.yaml", `
scattering_type: [ACD, POP]
deformation_potential: 6.5
elastic_constant: 190
pop_frequency: 8.2
high_frequency_dielectric: 10.1
static_dielectric: 12.9
scissor: 0.4
`)
	res := runCLI(t, nil, "settings", "validate", "--settings", path)
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "✓ "+path+" is valid")
	assert.Contains(t, res.stdout, "mechanisms: ACD, POP")
	assert.Contains(t, res.stdout, "gap: scissor=0.4 eV")
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		kind string
	}{
		{
			name: "unknown option",
			args: []string{"--set", "not_an_option=1"},
			kind: config.KindUnknownOption,
		},
		{
			name: "type mismatch",
			args: []string{"--set", "soc=maybe"},
			kind: config.KindTypeMismatch,
		},
		{
			name: "conflict",
			args: []string{"--set", "scissor=0.2", "--set", "bandgap=1.1"},
			kind: config.KindConflictingOption,
		},
		{
			name: "range",
			args: []string{"--set", "energy_cutoff=-1"},
			kind: config.KindRange,
		},
		{
			name: "missing dependency",
			args: []string{"--set", "scattering_type=[POP]"},
			kind: config.KindMissingDependentOption,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"settings", "validate"}, tt.args...)
			res := runCLI(t, nil, args...)
			assert.Equal(t, exitInvalid, res.code)
			assert.Contains(t, res.stderr, "Settings error ("+tt.kind+")")
			assert.NotContains(t, res.stdout, "is valid")
		})
	}
}

func TestValidate_MissingDependencyNamesFieldAndMechanism(t *testing.T) {
	res := runCLI(t, nil, "settings", "validate", "--set", "scattering_type=[POP]")
	require.Equal(t, exitInvalid, res.code)
	assert.Contains(t, res.stderr, "pop_frequency")
	assert.Contains(t, res.stderr, "POP")
}

func TestValidate_UsageErrors(t *testing.T) {
	tests := []struct {
		name    string
		environ []string
		args    []string
	}{
		{name: "bad assignment", args: []string{"settings", "validate", "--set", "soc"}},
		{name: "unknown flag", args: []string{"settings", "validate", "--nope"}},
		{name: "bad log level", args: []string{"settings", "validate", "--log-level", "loud"}},
		{name: "bad log format env", environ: []string{"AMSET_LOG_FORMAT=xml"}, args: []string{"settings", "validate"}},
		{name: "bad dump format", args: []string{"settings", "dump", "--format", "ini"}},
		{name: "write without output", args: []string{"settings", "write"}},
		{name: "watch without file", args: []string{"settings", "watch"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, tt.environ, tt.args...)
			assert.Equal(t, exitUsage, res.code, res.stderr)
			assert.Contains(t, res.stderr, "Error:")
		})
	}
}

func TestValidate_EnvironmentLayer(t *testing.T) {
	path := testutil.WriteFile(t, "settings.yaml", "energy_cutoff: 2.0\n")
	environ := []string{
		"AMSET_SETTINGS=" + path,
		"AMSET_LOG_LEVEL=debug",
		"AMSET_ENERGY_CUTOFF=-3",
	}
	res := runCLI(t, environ, "settings", "validate")
	assert.Equal(t, exitInvalid, res.code)
	assert.Contains(t, res.stderr, "energy_cutoff")

	res = runCLI(t, environ, "settings", "validate", "--set", "energy_cutoff=1.0")
	assert.Equal(t, exitOK, res.code, res.stderr)
}

func TestValidate_StrictEnv(t *testing.T) {
	environ := []string{"AMSET_NOT_AN_OPTION=1"}

	res := runCLI(t, environ, "settings", "validate")
	assert.Equal(t, exitOK, res.code, res.stderr)

	res = runCLI(t, environ, "settings", "validate", "--strict-env")
	assert.Equal(t, exitInvalid, res.code)
	assert.Contains(t, res.stderr, "Settings error (unknown_option)")
}

func TestValidate_WriteInput(t *testing.T) {
	dir := t.TempDir()
	res := runCLI(t, nil, "settings", "validate", "--set", "write_input=true", "--output", dir)
	require.Equal(t, exitOK, res.code, res.stderr)

	path := filepath.Join(dir, config.InputFileName)
	assert.Contains(t, res.stdout, "wrote "+path)
	m, err := config.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, true, m["write_input"])
}

func TestValidate_MetricsTextfile(t *testing.T) {
	textfile := filepath.Join(t.TempDir(), "amset.prom")
	res := runCLI(t, []string{"AMSET_METRICS_TEXTFILE=" + textfile}, "settings", "validate")
	require.Equal(t, exitOK, res.code, res.stderr)

	data, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "amset_settings_load_total")
}

func TestDump_Formats(t *testing.T) {
	for _, format := range dumpFormats {
		t.Run(format, func(t *testing.T) {
			res := runCLI(t, nil, "settings", "dump", "--format", format, "--set", "temperatures=[200, 300]")
			require.Equal(t, exitOK, res.code, res.stderr)

			m, err := config.Decode(strings.NewReader(res.stdout), format)
			require.NoError(t, err)
			s, err := config.Load(m)
			require.NoError(t, err)
			assert.Equal(t, []float64{200, 300}, s.Temperatures())
		})
	}
}

func TestDiff(t *testing.T) {
	res := runCLI(t, nil, "settings", "diff")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Equal(t, "no changes from defaults\n", res.stdout)

	res = runCLI(t, nil, "settings", "diff", "--set", "nworkers=4", "--set", "bandgap=1.2")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "bandgap [physics]: null -> 1.2\n")
	assert.Contains(t, res.stdout, "nworkers [runtime]: -1 -> 4\n")
	assert.Contains(t, res.stdout, "results must be recomputed")

	res = runCLI(t, nil, "settings", "diff", "--set", "nworkers=4")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.NotContains(t, res.stdout, "recomputed")
}

func TestExample(t *testing.T) {
	res := runCLI(t, nil, "settings", "example")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Equal(t, string(config.DefaultsDocument()), res.stdout)
}

func TestSchema(t *testing.T) {
	res := runCLI(t, nil, "settings", "schema")
	require.Equal(t, exitOK, res.code, res.stderr)

	want, err := config.SchemaJSON()
	require.NoError(t, err)
	assert.JSONEq(t, string(want), res.stdout)
}

func TestWrite(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out", "settings.json")
	res := runCLI(t, nil, "settings", "write", "-o", out, "--set", "symprec=0.001")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Equal(t, "wrote "+out+"\n", res.stdout)

	m, err := config.ReadFile(out)
	require.NoError(t, err)
	s, err := config.Load(m)
	require.NoError(t, err)
	assert.InDelta(t, 0.001, s.Symprec(), 1e-12)
}

func TestPrintLog_SilencesInfo(t *testing.T) {
	out := filepath.Join(t.TempDir(), "settings.yaml")

	res := runCLI(t, nil, "settings", "write", "-o", out)
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stderr, "INF", "info logs are printed by default")

	res = runCLI(t, nil, "settings", "write", "-o", out, "--set", "print_log=false")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.NotContains(t, res.stderr, "INF")
	assert.Equal(t, "wrote "+out+"\n", res.stdout)

	res = runCLI(t, []string{"AMSET_LOG_FORMAT=json"}, "settings", "validate", "--set", "print_log=false", "--set", "symprec=0")
	assert.Equal(t, exitInvalid, res.code)
	assert.Contains(t, res.stderr, "Settings error (range)", "errors are still printed")
}

func TestWrite_UnsupportedExtension(t *testing.T) {
	res := runCLI(t, nil, "settings", "write", "-o", filepath.Join(t.TempDir(), "settings.ini"))
	assert.Equal(t, exitUsage, res.code)
	assert.Contains(t, res.stderr, "unsupported settings file extension")
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	path := testutil.WriteFile(t, "settings.yaml", "energy_cutoff: 1.5\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stdout, stderr lockedBuffer
	codes := make(chan int, 1)
	go func() {
		codes <- run(ctx, []string{"settings", "watch", "--settings", path, "--debounce", "20ms"}, nil, &stdout, &stderr)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "watching "+path)
	}, 2*time.Second, 10*time.Millisecond)

	content := `
scattering_type: [CRT]
constant_relaxation_time: 1.0e-14
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "reloaded "+path+" (mechanisms: CRT)")
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case code := <-codes:
		assert.Equal(t, exitOK, code, stderr.String())
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}
}

func TestVersionFlag(t *testing.T) {
	res := runCLI(t, nil, "--version")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "amset version "+version.Version)
}

func TestValidate_Examples(t *testing.T) {
	files, err := filepath.Glob(filepath.Join(testutil.MustRepoRoot(t), "examples", "*"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			res := runCLI(t, nil, "settings", "validate", "-s", file)
			assert.Equal(t, exitOK, res.code, res.stderr)
		})
	}
}

func TestWatch_ReloadAppliesPrintLog(t *testing.T) {
	path := testutil.WriteFile(t, "settings.yaml", "print_log: true\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stdout, stderr lockedBuffer
	codes := make(chan int, 1)
	go func() {
		codes <- run(ctx, []string{"settings", "watch", "--settings", path, "--debounce", "20ms"}, nil, &stdout, &stderr)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(stderr.String(), "watching settings file")
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("print_log: false\nsymprec: 0.02\n"), 0o600))
	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "reloaded "+path)
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case code := <-codes:
		assert.Equal(t, exitOK, code, stderr.String())
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}
	assert.NotContains(t, stderr.String(), "settings reloaded")
	assert.NotContains(t, stderr.String(), "stopped watching settings file")
}
