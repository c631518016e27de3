package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_Disabled(t *testing.T) {
	require.NoError(t, Init(Options{Enabled: false}))
	assert.False(t, L.Enabled(t.Context(), slog.LevelError))
}

func TestInit_Writer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Enabled: true, Writer: &buf, Level: slog.LevelDebug}))
	t.Cleanup(func() { _ = Init(Options{}) })

	L.Debug("command", "kind", "request", "owner", "P0")
	assert.Contains(t, buf.String(), "msg=command")
	assert.Contains(t, buf.String(), "owner=P0")
}

func TestInit_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Enabled: true, Writer: &buf, Level: slog.LevelWarn}))
	t.Cleanup(func() { _ = Init(Options{}) })

	L.Info("hidden")
	L.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestInit_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memsim.log")
	require.NoError(t, Init(Options{Enabled: true, File: path, Level: slog.LevelInfo}))

	L.Info("compact", "moved", 3)
	require.NoError(t, Close())
	L = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &rec))
	assert.Equal(t, "compact", rec["msg"])
	assert.Equal(t, float64(3), rec["moved"])
}

func TestInit_FileError(t *testing.T) {
	err := Init(Options{Enabled: true, File: filepath.Join(t.TempDir(), "missing", "x.log")})
	require.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	require.Error(t, err)
}
