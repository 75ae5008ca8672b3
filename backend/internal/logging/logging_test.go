package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"trace", LevelTrace},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestSetupSplitsConsoleBySeverity(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger, closer, err := Setup(Options{Level: "debug", Stdout: &stdout, Stderr: &stderr})
	require.NoError(t, err)
	defer closer.Close()

	logger.Debug("pointer down", "id", 1)
	logger.Log(t.Context(), LevelTrace, "hidden")
	logger.Error("save failed")

	assert.Contains(t, stdout.String(), "pointer down")
	assert.NotContains(t, stdout.String(), "hidden")
	assert.NotContains(t, stdout.String(), "save failed")
	assert.Contains(t, stderr.String(), "save failed")
	assert.NotContains(t, stderr.String(), "pointer down")
}

func TestSetupWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "touchremote.log")
	var stdout, stderr bytes.Buffer
	logger, closer, err := Setup(Options{Level: "trace", File: path, JSON: true, Stdout: &stdout, Stderr: &stderr})
	require.NoError(t, err)

	logger.With("panel", "c1").Log(t.Context(), LevelTrace, "frame")
	logger.Error("boom")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"level":"TRACE"`)
	assert.Contains(t, string(data), `"panel":"c1"`)
	assert.Contains(t, string(data), `"msg":"boom"`)
	assert.Contains(t, stdout.String(), `"msg":"frame"`)
}
