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
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for name, want := range tests {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLevel("trace")
	require.Error(t, err)
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(slog.LevelWarn, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "file", "a.x12")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "file=a.x12")
}

func TestOpenTeesToFile(t *testing.T) {
	var stderr bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "x12dec.log")

	logger, closeFn, err := Open("info", path, &stderr)
	require.NoError(t, err)
	logger.Info("decoded", "interchanges", 2)
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "interchanges=2")
	assert.Contains(t, stderr.String(), "interchanges=2")
}

func TestOpenWithoutFile(t *testing.T) {
	var stderr bytes.Buffer
	logger, closeFn, err := Open("debug", "", &stderr)
	require.NoError(t, err)
	logger.Debug("ping")
	assert.NoError(t, closeFn())
	assert.Contains(t, stderr.String(), "ping")

	_, _, err = Open("loud", "", &stderr)
	require.Error(t, err)
}
