package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/docfilter/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNew_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := New(config.LogConfig{Level: "warn"}, &buf)
	require.NoError(t, err)
	defer func() { _ = closeFn() }()

	logger.Info("hidden")
	logger.Warn("shown", "view", "inbox")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "view=inbox")
}

func TestNew_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docfilter.log")
	logger, closeFn, err := New(config.LogConfig{Level: "debug", File: path, MaxSizeMB: 1}, nil)
	require.NoError(t, err)

	logger.Debug("ignoring filter rule", "rule_type", 99)
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "rule_type=99")
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, _, err := New(config.LogConfig{Level: "chatty"}, nil)
	assert.Error(t, err)
}
