package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestBuildJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := build("debug", "json", zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Debug("scored", zap.String("word", "Haus"))
	require.NoError(t, logger.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "scored", entry["msg"])
	assert.Equal(t, "Haus", entry["word"])
	assert.Equal(t, "debug", entry["level"])
	assert.Contains(t, entry, "ts")
}

func TestBuildConsoleFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := build("WARN", "console", zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.Contains(out, "WARN") && strings.Contains(out, "shown"), out)
}

func TestBuildErrors(t *testing.T) {
	_, err := build("loud", "json", zapcore.AddSync(&bytes.Buffer{}))
	assert.Error(t, err)

	_, err = build("info", "xml", zapcore.AddSync(&bytes.Buffer{}))
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	logger, err := FromConfig(DefaultConfig())
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}
