package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/LavaJover/shvark-product-service/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FileOutputJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.log")
	log, closeLog, err := New(config.LogConfig{LogLevel: "debug", LogFormat: "json", LogOutput: path})
	require.NoError(t, err)

	log.Debug("consumed message", "payload", "A")
	require.NoError(t, closeLog())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(raw), &entry))
	assert.Equal(t, "consumed message", entry["msg"])
	assert.Equal(t, "A", entry["payload"])
	assert.Equal(t, "DEBUG", entry["level"])
}

func TestNew_InvalidLevel(t *testing.T) {
	_, _, err := New(config.LogConfig{LogLevel: "loud"})
	require.Error(t, err)
}

func TestNewHandler_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newHandler("text", &buf, slog.LevelWarn))
	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
