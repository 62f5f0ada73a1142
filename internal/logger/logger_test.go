package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(&Config{Level: "debug", Format: FormatText, Component: "test", Output: &buf})
	t.Cleanup(func() { Init(&Config{Level: "info", Format: FormatText}) })

	Info("hello grape", "key", "value")

	out := buf.String()
	assert.Contains(t, out, "hello grape")
	assert.Contains(t, out, "component=test")
	assert.Contains(t, out, "key=value")
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(&Config{Level: "info", Format: FormatJSON, Output: &buf})
	t.Cleanup(func() { Init(&Config{Level: "info", Format: FormatText}) })

	With("user_id", "abc").Warn("like rejected")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "like rejected", entry["msg"])
	assert.Equal(t, "abc", entry["user_id"])
	assert.Equal(t, "WARN", entry["level"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(&Config{Level: "error", Format: FormatText, Output: &buf})
	t.Cleanup(func() { Init(&Config{Level: "info", Format: FormatText}) })

	Info("dropped")
	Debug("dropped too")
	assert.Empty(t, buf.String())

	Error("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel(" DEBUG "))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
}
