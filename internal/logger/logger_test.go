package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestNewJSONFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn", true)
	l.Info("dropped")
	l.Warn("kept", "height", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "kept", rec["msg"])
	assert.EqualValues(t, 3, rec["height"])
}

func TestSetDefaultUsedByHelpers(t *testing.T) {
	prev := Get()
	defer SetDefault(prev)

	var buf bytes.Buffer
	SetDefault(New(&buf, "debug", false))
	With("component", "test").Debug("hello")
	assert.Contains(t, buf.String(), "component=test")
	assert.Contains(t, buf.String(), "msg=hello")
}
