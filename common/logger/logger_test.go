package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSONCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug", "json")

	log.WithBuildID("b-1").WithLocationID(42).Warn("parent missing", "parent_id", 7)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "b-1", line["build_id"])
	assert.EqualValues(t, 42, line["location_id"])
	assert.EqualValues(t, 7, line["parent_id"])
	assert.Equal(t, "parent missing", line["msg"])
}

func TestWithContext_TraceID(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "json")

	ctx := context.WithValue(context.Background(), TraceIDKey, "abc")
	log.WithContext(ctx).Info("hello")

	assert.Contains(t, buf.String(), `"trace_id":"abc"`)
}

func TestError_AddsStack(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "json")

	log.Error("boom")

	assert.Contains(t, buf.String(), `"stack"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}
