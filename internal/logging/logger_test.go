package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "json", Output: &buf})
	require.NoError(t, err)

	logger.Debug("cursor moved", "x", 10)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "cursor moved", record["msg"])
	assert.Equal(t, "DEBUG", record["level"])
	assert.Equal(t, float64(10), record["x"])

	ts, ok := record["time"].(string)
	require.True(t, ok)
	_, err = time.Parse(time.RFC3339, ts)
	assert.NoError(t, err)
	assert.True(t, strings.HasSuffix(ts, "Z"))
}

func TestNewTextLoggerFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "console", Output: &buf})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
	_, err = New(Options{Format: "xml"})
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	lvl, err := NormalizeLevel(" WARNING ")
	require.NoError(t, err)
	assert.Equal(t, "warn", lvl)

	lvl, err = NormalizeLevel("")
	require.NoError(t, err)
	assert.Equal(t, "info", lvl)

	format, err := NormalizeFormat("Console")
	require.NoError(t, err)
	assert.Equal(t, "text", format)
}
