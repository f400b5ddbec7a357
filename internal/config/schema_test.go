package config

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaKeysUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, f := range Schema {
		assert.False(t, seen[f.Key], "duplicate key %s", f.Key)
		seen[f.Key] = true
		assert.NotEmpty(t, f.Label, f.Key)
	}
}

func TestSchemaDefaults(t *testing.T) {
	f, ok := Lookup("relative.reset_time")
	require.True(t, ok)
	assert.Equal(t, KindDuration, f.Kind)
	assert.Equal(t, 100*time.Millisecond, f.Default)

	f, ok = Lookup(" Relative.X_Sensitivity ")
	require.True(t, ok)
	assert.Equal(t, 1.0, f.Default)
}

func TestSetAndGet(t *testing.T) {
	cfg := NewConfig()

	require.NoError(t, Set(cfg, "relative.x_sensitivity", "2.5"))
	require.NoError(t, Set(cfg, "relative.reset_time", "250ms"))
	require.NoError(t, Set(cfg, "tablet.active_report_id", 3))
	require.NoError(t, Set(cfg, "source.grab", "true"))
	require.NoError(t, Set(cfg, "source.serial.baud_rate", "115200"))
	require.NoError(t, Set(cfg, "cursor.backend", "memory"))

	assert.Equal(t, 2.5, cfg.Relative.XSensitivity)
	assert.Equal(t, 250*time.Millisecond, cfg.Settings().ResetTime)
	assert.Equal(t, uint32(3), cfg.Tablet.ActiveReportID)
	assert.True(t, cfg.Source.Grab)
	assert.Equal(t, 115200, cfg.Source.Serial.BaudRate)

	v, err := Get(cfg, "cursor.backend")
	require.NoError(t, err)
	assert.Equal(t, "memory", v)

	require.NoError(t, Set(cfg, "relative.reset_time", 40))
	v, err = Get(cfg, "relative.reset_time")
	require.NoError(t, err)
	assert.Equal(t, 40*time.Millisecond, v)
}

func TestSetRejects(t *testing.T) {
	cfg := NewConfig()
	assert.Error(t, Set(cfg, "tablet.colour", 1))
	assert.Error(t, Set(cfg, "tablet.max_x", "wide"))
	assert.Error(t, Set(cfg, "tablet.active_report_id", -1))
	assert.Error(t, Set(cfg, "relative.reset_time", "later"))
	assert.ErrorContains(t, Set(cfg, "relative.reset_time", math.Inf(1)), "finite")
	assert.ErrorContains(t, Set(cfg, "relative.reset_time", "NaN"), "finite")
	assert.Equal(t, 100*time.Millisecond, time.Duration(cfg.Relative.ResetTime))
	_, err := Get(cfg, "nope")
	assert.Error(t, err)
}
