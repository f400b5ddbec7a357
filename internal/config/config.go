package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/vedantwpatil/tabletd/internal/cursor"
	"github.com/vedantwpatil/tabletd/internal/filter"
	"github.com/vedantwpatil/tabletd/internal/logging"
	"github.com/vedantwpatil/tabletd/internal/relative"
	"github.com/vedantwpatil/tabletd/internal/tablet"
	"github.com/vedantwpatil/tabletd/internal/tracking"
)

const DefaultFileName = "tabletd.yaml"

// Config holds everything the daemon reads at startup.
type Config struct {
	Tablet   TabletConfig   `yaml:"tablet" toml:"tablet"`
	Relative RelativeConfig `yaml:"relative" toml:"relative"`
	Filters  []FilterConfig `yaml:"filters" toml:"filters"`
	Cursor   CursorConfig   `yaml:"cursor" toml:"cursor"`
	Source   SourceConfig   `yaml:"source" toml:"source"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`

	// Origin indicates where the configuration came from (defaults or a file path).
	Origin string `yaml:"-" toml:"-"`
}

// TabletConfig is the active area of the tablet. All-zero extents with an
// evdev source mean "ask the device".
type TabletConfig struct {
	ActiveReportID uint32  `yaml:"active_report_id" toml:"active_report_id"`
	MaxX           float64 `yaml:"max_x" toml:"max_x"`
	MaxY           float64 `yaml:"max_y" toml:"max_y"`
	Width          float64 `yaml:"width" toml:"width"`
	Height         float64 `yaml:"height" toml:"height"`
}

type RelativeConfig struct {
	XSensitivity float64  `yaml:"x_sensitivity" toml:"x_sensitivity"`
	YSensitivity float64  `yaml:"y_sensitivity" toml:"y_sensitivity"`
	ResetTime    Duration `yaml:"reset_time" toml:"reset_time"`
}

// FilterConfig selects a registered filter kind and its parameters.
type FilterConfig struct {
	Kind   string         `yaml:"kind" toml:"kind"`
	Params map[string]any `yaml:"params" toml:"params"`
}

type CursorConfig struct {
	Backend string `yaml:"backend" toml:"backend"`
}

type SourceConfig struct {
	Kind     string               `yaml:"kind" toml:"kind"`
	Path     string               `yaml:"path" toml:"path"`
	ReportID uint32               `yaml:"report_id" toml:"report_id"`
	Grab     bool                 `yaml:"grab" toml:"grab"`
	Serial   tracking.PortOptions `yaml:"serial" toml:"serial"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Duration accepts Go duration strings ("100ms", "1.5s"). A bare number is
// read as milliseconds.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if ms, err := cast.ToFloat64E(s); err == nil {
		parsed, err := millis(ms)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func millis(ms float64) (Duration, error) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return 0, fmt.Errorf("duration must be finite, got %g ms", ms)
	}
	return Duration(ms * float64(time.Millisecond)), nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// NewConfig returns the baseline configuration used when no file is supplied.
func NewConfig() *Config {
	return &Config{
		Tablet: TabletConfig{
			MaxX:   15200,
			MaxY:   9500,
			Width:  152,
			Height: 95,
		},
		Relative: RelativeConfig{
			XSensitivity: 1,
			YSensitivity: 1,
			ResetTime:    Duration(relative.DefaultResetTime),
		},
		Cursor: CursorConfig{
			Backend: cursor.BackendAuto,
		},
		Source: SourceConfig{
			Kind:     tracking.KindSerial,
			ReportID: 1,
			Serial:   tracking.PortOptions{BaudRate: 19200},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Origin: "<defaults>",
	}
}

// Load reads configuration from disk, YAML or TOML depending on the file
// extension. When path is empty the loader tries ./tabletd.yaml and tolerates
// a missing file.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	candidate := strings.TrimSpace(path)
	explicit := candidate != ""
	if !explicit {
		candidate = DefaultFileName
	}

	data, err := os.ReadFile(candidate)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if explicit {
				return cfg, fmt.Errorf("config file %q not found", candidate)
			}
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config file %q: %w", candidate, err)
	}

	if err := decode(candidate, data, cfg); err != nil {
		return cfg, err
	}
	cfg.Origin = candidate
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse yaml config %q: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("parse toml config %q: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
	return nil
}

func (c *Config) normalize() {
	c.Cursor.Backend = strings.ToLower(strings.TrimSpace(c.Cursor.Backend))
	if c.Cursor.Backend == "" {
		c.Cursor.Backend = cursor.BackendAuto
	}
	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))
	c.Source.Path = strings.TrimSpace(c.Source.Path)
	for i := range c.Filters {
		c.Filters[i].Kind = strings.ToLower(strings.TrimSpace(c.Filters[i].Kind))
	}
	if lvl, err := logging.NormalizeLevel(c.Logging.Level); err == nil {
		c.Logging.Level = lvl
	}
	if format, err := logging.NormalizeFormat(c.Logging.Format); err == nil {
		c.Logging.Format = format
	}
}

// Validate ensures every value is usable. It does not check that the source
// can be opened; see ValidateRun.
func (c *Config) Validate() error {
	if !c.ProbeGeometry() {
		if err := c.Properties().Validate(); err != nil {
			return fmt.Errorf("tablet: %w", err)
		}
	}
	if err := c.Settings().Validate(); err != nil {
		return fmt.Errorf("relative: %w", err)
	}

	known := filter.Kinds()
	for i, f := range c.Filters {
		if !contains(known, f.Kind) {
			return fmt.Errorf("filters[%d]: unknown kind %q (known: %s)", i, f.Kind, strings.Join(known, ", "))
		}
	}

	switch c.Cursor.Backend {
	case cursor.BackendAuto, cursor.BackendQuartz, cursor.BackendRobotgo, cursor.BackendMemory:
	default:
		return fmt.Errorf("cursor.backend: unknown backend %q", c.Cursor.Backend)
	}

	switch c.Source.Kind {
	case tracking.KindHook, tracking.KindEvdev:
	case tracking.KindSerial:
		if _, err := c.Source.Serial.Normalize(); err != nil {
			return fmt.Errorf("source.serial: %w", err)
		}
	default:
		return fmt.Errorf("source.kind: unknown source %q", c.Source.Kind)
	}

	if _, err := logging.NormalizeLevel(c.Logging.Level); err != nil {
		return err
	}
	if _, err := logging.NormalizeFormat(c.Logging.Format); err != nil {
		return err
	}
	return nil
}

// ValidateRun adds the checks that only matter when the pipeline is started.
func (c *Config) ValidateRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	switch c.Source.Kind {
	case tracking.KindSerial, tracking.KindEvdev:
		if c.Source.Path == "" {
			return fmt.Errorf("source.path must be set for a %s source", c.Source.Kind)
		}
	case tracking.KindHook:
		// The hook observes the cursor the pipeline moves.
		if c.Cursor.Backend != cursor.BackendMemory {
			return errors.New("the hook source needs the memory cursor backend (use run -dry-run)")
		}
	}
	return nil
}

// ProbeGeometry reports whether tablet geometry should be read from the device.
func (c *Config) ProbeGeometry() bool {
	t := c.Tablet
	return c.Source.Kind == tracking.KindEvdev && t.MaxX == 0 && t.MaxY == 0 && t.Width == 0 && t.Height == 0
}

// Properties converts the tablet section.
func (c *Config) Properties() tablet.Properties {
	return tablet.Properties{
		ActiveReportID: c.Tablet.ActiveReportID,
		MaxX:           c.Tablet.MaxX,
		MaxY:           c.Tablet.MaxY,
		Width:          c.Tablet.Width,
		Height:         c.Tablet.Height,
	}
}

// Settings converts the relative section.
func (c *Config) Settings() relative.Settings {
	return relative.Settings{
		XSensitivity: c.Relative.XSensitivity,
		YSensitivity: c.Relative.YSensitivity,
		ResetTime:    time.Duration(c.Relative.ResetTime),
	}
}

// BuildFilters constructs the configured filters in order.
func (c *Config) BuildFilters(env filter.Env) ([]filter.Filter, error) {
	filters := make([]filter.Filter, 0, len(c.Filters))
	for i, fc := range c.Filters {
		f, err := filter.New(fc.Kind, fc.Params, env)
		if err != nil {
			return nil, fmt.Errorf("filters[%d]: %w", i, err)
		}
		filters = append(filters, f)
	}
	return filters, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
