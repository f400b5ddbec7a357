package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Kind names the value type a settings field accepts.
type Kind string

const (
	KindFloat    Kind = "float"
	KindUint     Kind = "uint"
	KindInt      Kind = "int"
	KindBool     Kind = "bool"
	KindString   Kind = "string"
	KindDuration Kind = "duration"
)

// Field describes one user-settable value.
type Field struct {
	Key     string
	Kind    Kind
	Default any
	Label   string

	get func(*Config) any
	set func(*Config, any) error
}

// Schema lists every scalar setting in display order. Filters are configured
// as a list and are not part of it.
var Schema = []Field{
	floatField("tablet.max_x", "Digitizer width in device units", func(c *Config) *float64 { return &c.Tablet.MaxX }),
	floatField("tablet.max_y", "Digitizer height in device units", func(c *Config) *float64 { return &c.Tablet.MaxY }),
	floatField("tablet.width", "Active area width (mm)", func(c *Config) *float64 { return &c.Tablet.Width }),
	floatField("tablet.height", "Active area height (mm)", func(c *Config) *float64 { return &c.Tablet.Height }),
	uintField("tablet.active_report_id", "Discard reports with an id at or below this (0 disables)", func(c *Config) *uint32 { return &c.Tablet.ActiveReportID }),
	floatField("relative.x_sensitivity", "X sensitivity (px/mm)", func(c *Config) *float64 { return &c.Relative.XSensitivity }),
	floatField("relative.y_sensitivity", "Y sensitivity (px/mm)", func(c *Config) *float64 { return &c.Relative.YSensitivity }),
	durationField("relative.reset_time", "Reset time", func(c *Config) *Duration { return &c.Relative.ResetTime }),
	stringField("cursor.backend", "Cursor backend (auto, quartz, robotgo, memory)", func(c *Config) *string { return &c.Cursor.Backend }),
	stringField("source.kind", "Report source (hook, serial, evdev)", func(c *Config) *string { return &c.Source.Kind }),
	stringField("source.path", "Device path", func(c *Config) *string { return &c.Source.Path }),
	uintField("source.report_id", "Report id stamped on hook and evdev reports", func(c *Config) *uint32 { return &c.Source.ReportID }),
	boolField("source.grab", "Grab the evdev device exclusively", func(c *Config) *bool { return &c.Source.Grab }),
	intField("source.serial.baud_rate", "Serial baud rate", func(c *Config) *int { return &c.Source.Serial.BaudRate }),
	intField("source.serial.data_bits", "Serial data bits", func(c *Config) *int { return &c.Source.Serial.DataBits }),
	intField("source.serial.stop_bits", "Serial stop bits", func(c *Config) *int { return &c.Source.Serial.StopBits }),
	stringField("source.serial.parity", "Serial parity (N, E, O)", func(c *Config) *string { return &c.Source.Serial.Parity }),
	stringField("logging.level", "Log level", func(c *Config) *string { return &c.Logging.Level }),
	stringField("logging.format", "Log format (json, text)", func(c *Config) *string { return &c.Logging.Format }),
}

func init() {
	defaults := NewConfig()
	for i := range Schema {
		Schema[i].Default = Schema[i].get(defaults)
	}
}

// Lookup finds the field registered under key.
func Lookup(key string) (Field, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, f := range Schema {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Get returns the current value of key.
func Get(cfg *Config, key string) (any, error) {
	f, ok := Lookup(key)
	if !ok {
		return nil, fmt.Errorf("unknown setting %q", key)
	}
	return f.get(cfg), nil
}

// Set coerces value to the field's kind and stores it. The config is not
// revalidated.
func Set(cfg *Config, key string, value any) error {
	f, ok := Lookup(key)
	if !ok {
		return fmt.Errorf("unknown setting %q", key)
	}
	if err := f.set(cfg, value); err != nil {
		return fmt.Errorf("setting %s: %w", f.Key, err)
	}
	return nil
}

func floatField(key, label string, ptr func(*Config) *float64) Field {
	return Field{
		Key: key, Kind: KindFloat, Label: label,
		get: func(c *Config) any { return *ptr(c) },
		set: func(c *Config, v any) error {
			f, err := cast.ToFloat64E(v)
			if err != nil {
				return err
			}
			*ptr(c) = f
			return nil
		},
	}
}

func uintField(key, label string, ptr func(*Config) *uint32) Field {
	return Field{
		Key: key, Kind: KindUint, Label: label,
		get: func(c *Config) any { return *ptr(c) },
		set: func(c *Config, v any) error {
			u, err := cast.ToUint32E(v)
			if err != nil {
				return err
			}
			*ptr(c) = u
			return nil
		},
	}
}

func intField(key, label string, ptr func(*Config) *int) Field {
	return Field{
		Key: key, Kind: KindInt, Label: label,
		get: func(c *Config) any { return *ptr(c) },
		set: func(c *Config, v any) error {
			i, err := cast.ToIntE(v)
			if err != nil {
				return err
			}
			*ptr(c) = i
			return nil
		},
	}
}

func boolField(key, label string, ptr func(*Config) *bool) Field {
	return Field{
		Key: key, Kind: KindBool, Label: label,
		get: func(c *Config) any { return *ptr(c) },
		set: func(c *Config, v any) error {
			b, err := cast.ToBoolE(v)
			if err != nil {
				return err
			}
			*ptr(c) = b
			return nil
		},
	}
}

func stringField(key, label string, ptr func(*Config) *string) Field {
	return Field{
		Key: key, Kind: KindString, Label: label,
		get: func(c *Config) any { return *ptr(c) },
		set: func(c *Config, v any) error {
			s, err := cast.ToStringE(v)
			if err != nil {
				return err
			}
			*ptr(c) = s
			return nil
		},
	}
}

func durationField(key, label string, ptr func(*Config) *Duration) Field {
	return Field{
		Key: key, Kind: KindDuration, Label: label,
		get: func(c *Config) any { return time.Duration(*ptr(c)) },
		set: func(c *Config, v any) error {
			var d Duration
			switch val := v.(type) {
			case time.Duration:
				d = Duration(val)
			case string:
				if err := d.UnmarshalText([]byte(val)); err != nil {
					return err
				}
			default:
				ms, err := cast.ToFloat64E(v)
				if err != nil {
					return err
				}
				if d, err = millis(ms); err != nil {
					return err
				}
			}
			*ptr(c) = d
			return nil
		},
	}
}
