package relative

import (
	"fmt"
	"math"
	"time"
)

// DefaultResetTime is the idle gap after which the next report starts a
// fresh baseline.
const DefaultResetTime = 100 * time.Millisecond

// Settings are the user-tunable parameters of relative mode.
type Settings struct {
	// XSensitivity and YSensitivity scale millimeters of pen travel into
	// pixels of cursor travel. A negative value inverts the axis.
	XSensitivity float64
	YSensitivity float64
	ResetTime    time.Duration
}

// DefaultSettings returns unit sensitivity and the default reset time.
func DefaultSettings() Settings {
	return Settings{
		XSensitivity: 1,
		YSensitivity: 1,
		ResetTime:    DefaultResetTime,
	}
}

// Validate rejects settings the mapper cannot use.
func (s Settings) Validate() error {
	if math.IsNaN(s.XSensitivity) || math.IsInf(s.XSensitivity, 0) {
		return fmt.Errorf("x sensitivity must be finite, got %g", s.XSensitivity)
	}
	if math.IsNaN(s.YSensitivity) || math.IsInf(s.YSensitivity, 0) {
		return fmt.Errorf("y sensitivity must be finite, got %g", s.YSensitivity)
	}
	if s.ResetTime <= 0 {
		return fmt.Errorf("reset time must be positive, got %s", s.ResetTime)
	}
	return nil
}
