// Package cursor abstracts the platform pointer subsystem: reading and warping
// the cursor and enumerating displays.
package cursor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vedantwpatil/tabletd/internal/geom"
)

// Port is the capability the relative mapper drives.
type Port interface {
	// Position queries the OS for the absolute cursor position in screen pixels.
	Position() (geom.Point, error)
	// SetPosition moves the cursor. It is best effort; a failure means the
	// frame was dropped.
	SetPosition(p geom.Point) error
}

// DisplayID identifies a display within one backend.
type DisplayID uint32

// Display describes an active display and its bounds in screen pixels.
type Display struct {
	ID     DisplayID
	Bounds geom.Rect
	Main   bool
}

// DisplayEnumerator lists active displays. Callers outside the relative path
// use it (clamping, absolute mapping).
type DisplayEnumerator interface {
	Displays() ([]Display, error)
	MainDisplay() (DisplayID, error)
}

// Backend is a complete platform implementation.
type Backend interface {
	Port
	DisplayEnumerator
	Name() string
}

// PlatformError reports a nonzero status from a native call.
type PlatformError struct {
	Op   string
	Code int32
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("%s failed with platform error %d", e.Op, e.Code)
}

var (
	// ErrUnsupported is returned when a backend is not available on this platform.
	ErrUnsupported = errors.New("cursor backend not supported on this platform")
	// ErrNoDisplays is returned when the OS reports no active display.
	ErrNoDisplays = errors.New("no active displays")
)

// Backend names accepted by Open.
const (
	BackendAuto    = "auto"
	BackendQuartz  = "quartz"
	BackendRobotgo = "robotgo"
	BackendMemory  = "memory"
)

// Open constructs the named backend. "auto" (or "") picks the native backend
// for the running platform.
func Open(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendAuto:
		return Open(defaultBackend)
	case BackendQuartz:
		return newQuartz()
	case BackendRobotgo:
		return NewRobot(), nil
	case BackendMemory:
		return NewMemory(geom.Pt(960, 540), DefaultDisplay()), nil
	default:
		return nil, fmt.Errorf("unknown cursor backend %q", name)
	}
}

// DisplayBounds collects the bounds of every display, main display first.
func DisplayBounds(e DisplayEnumerator) ([]geom.Rect, error) {
	displays, err := e.Displays()
	if err != nil {
		return nil, err
	}
	if len(displays) == 0 {
		return nil, ErrNoDisplays
	}
	bounds := make([]geom.Rect, 0, len(displays))
	for _, d := range displays {
		if d.Main {
			bounds = append([]geom.Rect{d.Bounds}, bounds...)
			continue
		}
		bounds = append(bounds, d.Bounds)
	}
	return bounds, nil
}
