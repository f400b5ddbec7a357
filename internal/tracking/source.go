// Package tracking produces device reports from pen input: a global pointer
// hook, a serial line protocol, or a Linux evdev node.
package tracking

import (
	"context"
	"errors"

	"github.com/vedantwpatil/tabletd/internal/tablet"
)

// Source emits device reports in the order they were sampled. Stream blocks
// until ctx is cancelled, emit returns an error, or the device goes away.
type Source interface {
	Stream(ctx context.Context, emit func(tablet.DeviceReport) error) error
}

// SourceFunc adapts a function literal to the Source interface.
type SourceFunc func(ctx context.Context, emit func(tablet.DeviceReport) error) error

// Stream calls the underlying function.
func (f SourceFunc) Stream(ctx context.Context, emit func(tablet.DeviceReport) error) error {
	return f(ctx, emit)
}

// ErrUnsupported is returned by sources that cannot run on this platform.
var ErrUnsupported = errors.New("report source not supported on this platform")

// Source kinds accepted by configuration.
const (
	KindHook   = "hook"
	KindSerial = "serial"
	KindEvdev  = "evdev"
)
