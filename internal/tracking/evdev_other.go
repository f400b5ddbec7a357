//go:build !linux

package tracking

import (
	"context"
	"log/slog"

	"github.com/vedantwpatil/tabletd/internal/tablet"
)

// EvdevSource is only available on Linux.
type EvdevSource struct {
	Path     string
	ReportID uint32
	Grab     bool
	Logger   *slog.Logger
}

// NewEvdevSource returns a source that reports ErrUnsupported.
func NewEvdevSource(path string, reportID uint32, grab bool, logger *slog.Logger) *EvdevSource {
	return &EvdevSource{Path: path, ReportID: reportID, Grab: grab, Logger: logger}
}

// Geometry is not available off Linux.
func (s *EvdevSource) Geometry() (tablet.Properties, error) {
	return tablet.Properties{}, ErrUnsupported
}

// Stream is not available off Linux.
func (s *EvdevSource) Stream(context.Context, func(tablet.DeviceReport) error) error {
	return ErrUnsupported
}
