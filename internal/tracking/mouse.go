package tracking

import (
	"context"
	"log/slog"

	hook "github.com/robotn/gohook"

	"github.com/vedantwpatil/tabletd/internal/geom"
	"github.com/vedantwpatil/tabletd/internal/tablet"
)

// HookSource turns global mouse motion into tablet reports, one screen pixel
// per device unit. It lets the pipeline run against a plain mouse or a tablet
// whose OS driver is already in absolute mode.
type HookSource struct {
	reportID uint32
	logger   *slog.Logger

	// start and end wrap the process-wide hook so tests can substitute a feed.
	start func() chan hook.Event
	end   func()
}

// NewHookSource returns a hook-backed source stamping reports with reportID.
func NewHookSource(reportID uint32, logger *slog.Logger) *HookSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &HookSource{
		reportID: reportID,
		logger:   logger,
		start:    hook.Start,
		end:      hook.End,
	}
}

// Stream forwards mouse move and drag events until ctx is done.
func (s *HookSource) Stream(ctx context.Context, emit func(tablet.DeviceReport) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	events := s.start()
	defer s.end()
	s.logger.Info("pointer hook started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("pointer hook stopped")
			return ctx.Err()
		case e, ok := <-events:
			if !ok {
				return nil
			}
			report, ok := hookReport(e, s.reportID)
			if !ok {
				continue
			}
			if err := emit(report); err != nil {
				return err
			}
		}
	}
}

// hookReport converts a pointer motion event. Other event kinds are skipped.
func hookReport(e hook.Event, reportID uint32) (tablet.TabletReport, bool) {
	var buttons uint32
	switch e.Kind {
	case hook.MouseMove:
	case hook.MouseDrag:
		buttons = 1
	default:
		return tablet.TabletReport{}, false
	}
	return tablet.TabletReport{
		ReportID: reportID,
		Position: geom.Pt(float64(e.X), float64(e.Y)),
		Buttons:  buttons,
	}, true
}
