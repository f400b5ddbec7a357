// Package relative turns absolute tablet reports into relative cursor motion.
package relative

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/vedantwpatil/tabletd/internal/cursor"
	"github.com/vedantwpatil/tabletd/internal/filter"
	"github.com/vedantwpatil/tabletd/internal/geom"
	"github.com/vedantwpatil/tabletd/internal/tablet"
	"github.com/vedantwpatil/tabletd/internal/timeutil"
)

// Options configures a Mode.
type Options struct {
	Settings Settings
	Filters  []filter.Filter
	Clock    timeutil.Clock
	Logger   *slog.Logger
}

// Mode is the relative-mode output handler.
//
// Read and Position must be called from a single goroutine, in arrival order.
// Settings, filters and the tablet geometry may be replaced from any goroutine;
// each call observes one consistent snapshot of each.
type Mode struct {
	port     cursor.Port
	geometry *tablet.Geometry
	clock    timeutil.Clock
	logger   *slog.Logger

	settings atomic.Pointer[Settings]
	chain    atomic.Pointer[filter.Chain]

	// Session state, owned by the processing goroutine.
	lastReport   *tablet.TabletReport
	lastPosition *geom.Point
	lastReceived time.Time

	stats counters
}

// New returns a Mode that moves port according to reports measured against
// geometry. A ResetTime <= 0 in opts.Settings selects DefaultResetTime.
func New(port cursor.Port, geometry *tablet.Geometry, opts Options) *Mode {
	clock := opts.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := &Mode{
		port:     port,
		geometry: geometry,
		clock:    clock,
		logger:   logger,
	}
	m.Configure(opts.Settings)
	m.SetFilters(opts.Filters)
	return m
}

// Configure replaces the settings used from the next report on.
func (m *Mode) Configure(s Settings) {
	if s.ResetTime <= 0 {
		s.ResetTime = DefaultResetTime
	}
	m.settings.Store(&s)
}

// Settings returns the current settings.
func (m *Mode) Settings() Settings {
	return *m.settings.Load()
}

// SetFilters installs a new filter set, replacing the previous one.
func (m *Mode) SetFilters(filters []filter.Filter) {
	m.chain.Store(filter.NewChain(filters))
}

// Filters returns the installed filters in configured order.
func (m *Mode) Filters() []filter.Filter {
	return m.chain.Load().All()
}

// Read handles any device report. Only tablet reports move the cursor.
func (m *Mode) Read(report tablet.DeviceReport) {
	if r, ok := asTablet(report); ok {
		m.Position(r)
		return
	}
	m.stats.ignored.Add(1)
}

// asTablet extracts the tablet payload of a KindTablet report, by value or by
// pointer.
func asTablet(report tablet.DeviceReport) (tablet.TabletReport, bool) {
	if report == nil {
		return tablet.TabletReport{}, false
	}
	if p, ok := report.(*tablet.TabletReport); ok && p == nil {
		return tablet.TabletReport{}, false
	}
	if report.Kind() != tablet.KindTablet {
		return tablet.TabletReport{}, false
	}
	switch r := report.(type) {
	case tablet.TabletReport:
		return r, true
	case *tablet.TabletReport:
		return *r, true
	}
	return tablet.TabletReport{}, false
}

// Position processes one tablet report. It issues at most one SetPosition.
func (m *Mode) Position(report tablet.TabletReport) {
	props := m.geometry.Load()
	if props.Gated(report.ReportID) {
		m.stats.discarded.Add(1)
		return
	}
	m.stats.reports.Add(1)

	settings := m.Settings()
	now := m.clock.Now()

	if !m.lastReceived.IsZero() && now.Sub(m.lastReceived) > settings.ResetTime {
		m.logger.Debug("relative session idle, resetting",
			"idle", now.Sub(m.lastReceived),
			"reset_time", settings.ResetTime)
		m.clearSession()
		m.stats.resets.Add(1)
	}

	if m.lastReport != nil {
		m.move(report, props, settings)
	} else {
		m.stats.baselines.Add(1)
	}

	m.lastReport = &report
	m.lastReceived = now
}

func (m *Mode) move(report tablet.TabletReport, props tablet.Properties, settings Settings) {
	chain := m.chain.Load()

	delta := report.Position.Sub(m.lastReport.Position)
	delta = chain.ApplyPre(delta)

	// Device units -> ratio of the active area -> millimeters -> pixels.
	delta = delta.Div(props.Extents())
	delta = delta.Mul(props.Size())
	delta = delta.Mul(geom.Pt(settings.XSensitivity, settings.YSensitivity))

	origin, err := m.cursorPosition()
	if err != nil {
		m.stats.dropped.Add(1)
		m.logger.Debug("cursor position query failed, dropping frame", "error", err)
		return
	}

	target := chain.ApplyPost(delta.Add(origin))
	// A non-finite target is never handed to the port.
	if !target.IsFinite() {
		m.stats.dropped.Add(1)
		m.logger.Warn("non-finite cursor target, dropping frame",
			"target", target.String(),
			"max_x", props.MaxX,
			"max_y", props.MaxY)
		return
	}

	if err := m.port.SetPosition(target); err != nil {
		m.stats.dropped.Add(1)
		m.logger.Debug("set cursor position failed, dropping frame", "target", target.String(), "error", err)
	} else {
		m.stats.moves.Add(1)
	}
	m.lastPosition = &target
}

// cursorPosition is the translation origin: the last position this mode
// computed, or the live cursor when there is none.
func (m *Mode) cursorPosition() (geom.Point, error) {
	if m.lastPosition != nil {
		return *m.lastPosition, nil
	}
	return m.port.Position()
}

// Reset discards session state so the next report becomes a fresh baseline.
// Like Position, it must be called from the processing goroutine.
func (m *Mode) Reset() {
	m.clearSession()
	m.lastReceived = time.Time{}
}

func (m *Mode) clearSession() {
	m.lastReport = nil
	m.lastPosition = nil
	for _, f := range m.chain.Load().All() {
		if r, ok := f.(filter.Resetter); ok {
			r.Reset()
		}
	}
}
