package driver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedantwpatil/tabletd/internal/cursor"
	"github.com/vedantwpatil/tabletd/internal/geom"
	"github.com/vedantwpatil/tabletd/internal/relative"
	"github.com/vedantwpatil/tabletd/internal/tablet"
	"github.com/vedantwpatil/tabletd/internal/timeutil"
	"github.com/vedantwpatil/tabletd/internal/tracking"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingHandler struct {
	mu      sync.Mutex
	reports []tablet.DeviceReport
	resets  int
}

func (h *recordingHandler) Read(r tablet.DeviceReport) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reports = append(h.reports, r)
}

func (h *recordingHandler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.resets++
}

func (h *recordingHandler) snapshot() ([]tablet.DeviceReport, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]tablet.DeviceReport(nil), h.reports...), h.resets
}

func scripted(reports ...tablet.DeviceReport) tracking.Source {
	return tracking.SourceFunc(func(ctx context.Context, emit func(tablet.DeviceReport) error) error {
		for _, r := range reports {
			if err := emit(r); err != nil {
				return err
			}
		}
		return nil
	})
}

func blocking() tracking.Source {
	return tracking.SourceFunc(func(ctx context.Context, _ func(tablet.DeviceReport) error) error {
		<-ctx.Done()
		return ctx.Err()
	})
}

// runSession starts a session and blocks until the source ends.
func runSession(t *testing.T, opts Options) error {
	t.Helper()
	d := New(opts)
	require.NoError(t, d.Start(context.Background()))
	return d.Wait()
}

func TestRunDeliversInOrder(t *testing.T) {
	var in []tablet.DeviceReport
	for i := 0; i < 200; i++ {
		in = append(in, tablet.TabletReport{ReportID: 1, Position: geom.Pt(float64(i), 0)})
	}
	h := &recordingHandler{}

	err := runSession(t, Options{Source: scripted(in...), Handler: h, Buffer: 4, Logger: testLogger()})
	require.NoError(t, err)

	got, resets := h.snapshot()
	assert.Equal(t, in, got)
	assert.Equal(t, 1, resets)
}

func TestSourceErrorIsReturned(t *testing.T) {
	boom := errors.New("unplugged")
	src := tracking.SourceFunc(func(context.Context, func(tablet.DeviceReport) error) error { return boom })

	err := runSession(t, Options{Source: src, Handler: &recordingHandler{}, Logger: testLogger()})
	assert.ErrorIs(t, err, boom)
}

func TestStartStop(t *testing.T) {
	h := &recordingHandler{}
	d := New(Options{Source: blocking(), Handler: h, Logger: testLogger()})

	assert.ErrorIs(t, d.Stop(), ErrNotRunning)
	assert.ErrorIs(t, d.Wait(), ErrNotRunning)

	require.NoError(t, d.Start(context.Background()))
	assert.True(t, d.IsRunning())
	assert.NotEmpty(t, d.Session())
	assert.ErrorIs(t, d.Start(context.Background()), ErrRunning)

	require.NoError(t, d.Stop())
	assert.False(t, d.IsRunning())

	first := d.Session()
	require.NoError(t, d.Start(context.Background()))
	assert.NotEqual(t, first, d.Session())
	require.NoError(t, d.Stop())

	_, resets := h.snapshot()
	assert.Equal(t, 2, resets)
}

func TestParentContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := New(Options{Source: blocking(), Handler: &recordingHandler{}, Logger: testLogger()})
	require.NoError(t, d.Start(ctx))

	cancel()
	done := make(chan error, 1)
	go func() { done <- d.Wait() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("driver did not stop on context cancel")
	}
}

func TestStartNeedsSourceAndHandler(t *testing.T) {
	assert.Error(t, New(Options{Handler: &recordingHandler{}}).Start(context.Background()))
	assert.Error(t, New(Options{Source: blocking()}).Start(context.Background()))
}

func TestDriverMovesCursor(t *testing.T) {
	port := cursor.NewMemory(geom.Pt(960, 540), cursor.DefaultDisplay())
	clock := timeutil.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	geometry := tablet.NewGeometry(tablet.Properties{MaxX: 1000, MaxY: 1000, Width: 200, Height: 200})
	mode := relative.New(port, geometry, relative.Options{
		Settings: relative.DefaultSettings(),
		Clock:    clock,
		Logger:   testLogger(),
	})

	src := scripted(
		tablet.TabletReport{ReportID: 1, Position: geom.Pt(500, 500)},
		tablet.AuxReport{ReportID: 1, Buttons: 1},
		tablet.TabletReport{ReportID: 1, Position: geom.Pt(510, 500)},
		tablet.TabletReport{ReportID: 1, Position: geom.Pt(510, 520)},
	)
	err := runSession(t, Options{Source: src, Handler: mode, Logger: testLogger(), StatsInterval: time.Millisecond})
	require.NoError(t, err)

	assert.Equal(t, []geom.Point{geom.Pt(962, 540), geom.Pt(962, 544)}, port.Moves())
	st := mode.Stats()
	assert.Equal(t, uint64(3), st.Reports)
	assert.Equal(t, uint64(1), st.Ignored)
	assert.Equal(t, uint64(1), st.Baselines)
	assert.Equal(t, uint64(2), st.Moves)
}
