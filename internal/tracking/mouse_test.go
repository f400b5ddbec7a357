package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	hook "github.com/robotn/gohook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedantwpatil/tabletd/internal/geom"
	"github.com/vedantwpatil/tabletd/internal/tablet"
)

func fakeHook(src *HookSource, events chan hook.Event) *bool {
	ended := false
	src.start = func() chan hook.Event { return events }
	src.end = func() { ended = true }
	return &ended
}

func TestHookReport(t *testing.T) {
	r, ok := hookReport(hook.Event{Kind: hook.MouseMove, X: 10, Y: 20}, 4)
	require.True(t, ok)
	assert.Equal(t, tablet.TabletReport{ReportID: 4, Position: geom.Pt(10, 20)}, r)

	r, ok = hookReport(hook.Event{Kind: hook.MouseDrag, X: 1, Y: 2}, 4)
	require.True(t, ok)
	assert.Equal(t, uint32(1), r.Buttons)

	_, ok = hookReport(hook.Event{Kind: hook.KeyDown}, 4)
	assert.False(t, ok)
}

func TestHookSourceForwardsMotion(t *testing.T) {
	events := make(chan hook.Event, 4)
	src := NewHookSource(1, discardLogger())
	ended := fakeHook(src, events)

	events <- hook.Event{Kind: hook.MouseMove, X: 3, Y: 4}
	events <- hook.Event{Kind: hook.KeyUp}
	events <- hook.Event{Kind: hook.MouseDrag, X: 5, Y: 6}
	close(events)

	var got []tablet.DeviceReport
	err := src.Stream(context.Background(), func(r tablet.DeviceReport) error {
		got = append(got, r)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, geom.Pt(5, 6), got[1].(tablet.TabletReport).Position)
	assert.True(t, *ended)
}

func TestHookSourceStopsOnCancel(t *testing.T) {
	events := make(chan hook.Event)
	src := NewHookSource(1, discardLogger())
	ended := fakeHook(src, events)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- src.Stream(ctx, func(tablet.DeviceReport) error { return nil })
	}()
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("hook source did not stop")
	}
	assert.True(t, *ended)
}

func TestHookSourceEmitError(t *testing.T) {
	events := make(chan hook.Event, 1)
	src := NewHookSource(1, discardLogger())
	fakeHook(src, events)
	events <- hook.Event{Kind: hook.MouseMove}

	boom := errors.New("full")
	err := src.Stream(context.Background(), func(tablet.DeviceReport) error { return boom })
	assert.ErrorIs(t, err, boom)
}
