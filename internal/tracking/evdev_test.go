package tracking

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedantwpatil/tabletd/internal/geom"
	"github.com/vedantwpatil/tabletd/internal/tablet"
)

type inputEvent struct {
	etype, code uint16
	value       int32
}

func decodeAll(d *evdevDecoder, events ...inputEvent) []tablet.TabletReport {
	var out []tablet.TabletReport
	for _, e := range events {
		if r, ok := d.feed(e.etype, e.code, e.value); ok {
			out = append(out, r)
		}
	}
	return out
}

func TestEvdevDecoderFrames(t *testing.T) {
	d := newEvdevDecoder(2)
	got := decodeAll(d,
		inputEvent{evAbs, absX, 100},
		inputEvent{evSyn, synReport, 0}, // y not seen yet
		inputEvent{evAbs, absY, 200},
		inputEvent{evAbs, absPressure, 300},
		inputEvent{evKey, btnTouch, 1},
		inputEvent{evSyn, synReport, 0},
		inputEvent{evAbs, absX, 110},
		inputEvent{evKey, btnTouch, 0},
		inputEvent{evKey, btnStylus, 1},
		inputEvent{evSyn, synReport, 0},
	)
	require.Len(t, got, 2)
	assert.Equal(t, tablet.TabletReport{ReportID: 2, Position: geom.Pt(100, 200), Pressure: 300, Buttons: 1}, got[0])
	assert.Equal(t, geom.Pt(110, 200), got[1].Position)
	assert.Equal(t, uint32(2), got[1].Buttons)
}

func TestEvdevDecoderDropped(t *testing.T) {
	d := newEvdevDecoder(1)
	got := decodeAll(d,
		inputEvent{evAbs, absX, 1},
		inputEvent{evAbs, absY, 1},
		inputEvent{evSyn, synDropped, 0},
		inputEvent{evAbs, absX, 50},
		inputEvent{evSyn, synReport, 0},
		inputEvent{evAbs, absY, 60},
		inputEvent{evSyn, synReport, 0},
	)
	require.Len(t, got, 1)
	assert.Equal(t, geom.Pt(50, 60), got[0].Position)
}

func TestEvdevDecoderNegativePressure(t *testing.T) {
	d := newEvdevDecoder(1)
	got := decodeAll(d,
		inputEvent{evAbs, absX, 1},
		inputEvent{evAbs, absY, 1},
		inputEvent{evAbs, absPressure, -5},
		inputEvent{evSyn, synReport, 0},
	)
	require.Len(t, got, 1)
	assert.Equal(t, uint32(0), got[0].Pressure)
}

func encodeEvent(size int, e inputEvent) []byte {
	b := make([]byte, size)
	tv := size - 8
	binary.LittleEndian.PutUint16(b[tv:], e.etype)
	binary.LittleEndian.PutUint16(b[tv+2:], e.code)
	binary.LittleEndian.PutUint32(b[tv+4:], uint32(e.value))
	return b
}

func TestInputParserSplitsChunks(t *testing.T) {
	const size = 24
	var stream []byte
	want := []inputEvent{
		{evAbs, absX, 42},
		{evAbs, absY, -7},
		{evSyn, synReport, 0},
	}
	for _, e := range want {
		stream = append(stream, encodeEvent(size, e)...)
	}

	var got []inputEvent
	p := inputParser{size: size}
	cb := func(etype, code uint16, value int32) {
		got = append(got, inputEvent{etype, code, value})
	}
	// Feed across record boundaries.
	p.parse(stream[:10], cb)
	assert.Empty(t, got)
	p.parse(stream[10:30], cb)
	assert.Len(t, got, 1)
	p.parse(stream[30:], cb)
	assert.Equal(t, want, got)
}
