package tracking

import (
	"encoding/binary"

	"github.com/vedantwpatil/tabletd/internal/geom"
	"github.com/vedantwpatil/tabletd/internal/tablet"
)

// Linux input event codes the evdev source cares about.
const (
	evSyn = 0x00
	evKey = 0x01
	evAbs = 0x03

	synReport  = 0x00
	synDropped = 0x03

	absX        = 0x00
	absY        = 0x01
	absPressure = 0x18

	btnTouch   = 0x14a
	btnStylus  = 0x14b
	btnStylus2 = 0x14c
)

// evdevDecoder folds a stream of input events into tablet reports. Axis
// updates accumulate until SYN_REPORT; SYN_DROPPED discards the partial frame.
type evdevDecoder struct {
	reportID uint32

	x, y     int32
	pressure int32
	buttons  uint32
	seenX    bool
	seenY    bool
	dropping bool
}

func newEvdevDecoder(reportID uint32) *evdevDecoder {
	return &evdevDecoder{reportID: reportID}
}

// feed consumes one event and returns a report when a frame completes.
func (d *evdevDecoder) feed(etype, code uint16, value int32) (tablet.TabletReport, bool) {
	switch etype {
	case evAbs:
		switch code {
		case absX:
			d.x, d.seenX = value, true
		case absY:
			d.y, d.seenY = value, true
		case absPressure:
			d.pressure = value
		}
	case evKey:
		var bit uint32
		switch code {
		case btnTouch:
			bit = 1 << 0
		case btnStylus:
			bit = 1 << 1
		case btnStylus2:
			bit = 1 << 2
		}
		if value != 0 {
			d.buttons |= bit
		} else {
			d.buttons &^= bit
		}
	case evSyn:
		switch code {
		case synDropped:
			d.dropping = true
		case synReport:
			if d.dropping {
				// The kernel resyncs after the next SYN_REPORT.
				d.dropping = false
				return tablet.TabletReport{}, false
			}
			if !d.seenX || !d.seenY {
				return tablet.TabletReport{}, false
			}
			return tablet.TabletReport{
				ReportID: d.reportID,
				Position: geom.Pt(float64(d.x), float64(d.y)),
				Pressure: uint32(max(d.pressure, 0)),
				Buttons:  d.buttons,
			}, true
		}
	}
	return tablet.TabletReport{}, false
}

// inputParser splits a byte stream into input_event records of a fixed size:
// 24 bytes with a 64-bit timeval, 16 with a 32-bit one.
type inputParser struct {
	buf  []byte
	size int
}

func (p *inputParser) parse(chunk []byte, cb func(etype, code uint16, value int32)) {
	p.buf = append(p.buf, chunk...)
	tv := p.size - 8
	for len(p.buf) >= p.size {
		ev := p.buf[:p.size]
		p.buf = p.buf[p.size:]
		cb(
			binary.LittleEndian.Uint16(ev[tv:tv+2]),
			binary.LittleEndian.Uint16(ev[tv+2:tv+4]),
			int32(binary.LittleEndian.Uint32(ev[tv+4:tv+8])),
		)
	}
}
