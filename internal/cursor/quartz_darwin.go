//go:build darwin

package cursor

/*
#cgo darwin LDFLAGS: -framework CoreGraphics -framework ApplicationServices -framework CoreFoundation
#include <ApplicationServices/ApplicationServices.h>
#include <CoreFoundation/CoreFoundation.h>
#include <stdint.h>
*/
import "C"

import (
	"github.com/vedantwpatil/tabletd/internal/geom"
)

const (
	defaultBackend = BackendQuartz

	maxDisplays = 32
	// errNullHandle stands in for a platform code when a Create call
	// returns NULL instead of a status.
	errNullHandle = -1
)

// Quartz drives the cursor through CoreGraphics.
//
// Every Create call is followed immediately by a deferred release, so each
// event and event source handle is freed exactly once on every return path.
// Location and display queries allocate nothing the caller owns.
//
// SetPosition warps the cursor, then re-associates mouse and cursor. A warp
// leaves the association suppressed for a short interval; re-associating after
// every warp keeps the next hardware or synthetic move from being swallowed.
// The backend never decouples, so there is no state to restore on failure.
type Quartz struct{}

func newQuartz() (Backend, error) {
	return &Quartz{}, nil
}

func (*Quartz) Name() string { return BackendQuartz }

// release frees a Core Foundation handle returned by a Create call.
func release(ref C.CFTypeRef) {
	if ref != 0 {
		C.CFRelease(ref)
	}
}

func cgPoint(p geom.Point) C.CGPoint {
	return C.CGPoint{x: C.CGFloat(p.X), y: C.CGFloat(p.Y)}
}

func (*Quartz) Position() (geom.Point, error) {
	event := C.CGEventCreate(0)
	if event == 0 {
		return geom.Point{}, &PlatformError{Op: "CGEventCreate", Code: errNullHandle}
	}
	defer release(C.CFTypeRef(event))

	loc := C.CGEventGetLocation(event)
	return geom.Pt(float64(loc.x), float64(loc.y)), nil
}

func (*Quartz) SetPosition(p geom.Point) error {
	pt := cgPoint(p)

	if code := C.CGWarpMouseCursorPosition(pt); code != C.kCGErrorSuccess {
		return &PlatformError{Op: "CGWarpMouseCursorPosition", Code: int32(code)}
	}
	if code := C.CGAssociateMouseAndMouseCursorPosition(C.boolean_t(1)); code != C.kCGErrorSuccess {
		return &PlatformError{Op: "CGAssociateMouseAndMouseCursorPosition", Code: int32(code)}
	}

	// Post a move so applications tracking the pointer see the new location.
	source := C.CGEventSourceCreate(C.kCGEventSourceStateHIDSystemState)
	if source == 0 {
		return &PlatformError{Op: "CGEventSourceCreate", Code: errNullHandle}
	}
	defer release(C.CFTypeRef(source))

	event := C.CGEventCreateMouseEvent(source, C.kCGEventMouseMoved, pt, C.kCGMouseButtonLeft)
	if event == 0 {
		return &PlatformError{Op: "CGEventCreateMouseEvent", Code: errNullHandle}
	}
	defer release(C.CFTypeRef(event))

	C.CGEventPost(C.kCGHIDEventTap, event)
	return nil
}

func (*Quartz) Displays() ([]Display, error) {
	var ids [maxDisplays]C.CGDirectDisplayID
	var count C.uint32_t
	if code := C.CGGetActiveDisplayList(maxDisplays, &ids[0], &count); code != C.kCGErrorSuccess {
		return nil, &PlatformError{Op: "CGGetActiveDisplayList", Code: int32(code)}
	}
	if count == 0 {
		return nil, ErrNoDisplays
	}

	mainID := C.CGMainDisplayID()
	displays := make([]Display, 0, int(count))
	for _, id := range ids[:int(count)] {
		r := C.CGDisplayBounds(id)
		displays = append(displays, Display{
			ID: DisplayID(id),
			Bounds: geom.Rect{
				Min: geom.Pt(float64(r.origin.x), float64(r.origin.y)),
				Max: geom.Pt(float64(r.origin.x+r.size.width), float64(r.origin.y+r.size.height)),
			},
			Main: id == mainID,
		})
	}
	return displays, nil
}

func (*Quartz) MainDisplay() (DisplayID, error) {
	return DisplayID(C.CGMainDisplayID()), nil
}
