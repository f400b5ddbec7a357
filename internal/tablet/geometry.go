package tablet

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/vedantwpatil/tabletd/internal/geom"
)

// Properties is the active area geometry of a tablet.
//
// MaxX and MaxY are the digitizer extents in device units. Width and Height
// are the physical size of the same area, in millimeters. ActiveReportID gates
// reports: when nonzero, any report whose id is <= the gate is dropped.
type Properties struct {
	ActiveReportID uint32
	MaxX           float64
	MaxY           float64
	Width          float64
	Height         float64
}

// Extents returns (MaxX, MaxY).
func (p Properties) Extents() geom.Point {
	return geom.Pt(p.MaxX, p.MaxY)
}

// Size returns (Width, Height).
func (p Properties) Size() geom.Point {
	return geom.Pt(p.Width, p.Height)
}

// Gated reports whether a report with the given id must be discarded.
func (p Properties) Gated(id uint32) bool {
	return p.ActiveReportID != 0 && id <= p.ActiveReportID
}

// Validate rejects geometry that would make unit conversion meaningless.
func (p Properties) Validate() error {
	if p.MaxX <= 0 || p.MaxY <= 0 {
		return fmt.Errorf("tablet extents must be positive, got %gx%g", p.MaxX, p.MaxY)
	}
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("tablet size must be positive, got %gx%g mm", p.Width, p.Height)
	}
	return nil
}

// Geometry holds the current Properties. Readers always observe a complete
// snapshot; Store replaces it wholesale.
type Geometry struct {
	current atomic.Pointer[Properties]
}

// NewGeometry returns a holder initialised with props.
func NewGeometry(props Properties) *Geometry {
	g := &Geometry{}
	g.Store(props)
	return g
}

// Load returns the current snapshot. A zero Geometry yields zero Properties.
func (g *Geometry) Load() Properties {
	if p := g.current.Load(); p != nil {
		return *p
	}
	return Properties{}
}

// Store publishes a new snapshot.
func (g *Geometry) Store(props Properties) {
	g.current.Store(&props)
}

// ErrNoGeometry is returned when a geometry source cannot describe the device.
var ErrNoGeometry = errors.New("tablet geometry unavailable")
