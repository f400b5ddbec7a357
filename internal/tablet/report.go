// Package tablet describes what the digitizer hands to the output pipeline:
// device reports and the active area geometry they are measured against.
package tablet

import "github.com/vedantwpatil/tabletd/internal/geom"

// Kind discriminates device report variants.
type Kind int

const (
	KindUnknown Kind = iota
	KindTablet
	KindAux
)

func (k Kind) String() string {
	switch k {
	case KindTablet:
		return "tablet"
	case KindAux:
		return "aux"
	default:
		return "unknown"
	}
}

// DeviceReport is one sampled packet from the digitizer. The set of variants
// is closed: only types in this package implement it.
type DeviceReport interface {
	Kind() Kind
	ID() uint32
	sealed()
}

// TabletReport carries an absolute pen position in device units.
type TabletReport struct {
	ReportID uint32
	Position geom.Point
	Pressure uint32
	Buttons  uint32
}

func (TabletReport) Kind() Kind   { return KindTablet }
func (r TabletReport) ID() uint32 { return r.ReportID }
func (TabletReport) sealed()      {}

// AuxReport carries express key state. It never moves the cursor.
type AuxReport struct {
	ReportID uint32
	Buttons  uint32
}

func (AuxReport) Kind() Kind   { return KindAux }
func (r AuxReport) ID() uint32 { return r.ReportID }
func (AuxReport) sealed()      {}
