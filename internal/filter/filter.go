// Package filter implements the transform stages that wrap relative-mode
// unit conversion: pre-transpose filters see device-unit deltas, post-transpose
// filters see absolute screen positions.
package filter

import (
	"fmt"

	"github.com/vedantwpatil/tabletd/internal/geom"
)

// Stage selects where in the pipeline a filter runs.
type Stage int

const (
	// PreTranspose filters run on the raw device-unit delta.
	PreTranspose Stage = iota
	// PostTranspose filters run on the absolute screen target.
	PostTranspose
)

func (s Stage) String() string {
	switch s {
	case PreTranspose:
		return "pre"
	case PostTranspose:
		return "post"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Filter transforms a point. Filter must be total over finite points: it must
// not block, and any internal failure is absorbed by the filter itself.
type Filter interface {
	Stage() Stage
	Filter(p geom.Point) geom.Point
}

// Func adapts a plain function to the Filter interface.
type Func struct {
	StageTag Stage
	Fn       func(geom.Point) geom.Point
}

func (f Func) Stage() Stage { return f.StageTag }

func (f Func) Filter(p geom.Point) geom.Point { return f.Fn(p) }

// Named is implemented by filters that can describe themselves in logs.
type Named interface {
	Name() string
}

// NameOf returns the filter name, or its Go type when it has none.
func NameOf(f Filter) string {
	if n, ok := f.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", f)
}
