package filter

import (
	"math"
	"sync"

	"github.com/vedantwpatil/tabletd/internal/geom"
)

// Resetter is implemented by stateful filters that must forget history when
// the relative mapper starts a fresh baseline.
type Resetter interface {
	Reset()
}

// Smoothing is an exponential moving average over deltas. After a reset the
// first sample, and Warmup more after it, pass through untouched and seed the
// average.
type Smoothing struct {
	Factor float64
	Warmup int

	mu    sync.Mutex
	last  geom.Point
	count int
}

// NewSmoothing returns a smoothing filter. factor is clamped to [0, 1).
func NewSmoothing(factor float64, warmup int) *Smoothing {
	return &Smoothing{Factor: math.Min(math.Max(factor, 0), 0.99), Warmup: warmup}
}

func (s *Smoothing) Name() string { return "smoothing" }

func (s *Smoothing) Stage() Stage { return PreTranspose }

func (s *Smoothing) Filter(p geom.Point) geom.Point {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count <= s.Warmup {
		s.count++
		s.last = p
		return p
	}

	f := s.Factor
	out := p.Scale(1 - f).Add(s.last.Scale(f))
	s.last = out
	return out
}

func (s *Smoothing) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = geom.Point{}
	s.count = 0
}

// Deadzone drops deltas shorter than Radius device units.
type Deadzone struct {
	Radius float64
}

func (d Deadzone) Name() string { return "deadzone" }

func (d Deadzone) Stage() Stage { return PreTranspose }

func (d Deadzone) Filter(p geom.Point) geom.Point {
	if p.Len() < d.Radius {
		return geom.Point{}
	}
	return p
}

// Clamp keeps the absolute target on screen by moving it into the nearest
// display. With no displays configured it passes points through.
type Clamp struct {
	Displays []geom.Rect
}

func (c Clamp) Name() string { return "clamp" }

func (c Clamp) Stage() Stage { return PostTranspose }

func (c Clamp) Filter(p geom.Point) geom.Point {
	best := p
	bestDist := math.Inf(1)
	for _, r := range c.Displays {
		if r.Empty() {
			continue
		}
		if r.Contains(p) {
			return p
		}
		q := r.Clamp(p)
		if d := q.Sub(p).Len(); d < bestDist {
			best, bestDist = q, d
		}
	}
	return best
}

// Snap rounds the absolute target to whole pixels.
type Snap struct{}

func (Snap) Name() string { return "snap" }

func (Snap) Stage() Stage { return PostTranspose }

func (Snap) Filter(p geom.Point) geom.Point { return p.Round() }
