package cursor

import (
	"image"
	"sync"

	"github.com/vedantwpatil/tabletd/internal/geom"
)

// Memory is an in-process backend. It remembers where the cursor was put,
// records every move and can be told to fail.
type Memory struct {
	mu       sync.Mutex
	pos      geom.Point
	moves    []geom.Point
	queries  int
	displays []Display
	setErr   error
	queryErr error
}

// DefaultDisplay is a single 1920x1080 main display at the origin.
func DefaultDisplay() Display {
	return Display{ID: 1, Bounds: geom.FromImageRect(image.Rect(0, 0, 1920, 1080)), Main: true}
}

// NewMemory returns a Memory backend with the cursor at start.
func NewMemory(start geom.Point, displays ...Display) *Memory {
	return &Memory{pos: start, displays: displays}
}

func (m *Memory) Name() string { return BackendMemory }

func (m *Memory) Position() (geom.Point, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++
	if m.queryErr != nil {
		return geom.Point{}, m.queryErr
	}
	return m.pos, nil
}

func (m *Memory) SetPosition(p geom.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.moves = append(m.moves, p)
	if m.setErr != nil {
		return m.setErr
	}
	m.pos = p
	return nil
}

func (m *Memory) Displays() ([]Display, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Display, len(m.displays))
	copy(out, m.displays)
	return out, nil
}

func (m *Memory) MainDisplay() (DisplayID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.displays {
		if d.Main {
			return d.ID, nil
		}
	}
	return 0, ErrNoDisplays
}

// Warp moves the cursor without recording a move, as a user would.
func (m *Memory) Warp(p geom.Point) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pos = p
}

// FailSet makes every following SetPosition return err. nil clears it.
func (m *Memory) FailSet(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setErr = err
}

// FailQuery makes every following Position return err. nil clears it.
func (m *Memory) FailQuery(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryErr = err
}

// Moves returns every point passed to SetPosition, including failed ones.
func (m *Memory) Moves() []geom.Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]geom.Point, len(m.moves))
	copy(out, m.moves)
	return out
}

// Queries returns how many times Position was called.
func (m *Memory) Queries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queries
}
