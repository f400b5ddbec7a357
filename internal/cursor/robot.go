package cursor

import (
	"math"

	"github.com/go-vgo/robotgo"
	"github.com/kbinani/screenshot"

	"github.com/vedantwpatil/tabletd/internal/geom"
)

// Robot drives the cursor through robotgo and reads display layout through
// the screenshot package. Display index 0 is the main display.
type Robot struct{}

// NewRobot returns the robotgo backend.
func NewRobot() *Robot {
	return &Robot{}
}

func (*Robot) Name() string { return BackendRobotgo }

func (*Robot) Position() (geom.Point, error) {
	x, y := robotgo.Location()
	return geom.Pt(float64(x), float64(y)), nil
}

func (*Robot) SetPosition(p geom.Point) error {
	if !p.IsFinite() {
		return &PlatformError{Op: "robotgo.Move", Code: -1}
	}
	robotgo.Move(int(math.Round(p.X)), int(math.Round(p.Y)))
	return nil
}

func (*Robot) Displays() ([]Display, error) {
	n := screenshot.NumActiveDisplays()
	if n <= 0 {
		return nil, ErrNoDisplays
	}
	displays := make([]Display, 0, n)
	for i := 0; i < n; i++ {
		displays = append(displays, Display{
			ID:     DisplayID(i),
			Bounds: geom.FromImageRect(screenshot.GetDisplayBounds(i)),
			Main:   i == 0,
		})
	}
	return displays, nil
}

func (*Robot) MainDisplay() (DisplayID, error) {
	if screenshot.NumActiveDisplays() <= 0 {
		return 0, ErrNoDisplays
	}
	return 0, nil
}
