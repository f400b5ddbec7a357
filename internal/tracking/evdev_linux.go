//go:build linux

package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/vedantwpatil/tabletd/internal/tablet"
)

type absInfo struct {
	Value      int32
	Min        int32
	Max        int32
	Fuzz       int32
	Flat       int32
	Resolution int32
}

// ioctl request encoding (Linux _IOC macro)
const (
	iocNRShift   = 0
	iocTypeShift = 8
	iocSizeShift = 16
	iocDirShift  = 30

	iocWrite = 1
	iocRead  = 2
)

func ioc(dir, typ, nr, size uint32) uintptr {
	return uintptr(dir<<iocDirShift | typ<<iocTypeShift | nr<<iocNRShift | size<<iocSizeShift)
}

// EVIOCGABS(abs) = _IOR('E', 0x40 + abs, struct input_absinfo)
func evioCGAbs(code int) uintptr {
	return ioc(iocRead, 'E', uint32(0x40+code), uint32(unsafe.Sizeof(absInfo{})))
}

// EVIOCGRAB = _IOW('E', 0x90, int)
func evioCGrab() uintptr {
	return ioc(iocWrite, 'E', 0x90, uint32(unsafe.Sizeof(int32(0))))
}

func getAbsInfo(fd int, code int) (absInfo, error) {
	var info absInfo
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), evioCGAbs(code), uintptr(unsafe.Pointer(&info)))
	if errno != 0 {
		return absInfo{}, errno
	}
	return info, nil
}

// grab issues EVIOCGRAB through the raw connection. f.Fd would switch the file
// to blocking mode and Close could then no longer interrupt a pending Read.
func grab(f *os.File) error {
	rc, err := f.SyscallConn()
	if err != nil {
		return err
	}
	var errno syscall.Errno
	one := int32(1)
	if err := rc.Control(func(fd uintptr) {
		_, _, errno = unix.Syscall(unix.SYS_IOCTL, fd, evioCGrab(), uintptr(unsafe.Pointer(&one)))
	}); err != nil {
		return err
	}
	if errno != 0 {
		return errno
	}
	return nil
}

// EvdevSource reads pen reports from a Linux input event node.
type EvdevSource struct {
	Path     string
	ReportID uint32
	// Grab takes exclusive access so the kernel does not also move the cursor.
	Grab   bool
	Logger *slog.Logger
}

// NewEvdevSource returns a source reading the event node at path.
func NewEvdevSource(path string, reportID uint32, grab bool, logger *slog.Logger) *EvdevSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvdevSource{Path: path, ReportID: reportID, Grab: grab, Logger: logger}
}

// Geometry reads the X/Y axis ranges of the device. Width and height are
// derived from the axis resolution (units per millimeter) when the driver
// reports one.
func (s *EvdevSource) Geometry() (tablet.Properties, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return tablet.Properties{}, fmt.Errorf("open %s: %w", s.Path, err)
	}
	defer f.Close()

	fd := int(f.Fd())
	x, err := getAbsInfo(fd, absX)
	if err != nil {
		return tablet.Properties{}, fmt.Errorf("read x axis: %w", err)
	}
	y, err := getAbsInfo(fd, absY)
	if err != nil {
		return tablet.Properties{}, fmt.Errorf("read y axis: %w", err)
	}
	props := tablet.Properties{
		MaxX: float64(x.Max),
		MaxY: float64(y.Max),
	}
	if x.Resolution <= 0 || y.Resolution <= 0 {
		return props, tablet.ErrNoGeometry
	}
	props.Width = float64(x.Max-x.Min) / float64(x.Resolution)
	props.Height = float64(y.Max-y.Min) / float64(y.Resolution)
	return props, nil
}

// Stream reads input events until ctx is done or the device is removed.
func (s *EvdevSource) Stream(ctx context.Context, emit func(tablet.DeviceReport) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.Path, err)
	}
	defer f.Close()

	if s.Grab {
		if err := grab(f); err != nil {
			s.Logger.Warn("exclusive grab failed, continuing shared", "path", s.Path, "error", err)
		}
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			f.Close()
		case <-done:
		}
	}()

	decoder := newEvdevDecoder(s.ReportID)
	parser := inputParser{size: int(unsafe.Sizeof(unix.Timeval{})) + 8}
	buf := make([]byte, parser.size*64)
	s.Logger.Info("evdev source opened", "path", s.Path, "event_size", parser.size)

	for {
		n, err := f.Read(buf)
		if n > 0 {
			var emitErr error
			parser.parse(buf[:n], func(etype, code uint16, value int32) {
				if emitErr != nil {
					return
				}
				if report, ok := decoder.feed(etype, code, value); ok {
					emitErr = emit(report)
				}
			})
			if emitErr != nil {
				return emitErr
			}
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if errors.Is(err, os.ErrClosed) {
				return nil
			}
			return fmt.Errorf("read %s: %w", s.Path, err)
		}
	}
}
