package tracking

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"go.bug.st/serial"

	"github.com/vedantwpatil/tabletd/internal/geom"
	"github.com/vedantwpatil/tabletd/internal/tablet"
)

// PortOptions describes the serial connection parameters used when opening a
// serial tablet.
type PortOptions struct {
	BaudRate int    `json:"baud_rate" yaml:"baud_rate" toml:"baud_rate"`
	DataBits int    `json:"data_bits" yaml:"data_bits" toml:"data_bits"`
	StopBits int    `json:"stop_bits" yaml:"stop_bits" toml:"stop_bits"`
	Parity   string `json:"parity" yaml:"parity" toml:"parity"`
}

// Normalize validates the options and applies defaults for any unset values.
func (o PortOptions) Normalize() (PortOptions, error) {
	opts := o

	if opts.BaudRate <= 0 {
		opts.BaudRate = 19200
	}

	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}

	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	parity := strings.TrimSpace(strings.ToUpper(opts.Parity))
	switch parity {
	case "", "N", "NONE":
		parity = "N"
	case "E", "EVEN":
		parity = "E"
	case "O", "ODD":
		parity = "O"
	default:
		return opts, fmt.Errorf("unsupported parity %q: expected N, E, or O", opts.Parity)
	}

	opts.Parity = parity
	return opts, nil
}

// SerialMode converts the options into the go.bug.st/serial mode.
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	switch opts.Parity {
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	}
	if opts.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}
	return mode, nil
}

// SerialOpener opens the device at path. Tests replace it with an in-memory pipe.
type SerialOpener func(path string, mode *serial.Mode) (io.ReadCloser, error)

func openSerial(path string, mode *serial.Mode) (io.ReadCloser, error) {
	return serial.Open(path, mode)
}

// SerialSource reads reports from a tablet speaking a line protocol:
//
//	R <id> <x> <y> [pressure]   pen position in device units
//	K <id> <buttons>            express keys
//
// Malformed lines are logged and skipped.
type SerialSource struct {
	Path    string
	Options PortOptions
	Opener  SerialOpener
	Logger  *slog.Logger
}

// NewSerialSource returns a source reading from the serial device at path.
func NewSerialSource(path string, opts PortOptions, logger *slog.Logger) *SerialSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &SerialSource{Path: path, Options: opts, Opener: openSerial, Logger: logger}
}

// Stream opens the port and forwards reports until ctx is done or the port
// fails. Cancelling ctx closes the port to unblock the pending read.
func (s *SerialSource) Stream(ctx context.Context, emit func(tablet.DeviceReport) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(s.Path) == "" {
		return errors.New("serial source needs a device path")
	}
	mode, err := s.Options.SerialMode()
	if err != nil {
		return fmt.Errorf("serial options: %w", err)
	}
	opener := s.Opener
	if opener == nil {
		opener = openSerial
	}
	port, err := opener(s.Path, mode)
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", s.Path, err)
	}
	defer port.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			port.Close()
		case <-done:
		}
	}()

	s.Logger.Info("serial source opened", "path", s.Path, "baud", mode.BaudRate)
	err = ScanReports(port, emit, s.Logger)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		return fmt.Errorf("read serial port %s: %w", s.Path, err)
	}
	return nil
}

// ScanReports parses line protocol reports from r until EOF or until emit
// fails.
func ScanReports(r io.Reader, emit func(tablet.DeviceReport) error, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		report, err := ParseLine(line)
		if err != nil {
			logger.Debug("skipping malformed report line", "line", lineNo, "error", err)
			continue
		}
		if err := emit(report); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// ParseLine decodes one line protocol report.
func ParseLine(line string) (tablet.DeviceReport, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, errors.New("empty line")
	}
	switch strings.ToUpper(fields[0]) {
	case "R":
		if len(fields) != 4 && len(fields) != 5 {
			return nil, fmt.Errorf("position report wants 3 or 4 fields, got %d", len(fields)-1)
		}
		id, err := parseUint(fields[1], "report id")
		if err != nil {
			return nil, err
		}
		x, err := parseCoord(fields[2], "x")
		if err != nil {
			return nil, err
		}
		y, err := parseCoord(fields[3], "y")
		if err != nil {
			return nil, err
		}
		report := tablet.TabletReport{ReportID: id, Position: geom.Pt(x, y)}
		if len(fields) == 5 {
			if report.Pressure, err = parseUint(fields[4], "pressure"); err != nil {
				return nil, err
			}
		}
		return report, nil
	case "K":
		if len(fields) != 3 {
			return nil, fmt.Errorf("key report wants 2 fields, got %d", len(fields)-1)
		}
		id, err := parseUint(fields[1], "report id")
		if err != nil {
			return nil, err
		}
		buttons, err := parseUint(fields[2], "buttons")
		if err != nil {
			return nil, err
		}
		return tablet.AuxReport{ReportID: id, Buttons: buttons}, nil
	default:
		return nil, fmt.Errorf("unknown report type %q", fields[0])
	}
}

func parseUint(s, what string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", what, err)
	}
	return uint32(v), nil
}

// parseCoord accepts finite numbers only; the mapper does not validate input.
func parseCoord(s, what string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", what, err)
	}
	if !geom.Pt(v, 0).IsFinite() {
		return 0, fmt.Errorf("parse %s: non-finite value %q", what, s)
	}
	return v, nil
}
