package tracking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/vedantwpatil/tabletd/internal/geom"
	"github.com/vedantwpatil/tabletd/internal/tablet"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want tablet.DeviceReport
	}{
		{
			name: "position",
			line: "R 2 100 250.5",
			want: tablet.TabletReport{ReportID: 2, Position: geom.Pt(100, 250.5)},
		},
		{
			name: "position with pressure",
			line: "r 0x3 10 20 512",
			want: tablet.TabletReport{ReportID: 3, Position: geom.Pt(10, 20), Pressure: 512},
		},
		{
			name: "keys",
			line: "K 7 5",
			want: tablet.AuxReport{ReportID: 7, Buttons: 5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLineErrors(t *testing.T) {
	for _, line := range []string{
		"",
		"X 1 2 3",
		"R 1 2",
		"R 1 2 3 4 5",
		"R -1 2 3",
		"R 1 abc 3",
		"R 1 NaN 3",
		"R 1 2 +Inf",
		"K 1",
		"K 1 two",
	} {
		_, err := ParseLine(line)
		assert.Error(t, err, "line %q", line)
	}
}

func TestScanReportsSkipsNoise(t *testing.T) {
	input := strings.Join([]string{
		"# header",
		"",
		"R 1 10 10",
		"garbage",
		"K 1 1",
		"R 1 20 20",
	}, "\n")

	var got []tablet.DeviceReport
	err := ScanReports(strings.NewReader(input), func(r tablet.DeviceReport) error {
		got = append(got, r)
		return nil
	}, discardLogger())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, tablet.KindTablet, got[0].Kind())
	assert.Equal(t, tablet.KindAux, got[1].Kind())
	assert.Equal(t, geom.Pt(20, 20), got[2].(tablet.TabletReport).Position)
}

func TestScanReportsStopsOnEmitError(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	err := ScanReports(strings.NewReader("R 1 1 1\nR 1 2 2\n"), func(tablet.DeviceReport) error {
		calls++
		return stop
	}, discardLogger())
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestPortOptionsNormalize(t *testing.T) {
	opts, err := PortOptions{}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, PortOptions{BaudRate: 19200, DataBits: 8, StopBits: 1, Parity: "N"}, opts)

	opts, err = PortOptions{BaudRate: 9600, Parity: "even", StopBits: 2}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "E", opts.Parity)

	_, err = PortOptions{DataBits: 9}.Normalize()
	assert.Error(t, err)
	_, err = PortOptions{StopBits: 3}.Normalize()
	assert.Error(t, err)
	_, err = PortOptions{Parity: "mark"}.Normalize()
	assert.Error(t, err)
}

func TestPortOptionsSerialMode(t *testing.T) {
	mode, err := PortOptions{BaudRate: 38400, Parity: "O", StopBits: 2}.SerialMode()
	require.NoError(t, err)
	assert.Equal(t, 38400, mode.BaudRate)
	assert.Equal(t, 8, mode.DataBits)
	assert.Equal(t, serial.OddParity, mode.Parity)
	assert.Equal(t, serial.TwoStopBits, mode.StopBits)
}

func TestSerialSourceStream(t *testing.T) {
	pr, pw := io.Pipe()
	var openedPath string
	src := NewSerialSource("/dev/ttyTEST", PortOptions{}, discardLogger())
	src.Opener = func(path string, mode *serial.Mode) (io.ReadCloser, error) {
		openedPath = path
		return pr, nil
	}

	go func() {
		_, _ = io.WriteString(pw, "R 1 5 6\nK 1 2\n")
		pw.Close()
	}()

	var got []tablet.DeviceReport
	err := src.Stream(context.Background(), func(r tablet.DeviceReport) error {
		got = append(got, r)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyTEST", openedPath)
	assert.Len(t, got, 2)
}

func TestSerialSourceStreamCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	src := NewSerialSource("/dev/ttyTEST", PortOptions{}, discardLogger())
	src.Opener = func(string, *serial.Mode) (io.ReadCloser, error) { return pr, nil }

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- src.Stream(ctx, func(tablet.DeviceReport) error { return nil })
	}()
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after cancel")
	}
}

func TestSerialSourceStreamErrors(t *testing.T) {
	src := NewSerialSource("", PortOptions{}, discardLogger())
	assert.Error(t, src.Stream(context.Background(), nil))

	src = NewSerialSource("/dev/ttyTEST", PortOptions{DataBits: 4}, discardLogger())
	assert.Error(t, src.Stream(context.Background(), nil))

	boom := errors.New("busy")
	src = NewSerialSource("/dev/ttyTEST", PortOptions{}, discardLogger())
	src.Opener = func(string, *serial.Mode) (io.ReadCloser, error) { return nil, boom }
	assert.ErrorIs(t, src.Stream(context.Background(), nil), boom)
}
