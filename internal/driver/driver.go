// Package driver connects a report source to the relative mapper.
package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vedantwpatil/tabletd/internal/relative"
	"github.com/vedantwpatil/tabletd/internal/tablet"
	"github.com/vedantwpatil/tabletd/internal/tracking"
)

// DefaultBuffer is the report queue length between source and mapper.
const DefaultBuffer = 64

var (
	ErrRunning    = errors.New("driver already running")
	ErrNotRunning = errors.New("driver not running")
)

// Handler consumes reports one at a time. *relative.Mode satisfies it.
type Handler interface {
	Read(report tablet.DeviceReport)
	Reset()
}

// statser is implemented by handlers that keep counters.
type statser interface {
	Stats() relative.Stats
}

// Options configures a Driver.
type Options struct {
	Source  tracking.Source
	Handler Handler
	Buffer  int
	// StatsInterval logs handler counters periodically at debug level. Zero
	// disables the periodic log; a summary is always logged on stop.
	StatsInterval time.Duration
	Logger        *slog.Logger
}

// Driver runs a source and hands its reports to the handler from a single
// goroutine, in arrival order.
type Driver struct {
	source        tracking.Source
	handler       Handler
	buffer        int
	statsInterval time.Duration
	logger        *slog.Logger

	mu        sync.Mutex
	isRunning bool
	session   string
	cancel    context.CancelFunc
	doneChan  chan struct{}
	err       error
}

// New returns a stopped driver.
func New(opts Options) *Driver {
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		source:        opts.Source,
		handler:       opts.Handler,
		buffer:        buffer,
		statsInterval: opts.StatsInterval,
		logger:        logger,
	}
}

// Start begins a new session. The handler is reset so the first report of the
// session only sets a baseline.
func (d *Driver) Start(ctx context.Context) error {
	if d.source == nil || d.handler == nil {
		return errors.New("driver needs a source and a handler")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.isRunning {
		return ErrRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	session := uuid.NewString()
	logger := d.logger.With("session", session)

	d.handler.Reset()
	d.isRunning = true
	d.session = session
	d.cancel = cancel
	d.doneChan = make(chan struct{})
	d.err = nil

	reports := make(chan tablet.DeviceReport, d.buffer)
	sourceErr := make(chan error, 1)

	go func() {
		err := d.source.Stream(ctx, func(r tablet.DeviceReport) error {
			select {
			case reports <- r:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		close(reports)
		sourceErr <- err
	}()

	go d.consume(ctx, logger, reports, sourceErr, d.doneChan)

	logger.Info("driver started", "buffer", d.buffer)
	return nil
}

func (d *Driver) consume(ctx context.Context, logger *slog.Logger, reports <-chan tablet.DeviceReport, sourceErr <-chan error, done chan struct{}) {
	defer close(done)

	var tick <-chan time.Time
	if d.statsInterval > 0 {
		ticker := time.NewTicker(d.statsInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

loop:
	for {
		select {
		case r, ok := <-reports:
			if !ok {
				break loop
			}
			d.handler.Read(r)
		case <-tick:
			d.logStats(logger, slog.LevelDebug, "driver stats")
		}
	}

	err := <-sourceErr
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		err = nil
	}
	if err != nil {
		err = fmt.Errorf("report source: %w", err)
		logger.Error("driver stopped", "error", err)
	} else {
		logger.Info("driver stopped")
	}
	d.logStats(logger, slog.LevelInfo, "session summary")

	d.mu.Lock()
	d.isRunning = false
	d.err = err
	d.cancel()
	d.mu.Unlock()
}

func (d *Driver) logStats(logger *slog.Logger, level slog.Level, msg string) {
	s, ok := d.handler.(statser)
	if !ok {
		return
	}
	st := s.Stats()
	logger.Log(context.Background(), level, msg,
		"reports", st.Reports,
		"discarded", st.Discarded,
		"ignored", st.Ignored,
		"resets", st.Resets,
		"baselines", st.Baselines,
		"moves", st.Moves,
		"dropped", st.Dropped,
	)
}

// Stop cancels the session and waits for the consumer to drain. It returns
// the source error, if any.
func (d *Driver) Stop() error {
	d.mu.Lock()
	if !d.isRunning {
		d.mu.Unlock()
		return ErrNotRunning
	}
	d.cancel()
	done := d.doneChan
	d.mu.Unlock()

	<-done
	return d.Err()
}

// Wait blocks until the current session ends on its own or through Stop.
func (d *Driver) Wait() error {
	d.mu.Lock()
	done := d.doneChan
	d.mu.Unlock()
	if done == nil {
		return ErrNotRunning
	}
	<-done
	return d.Err()
}

// Err returns the error that ended the last session.
func (d *Driver) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

func (d *Driver) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.isRunning
}

// Session returns the id of the current or last session.
func (d *Driver) Session() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.session
}
