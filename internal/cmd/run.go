package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/vedantwpatil/tabletd/internal/config"
	"github.com/vedantwpatil/tabletd/internal/cursor"
	"github.com/vedantwpatil/tabletd/internal/driver"
	"github.com/vedantwpatil/tabletd/internal/filter"
	"github.com/vedantwpatil/tabletd/internal/relative"
	"github.com/vedantwpatil/tabletd/internal/tablet"
	"github.com/vedantwpatil/tabletd/internal/tracking"
)

func newRunCommand() command {
	return command{
		name:        "run",
		description: "Map tablet reports to relative cursor motion until interrupted",
		configure: func(fs *flag.FlagSet) {
			fs.Bool("dry-run", false, "Drive an in-memory cursor instead of the real one")
		},
		run: runDriver,
	}
}

var (
	openBackend   = cursor.Open
	newSource     = buildSource
	// statsInterval is how often the driver logs counters at debug level.
	statsInterval = 30 * time.Second
	notifySignals = func(c chan<- os.Signal) func() {
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		return func() { signal.Stop(c) }
	}
)

// geometryProber is implemented by sources that can describe the tablet.
type geometryProber interface {
	Geometry() (tablet.Properties, error)
}

func runDriver(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
	if ctx == nil {
		return fmt.Errorf("application context unavailable")
	}

	cfg := *ctx.Config
	dryRun := boolFlag(fs, "dry-run")
	if dryRun {
		cfg.Cursor.Backend = cursor.BackendMemory
	}
	if err := cfg.ValidateRun(); err != nil {
		return err
	}

	backend, err := openBackend(cfg.Cursor.Backend)
	if err != nil {
		return fmt.Errorf("open cursor backend: %w", err)
	}
	displays, err := cursor.DisplayBounds(backend)
	if err != nil {
		ctx.Logger.Warn("display enumeration failed", "backend", backend.Name(), "error", err)
	}

	source, err := newSource(&cfg, ctx.Logger)
	if err != nil {
		return err
	}
	props, err := resolveGeometry(&cfg, source)
	if err != nil {
		return err
	}

	filters, err := cfg.BuildFilters(filter.Env{Displays: displays})
	if err != nil {
		return err
	}

	mode := relative.New(backend, tablet.NewGeometry(props), relative.Options{
		Settings: cfg.Settings(),
		Filters:  filters,
		Logger:   ctx.Logger,
	})

	ctx.Logger.Info("run command invoked",
		"dry_run", dryRun,
		"backend", backend.Name(),
		"source", cfg.Source.Kind,
		"displays", len(displays),
		"filters", filterNames(filters),
		"max_x", props.MaxX,
		"max_y", props.MaxY,
		"width_mm", props.Width,
		"height_mm", props.Height,
	)

	d := driver.New(driver.Options{
		Source:        source,
		Handler:       mode,
		StatsInterval: statsInterval,
		Logger:        ctx.Logger,
	})

	sigChan := make(chan os.Signal, 2)
	stopSignals := notifySignals(sigChan)
	defer stopSignals()

	if err := d.Start(context.Background()); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- d.Wait() }()

	stopping := false
	for {
		select {
		case err := <-done:
			printSummary(stdout, d.Session(), mode.Stats())
			return err
		case sig := <-sigChan:
			if stopping {
				return fmt.Errorf("interrupted by second %s", sig)
			}
			stopping = true
			ctx.Logger.Info("signal received, stopping driver", "signal", sig.String())
			go func() {
				if err := d.Stop(); err != nil && !errors.Is(err, driver.ErrNotRunning) {
					ctx.Logger.Debug("driver stop returned", "error", err)
				}
			}()
		}
	}
}

func buildSource(cfg *config.Config, logger *slog.Logger) (tracking.Source, error) {
	switch cfg.Source.Kind {
	case tracking.KindHook:
		return tracking.NewHookSource(cfg.Source.ReportID, logger), nil
	case tracking.KindSerial:
		return tracking.NewSerialSource(cfg.Source.Path, cfg.Source.Serial, logger), nil
	case tracking.KindEvdev:
		return tracking.NewEvdevSource(cfg.Source.Path, cfg.Source.ReportID, cfg.Source.Grab, logger), nil
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source.Kind)
	}
}

func resolveGeometry(cfg *config.Config, source tracking.Source) (tablet.Properties, error) {
	if !cfg.ProbeGeometry() {
		return cfg.Properties(), nil
	}
	prober, ok := source.(geometryProber)
	if !ok {
		return tablet.Properties{}, fmt.Errorf("%s source cannot report tablet geometry; set tablet.max_x/max_y/width/height", cfg.Source.Kind)
	}
	props, err := prober.Geometry()
	if err != nil {
		return tablet.Properties{}, fmt.Errorf("probe tablet geometry: %w", err)
	}
	props.ActiveReportID = cfg.Tablet.ActiveReportID
	if err := props.Validate(); err != nil {
		return tablet.Properties{}, fmt.Errorf("probed tablet geometry: %w", err)
	}
	return props, nil
}

func printSummary(stdout io.Writer, session string, st relative.Stats) {
	fmt.Fprintf(stdout, "Session %s finished\n", session)
	fmt.Fprintf(stdout, "  reports: %d (discarded %d, ignored %d)\n", st.Reports, st.Discarded, st.Ignored)
	fmt.Fprintf(stdout, "  moves: %d (dropped %d)\n", st.Moves, st.Dropped)
	fmt.Fprintf(stdout, "  baselines: %d, idle resets: %d\n", st.Baselines, st.Resets)
}

func boolFlag(fs *flag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	if f == nil {
		return false
	}
	value, err := strconv.ParseBool(f.Value.String())
	if err != nil {
		return false
	}
	return value
}

func filterNames(filters []filter.Filter) []string {
	names := make([]string, 0, len(filters))
	for _, f := range filters {
		names = append(names, filter.NameOf(f))
	}
	return names
}
