package cmd

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/vedantwpatil/tabletd/internal/config"
)

func newSettingsCommand() command {
	return command{
		name:        "settings",
		description: "Show every setting with its current and default value; key=value arguments preview overrides",
		run:         showSettings,
	}
}

func showSettings(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
	if ctx == nil {
		return fmt.Errorf("application context unavailable")
	}

	cfg := *ctx.Config
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("override %q: want key=value", arg)
		}
		if err := config.Set(&cfg, key, value); err != nil {
			return err
		}
	}

	fmt.Fprintf(stdout, "Configuration (source: %s)\n", cfg.Origin)
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVALUE\tDEFAULT\tDESCRIPTION")
	for _, f := range config.Schema {
		value, err := config.Get(&cfg, f.Key)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%v\t%v\t%s\n", f.Key, value, f.Default, f.Label)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(cfg.Filters) == 0 {
		fmt.Fprintln(stdout, "Filters: none")
	} else {
		fmt.Fprintln(stdout, "Filters:")
		for i, fc := range cfg.Filters {
			fmt.Fprintf(stdout, "  %d. %s %v\n", i+1, fc.Kind, fc.Params)
		}
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stdout, "Invalid: %v\n", err)
		return err
	}
	fmt.Fprintln(stdout, "Valid")
	return nil
}
