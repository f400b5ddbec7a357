package cmd

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

func newDisplaysCommand() command {
	return command{
		name:        "displays",
		description: "List the displays the cursor backend can see",
		configure: func(fs *flag.FlagSet) {
			fs.String("backend", "", "Cursor backend to query (default: cursor.backend from config)")
		},
		run: listDisplays,
	}
}

func listDisplays(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
	if ctx == nil {
		return fmt.Errorf("application context unavailable")
	}

	name := ctx.Config.Cursor.Backend
	if f := fs.Lookup("backend"); f != nil && strings.TrimSpace(f.Value.String()) != "" {
		name = f.Value.String()
	}

	backend, err := openBackend(name)
	if err != nil {
		return fmt.Errorf("open cursor backend: %w", err)
	}
	displays, err := backend.Displays()
	if err != nil {
		return fmt.Errorf("enumerate displays: %w", err)
	}

	fmt.Fprintf(stdout, "Backend: %s\n", backend.Name())
	if len(displays) == 0 {
		fmt.Fprintln(stdout, "No active displays")
		return nil
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tORIGIN\tSIZE\tMAIN")
	for _, d := range displays {
		mark := ""
		if d.Main {
			mark = "*"
		}
		fmt.Fprintf(tw, "%d\t%s\t%gx%g\t%s\n", d.ID, d.Bounds.Min, d.Bounds.Width(), d.Bounds.Height(), mark)
	}
	return tw.Flush()
}
