// Package plot renders solution variables as terminal ASCII charts or
// standalone HTML pages.
package plot

import (
	"fmt"
	"io"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/voltlab/battsim/internal/solution"
)

// Options controls chart geometry.
type Options struct {
	Height int
	Width  int
}

// DefaultOptions returns the terminal chart geometry used by the CLI.
func DefaultOptions() Options {
	return Options{Height: 10, Width: 80}
}

// Terminal writes one ASCII chart per variable to w.
func Terminal(w io.Writer, sol *solution.Solution, names []string, opt Options) error {
	if sol == nil || sol.Len() == 0 {
		return fmt.Errorf("plot: empty solution")
	}
	if len(names) == 0 {
		names = []string{"terminal voltage"}
	}
	if opt.Height <= 0 {
		opt.Height = 10
	}
	if opt.Width <= 0 {
		opt.Width = 80
	}

	for _, name := range names {
		data, err := sol.Variable(name)
		if err != nil {
			return err
		}

		caption := fmt.Sprintf("%s vs time", name)
		graph := asciigraph.Plot(data,
			asciigraph.Height(opt.Height),
			asciigraph.Width(opt.Width),
			asciigraph.Caption(caption),
		)
		fmt.Fprintln(w, graph)
		fmt.Fprintln(w)
	}
	return nil
}

// Sparkline renders a compact single-line trace for live views.
func Sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return strings.Repeat(" ", width)
	}
	return asciigraph.Plot(data,
		asciigraph.Height(6),
		asciigraph.Width(width),
	)
}
