package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the startup banner to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text, color string
	}{
		{"  _   _    _    _        _    ", "#38bdf8"},
		{" | \\ | |  / \\  | |      / \\   ", "#22d3ee"},
		{" |  \\| | / _ \\ | |     / _ \\  ", "#2dd4bf"},
		{" | |\\  |/ ___ \\| |___ / ___ \\ ", "#34d399"},
		{" |_| \\_/_/   \\_\\_____/_/   \\_\\", "#4ade80"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  lattice translator "+version).Faint())
	fmt.Fprintln(w)
}
