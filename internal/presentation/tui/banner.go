package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the sessiond banner to w, colored when w is a terminal.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{"                      _                _ ", "#34d399"},
		{"  ___ ___  ___ ___(_) ___  _ __   __| |", "#2dd4bf"},
		{" / __/ _ \\/ __/ __| |/ _ \\| '_ \\ / _` |", "#22d3ee"},
		{" \\__ \\  __/\\__ \\__ \\ | (_) | | | | (_| |", "#38bdf8"},
		{" |___/\\___||___/___/_|\\___/|_| |_|\\__,_|", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
