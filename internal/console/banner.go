package console

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the chat banner to w.
func PrintBanner(w io.Writer, version, user string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"  _   _                        ", "#34d399"},
		{" | \\ | | __ _  ___ _ __   __ _ ", "#2dd4bf"},
		{" |  \\| |/ _` |/ _ \\ '_ \\ / _` |", "#22d3ee"},
		{" | |\\  | (_| |  __/ | | | (_| |", "#38bdf8"},
		{" |_| \\_|\\__, |\\___|_| |_|\\__,_|", "#60a5fa"},
		{"        |___/                  ", "#818cf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, out.String(fmt.Sprintf(" %s · chatting as %s", version, user)).Faint())
	fmt.Fprintln(w, out.String(" type 'exit' to quit, '/file <url>' to send a document").Faint())
	fmt.Fprintln(w)
}
