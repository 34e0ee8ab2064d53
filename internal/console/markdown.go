package console

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Renderer turns reply text into terminal output.
type Renderer func(string) (string, error)

var (
	bold  = regexp.MustCompile(`\*([^*\n]+)\*`)
	lines = regexp.MustCompile(`\n`)
)

// Markdown converts WhatsApp markup to Markdown. Single-asterisk bold becomes double
// asterisks and line breaks are kept as hard breaks.
func Markdown(text string) string {
	out := bold.ReplaceAllString(text, "**$1**")
	return lines.ReplaceAllString(out, "  \n")
}

// NewRenderer returns a glamour renderer for WhatsApp-formatted text.
func NewRenderer() Renderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(72),
	)
	if err != nil {
		return Plain
	}
	return func(text string) (string, error) {
		out, err := r.Render(Markdown(text))
		if err != nil {
			return "", err
		}
		return strings.TrimRight(out, "\n"), nil
	}
}

// Plain leaves the text untouched.
func Plain(text string) (string, error) {
	return text, nil
}
