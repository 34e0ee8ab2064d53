// Package console is a terminal stand-in for the messaging API. Its transport
// prints rendered envelopes the way a chat client would show them.
package console

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/ngena/pkg/domain"
	"github.com/aretw0/ngena/pkg/ports"
)

var _ ports.Transport = (*Transport)(nil)

// wire is the reader-side view of every envelope body.
type wire struct {
	Body    json.RawMessage `json:"body"`
	Link    string          `json:"link"`
	Caption string          `json:"caption"`
	Action  struct {
		Button   string `json:"button"`
		Sections []struct {
			Rows []struct {
				ID          string `json:"id"`
				Title       string `json:"title"`
				Description string `json:"description"`
			} `json:"rows"`
		} `json:"sections"`
		Buttons []struct {
			Type  string `json:"type"`
			URL   string `json:"url"`
			Title string `json:"title"`
			Reply *struct {
				ID    string `json:"id"`
				Title string `json:"title"`
			} `json:"reply"`
		} `json:"buttons"`
	} `json:"action"`
}

// text returns the message text: a plain string for text bodies, body.text for
// interactive ones.
func (w wire) text() string {
	var s string
	if json.Unmarshal(w.Body, &s) == nil {
		return s
	}
	var nested struct {
		Text string `json:"text"`
	}
	_ = json.Unmarshal(w.Body, &nested)
	return nested.Text
}

// Transport writes envelopes to an io.Writer and keeps them for inspection.
type Transport struct {
	mu     sync.Mutex
	out    io.Writer
	render Renderer
	status int
	sent   []domain.Envelope
}

// Option configures a Transport.
type Option func(*Transport)

// WithRenderer sets how message text is rendered (default Plain).
func WithRenderer(r Renderer) Option {
	return func(t *Transport) {
		t.render = r
	}
}

// WithStatus sets the status code reported in receipts (default 200).
func WithStatus(code int) Option {
	return func(t *Transport) {
		t.status = code
	}
}

// New creates a Transport printing to out. A nil out only records.
func New(out io.Writer, opts ...Option) *Transport {
	t := &Transport{out: out, render: Plain, status: http.StatusOK}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Send prints env and acknowledges it.
func (t *Transport) Send(_ context.Context, env domain.Envelope) (domain.Receipt, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sent = append(t.sent, env)
	if t.out != nil {
		view, err := t.format(env)
		if err != nil {
			return domain.Receipt{}, err
		}
		fmt.Fprintln(t.out, view)
	}
	return domain.Receipt{StatusCode: t.status, MessageID: fmt.Sprintf("console.%d", len(t.sent))}, nil
}

// Sent returns a copy of the envelopes sent so far.
func (t *Transport) Sent() []domain.Envelope {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.Envelope(nil), t.sent...)
}

// Last returns the most recent envelope.
func (t *Transport) Last() (domain.Envelope, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.sent) == 0 {
		return domain.Envelope{}, false
	}
	return t.sent[len(t.sent)-1], true
}

// Format renders env as terminal text.
func Format(env domain.Envelope, render Renderer) (string, error) {
	var w wire
	if err := json.Unmarshal([]byte(env.Body()), &w); err != nil {
		return "", fmt.Errorf("console: decode %s body: %w", env.Type, err)
	}

	var b strings.Builder
	switch env.Type {
	case domain.EnvelopeDocument, domain.EnvelopeImage, domain.EnvelopeAudio, domain.EnvelopeVideo:
		fmt.Fprintf(&b, "[%s] %s\n", env.Type, w.Link)
		if w.Caption != "" {
			text, err := render(w.Caption)
			if err != nil {
				return "", err
			}
			b.WriteString(text)
		}
		return strings.TrimRight(b.String(), "\n"), nil
	}

	text, err := render(w.text())
	if err != nil {
		return "", err
	}
	b.WriteString(text)

	for _, s := range w.Action.Sections {
		if len(s.Rows) > 0 && w.Action.Button != "" {
			fmt.Fprintf(&b, "\n\n%s", w.Action.Button)
		}
		for _, row := range s.Rows {
			fmt.Fprintf(&b, "\n  • %s (%s)", row.Title, row.ID)
			if row.Description != "" {
				fmt.Fprintf(&b, "\n      %s", row.Description)
			}
		}
	}
	if len(w.Action.Buttons) > 0 {
		b.WriteString("\n")
	}
	for _, bt := range w.Action.Buttons {
		switch {
		case bt.Reply != nil:
			fmt.Fprintf(&b, "\n  [%s] (%s)", bt.Reply.Title, bt.Reply.ID)
		case bt.URL != "":
			fmt.Fprintf(&b, "\n  [%s] %s", bt.Title, bt.URL)
		}
	}
	return b.String(), nil
}

func (t *Transport) format(env domain.Envelope) (string, error) {
	return Format(env, t.render)
}
