package dispatch

import (
	"log/slog"
	"time"

	"github.com/aretw0/ngena/pkg/domain"
	"github.com/aretw0/ngena/pkg/history"
	"github.com/aretw0/ngena/pkg/render"
	"github.com/aretw0/ngena/pkg/session"
)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(d *Dispatcher) {
		d.hooks = hooks
	}
}

// WithManager serializes cycles of the same user through m.
func WithManager(m *session.Manager) Option {
	return func(d *Dispatcher) {
		d.manager = m
	}
}

// WithHistory overrides the history stack (defaults to one over the session store).
func WithHistory(h *history.Stack) Option {
	return func(d *Dispatcher) {
		d.history = h
	}
}

// WithRenderer overrides the envelope renderer.
func WithRenderer(r *render.Renderer) Option {
	return func(d *Dispatcher) {
		d.renderer = r
	}
}

// WithIDGenerator overrides the cycle id source.
func WithIDGenerator(fn func() string) Option {
	return func(d *Dispatcher) {
		d.newID = fn
	}
}

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}
