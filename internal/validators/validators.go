// Package validators implements the business logic behind each dialog state.
//
// Every validator reads the current session, may persist flow progress back into the
// session store and returns a Result whose Valid flag selects the transition taken by
// the dispatcher. Record lookups go through ports.RecordStore; payment orders go through
// an optional ports.PaymentClient.
package validators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/ngena/internal/logging"
	"github.com/aretw0/ngena/pkg/dispatch"
	"github.com/aretw0/ngena/pkg/domain"
	"github.com/aretw0/ngena/pkg/history"
	"github.com/aretw0/ngena/pkg/ports"
	"github.com/aretw0/ngena/pkg/registry"
	"github.com/aretw0/ngena/pkg/session"
)

const (
	// DefaultPageSize is the number of list items shown per page.
	DefaultPageSize = 5
	// DefaultContactPhone is the support number shown by help and about.
	DefaultContactPhone = "+263771516726"

	brandName         = "Ngena"
	currencyUSD       = "USD"
	outsourcingCourse = "COUT"
	recentPayments    = 7
)

// PaymentURLs are the redirect targets handed to the payment provider.
type PaymentURLs struct {
	Return           string
	Cancel           string
	AssignmentReturn string
}

// Handlers holds the dependencies shared by all validators.
type Handlers struct {
	records  ports.RecordStore
	sessions *session.Store
	history  *history.Stack
	payments ports.PaymentClient
	urls     PaymentURLs
	pageSize int
	contact  string
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures Handlers.
type Option func(*Handlers)

// WithPayments sets the payment-order client. Without one, payment requests fail
// with a notice to the user.
func WithPayments(c ports.PaymentClient) Option {
	return func(h *Handlers) {
		h.payments = c
	}
}

// WithPaymentURLs sets the provider redirect URLs.
func WithPaymentURLs(urls PaymentURLs) Option {
	return func(h *Handlers) {
		h.urls = urls
	}
}

// WithPageSize sets the list page size.
func WithPageSize(n int) Option {
	return func(h *Handlers) {
		if n > 0 {
			h.pageSize = n
		}
	}
}

// WithContactPhone sets the support number.
func WithContactPhone(phone string) Option {
	return func(h *Handlers) {
		if phone != "" {
			h.contact = phone
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handlers) {
		h.logger = logger
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(h *Handlers) {
		h.now = now
	}
}

// New creates the validator set.
func New(records ports.RecordStore, sessions *session.Store, hist *history.Stack, opts ...Option) *Handlers {
	h := &Handlers{
		records:  records,
		sessions: sessions,
		history:  hist,
		pageSize: DefaultPageSize,
		contact:  DefaultContactPhone,
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Validators maps every validator name to its implementation.
func (h *Handlers) Validators() map[string]registry.Validator {
	return map[string]registry.Validator{
		"greet":          h.greet,
		"user_exists":    h.userExists,
		"register":       h.register,
		"menu":           h.menu,
		"enroll":         h.enroll,
		"courses":        h.courses,
		"assignments":    h.assignments,
		"payments":       h.listPayments,
		"profile":        h.profile,
		"help":           h.help,
		"about":          h.about,
		"handle_payment": h.handlePayment,
		"join_class":     h.joinClass,
		"cancel_payment": h.cancelPayment,
	}
}

// Register adds every validator to reg.
func (h *Handlers) Register(reg *registry.Registry) {
	for name, fn := range h.Validators() {
		reg.Register(name, fn)
	}
}

// continuing reports whether the request is a follow-up inside state's own flow
// rather than a fresh entry from a selection list.
func continuing(req registry.Request, state domain.State) bool {
	return !req.Session.State.IsList() && req.Session.State.Name == state
}

// isBack reports whether the body is the history pop command. The dispatcher has
// already restored the previous turn, so the validator re-renders it.
func isBack(body string) bool {
	return strings.EqualFold(strings.TrimSpace(body), dispatch.BackCommand)
}

func (h *Handlers) user(ctx context.Context, phone string) (domain.User, bool, error) {
	u, err := h.records.GetUser(ctx, phone)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, err
	}
	return u, true, nil
}

func invalidSelection() *domain.Reply {
	return &domain.Reply{
		ResponseType: domain.ResponseButton,
		ExcludeBack:  true,
		Text:         "*Invalid selection*\n\nPlease select a valid option from the menu.",
	}
}

func payNowDisabled() *domain.Reply {
	return &domain.Reply{
		ResponseType: domain.ResponseButton,
		ExcludeBack:  true,
		Text:         "*🇿🇼 PayNow*\n\nThis feature is currently disabled. Please select another payment option.",
	}
}
