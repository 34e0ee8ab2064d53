package ngena

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/ngena/internal/config"
	"github.com/aretw0/ngena/internal/logging"
	"github.com/aretw0/ngena/internal/validators"
	"github.com/aretw0/ngena/pkg/actions"
	"github.com/aretw0/ngena/pkg/adapters/memory"
	"github.com/aretw0/ngena/pkg/adapters/paypal"
	redisAdapter "github.com/aretw0/ngena/pkg/adapters/redis"
	sqlstore "github.com/aretw0/ngena/pkg/adapters/sql"
	"github.com/aretw0/ngena/pkg/adapters/whatsapp"
	"github.com/aretw0/ngena/pkg/dispatch"
	"github.com/aretw0/ngena/pkg/domain"
	"github.com/aretw0/ngena/pkg/history"
	"github.com/aretw0/ngena/pkg/observability"
	"github.com/aretw0/ngena/pkg/persistence/middleware"
	"github.com/aretw0/ngena/pkg/ports"
	"github.com/aretw0/ngena/pkg/registry"
	"github.com/aretw0/ngena/pkg/render"
	"github.com/aretw0/ngena/pkg/session"
)

// App is the wired dialog engine: stores, validators, dispatcher and transport.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	kv         ports.KVStore
	records    *sqlstore.Store
	transport  ports.Transport
	payments   ports.PaymentClient
	media      whatsapp.MediaResolver
	dispatcher *dispatch.Dispatcher
	parser     *whatsapp.Parser
	metrics    *observability.Metrics
	hooks      domain.LifecycleHooks

	closers []func() error
}

// Option configures the App.
type Option func(*App)

// WithLogger sets the structured logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithTransport replaces the WhatsApp client, e.g. with a console or capture transport.
func WithTransport(t ports.Transport) Option {
	return func(a *App) {
		a.transport = t
	}
}

// WithKVStore replaces the configured session store backend.
func WithKVStore(kv ports.KVStore) Option {
	return func(a *App) {
		a.kv = kv
	}
}

// WithRecords replaces the configured record store. The caller keeps ownership.
func WithRecords(s *sqlstore.Store) Option {
	return func(a *App) {
		a.records = s
	}
}

// WithPayments replaces the PayPal client.
func WithPayments(c ports.PaymentClient) Option {
	return func(a *App) {
		a.payments = c
	}
}

// WithLifecycleHooks registers extra observability hooks, run after the built-in ones.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(a *App) {
		a.hooks = hooks
	}
}

// New wires an App from cfg. It connects to the stores, applies migrations when
// enabled and checks the action table against the registered validators.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("ngena: nil config")
	}
	a := &App{cfg: cfg, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.cfg

	var redisStore *redisAdapter.Store
	if a.kv == nil {
		switch cfg.Store.Backend {
		case config.BackendRedis:
			redisStore = redisAdapter.New(cfg.Store.RedisAddr, cfg.Store.RedisPassword, cfg.Store.RedisDB,
				redisAdapter.WithPrefix(cfg.Store.Prefix))
			a.closers = append(a.closers, redisStore.Close)
			if err := redisStore.Ping(ctx); err != nil {
				return fmt.Errorf("connect redis: %w", err)
			}
			a.kv = redisStore
		default:
			a.kv = memory.NewStore()
		}
	}
	if cfg.Store.EncryptionKey != "" {
		enc, err := encryption(cfg.Store)
		if err != nil {
			return err
		}
		a.kv = middleware.Chain(a.kv, enc)
	}

	if a.records == nil {
		if cfg.Records.Migrate {
			if err := sqlstore.Migrate(cfg.Records.Driver, cfg.Records.DSN, a.logger); err != nil {
				return err
			}
		}
		records, err := sqlstore.Open(ctx, cfg.Records.Driver, cfg.Records.DSN, sqlstore.WithLogger(a.logger))
		if err != nil {
			return err
		}
		a.closers = append(a.closers, records.Close)
		a.records = records
	}

	if a.transport == nil {
		if err := cfg.RequireWhatsApp(); err != nil {
			return err
		}
		client, err := whatsapp.NewClient(whatsapp.Config{
			BaseURL:       cfg.WhatsApp.BaseURL,
			PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
			Token:         cfg.WhatsApp.Token,
			Timeout:       cfg.WhatsApp.Timeout,
		}, whatsapp.WithLogger(a.logger))
		if err != nil {
			return err
		}
		a.transport = client
		a.media = client
	}
	a.parser = whatsapp.NewParser(a.media, whatsapp.WithMaxInputSize(cfg.WhatsApp.MaxInputSize))

	if a.payments == nil && cfg.PayPalEnabled() {
		client, err := paypal.New(paypal.Config{
			BaseURL:      cfg.PayPal.BaseURL,
			ClientID:     cfg.PayPal.ClientID,
			ClientSecret: cfg.PayPal.ClientSecret,
		}, paypal.WithLogger(a.logger))
		if err != nil {
			return err
		}
		a.payments = client
	}

	table, err := a.table()
	if err != nil {
		return err
	}

	sessions := session.NewStore(a.kv, session.WithTTL(cfg.Store.TTL))
	hist := history.New(a.kv, history.WithTTL(cfg.Store.TTL))

	vopts := []validators.Option{
		validators.WithLogger(a.logger),
		validators.WithPageSize(cfg.Bot.PageSize),
		validators.WithContactPhone(cfg.Bot.ContactPhone),
		validators.WithPaymentURLs(validators.PaymentURLs{
			Return:           cfg.PayPal.ReturnURL,
			Cancel:           cfg.PayPal.CancelURL,
			AssignmentReturn: cfg.PayPal.AssignmentReturnURL,
		}),
	}
	if a.payments != nil {
		vopts = append(vopts, validators.WithPayments(a.payments))
	}
	reg := registry.NewRegistry()
	validators.New(a.records, sessions, hist, vopts...).Register(reg)

	a.metrics = observability.NewMetrics()
	dopts := []dispatch.Option{
		dispatch.WithLogger(a.logger),
		dispatch.WithHistory(hist),
		dispatch.WithRenderer(render.New(render.Options{PayURL: cfg.Render.PayURL})),
		dispatch.WithHooks(observability.Join(a.metrics.Hooks(), observability.LogHooks(a.logger), a.hooks)),
	}
	if cfg.Store.Serialize {
		mopts := []session.ManagerOption{
			session.WithLockTTL(cfg.Store.LockTTL),
			session.WithLogger(a.logger),
		}
		if redisStore != nil {
			mopts = append(mopts, session.WithLocker(redisAdapter.NewLocker(redisStore.Client(), redisStore.Prefix())))
		}
		dopts = append(dopts, dispatch.WithManager(session.NewManager(mopts...)))
	}

	a.dispatcher, err = dispatch.New(table, reg, sessions, a.records, a.transport, dopts...)
	return err
}

func (a *App) table() (actions.Table, error) {
	if a.cfg.Bot.Actions != "" {
		return actions.LoadFile(a.cfg.Bot.Actions)
	}
	return actions.Default()
}

func encryption(cfg config.StoreConfig) (middleware.Middleware, error) {
	active, err := middleware.ParseKey(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("store.encryption_key: %w", err)
	}
	var fallback [][]byte
	for i, k := range cfg.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, fmt.Errorf("store.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    active,
		FallbackKeys: fallback,
	}), nil
}

// Handle runs one dispatch cycle for an already normalized message.
func (a *App) Handle(ctx context.Context, msg *domain.IncomingMessage) (dispatch.Outcome, error) {
	return a.dispatcher.Handle(ctx, msg)
}

// HandleWebhook normalizes a raw webhook payload and dispatches it. Payloads with no
// user message produce a dropped outcome.
func (a *App) HandleWebhook(ctx context.Context, raw []byte) (dispatch.Outcome, error) {
	msg, err := a.parser.Parse(ctx, raw)
	if err != nil {
		return dispatch.Outcome{}, err
	}
	return a.dispatcher.Handle(ctx, msg)
}

// Ping checks the record store.
func (a *App) Ping(ctx context.Context) error {
	return a.records.Ping(ctx)
}

// Dispatcher returns the dispatcher.
func (a *App) Dispatcher() *dispatch.Dispatcher {
	return a.dispatcher
}

// Records returns the record store.
func (a *App) Records() *sqlstore.Store {
	return a.records
}

// Metrics returns the Prometheus collectors fed by the dispatcher.
func (a *App) Metrics() *observability.Metrics {
	return a.metrics
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Close releases the stores opened by New, in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
