// Package config loads the application configuration from an optional YAML file
// overlaid by environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable, e.g. NGENA_STORE_BACKEND.
// Fields with an explicit envconfig tag also accept the bare tag name.
const EnvPrefix = "NGENA"

// Store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Record store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ServerConfig configures the webhook HTTP server.
type ServerConfig struct {
	Addr            string        `yaml:"addr" envconfig:"ADDR"`
	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true"`
}

// StoreConfig configures the session, history and navigation store.
type StoreConfig struct {
	Backend       string        `yaml:"backend"`
	RedisAddr     string        `yaml:"redis_addr" envconfig:"REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" envconfig:"REDIS_DB"`
	Prefix        string        `yaml:"prefix"`
	TTL           time.Duration `yaml:"ttl"`
	// EncryptionKey is a base64 AES-256 key; empty disables encryption at rest.
	EncryptionKey string   `yaml:"encryption_key" split_words:"true"`
	FallbackKeys  []string `yaml:"fallback_keys" split_words:"true"`
	// Serialize runs cycles of the same user one at a time.
	Serialize bool          `yaml:"serialize"`
	LockTTL   time.Duration `yaml:"lock_ttl" split_words:"true"`
}

// RecordsConfig configures the domain record store.
type RecordsConfig struct {
	Driver  string `yaml:"driver"`
	DSN     string `yaml:"dsn" envconfig:"DATABASE_URL"`
	Migrate bool   `yaml:"migrate"`
}

// WhatsAppConfig configures the Cloud API transport.
type WhatsAppConfig struct {
	BaseURL       string        `yaml:"base_url" split_words:"true"`
	PhoneNumberID string        `yaml:"phone_number_id" envconfig:"PHONE_NUMBER_ID"`
	Token         string        `yaml:"token" envconfig:"CLOUD_API_TOKEN"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxInputSize  int           `yaml:"max_input_size" split_words:"true"`
}

// PayPalConfig configures the payment-order client.
type PayPalConfig struct {
	BaseURL             string `yaml:"base_url" split_words:"true"`
	ClientID            string `yaml:"client_id" envconfig:"PAYPAL_CLIENT_ID"`
	ClientSecret        string `yaml:"client_secret" envconfig:"PAYPAL_CLIENT_SECRET"`
	ReturnURL           string `yaml:"return_url" envconfig:"PAYPAL_RETURN_URL"`
	CancelURL           string `yaml:"cancel_url" envconfig:"PAYPAL_CANCEL_URL"`
	AssignmentReturnURL string `yaml:"assignment_return_url" envconfig:"PAYPAL_RETURN_URL_ASSIGNMENT"`
}

// RenderConfig configures envelope rendering.
type RenderConfig struct {
	PayURL string `yaml:"pay_url" split_words:"true"`
}

// BotConfig holds dialog settings.
type BotConfig struct {
	PageSize     int    `yaml:"page_size" split_words:"true"`
	ContactPhone string `yaml:"contact_phone" split_words:"true"`
	// Actions overrides the embedded action table with a YAML file.
	Actions string `yaml:"actions"`
}

// LoggingConfig configures the application logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config aggregates the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Records  RecordsConfig  `yaml:"records"`
	WhatsApp WhatsAppConfig `yaml:"whatsapp"`
	PayPal   PayPalConfig   `yaml:"paypal"`
	Render   RenderConfig   `yaml:"render"`
	Bot      BotConfig      `yaml:"bot"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoadDotEnv loads environment files. Missing files are ignored; with no arguments
// it loads ".env".
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the YAML file at path (skipped when empty), applies environment
// variables and normalizes the result.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the configuration and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	switch backend {
	case "":
		backend = BackendMemory
	case BackendMemory:
	case BackendRedis:
		if strings.TrimSpace(cfg.Store.RedisAddr) == "" {
			return errors.New("store.redis_addr is required when store.backend is 'redis'")
		}
	default:
		return fmt.Errorf("invalid store.backend %q; allowed: memory, redis", cfg.Store.Backend)
	}
	cfg.Store.Backend = backend
	if cfg.Store.TTL <= 0 {
		cfg.Store.TTL = 24 * time.Hour
	}
	if cfg.Store.LockTTL <= 0 {
		cfg.Store.LockTTL = 30 * time.Second
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Records.Driver))
	switch driver {
	case "", DriverSQLite:
		driver = DriverSQLite
		if cfg.Records.DSN == "" {
			cfg.Records.DSN = "file:data/ngena.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
		}
	case "postgresql", DriverPostgres:
		driver = DriverPostgres
		if cfg.Records.DSN == "" {
			return errors.New("records.dsn is required when records.driver is 'postgres'")
		}
	default:
		return fmt.Errorf("invalid records.driver %q; allowed: sqlite, postgres", cfg.Records.Driver)
	}
	cfg.Records.Driver = driver

	if cfg.Bot.PageSize <= 0 {
		cfg.Bot.PageSize = 5
	}
	if cfg.Bot.PageSize > 9 {
		// A list message holds at most 10 rows, one of which may be a pagination control.
		return fmt.Errorf("bot.page_size must be <= 9, got %d", cfg.Bot.PageSize)
	}
	if cfg.Bot.ContactPhone == "" {
		cfg.Bot.ContactPhone = "+263771516726"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	return nil
}

// RequireWhatsApp checks the transport credentials, needed only when serving.
func (c *Config) RequireWhatsApp() error {
	if c.WhatsApp.PhoneNumberID == "" {
		return errors.New("whatsapp.phone_number_id is required")
	}
	if c.WhatsApp.Token == "" {
		return errors.New("whatsapp.token is required")
	}
	return nil
}

// PayPalEnabled reports whether payment orders can be created.
func (c *Config) PayPalEnabled() bool {
	return c.PayPal.ClientID != "" && c.PayPal.ClientSecret != ""
}
