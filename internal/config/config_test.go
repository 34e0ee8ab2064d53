package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Store.TTL)
	assert.Equal(t, DriverSQLite, cfg.Records.Driver)
	assert.NotEmpty(t, cfg.Records.DSN)
	assert.Equal(t, 5, cfg.Bot.PageSize)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.PayPalEnabled())
	assert.Error(t, cfg.RequireWhatsApp())
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := writeFile(t, "ngena.yaml", `
server:
  addr: ":9000"
store:
  backend: redis
  redis_addr: localhost:6379
  ttl: 12h
  serialize: true
records:
  driver: postgres
  dsn: postgres://localhost/ngena
whatsapp:
  phone_number_id: "1234"
  token: from-file
bot:
  page_size: 7
`)
	t.Setenv("CLOUD_API_TOKEN", "from-env")
	t.Setenv("NGENA_LOGGING_LEVEL", "debug")
	t.Setenv("NGENA_STORE_FALLBACK_KEYS", "a,b")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, 12*time.Hour, cfg.Store.TTL)
	assert.True(t, cfg.Store.Serialize)
	assert.Equal(t, DriverPostgres, cfg.Records.Driver)
	assert.Equal(t, "from-env", cfg.WhatsApp.Token)
	assert.Equal(t, "1234", cfg.WhatsApp.PhoneNumberID)
	assert.Equal(t, 7, cfg.Bot.PageSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, []string{"a", "b"}, cfg.Store.FallbackKeys)
	assert.NoError(t, cfg.RequireWhatsApp())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "server: [unterminated"))
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"Empty", Config{}, false},
		{"RedisWithoutAddr", Config{Store: StoreConfig{Backend: "redis"}}, true},
		{"UnknownBackend", Config{Store: StoreConfig{Backend: "etcd"}}, true},
		{"PostgresWithoutDSN", Config{Records: RecordsConfig{Driver: "postgres"}}, true},
		{"PostgresAlias", Config{Records: RecordsConfig{Driver: "PostgreSQL", DSN: "postgres://x"}}, false},
		{"UnknownDriver", Config{Records: RecordsConfig{Driver: "mysql"}}, true},
		{"PageTooLarge", Config{Bot: BotConfig{PageSize: 12}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Normalize(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
	assert.Error(t, Normalize(nil))
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "NGENA_TEST_DOTENV=loaded\n")
	t.Setenv("NGENA_TEST_DOTENV", "")
	os.Unsetenv("NGENA_TEST_DOTENV")

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "loaded", os.Getenv("NGENA_TEST_DOTENV"))
}
