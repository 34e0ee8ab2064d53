package ngena_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/ngena"
	"github.com/aretw0/ngena/internal/config"
	"github.com/aretw0/ngena/internal/console"
	"github.com/aretw0/ngena/internal/testutils"
	"github.com/aretw0/ngena/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Records.DSN = testutils.SQLiteDSN(t)
	cfg.Records.Migrate = true
	require.NoError(t, config.Normalize(cfg))
	return cfg
}

func newApp(t *testing.T, tr *console.Transport) *ngena.App {
	t.Helper()
	app, err := ngena.New(context.Background(), testConfig(t), ngena.WithTransport(tr))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestApp_UnregisteredUserSignsUp(t *testing.T) {
	tr := console.New(nil)
	app := newApp(t, tr)

	out, err := app.Handle(context.Background(), &domain.IncomingMessage{UserID: "263771000001", Body: "hi"})
	require.NoError(t, err)

	assert.True(t, out.Purged)
	assert.Equal(t, domain.StateGreet, out.State)
	assert.Equal(t, domain.EnvelopeText, out.Envelope.Type)
	assert.Contains(t, out.Envelope.Text, "What is your first name?")
	assert.Len(t, tr.Sent(), 1)
}

func TestApp_HandleWebhook(t *testing.T) {
	tr := console.New(nil)
	app := newApp(t, tr)
	ctx := context.Background()

	t.Run("StatusCallback", func(t *testing.T) {
		out, err := app.HandleWebhook(ctx, []byte(`{"entry":[{"changes":[{"value":{"statuses":[{"id":"x","status":"read"}]}}]}]}`))
		require.NoError(t, err)
		assert.True(t, out.Dropped)
		assert.Empty(t, tr.Sent())
	})

	t.Run("TextMessage", func(t *testing.T) {
		raw := `{"entry":[{"changes":[{"value":{
			"contacts":[{"wa_id":"263771000002","profile":{"name":"Tariro"}}],
			"messages":[{"from":"263771000002","id":"m1","type":"text","text":{"body":"hi"}}]}}]}]}`
		out, err := app.HandleWebhook(ctx, []byte(raw))
		require.NoError(t, err)
		assert.False(t, out.Dropped)
		assert.Equal(t, domain.StateGreet, out.State)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := app.HandleWebhook(ctx, []byte(`{`))
		assert.Error(t, err)
	})
}

func TestApp_RequiresWhatsAppWithoutTransport(t *testing.T) {
	_, err := ngena.New(context.Background(), testConfig(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "whatsapp.phone_number_id")
}

func TestApp_Ping(t *testing.T) {
	app := newApp(t, console.New(nil))
	assert.NoError(t, app.Ping(context.Background()))
}

func TestRunner_Registration(t *testing.T) {
	var output bytes.Buffer
	app := newApp(t, console.New(&output))

	input := strings.Join([]string{"hi", "Tariro", "Moyo", "tariro@example.com", "female", "exit", "ignored"}, "\n")
	r := &ngena.Runner{
		Input:    strings.NewReader(input),
		Output:   &output,
		UserID:   "263771000003",
		Headless: true,
	}
	require.NoError(t, r.Run(context.Background(), app))

	got := output.String()
	assert.Contains(t, got, "What is your first name?")
	assert.Contains(t, got, "What is your last name?")
	assert.Contains(t, got, "What is your email address?")
	assert.Contains(t, got, "You have successfully registered.")
	assert.True(t, strings.HasSuffix(got, "Bye!\n"))

	exists, err := app.Records().UserExists(context.Background(), "263771000003")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRunner_RequiresIO(t *testing.T) {
	app := newApp(t, console.New(nil))

	err := (&ngena.Runner{Output: &bytes.Buffer{}, UserID: "u"}).Run(context.Background(), app)
	assert.Error(t, err)

	err = (&ngena.Runner{Input: strings.NewReader(""), Output: &bytes.Buffer{}}).Run(context.Background(), app)
	assert.Error(t, err)
}
