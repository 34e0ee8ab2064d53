package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/ngena/pkg/actions"
	"github.com/aretw0/ngena/pkg/dispatch"
	"github.com/aretw0/ngena/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockEngine records webhook payloads.
type MockEngine struct {
	Payloads [][]byte
	Outcome  dispatch.Outcome
	Err      error
	PingErr  error
}

func (m *MockEngine) HandleWebhook(ctx context.Context, raw []byte) (dispatch.Outcome, error) {
	m.Payloads = append(m.Payloads, raw)
	return m.Outcome, m.Err
}

func (m *MockEngine) Ping(ctx context.Context) error { return m.PingErr }

func serve(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestWebhook(t *testing.T) {
	t.Run("Dispatches", func(t *testing.T) {
		eng := &MockEngine{Outcome: dispatch.Outcome{CycleID: "c1", State: domain.StateMenu}}
		w := serve(t, NewHandler(eng), http.MethodPost, "/webhook", `{"entry":[]}`)

		assert.Equal(t, http.StatusOK, w.Code)
		require.Len(t, eng.Payloads, 1)
		assert.JSONEq(t, `{"entry":[]}`, string(eng.Payloads[0]))
	})

	t.Run("AcknowledgesFailures", func(t *testing.T) {
		eng := &MockEngine{Err: errors.New("redis down")}
		w := serve(t, NewHandler(eng), http.MethodPost, "/webhook", `{}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("TooLarge", func(t *testing.T) {
		eng := &MockEngine{}
		w := serve(t, NewHandler(eng), http.MethodPost, "/webhook", strings.Repeat("a", MaxBodySize+1))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Empty(t, eng.Payloads)
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		w := serve(t, NewHandler(&MockEngine{}), http.MethodGet, "/webhook", "")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestGetHealth(t *testing.T) {
	w := serve(t, NewHandler(&MockEngine{}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = serve(t, NewHandler(&MockEngine{PingErr: errors.New("db closed")}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "db closed")
}

func TestGetInfo(t *testing.T) {
	w := serve(t, NewHandler(&MockEngine{}, WithVersion("1.2.3\n")), http.MethodGet, "/info", "")
	assert.JSONEq(t, `{"app":"ngena","version":"1.2.3"}`, w.Body.String())
}

func TestGetActions(t *testing.T) {
	table, err := actions.Default()
	require.NoError(t, err)

	w := serve(t, NewHandler(&MockEngine{}, WithActions(table)), http.MethodGet, "/actions", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]actions.Row
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got, len(table))
	assert.Equal(t, "greet", got["greet"].Validator)

	w = serve(t, NewHandler(&MockEngine{}), http.MethodGet, "/actions", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ngena_dispatch_total 1\n"))
	})
	w := serve(t, NewHandler(&MockEngine{}, WithMetrics(metrics)), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ngena_dispatch_total")
}
