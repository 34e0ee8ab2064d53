package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aretw0/ngena/pkg/actions"
	"github.com/aretw0/ngena/pkg/adapters/memory"
	"github.com/aretw0/ngena/pkg/dispatch"
	"github.com/aretw0/ngena/pkg/domain"
	"github.com/aretw0/ngena/pkg/history"
	"github.com/aretw0/ngena/pkg/persistence/middleware"
	"github.com/aretw0/ngena/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	got []*domain.IncomingMessage
	out dispatch.Outcome
	err error
}

func (f *fakeEngine) Handle(ctx context.Context, msg *domain.IncomingMessage) (dispatch.Outcome, error) {
	f.got = append(f.got, msg)
	return f.out, f.err
}

type fixture struct {
	engine   *fakeEngine
	sessions *session.Store
	history  *history.Stack
	server   *Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kv := memory.NewStore()
	table, err := actions.Default()
	require.NoError(t, err)

	f := &fixture{
		engine:   &fakeEngine{},
		sessions: session.NewStore(kv),
		history:  history.New(kv),
	}
	f.server = NewServer(f.engine, f.sessions, f.history, table, WithVersion("test"))
	return f
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	content, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return content.Text
}

func TestSendMessage(t *testing.T) {
	f := newFixture(t)
	f.engine.out = dispatch.Outcome{
		CycleID:  "c1",
		State:    domain.StateGreet,
		Next:     domain.To(domain.StateRegister),
		Envelope: domain.Envelope{Type: domain.EnvelopeText, Text: `{"body":"What is your first name?"}`},
	}

	args := map[string]any{"user_id": "263771000001", "body": "hi", "file_url": "https://cdn.example/files/a.pdf"}
	got, err := f.server.handleSendMessage(context.Background(), call(args), args)
	require.NoError(t, err)

	assert.Equal(t, "c1", got.CycleID)
	assert.Equal(t, domain.OutcomeInvalid, got.Outcome)
	assert.Equal(t, "greet", got.State)
	assert.Equal(t, "register", got.Next)
	assert.Contains(t, got.Envelope.Text, "first name")

	require.Len(t, f.engine.got, 1)
	assert.Equal(t, "hi", f.engine.got[0].Body)
	assert.Equal(t, "a.pdf", f.engine.got[0].FileName)
}

func TestSendMessage_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.server.handleSendMessage(context.Background(), call(nil), map[string]any{})
	assert.Error(t, err)

	f.engine.err = errors.New("store down")
	args := map[string]any{"user_id": "u"}
	_, err = f.server.handleSendMessage(context.Background(), call(args), args)
	assert.ErrorContains(t, err, "store down")
}

func TestGetSession_Masked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sessions.Set(ctx, "u1", domain.Session{
		State: domain.To(domain.StateRegister),
		Data:  map[string]any{"first_name": "Tariro", "course_id": float64(3)},
	}))

	res, err := f.server.handleGetSession(ctx, call(map[string]any{"user_id": "u1"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var sess domain.Session
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &sess))
	assert.Equal(t, domain.StateRegister, sess.State.Name)
	assert.Equal(t, middleware.Mask, sess.Data["first_name"])
	assert.Equal(t, float64(3), sess.Data["course_id"])

	// The stored value is untouched.
	stored, err := f.sessions.Data(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Tariro", stored["first_name"])
}

func TestGetSession_Missing(t *testing.T) {
	f := newFixture(t)

	res, err := f.server.handleGetSession(context.Background(), call(map[string]any{"user_id": "nobody"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = f.server.handleGetSession(context.Background(), call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestGetHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.server.handleGetHistory(ctx, call(map[string]any{"user_id": "u1"}))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, text(t, res))

	require.NoError(t, f.history.Append(ctx, "u1", domain.HistoryEntry{
		State: domain.StateRegister,
		Data:  map[string]any{"email": "tariro@example.com"},
	}))

	res, err = f.server.handleGetHistory(ctx, call(map[string]any{"user_id": "u1"}))
	require.NoError(t, err)

	var entries []domain.HistoryEntry
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, domain.StateRegister, entries[0].State)
	assert.Equal(t, middleware.Mask, entries[0].Data["email"])
}
