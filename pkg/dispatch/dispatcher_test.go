package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/ngena/pkg/actions"
	"github.com/aretw0/ngena/pkg/adapters/memory"
	"github.com/aretw0/ngena/pkg/domain"
	"github.com/aretw0/ngena/pkg/history"
	"github.com/aretw0/ngena/pkg/registry"
	"github.com/aretw0/ngena/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const user = "263771000001"

type fakeTransport struct {
	mu     sync.Mutex
	sent   []domain.Envelope
	status int
	err    error
}

func (f *fakeTransport) Send(ctx context.Context, env domain.Envelope) (domain.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, env)
	if f.err != nil {
		return domain.Receipt{}, f.err
	}
	status := f.status
	if status == 0 {
		status = 200
	}
	return domain.Receipt{StatusCode: status, MessageID: fmt.Sprintf("wamid.%d", len(f.sent))}, nil
}

func (f *fakeTransport) last() domain.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type fakeUsers map[string]bool

func (u fakeUsers) UserExists(ctx context.Context, phone string) (bool, error) {
	return u[phone], nil
}

type harness struct {
	kv        *memory.Store
	sessions  *session.Store
	history   *history.Stack
	transport *fakeTransport
	users     fakeUsers
	registry  *registry.Registry
	calls     []domain.State
	d         *Dispatcher
}

// echo registers a validator per table state that answers with its own name.
func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	table, err := actions.Default()
	require.NoError(t, err)

	h := &harness{
		kv:        memory.NewStore(),
		transport: &fakeTransport{},
		users:     fakeUsers{user: true},
		registry:  registry.NewRegistry(),
	}
	h.sessions = session.NewStore(h.kv)
	h.history = history.New(h.kv)

	for _, name := range table.Validators() {
		state := domain.State(name)
		h.registry.Register(name, func(ctx context.Context, req registry.Request) (domain.Result, error) {
			h.calls = append(h.calls, state)
			return domain.Valid(domain.TextReply("reply:" + name)), nil
		})
	}

	opts = append([]Option{WithHistory(h.history), WithIDGenerator(func() string { return "cycle" })}, opts...)
	h.d, err = New(table, h.registry, h.sessions, h.users, h.transport, opts...)
	require.NoError(t, err)
	return h
}

func (h *harness) send(t *testing.T, body string) Outcome {
	t.Helper()
	out, err := h.d.Handle(context.Background(), &domain.IncomingMessage{UserID: user, Body: body})
	require.NoError(t, err)
	return out
}

func (h *harness) session(t *testing.T) domain.Session {
	t.Helper()
	s, found, err := h.sessions.Get(context.Background(), user)
	require.NoError(t, err)
	require.True(t, found)
	return s
}

func (h *harness) entries(t *testing.T) []domain.HistoryEntry {
	t.Helper()
	e, err := h.history.Entries(context.Background(), user)
	require.NoError(t, err)
	return e
}

func TestNew_RejectsMissingValidator(t *testing.T) {
	table, err := actions.Default()
	require.NoError(t, err)

	_, err = New(table, registry.NewRegistry(), session.NewStore(memory.NewStore()), fakeUsers{}, &fakeTransport{})
	assert.Error(t, err)
}

func TestHandle_DropsEmptyEvents(t *testing.T) {
	h := newHarness(t)

	out, err := h.d.Handle(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, out.Dropped)

	out, err = h.d.Handle(context.Background(), &domain.IncomingMessage{Body: "hi"})
	require.NoError(t, err)
	assert.True(t, out.Dropped)
	assert.Empty(t, h.transport.sent)
}

func TestHandle_NewUserStartsAtMenu(t *testing.T) {
	h := newHarness(t)

	out := h.send(t, "anything")
	assert.Equal(t, domain.StateMenu, out.State)
	assert.True(t, out.Valid)
	assert.Equal(t, domain.OneOf(
		domain.StateEnroll, domain.StateCourses, domain.StateAssignments,
		domain.StatePayments, domain.StateProfile, domain.StateHelp, domain.StateAbout,
	), h.session(t).State)
	assert.Equal(t, "reply:menu", h.transport.last().Text)
}

func TestHandle_ListSelection(t *testing.T) {
	h := newHarness(t)
	h.send(t, "hi")

	out := h.send(t, "Enroll")
	assert.Equal(t, domain.StateEnroll, out.State)
	assert.Equal(t, domain.To(domain.StateMenu), h.session(t).State)
}

func TestHandle_ListMissIsUnknownState(t *testing.T) {
	h := newHarness(t)
	h.send(t, "hi")
	before := h.session(t)
	entries := h.entries(t)

	out := h.send(t, "pizza")
	require.NotNil(t, out.Failure)
	assert.Equal(t, domain.DispatchUnknownState, out.Failure.Kind)
	assert.Equal(t, InvalidResponseText, h.transport.last().Text)
	assert.Equal(t, before, h.session(t))
	assert.Equal(t, entries, h.entries(t))
}

func TestHandle_UnknownValidatorLeavesSessionUntouched(t *testing.T) {
	h := newHarness(t)
	h.send(t, "hi")
	h.send(t, "profile")
	before := h.session(t)
	entries := h.entries(t)

	// Swap in a registry without the profile validator after construction.
	partial := registry.NewRegistry()
	for _, name := range h.registry.Names() {
		if name != "profile" {
			fn, _ := h.registry.Lookup(name)
			partial.Register(name, fn)
		}
	}
	h.d.registry = partial

	out := h.send(t, "x")
	require.NotNil(t, out.Failure)
	assert.Equal(t, domain.DispatchUnknownValidator, out.Failure.Kind)
	assert.ErrorIs(t, out.Failure, domain.ErrUnknownValidator)
	assert.Equal(t, before, h.session(t))
	assert.Equal(t, entries, h.entries(t))
	assert.Equal(t, domain.OutcomeFailed, out.Result())
}

func TestHandle_ValidatorErrorIsFailure(t *testing.T) {
	h := newHarness(t)
	h.registry.Register("menu", func(ctx context.Context, req registry.Request) (domain.Result, error) {
		return domain.Result{}, errors.New("db down")
	})

	out := h.send(t, "hi")
	require.NotNil(t, out.Failure)
	assert.Equal(t, domain.DispatchValidatorFailed, out.Failure.Kind)
	assert.Equal(t, InvalidResponseText, h.transport.last().Text)
	assert.Empty(t, h.entries(t))

	_, found, err := h.sessions.Get(context.Background(), user)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestHandle_ValidatorErrorRollsBackWrites(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.send(t, "hi")
	before := h.session(t)
	entries := h.entries(t)

	h.registry.Register("profile", func(ctx context.Context, req registry.Request) (domain.Result, error) {
		staged := domain.Session{State: domain.To(domain.StateProfile), Data: map[string]any{"action": "edit"}}
		require.NoError(t, h.sessions.Set(ctx, req.UserID, staged))
		require.NoError(t, h.history.SetBookmark(ctx, req.UserID, -3))
		return domain.Result{}, errors.New("list tutorials: db down")
	})

	out := h.send(t, "profile")
	require.NotNil(t, out.Failure)
	assert.Equal(t, domain.DispatchValidatorFailed, out.Failure.Kind)
	assert.Equal(t, before, h.session(t))
	assert.Equal(t, entries, h.entries(t))

	_, err := h.kv.Get(ctx, session.BookmarkKey(user))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHandle_AbortAfterBackRestoresHistory(t *testing.T) {
	h := newHarness(t)
	h.send(t, "hi")
	h.send(t, "enroll")
	before := h.session(t)
	entries := h.entries(t)
	require.Len(t, entries, 2)

	h.registry.Register("menu", func(ctx context.Context, req registry.Request) (domain.Result, error) {
		return domain.Result{}, errors.New("db down")
	})

	out := h.send(t, "back")
	require.NotNil(t, out.Failure)
	assert.False(t, out.WentBack)
	assert.Equal(t, before, h.session(t))
	assert.Equal(t, entries, h.entries(t))
}

func TestHandle_UnregisteredUserIsGreeted(t *testing.T) {
	h := newHarness(t)
	delete(h.users, user)
	ctx := context.Background()
	for _, key := range session.DerivedKeys(user) {
		require.NoError(t, h.kv.Set(ctx, key, []byte(`{}`), 0))
	}
	require.NoError(t, h.sessions.Set(ctx, user, domain.NewSession(domain.StateMenu)))

	out := h.send(t, "hi")
	assert.True(t, out.Purged)
	assert.Equal(t, domain.StateGreet, out.State)
	assert.Equal(t, []domain.State{domain.StateGreet}, h.calls)

	for _, key := range []string{session.QuizSessionKey(user), session.BookmarkKey(user), session.NavKey(user)} {
		_, err := h.kv.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrNotFound, key)
	}
	// Only the new turn survives the purge.
	entries := h.entries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.StateGreet, entries[0].State)
}

func TestHandle_ResetCommandsForceMenu(t *testing.T) {
	for _, body := range []string{"menu", "Hi", "HELLO", "hie", " reset "} {
		t.Run(body, func(t *testing.T) {
			h := newHarness(t)
			require.NoError(t, h.sessions.Set(context.Background(), user, domain.NewSession(domain.StatePayments)))

			out := h.send(t, body)
			assert.Equal(t, domain.StateMenu, out.State)
		})
	}
}

func TestHandle_PhraseOverrides(t *testing.T) {
	tests := []struct {
		body string
		want domain.State
	}{
		{"Hi, I have paid for the course and I want to join the class", domain.StateJoinClass},
		{"I have paid for the assignment", domain.StateJoinClass},
		{"please CANCEL PAYMENT", domain.StateCancelPayment},
		{"handle_payment", domain.StateHandlePayment},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			h := newHarness(t)
			require.NoError(t, h.sessions.Set(context.Background(), user, domain.NewSession(domain.StateProfile)))

			out := h.send(t, tt.body)
			assert.Equal(t, tt.want, out.State)
			assert.Equal(t, domain.To(domain.StateMenu), h.session(t).State)
		})
	}
}

func TestHandle_BackRestoresPreviousTurn(t *testing.T) {
	h := newHarness(t)
	h.send(t, "hi")
	h.send(t, "enroll")
	require.Len(t, h.entries(t), 2)

	out := h.send(t, "back")
	assert.True(t, out.WentBack)
	assert.Equal(t, domain.StateMenu, out.State)
	assert.Equal(t, []domain.State{domain.StateMenu, domain.StateEnroll, domain.StateMenu}, h.calls)
}

func TestHandle_BackUsesBookmark(t *testing.T) {
	h := newHarness(t)
	h.send(t, "hi")
	h.send(t, "profile")
	h.send(t, "x")
	require.NoError(t, h.history.SetBookmark(context.Background(), user, 0))

	out := h.send(t, "back")
	assert.True(t, out.WentBack)
	assert.Equal(t, domain.StateMenu, out.State)
}

func TestHandle_BackWithEmptyHistoryGoesToMenu(t *testing.T) {
	var backs []*domain.BackEvent
	h := newHarness(t, WithHooks(domain.LifecycleHooks{
		OnBack: func(ctx context.Context, e *domain.BackEvent) { backs = append(backs, e) },
	}))

	out := h.send(t, "back")
	assert.False(t, out.WentBack)
	assert.Nil(t, out.Failure)
	assert.Equal(t, domain.StateMenu, out.State)
	require.Len(t, backs, 1)
	assert.True(t, backs[0].Underflow)
}

func TestHandle_HistoryIsBounded(t *testing.T) {
	h := newHarness(t)
	h.send(t, "hi")
	h.send(t, "profile")
	for i := 0; i < 10; i++ {
		h.send(t, fmt.Sprintf("message %d", i))
		assert.LessOrEqual(t, len(h.entries(t)), domain.HistoryLimit)
	}
	assert.Len(t, h.entries(t), domain.HistoryLimit)
}

func TestHandle_HistoryRecordsSentEnvelope(t *testing.T) {
	h := newHarness(t)
	out := h.send(t, "hi")

	entries := h.entries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.StateMenu, entries[0].State)
	assert.Equal(t, domain.ResponseText, entries[0].ResponseType)
	assert.Equal(t, out.Envelope, entries[0].Reply)
}

func TestHandle_ValidatorDataCarriesForward(t *testing.T) {
	h := newHarness(t)
	h.registry.Register("menu", func(ctx context.Context, req registry.Request) (domain.Result, error) {
		s := req.Session
		s.Data["page"] = float64(2)
		if err := h.sessions.Set(ctx, req.UserID, s); err != nil {
			return domain.Result{}, err
		}
		return domain.Valid(nil), nil
	})

	h.send(t, "hi")
	s := h.session(t)
	assert.Equal(t, float64(2), s.Data["page"])
	assert.True(t, s.State.IsList())
	// A nil reply on the valid branch falls back to the table text.
	assert.Equal(t, "What would you like to do?", h.transport.last().Text)
}

func TestHandle_InvalidWithoutReplySendsGenericText(t *testing.T) {
	h := newHarness(t)
	h.registry.Register("menu", func(ctx context.Context, req registry.Request) (domain.Result, error) {
		return domain.Invalid(nil), nil
	})

	out := h.send(t, "hi")
	assert.False(t, out.Valid)
	assert.Nil(t, out.Failure)
	assert.Equal(t, InvalidResponseText, h.transport.last().Text)
	assert.Equal(t, domain.To(domain.StateRegister), h.session(t).State)
}

func controlsValidator(typ string) registry.Validator {
	return func(ctx context.Context, req registry.Request) (domain.Result, error) {
		r := domain.Valid(&domain.Reply{ResponseType: domain.ResponseTutorial, Text: "step 1", Choices: []string{"a", "b"}})
		r.RequiresControls = true
		r.FirstStep = true
		r.Type = typ
		return r, nil
	}
}

func TestHandle_NavWrittenOnAcceptedSend(t *testing.T) {
	h := newHarness(t)
	h.registry.Register("menu", controlsValidator(""))

	out := h.send(t, "hi")
	assert.True(t, out.NavWritten)

	nav, found, err := h.sessions.Nav(context.Background(), user)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "wamid.1", nav.MessageID)
	assert.Equal(t, domain.NavTypeDefault, nav.Type)
	assert.True(t, nav.FirstStep)
	assert.Equal(t, "step 1", nav.Caption)
	assert.Empty(t, nav.Choices)
}

func TestHandle_NavKeepsChoicesForQuiz(t *testing.T) {
	h := newHarness(t)
	h.registry.Register("menu", controlsValidator(domain.NavTypeQuiz))

	h.send(t, "hi")
	nav, _, err := h.sessions.Nav(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, nav.Choices)
}

func TestHandle_RejectedSendStillPersists(t *testing.T) {
	h := newHarness(t)
	h.transport.status = 400
	h.registry.Register("menu", controlsValidator(""))

	out := h.send(t, "hi")
	assert.False(t, out.NavWritten)
	assert.Equal(t, 400, out.Receipt.StatusCode)
	assert.True(t, h.session(t).State.IsList())
	assert.Len(t, h.entries(t), 1)

	_, found, err := h.sessions.Nav(context.Background(), user)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestHandle_TransportErrorIsReported(t *testing.T) {
	var events []*domain.DispatchEvent
	h := newHarness(t, WithHooks(domain.LifecycleHooks{
		OnDispatch: func(ctx context.Context, e *domain.DispatchEvent) { events = append(events, e) },
	}))
	h.transport.err = errors.New("connection reset")

	out, err := h.d.Handle(context.Background(), &domain.IncomingMessage{UserID: user, Body: "hi"})
	require.Error(t, err)
	assert.True(t, out.SendFailed)
	assert.Len(t, h.entries(t), 1)
	require.Len(t, events, 1)
	assert.Equal(t, domain.OutcomeSendError, events[0].Outcome)
}

func TestHandle_Hooks(t *testing.T) {
	var dispatches []*domain.DispatchEvent
	var sends []*domain.SendEvent
	h := newHarness(t, WithHooks(domain.LifecycleHooks{
		OnDispatch: func(ctx context.Context, e *domain.DispatchEvent) { dispatches = append(dispatches, e) },
		OnSend:     func(ctx context.Context, e *domain.SendEvent) { sends = append(sends, e) },
	}))

	h.send(t, "hi")
	require.Len(t, dispatches, 1)
	assert.Equal(t, "cycle", dispatches[0].CycleID)
	assert.Equal(t, "menu", dispatches[0].State)
	assert.Equal(t, domain.OutcomeValid, dispatches[0].Outcome)
	require.Len(t, sends, 1)
	assert.Equal(t, 200, sends[0].StatusCode)
	assert.False(t, sends[0].IsError)
}

func TestHandle_WithManager(t *testing.T) {
	h := newHarness(t, WithManager(session.NewManager()))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.d.Handle(context.Background(), &domain.IncomingMessage{UserID: user, Body: "hi"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Len(t, h.entries(t), domain.HistoryLimit)
}
