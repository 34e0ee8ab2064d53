package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/ngena/internal/logging"
	"github.com/aretw0/ngena/pkg/actions"
	"github.com/aretw0/ngena/pkg/domain"
	"github.com/aretw0/ngena/pkg/history"
	"github.com/aretw0/ngena/pkg/ports"
	"github.com/aretw0/ngena/pkg/registry"
	"github.com/aretw0/ngena/pkg/render"
	"github.com/aretw0/ngena/pkg/session"
	"github.com/google/uuid"
)

// InvalidResponseText is sent when a cycle aborts.
const InvalidResponseText = "*😕 Invalid Response*\n\nSorry I didn't understand that. That could be an invalid option.\n\n_Please try again._"

// BackCommand asks for the previous turn.
const BackCommand = "back"

// Phrases matched case-insensitively anywhere in the message body.
var (
	joinClassPhrases = []string{
		"i have paid for the course and i want to join the class",
		"i have paid for the assignment",
	}
	cancelPaymentPhrase = "cancel payment"
	resetCommands       = []string{"menu", "hi", "hello", "hie", "reset"}
)

// Dispatcher runs dispatch cycles.
type Dispatcher struct {
	table     actions.Table
	registry  *registry.Registry
	sessions  *session.Store
	history   *history.Stack
	users     ports.UserDirectory
	transport ports.Transport
	renderer  *render.Renderer
	manager   *session.Manager

	logger *slog.Logger
	hooks  domain.LifecycleHooks
	newID  func() string
	now    func() time.Time
}

// New creates a Dispatcher. It fails when the table references a validator missing
// from the registry.
func New(
	table actions.Table,
	reg *registry.Registry,
	sessions *session.Store,
	users ports.UserDirectory,
	transport ports.Transport,
	opts ...Option,
) (*Dispatcher, error) {
	d := &Dispatcher{
		table:     table,
		registry:  reg,
		sessions:  sessions,
		users:     users,
		transport: transport,
		logger:    logging.NewNop(),
		newID:     uuid.NewString,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.history == nil {
		d.history = history.New(sessions.KV(), history.WithTTL(sessions.TTL()))
	}
	if d.renderer == nil {
		d.renderer = render.New(render.Options{})
	}

	if err := table.Validate(reg.Has); err != nil {
		return nil, fmt.Errorf("action table does not match registry: %w", err)
	}
	return d, nil
}

// Table returns the action table.
func (d *Dispatcher) Table() actions.Table {
	return d.table
}

// Sessions returns the session store.
func (d *Dispatcher) Sessions() *session.Store {
	return d.sessions
}

// History returns the history stack.
func (d *Dispatcher) History() *history.Stack {
	return d.history
}

// Handle runs one cycle for msg. A nil message is dropped.
//
// The returned error reports infrastructure failures (store, transport). Dispatch
// failures are not errors; they are carried in Outcome.Failure.
func (d *Dispatcher) Handle(ctx context.Context, msg *domain.IncomingMessage) (Outcome, error) {
	if msg == nil || msg.UserID == "" {
		return Outcome{Dropped: true}, nil
	}

	var out Outcome
	run := func(ctx context.Context) error {
		var err error
		out, err = d.cycle(ctx, *msg)
		return err
	}

	if d.manager != nil {
		return out, d.manager.WithLock(ctx, msg.UserID, run)
	}
	return out, run(ctx)
}

func (d *Dispatcher) cycle(ctx context.Context, msg domain.IncomingMessage) (out Outcome, err error) {
	start := d.now()
	out.CycleID = d.newID()
	log := d.logger.With("cycle_id", out.CycleID, "user_id", msg.UserID)

	defer func() {
		d.emitDispatch(ctx, &domain.DispatchEvent{
			Timestamp: d.now(),
			CycleID:   out.CycleID,
			UserID:    msg.UserID,
			State:     string(out.State),
			NextState: out.Next.String(),
			Outcome:   outcomeName(out, err),
			Duration:  d.now().Sub(start),
		})
	}()

	sess, found, err := d.sessions.Get(ctx, msg.UserID)
	if err != nil {
		return out, fmt.Errorf("load session: %w", err)
	}
	if !found {
		sess = domain.DefaultSession()
	}
	if sess.State.IsZero() {
		sess.State = domain.To(domain.StateMenu)
	}

	// Restored when the cycle aborts.
	snap, err := d.sessions.Snapshot(ctx, msg.UserID)
	if err != nil {
		return out, err
	}

	target, err := d.resolve(ctx, msg, &sess, &out)
	if err != nil {
		return out, err
	}

	if target.Name == domain.StateMenu && !target.IsList() {
		exists, err := d.users.UserExists(ctx, msg.UserID)
		if err != nil {
			return out, fmt.Errorf("check user: %w", err)
		}
		if !exists {
			if err := d.sessions.Purge(ctx, msg.UserID); err != nil {
				return out, err
			}
			out.Purged = true
			target = domain.To(domain.StateGreet)
			sess = domain.NewSession(domain.StateGreet)
		}
	}

	state, ok := target.Resolve(msg.Body)
	if !ok {
		return d.abort(ctx, log, msg, out, snap, &domain.DispatchError{
			Kind:  domain.DispatchUnknownState,
			State: target.String(),
			Err:   domain.ErrUnknownState,
		})
	}
	out.State = state

	row, ok := d.table.Lookup(state)
	if !ok {
		return d.abort(ctx, log, msg, out, snap, &domain.DispatchError{
			Kind:  domain.DispatchUnknownState,
			State: string(state),
			Err:   domain.ErrUnknownState,
		})
	}
	if !d.registry.Has(row.Validator) {
		return d.abort(ctx, log, msg, out, snap, &domain.DispatchError{
			Kind:      domain.DispatchUnknownValidator,
			State:     string(state),
			Validator: row.Validator,
			Err:       domain.ErrUnknownValidator,
		})
	}

	result, verr := d.registry.Execute(ctx, row.Validator, registry.Request{
		UserID:  msg.UserID,
		Body:    msg.Body,
		Session: sess.Clone(),
		Message: msg,
	})
	if verr != nil {
		return d.abort(ctx, log, msg, out, snap, &domain.DispatchError{
			Kind:      domain.DispatchValidatorFailed,
			State:     string(state),
			Validator: row.Validator,
			Err:       verr,
		})
	}

	out.Valid = result.Valid
	out.Next = row.Next(result.Valid)
	reply := result.Reply
	if reply == nil {
		if result.Valid {
			reply = row.Fallback()
		} else {
			reply = domain.TextReply(InvalidResponseText)
		}
	}

	// Validators write progress to the store themselves; carry it forward from there.
	data, err := d.sessions.Data(ctx, msg.UserID)
	if err != nil {
		return out, fmt.Errorf("reload session data: %w", err)
	}
	next := domain.Session{State: out.Next, Data: data}
	if err := d.sessions.Set(ctx, msg.UserID, next); err != nil {
		return out, fmt.Errorf("save session: %w", err)
	}

	out.Envelope = d.renderer.Render(msg.UserID, reply)
	receipt, sendErr := d.send(ctx, msg.UserID, reply.ResponseType, out.Envelope)
	out.Receipt = receipt

	entry := domain.HistoryEntry{
		State:        state,
		ResponseType: reply.ResponseType,
		Reply:        out.Envelope,
		Data:         next.Data,
	}
	if err := d.history.Append(ctx, msg.UserID, entry); err != nil {
		return out, fmt.Errorf("append history: %w", err)
	}

	if sendErr != nil {
		out.SendFailed = true
		log.Error("Failed to send reply", "state", state, "err", sendErr)
		return out, fmt.Errorf("send reply: %w", sendErr)
	}
	if !receipt.OK() {
		log.Warn("Reply not accepted", "state", state, "status", receipt.StatusCode)
	}

	if result.RequiresControls && receipt.OK() {
		if err := d.sessions.SetNav(ctx, msg.UserID, navControl(result, reply, receipt)); err != nil {
			return out, fmt.Errorf("save navigation control: %w", err)
		}
		out.NavWritten = true
	}

	log.Info("Dispatched",
		"state", state,
		"next_state", out.Next.String(),
		"valid", result.Valid,
		"response_type", reply.ResponseType,
	)
	return out, nil
}

// resolve applies phrase overrides, "back" and reset commands to the stored state.
func (d *Dispatcher) resolve(ctx context.Context, msg domain.IncomingMessage, sess *domain.Session, out *Outcome) (domain.Target, error) {
	body := strings.ToLower(strings.TrimSpace(msg.Body))

	switch {
	case containsAny(body, joinClassPhrases):
		sess.State = domain.To(domain.StateJoinClass)
	case strings.Contains(body, cancelPaymentPhrase):
		sess.State = domain.To(domain.StateCancelPayment)
	case body == string(domain.StateHandlePayment):
		sess.State = domain.To(domain.StateHandlePayment)
	}

	switch {
	case body == BackCommand:
		return d.back(ctx, msg.UserID, sess, out)
	case slices.Contains(resetCommands, body):
		return domain.To(domain.StateMenu), nil
	default:
		return sess.State, nil
	}
}

// back restores the bookmarked history entry. With no usable entry it keeps the
// current state, or goes to the menu when the current state awaits a selection.
func (d *Dispatcher) back(ctx context.Context, userID string, sess *domain.Session, out *Outcome) (domain.Target, error) {
	entry, offset, err := d.history.Back(ctx, userID)
	event := &domain.BackEvent{Timestamp: d.now(), UserID: userID, Offset: offset}

	if errors.Is(err, domain.ErrHistoryUnderflow) {
		event.Underflow = true
		d.emitBack(ctx, event)
		if sess.State.IsList() {
			return domain.To(domain.StateMenu), nil
		}
		return sess.State, nil
	}
	if err != nil {
		return domain.Target{}, fmt.Errorf("go back: %w", err)
	}

	*sess = domain.Session{State: domain.To(entry.State), Data: domain.CopyData(entry.Data)}
	if err := d.sessions.Set(ctx, userID, *sess); err != nil {
		return domain.Target{}, fmt.Errorf("restore session: %w", err)
	}
	out.WentBack = true
	event.Restored = string(entry.State)
	d.emitBack(ctx, event)
	return sess.State, nil
}

// abort restores the keys captured at the start of the cycle and sends the generic
// invalid-response text.
func (d *Dispatcher) abort(ctx context.Context, log *slog.Logger, msg domain.IncomingMessage, out Outcome, snap *session.Snapshot, failure *domain.DispatchError) (Outcome, error) {
	out.Failure = failure
	out.WentBack = false
	out.Purged = false
	log.Warn("Dispatch aborted", "kind", failure.Kind, "state", failure.State, "validator", failure.Validator, "err", failure.Err)

	if err := d.sessions.Restore(ctx, snap); err != nil {
		return out, fmt.Errorf("roll back aborted cycle: %w", err)
	}

	out.Envelope = d.renderer.Text(msg.UserID, InvalidResponseText)
	receipt, err := d.send(ctx, msg.UserID, domain.ResponseText, out.Envelope)
	out.Receipt = receipt
	if err != nil {
		out.SendFailed = true
		return out, fmt.Errorf("send invalid response: %w", err)
	}
	return out, nil
}

func (d *Dispatcher) send(ctx context.Context, userID string, rt domain.ResponseType, env domain.Envelope) (domain.Receipt, error) {
	start := d.now()
	receipt, err := d.transport.Send(ctx, env)
	if d.hooks.OnSend != nil {
		d.hooks.OnSend(ctx, &domain.SendEvent{
			Timestamp:    d.now(),
			UserID:       userID,
			ResponseType: rt,
			StatusCode:   receipt.StatusCode,
			Duration:     d.now().Sub(start),
			IsError:      err != nil || !receipt.OK(),
		})
	}
	return receipt, err
}

func (d *Dispatcher) emitDispatch(ctx context.Context, e *domain.DispatchEvent) {
	if d.hooks.OnDispatch != nil {
		d.hooks.OnDispatch(ctx, e)
	}
}

func (d *Dispatcher) emitBack(ctx context.Context, e *domain.BackEvent) {
	if d.hooks.OnBack != nil {
		d.hooks.OnBack(ctx, e)
	}
}

func navControl(result domain.Result, reply *domain.Reply, receipt domain.Receipt) domain.NavControl {
	nav := domain.NavControl{
		MessageID:    receipt.MessageID,
		FirstStep:    result.FirstStep,
		LastStep:     result.LastStep,
		Type:         result.Type,
		Caption:      reply.Text,
		ResponseType: reply.ResponseType,
	}
	if nav.Type == "" {
		nav.Type = domain.NavTypeDefault
	}
	if nav.Type == domain.NavTypeQuiz {
		nav.Choices = reply.Choices
	}
	return nav
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func outcomeName(out Outcome, err error) string {
	switch {
	case out.SendFailed:
		return domain.OutcomeSendError
	case err != nil:
		return domain.OutcomeFailed
	}
	return out.Result()
}
