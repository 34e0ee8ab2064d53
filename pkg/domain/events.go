package domain

import (
	"context"
	"time"
)

// Dispatch outcomes.
const (
	OutcomeDropped   = "dropped"
	OutcomeValid     = "valid"
	OutcomeInvalid   = "invalid"
	OutcomeFailed    = "failed"
	OutcomeSendError = "send_error"
)

// DispatchEvent describes a finished dispatch cycle.
type DispatchEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	CycleID   string        `json:"cycle_id"`
	UserID    string        `json:"user_id"`
	State     string        `json:"state"`
	NextState string        `json:"next_state,omitempty"`
	Outcome   string        `json:"outcome"`
	Duration  time.Duration `json:"duration"`
}

// SendEvent describes one transport call.
type SendEvent struct {
	Timestamp    time.Time     `json:"timestamp"`
	UserID       string        `json:"user_id"`
	ResponseType ResponseType  `json:"response_type"`
	StatusCode   int           `json:"status_code"`
	Duration     time.Duration `json:"duration"`
	IsError      bool          `json:"is_error,omitempty"`
}

// BackEvent describes a "back" request.
type BackEvent struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id"`
	Offset    int       `json:"offset"`
	Restored  string    `json:"restored,omitempty"`
	Underflow bool      `json:"underflow,omitempty"`
}

// LifecycleHooks defines callbacks for dispatcher observability.
type LifecycleHooks struct {
	OnDispatch func(context.Context, *DispatchEvent)
	OnSend     func(context.Context, *SendEvent)
	OnBack     func(context.Context, *BackEvent)
}
