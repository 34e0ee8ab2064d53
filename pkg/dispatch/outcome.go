package dispatch

import "github.com/aretw0/ngena/pkg/domain"

// Outcome summarizes one dispatch cycle.
type Outcome struct {
	CycleID string

	// Dropped is set when the event carried no user message.
	Dropped bool

	// State is the resolved state whose validator ran.
	State domain.State
	// Next is the state persisted for the following cycle.
	Next  domain.Target
	Valid bool

	Envelope domain.Envelope
	Receipt  domain.Receipt

	// SendFailed is set when the transport returned an error.
	SendFailed bool

	// Failure is set when the cycle aborted without mutating session or history.
	Failure *domain.DispatchError

	// WentBack is set when a "back" request restored a history entry.
	WentBack bool
	// Purged is set when the unregistered-user guard cleared the user's caches.
	Purged bool
	// NavWritten is set when a navigation-control entry was recorded.
	NavWritten bool
}

// Result name for metrics and logs.
func (o Outcome) Result() string {
	switch {
	case o.Dropped:
		return domain.OutcomeDropped
	case o.Failure != nil:
		return domain.OutcomeFailed
	case o.Valid:
		return domain.OutcomeValid
	default:
		return domain.OutcomeInvalid
	}
}
