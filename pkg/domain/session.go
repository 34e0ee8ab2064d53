package domain

// Session is the per-user conversation record. State names the current position (or a
// set of sub-states awaiting selection). Data is an open, flow-scoped mapping used by
// validators to stash multi-turn progress.
type Session struct {
	State Target         `json:"state"`
	Data  map[string]any `json:"data"`
}

// NewSession creates a session positioned at state with empty data.
func NewSession(state State) Session {
	return Session{
		State: To(state),
		Data:  make(map[string]any),
	}
}

// DefaultSession is the session assumed when none is stored.
func DefaultSession() Session {
	return NewSession(StateMenu)
}

// Clone returns a deep copy of the session so callers can mutate it safely.
func (s Session) Clone() Session {
	out := Session{State: s.State, Data: CopyData(s.Data)}
	if s.State.Options != nil {
		out.State.Options = append([]State{}, s.State.Options...)
	}
	return out
}

// CopyData deep-copies a data mapping. A nil mapping becomes an empty one.
func CopyData(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case map[string]any:
			out[k] = CopyData(val)
		case []any:
			out[k] = append([]any{}, val...)
		default:
			out[k] = v
		}
	}
	return out
}
