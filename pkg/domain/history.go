package domain

// HistoryLimit is the maximum number of entries kept per user.
const HistoryLimit = 5

// DefaultBookmark is the history offset used by "back" when no bookmark is set:
// the second-to-last entry.
const DefaultBookmark = -2

// HistoryEntry is one past dialog turn.
type HistoryEntry struct {
	State        State          `json:"state"`
	ResponseType ResponseType   `json:"response_type"`
	Reply        Envelope       `json:"prev_response"`
	Data         map[string]any `json:"data"`
}

// Navigation-control step types.
const (
	NavTypeDefault  = "nav"
	NavTypeTutorial = "tutorial"
	NavTypeQuiz     = "quiz"
)

// NavControl ties a stepped flow (tutorial, quiz) to the outbound message that
// carries its controls.
type NavControl struct {
	MessageID    string       `json:"id"`
	FirstStep    bool         `json:"is_first_step"`
	LastStep     bool         `json:"is_last_step"`
	Type         string       `json:"type"`
	Caption      string       `json:"caption"`
	ResponseType ResponseType `json:"response_type"`
	Choices      []string     `json:"data,omitempty"`
}
