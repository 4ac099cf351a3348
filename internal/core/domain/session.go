package domain

import "time"

// TitleLimit is the maximum rune length of a derived session title
// before truncation.
const TitleLimit = 30

// DefaultTitle is used when no chat-kind user turn exists yet.
const DefaultTitle = "New Chat"

// Session is an identified, ordered conversation.
//
// Turns is append-only during the session's active lifetime. ID is
// empty until the first durable commit assigns one; it is stable
// thereafter.
type Session struct {
	// ID is the opaque session identifier, derived from creation time
	// on first commit.
	ID string `json:"id"`

	// Turns is the ordered conversation transcript.
	Turns []Turn `json:"turns"`

	// CreatedAt is when the session was started.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the session last changed.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates an empty, unsaved session.
func NewSession() *Session {
	now := time.Now()
	return &Session{
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds a turn to the transcript.
func (s *Session) Append(turn Turn) {
	s.Turns = append(s.Turns, turn)
	s.UpdatedAt = turn.CreatedAt
}

// Title derives a display title from the first chat-kind user turn,
// truncated to TitleLimit runes with an ellipsis marker. It is never
// stored; it is recomputed from the transcript on demand.
func (s *Session) Title() string {
	for _, turn := range s.Turns {
		if turn.Role != RoleUser || !turn.IsChat() {
			continue
		}
		runes := []rune(turn.Content)
		if len(runes) >= TitleLimit {
			return string(runes[:TitleLimit]) + "..."
		}
		return turn.Content
	}
	return DefaultTitle
}

// SessionIDFormat is the time layout session ids are derived from.
// Lexicographic order on ids matches chronological order.
const SessionIDFormat = "20060102_150405"

// NewSessionID derives a session identifier from the given time.
func NewSessionID(t time.Time) string {
	return t.Format(SessionIDFormat)
}
