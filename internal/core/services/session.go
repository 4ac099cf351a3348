package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driving"
	"github.com/custodia-labs/scribe-cli/internal/logger"
)

// Ensure SessionStore implements the interface.
var _ driving.SessionService = (*SessionStore)(nil)

// EnrichmentWindow is how many recent turns are scanned for extraction
// context when enriching a user input.
const EnrichmentWindow = 3

// SessionStore owns the active conversation's turn sequence and its
// promotion to durable storage.
//
// The store is the exclusive owner of the active session; no other
// component mutates it. One user turn is fully resolved before the
// next is accepted, so the mutex guards against accidental concurrent
// callers rather than an expected contention pattern.
type SessionStore struct {
	mu      sync.Mutex
	active  *domain.Session
	archive driven.SessionArchive
}

// NewSessionStore creates a session store with an empty active session.
// The archive is required; it is where completed turns are promoted.
func NewSessionStore(archive driven.SessionArchive) *SessionStore {
	return &SessionStore{
		active:  domain.NewSession(),
		archive: archive,
	}
}

// Active returns the in-memory session currently accumulating turns.
func (s *SessionStore) Active() *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// StartNew discards the active session from memory (not from storage)
// and begins an empty one.
func (s *SessionStore) StartNew() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = domain.NewSession()
	logger.Info("started new session")
}

// Switch loads a stored session and makes it active.
func (s *SessionStore) Switch(ctx context.Context, id string) error {
	session, err := s.archive.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load session %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = session
	logger.Info("switched to session %s (%d turns)", id, len(session.Turns))
	return nil
}

// List returns stored sessions, most recent first.
func (s *SessionStore) List(ctx context.Context) ([]driving.SessionSummary, error) {
	sessions, err := s.archive.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	summaries := make([]driving.SessionSummary, len(sessions))
	for i := range sessions {
		summaries[i] = driving.SessionSummary{
			ID:        sessions[i].ID,
			Title:     sessions[i].Title(),
			TurnCount: len(sessions[i].Turns),
		}
	}
	return summaries, nil
}

// Delete removes a stored session. If it is also the active session,
// the active session restarts empty.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.archive.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active.ID == id {
		s.active = domain.NewSession()
	}
	return nil
}

// SubmitUserTurn appends a chat turn for the given text and returns it.
func (s *SessionStore) SubmitUserTurn(text string) domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	turn := domain.NewChatTurn(uuid.New().String(), domain.RoleUser, text)
	s.active.Append(turn)
	return turn
}

// AppendExtraction appends an extraction turn carrying the record.
func (s *SessionStore) AppendExtraction(record *domain.ExtractionRecord) domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	turn := domain.NewExtractionTurn(uuid.New().String(), record)
	s.active.Append(turn)
	return turn
}

// AppendAttachment appends an attachment notice turn.
func (s *SessionStore) AppendAttachment(notice string) domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	turn := domain.NewAttachmentTurn(uuid.New().String(), notice)
	s.active.Append(turn)
	return turn
}

// EnrichInput scans the last EnrichmentWindow turns in reverse order
// for an extraction turn; when found, its full text is appended to the
// input as bracketed context. The scan stops at the first match.
// Returns the input unmodified when no extraction turn is in range.
//
// Idempotent over unchanged session state: the same input yields the
// same output until the transcript changes.
func (s *SessionStore) EnrichInput(text string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.active.Turns
	start := len(turns) - EnrichmentWindow
	if start < 0 {
		start = 0
	}
	for i := len(turns) - 1; i >= start; i-- {
		if turns[i].Kind != domain.KindExtraction || turns[i].Extraction == nil {
			continue
		}
		logger.Debug("enriching input with extraction context from turn %d", i)
		return fmt.Sprintf("%s\n\n[Context: Recent OCR extracted text: %s]",
			text, turns[i].Extraction.FullText)
	}
	return text
}

// HistorySnapshot returns a copy of the active transcript for context
// assembly. Copying keeps the assembler free of aliasing into the
// mutable turn slice.
func (s *SessionStore) HistorySnapshot() []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := make([]domain.Turn, len(s.active.Turns))
	copy(turns, s.active.Turns)
	return turns
}

// CommitAssistant appends an assistant turn with the finished content
// and promotes the whole session to durable storage, assigning a fresh
// id first if this is the session's first commit.
//
// A storage failure propagates to the caller; the in-memory session is
// not rolled back, so the user can retry the commit or continue with
// an unsaved tail.
func (s *SessionStore) CommitAssistant(ctx context.Context, content string) (domain.Turn, error) {
	s.mu.Lock()
	turn := domain.NewChatTurn(uuid.New().String(), domain.RoleAssistant, content)
	s.active.Append(turn)
	if s.active.ID == "" {
		s.active.ID = domain.NewSessionID(time.Now())
		logger.Debug("assigned session id %s", s.active.ID)
	}
	session := s.active
	s.mu.Unlock()

	if err := s.archive.Save(ctx, session); err != nil {
		return turn, fmt.Errorf("persist session %s: %w", session.ID, err)
	}
	logger.Info("committed session %s (%d turns)", session.ID, len(session.Turns))
	return turn, nil
}
