// Package memory provides in-memory implementations of the storage
// ports. Used in tests and as a fallback when no data directory is
// available.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
)

// Ensure SessionArchive implements the interface.
var _ driven.SessionArchive = (*SessionArchive)(nil)

// SessionArchive is an in-memory implementation of driven.SessionArchive.
type SessionArchive struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

// NewSessionArchive creates a new in-memory session archive.
func NewSessionArchive() *SessionArchive {
	return &SessionArchive{
		sessions: make(map[string]domain.Session),
	}
}

// Save stores or replaces a session under its id.
func (a *SessionArchive) Save(_ context.Context, session *domain.Session) error {
	if session.ID == "" {
		return domain.ErrInvalidInput
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessions[session.ID] = *session
	return nil
}

// Get retrieves a session by id.
func (a *SessionArchive) Get(_ context.Context, id string) (*domain.Session, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	session, ok := a.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &session, nil
}

// List returns all stored sessions, most recent first.
// Session ids sort chronologically, so ordering is by id descending.
func (a *SessionArchive) List(_ context.Context) ([]domain.Session, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	result := make([]domain.Session, 0, len(a.sessions))
	for id := range a.sessions {
		result = append(result, a.sessions[id])
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID > result[j].ID
	})
	return result, nil
}

// Delete removes a session from the archive.
func (a *SessionArchive) Delete(_ context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, id)
	return nil
}
