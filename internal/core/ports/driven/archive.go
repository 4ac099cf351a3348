package driven

import (
	"context"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
)

// SessionArchive persists whole sessions keyed by session id.
// Backed by SQLite for durable storage.
//
// Sessions are serialised and written as a whole on each save; there
// are no partial updates. Saving under an existing id overwrites the
// prior version (last writer wins).
type SessionArchive interface {
	// Save stores or replaces a session under its id.
	Save(ctx context.Context, session *domain.Session) error

	// Get retrieves a session by id.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// List returns all stored sessions, most recent first.
	List(ctx context.Context) ([]domain.Session, error)

	// Delete removes a session from the archive.
	Delete(ctx context.Context, id string) error
}

// ExtractionArchive persists extraction records standalone, keyed by
// the source image's name, independent of any session.
type ExtractionArchive interface {
	// Save stores or replaces the record for an image.
	Save(ctx context.Context, record *domain.ExtractionRecord) error

	// Get retrieves the record for an image name.
	Get(ctx context.Context, imageName string) (*domain.ExtractionRecord, error)
}
