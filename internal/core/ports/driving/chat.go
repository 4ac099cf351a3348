package driving

import (
	"context"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
)

// ChatService resolves user turns against the generation backend.
type ChatService interface {
	// Send submits a user turn, streams the assistant's reply, and
	// commits both to the active session. onDelta is invoked once per
	// text fragment as it arrives, before the full response is known;
	// it may be nil.
	//
	// Transport failures surface as regular reply content, never as an
	// error. A non-nil error means the finished turn could not be
	// committed to durable storage; the in-memory session still holds
	// it and the caller may retry or continue with an unsaved tail.
	Send(ctx context.Context, input string, onDelta func(fragment string)) (*domain.Turn, error)

	// SendOnce is the non-streaming variant: the full reply arrives at
	// once. Commit semantics match Send.
	SendOnce(ctx context.Context, input string) (*domain.Turn, error)

	// ModelName returns the generation model in use, for display.
	ModelName() string
}

// ExtractionService runs OCR over an image and folds the result into
// the conversation.
type ExtractionService interface {
	// ExtractImage recognises text in the image, normalises the
	// result, exports the record standalone, and appends an extraction
	// turn to the active session. Recognition failures (no result, no
	// readable text) are returned as errors matching domain.ErrNoResult
	// or domain.ErrNoText for the caller to present.
	ExtractImage(ctx context.Context, imagePath string) (*domain.ExtractionRecord, error)
}

// SessionSummary is a stored session's display listing.
type SessionSummary struct {
	ID        string
	Title     string
	TurnCount int
}

// SessionService manages the active conversation and the archive.
type SessionService interface {
	// Active returns the in-memory session currently accumulating turns.
	Active() *domain.Session

	// StartNew discards the active session from memory (not from
	// storage) and begins an empty one.
	StartNew()

	// Switch loads a stored session by id and makes it active.
	Switch(ctx context.Context, id string) error

	// List returns stored sessions, most recent first.
	List(ctx context.Context) ([]SessionSummary, error)

	// Delete removes a stored session. If it is also the active
	// session, the active session restarts empty.
	Delete(ctx context.Context, id string) error
}
