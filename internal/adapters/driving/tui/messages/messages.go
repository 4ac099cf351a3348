// Package messages defines Bubbletea message types for the TUI.
// Messages represent events that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/scribe-cli/internal/core/domain"
)

// StreamDelta carries one streamed reply fragment.
type StreamDelta struct {
	Fragment string
}

// ReplyCompleted signals that the reply has finished streaming.
// Err is non-nil when the finished turn could not be stored.
type ReplyCompleted struct {
	Turn *domain.Turn
	Err  error
}

// SessionReset is sent after a new session has been started.
type SessionReset struct{}
