// Package tui provides an interactive terminal user interface for scribe.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Chat resolves user turns against the generation backend.
	Chat driving.ChatService

	// Session manages the active conversation and the archive.
	Session driving.SessionService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(chat driving.ChatService, session driving.SessionService) *Ports {
	return &Ports{
		Chat:    chat,
		Session: session,
	}
}

// Validate ensures all required ports are set.
// Returns an error if any port is nil.
func (p *Ports) Validate() error {
	if p.Chat == nil {
		return ErrMissingChatService
	}
	if p.Session == nil {
		return ErrMissingSessionService
	}
	return nil
}
