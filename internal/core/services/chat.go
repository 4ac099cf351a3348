package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driving"
	"github.com/custodia-labs/scribe-cli/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// DefaultChatOptions are the fixed generation parameters used for
// every request. They are configuration constants, not tunable per
// call.
var DefaultChatOptions = driven.ChatOptions{
	Temperature:   0.8,
	TopP:          0.95,
	TopK:          50,
	ContextSize:   2048,
	MaxTokens:     512,
	RepeatPenalty: 1.1,
}

// ChatService ties the session store, context assembly, and the
// generation backend together to resolve one user turn at a time.
type ChatService struct {
	sessions  *SessionStore
	generator driven.GenerationService
}

// NewChatService creates the chat orchestration service.
func NewChatService(sessions *SessionStore, generator driven.GenerationService) *ChatService {
	return &ChatService{
		sessions:  sessions,
		generator: generator,
	}
}

// ModelName returns the generation model in use, for display.
func (s *ChatService) ModelName() string {
	if s.generator == nil {
		return ""
	}
	return s.generator.ModelName()
}

// Send submits a user turn, streams the assistant's reply, and commits
// both to the active session.
//
// The flow resolves one turn fully before returning: enrich the input
// with recent extraction context, snapshot history, record the user
// turn, assemble the request, and drain the fragment stream. Fragments
// are handed to onDelta as they arrive; the stream is the only
// suspension point, and no session mutation happens between yields.
//
// Normal termination commits the accumulated reply. Cancellation (or
// any stream-level fault, which only cancellation produces - transport
// failures arrive as regular fragments) discards the partial text
// without committing it.
func (s *ChatService) Send(ctx context.Context, input string, onDelta func(string)) (*domain.Turn, error) {
	if s.generator == nil {
		return nil, domain.ErrGenerationUnavailable
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return nil, domain.ErrInvalidInput
	}

	logger.Section("Chat Turn")
	enriched := s.sessions.EnrichInput(input)
	if enriched != input {
		logger.Info("input enriched with extraction context")
	}

	history := s.sessions.HistorySnapshot()
	s.sessions.SubmitUserTurn(input)

	messages := AssembleContext(history, enriched, SystemDirective)
	logger.Debug("assembled %d messages for model %s", len(messages), s.generator.ModelName())

	stream := s.generator.ChatStream(ctx, messages, DefaultChatOptions)
	defer stream.Close()

	var reply strings.Builder
	fragments := 0
	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logger.Warn("stream abandoned after %d fragments: %v", fragments, err)
			return nil, fmt.Errorf("%w: %v", domain.ErrStreamCancelled, err)
		}
		reply.WriteString(fragment)
		fragments++
		if onDelta != nil {
			onDelta(fragment)
		}
	}
	logger.Debug("stream complete: %d fragments, %d bytes", fragments, reply.Len())

	turn, err := s.sessions.CommitAssistant(ctx, reply.String())
	if err != nil {
		return &turn, err
	}
	return &turn, nil
}

// SendOnce resolves a turn without incremental display. The reply
// still arrives over the same streaming transport; it is simply
// accumulated before being returned.
func (s *ChatService) SendOnce(ctx context.Context, input string) (*domain.Turn, error) {
	return s.Send(ctx, input, nil)
}
