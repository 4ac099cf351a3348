package cli

import (
	"context"
	"io"
	"os"

	"github.com/custodia-labs/scribe-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
	"github.com/custodia-labs/scribe-cli/internal/core/services"
)

// stubTokenStream yields a fixed fragment sequence then io.EOF.
type stubTokenStream struct {
	fragments []string
	pos       int
}

func (s *stubTokenStream) Recv() (string, error) {
	if s.pos >= len(s.fragments) {
		return "", io.EOF
	}
	f := s.fragments[s.pos]
	s.pos++
	return f, nil
}

func (s *stubTokenStream) Close() error { return nil }

// stubGenerator replays canned fragments for every request.
type stubGenerator struct {
	fragments []string
}

func (g *stubGenerator) ChatStream(_ context.Context, _ []driven.ChatMessage, _ driven.ChatOptions) driven.TokenStream {
	return &stubTokenStream{fragments: g.fragments}
}

func (g *stubGenerator) ModelName() string { return "stub-model" }

func (g *stubGenerator) Ping(_ context.Context) error { return nil }

// stubRecognizer returns a fixed recognition result regardless of input.
type stubRecognizer struct {
	result *domain.RawRecognition
	err    error
}

func (r *stubRecognizer) Recognize(_ context.Context, _ string) (*domain.RawRecognition, error) {
	return r.result, r.err
}

func (r *stubRecognizer) Ping(_ context.Context) error { return nil }

// setupTestServices wires the commands to in-memory services with stub
// backends. The returned cleanup restores the previous wiring.
func setupTestServices() func() {
	oldChat := chatService
	oldExtraction := extractionService
	oldSession := sessionService

	sessions := services.NewSessionStore(memory.NewSessionArchive())
	generator := &stubGenerator{fragments: []string{"Hel", "lo"}}
	recognizer := &stubRecognizer{
		result: &domain.RawRecognition{
			Texts:  []string{"INVOICE #42"},
			Scores: []float64{0.98},
		},
	}

	chatService = services.NewChatService(sessions, generator)
	extractionService = services.NewExtractionService(
		recognizer, memory.NewExtractionArchive(), sessions,
	)
	sessionService = sessions

	return func() {
		chatService = oldChat
		extractionService = oldExtraction
		sessionService = oldSession
	}
}

// writeTestFile creates a small placeholder file.
func writeTestFile(path string) error {
	return os.WriteFile(path, []byte("test"), 0600)
}

// newExtractionServiceWithRecognizer swaps in a different recognition
// backend over a fresh session store.
func newExtractionServiceWithRecognizer(recognizer driven.RecognitionService) *services.ExtractionService {
	sessions := services.NewSessionStore(memory.NewSessionArchive())
	return services.NewExtractionService(recognizer, memory.NewExtractionArchive(), sessions)
}
