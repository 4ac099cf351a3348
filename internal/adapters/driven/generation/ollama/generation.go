// Package ollama provides a generation service adapter using Ollama.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
)

// Ensure GenerationService implements the interface.
var _ driven.GenerationService = (*GenerationService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "phi3:mini"

	// DefaultTimeout is the fixed wait budget for one generation
	// request, including the time spent reading the streamed body.
	DefaultTimeout = 300 * time.Second
)

// Config holds configuration for the Ollama generation service.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the chat model to use (default: phi3:mini).
	Model string

	// Timeout is the request wait budget (default: 300s).
	Timeout time.Duration
}

// GenerationService provides chat completion using Ollama.
type GenerationService struct {
	client  *http.Client
	baseURL string
	model   string
}

// chatRequest is the Ollama /api/chat request format.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *options      `json:"options,omitempty"`
}

// chatMessage is the Ollama chat message format.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// options holds generation parameters.
type options struct {
	Temperature   float64 `json:"temperature,omitempty"`
	TopP          float64 `json:"top_p,omitempty"`
	TopK          int     `json:"top_k,omitempty"`
	NumCtx        int     `json:"num_ctx,omitempty"`
	NumPredict    int     `json:"num_predict,omitempty"`
	RepeatPenalty float64 `json:"repeat_penalty,omitempty"`
}

// chatFrame is one newline-delimited JSON object of a streaming
// /api/chat response. Non-streaming responses use the same shape with
// the full content in one frame.
type chatFrame struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// NewGenerationService creates a new Ollama generation service.
func NewGenerationService(cfg Config) *GenerationService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &GenerationService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// ChatStream issues one streaming request and returns the fragment
// sequence. Transport failures do not surface as errors: the returned
// stream yields a single human-readable fragment describing the
// problem and then terminates (see TokenStream).
func (s *GenerationService) ChatStream(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) driven.TokenStream {
	chatMessages := make([]chatMessage, len(messages))
	for i, msg := range messages {
		chatMessages[i] = chatMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	reqBody := chatRequest{
		Model:    s.model,
		Messages: chatMessages,
		Stream:   true,
		Options: &options{
			Temperature:   opts.Temperature,
			TopP:          opts.TopP,
			TopK:          opts.TopK,
			NumCtx:        opts.ContextSize,
			NumPredict:    opts.MaxTokens,
			RepeatPenalty: opts.RepeatPenalty,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return failedStream(fmt.Sprintf("Error: %v", err))
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/api/chat",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return failedStream(fmt.Sprintf("Error: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req) //nolint:bodyclose // closed via tokenStream.Close
	if err != nil {
		// Caller cancellation is not a transport failure: surface it
		// so the consumer discards the turn instead of committing a
		// connectivity hint.
		if ctx.Err() != nil {
			return cancelledStream(ctx.Err())
		}
		return failedStream(s.transportFailureMessage(err))
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return failedStream(fmt.Sprintf(
			"Error: Ollama server error (status %d). Try restarting Ollama: `ollama serve`",
			resp.StatusCode))
	}

	return newTokenStream(ctx, resp.Body)
}

// transportFailureMessage converts a request-level fault into the
// user-visible remediation text.
func (s *GenerationService) transportFailureMessage(err error) string {
	if isTimeout(err) {
		return "Error: Ollama request timed out. The model may be overloaded. Please wait a moment and try again."
	}
	return fmt.Sprintf(
		"Error: Cannot connect to Ollama.\n\n"+
			"Solutions:\n"+
			"1. Make sure Ollama is running: `ollama serve`\n"+
			"2. Check if the model is installed: `ollama list`\n"+
			"3. Pull the model if needed: `ollama pull %s`",
		s.model)
}

// isTimeout reports whether err is a wait-budget expiry rather than a
// connection failure.
func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// ModelName returns the name of the chat model being used.
func (s *GenerationService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by checking the /api/tags
// endpoint. This is a lightweight check that validates connectivity
// without running inference.
func (s *GenerationService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("ollama: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("ollama: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
