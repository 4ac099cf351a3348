package driven

import "context"

// ChatMessage represents a single message in a conversation payload.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures generation behaviour. Zero values mean the
// backend's defaults.
type ChatOptions struct {
	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// TopP is the nucleus sampling threshold.
	TopP float64

	// TopK limits sampling to the k most likely tokens.
	TopK int

	// ContextSize is the model's context window in tokens.
	ContextSize int

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// RepeatPenalty discourages repetition.
	RepeatPenalty float64
}

// TokenStream is a resumable, cancellable sequence of text fragments
// from an in-flight generation request.
//
// Recv returns the next fragment, or io.EOF once the stream has
// terminated normally. Transport-level failures are NOT surfaced as
// errors: the stream yields one human-readable fragment describing the
// problem (with remediation hints where applicable) and then
// terminates, so callers that only consume text never need a separate
// error channel.
//
// Close releases the underlying connection promptly. It is safe to
// call Close at any point, including mid-stream; abandoning a stream
// without closing it leaks the connection.
type TokenStream interface {
	// Recv returns the next text fragment, or io.EOF at end of stream.
	Recv() (string, error)

	// Close releases the underlying connection.
	Close() error
}

// GenerationService provides chat completion from a generation backend.
//
// Implementations may include:
//   - Ollama (local models)
//   - LM Studio (local inference server)
type GenerationService interface {
	// ChatStream opens a streaming request and returns the fragment
	// sequence. The returned stream must be closed by the caller.
	ChatStream(ctx context.Context, messages []ChatMessage, opts ChatOptions) TokenStream

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error
}
