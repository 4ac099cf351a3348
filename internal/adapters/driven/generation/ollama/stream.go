package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
	"github.com/custodia-labs/scribe-cli/internal/logger"
)

// Ensure tokenStream implements the interface.
var _ driven.TokenStream = (*tokenStream)(nil)

// maxFrameSize bounds one newline-delimited response frame.
const maxFrameSize = 1 << 20

// tokenStream decodes a streaming /api/chat response body into text
// fragments. Each frame is decoded independently; a frame that fails
// to decode is skipped without aborting the stream.
type tokenStream struct {
	ctx      context.Context
	body     io.ReadCloser
	scanner  *bufio.Scanner
	pending  string
	terminal error
	finished bool
}

// newTokenStream wraps a live response body.
func newTokenStream(ctx context.Context, body io.ReadCloser) *tokenStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameSize)
	return &tokenStream{
		ctx:     ctx,
		body:    body,
		scanner: scanner,
	}
}

// failedStream is a degraded stream that yields exactly one fragment
// describing a transport failure and then terminates. Callers that
// only consume text never need a separate error channel for this case.
func failedStream(message string) *tokenStream {
	return &tokenStream{pending: message}
}

// cancelledStream is a stream whose Recv immediately reports the
// caller's cancellation, so partial output is discarded rather than
// committed. Used when the request is cancelled before any response
// arrives.
func cancelledStream(err error) *tokenStream {
	return &tokenStream{terminal: err}
}

// Recv returns the next text fragment, or io.EOF at end of stream.
//
// Cancellation by the caller is the one condition reported as an
// error: when the request context is cancelled mid-stream, Recv
// returns the context's error so the consumer can discard partial
// output instead of committing it.
func (t *tokenStream) Recv() (string, error) {
	if t.terminal != nil {
		t.finished = true
		return "", t.terminal
	}
	if t.pending != "" {
		fragment := t.pending
		t.pending = ""
		t.finished = true
		return fragment, nil
	}
	if t.finished {
		return "", io.EOF
	}

	for t.scanner.Scan() {
		line := bytes.TrimSpace(t.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var frame chatFrame
		if err := json.Unmarshal(line, &frame); err != nil {
			logger.Debug("skipping malformed frame: %v", err)
			continue
		}

		if frame.Done {
			t.finished = true
			if frame.Message.Content != "" {
				return frame.Message.Content, nil
			}
			return "", io.EOF
		}
		if frame.Message.Content != "" {
			return frame.Message.Content, nil
		}
	}

	t.finished = true
	if err := t.scanner.Err(); err != nil {
		if t.ctx != nil && t.ctx.Err() != nil {
			return "", t.ctx.Err()
		}
		if isTimeout(err) {
			return "Error: Ollama request timed out. The model may be overloaded. Please wait a moment and try again.", nil
		}
		return fmt.Sprintf("Error: %v", err), nil
	}
	return "", io.EOF
}

// Close releases the underlying connection. Safe to call at any point,
// including mid-stream; abandoning the stream without closing it would
// leak the connection.
func (t *tokenStream) Close() error {
	t.finished = true
	if t.body == nil {
		return nil
	}
	return t.body.Close()
}
