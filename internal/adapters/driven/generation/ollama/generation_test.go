package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
)

func drain(t *testing.T, stream driven.TokenStream) (string, error) {
	t.Helper()
	defer stream.Close()

	var sb strings.Builder
	for {
		fragment, err := stream.Recv()
		if err == io.EOF {
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), err
		}
		sb.WriteString(fragment)
	}
}

func TestNewGenerationService_Defaults(t *testing.T) {
	service := NewGenerationService(Config{})

	assert.Equal(t, DefaultBaseURL, service.baseURL)
	assert.Equal(t, DefaultModel, service.model)
	assert.Equal(t, DefaultTimeout, service.client.Timeout)
}

func TestGenerationService_ChatStream_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "phi3:mini", req.Model)
		assert.True(t, req.Stream)
		require.NotNil(t, req.Options)
		assert.InDelta(t, 0.8, req.Options.Temperature, 0.0001)
		assert.Equal(t, 50, req.Options.TopK)
		assert.Equal(t, 2048, req.Options.NumCtx)
		assert.Equal(t, 512, req.Options.NumPredict)

		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"Hel"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"lo"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":""},"done":true}`)
	}))
	defer server.Close()

	service := NewGenerationService(Config{BaseURL: server.URL})
	stream := service.ChatStream(context.Background(),
		[]driven.ChatMessage{{Role: "user", Content: "Say hello"}},
		driven.ChatOptions{
			Temperature: 0.8, TopP: 0.95, TopK: 50,
			ContextSize: 2048, MaxTokens: 512, RepeatPenalty: 1.1,
		})

	reply, err := drain(t, stream)

	require.NoError(t, err)
	assert.Equal(t, "Hello", reply)
}

func TestGenerationService_ChatStream_DoneFrameWithContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"partial"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":" tail"},"done":true}`)
	}))
	defer server.Close()

	service := NewGenerationService(Config{BaseURL: server.URL})
	stream := service.ChatStream(context.Background(), nil, driven.ChatOptions{})

	reply, err := drain(t, stream)

	require.NoError(t, err)
	assert.Equal(t, "partial tail", reply)
}

func TestGenerationService_ChatStream_SkipsMalformedFrames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"good"},"done":false}`)
		fmt.Fprintln(w, `{not json at all`)
		fmt.Fprintln(w, ``)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":" frames"},"done":false}`)
		fmt.Fprintln(w, `{"done":true}`)
	}))
	defer server.Close()

	service := NewGenerationService(Config{BaseURL: server.URL})
	stream := service.ChatStream(context.Background(), nil, driven.ChatOptions{})

	reply, err := drain(t, stream)

	require.NoError(t, err)
	assert.Equal(t, "good frames", reply)
}

func TestGenerationService_ChatStream_StopsAtDone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"before"},"done":false}`)
		fmt.Fprintln(w, `{"done":true}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"after"},"done":false}`)
	}))
	defer server.Close()

	service := NewGenerationService(Config{BaseURL: server.URL})
	stream := service.ChatStream(context.Background(), nil, driven.ChatOptions{})

	reply, err := drain(t, stream)

	require.NoError(t, err)
	assert.Equal(t, "before", reply)
}

func TestGenerationService_ChatStream_ConnectionRefused(t *testing.T) {
	// Grab a port that nothing listens on.
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	server.Close()

	service := NewGenerationService(Config{BaseURL: server.URL, Model: "phi3:mini"})
	stream := service.ChatStream(context.Background(), nil, driven.ChatOptions{})

	reply, err := drain(t, stream)

	// Transport failures arrive as text, not as errors.
	require.NoError(t, err)
	assert.Contains(t, reply, "Cannot connect to Ollama")
	assert.Contains(t, reply, "ollama serve")
	assert.Contains(t, reply, "ollama pull phi3:mini")
}

func TestGenerationService_ChatStream_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	service := NewGenerationService(Config{BaseURL: server.URL})
	stream := service.ChatStream(context.Background(), nil, driven.ChatOptions{})

	reply, err := drain(t, stream)

	require.NoError(t, err)
	assert.Contains(t, reply, "status 500")
	assert.Contains(t, reply, "ollama serve")
}

func TestGenerationService_ChatStream_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	service := NewGenerationService(Config{BaseURL: server.URL, Timeout: 20 * time.Millisecond})
	stream := service.ChatStream(context.Background(), nil, driven.ChatOptions{})

	reply, err := drain(t, stream)

	require.NoError(t, err)
	assert.Contains(t, reply, "timed out")
}

func TestGenerationService_ChatStream_Cancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"first"},"done":false}`)
		w.(http.Flusher).Flush()
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	service := NewGenerationService(Config{BaseURL: server.URL})
	stream := service.ChatStream(ctx, nil, driven.ChatOptions{})
	defer stream.Close()

	fragment, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "first", fragment)

	cancel()

	_, err = stream.Recv()
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerationService_ChatStream_CancelledBeforeResponse(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		// Stall without writing headers, like a model still loading.
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	service := NewGenerationService(Config{BaseURL: server.URL})
	stream := service.ChatStream(ctx, nil, driven.ChatOptions{})
	defer stream.Close()

	fragment, err := stream.Recv()
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fragment)

	_, err = stream.Recv()
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFailedStream_SingleFragmentThenEOF(t *testing.T) {
	stream := failedStream("Error: something broke")

	fragment, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "Error: something broke", fragment)

	_, err = stream.Recv()
	assert.ErrorIs(t, err, io.EOF)

	assert.NoError(t, stream.Close())
}

func TestTokenStream_CloseMidStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"one"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"two"},"done":false}`)
	}))
	defer server.Close()

	service := NewGenerationService(Config{BaseURL: server.URL})
	stream := service.ChatStream(context.Background(), nil, driven.ChatOptions{})

	_, err := stream.Recv()
	require.NoError(t, err)

	require.NoError(t, stream.Close())

	_, err = stream.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestGenerationService_ModelName(t *testing.T) {
	service := NewGenerationService(Config{Model: "llama3"})

	assert.Equal(t, "llama3", service.ModelName())
}

func TestGenerationService_Ping_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		fmt.Fprintln(w, `{"models":[]}`)
	}))
	defer server.Close()

	service := NewGenerationService(Config{BaseURL: server.URL})

	assert.NoError(t, service.Ping(context.Background()))
}

func TestGenerationService_Ping_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	service := NewGenerationService(Config{BaseURL: server.URL})

	err := service.Ping(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestGenerationService_Ping_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	server.Close()

	service := NewGenerationService(Config{BaseURL: server.URL})

	assert.Error(t, service.Ping(context.Background()))
}
