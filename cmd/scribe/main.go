// Command scribe is a local-first conversational assistant. It streams
// replies from an Ollama model and folds OCR-extracted text from a
// PaddleOCR sidecar into the conversation.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/scribe-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/scribe-cli/internal/adapters/driven/generation/ollama"
	"github.com/custodia-labs/scribe-cli/internal/adapters/driven/recognition/paddle"
	"github.com/custodia-labs/scribe-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/scribe-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/scribe-cli/internal/core/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := sqlite.NewStore(config.GetString(file.KeyDataDir))
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	generator := ollama.NewGenerationService(ollama.Config{
		BaseURL: config.GetString(file.KeyOllamaBaseURL),
		Model:   config.GetString(file.KeyOllamaModel),
		Timeout: time.Duration(config.GetInt("ollama.timeout_seconds")) * time.Second,
	})

	recognizer := paddle.NewRecognitionService(paddle.Config{
		BaseURL:  config.GetString(file.KeyOCRBaseURL),
		Language: config.GetString(file.KeyOCRLanguage),
	})

	sessions := services.NewSessionStore(store.SessionArchive())
	chatService := services.NewChatService(sessions, generator)
	extractionService := services.NewExtractionService(
		recognizer, store.ExtractionArchive(), sessions,
	)

	cli.SetDependencies(cli.Dependencies{
		ChatService:       chatService,
		ExtractionService: extractionService,
		SessionService:    sessions,
	})

	return cli.Execute()
}
