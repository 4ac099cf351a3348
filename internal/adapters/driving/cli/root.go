// Package cli provides the command-line interface for scribe.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/scribe-cli/internal/core/ports/driving"
	"github.com/custodia-labs/scribe-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services used by the commands, injected by the composition root
// before Execute is called.
var (
	chatService       driving.ChatService
	extractionService driving.ExtractionService
	sessionService    driving.SessionService
)

// Dependencies holds the services the CLI commands operate on.
type Dependencies struct {
	ChatService       driving.ChatService
	ExtractionService driving.ExtractionService
	SessionService    driving.SessionService
}

// SetDependencies wires the core services into the command tree.
func SetDependencies(deps Dependencies) {
	chatService = deps.ChatService
	extractionService = deps.ExtractionService
	sessionService = deps.SessionService
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "Chat with a local language model, with OCR context",
	Long: `Scribe is a local-first conversational assistant.

It streams responses from a local Ollama model and can extract text from
images through a PaddleOCR sidecar. Extracted text is folded into the
conversation so follow-up questions can refer to it.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
