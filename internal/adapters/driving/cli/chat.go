package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var chatNoStream bool

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Chat with the language model",
	Long: `Sends a message to the configured model and prints the reply.

With a message argument the command answers once and exits. Without
arguments on an interactive terminal it starts a conversational loop;
type /new to start a fresh session and /quit to leave.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatNoStream, "no-stream", false, "print the full reply at once instead of streaming")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if len(args) > 0 {
		return sendMessage(ctx, cmd, args[0])
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		// Piped input: read it all as a single message.
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		input := strings.TrimSpace(string(data))
		if input == "" {
			return errors.New("no message provided")
		}
		return sendMessage(ctx, cmd, input)
	}

	return chatLoop(ctx, cmd)
}

// chatLoop runs the interactive read-eval-print loop.
func chatLoop(ctx context.Context, cmd *cobra.Command) error {
	cmd.Printf("scribe chat (%s) - /new starts a fresh session, /quit exits\n", chatService.ModelName())

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			cmd.Println()
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		switch {
		case input == "":
			continue
		case input == "/quit" || input == "/exit":
			return nil
		case input == "/new":
			if sessionService != nil {
				sessionService.StartNew()
				cmd.Println("Started a new session.")
			}
			continue
		}

		if err := sendMessage(ctx, cmd, input); err != nil {
			cmd.PrintErrf("Error: %v\n", err)
		}
	}
}

// sendMessage sends one message and prints the reply, streaming unless
// disabled.
func sendMessage(ctx context.Context, cmd *cobra.Command, input string) error {
	if chatNoStream {
		turn, err := chatService.SendOnce(ctx, input)
		if err != nil {
			return err
		}
		cmd.Println(turn.Content)
		return nil
	}

	_, err := chatService.Send(ctx, input, func(delta string) {
		cmd.Print(delta)
	})
	cmd.Println()
	return err
}
