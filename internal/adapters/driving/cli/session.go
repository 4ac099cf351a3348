package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored chat sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions",
	RunE:  runSessionList,
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a stored session's transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionShow,
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionDelete,
}

func init() {
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionDeleteCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionList(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	summaries, err := sessionService.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(summaries) == 0 {
		cmd.Println("No stored sessions.")
		return nil
	}

	for _, s := range summaries {
		cmd.Printf("  %s  %-33s %d turns\n", s.ID, s.Title, s.TurnCount)
	}
	return nil
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	ctx := context.Background()
	if err := sessionService.Switch(ctx, args[0]); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("session %s not found", args[0])
		}
		return fmt.Errorf("failed to load session: %w", err)
	}

	session := sessionService.Active()
	cmd.Printf("%s - %s\n\n", session.ID, session.Title())
	for _, turn := range session.Turns {
		cmd.Printf("[%s] %s\n", turn.Role, turn.Content)
	}
	return nil
}

func runSessionDelete(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	if err := sessionService.Delete(context.Background(), args[0]); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("session %s not found", args[0])
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}

	cmd.Printf("Deleted session %s.\n", args[0])
	return nil
}
