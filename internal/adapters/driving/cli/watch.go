package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/scribe-cli/internal/logger"
)

// imageExtensions are the file types handed to the recogniser.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".webp": true,
}

var watchCmd = &cobra.Command{
	Use:   "watch <directory>",
	Short: "Watch a directory and extract text from new images",
	Long: `Watches a directory and runs text recognition on every image file
created or modified in it. Each extraction is appended to the active
session, the same as "scribe ocr". Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if extractionService == nil {
		return errors.New("extraction service not configured")
	}

	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cmd.Printf("Watching %s for images...\n", dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			handleWatchEvent(ctx, cmd, event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// handleWatchEvent extracts text from image files created or written in
// the watched directory. Other events and non-image files are ignored.
func handleWatchEvent(ctx context.Context, cmd *cobra.Command, event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return
	}

	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return
	}
	if !imageExtensions[strings.ToLower(filepath.Ext(name))] {
		return
	}

	logger.Debug("Watch event: %s %s", event.Op, event.Name)

	record, err := extractionService.ExtractImage(ctx, event.Name)
	if err != nil {
		cmd.PrintErrf("%s: %v\n", name, err)
		return
	}

	cmd.Printf("%s: extracted %d lines\n", name, len(record.Lines))
}
