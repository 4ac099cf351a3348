package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var ocrQuiet bool

var ocrCmd = &cobra.Command{
	Use:   "ocr <image>...",
	Short: "Extract text from images",
	Long: `Runs text recognition on the given image files.

Each extraction is recorded in the active session, so a following
"scribe chat" question can refer to the extracted text.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOCR,
}

func init() {
	ocrCmd.Flags().BoolVarP(&ocrQuiet, "quiet", "q", false, "print only the extracted text")
	rootCmd.AddCommand(ocrCmd)
}

func runOCR(cmd *cobra.Command, args []string) error {
	if extractionService == nil {
		return errors.New("extraction service not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var failed int
	for _, path := range args {
		record, err := extractionService.ExtractImage(ctx, path)
		if err != nil {
			cmd.PrintErrf("%s: %v\n", path, err)
			failed++
			continue
		}

		if ocrQuiet {
			cmd.Println(record.FullText)
		} else {
			cmd.Println(record.DisplayBlock())
			cmd.Println()
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(args))
	}
	return nil
}
