package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/resumeflow/internal/score"
)

var scoreCommand = &cobra.Command{
	Use:   "score [text]",
	Short: "Normalize fit score text into value/scale form",
	Long:  "Normalizes fit score text the way the saved list shows it. Reads stdin when no text is given.",
	RunE:  runScoreCmd,
}

var scorePlaceholder string

func init() {
	scoreCommand.Flags().StringVar(&scorePlaceholder, "placeholder", "N/A", "Printed for empty input")
	rootCmd.AddCommand(scoreCommand)
}

func runScoreCmd(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	}
	fmt.Fprintln(cmd.OutOrStdout(), score.NormalizeOr(text, scorePlaceholder)) //nolint:errcheck
	return nil
}
