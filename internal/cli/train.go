package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/factbot/internal/pipeline"
)

var (
	trainOut     string
	trainTimeout time.Duration
)

// trainCmd represents the train command
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the classifier and store it",
	Long: `Train always fits a fresh classifier from the corpus, ignoring stored models.
The result is saved to the model cache (unless --no-cache) and optionally
written to a file that can later be passed with --model.

Example:
  factbot train
  factbot train --out model.json`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().StringVar(&trainOut, "out", "", "write the serialized classifier to this file")
	trainCmd.Flags().DurationVar(&trainTimeout, "timeout", 10*time.Minute, "training timeout")
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), trainTimeout)
	defer cancel()

	a, err := newApp(ctx, pipeline.WithForceTrain())
	if err != nil {
		return err
	}

	m, err := a.pipeline.Model(ctx)
	if err != nil {
		return err
	}

	if trainOut != "" {
		data, err := m.Serialize()
		if err != nil {
			return err
		}
		if err := os.WriteFile(trainOut, data, 0o644); err != nil {
			return fmt.Errorf("write model: %w", err)
		}
	}

	stats := m.Stats()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Trained classifier\n")
	fmt.Fprintf(out, "  Examples:    %d (%d skipped)\n", stats.Examples, stats.Skipped)
	fmt.Fprintf(out, "  Intents:     %d\n", stats.Labels)
	fmt.Fprintf(out, "  Features:    %d\n", stats.Features)
	fmt.Fprintf(out, "  Iterations:  %d (%s)\n", stats.Iterations, stats.Status)
	fmt.Fprintf(out, "  Loss:        %.4f\n", stats.Loss)
	fmt.Fprintf(out, "  Duration:    %v\n", stats.Duration.Round(time.Millisecond))
	if a.store != nil {
		fmt.Fprintf(out, "  Cache:       %s\n", cfg.Cache.Dir)
	}
	if trainOut != "" {
		fmt.Fprintf(out, "  Output:      %s\n", trainOut)
	}
	return nil
}
