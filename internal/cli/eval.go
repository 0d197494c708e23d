package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/factbot/internal/dataset"
	"github.com/ppiankov/factbot/internal/model"
	"github.com/ppiankov/factbot/internal/score"
	"github.com/ppiankov/factbot/internal/worker"
)

var (
	evalJSON       string
	evalOutOfScope []string
	evalTimeout    time.Duration
)

// evalCmd represents the eval command
var evalCmd = &cobra.Command{
	Use:   "eval [file]",
	Short: "Measure classification quality on labeled messages",
	Long: `Eval answers labeled messages and compares the resolved intent with the
expected one. The file holds JSON lines {"text", "intent"}. Without a file
every corpus utterance is checked against its own intent.

Expect "unrecognized" (or an out-of-scope label) for messages that should be
rejected by the confidence threshold.

Example:
  factbot eval
  factbot eval testdata/labeled.jsonl --json report.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVar(&evalJSON, "json", "", "write the full report as JSON to this path")
	evalCmd.Flags().StringSliceVar(&evalOutOfScope, "out-of-scope", []string{"intent.outofscope"}, "labels that count as correctly rejected when gated")
	evalCmd.Flags().DurationVar(&evalTimeout, "timeout", 10*time.Minute, "evaluation timeout")
	evalCmd.Flags().StringVar(&modelFile, "model", "", "serialized classifier to load instead of training")
}

func runEval(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), evalTimeout)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}

	var labeled []model.LabeledMessage
	if len(args) == 1 {
		if labeled, err = dataset.ReadLabeled(args[0]); err != nil {
			return err
		}
	} else {
		labeled = dataset.Resubstitution(a.data.Corpus, cfg.NLU.NoneIntent)
	}
	if len(labeled) == 0 {
		return fmt.Errorf("no labeled messages")
	}

	if err := a.pipeline.Warm(ctx); err != nil {
		return fmt.Errorf("initialize classifier: %w", err)
	}

	messages := make([]worker.InputMessage, len(labeled))
	for i, l := range labeled {
		messages[i] = worker.InputMessage{ID: strconv.Itoa(i + 1), Text: l.Text, Intent: l.Intent}
	}
	results := a.batchProcessor(0).ProcessMessages(ctx, messages)

	predictions := make([]model.Prediction, 0, len(results))
	for _, r := range results {
		if r.Error != nil {
			return fmt.Errorf("message %s: %w", r.Message.ID, r.Error)
		}
		predictions = append(predictions, model.Prediction{
			Text:       r.Message.Text,
			Expected:   r.Message.Intent,
			Predicted:  r.Response.Intent,
			Confidence: r.Response.Confidence,
		})
	}

	outOfScope := append([]string{cfg.NLU.NoneIntent}, evalOutOfScope...)
	report := score.NewScorer(outOfScope...).Calculate(predictions, a.pipeline.Threshold())
	printReport(cmd.OutOrStdout(), report)

	if evalJSON != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		if err := os.WriteFile(evalJSON, data, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return nil
}

func printReport(w io.Writer, r model.EvalReport) {
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "  Evaluation\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n\n")
	fmt.Fprintf(w, "  Messages:    %d\n", r.Total)
	fmt.Fprintf(w, "  Correct:     %d\n", r.Correct)
	fmt.Fprintf(w, "  Accuracy:    %.1f%%\n", r.Accuracy*100)
	fmt.Fprintf(w, "  Macro F1:    %.3f\n", r.Macro.F1)
	fmt.Fprintf(w, "  Threshold:   %.3f (%d gated, %d in scope)\n\n", r.Gating.Threshold, r.Gating.Gated, r.Gating.GatedInScope)

	fmt.Fprintf(w, "  %-28s %9s %9s %9s %8s\n", "INTENT", "PRECISION", "RECALL", "F1", "SUPPORT")
	for _, m := range r.PerIntent {
		fmt.Fprintf(w, "  %-28s %9.3f %9.3f %9.3f %8d\n", m.Intent, m.Precision, m.Recall, m.F1, m.Support)
	}
	fmt.Fprintln(w)

	if len(r.Signals) == 0 {
		return
	}
	fmt.Fprintf(w, "  Signals:\n")
	for _, s := range r.Signals {
		fmt.Fprintf(w, "  [%s] %s\n", s.Severity, s.Description)
	}
	fmt.Fprintln(w)
}
