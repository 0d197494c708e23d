package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/factbot/internal/dataset"
	"github.com/ppiankov/factbot/internal/validate"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check corpus and reference data",
	Long: `Validate reports problems in the configured corpus and reference files.
It exits with an error when any critical issue is found.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	data, err := dataset.Load(cfg.Data.Dir, cfg.Data.CorpusFiles, cfg.Data.ReferenceFile)
	if err != nil {
		return fmt.Errorf("load data set: %w", err)
	}

	issues, err := validate.NewValidator(validationRules(), cfg.Concurrency.Workers).ValidateCorpus(cmd.Context(), data.Corpus)
	if err != nil {
		return err
	}
	issues = append(issues, validate.ValidateReference(data.Reference)...)

	out := cmd.OutOrStdout()
	for _, issue := range issues {
		fmt.Fprintln(out, issue)
	}

	intents := 0
	for _, src := range data.Corpus {
		intents += len(src.Entries)
	}
	fmt.Fprintf(out, "%d sources, %d intents, %d issues\n", len(data.Corpus), intents, len(issues))

	if validate.HasCritical(issues) {
		return fmt.Errorf("critical data issues found")
	}
	return nil
}
