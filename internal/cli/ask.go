package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	askJSON    bool
	askTimeout time.Duration
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <message...>",
	Short: "Answer a single message",
	Long: `Ask classifies one message and prints the selected reply.

Example:
  factbot ask "who are the members of the band?"
  factbot ask did flea play on mothers milk --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full response as JSON")
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 2*time.Minute, "timeout including classifier training")
	askCmd.Flags().StringVar(&modelFile, "model", "", "serialized classifier to load instead of training")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), askTimeout)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}

	resp, err := a.pipeline.ProcessMessage(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !askJSON {
		_, err = fmt.Fprintln(out, resp.Message)
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
