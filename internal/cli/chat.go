package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/factbot/internal/respond"
)

var showIntent bool

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive question and answer session",
	Long: `Chat reads one message per line from stdin and prints each reply.
Every line is answered on its own; nothing is remembered between lines.
Type "exit" or "quit", or send EOF, to leave.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().BoolVar(&showIntent, "show-intent", false, "print the resolved intent and confidence after each reply")
	chatCmd.Flags().StringVar(&modelFile, "model", "", "serialized classifier to load instead of training")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	if err := a.pipeline.Warm(ctx); err != nil {
		return fmt.Errorf("initialize classifier: %w", err)
	}

	in := bufio.NewScanner(cmd.InOrStdin())
	out := cmd.OutOrStdout()
	prompt := func() { fmt.Fprint(out, "> ") }

	prompt()
	for in.Scan() {
		line := strings.TrimSpace(in.Text())
		switch strings.ToLower(line) {
		case "":
			prompt()
			continue
		case "exit", "quit":
			return nil
		}

		resp, err := a.pipeline.ProcessMessage(ctx, line)
		if err != nil {
			logger.Warn("message rejected", zap.Error(err))
			fmt.Fprintln(out, respond.MessageFailure)
			prompt()
			continue
		}

		fmt.Fprintln(out, resp.Message)
		if showIntent {
			fmt.Fprintf(out, "  (%s, %.3f)\n", resp.Intent, resp.Confidence)
		}
		prompt()
	}
	fmt.Fprintln(out)
	return in.Err()
}
