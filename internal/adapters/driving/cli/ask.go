package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brightlyhq/brightly/internal/logger"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the assistant a question",
	Long: `Asks the assistant a single question, or starts an
interactive session when no question is given. Type "exit" to leave
the interactive session.`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := assistant.Init(ctx, false); err != nil {
		logger.Warn("startup refresh failed: %v", err)
	}

	if len(args) > 0 {
		question := strings.Join(args, " ")
		reply, err := assistant.Ask(ctx, question)
		if err != nil {
			return fmt.Errorf("ask failed: %w", err)
		}
		cmd.Println(reply.Answer)
		return nil
	}

	cmd.Println("Brightly is ready. Type a question, or \"exit\" to quit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			break
		}

		reply, err := assistant.Ask(ctx, question)
		if err != nil {
			cmd.Printf("Error: %v\n", err)
			continue
		}
		cmd.Println(reply.Answer)
	}

	return scanner.Err()
}
