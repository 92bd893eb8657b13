package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"estuda/internal/cli/formatter"
	"estuda/internal/llm"
	"estuda/internal/tutor"

	"github.com/spf13/cobra"
)

func newChatCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "chat [question]",
		Short: "Ask the math tutor",
		Long: "Ask a single question, or start an interactive session when no " +
			"argument is given. The tutor keeps the conversation history for " +
			"followup questions.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Tutor == nil {
				return fmt.Errorf("the tutor needs an API key. Set ESTUDA_API_KEY to enable it")
			}

			ctx := context.Background()
			conv := &tutor.Conversation{}

			if len(args) == 1 {
				return askOnce(ctx, app, conv, args[0])
			}

			if app.IsInteractive != nil && !app.IsInteractive() {
				return fmt.Errorf("interactive chat requires a terminal; pass the question as an argument")
			}

			fmt.Println(formatter.StyleDim.Render("Pergunte algo de matemática. Ctrl+D ou \"sair\" para encerrar."))
			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print(formatter.StyleHeader.Render("você> "))
				if !scanner.Scan() {
					fmt.Println()
					return scanner.Err()
				}
				question := strings.TrimSpace(scanner.Text())
				if question == "" {
					continue
				}
				if question == "sair" || question == "exit" {
					return nil
				}
				if err := askOnce(ctx, app, conv, question); err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				}
			}
		},
	}
}

func askOnce(ctx context.Context, app *App, conv *tutor.Conversation, question string) error {
	next, segments, err := app.Tutor.Ask(ctx, conv, question)
	if err != nil {
		if errors.Is(err, llm.ErrMissingAPIKey) {
			return fmt.Errorf("the tutor needs an API key. Set ESTUDA_API_KEY to enable it")
		}
		if errors.Is(err, llm.ErrTimeout) {
			return fmt.Errorf("the tutor timed out: %w (raise ESTUDA_LLM_TIMEOUT_MS if this keeps happening)", err)
		}
		return err
	}
	*conv = *next
	fmt.Print(formatter.FormatSegments(segments))
	return nil
}
