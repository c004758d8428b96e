package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/app"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/spf13/cobra"
)

var askShowSources bool

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&askShowSources, "sources", false, "Print the retrieved context sources")
}

var askCmd = &cobra.Command{
	Use:   "ask <chatbot-id> <question...>",
	Short: "Ask a chatbot a single question",
	Long: `Ask answers one question from the chatbot's active snapshot. Nothing is
stored.

Examples:
  kbctl ask 6f1c8a52-0d7e-4c1b-9a53-0b8d8e2f4a11 "What are your opening hours?"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	chatbotID, err := parseID("chatbot", args[0])
	if err != nil {
		return err
	}
	question := strings.Join(args[1:], " ")

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		answer, err := a.Services.Chat.Ask(ctx, nil, chatbotID, domain.AskRequest{Question: question})
		if err != nil {
			return err
		}
		if outputJSON {
			return printJSON(answer)
		}

		fmt.Println(answer.Answer)
		if answer.Degraded {
			fmt.Println("\n(answered without knowledge-base context: retrieval failed)")
		}
		if askShowSources {
			fmt.Println()
			for _, src := range answer.Sources {
				fmt.Printf("- %s #%d (%.3f)\n", sourceTitle(src), src.ChunkIndex, src.Score)
			}
		}
		return nil
	})
}

func sourceTitle(src domain.Source) string {
	if src.Title != "" {
		return src.Title
	}
	return src.DocumentID
}
