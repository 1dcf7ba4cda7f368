package cli

import (
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vietddude/relay/internal/client/gemini"
)

var generateCmd = &cobra.Command{
	Use:   "generate PROMPT",
	Short: "Generate text with the configured Gemini model",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := gemini.New(gemini.Config{
		Endpoint: cfg.Gemini.Endpoint,
		Model:    cfg.Gemini.Model,
		APIKey:   cfg.Gemini.APIKey,
		Timeout:  cfg.Gemini.Timeout,
		Policy:   cfg.Gemini.Retry,
	}, slog.Default())

	text, err := client.Generate(ctx, strings.Join(args, " "))
	if err != nil {
		slog.Error("Generation failed", "model", cfg.Gemini.Model, "error", err)
		return err
	}

	fmt.Println(text)
	return nil
}
