// Package main implements kbctl, an operator CLI for knowledge-base builds
// and one-off questions against the configured backends.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/app"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/config"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// configPath overrides CONFIG_PATH
	configPath string
	// outputJSON prints raw JSON instead of tables
	outputJSON bool
	// timeout bounds a whole command
	timeout time.Duration
	// version information
	version = "dev"
)

// operator is the identity kbctl acts as. It can manage every chatbot.
var operator = &domain.Requester{Role: domain.RequesterAdmin}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kbctl",
	Short: "Operate chatbot knowledge bases",
	Long: `kbctl builds and activates knowledge-base snapshots and asks chatbots
questions directly against the configured database, Redis and vector stores.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (defaults to CONFIG_PATH or ./configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output results as JSON")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Minute, "Command timeout")
}

// openApp loads configuration and assembles the application. Builds always
// run inline: a queued job would die with the process.
func openApp(ctx context.Context) (*app.App, error) {
	_ = godotenv.Load()
	if configPath != "" {
		if err := os.Setenv("CONFIG_PATH", configPath); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.KnowledgeBase.Async = false
	cfg.KnowledgeBase.BuildOnUpload = false
	if cfg.Logging.Level == "" || cfg.Logging.Level == "info" {
		cfg.Logging.Level = "warn"
	}
	cfg.Logging.Format = "console"
	if err := app.SetupLogger(cfg.Logging); err != nil {
		return nil, err
	}

	return app.New(ctx, cfg)
}

// withApp runs fn against a fresh application bounded by --timeout
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func parseID(kind, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q: %w", kind, raw, err)
	}
	return id, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
