package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/relay/internal/core/config"
	"github.com/vietddude/relay/internal/infra/health"
)

var (
	cfgPath     string
	isDebug     bool
	metricsPort int

	cfg          *config.AppConfig
	healthServer *health.Server
)

var rootCmd = &cobra.Command{
	Use:               "relay",
	Short:             "Relay request executor",
	Long:              `Relay runs backend API and content generation calls with timeouts, bounded retries and error classification.`,
	SilenceUsage:      true,
	PersistentPostRun: teardown,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Assigned here rather than in the literal: setup reads rootCmd's flags.
	rootCmd.PersistentPreRunE = setup
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().IntVar(&metricsPort, "metrics-port", 0, "serve /health and /metrics on this port (0 = use config)")
}

func setup(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	loaded, err := loadConfig()
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		return err
	}
	cfg = loaded

	slogLevel := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}

	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})

	port := cfg.Server.Port
	if metricsPort != 0 {
		port = metricsPort
	}
	if port > 0 {
		healthServer = health.NewServer(port)
		go func() {
			if err := healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Health server stopped", "error", err)
			}
		}()
		slog.Debug("Health server started", "port", port)
	}
	return nil
}

// loadConfig falls back to defaults only when the default path is missing.
func loadConfig() (*config.AppConfig, error) {
	loaded, err := config.Load(cfgPath)
	if err == nil {
		return loaded, nil
	}
	if !rootCmd.PersistentFlags().Changed("config") && errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return nil, err
}

func teardown(cmd *cobra.Command, args []string) {
	if healthServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := healthServer.Stop(ctx); err != nil {
		slog.Error("Error during shutdown", "error", err)
	}
}

// registerCheck adds a dependency check when the health server is running.
func registerCheck(name string, check health.Check) {
	if healthServer != nil {
		healthServer.Register(name, check)
	}
}
