// rate_ingestor collects exchange-rate snapshots on a fixed cadence, stores them as
// history and maintains daily aggregates.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/SscSPs/rate_ingestor/internal/app"
	"github.com/SscSPs/rate_ingestor/internal/platform/config"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

// @title Rate Ingestor Ops API
// @version 1.0
// @description Health, counters and manual triggers of the exchange-rate ingestion service.

// @host localhost:8080
// @BasePath /
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "rate_ingestor",
	Short:         "Exchange-rate ingestion service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.LogLevel = level
		}
		if driver, _ := cmd.Flags().GetString("storage"); driver != "" {
			cfg.StorageDriver = driver
		}

		logger = app.NewLogger(cfg.LogLevel)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("storage", "", "storage driver override (postgres, memory)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(onceCmd)
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(rollupCmd)
	rootCmd.AddCommand(latestCmd)
	rootCmd.AddCommand(migrateCmd)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// withApp builds the application, runs fn and always releases it.
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
