package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/SscSPs/rate_ingestor/internal/app"
	"github.com/SscSPs/rate_ingestor/internal/core/domain"
	portssvc "github.com/SscSPs/rate_ingestor/internal/core/ports/services"
	"github.com/SscSPs/rate_ingestor/internal/dto"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

// --- Run Command ---

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduler and the ops API until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			err := a.Run(ctx)
			logger.Info("Shutting down", slog.Duration("grace", cfg.ShutdownGrace))
			return err
		})
	},
}

// --- Once Command ---

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single collection cycle and print the batch reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			reports, err := a.Scheduler.RunCollection(ctx)
			if printErr := printJSON(dto.ToCollectResponse(reports)); printErr != nil {
				return printErr
			}
			return err
		})
	},
}

// --- Aggregate Command ---

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Recompute daily aggregates for one UTC date (default: yesterday)",
	RunE: func(cmd *cobra.Command, args []string) error {
		date := domain.TradeDate(time.Now()).AddDate(0, 0, -1)
		if raw, _ := cmd.Flags().GetString("date"); raw != "" {
			parsed, err := time.Parse(dateLayout, raw)
			if err != nil {
				return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", raw)
			}
			date = parsed
		}

		return withApp(func(ctx context.Context, a *app.App) error {
			rows, err := a.Scheduler.RunAggregation(ctx, date)
			if err != nil {
				return err
			}
			return printJSON(dto.MaintenanceResponse{Job: "aggregate", RowsAffected: rows, TradeDate: &date})
		})
	},
}

// --- Cleanup Command ---

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete history older than the retention period",
	RunE: func(cmd *cobra.Command, args []string) error {
		retention := cfg.Retention()
		if days, _ := cmd.Flags().GetInt("retention-days"); days > 0 {
			retention = time.Duration(days) * 24 * time.Hour
		}

		return withApp(func(ctx context.Context, a *app.App) error {
			rows, err := a.Scheduler.RunCleanup(ctx, retention)
			if err != nil {
				return err
			}
			cutoff := time.Now().UTC().Add(-retention)
			return printJSON(dto.MaintenanceResponse{Job: "cleanup", RowsAffected: rows, Cutoff: &cutoff})
		})
	},
}

// --- Rollup Command ---

var rollupCmd = &cobra.Command{
	Use:   "rollup [currency]",
	Short: "Print weekly or monthly rollups of stored daily aggregates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code := domain.NormalizeCurrencyCode(args[0])
		period, _ := cmd.Flags().GetString("period")
		fromRaw, _ := cmd.Flags().GetString("from")
		toRaw, _ := cmd.Flags().GetString("to")

		to := domain.TradeDate(time.Now())
		if toRaw != "" {
			parsed, err := time.Parse(dateLayout, toRaw)
			if err != nil {
				return fmt.Errorf("invalid --to %q: want YYYY-MM-DD", toRaw)
			}
			to = parsed
		}
		from := to.AddDate(0, -3, 0)
		if fromRaw != "" {
			parsed, err := time.Parse(dateLayout, fromRaw)
			if err != nil {
				return fmt.Errorf("invalid --from %q: want YYYY-MM-DD", fromRaw)
			}
			from = parsed
		}

		return withApp(func(ctx context.Context, a *app.App) error {
			periods, err := a.Services.Maintenance.Rollup(ctx, code, from, to, portssvc.RollupPeriod(period))
			if err != nil {
				return err
			}
			return printJSON(periods)
		})
	},
}

// --- Latest Command ---

var latestCmd = &cobra.Command{
	Use:   "latest [currency]",
	Short: "Print the most recent stored rate for a currency",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code := domain.NormalizeCurrencyCode(args[0])
		return withApp(func(ctx context.Context, a *app.App) error {
			rate, err := a.Services.History.FindLatest(ctx, code)
			if err != nil {
				return err
			}
			return printJSON(rate)
		})
	},
}

// --- Migrate Command ---

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Migrate(cfg, logger)
	},
}

func init() {
	aggregateCmd.Flags().String("date", "", "trade date (YYYY-MM-DD, UTC)")
	cleanupCmd.Flags().Int("retention-days", 0, "override RETENTION_DAYS")
	rollupCmd.Flags().String("period", string(portssvc.RollupWeek), "rollup period (week, month)")
	rollupCmd.Flags().String("from", "", "first trade date (default: three months before --to)")
	rollupCmd.Flags().String("to", "", "last trade date (default: today)")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
