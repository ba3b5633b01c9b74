package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Freeeeeet/booking_bot/internal/app"
	"github.com/Freeeeeet/booking_bot/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "booking-api",
		Short:        "Booking API: users, slots and bookings over HTTP",
		SilenceUsage: true,
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newGenerateSlotsCmd())

	return cmd
}

// withApp загружает конфиг, логгер и приложение, применяет схему и вызывает fn
func withApp(ctx context.Context, fn func(a *app.App, cfg *config.Config, logger *zap.Logger) error) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	if !cfg.EnvFileLoaded {
		logger.Debug("No .env file found, using environment variables")
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application", zap.Error(err))
		return err
	}
	defer a.Close()

	if err := a.Migrate(ctx); err != nil {
		logger.Error("Failed to apply migrations", zap.Error(err))
		return err
	}

	return fn(a, cfg, logger)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Apply the schema and start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app.App, cfg *config.Config, logger *zap.Logger) error {
				logger.Info("Starting booking API",
					zap.String("environment", cfg.Environment),
					zap.String("addr", cfg.HTTP.Addr),
					zap.Bool("slot_autogenerate", cfg.Slots.AutoGenerate))

				if err := a.Serve(cmd.Context()); err != nil {
					logger.Error("Server stopped with error", zap.Error(err))
					return err
				}

				logger.Info("Booking API stopped")
				return nil
			})
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(_ *app.App, _ *config.Config, logger *zap.Logger) error {
				logger.Info("Schema is up to date")
				return nil
			})
		},
	}
}

func newGenerateSlotsCmd() *cobra.Command {
	var (
		days  int
		times string
	)

	cmd := &cobra.Command{
		Use:   "generate-slots",
		Short: "Open admin slots for the coming days, skipping weekends and existing slots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app.App, cfg *config.Config, _ *zap.Logger) error {
				if days == 0 {
					days = cfg.Slots.DaysAhead
				}

				var slotTimes []string
				for _, t := range strings.Split(times, ",") {
					if t = strings.TrimSpace(t); t != "" {
						slotTimes = append(slotTimes, t)
					}
				}

				result, err := a.Bookings().GenerateSlots(cmd.Context(), days, slotTimes)
				if err != nil {
					return err
				}

				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			})
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "number of days ahead, starting today (default SLOT_DAYS_AHEAD)")
	cmd.Flags().StringVar(&times, "times", "", "comma separated HH:MM times (default SLOT_TIMES)")

	return cmd
}
