package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/feedrelay/internal/app"
	"github.com/stacklok/feedrelay/internal/telemetry"
	"github.com/stacklok/feedrelay/internal/versions"
)

const telemetryShutdownTimeout = 10 * time.Second

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the relay",
		Long: `Run the relay: connect to Discord, register the subscription commands and run
the sync cycle on the configured interval.

The checkpoint must be seeded first (feedrelay checkpoint seed). The process
exits non-zero when a cycle fails for good, so run it under a supervisor.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v)
		},
	}

	cmd.Flags().String("address", "", "Address for the health and status server (overrides http.address)")
	if err := v.BindPFlag("address", cmd.Flags().Lookup("address")); err != nil {
		slog.Error("Error binding address flag", "error", err)
	}

	return cmd
}

func runServe(parent context.Context, v *viper.Viper) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	if err := cfg.ValidateServe(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Telemetry != nil && cfg.Telemetry.ServiceVersion == "" {
		cfg.Telemetry.ServiceVersion = versions.GetVersionInfo().Version
	}
	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown telemetry", "error", err)
		}
	}()

	opts := []app.FeedRelayAppOptions{
		app.WithConfig(cfg),
		app.WithMeterProvider(tel.MeterProvider()),
		app.WithTracerProvider(tel.TracerProvider()),
	}
	if address := v.GetString("address"); address != "" {
		opts = append(opts, app.WithAddress(address))
	}
	if h := tel.MetricsHandler(); h != nil {
		opts = append(opts, app.WithMetricsHandler(h))
	}

	relay, err := app.NewFeedRelayApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to build relay: %w", err)
	}
	defer relay.Close()

	slog.Info("Starting feedrelay",
		"storage", cfg.GetStorageType(),
		"interval", cfg.Sync.GetInterval(),
		"pid", os.Getpid())

	return relay.Start(ctx)
}
