// Package app provides the command tree of the feedrelay binary.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/feedrelay/internal/app/storage"
	"github.com/stacklok/feedrelay/internal/config"
)

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:               "feedrelay",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "Relay new feed posts to Discord channels",
		Long: `feedrelay periodically walks a paginated feed, posts every item newer than the
stored checkpoint to the subscribed Discord channels, stores the items and
advances the checkpoint.`,
		Run: func(cmd *cobra.Command, _ []string) {
			// If no subcommand is provided, print help
			if err := cmd.Help(); err != nil {
				slog.Error("Error displaying help", "error", err)
			}
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Path to configuration file (YAML format)")
	if err := v.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")); err != nil {
		slog.Error("Error binding config flag", "error", err)
	}
	if err := v.BindEnv("config", config.EnvPrefix+"_CONFIG"); err != nil {
		slog.Error("Error binding config env", "error", err)
	}

	rootCmd.AddCommand(
		newServeCmd(v),
		newWalkCmd(v),
		newCheckpointCmd(v),
		newSubscriptionsCmd(v),
		newVersionCmd(),
	)

	return rootCmd
}

// loadConfig reads the configuration file named by --config (or
// FEEDRELAY_CONFIG), if any, and applies environment overrides.
func loadConfig(v *viper.Viper) (*config.Config, error) {
	var opts []config.Option
	if path := v.GetString("config"); path != "" {
		opts = append(opts, config.WithConfigPath(path))
	}

	cfg, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// withStorage loads the configuration, opens the configured storage and
// hands both to fn. Storage is released when fn returns.
func withStorage(
	ctx context.Context,
	v *viper.Viper,
	fn func(cfg *config.Config, factory storage.Factory) error,
) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	factory, err := storage.NewStorageFactory(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer factory.Cleanup()

	return fn(cfg, factory)
}
