package app

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/feedrelay/internal/app/storage"
	"github.com/stacklok/feedrelay/internal/config"
	"github.com/stacklok/feedrelay/internal/sync/state"
)

func newCheckpointCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Inspect or seed the last relayed sequence",
	}

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Print the stored checkpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStorage(cmd.Context(), v, func(_ *config.Config, factory storage.Factory) error {
				checkpoints, err := factory.CreateCheckpointStore(cmd.Context())
				if err != nil {
					return err
				}
				sequence, err := checkpoints.Get(cmd.Context())
				if errors.Is(err, state.ErrCheckpointNotSeeded) {
					return fmt.Errorf("%w: run 'feedrelay checkpoint seed <sequence>'", err)
				}
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), sequence)
				return err
			})
		},
	}

	seedCmd := &cobra.Command{
		Use:   "seed <sequence>",
		Short: "Set the checkpoint before the first run",
		Long: `Set the checkpoint to the sequence of the newest post that must NOT be relayed.
The first cycle relays every post above it. An existing checkpoint is only
replaced with --force.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sequence, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid sequence %q: %w", args[0], err)
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}

			return withStorage(cmd.Context(), v, func(_ *config.Config, factory storage.Factory) error {
				checkpoints, err := factory.CreateCheckpointStore(cmd.Context())
				if err != nil {
					return err
				}
				if err := checkpoints.Seed(cmd.Context(), uint32(sequence), force); err != nil {
					return fmt.Errorf("failed to seed checkpoint: %w", err)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "checkpoint set to %d\n", sequence)
				return err
			})
		},
	}
	seedCmd.Flags().Bool("force", false, "Replace an existing checkpoint")

	cmd.AddCommand(getCmd, seedCmd)
	return cmd
}
