package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/feedrelay/internal/app"
	"github.com/stacklok/feedrelay/internal/app/storage"
	"github.com/stacklok/feedrelay/internal/config"
	"github.com/stacklok/feedrelay/internal/delivery"
	"github.com/stacklok/feedrelay/internal/feed"
	pkgsync "github.com/stacklok/feedrelay/internal/sync"
)

func newWalkCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "walk",
		Short: "Walk the feed once and print what would be relayed",
		Long: `Walk the feed once and print the items at or above the boundary, oldest first.
Nothing is delivered or stored and the checkpoint is left untouched.

Without --boundary the stored checkpoint + 1 is used, as a sync cycle would.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			boundary, err := cmd.Flags().GetUint32("boundary")
			if err != nil {
				return err
			}
			messages, err := cmd.Flags().GetBool("messages")
			if err != nil {
				return err
			}

			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("boundary") {
				if boundary, err = boundaryFromCheckpoint(cmd.Context(), v); err != nil {
					return err
				}
			}

			w, err := app.NewFeedWalker(cfg, nil)
			if err != nil {
				return err
			}
			items, err := w.Walk(cmd.Context(), boundary)
			if err != nil {
				return fmt.Errorf("walk failed: %w", err)
			}

			return printItems(cmd, feed.Ascending(items), messages)
		},
	}

	cmd.Flags().Uint32("boundary", 0, "Lowest sequence to collect, 0 collects the whole feed (default: checkpoint + 1)")
	cmd.Flags().Bool("messages", false, "Print the rendered messages instead of a table")
	return cmd
}

func boundaryFromCheckpoint(ctx context.Context, v *viper.Viper) (uint32, error) {
	var boundary uint32
	err := withStorage(ctx, v, func(_ *config.Config, factory storage.Factory) error {
		checkpoints, err := factory.CreateCheckpointStore(ctx)
		if err != nil {
			return err
		}
		checkpoint, err := checkpoints.Get(ctx)
		if err != nil {
			return fmt.Errorf("failed to read checkpoint (or pass --boundary): %w", err)
		}
		if checkpoint == math.MaxUint32 {
			return pkgsync.ErrCheckpointExhausted
		}
		boundary = checkpoint + 1
		return nil
	})
	return boundary, err
}

func printItems(cmd *cobra.Command, items []feed.Item, messages bool) error {
	out := cmd.OutOrStdout()
	if messages {
		for _, item := range items {
			if _, err := fmt.Fprintf(out, "%s\n\n", feed.RenderMessage(item, delivery.DiscordMessageLimit)); err != nil {
				return err
			}
		}
		return nil
	}

	table := tablewriter.NewWriter(out)
	table.Header("Sequence", "Published", "Permalink")
	for _, item := range items {
		if err := table.Append(
			fmt.Sprint(item.Sequence),
			item.PublishedAt.UTC().Format(time.RFC3339),
			item.Permalink,
		); err != nil {
			return err
		}
	}
	return table.Render()
}
