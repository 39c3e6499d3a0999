package app

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/feedrelay/internal/app/storage"
	"github.com/stacklok/feedrelay/internal/config"
)

func newSubscriptionsCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subscriptions",
		Aliases: []string{"subs"},
		Short:   "Manage the channels new posts are relayed to",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List subscribed channels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStorage(cmd.Context(), v, func(_ *config.Config, factory storage.Factory) error {
				registry, err := factory.CreateRegistry(cmd.Context())
				if err != nil {
					return err
				}
				ids, err := registry.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to list subscriptions: %w", err)
				}

				table := tablewriter.NewWriter(cmd.OutOrStdout())
				table.Header("#", "Channel ID")
				for i, id := range ids {
					if err := table.Append(fmt.Sprint(i+1), id); err != nil {
						return err
					}
				}
				return table.Render()
			})
		},
	}

	addCmd := &cobra.Command{
		Use:   "add <channel-id>",
		Short: "Subscribe a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(cmd.Context(), v, func(_ *config.Config, factory storage.Factory) error {
				registry, err := factory.CreateRegistry(cmd.Context())
				if err != nil {
					return err
				}
				added, err := registry.Add(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("failed to add subscription: %w", err)
				}
				msg := "subscribed %s\n"
				if !added {
					msg = "%s is already subscribed\n"
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), msg, args[0])
				return err
			})
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <channel-id>",
		Short: "Unsubscribe a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(cmd.Context(), v, func(_ *config.Config, factory storage.Factory) error {
				registry, err := factory.CreateRegistry(cmd.Context())
				if err != nil {
					return err
				}
				removed, err := registry.Remove(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("failed to remove subscription: %w", err)
				}
				msg := "unsubscribed %s\n"
				if !removed {
					msg = "%s was not subscribed\n"
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), msg, args[0])
				return err
			})
		},
	}

	cmd.AddCommand(listCmd, addCmd, removeCmd)
	return cmd
}
