// Package bot exposes the subscription commands and the ping responder on
// Discord.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/stacklok/feedrelay/internal/config"
	"github.com/stacklok/feedrelay/internal/subscriptions"
	"github.com/stacklok/feedrelay/internal/telemetry"
)

const (
	pingPrefix = "!ping"

	// PongReply answers a ping message
	PongReply = "Pong!"
)

// ErrUnknownCommand is returned for a command name the bot does not serve
var ErrUnknownCommand = errors.New("unknown command")

// ChannelNamer resolves a channel ID to its display name
type ChannelNamer interface {
	ChannelName(ctx context.Context, channelID string) (string, error)
}

// Commands implements the subscription commands independently of the
// transport that delivers them.
type Commands struct {
	registry subscriptions.Registry
	namer    ChannelNamer
	names    config.CommandsConfig
	metrics  *telemetry.CommandMetrics
}

// CommandsOption configures Commands
type CommandsOption func(*Commands)

// WithCommandNames renames the slash commands
func WithCommandNames(names config.CommandsConfig) CommandsOption {
	return func(c *Commands) {
		c.names = names
	}
}

// WithCommandMetrics counts every handled command
func WithCommandMetrics(metrics *telemetry.CommandMetrics) CommandsOption {
	return func(c *Commands) {
		c.metrics = metrics
	}
}

// NewCommands creates the command handlers
func NewCommands(registry subscriptions.Registry, namer ChannelNamer, opts ...CommandsOption) *Commands {
	c := &Commands{
		registry: registry,
		namer:    namer,
		names:    config.DiscordConfig{}.GetCommands(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Definitions returns the slash commands to register with Discord
func (c *Commands) Definitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        c.names.Subscribe,
			Description: "Post new feed items in this channel",
		},
		{
			Name:        c.names.Unsubscribe,
			Description: "Stop posting new feed items in this channel",
		},
	}
}

// Run executes the named command for channelID and returns the reply text
func (c *Commands) Run(ctx context.Context, name, channelID string) (string, error) {
	var (
		reply string
		err   error
	)
	switch name {
	case c.names.Subscribe:
		reply, err = c.subscribe(ctx, channelID)
	case c.names.Unsubscribe:
		reply, err = c.unsubscribe(ctx, channelID)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}

	c.metrics.RecordCommand(ctx, name, err == nil)
	return reply, err
}

func (c *Commands) subscribe(ctx context.Context, channelID string) (string, error) {
	added, err := c.registry.Add(ctx, channelID)
	if err != nil {
		return "", fmt.Errorf("failed to subscribe channel %s: %w", channelID, err)
	}
	slog.Info("Channel subscribed", "channel", channelID, "added", added)
	return fmt.Sprintf("new posts will be posted in #%s", c.channelName(ctx, channelID)), nil
}

func (c *Commands) unsubscribe(ctx context.Context, channelID string) (string, error) {
	removed, err := c.registry.Remove(ctx, channelID)
	if err != nil {
		return "", fmt.Errorf("failed to unsubscribe channel %s: %w", channelID, err)
	}
	slog.Info("Channel unsubscribed", "channel", channelID, "removed", removed)
	return fmt.Sprintf("new posts will no longer be posted in #%s", c.channelName(ctx, channelID)), nil
}

// channelName falls back to the ID so a lookup failure never hides a
// completed subscription change.
func (c *Commands) channelName(ctx context.Context, channelID string) string {
	if c.namer == nil {
		return channelID
	}
	name, err := c.namer.ChannelName(ctx, channelID)
	if err != nil || name == "" {
		slog.Warn("Could not resolve channel name", "channel", channelID, "error", err)
		return channelID
	}
	return name
}

// IsPing reports whether a chat message asks for a liveness reply
func IsPing(content string) bool {
	return strings.HasPrefix(content, pingPrefix)
}
