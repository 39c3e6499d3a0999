// Package delivery sends rendered posts to chat destinations.
package delivery

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// DiscordMessageLimit is the longest message Discord accepts, in characters.
const DiscordMessageLimit = 2000

//go:generate mockgen -destination=mocks/mock_sink.go -package=mocks -source=sink.go Sink

// Sink delivers a text message to one destination.
type Sink interface {
	Send(ctx context.Context, destination, content string) error
}

// ChannelMessenger is the part of *discordgo.Session the Discord sink uses.
type ChannelMessenger interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordSink posts messages to Discord text channels.
type DiscordSink struct {
	messenger ChannelMessenger
}

var _ Sink = (*DiscordSink)(nil)

// NewDiscordSink creates a sink over an open Discord session.
func NewDiscordSink(messenger ChannelMessenger) *DiscordSink {
	return &DiscordSink{messenger: messenger}
}

// Send posts content to the channel destination.
func (d *DiscordSink) Send(ctx context.Context, destination, content string) error {
	if _, err := d.messenger.ChannelMessageSend(destination, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send message to channel %s: %w", destination, err)
	}
	return nil
}
