package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	deliverymocks "github.com/stacklok/feedrelay/internal/delivery/mocks"
	subsmocks "github.com/stacklok/feedrelay/internal/subscriptions/mocks"
)

type recordingResponder struct {
	responses []*discordgo.InteractionResponse
	err       error
}

func (r *recordingResponder) InteractionRespond(
	_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption,
) error {
	r.responses = append(r.responses, resp)
	return r.err
}

func command(name, channelID string) *discordgo.Interaction {
	return &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		ChannelID: channelID,
		Data:      discordgo.ApplicationCommandInteractionData{Name: name},
	}
}

func TestBot_HandleInteraction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		interaction   *discordgo.Interaction
		setup         func(r *subsmocks.MockRegistry)
		wantResponses int
		wantContent   string
		wantEphemeral bool
	}{
		{
			name:        "subscribe",
			interaction: command("subscribe", "c1"),
			setup: func(r *subsmocks.MockRegistry) {
				r.EXPECT().Add(gomock.Any(), "c1").Return(true, nil)
			},
			wantResponses: 1,
			wantContent:   "new posts will be posted in #general",
		},
		{
			name:        "store failure replies privately",
			interaction: command("unsubscribe", "c1"),
			setup: func(r *subsmocks.MockRegistry) {
				r.EXPECT().Remove(gomock.Any(), "c1").Return(false, errors.New("db down"))
			},
			wantResponses: 1,
			wantContent:   failedCommandReply,
			wantEphemeral: true,
		},
		{
			name:          "unknown command",
			interaction:   command("purge", "c1"),
			setup:         func(*subsmocks.MockRegistry) {},
			wantResponses: 1,
			wantContent:   "Unknown command.",
			wantEphemeral: true,
		},
		{
			name:          "non command interaction is ignored",
			interaction:   &discordgo.Interaction{Type: discordgo.InteractionPing},
			setup:         func(*subsmocks.MockRegistry) {},
			wantResponses: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			registry := subsmocks.NewMockRegistry(ctrl)
			tt.setup(registry)

			b := &Bot{commands: NewCommands(registry, fakeNamer{"c1": "general"})}
			responder := &recordingResponder{}

			b.handleInteraction(context.Background(), responder, tt.interaction)

			require.Len(t, responder.responses, tt.wantResponses)
			if tt.wantResponses == 0 {
				return
			}
			resp := responder.responses[0]
			assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, resp.Type)
			assert.Equal(t, tt.wantContent, resp.Data.Content)
			assert.Equal(t, tt.wantEphemeral, resp.Data.Flags&discordgo.MessageFlagsEphemeral != 0)
		})
	}
}

func TestBot_HandleMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		message  *discordgo.Message
		wantPong bool
	}{
		{
			name:     "ping",
			message:  &discordgo.Message{ChannelID: "c1", Content: "!ping", Author: &discordgo.User{ID: "u1"}},
			wantPong: true,
		},
		{
			name:    "other message",
			message: &discordgo.Message{ChannelID: "c1", Content: "hello", Author: &discordgo.User{ID: "u1"}},
		},
		{
			name:    "own message",
			message: &discordgo.Message{ChannelID: "c1", Content: "!ping", Author: &discordgo.User{ID: "bot"}},
		},
		{
			name:    "no author",
			message: &discordgo.Message{ChannelID: "c1", Content: "!ping"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			sink := deliverymocks.NewMockSink(ctrl)
			if tt.wantPong {
				sink.EXPECT().Send(gomock.Any(), "c1", PongReply).Return(nil)
			}

			b := &Bot{sink: sink}
			b.handleMessage(context.Background(), "bot", tt.message)
		})
	}
}

func TestNewSession(t *testing.T) {
	t.Parallel()

	session, err := NewSession("token")
	require.NoError(t, err)
	assert.Equal(t, "Bot token", session.Identify.Token)
	for _, intent := range []discordgo.Intent{
		discordgo.IntentsGuilds,
		discordgo.IntentsGuildMessages,
		discordgo.IntentsDirectMessages,
		discordgo.IntentMessageContent,
	} {
		assert.Equal(t, intent, session.Identify.Intents&intent, "missing intent %d", intent)
	}
}
