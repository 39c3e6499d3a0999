package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/stacklok/feedrelay/internal/delivery"
)

const failedCommandReply = "Something went wrong, the subscription was not changed. Please try again later."

// gatewayIntents includes the privileged message content intent, which must
// also be enabled for the application in the Discord developer portal.
// Without it guild messages arrive with empty content and "!ping" goes
// unanswered.
const gatewayIntents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentMessageContent

// NewSession creates a Discord session for a bot token. The session is not
// connected until Bot.Open.
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = gatewayIntents
	return session, nil
}

type interactionResponder interface {
	InteractionRespond(
		interaction *discordgo.Interaction,
		resp *discordgo.InteractionResponse,
		options ...discordgo.RequestOption,
	) error
}

// Bot connects the commands to a Discord session
type Bot struct {
	session  *discordgo.Session
	commands *Commands
	sink     delivery.Sink
	guildID  string
}

// New creates a Bot. guildID limits command registration to one guild;
// empty registers the commands globally.
func New(session *discordgo.Session, commands *Commands, guildID string) *Bot {
	return &Bot{
		session:  session,
		commands: commands,
		sink:     delivery.NewDiscordSink(session),
		guildID:  guildID,
	}
}

// Open connects to the gateway and registers the slash commands
func (b *Bot) Open(ctx context.Context) error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onInteractionCreate)
	b.session.AddHandler(b.onMessageCreate)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}

	if _, err := b.session.ApplicationCommandBulkOverwrite(
		b.session.State.User.ID, b.guildID, b.commands.Definitions(), discordgo.WithContext(ctx),
	); err != nil {
		_ = b.session.Close()
		return fmt.Errorf("failed to register slash commands: %w", err)
	}

	slog.Info("Discord session opened", "guild", b.guildID)
	return nil
}

// Close disconnects from the gateway
func (b *Bot) Close() error {
	return b.session.Close()
}

func (*Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	slog.Info("Connected to Discord", "user", r.User.Username)
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.handleInteraction(context.Background(), s, i.Interaction)
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	selfID := ""
	if s.State != nil && s.State.User != nil {
		selfID = s.State.User.ID
	}
	b.handleMessage(context.Background(), selfID, m.Message)
}

func (b *Bot) handleInteraction(ctx context.Context, responder interactionResponder, i *discordgo.Interaction) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	data := &discordgo.InteractionResponseData{}

	reply, err := b.commands.Run(ctx, name, i.ChannelID)
	switch {
	case errors.Is(err, ErrUnknownCommand):
		slog.Warn("Unknown command", "command", name)
		data.Content = "Unknown command."
		data.Flags = discordgo.MessageFlagsEphemeral
	case err != nil:
		slog.Error("Command failed", "command", name, "channel", i.ChannelID, "error", err)
		data.Content = failedCommandReply
		data.Flags = discordgo.MessageFlagsEphemeral
	default:
		data.Content = reply
	}

	if err := responder.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}, discordgo.WithContext(ctx)); err != nil {
		slog.Error("Error responding to command", "command", name, "error", err)
	}
}

func (b *Bot) handleMessage(ctx context.Context, selfID string, m *discordgo.Message) {
	if m == nil || m.Author == nil || m.Author.ID == selfID {
		return
	}
	if !IsPing(m.Content) {
		return
	}
	if err := b.sink.Send(ctx, m.ChannelID, PongReply); err != nil {
		slog.Error("Error sending message", "channel", m.ChannelID, "error", err)
	}
}

// channelNamer looks channels up in the session state cache first
type channelNamer struct {
	session *discordgo.Session
}

// NewChannelNamer resolves channel names through a Discord session
func NewChannelNamer(session *discordgo.Session) ChannelNamer {
	return &channelNamer{session: session}
}

func (n *channelNamer) ChannelName(ctx context.Context, channelID string) (string, error) {
	if n.session.State != nil {
		if ch, err := n.session.State.Channel(channelID); err == nil {
			return ch.Name, nil
		}
	}
	ch, err := n.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to fetch channel %s: %w", channelID, err)
	}
	return ch.Name, nil
}
