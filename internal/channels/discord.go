package channels

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/nestcare/carebot/internal/bus"
	"github.com/nestcare/carebot/internal/config"
)

const discordMessageLimit = 2000

type DiscordChannel struct {
	session *discordgo.Session
	bus     *bus.MessageBus
	allowed allowList
}

func newDiscordChannel(cfg config.DiscordConfig, msgBus *bus.MessageBus) (Channel, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return &DiscordChannel{
		session: session,
		bus:     msgBus,
		allowed: newAllowList(cfg.AllowedUsers),
	}, nil
}

func (c *DiscordChannel) Name() string { return "discord" }

func (c *DiscordChannel) Start(ctx context.Context) error {
	c.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot {
			return
		}
		if !c.IsAllowed(m.Author.ID) {
			slog.Warn("discord: message from disallowed user", "userID", m.Author.ID)
			return
		}
		c.bus.PublishInbound(bus.InboundMessage{
			Channel:  "discord",
			SenderID: m.Author.ID,
			ChatID:   m.ChannelID,
			Content:  m.Content,
		})
	})
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("discord: failed to open websocket: %w", err)
	}
	return nil
}

func (c *DiscordChannel) Stop() error {
	return c.session.Close()
}

func (c *DiscordChannel) Send(msg bus.OutboundMessage) error {
	for _, chunk := range splitMessage(msg.Content, discordMessageLimit) {
		if _, err := c.session.ChannelMessageSend(msg.ChatID, chunk); err != nil {
			return fmt.Errorf("discord: failed to send message: %w", err)
		}
	}
	return nil
}

func (c *DiscordChannel) IsAllowed(senderID string) bool {
	return c.allowed.allows(senderID)
}
