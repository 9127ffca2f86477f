package channels

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/nestcare/carebot/internal/bus"
	"github.com/nestcare/carebot/internal/config"
)

const slackMessageLimit = 4000

// SlackChannel connects via socket mode so no public webhook is needed.
type SlackChannel struct {
	client       *slack.Client
	socketClient *socketmode.Client
	bus          *bus.MessageBus
	allowed      allowList
}

func newSlackChannel(cfg config.SlackConfig, msgBus *bus.MessageBus) (Channel, error) {
	client := slack.New(cfg.BotToken, slack.OptionAppLevelToken(cfg.AppToken))
	return &SlackChannel{
		client:       client,
		socketClient: socketmode.New(client),
		bus:          msgBus,
		allowed:      newAllowList(cfg.AllowedUsers),
	}, nil
}

func (c *SlackChannel) Name() string { return "slack" }

func (c *SlackChannel) Start(ctx context.Context) error {
	go func() {
		for evt := range c.socketClient.Events {
			if evt.Type != socketmode.EventTypeEventsAPI {
				if evt.Request != nil {
					c.socketClient.Ack(*evt.Request)
				}
				continue
			}
			eventsAPI, ok := evt.Data.(slackevents.EventsAPIEvent)
			if !ok {
				c.socketClient.Ack(*evt.Request)
				continue
			}
			c.socketClient.Ack(*evt.Request)
			if eventsAPI.Type != slackevents.CallbackEvent {
				continue
			}
			inner, ok := eventsAPI.InnerEvent.Data.(*slackevents.MessageEvent)
			if !ok {
				continue
			}
			if inner.BotID != "" {
				continue
			}
			if !c.IsAllowed(inner.User) {
				slog.Warn("slack: message from disallowed user", "user", inner.User)
				continue
			}
			c.bus.PublishInbound(bus.InboundMessage{
				Channel:  "slack",
				SenderID: inner.User,
				ChatID:   inner.Channel,
				Content:  inner.Text,
			})
		}
	}()
	go func() {
		if err := c.socketClient.RunContext(ctx); err != nil && ctx.Err() == nil {
			slog.Error("slack: socket mode stopped", "error", err)
		}
	}()
	return nil
}

func (c *SlackChannel) Stop() error { return nil }

func (c *SlackChannel) Send(msg bus.OutboundMessage) error {
	for _, chunk := range splitMessage(msg.Content, slackMessageLimit) {
		if _, _, err := c.client.PostMessage(msg.ChatID, slack.MsgOptionText(chunk, false)); err != nil {
			return fmt.Errorf("slack: post message: %w", err)
		}
	}
	return nil
}

func (c *SlackChannel) IsAllowed(senderID string) bool {
	return c.allowed.allows(senderID)
}
