package channels

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nestcare/carebot/internal/bus"
	"github.com/nestcare/carebot/internal/config"
)

// Telegram caps messages at 4096 characters; job listings with URLs can
// run past that, so replies are split on listing boundaries.
const telegramMessageLimit = 4096

type TelegramChannel struct {
	bot     *tgbotapi.BotAPI
	bus     *bus.MessageBus
	allowed allowList
	stopCh  chan struct{}
}

func newTelegramChannel(cfg config.TelegramConfig, msgBus *bus.MessageBus) (Channel, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramChannel{
		bot:     bot,
		bus:     msgBus,
		allowed: newAllowList(cfg.AllowedUsers),
		stopCh:  make(chan struct{}),
	}, nil
}

func (c *TelegramChannel) Name() string { return "telegram" }

func (c *TelegramChannel) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message == nil {
					continue
				}
				senderID := strconv.FormatInt(update.Message.From.ID, 10)
				if !c.IsAllowed(senderID) {
					slog.Warn("telegram: message from disallowed user", "senderID", senderID)
					continue
				}
				chatID := strconv.FormatInt(update.Message.Chat.ID, 10)
				c.bus.PublishInbound(bus.InboundMessage{
					Channel:  "telegram",
					SenderID: senderID,
					ChatID:   chatID,
					Content:  update.Message.Text,
				})
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case <-c.stopCh:
				c.bot.StopReceivingUpdates()
				return
			}
		}
	}()
	return nil
}

func (c *TelegramChannel) Stop() error {
	close(c.stopCh)
	return nil
}

func (c *TelegramChannel) Send(msg bus.OutboundMessage) error {
	chatID, err := strconv.ParseInt(msg.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: invalid chatID %q: %w", msg.ChatID, err)
	}
	for _, chunk := range splitMessage(msg.Content, telegramMessageLimit) {
		m := tgbotapi.NewMessage(chatID, chunk)
		if _, err := c.bot.Send(m); err != nil {
			return err
		}
	}
	return nil
}

func (c *TelegramChannel) IsAllowed(senderID string) bool {
	return c.allowed.allows(senderID)
}
