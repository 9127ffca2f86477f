package channels

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nestcare/carebot/internal/bus"
	"github.com/nestcare/carebot/internal/config"
)

// Manager owns the set of active channels and routes outbound messages
// from the bus to the channel each reply belongs to.
type Manager struct {
	channels []Channel
	bus      *bus.MessageBus
	mu       sync.Mutex
}

func NewManager(msgBus *bus.MessageBus) *Manager {
	m := &Manager{bus: msgBus}
	m.setupOutboundDispatch()
	return m
}

// FromConfig builds a Manager with every channel that has credentials
// configured. Channels without a token are skipped, not errors.
func FromConfig(cfg *config.Config, msgBus *bus.MessageBus) (*Manager, error) {
	m := NewManager(msgBus)

	if cfg.Channels.Telegram.Token != "" {
		ch, err := newTelegramChannel(cfg.Channels.Telegram, msgBus)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		m.Add(ch)
	}
	if cfg.Channels.Discord.Token != "" {
		ch, err := newDiscordChannel(cfg.Channels.Discord, msgBus)
		if err != nil {
			return nil, fmt.Errorf("discord: %w", err)
		}
		m.Add(ch)
	}
	if cfg.Channels.Slack.BotToken != "" {
		ch, err := newSlackChannel(cfg.Channels.Slack, msgBus)
		if err != nil {
			return nil, fmt.Errorf("slack: %w", err)
		}
		m.Add(ch)
	}
	return m, nil
}

// Add registers a channel with the manager.
func (m *Manager) Add(ch Channel) {
	m.mu.Lock()
	m.channels = append(m.channels, ch)
	m.mu.Unlock()
}

// Names returns the names of all managed channels.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.channels))
	for i, ch := range m.channels {
		names[i] = ch.Name()
	}
	return names
}

// StartAll starts every managed channel.
func (m *Manager) StartAll(ctx context.Context) error {
	for _, ch := range m.snapshot() {
		if err := ch.Start(ctx); err != nil {
			return fmt.Errorf("failed to start channel %q: %w", ch.Name(), err)
		}
		slog.Info("channel started", "channel", ch.Name())
	}
	return nil
}

// StopAll stops every managed channel, returning the first error seen.
func (m *Manager) StopAll() error {
	var firstErr error
	for _, ch := range m.snapshot() {
		if err := ch.Stop(); err != nil {
			slog.Error("failed to stop channel", "channel", ch.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (m *Manager) snapshot() []Channel {
	m.mu.Lock()
	defer m.mu.Unlock()
	chs := make([]Channel, len(m.channels))
	copy(chs, m.channels)
	return chs
}

// setupOutboundDispatch subscribes to outbound messages and routes each to
// the channel it names. Progress messages are internal and never sent out.
func (m *Manager) setupOutboundDispatch() {
	m.bus.Subscribe("", func(msg bus.OutboundMessage) {
		if msg.Type == "progress" {
			return
		}
		for _, ch := range m.snapshot() {
			if ch.Name() == msg.Channel {
				if err := ch.Send(msg); err != nil {
					slog.Error("failed to send message", "channel", ch.Name(), "error", err)
				}
				return
			}
		}
	})
}
