package channels

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nestcare/carebot/internal/bus"
	"github.com/nestcare/carebot/internal/config"
)

// stubChannel records sends for assertions.
type stubChannel struct {
	name    string
	mu      sync.Mutex
	sent    []bus.OutboundMessage
	started bool
	stopped bool
}

func (s *stubChannel) Name() string { return s.name }

func (s *stubChannel) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
	return nil
}

func (s *stubChannel) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return nil
}

func (s *stubChannel) Send(msg bus.OutboundMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func (s *stubChannel) IsAllowed(string) bool { return true }

func (s *stubChannel) sentMessages() []bus.OutboundMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]bus.OutboundMessage, len(s.sent))
	copy(out, s.sent)
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestOutboundRoutedToMatchingChannel(t *testing.T) {
	msgBus := bus.NewMessageBus(8)
	m := NewManager(msgBus)
	tg := &stubChannel{name: "telegram"}
	dc := &stubChannel{name: "discord"}
	m.Add(tg)
	m.Add(dc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go msgBus.DispatchOutbound(ctx)

	msgBus.PublishOutbound(bus.OutboundMessage{
		Channel: "telegram",
		ChatID:  "42",
		Content: "3 caregiver jobs near Austin",
		Type:    "text",
	})

	waitFor(t, func() bool { return len(tg.sentMessages()) == 1 })
	if got := tg.sentMessages()[0].Content; got != "3 caregiver jobs near Austin" {
		t.Errorf("content = %q", got)
	}
	if len(dc.sentMessages()) != 0 {
		t.Error("discord channel should not receive telegram traffic")
	}
}

func TestProgressMessagesNotDispatched(t *testing.T) {
	msgBus := bus.NewMessageBus(8)
	m := NewManager(msgBus)
	tg := &stubChannel{name: "telegram"}
	m.Add(tg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go msgBus.DispatchOutbound(ctx)

	msgBus.PublishOutbound(bus.OutboundMessage{Channel: "telegram", Type: "progress", Content: "searching..."})
	msgBus.PublishOutbound(bus.OutboundMessage{Channel: "telegram", Type: "text", Content: "done"})

	waitFor(t, func() bool { return len(tg.sentMessages()) == 1 })
	if got := tg.sentMessages()[0].Content; got != "done" {
		t.Errorf("got %q, progress message should have been suppressed", got)
	}
}

func TestStartAllStopAll(t *testing.T) {
	m := NewManager(bus.NewMessageBus(1))
	a := &stubChannel{name: "a"}
	b := &stubChannel{name: "b"}
	m.Add(a)
	m.Add(b)

	if err := m.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	if !a.started || !b.started {
		t.Error("all channels should be started")
	}
	if err := m.StopAll(); err != nil {
		t.Fatalf("StopAll: %v", err)
	}
	if !a.stopped || !b.stopped {
		t.Error("all channels should be stopped")
	}
}

func TestFromConfigSkipsUnconfigured(t *testing.T) {
	cfg := config.DefaultConfig()
	m, err := FromConfig(cfg, bus.NewMessageBus(1))
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if names := m.Names(); len(names) != 0 {
		t.Errorf("no tokens configured, got channels %v", names)
	}
}
