package bus

import (
	"context"
	"sync"
)

const defaultQueueDepth = 100

// MessageBus decouples the chat surfaces from the agent loop. Surfaces and
// the schedule service push inbound messages in; the loop consumes them and
// publishes replies, which DispatchOutbound fans out to whichever surface
// each reply names. A job alert scheduled for "every morning" travels the
// same inbound path as a typed telegram message.
type MessageBus struct {
	inbound  chan InboundMessage
	outbound chan OutboundMessage

	mu       sync.RWMutex
	handlers map[string][]func(OutboundMessage)
}

// NewMessageBus creates a bus whose queues hold depth messages each.
// Non-positive depth gets the default.
func NewMessageBus(depth int) *MessageBus {
	if depth <= 0 {
		depth = defaultQueueDepth
	}
	return &MessageBus{
		inbound:  make(chan InboundMessage, depth),
		outbound: make(chan OutboundMessage, depth),
		handlers: make(map[string][]func(OutboundMessage)),
	}
}

func (b *MessageBus) PublishInbound(msg InboundMessage) {
	b.inbound <- msg
}

func (b *MessageBus) PublishOutbound(msg OutboundMessage) {
	b.outbound <- msg
}

// ConsumeInbound blocks for the next inbound message. A closed bus reads
// as cancellation so the consuming loop winds down the same way either way.
func (b *MessageBus) ConsumeInbound(ctx context.Context) (InboundMessage, error) {
	select {
	case <-ctx.Done():
		return InboundMessage{}, ctx.Err()
	case msg, ok := <-b.inbound:
		if !ok {
			return InboundMessage{}, context.Canceled
		}
		return msg, nil
	}
}

// Subscribe registers fn for outbound messages addressed to channel.
// The empty string subscribes to every channel.
func (b *MessageBus) Subscribe(channel string, fn func(OutboundMessage)) {
	b.mu.Lock()
	b.handlers[channel] = append(b.handlers[channel], fn)
	b.mu.Unlock()
}

// DispatchOutbound pumps outbound messages to subscribers until ctx is
// cancelled or the bus is closed. Run it in its own goroutine.
func (b *MessageBus) DispatchOutbound(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-b.outbound:
			if !ok {
				return
			}
			b.mu.RLock()
			targeted := b.handlers[msg.Channel]
			wildcard := b.handlers[""]
			b.mu.RUnlock()
			for _, fn := range targeted {
				fn(msg)
			}
			for _, fn := range wildcard {
				fn(msg)
			}
		}
	}
}

// Close shuts both queues. Publishing after Close panics; consumers and the
// dispatcher return instead.
func (b *MessageBus) Close() {
	close(b.inbound)
	close(b.outbound)
}
