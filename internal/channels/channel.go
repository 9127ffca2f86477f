package channels

import (
	"context"

	"github.com/nestcare/carebot/internal/bus"
)

// Channel is a chat platform the bot listens and replies on.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
	Send(msg bus.OutboundMessage) error
	IsAllowed(senderID string) bool
}

// allowList answers membership checks; an empty list allows everyone.
type allowList map[string]bool

func newAllowList(users []string) allowList {
	m := make(allowList, len(users))
	for _, u := range users {
		m[u] = true
	}
	return m
}

func (a allowList) allows(senderID string) bool {
	if len(a) == 0 {
		return true
	}
	return a[senderID]
}

// splitMessage breaks text into chunks of at most limit runes, preferring to
// split on newlines so individual job listings stay intact.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}
	var chunks []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}
