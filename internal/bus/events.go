package bus

import "fmt"

// InboundMessage represents a message received from any channel.
type InboundMessage struct {
	Channel            string            // source channel name (e.g. "telegram", "system")
	SenderID           string            // sender identifier
	ChatID             string            // chat/conversation identifier
	Content            string            // text content
	SessionKeyOverride string            // optional override for session routing
	Metadata           map[string]string // arbitrary metadata
}

// OutboundMessage represents a message to be sent to a channel.
type OutboundMessage struct {
	Channel  string            // target channel
	ChatID   string            // target chat
	Content  string            // text content
	Type     string            // "text", "progress", "error"
	Metadata map[string]string // arbitrary metadata
}

// SessionKey returns the routing key for session management.
// Uses SessionKeyOverride if set, otherwise "channel:chatID".
func (m InboundMessage) SessionKey() string {
	if m.SessionKeyOverride != "" {
		return m.SessionKeyOverride
	}
	return fmt.Sprintf("%s:%s", m.Channel, m.ChatID)
}
