package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nestcare/carebot/internal/bus"
)

// SendMessageTool is how scheduled searches reach the user: when a task
// fires and the model finds new postings, it pushes the alert to the chat
// surface the task was created from.
type SendMessageTool struct {
	bus *bus.MessageBus
}

func NewSendMessageTool(msgBus *bus.MessageBus) *SendMessageTool {
	return &SendMessageTool{bus: msgBus}
}

func (t *SendMessageTool) Name() string { return "send_message" }

func (t *SendMessageTool) Description() string {
	return "Deliver a message to a chat, e.g. a job alert from a scheduled search"
}

func (t *SendMessageTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"channel": {"type": "string", "description": "Target surface: telegram, discord, or slack"},
			"chat_id": {"type": "string", "description": "Target chat ID on that surface"},
			"content": {"type": "string", "description": "Message text"}
		},
		"required": ["channel", "chat_id", "content"]
	}`)
}

func (t *SendMessageTool) Execute(_ context.Context, params json.RawMessage) (string, error) {
	var p struct {
		Channel string `json:"channel"`
		ChatID  string `json:"chat_id"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return "", fmt.Errorf("invalid parameters: %w", err)
	}
	if p.Channel == "" || p.ChatID == "" || p.Content == "" {
		return "", fmt.Errorf("channel, chat_id, and content are required")
	}

	t.bus.PublishOutbound(bus.OutboundMessage{
		Channel:  p.Channel,
		ChatID:   p.ChatID,
		Content:  p.Content,
		Type:     "text",
		Metadata: map[string]string{"source": "send_message"},
	})
	return fmt.Sprintf("Message delivered to %s:%s", p.Channel, p.ChatID), nil
}
