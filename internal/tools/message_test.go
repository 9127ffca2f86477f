package tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nestcare/carebot/internal/bus"
)

func TestSendMessageTool(t *testing.T) {
	mb := bus.NewMessageBus(10)
	tool := NewSendMessageTool(mb)

	params, _ := json.Marshal(map[string]any{
		"channel": "telegram",
		"chat_id": "42",
		"content": "3 new caregiver jobs in Austin",
	})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatal(err)
	}
	if result != "Message delivered to telegram:42" {
		t.Errorf("unexpected result: %s", result)
	}

	received := make(chan bus.OutboundMessage, 1)
	mb.Subscribe("telegram", func(msg bus.OutboundMessage) { received <- msg })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mb.DispatchOutbound(ctx)

	select {
	case msg := <-received:
		if msg.ChatID != "42" || msg.Content != "3 new caregiver jobs in Austin" {
			t.Errorf("unexpected outbound message: %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for outbound message")
	}
}

func TestSendMessageTool_MissingFields(t *testing.T) {
	tool := NewSendMessageTool(bus.NewMessageBus(1))
	params, _ := json.Marshal(map[string]any{"channel": "telegram"})
	if _, err := tool.Execute(context.Background(), params); err == nil {
		t.Fatal("expected error for missing fields")
	}
}

func TestManageSchedulesTool(t *testing.T) {
	tool := NewManageSchedulesTool(&stubScheduler{})

	params, _ := json.Marshal(map[string]any{
		"action":      "add",
		"schedule":    "09:00",
		"prompt":      "search for new caregiver jobs in Austin and message me",
		"session_key": "telegram:42",
	})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatal(err)
	}
	if result != "Scheduled task added: task_0" {
		t.Errorf("unexpected result: %s", result)
	}

	params, _ = json.Marshal(map[string]any{"action": "list"})
	if result, _ = tool.Execute(context.Background(), params); result != "no tasks" {
		t.Errorf("unexpected list result: %s", result)
	}

	params, _ = json.Marshal(map[string]any{"action": "bogus"})
	if _, err := tool.Execute(context.Background(), params); err == nil {
		t.Fatal("expected error for invalid action")
	}
}
