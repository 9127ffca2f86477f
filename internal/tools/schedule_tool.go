package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// ScheduleManager is implemented by the schedule service. The indirection
// keeps this package free of a schedule import cycle.
type ScheduleManager interface {
	AddTask(schedule, prompt, sessionKey string) (string, error)
	RemoveTask(id string) error
	ListTasks() string
}

// ManageSchedulesTool lets the model set up recurring prompts, e.g. a daily
// "search for new caregiver jobs in Austin and message me" task.
type ManageSchedulesTool struct {
	manager ScheduleManager
}

func NewManageSchedulesTool(manager ScheduleManager) *ManageSchedulesTool {
	return &ManageSchedulesTool{manager: manager}
}

func (t *ManageSchedulesTool) Name() string { return "manage_schedules" }
func (t *ManageSchedulesTool) Description() string {
	return "Add, remove, or list scheduled recurring prompts such as daily job alerts"
}
func (t *ManageSchedulesTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"action": {
				"type": "string",
				"enum": ["add", "remove", "list"],
				"description": "Action to perform"
			},
			"schedule": {
				"type": "string",
				"description": "Cron expression, interval (e.g. 12h), or time (e.g. 09:00) for add"
			},
			"prompt": {
				"type": "string",
				"description": "Prompt to run when the task fires (for add)"
			},
			"session_key": {
				"type": "string",
				"description": "Target session (for add)"
			},
			"task_id": {
				"type": "string",
				"description": "Task ID (for remove)"
			}
		},
		"required": ["action"]
	}`)
}

func (t *ManageSchedulesTool) Execute(_ context.Context, params json.RawMessage) (string, error) {
	var p struct {
		Action     string `json:"action"`
		Schedule   string `json:"schedule"`
		Prompt     string `json:"prompt"`
		SessionKey string `json:"session_key"`
		TaskID     string `json:"task_id"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return "", fmt.Errorf("invalid parameters: %w", err)
	}

	switch p.Action {
	case "add":
		if p.Schedule == "" || p.Prompt == "" || p.SessionKey == "" {
			return "", fmt.Errorf("schedule, prompt, and session_key are required for add action")
		}
		id, err := t.manager.AddTask(p.Schedule, p.Prompt, p.SessionKey)
		if err != nil {
			return "", fmt.Errorf("failed to add task: %w", err)
		}
		return fmt.Sprintf("Scheduled task added: %s", id), nil

	case "remove":
		if p.TaskID == "" {
			return "", fmt.Errorf("task_id is required for remove action")
		}
		if err := t.manager.RemoveTask(p.TaskID); err != nil {
			return "", fmt.Errorf("failed to remove task: %w", err)
		}
		return fmt.Sprintf("Scheduled task removed: %s", p.TaskID), nil

	case "list":
		return t.manager.ListTasks(), nil

	default:
		return "", fmt.Errorf("invalid action: %s (must be add, remove, or list)", p.Action)
	}
}
