package schedule

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nestcare/carebot/internal/bus"
)

// Task is a recurring prompt, typically a saved job search the user wants
// re-run on a schedule ("search for caregiver jobs in Denver every morning").
type Task struct {
	ID         string    `json:"id"`
	Schedule   string    `json:"schedule"` // cron expr, duration, or HH:MM
	Prompt     string    `json:"prompt"`
	SessionKey string    `json:"sessionKey"`
	CreatedAt  time.Time `json:"createdAt"`
}

// taskStore is the on-disk JSON shape.
type taskStore struct {
	Tasks []Task `json:"tasks"`
}

// Service runs scheduled tasks by publishing their prompts back onto the
// bus as system messages, so they flow through the agent like user input.
type Service struct {
	scheduler *cron.Cron
	bus       *bus.MessageBus
	storePath string
	entries   map[string]cron.EntryID
	tasks     map[string]Task
	mu        sync.Mutex
	counter   int
}

func NewService(storePath string, msgBus *bus.MessageBus) *Service {
	return &Service{
		scheduler: cron.New(),
		bus:       msgBus,
		storePath: storePath,
		entries:   make(map[string]cron.EntryID),
		tasks:     make(map[string]Task),
	}
}

// Start begins the scheduler.
func (s *Service) Start() {
	s.scheduler.Start()
}

// Stop stops the scheduler.
func (s *Service) Stop() {
	s.scheduler.Stop()
}

// AddTask registers a recurring task and returns its ID. The schedule may be
// a cron expression ("0 8 * * *"), a duration ("30m"), or a daily time ("08:00").
func (s *Service) AddTask(schedule, prompt, sessionKey string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := Task{
		ID:         fmt.Sprintf("task_%d", s.counter),
		Schedule:   schedule,
		Prompt:     prompt,
		SessionKey: sessionKey,
		CreatedAt:  time.Now(),
	}
	if err := s.register(task); err != nil {
		return "", err
	}
	s.counter++

	if err := s.saveToDisk(); err != nil {
		slog.Warn("failed to persist scheduled tasks", "error", err)
	}

	return task.ID, nil
}

// register installs a task into the scheduler under its own ID.
// Caller must hold s.mu.
func (s *Service) register(task Task) error {
	cronExpr, err := toCronExpr(task.Schedule)
	if err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}

	id := task.ID
	prompt := task.Prompt
	sessionKey := task.SessionKey
	entryID, err := s.scheduler.AddFunc(cronExpr, func() {
		slog.Info("running scheduled task", "id", id)
		s.bus.PublishInbound(bus.InboundMessage{
			Channel:            "system",
			Content:            prompt,
			SessionKeyOverride: sessionKey,
			Metadata:           map[string]string{"source": "schedule", "task_id": id},
		})
	})
	if err != nil {
		return fmt.Errorf("failed to register task: %w", err)
	}

	s.entries[task.ID] = entryID
	s.tasks[task.ID] = task
	return nil
}

// RemoveTask removes a task by ID.
func (s *Service) RemoveTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("task %q not found", id)
	}

	s.scheduler.Remove(entryID)
	delete(s.entries, id)
	delete(s.tasks, id)

	if err := s.saveToDisk(); err != nil {
		slog.Warn("failed to persist scheduled tasks after removal", "error", err)
	}

	return nil
}

// ListTasks returns a human-readable listing for the assistant to relay.
func (s *Service) ListTasks() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.tasks) == 0 {
		return "No scheduled tasks."
	}

	tasks := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })

	var b strings.Builder
	for _, t := range tasks {
		fmt.Fprintf(&b, "%s: %q (%s)\n", t.ID, t.Prompt, t.Schedule)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Tasks returns a snapshot of all registered tasks.
func (s *Service) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		result = append(result, t)
	}
	return result
}

// LoadFromDisk loads persisted tasks and re-registers them under their
// stored IDs, so an ID a user saw before a restart keeps working.
func (s *Service) LoadFromDisk() error {
	data, err := os.ReadFile(s.storePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read task store: %w", err)
	}

	var store taskStore
	if err := json.Unmarshal(data, &store); err != nil {
		return fmt.Errorf("failed to parse task store: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range store.Tasks {
		if err := s.register(t); err != nil {
			slog.Warn("failed to restore scheduled task", "id", t.ID, "error", err)
			continue
		}
		// Keep the counter ahead of every restored ID so new tasks
		// cannot collide with remembered ones.
		var n int
		if _, err := fmt.Sscanf(t.ID, "task_%d", &n); err == nil && n >= s.counter {
			s.counter = n + 1
		}
	}
	return nil
}

// saveToDisk persists current tasks to a JSON file. Caller must hold s.mu.
func (s *Service) saveToDisk() error {
	tasks := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}

	store := taskStore{Tasks: tasks}
	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal task store: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.storePath), 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	return os.WriteFile(s.storePath, data, 0o644)
}

// toCronExpr translates the accepted schedule forms into a cron expression.
// "HH:MM" means daily at that time, a parseable duration means an interval,
// anything else is passed through as a cron expression.
func toCronExpr(schedule string) (string, error) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		return "", fmt.Errorf("empty schedule")
	}

	var h, m int
	if n, _ := fmt.Sscanf(schedule, "%d:%d", &h, &m); n == 2 && !strings.Contains(schedule, " ") {
		if h < 0 || h > 23 || m < 0 || m > 59 {
			return "", fmt.Errorf("time %q out of range", schedule)
		}
		return fmt.Sprintf("%d %d * * *", m, h), nil
	}

	if d, err := time.ParseDuration(schedule); err == nil {
		return fmt.Sprintf("@every %s", d), nil
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return "", fmt.Errorf("not a valid cron expression, duration, or HH:MM time: %q", schedule)
	}
	return schedule, nil
}
