package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// A session is one chat thread, keyed "channel:chatID" (e.g. "telegram:42").
// It is persisted as a JSONL file: one meta line, then one line per message,
// so a thread's history of searches and listings survives restarts.

// Message is a single turn in a session.
type Message struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCallRecord `json:"tool_calls,omitempty"`
	Timestamp  string           `json:"timestamp,omitempty"`
}

// ToolCallRecord holds a single tool call within a message.
type ToolCallRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// SessionMeta is the first line of the JSONL file.
type SessionMeta struct {
	Key       string `json:"key"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Session holds one thread's conversation state.
type Session struct {
	Meta     SessionMeta
	Messages []Message
	mu       sync.RWMutex
}

// AppendMessage adds a message to the thread. History is append-only.
func (s *Session) AppendMessage(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC().Format(time.RFC3339)
	if msg.Timestamp == "" {
		msg.Timestamp = now
	}
	s.Messages = append(s.Messages, msg)
	s.Meta.UpdatedAt = now
}

// History returns a copy of the thread's messages for building LLM context.
func (s *Session) History() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.Messages))
	copy(out, s.Messages)
	return out
}

// Manager loads, caches, and persists sessions under one directory.
type Manager struct {
	dataDir string
	open    map[string]*Session
	mu      sync.RWMutex
}

func NewManager(dataDir string) *Manager {
	return &Manager{
		dataDir: dataDir,
		open:    make(map[string]*Session),
	}
}

// sessionFile maps a session key to a filename, replacing the separator
// characters that cannot appear in one.
func (m *Manager) sessionFile(key string) string {
	safe := strings.NewReplacer(":", "_", "/", "_").Replace(key)
	return filepath.Join(m.dataDir, safe+".jsonl")
}

// GetOrCreate returns the session for key, reading it from disk the first
// time and creating a fresh one if nothing is stored.
func (m *Manager) GetOrCreate(key string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.open[key]; ok {
		return s
	}

	s, ok := m.read(key)
	if !ok {
		now := time.Now().UTC().Format(time.RFC3339)
		s = &Session{
			Meta:     SessionMeta{Key: key, CreatedAt: now, UpdatedAt: now},
			Messages: []Message{},
		}
	}
	m.open[key] = s
	return s
}

// Save writes the session's full JSONL file.
func (m *Manager) Save(s *Session) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(m.dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}

	f, err := os.Create(m.sessionFile(s.Meta.Key))
	if err != nil {
		return fmt.Errorf("failed to create session file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	if err := enc.Encode(s.Meta); err != nil {
		return fmt.Errorf("failed to write session meta: %w", err)
	}
	for _, msg := range s.Messages {
		if err := enc.Encode(msg); err != nil {
			return fmt.Errorf("failed to write message: %w", err)
		}
	}
	return w.Flush()
}

// read loads a stored session. Garbled message lines are skipped rather
// than losing the whole thread.
func (m *Manager) read(key string) (*Session, bool) {
	f, err := os.Open(m.sessionFile(key))
	if err != nil {
		return nil, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return nil, false
	}
	var meta SessionMeta
	if err := json.Unmarshal(scanner.Bytes(), &meta); err != nil {
		return nil, false
	}

	messages := []Message{}
	for scanner.Scan() {
		var msg Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}
	return &Session{Meta: meta, Messages: messages}, true
}
