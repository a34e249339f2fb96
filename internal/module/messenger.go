package module

import (
	"sync"

	"github.com/google/uuid"
)

// Level is the severity of a user-facing message.
type Level string

const (
	LevelSuccess Level = "success"
	LevelNotice  Level = "notice"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Message is one queued user-facing message.
type Message struct {
	ID    string `json:"id"`
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Messenger queues messages for display after the current request.
type Messenger struct {
	mu       sync.Mutex
	messages []Message
}

// NewMessenger creates an empty messenger.
func NewMessenger() *Messenger {
	return &Messenger{}
}

func (m *Messenger) add(level Level, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, Message{ID: uuid.NewString(), Level: level, Text: text})
}

// AddSuccess queues a success message.
func (m *Messenger) AddSuccess(msg string) { m.add(LevelSuccess, msg) }

// AddNotice queues a notice.
func (m *Messenger) AddNotice(msg string) { m.add(LevelNotice, msg) }

// AddWarning queues a warning.
func (m *Messenger) AddWarning(msg string) { m.add(LevelWarning, msg) }

// AddError queues an error message.
func (m *Messenger) AddError(msg string) { m.add(LevelError, msg) }

// Messages returns a copy of the queued messages in order.
func (m *Messenger) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Count returns how many messages of a level are queued.
func (m *Messenger) Count(level Level) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, msg := range m.messages {
		if msg.Level == level {
			n++
		}
	}
	return n
}

// Clear drops all queued messages and returns them.
func (m *Messenger) Clear() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.messages
	m.messages = nil
	return out
}
