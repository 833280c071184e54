package session

import (
	"strconv"
	"sync"
	"time"

	"github.com/ChamsBouzaiene/aichat/internal/chat"
	"github.com/ChamsBouzaiene/aichat/internal/providers"
)

// DefaultTitle marks a session whose title has not been derived yet.
const DefaultTitle = "New Chat"

// Session is one conversation with its full, untrimmed message history.
type Session struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	Provider  providers.Provider `json:"provider"`
	Model     string             `json:"model"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	Messages  []chat.Message     `json:"messages"`
}

// Meta is a lightweight representation for listing in the UI.
type Meta struct {
	ID        string
	Title     string
	Provider  string
	Timestamp time.Time
}

// New creates an in-memory session with a fresh id and the default title.
func New(provider providers.Provider, model string) *Session {
	now := time.Now()
	return &Session{
		ID:        nextID(now),
		Title:     DefaultTitle,
		Provider:  provider,
		Model:     model,
		CreatedAt: now,
		Messages:  []chat.Message{},
	}
}

// Append records a user or assistant message. Other roles are ignored.
func (s *Session) Append(msg chat.Message) {
	if msg.Conversational() {
		s.Messages = append(s.Messages, msg)
	}
}

// TurnCount returns the number of accepted user turns.
func (s *Session) TurnCount() int {
	n := 0
	for _, m := range s.Messages {
		if m.Role == chat.RoleUser {
			n++
		}
	}
	return n
}

// Timestamp is the session's creation time, taken from its id when the id
// is a millisecond timestamp.
func (s *Session) Timestamp() time.Time {
	return timestampOf(s.ID, s.CreatedAt)
}

var (
	idMu   sync.Mutex
	lastID int64
)

// nextID returns the creation time in unix milliseconds, bumped when two
// sessions are created within the same millisecond.
func nextID(now time.Time) string {
	idMu.Lock()
	defer idMu.Unlock()

	ms := now.UnixMilli()
	if ms <= lastID {
		ms = lastID + 1
	}
	lastID = ms
	return strconv.FormatInt(ms, 10)
}

func timestampOf(id string, fallback time.Time) time.Time {
	if ms, err := strconv.ParseInt(id, 10, 64); err == nil && ms > 0 {
		return time.UnixMilli(ms)
	}
	return fallback
}
