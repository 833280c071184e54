// Package chat holds the provider-agnostic conversation types and the bounded
// context window used to build outbound requests.
package chat

import (
	"fmt"
	"time"
)

// Role represents the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system" // transcript-only annotation, never sent to a provider
)

// Message is one immutable transcript entry.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"-"` // display only, not persisted
}

// NewMessage stamps a message with the current time.
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content, Timestamp: time.Now()}
}

// Conversational reports whether the message takes part in the model context.
func (m Message) Conversational() bool {
	return m.Role == RoleUser || m.Role == RoleAssistant
}

// Validate checks if the Message has a known role.
func (m Message) Validate() error {
	switch m.Role {
	case RoleUser, RoleAssistant, RoleSystem:
		return nil
	default:
		return fmt.Errorf("invalid message role: %q", m.Role)
	}
}
