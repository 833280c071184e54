package session

import "github.com/ChamsBouzaiene/aichat/internal/chat"

const (
	titleMaxRunes = 30
	titleEllipsis = "..."
)

// DeriveTitle returns the title for messages: the first user message,
// truncated with an ellipsis. ok is false when there is no user message.
func DeriveTitle(messages []chat.Message) (title string, ok bool) {
	for _, m := range messages {
		if m.Role != chat.RoleUser {
			continue
		}
		runes := []rune(m.Content)
		if len(runes) <= titleMaxRunes {
			return m.Content, true
		}
		return string(runes[:titleMaxRunes]) + titleEllipsis, true
	}
	return "", false
}

// ensureTitle derives the title once, while it is still the default.
func (s *Session) ensureTitle() {
	if s.Title != DefaultTitle && s.Title != "" {
		return
	}
	if title, ok := DeriveTitle(s.Messages); ok {
		s.Title = title
	}
}
