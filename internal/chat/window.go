package chat

// DefaultContextLimit is how many messages are kept for the model context.
const DefaultContextLimit = 10

// ContextWindow is a bounded FIFO log of user/assistant messages.
// It is not safe for concurrent use; the controller owns it.
type ContextWindow struct {
	limit    int
	messages []Message
}

// NewContextWindow creates a window holding at most limit messages.
// A non-positive limit falls back to DefaultContextLimit.
func NewContextWindow(limit int) *ContextWindow {
	if limit <= 0 {
		limit = DefaultContextLimit
	}
	return &ContextWindow{
		limit:    limit,
		messages: make([]Message, 0, limit+1),
	}
}

// Append adds msg to the tail and evicts from the head past the limit.
// Messages that are not user/assistant are ignored.
func (w *ContextWindow) Append(msg Message) bool {
	if !msg.Conversational() {
		return false
	}
	w.messages = append(w.messages, msg)
	if over := len(w.messages) - w.limit; over > 0 {
		// shift in place; the backing array stays at limit+1
		n := copy(w.messages, w.messages[over:])
		clear(w.messages[n:])
		w.messages = w.messages[:n]
	}
	return true
}

// Snapshot returns a copy of the retained messages oldest first.
func (w *ContextWindow) Snapshot() []Message {
	out := make([]Message, len(w.messages))
	copy(out, w.messages)
	return out
}

// Clear empties the window.
func (w *ContextWindow) Clear() {
	clear(w.messages)
	w.messages = w.messages[:0]
}

// Len returns the number of retained messages.
func (w *ContextWindow) Len() int { return len(w.messages) }

// Limit returns the capacity of the window.
func (w *ContextWindow) Limit() int { return w.limit }
