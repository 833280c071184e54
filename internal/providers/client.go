package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/ChamsBouzaiene/aichat/internal/chat"
)

// LLMClient is one vendor SDK behind a single request/reply call.
// messages hold only user/assistant turns and end with the new user turn.
type LLMClient interface {
	Chat(ctx context.Context, model string, messages []chat.Message) (string, error)
}

// FlattenTranscript renders messages as "role: content" lines for vendors
// without native multi-turn requests.
func FlattenTranscript(messages []chat.Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}
	return strings.Join(lines, "\n")
}
