package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/ChamsBouzaiene/aichat/internal/chat"

	anthropic "github.com/liushuangls/go-anthropic/v2"
)

const claudeMaxTokens = 1000

// AnthropicClient implements LLMClient over the Anthropic Messages API.
type AnthropicClient struct {
	client *anthropic.Client
}

// NewAnthropicClient creates a Claude client. baseURL is optional.
func NewAnthropicClient(apiKey, baseURL string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is empty")
	}
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &AnthropicClient{client: anthropic.NewClient(apiKey, opts...)}, nil
}

// Chat sends the conversation as alternating user/assistant messages.
func (c *AnthropicClient) Chat(ctx context.Context, modelName string, messages []chat.Message) (string, error) {
	anthropicMsgs := make([]anthropic.Message, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case chat.RoleUser:
			anthropicMsgs = append(anthropicMsgs, anthropic.NewUserTextMessage(msg.Content))
		case chat.RoleAssistant:
			anthropicMsgs = append(anthropicMsgs, anthropic.NewAssistantTextMessage(msg.Content))
		}
	}

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(modelName),
		Messages:  anthropicMsgs,
		MaxTokens: claudeMaxTokens,
	})
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			text.WriteString(*block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty response from Claude")
	}
	return text.String(), nil
}
