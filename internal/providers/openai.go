package providers

import (
	"context"
	"fmt"

	"github.com/ChamsBouzaiene/aichat/internal/chat"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// DefaultGrokBaseURL is xAI's OpenAI-compatible endpoint.
const DefaultGrokBaseURL = "https://api.x.ai/v1"

// OpenAIClient implements LLMClient for OpenAI and OpenAI-compatible APIs
// such as Grok.
type OpenAIClient struct {
	client  *openai.Client
	baseURL string
}

// NewOpenAIClient creates a client. An empty baseURL means api.openai.com.
func NewOpenAIClient(apiKey, baseURL string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is empty")
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(config),
		baseURL: baseURL,
	}, nil
}

// Chat sends the ordered role/content pairs as one chat completion.
func (c *OpenAIClient) Chat(ctx context.Context, modelName string, messages []chat.Message) (string, error) {
	openaiMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case chat.RoleUser:
			openaiMsgs = append(openaiMsgs, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: msg.Content,
			})
		case chat.RoleAssistant:
			openaiMsgs = append(openaiMsgs, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: msg.Content,
			})
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    modelName,
		Messages: openaiMsgs,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from %s", c.vendor())
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) vendor() string {
	if c.baseURL == "" {
		return "OpenAI"
	}
	return c.baseURL
}
