package providers

import (
	"context"
	"fmt"

	"github.com/ChamsBouzaiene/aichat/internal/chat"

	"google.golang.org/genai"
)

// GeminiClient implements LLMClient over the Gemini API. The conversation is
// sent as one flattened "role: content" prompt.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates a Gemini API client. An empty baseURL uses the
// public endpoint. No request is made here.
func NewGeminiClient(ctx context.Context, apiKey, baseURL string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is empty")
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

// Chat generates a reply for the flattened transcript.
func (c *GeminiClient) Chat(ctx context.Context, modelName string, messages []chat.Message) (string, error) {
	prompt := FlattenTranscript(messages)

	res, err := c.client.Models.GenerateContent(ctx, modelName, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from Gemini")
	}
	return text, nil
}
