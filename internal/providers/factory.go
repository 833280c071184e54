package providers

import (
	"context"

	"go.uber.org/zap"
)

// Credentials holds what is needed to build each vendor client.
type Credentials struct {
	OpenAIKey     string
	OpenAIBaseURL string
	ClaudeKey     string
	ClaudeBaseURL string
	GeminiKey     string
	GeminiBaseURL string
	GrokKey       string
	GrokBaseURL   string
}

// CredentialsFromEnv reads credentials through getenv (usually os.Getenv).
func CredentialsFromEnv(getenv func(string) string) Credentials {
	first := func(keys ...string) string {
		for _, k := range keys {
			if v := getenv(k); v != "" {
				return v
			}
		}
		return ""
	}

	grokBase := getenv("GROK_BASE_URL")
	if grokBase == "" {
		grokBase = DefaultGrokBaseURL
	}

	return Credentials{
		OpenAIKey:     getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: getenv("OPENAI_BASE_URL"),
		ClaudeKey:     first("ANTHROPIC_API_KEY", "CLAUDE_API_KEY"),
		ClaudeBaseURL: getenv("ANTHROPIC_BASE_URL"),
		GeminiKey:     getenv("GEMINI_API_KEY"),
		GeminiBaseURL: getenv("GEMINI_BASE_URL"),
		GrokKey:       first("GROK_API_KEY", "XAI_API_KEY"),
		GrokBaseURL:   grokBase,
	}
}

// NewClients builds a client for every provider that has a credential.
// Providers without one are simply absent from the map; a client that fails
// to build is logged and left out the same way.
func NewClients(ctx context.Context, creds Credentials, logger *zap.Logger) map[Provider]LLMClient {
	clients := make(map[Provider]LLMClient)

	if creds.OpenAIKey != "" {
		if c, err := NewOpenAIClient(creds.OpenAIKey, creds.OpenAIBaseURL); err != nil {
			logger.Warn("failed to create OpenAI client", zap.Error(err))
		} else {
			clients[OpenAI] = c
		}
	}

	if creds.ClaudeKey != "" {
		if c, err := NewAnthropicClient(creds.ClaudeKey, creds.ClaudeBaseURL); err != nil {
			logger.Warn("failed to create Claude client", zap.Error(err))
		} else {
			clients[Claude] = c
		}
	}

	if creds.GeminiKey != "" {
		if c, err := NewGeminiClient(ctx, creds.GeminiKey, creds.GeminiBaseURL); err != nil {
			logger.Warn("failed to create Gemini client", zap.Error(err))
		} else {
			clients[Gemini] = c
		}
	}

	if creds.GrokKey != "" {
		if c, err := NewOpenAIClient(creds.GrokKey, creds.GrokBaseURL); err != nil {
			logger.Warn("failed to create Grok client", zap.Error(err))
		} else {
			clients[Grok] = c
		}
	}

	configured := make([]string, 0, len(clients))
	for p := range clients {
		configured = append(configured, string(p))
	}
	logger.Info("provider clients ready", zap.Strings("configured", configured))

	return clients
}
