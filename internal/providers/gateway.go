package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/ChamsBouzaiene/aichat/internal/chat"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrorPrefix marks gateway replies that carry a failure instead of content.
const ErrorPrefix = "error: "

// ReplyKind tells a successful reply apart from the textual failure notices.
type ReplyKind int

const (
	ReplyOK ReplyKind = iota
	ReplyNotConfigured
	ReplyError
)

// Reply is what the gateway hands back for one request. Text is always
// displayable.
type Reply struct {
	Text string
	Kind ReplyKind
}

// OK reports whether Text came from the provider.
func (r Reply) OK() bool { return r.Kind == ReplyOK }

// Request is one outbound turn. History holds the prior context; Prompt is
// appended as the trailing user turn.
type Request struct {
	Provider Provider
	Model    string
	History  []chat.Message
	Prompt   string
}

// Gateway routes a request to the client of the selected provider and turns
// every outcome into reply text. It never returns an error.
type Gateway struct {
	clients map[Provider]LLMClient
	logger  *zap.Logger
	timeout time.Duration
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithTimeout bounds each vendor call. Zero means no bound beyond ctx.
func WithTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.timeout = d }
}

// NewGateway creates a gateway over the configured clients.
func NewGateway(clients map[Provider]LLMClient, logger *zap.Logger, opts ...GatewayOption) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	cp := make(map[Provider]LLMClient, len(clients))
	for p, c := range clients {
		if c != nil {
			cp[p] = c
		}
	}
	g := &Gateway{clients: cp, logger: logger}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Configured reports whether p has a client.
func (g *Gateway) Configured(p Provider) bool {
	_, ok := g.clients[p]
	return ok
}

// Send performs at most one vendor call and returns the raw reply, a
// not-configured notice, or "error: <message>".
func (g *Gateway) Send(ctx context.Context, req Request) (reply Reply) {
	client, ok := g.clients[req.Provider]
	if !ok {
		return Reply{Text: NotConfiguredMessage(req.Provider), Kind: ReplyNotConfigured}
	}

	messages := make([]chat.Message, 0, len(req.History)+1)
	for _, m := range req.History {
		if m.Conversational() {
			messages = append(messages, m)
		}
	}
	messages = append(messages, chat.NewMessage(chat.RoleUser, req.Prompt))

	log := g.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("provider", string(req.Provider)),
		zap.String("model", req.Model),
		zap.Int("messages", len(messages)),
	)

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error("provider client panicked", zap.Any("panic", r))
			reply = errorReply(fmt.Sprint(r))
		}
	}()

	text, err := client.Chat(ctx, req.Model, messages)
	if err != nil {
		log.Warn("provider call failed",
			zap.Error(err),
			zap.String("class", string(ClassifyError(err))),
			zap.Duration("took", time.Since(start)),
		)
		return errorReply(err.Error())
	}

	log.Info("provider call completed",
		zap.Int("reply_len", len(text)),
		zap.Duration("took", time.Since(start)),
	)
	return Reply{Text: text, Kind: ReplyOK}
}

func errorReply(msg string) Reply {
	return Reply{Text: ErrorPrefix + msg, Kind: ReplyError}
}

// NotConfiguredMessage is the reply for a provider without a credential.
func NotConfiguredMessage(p Provider) string {
	return fmt.Sprintf("%s API key not configured. Please add it to your .env file.", DisplayName(p))
}

// DisplayName returns the vendor's human-facing name.
func DisplayName(p Provider) string {
	switch p {
	case OpenAI:
		return "OpenAI"
	case Claude:
		return "Claude"
	case Gemini:
		return "Gemini"
	case Grok:
		return "Grok"
	default:
		return string(p)
	}
}
