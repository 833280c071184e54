// Package controller drives one chat: it owns the visible transcript, the
// context window, the active session and the current screen, and mediates
// between user actions, the provider gateway and the session store.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/aichat/internal/chat"
	"github.com/ChamsBouzaiene/aichat/internal/markdown"
	"github.com/ChamsBouzaiene/aichat/internal/providers"
	"github.com/ChamsBouzaiene/aichat/internal/session"
)

// ThinkingText is shown while a turn is pending. It is never stored.
const ThinkingText = "AI is thinking..."

const welcomeText = "welcome! you're now chatting with %s (%s).\n" +
	"type a message and press enter to send. ctrl+s opens settings and ctrl+h opens chat history.\n" +
	"press ctrl+c to quit. api keys are read from the .env file."

var (
	// ErrBusy is returned when an action must wait for the pending turn.
	ErrBusy = errors.New("a reply is still pending")
	// ErrWrongScreen is returned when an action is not available on the
	// current screen.
	ErrWrongScreen = errors.New("action not available on this screen")
	// ErrStaleTurn is returned when a reply arrives for a turn that no
	// longer belongs to the active session.
	ErrStaleTurn = errors.New("reply belongs to a discarded turn")
)

// Screen is the view the user is interacting with.
type Screen int

const (
	ScreenChat Screen = iota
	ScreenSettings
	ScreenHistory
)

func (s Screen) String() string {
	switch s {
	case ScreenChat:
		return "chat"
	case ScreenSettings:
		return "settings"
	case ScreenHistory:
		return "history"
	default:
		return fmt.Sprintf("screen(%d)", int(s))
	}
}

// Gateway sends one request to the selected provider.
type Gateway interface {
	Send(ctx context.Context, req providers.Request) providers.Reply
}

// Store persists sessions.
type Store interface {
	Save(sess *session.Session) (bool, error)
	Load(id string) (*session.Session, error)
	List() []session.Meta
}

// Options configures a Controller. Zero values fall back to defaults.
type Options struct {
	Provider     providers.Provider
	Models       map[providers.Provider]string
	ContextLimit int
	Strip        func(string) string
	Logger       *zap.Logger
}

// Turn is a submitted user message waiting for its reply.
type Turn struct {
	seq       uint64
	sessionID string
	request   providers.Request
}

// Request returns what should be sent to the gateway.
func (t *Turn) Request() providers.Request { return t.request }

// Controller is not safe for concurrent use. Callers serialize access, the
// TUI does so by running everything on its update loop.
type Controller struct {
	registry  *providers.Registry
	selection *providers.Selection
	gateway   Gateway
	store     Store
	strip     func(string) string
	logger    *zap.Logger

	session    *session.Session
	window     *chat.ContextWindow
	transcript []chat.Message
	screen     Screen

	pending *Turn
	seq     uint64
}

// New creates a controller with a fresh session on the chat screen.
func New(registry *providers.Registry, gateway Gateway, store Store, opts Options) (*Controller, error) {
	if registry == nil {
		return nil, errors.New("controller: registry is required")
	}
	if gateway == nil {
		return nil, errors.New("controller: gateway is required")
	}
	if store == nil {
		return nil, errors.New("controller: store is required")
	}

	active := opts.Provider
	if active == "" || !registry.Has(active) {
		active = registry.Providers()[0]
	}
	selection, err := providers.NewSelection(registry, active)
	if err != nil {
		return nil, err
	}
	selection.Restore(active, opts.Models)

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	strip := opts.Strip
	if strip == nil {
		strip = markdown.Strip
	}

	c := &Controller{
		registry:  registry,
		selection: selection,
		gateway:   gateway,
		store:     store,
		strip:     strip,
		logger:    logger.Named("controller"),
		window:    chat.NewContextWindow(opts.ContextLimit),
		screen:    ScreenChat,
	}
	c.session = session.New(selection.Active(), selection.Model())
	c.note(welcomeText, c.selection.Active(), c.selection.Model())
	return c, nil
}

// Screen returns the current screen.
func (c *Controller) Screen() Screen { return c.screen }

// Busy reports whether a turn is waiting for its reply.
func (c *Controller) Busy() bool { return c.pending != nil }

// Transcript returns a copy of every visible entry, system notes included.
func (c *Controller) Transcript() []chat.Message {
	out := make([]chat.Message, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// Context returns the messages that would accompany the next request.
func (c *Controller) Context() []chat.Message { return c.window.Snapshot() }

// Session returns a copy of the active session.
func (c *Controller) Session() session.Session {
	s := *c.session
	s.Messages = append([]chat.Message(nil), c.session.Messages...)
	return s
}

// Provider returns the active provider.
func (c *Controller) Provider() providers.Provider { return c.selection.Active() }

// Model returns the active provider's model.
func (c *Controller) Model() string { return c.selection.Model() }

// Models returns the last-chosen model of every provider.
func (c *Controller) Models() map[providers.Provider]string { return c.selection.Models() }

// Providers lists the selectable providers in catalog order.
func (c *Controller) Providers() []providers.Provider { return c.registry.Providers() }

// AvailableModels lists the active provider's models.
func (c *Controller) AvailableModels() []string { return c.registry.ModelsFor(c.selection.Active()) }

// Submit runs a whole turn synchronously. Blank input is ignored and reports
// false.
func (c *Controller) Submit(ctx context.Context, text string) (bool, error) {
	turn, err := c.BeginTurn(text)
	if err != nil || turn == nil {
		return false, err
	}
	reply := c.gateway.Send(ctx, turn.Request())
	return true, c.CompleteTurn(turn, reply)
}

// BeginTurn records the user message and returns the request for it. It
// returns a nil turn for blank input.
func (c *Controller) BeginTurn(text string) (*Turn, error) {
	if c.screen != ScreenChat {
		return nil, ErrWrongScreen
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if c.pending != nil {
		return nil, ErrBusy
	}

	msg := chat.NewMessage(chat.RoleUser, text)
	c.transcript = append(c.transcript, msg)
	c.window.Append(msg)
	c.session.Append(msg)

	snap := c.window.Snapshot()
	c.seq++
	c.pending = &Turn{
		seq:       c.seq,
		sessionID: c.session.ID,
		request: providers.Request{
			Provider: c.selection.Active(),
			Model:    c.selection.Model(),
			History:  snap[:len(snap)-1],
			Prompt:   snap[len(snap)-1].Content,
		},
	}
	c.logger.Debug("turn started",
		zap.String("session_id", c.session.ID),
		zap.String("provider", string(c.selection.Active())),
		zap.String("model", c.selection.Model()),
		zap.Int("history", len(snap)-1),
	)
	return c.pending, nil
}

// CompleteTurn records the reply for turn and saves the session.
func (c *Controller) CompleteTurn(turn *Turn, reply providers.Reply) error {
	if turn == nil || c.pending == nil || turn.seq != c.pending.seq || turn.sessionID != c.session.ID {
		c.logger.Debug("discarding stale reply")
		return ErrStaleTurn
	}
	c.pending = nil

	text := reply.Text
	if reply.OK() {
		text = c.strip(text)
	}
	msg := chat.NewMessage(chat.RoleAssistant, text)
	c.transcript = append(c.transcript, msg)
	c.window.Append(msg)
	c.session.Append(msg)

	c.save()
	return nil
}

// ToggleSettings opens the settings screen from chat, or closes it.
func (c *Controller) ToggleSettings() error {
	switch c.screen {
	case ScreenChat:
		c.screen = ScreenSettings
	case ScreenSettings:
		c.screen = ScreenChat
	default:
		return ErrWrongScreen
	}
	return nil
}

// OpenHistory saves the active session and opens the history screen.
func (c *Controller) OpenHistory() ([]session.Meta, error) {
	if c.screen != ScreenChat {
		return nil, ErrWrongScreen
	}
	if c.pending == nil {
		c.save()
	}
	c.screen = ScreenHistory
	return c.store.List(), nil
}

// History lists saved sessions, newest first.
func (c *Controller) History() []session.Meta { return c.store.List() }

// Close returns to the chat screen.
func (c *Controller) Close() { c.screen = ScreenChat }

// SelectProvider makes p the active provider.
func (c *Controller) SelectProvider(p providers.Provider) error {
	if c.screen != ScreenSettings {
		return ErrWrongScreen
	}
	if p == c.selection.Active() {
		return nil
	}
	if err := c.selection.SetActive(p); err != nil {
		return err
	}
	c.note("provider changed to %s", p)
	return nil
}

// SelectModel sets the active provider's model.
func (c *Controller) SelectModel(model string) error {
	if c.screen != ScreenSettings {
		return ErrWrongScreen
	}
	if model == c.selection.Model() {
		return nil
	}
	if err := c.selection.SetModel(c.selection.Active(), model); err != nil {
		return err
	}
	c.note("model changed to %s", model)
	return nil
}

// SelectSession loads id and makes it the active session. On failure the
// active session is kept and an error note is added.
func (c *Controller) SelectSession(id string) error {
	if c.screen != ScreenHistory {
		return ErrWrongScreen
	}
	if c.pending != nil {
		return ErrBusy
	}

	loaded, err := c.store.Load(id)
	c.screen = ScreenChat
	if err != nil {
		c.logger.Warn("failed to load session", zap.String("session_id", id), zap.Error(err))
		c.note("error loading chat: %v", err)
		return err
	}

	c.session = loaded
	c.window.Clear()
	c.transcript = c.transcript[:0]
	for _, m := range loaded.Messages {
		if !m.Conversational() {
			continue
		}
		c.transcript = append(c.transcript, m)
		c.window.Append(m)
	}

	// Selection follows the record only where the catalog still agrees.
	if c.registry.Has(loaded.Provider) {
		_ = c.selection.SetActive(loaded.Provider)
		if c.registry.HasModel(loaded.Provider, loaded.Model) {
			_ = c.selection.SetModel(loaded.Provider, loaded.Model)
		}
	}

	title := loaded.Title
	if title == "" {
		title = session.DefaultTitle
	}
	c.note("loaded chat: %s", title)
	return nil
}

// NewChat discards the active session and starts an empty one.
func (c *Controller) NewChat() error {
	if c.screen != ScreenHistory {
		return ErrWrongScreen
	}
	if c.pending != nil {
		return ErrBusy
	}
	c.session = session.New(c.selection.Active(), c.selection.Model())
	c.window.Clear()
	c.transcript = c.transcript[:0]
	c.screen = ScreenChat
	c.note("started new chat with %s (%s)", c.selection.Active(), c.selection.Model())
	return nil
}

// Shutdown saves the active session unless a turn is still pending.
func (c *Controller) Shutdown() error {
	if c.pending != nil {
		return nil
	}
	_, err := c.persist()
	return err
}

// save persists the session and reports failures in the transcript.
func (c *Controller) save() {
	if _, err := c.persist(); err != nil {
		c.note("error saving chat: %v", err)
	}
}

func (c *Controller) persist() (bool, error) {
	c.session.Provider = c.selection.Active()
	c.session.Model = c.selection.Model()
	saved, err := c.store.Save(c.session)
	if err != nil {
		c.logger.Error("failed to save session", zap.String("session_id", c.session.ID), zap.Error(err))
		return false, err
	}
	if saved {
		c.logger.Debug("session saved", zap.String("session_id", c.session.ID))
	}
	return saved, nil
}

func (c *Controller) note(format string, args ...any) {
	c.transcript = append(c.transcript, chat.NewMessage(chat.RoleSystem, fmt.Sprintf(format, args...)))
}
