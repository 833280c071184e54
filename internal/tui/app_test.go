package tui

import (
	"context"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/aichat/internal/chat"
	"github.com/ChamsBouzaiene/aichat/internal/controller"
	"github.com/ChamsBouzaiene/aichat/internal/providers"
	"github.com/ChamsBouzaiene/aichat/internal/session"
)

type echoGateway struct{ calls int }

func (g *echoGateway) Send(_ context.Context, req providers.Request) providers.Reply {
	g.calls++
	return providers.Reply{Text: "**echo** " + req.Prompt}
}

func newTestModel(t *testing.T) (Model, *echoGateway) {
	t.Helper()
	store, err := session.NewStore(filepath.Join(t.TempDir(), "history"), nil)
	require.NoError(t, err)
	gw := &echoGateway{}
	ctrl, err := controller.New(providers.DefaultRegistry(), gw, store, controller.Options{})
	require.NoError(t, err)
	return NewModel(context.Background(), ctrl, Options{Gateway: gw}), gw
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+h":
		return tea.KeyMsg{Type: tea.KeyCtrlH}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, k string) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(key(k))
	return next.(Model), cmd
}

// findReply runs cmd and returns the first replyMsg it produces.
func findReply(t *testing.T, cmd tea.Cmd) replyMsg {
	t.Helper()
	require.NotNil(t, cmd)
	switch msg := cmd().(type) {
	case replyMsg:
		return msg
	case tea.BatchMsg:
		for _, c := range msg {
			if c == nil {
				continue
			}
			if r, ok := c().(replyMsg); ok {
				return r
			}
		}
	}
	t.Fatal("command produced no reply")
	return replyMsg{}
}

func TestSubmitShowsThinkingThenReply(t *testing.T) {
	m, gw := newTestModel(t)
	m.input.SetValue("hello")

	m, cmd := press(t, m, "enter")
	assert.True(t, m.ctrl.Busy())
	assert.Empty(t, m.input.Value())
	assert.Contains(t, m.renderTranscript(), controller.ThinkingText)

	reply := findReply(t, cmd)
	assert.Equal(t, 1, gw.calls)

	next, _ := m.Update(reply)
	m = next.(Model)
	assert.False(t, m.ctrl.Busy())

	tr := m.ctrl.Transcript()
	assert.Equal(t, chat.RoleAssistant, tr[len(tr)-1].Role)
	assert.Equal(t, "echo hello", tr[len(tr)-1].Content)
	assert.NotContains(t, m.renderTranscript(), controller.ThinkingText)
}

func TestSubmitBlankIsIgnored(t *testing.T) {
	m, gw := newTestModel(t)
	m.input.SetValue("   ")

	m, cmd := press(t, m, "enter")
	assert.Nil(t, cmd)
	assert.False(t, m.ctrl.Busy())
	assert.Zero(t, gw.calls)
}

func TestSettingsScreen(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = press(t, m, "ctrl+s")
	require.Equal(t, controller.ScreenSettings, m.ctrl.Screen())
	assert.Contains(t, m.View(), "* openai")
	assert.Contains(t, m.View(), "* gpt-4o")

	m, _ = press(t, m, "down")
	m, _ = press(t, m, "enter")
	assert.Equal(t, providers.Claude, m.ctrl.Provider())
	assert.Contains(t, m.View(), "* claude")

	m, _ = press(t, m, "tab")
	m, _ = press(t, m, "down")
	m, _ = press(t, m, "enter")
	assert.Equal(t, "claude-3-opus-20240229", m.ctrl.Model())

	m, _ = press(t, m, "esc")
	assert.Equal(t, controller.ScreenChat, m.ctrl.Screen())
}

func TestHistoryScreen(t *testing.T) {
	m, _ := newTestModel(t)
	m.input.SetValue("remember me")
	m, cmd := press(t, m, "enter")
	next, _ := m.Update(findReply(t, cmd))
	m = next.(Model)
	id := m.ctrl.Session().ID

	m, _ = press(t, m, "ctrl+h")
	require.Equal(t, controller.ScreenHistory, m.ctrl.Screen())
	require.Len(t, m.history, 1)
	assert.Contains(t, m.View(), "remember me (openai)")

	// new chat is the first row
	m, _ = press(t, m, "enter")
	assert.Equal(t, controller.ScreenChat, m.ctrl.Screen())
	assert.NotEqual(t, id, m.ctrl.Session().ID)

	m, _ = press(t, m, "ctrl+h")
	m, _ = press(t, m, "down")
	m, _ = press(t, m, "enter")
	assert.Equal(t, id, m.ctrl.Session().ID)
	assert.Len(t, m.ctrl.Context(), 2)
}

func TestHistoryRefreshOnChange(t *testing.T) {
	m, _ := newTestModel(t)
	changes := make(chan struct{}, 1)
	m.changes = changes

	m, _ = press(t, m, "ctrl+h")
	changes <- struct{}{}
	msg := m.waitForChange()()
	assert.Equal(t, historyChangedMsg{}, msg)

	next, cmd := m.Update(msg)
	assert.NotNil(t, cmd, "keeps listening")
	assert.Equal(t, controller.ScreenHistory, next.(Model).ctrl.Screen())
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t)
	m, cmd := press(t, m, "ctrl+c")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, m.View())
}
