// Package tui is the terminal front end: a chat pane with an input line, a
// settings screen for provider and model, and a history browser.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/aichat/internal/chat"
	"github.com/ChamsBouzaiene/aichat/internal/controller"
	"github.com/ChamsBouzaiene/aichat/internal/providers"
	"github.com/ChamsBouzaiene/aichat/internal/session"
)

type settingsFocus int

const (
	focusProviders settingsFocus = iota
	focusModels
)

// replyMsg carries the gateway's answer for a turn.
type replyMsg struct {
	turn  *controller.Turn
	reply providers.Reply
}

// historyChangedMsg is sent when the history directory changes on disk.
type historyChangedMsg struct{}

// Options wires the model to its collaborators.
type Options struct {
	Gateway controller.Gateway
	// Changes, when set, triggers a history refresh on every receive.
	Changes <-chan struct{}
	Logger  *zap.Logger
}

type Model struct {
	ctx     context.Context
	ctrl    *controller.Controller
	gateway controller.Gateway
	changes <-chan struct{}
	logger  *zap.Logger

	input   textinput.Model
	chat    viewport.Model
	spinner spinner.Model

	history       []session.Meta
	historyCursor int // 0 is the "new chat" row
	focus         settingsFocus
	providerIdx   int
	modelIdx      int

	status   string
	width    int
	height   int
	quitting bool
}

func NewModel(ctx context.Context, ctrl *controller.Controller, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	in := textinput.New()
	in.Placeholder = "Type your message..."
	in.CharLimit = 4000
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = thinkingStyle

	m := Model{
		ctx:     ctx,
		ctrl:    ctrl,
		gateway: opts.Gateway,
		changes: opts.Changes,
		logger:  logger.Named("tui"),
		input:   in,
		chat:    viewport.New(80, 20),
		spinner: sp,
		width:   80,
		height:  24,
	}
	m.resize()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForChange())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case replyMsg:
		if err := m.ctrl.CompleteTurn(msg.turn, msg.reply); err != nil {
			m.logger.Debug("reply dropped", zap.Error(err))
		}
		m.refresh()
		return m, nil

	case historyChangedMsg:
		if m.ctrl.Screen() == controller.ScreenHistory {
			m.setHistory(m.ctrl.History())
		}
		return m, m.waitForChange()

	case spinner.TickMsg:
		if !m.ctrl.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if err := m.ctrl.Shutdown(); err != nil {
				m.logger.Error("failed to save on exit", zap.Error(err))
			}
			m.quitting = true
			return m, tea.Quit
		}
		switch m.ctrl.Screen() {
		case controller.ScreenSettings:
			return m.updateSettings(msg)
		case controller.ScreenHistory:
			return m.updateHistory(msg)
		default:
			return m.updateChat(msg)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.submit()

	case "ctrl+s":
		if err := m.ctrl.ToggleSettings(); err == nil {
			m.syncSettingsCursor()
			m.input.Blur()
		}
		return m, nil

	case "ctrl+h":
		metas, err := m.ctrl.OpenHistory()
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.setHistory(metas)
		m.historyCursor = 0
		m.input.Blur()
		return m, nil

	case "pgup":
		m.chat.HalfViewUp()
		return m, nil

	case "pgdown":
		m.chat.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	turn, err := m.ctrl.BeginTurn(text)
	if errors.Is(err, controller.ErrBusy) {
		m.status = "waiting for the previous reply"
		return m, nil
	}
	if err != nil || turn == nil {
		return m, nil
	}
	m.input.SetValue("")
	m.status = ""
	m.refresh()
	return m, tea.Batch(m.sendCmd(turn), m.spinner.Tick)
}

func (m Model) sendCmd(turn *controller.Turn) tea.Cmd {
	ctx, gw := m.ctx, m.gateway
	return func() tea.Msg {
		return replyMsg{turn: turn, reply: gw.Send(ctx, turn.Request())}
	}
}

func (m Model) waitForChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	ch := m.changes
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return historyChangedMsg{}
	}
}

func (m Model) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+s", "esc":
		m.ctrl.Close()
		m.input.Focus()
		m.refresh()

	case "tab", "shift+tab":
		if m.focus == focusProviders {
			m.focus = focusModels
		} else {
			m.focus = focusProviders
		}

	case "up", "k":
		if m.focus == focusProviders {
			m.providerIdx = max(0, m.providerIdx-1)
		} else {
			m.modelIdx = max(0, m.modelIdx-1)
		}

	case "down", "j":
		if m.focus == focusProviders {
			m.providerIdx = min(len(m.ctrl.Providers())-1, m.providerIdx+1)
		} else {
			m.modelIdx = min(len(m.ctrl.AvailableModels())-1, m.modelIdx+1)
		}

	case "enter":
		var err error
		if m.focus == focusProviders {
			err = m.ctrl.SelectProvider(m.ctrl.Providers()[m.providerIdx])
		} else {
			err = m.ctrl.SelectModel(m.ctrl.AvailableModels()[m.modelIdx])
		}
		if err != nil {
			m.status = err.Error()
		}
		m.syncSettingsCursor()
		m.refresh()
	}
	return m, nil
}

func (m Model) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+h":
		m.ctrl.Close()
		m.input.Focus()
		m.refresh()

	case "up", "k":
		m.historyCursor = max(0, m.historyCursor-1)

	case "down", "j":
		m.historyCursor = min(len(m.history), m.historyCursor+1)

	case "n":
		m.openSelected(0)

	case "enter":
		m.openSelected(m.historyCursor)
	}
	return m, nil
}

func (m *Model) openSelected(row int) {
	var err error
	if row == 0 {
		err = m.ctrl.NewChat()
	} else {
		err = m.ctrl.SelectSession(m.history[row-1].ID)
	}
	if errors.Is(err, controller.ErrBusy) {
		m.status = "waiting for the previous reply"
		return
	}
	m.input.Focus()
	m.refresh()
}

func (m *Model) setHistory(metas []session.Meta) {
	m.history = metas
	if m.historyCursor > len(metas) {
		m.historyCursor = len(metas)
	}
}

func (m *Model) syncSettingsCursor() {
	for i, p := range m.ctrl.Providers() {
		if p == m.ctrl.Provider() {
			m.providerIdx = i
		}
	}
	m.modelIdx = 0
	for i, model := range m.ctrl.AvailableModels() {
		if model == m.ctrl.Model() {
			m.modelIdx = i
		}
	}
}

func (m *Model) resize() {
	w := max(20, m.width-4)
	m.input.Width = max(10, w-4)
	m.chat.Width = w
	m.chat.Height = max(3, m.height-6)
	m.refresh()
}

// refresh re-renders the transcript into the viewport and scrolls to the end.
func (m *Model) refresh() {
	m.chat.SetContent(m.renderTranscript())
	m.chat.GotoBottom()
}

func (m Model) renderTranscript() string {
	width := max(20, m.chat.Width)
	var b strings.Builder
	for _, msg := range m.ctrl.Transcript() {
		b.WriteString(renderEntry(msg, width))
		b.WriteString("\n\n")
	}
	if m.ctrl.Busy() {
		b.WriteString(m.spinner.View() + thinkingStyle.Render(controller.ThinkingText))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderEntry(msg chat.Message, width int) string {
	wrap := lipgloss.NewStyle().Width(width)
	switch msg.Role {
	case chat.RoleUser:
		return userRoleStyle.Render(" You ") + "\n" + wrap.Render(msg.Content)
	case chat.RoleAssistant:
		return assistantRoleStyle.Render(" AI ") + "\n" + wrap.Render(msg.Content)
	default:
		return systemStyle.Width(width).Render(msg.Content)
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("AI Chat"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %s (%s)", m.ctrl.Provider(), m.ctrl.Model())))
	b.WriteString("\n")

	switch m.ctrl.Screen() {
	case controller.ScreenSettings:
		b.WriteString(m.renderSettings())
	case controller.ScreenHistory:
		b.WriteString(m.renderHistory())
	default:
		b.WriteString(m.chat.View())
		b.WriteString("\n")
		b.WriteString(statusBarStyle.Render(">") + " " + m.input.View())
	}

	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(dimStyle.Render(m.status) + "\n")
	}
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderSettings() string {
	providerRows := make([]string, 0, len(m.ctrl.Providers()))
	for i, p := range m.ctrl.Providers() {
		providerRows = append(providerRows, m.listRow(string(p), p == m.ctrl.Provider(), m.focus == focusProviders && i == m.providerIdx))
	}
	modelRows := make([]string, 0, len(m.ctrl.AvailableModels()))
	for i, model := range m.ctrl.AvailableModels() {
		modelRows = append(modelRows, m.listRow(model, model == m.ctrl.Model(), m.focus == focusModels && i == m.modelIdx))
	}

	left := panelStyle.Render(headerStyle.Render("Provider") + "\n" + strings.Join(providerRows, "\n"))
	right := panelStyle.Render(headerStyle.Render("Model") + "\n" + strings.Join(modelRows, "\n"))
	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
}

func (m Model) listRow(label string, active, cursor bool) string {
	prefix := "  "
	if active {
		prefix = "* "
	}
	row := prefix + label
	if cursor {
		return selectedStyle.Render(row)
	}
	return row
}

func (m Model) renderHistory() string {
	rows := []string{m.listRow("+ New Chat", false, m.historyCursor == 0)}
	for i, meta := range m.history {
		label := fmt.Sprintf("%s (%s)", meta.Title, meta.Provider)
		if !meta.Timestamp.IsZero() {
			label += "  " + dimStyle.Render(meta.Timestamp.Format("2006-01-02 15:04"))
		}
		rows = append(rows, m.listRow(label, false, m.historyCursor == i+1))
	}
	if len(m.history) == 0 {
		rows = append(rows, dimStyle.Render("  no saved chats yet"))
	}
	return panelStyle.Render(headerStyle.Render("Chat History") + "\n" + strings.Join(rows, "\n"))
}

func (m Model) renderHelp() string {
	switch m.ctrl.Screen() {
	case controller.ScreenSettings:
		return helpStyle.Render("  Tab: switch list  Enter: select  Esc/Ctrl+S: close  Ctrl+C: quit")
	case controller.ScreenHistory:
		return helpStyle.Render("  Enter: open  n: new chat  Esc: close  Ctrl+C: quit")
	default:
		return helpStyle.Render("  Enter: send  Ctrl+S: settings  Ctrl+H: history  PgUp/PgDn: scroll  Ctrl+C: quit")
	}
}
