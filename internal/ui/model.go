package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/petasbytes/agent-chat/internal/controller"
	"github.com/petasbytes/agent-chat/memory"
)

type focus int

const (
	focusInput focus = iota
	focusSend
)

const sendLabel = "Send"

// turnDoneMsg carries the result of a HandleTurn call back to Update.
type turnDoneMsg struct {
	reply controller.Reply
	err   error
}

// Model is the bubbletea model for the chat window.
type Model struct {
	ctx     context.Context
	handler TurnHandler

	entries []entry

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	focus focus
	busy  bool
	width int

	// quitPending defers a quit request until the in-flight turn is saved.
	quitPending bool
}

// New returns a model showing history and ready for input.
func New(ctx context.Context, h TurnHandler, history memory.Log) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 4096
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:      ctx,
		handler:  h,
		entries:  entriesFromLog(history),
		viewport: viewport.New(80, 20),
		input:    ti,
		spinner:  sp,
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.resize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case turnDoneMsg:
		return m.finishTurn(msg)

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		// A second request while busy quits without waiting.
		if m.busy && !m.quitPending {
			m.quitPending = true
			return m, nil
		}
		return m, tea.Quit
	case tea.KeyTab, tea.KeyShiftTab:
		m.toggleFocus()
		return m, nil
	case tea.KeyEnter:
		return m.submit()
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.focus == focusSend {
		if msg.Type == tea.KeySpace {
			return m.submit()
		}
		return m, nil
	}
	if m.busy {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) toggleFocus() {
	if m.focus == focusInput {
		m.focus = focusSend
		m.input.Blur()
		return
	}
	m.focus = focusInput
	if !m.busy {
		m.input.Focus()
	}
}

// submit starts a turn for the current input. Blank input is cleared and
// ignored, and nothing is accepted while a turn is in flight.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	text := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	if text == "" {
		return m, nil
	}

	m.busy = true
	m.input.Blur()
	m.entries = append(m.entries, entry{role: memory.RoleUser, text: text})
	m.refresh()
	return m, tea.Batch(m.spinner.Tick, runTurn(m.ctx, m.handler, text))
}

func runTurn(ctx context.Context, h TurnHandler, text string) tea.Cmd {
	return func() tea.Msg {
		r, err := h.HandleTurn(ctx, text)
		return turnDoneMsg{reply: r, err: err}
	}
}

func (m Model) finishTurn(msg turnDoneMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if e, ok := outcome(msg.reply, msg.err); ok {
		m.entries = append(m.entries, e)
		m.refresh()
	}
	if m.quitPending {
		return m, tea.Quit
	}
	if m.focus == focusInput {
		m.input.Focus()
		return m, textinput.Blink
	}
	return m, nil
}

func (m Model) resize(msg tea.WindowSizeMsg) Model {
	// input box and button are three rows tall, plus one status row
	const reserved = 4
	m.width = msg.Width
	m.viewport.Width = max(msg.Width, 1)
	m.viewport.Height = max(msg.Height-reserved, 1)

	buttonWidth := lipgloss.Width(buttonStyle.Render(sendLabel))
	m.input.Width = max(msg.Width-buttonWidth-len(m.input.Prompt)-6, 10)
	m.refresh()
	return m
}

func (m *Model) refresh() {
	lines := make([]string, len(m.entries))
	for i, e := range m.entries {
		lines[i] = renderEntry(e, m.width)
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	button := buttonStyle
	switch {
	case m.busy:
		button = buttonDisabled
	case m.focus == focusSend:
		button = buttonFocused
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, inputBox.Render(m.input.View()), " ", button.Render(sendLabel))

	status := "enter to send · tab to switch focus · esc to quit"
	switch {
	case m.busy && m.quitPending:
		status = m.spinner.View() + " finishing the current turn before quitting (press again to force)"
	case m.busy:
		status = m.spinner.View() + " waiting for the agent..."
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), row, statusStyle.Render(status))
}

// Run shows the chat window until the user quits or ctx is cancelled.
func Run(ctx context.Context, h TurnHandler, history memory.Log) error {
	p := tea.NewProgram(New(ctx, h, history), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
