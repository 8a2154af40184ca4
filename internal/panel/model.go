// Package panel is the interactive terminal surface of a voice-search session.
package panel

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gestionelezioni/voicesearch/internal/fsm"
	"github.com/gestionelezioni/voicesearch/internal/render"
	"github.com/gestionelezioni/voicesearch/internal/session"
)

// Controls is the controller surface the panel drives.
type Controls interface {
	Enabled() bool
	DisabledReason() error
	Open(context.Context) error
	Start(context.Context) error
	Close(context.Context) error
	Snapshot() session.Snapshot
}

// Model is the root bubbletea model of the panel.
type Model struct {
	ctx      context.Context
	controls Controls
	messages render.Messages

	enabled bool
	snap    session.Snapshot

	errorMessage string
	width        int
	quitting     bool
}

// New builds a panel model for controls. ctx bounds every controller command.
func New(ctx context.Context, controls Controls, renderer render.Renderer) Model {
	return Model{
		ctx:      ctx,
		controls: controls,
		messages: renderer.Messages(),
		enabled:  controls.Enabled(),
		snap:     controls.Snapshot(),
	}
}

// Init opens a fresh session when voice search is available.
func (m Model) Init() tea.Cmd {
	if !m.enabled {
		return nil
	}
	return m.commandCmd("open", m.controls.Open)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case SnapshotMsg:
		m.snap = msg.Snapshot
		return m, nil

	case CommandResultMsg:
		if msg.Err != nil {
			m.errorMessage = fmt.Sprintf("%s: %v", msg.Action, msg.Err)
		} else {
			m.errorMessage = ""
		}
		return m, nil

	case closedMsg:
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit, KeyQuitUpper, KeyCtrlC:
		m.quitting = true
		if !m.enabled {
			return m, tea.Quit
		}
		controls, ctx := m.controls, m.ctx
		return m, func() tea.Msg {
			_ = controls.Close(ctx)
			return closedMsg{}
		}

	case KeyStart, KeySpace, KeyEnter:
		if !m.enabled {
			return m, nil
		}
		return m, m.commandCmd("start", m.controls.Start)

	case KeyClose, KeyEscape:
		if !m.enabled {
			return m, nil
		}
		return m, m.commandCmd("close", m.controls.Close)
	}

	return m, nil
}

// commandCmd runs a blocking controller command off the update loop.
func (m Model) commandCmd(action string, run func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return CommandResultMsg{Action: action, Err: run(ctx)}
	}
}

// Snapshot returns the last snapshot the panel received.
func (m Model) Snapshot() session.Snapshot {
	return m.snap
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.messages.Title))
	b.WriteString("\n\n")

	if !m.enabled {
		b.WriteString(errorStyle.Render(m.messages.Unavailable))
		b.WriteString("\n")
		if reason := m.controls.DisabledReason(); reason != nil {
			b.WriteString(statusStyle.Render(reason.Error()))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(m.footer())
		return m.fit(b.String())
	}

	if status := m.statusLine(); status != "" {
		b.WriteString(status)
		b.WriteString("\n\n")
	}

	if display := m.displayView(); display != "" {
		b.WriteString(display)
		b.WriteString("\n\n")
	}

	if m.errorMessage != "" {
		b.WriteString(errorStyle.Render(m.errorMessage))
		b.WriteString("\n\n")
	}

	b.WriteString(m.footer())
	return m.fit(b.String())
}

// fit clips the view to the terminal width once it is known.
func (m Model) fit(view string) string {
	if m.width <= 0 {
		return view
	}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(view)
}

func (m Model) statusLine() string {
	text := m.snap.StatusText
	if text == "" {
		return ""
	}
	switch {
	case m.snap.Status.Phase == session.PhaseError:
		return errorStyle.Render(text)
	case m.snap.State == fsm.StateListening:
		return listeningStyle.Render(text)
	default:
		return statusStyle.Render(text)
	}
}

func (m Model) displayView() string {
	display := m.snap.Display
	switch display.Kind {
	case render.KindBlank:
		return ""
	case render.KindLoading:
		return statusStyle.Render(display.Notice)
	case render.KindError:
		return errorStyle.Render(display.Notice)
	case render.KindEmpty:
		return noticeStyle.Render(display.Notice)
	}

	blocks := make([]string, 0, len(display.Entries)+1)
	blocks = append(blocks, statusStyle.Render(fmt.Sprintf(m.messages.Found, len(display.Entries))))
	for _, entry := range display.Entries {
		blocks = append(blocks, entryStyle.Render(m.entryView(entry)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func (m Model) entryView(entry render.Entry) string {
	lines := []string{
		subjectStyle.Render(entry.Subject) + "  " + entry.Date,
		labelStyle.Render(m.messages.Time+":") + " " + entry.TimeRange,
		labelStyle.Render(m.messages.Course+":") + " " + entry.Course,
		labelStyle.Render(m.messages.Location+":") + " " + entry.Location,
	}
	if entry.DetailPath != "" {
		lines = append(lines, labelStyle.Render(m.messages.Detail+":")+" "+linkStyle.Render(entry.DetailPath))
	}
	return strings.Join(lines, "\n")
}

func (m Model) footer() string {
	keys := make([]string, 0, 3)
	if m.enabled {
		keys = append(keys,
			footerKeyStyle.Render(KeyStart)+" "+footerDescStyle.Render(m.messages.KeyStart),
			footerKeyStyle.Render(KeyClose)+" "+footerDescStyle.Render(m.messages.KeyClose),
		)
	}
	keys = append(keys, footerKeyStyle.Render(KeyQuit)+" "+footerDescStyle.Render(m.messages.KeyQuit))
	return strings.Join(keys, "  ")
}
