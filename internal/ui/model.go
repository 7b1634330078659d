// Package ui renders the room for the terminal host and turns terminal
// input into watchdog interactions.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/shieldnet/session-client/internal/domain"
)

const (
	// MountID names the participants panel.
	MountID = "participants"

	defaultNameWidth = 32
	refreshEvery     = time.Second
)

// Interactor receives user activity.
type Interactor interface {
	OnInteraction()
}

// IdleSource is read for the status line.
type IdleSource interface {
	Idle() int
	Threshold() int
}

type Watchdog interface {
	Interactor
	IdleSource
}

type (
	participantsMsg []string
	fileMsg         domain.SharedFile
	autoExpireMsg   int
	connectedMsg    bool
	noticeMsg       struct {
		text string
		ack  chan struct{}
	}
	leaveMsg   struct{ path string }
	refreshMsg time.Time
)

type Model struct {
	watchdog Watchdog
	token    string

	participants domain.ParticipantList
	files        []domain.SharedFile
	autoExpire   int // minutes, -1 = not set
	connected    bool

	notice *noticeMsg
	left   string

	width int
}

func NewModel(w Watchdog, token string) *Model {
	return &Model{
		watchdog:   w,
		token:      token,
		autoExpire: -1,
		connected:  true,
	}
}

func refreshCmd() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

func (m *Model) Init() tea.Cmd { return refreshCmd() }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		m.watchdog.OnInteraction()
		if m.notice != nil {
			m.ackNotice()
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
		return m, nil

	case tea.MouseMsg:
		m.watchdog.OnInteraction()
		if m.notice != nil && msg.Type == tea.MouseLeft {
			m.ackNotice()
		}
		return m, nil

	case participantsMsg:
		m.participants.Replace(msg)
		return m, nil

	case fileMsg:
		m.files = append(m.files, domain.SharedFile(msg))
		return m, nil

	case autoExpireMsg:
		m.autoExpire = int(msg)
		return m, nil

	case connectedMsg:
		m.connected = bool(msg)
		return m, nil

	case noticeMsg:
		if m.notice != nil {
			m.ackNotice()
		}
		m.notice = &msg
		return m, nil

	case leaveMsg:
		m.left = msg.path
		if m.notice != nil {
			m.ackNotice()
		}
		return m, tea.Quit

	case refreshMsg:
		return m, refreshCmd()
	}
	return m, nil
}

func (m *Model) ackNotice() {
	close(m.notice.ack)
	m.notice = nil
}

// Left is the path the host navigated to, empty if the user quit.
func (m *Model) Left() string { return m.left }

func (m *Model) Participants() []string { return m.participants.Names() }

func (m *Model) View() string {
	if m.left != "" {
		return mutedStyle.Render("navigating to "+m.left) + "\n"
	}
	if m.notice != nil {
		return modalStyle.Render(SafeText(m.notice.text, 0)+"\n\n"+mutedStyle.Render("press any key")) + "\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("ShieldNet session"))
	if m.token != "" {
		b.WriteString(mutedStyle.Render("  room " + MaskToken(m.token)))
	}
	b.WriteString("\n")

	panels := lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(m.renderParticipants()),
		panelStyle.Render(m.renderFiles()),
	)
	b.WriteString(panels)
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	return b.String()
}

// MaskToken keeps only the last few characters of a session token so the
// screen never shows the credential itself.
func MaskToken(token string) string {
	const visible = 4
	r := []rune(SafeText(token, 0))
	if len(r) <= visible {
		return strings.Repeat("•", len(r))
	}
	return "…" + string(r[len(r)-visible:])
}

func (m *Model) renderParticipants() string {
	var b strings.Builder
	names := m.participants.Names()
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s (%d)", MountID, len(names))))
	for _, n := range names {
		b.WriteString("\n• ")
		b.WriteString(SafeText(n, defaultNameWidth))
	}
	if len(names) == 0 {
		b.WriteString("\n" + mutedStyle.Render("nobody yet"))
	}
	return b.String()
}

func (m *Model) renderFiles() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("files (%d)", len(m.files))))
	for _, f := range m.files {
		b.WriteString("\n")
		b.WriteString(SafeText(f.Filename, defaultNameWidth))
		if f.Uploader != "" {
			b.WriteString(mutedStyle.Render(" by " + SafeText(f.Uploader, defaultNameWidth)))
		}
	}
	if len(m.files) == 0 {
		b.WriteString("\n" + mutedStyle.Render("no files"))
	}
	return b.String()
}

func (m *Model) renderStatus() string {
	parts := []string{
		fmt.Sprintf("idle %ds/%ds", m.watchdog.Idle(), m.watchdog.Threshold()),
	}
	if m.connected {
		parts = append(parts, "connected")
	} else {
		parts = append(parts, warnStyle.Render("disconnected"))
	}
	if m.autoExpire >= 0 {
		parts = append(parts, warnStyle.Render(fmt.Sprintf("auto-expires in %d min", m.autoExpire)))
	}
	parts = append(parts, "q to quit")
	return mutedStyle.Render(strings.Join(parts, " · "))
}
