package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/shieldnet/session-client/internal/domain"
)

// Program runs the Model and lets other goroutines update it.
type Program struct {
	p    *tea.Program
	done chan struct{}
}

func NewProgram(m *Model, opts ...tea.ProgramOption) *Program {
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseAllMotion()}
	}
	return &Program{
		p:    tea.NewProgram(m, opts...),
		done: make(chan struct{}),
	}
}

// Run blocks until the program exits.
func (p *Program) Run() error {
	defer close(p.done)
	_, err := p.p.Run()
	return err
}

func (p *Program) Done() <-chan struct{} { return p.done }

func (p *Program) send(msg tea.Msg) {
	select {
	case <-p.done:
	default:
		p.p.Send(msg)
	}
}

func (p *Program) ReplaceParticipants(names []string) {
	p.send(participantsMsg(append([]string(nil), names...)))
}

func (p *Program) AddFile(f domain.SharedFile) { p.send(fileMsg(f)) }

func (p *Program) SetAutoExpire(minutes int) { p.send(autoExpireMsg(minutes)) }

func (p *Program) SetConnected(ok bool) { p.send(connectedMsg(ok)) }

// Notify shows a modal and blocks until the user dismisses it, ctx ends or
// the program exits.
func (p *Program) Notify(ctx context.Context, msg string) {
	ack := make(chan struct{})
	p.send(noticeMsg{text: msg, ack: ack})
	select {
	case <-ack:
	case <-ctx.Done():
	case <-p.done:
	}
}

// Leave shows the navigation target and stops the program.
func (p *Program) Leave(path string) { p.send(leaveMsg{path: path}) }

func (p *Program) Quit() { p.p.Quit() }
