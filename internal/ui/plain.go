package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/shieldnet/session-client/internal/domain"
)

// Plain is a line-oriented view for non-interactive terminals and pipes.
type Plain struct {
	mu   sync.Mutex
	out  io.Writer
	list domain.ParticipantList
}

func NewPlain(out io.Writer) *Plain {
	return &Plain{out: out}
}

func (p *Plain) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.out, format, args...)
}

func (p *Plain) ReplaceParticipants(names []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.list.Replace(names)

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d):\n", MountID, p.list.Len())
	for _, n := range p.list.Names() {
		fmt.Fprintf(&b, "  - %s\n", SafeText(n, 0))
	}
	_, _ = io.WriteString(p.out, b.String())
}

func (p *Plain) Participants() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.list.Names()
}

func (p *Plain) AddFile(f domain.SharedFile) {
	p.printf("file: %s (from %s)\n", SafeText(f.Filename, 0), SafeText(f.Uploader, 0))
}

func (p *Plain) SetAutoExpire(minutes int) {
	p.printf("session auto-expires in %d min\n", minutes)
}

func (p *Plain) SetConnected(ok bool) {
	if ok {
		p.printf("connected\n")
		return
	}
	p.printf("disconnected\n")
}

// Notify prints msg. Nothing can be dismissed in a pipe, so it does not block.
func (p *Plain) Notify(_ context.Context, msg string) {
	p.printf("! %s\n", SafeText(msg, 0))
}

func (p *Plain) Leave(path string) {
	p.printf("navigated to %s\n", path)
}

// ReadInteractions calls fn for every line read from r until EOF.
func ReadInteractions(r io.Reader, fn func()) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fn()
	}
	return sc.Err()
}
