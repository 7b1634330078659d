package ui

import (
	"context"
	"io"
)

// TUIHost runs the bubbletea program as the page.
type TUIHost struct {
	*Program
}

func NewTUIHost(w Watchdog, token string) *TUIHost {
	return &TUIHost{Program: NewProgram(NewModel(w, token))}
}

// Serve runs until the user quits, the host leaves, or ctx is done.
func (h *TUIHost) Serve(ctx context.Context) error {
	go func() {
		select {
		case <-ctx.Done():
			h.Quit()
		case <-h.Done():
		}
	}()
	return h.Run()
}

// PlainHost prints to out and treats each input line as an interaction.
type PlainHost struct {
	*Plain
	in io.Reader
	w  Interactor
}

func NewPlainHost(w Interactor, in io.Reader, out io.Writer) *PlainHost {
	return &PlainHost{Plain: NewPlain(out), in: in, w: w}
}

// Serve returns when ctx is done. Input is read on a separate goroutine
// because stdin reads cannot be interrupted.
func (h *PlainHost) Serve(ctx context.Context) error {
	if h.in != nil {
		go func() { _ = ReadInteractions(h.in, h.w.OnInteraction) }()
	}
	<-ctx.Done()
	return nil
}
