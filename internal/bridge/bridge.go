// Package bridge joins a transfer session's room and turns its events into
// view updates and navigation.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shieldnet/session-client/internal/domain"
	"github.com/shieldnet/session-client/internal/transport/ws"
	"github.com/shieldnet/session-client/pkg/errs"
	"github.com/shieldnet/session-client/pkg/logger"
)

const SessionEndedNotice = "Session ended by sender!"

// Conn is the shared room connection.
type Conn interface {
	On(typ string, h ws.HandlerFunc)
	Emit(typ string, payload any) error
}

// View is where room state is rendered.
type View interface {
	ReplaceParticipants(names []string)
	AddFile(f domain.SharedFile)
	SetAutoExpire(minutes int)
}

// Notifier shows a message and returns once the user has acknowledged it.
type Notifier interface {
	Notify(ctx context.Context, msg string)
}

type Navigator interface {
	Navigate(ctx context.Context, path string) error
}

type Config struct {
	LandingPath string // /online
}

type Bridge struct {
	conn     Conn
	view     View
	notifier Notifier
	nav      Navigator
	cfg      Config
	log      *slog.Logger

	mu    sync.Mutex
	token string
	ended bool
}

type Option func(*Bridge)

func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) { b.log = l }
}

// New subscribes the bridge to conn's room events.
func New(conn Conn, view View, notifier Notifier, nav Navigator, cfg Config, opts ...Option) *Bridge {
	if cfg.LandingPath == "" {
		cfg.LandingPath = "/online"
	}
	b := &Bridge{
		conn:     conn,
		view:     view,
		notifier: notifier,
		nav:      nav,
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.log == nil {
		b.log = logger.L().With(slog.String("component", "bridge"))
	}

	conn.On(ws.TypeParticipantsUpdate, b.handleParticipantsUpdate)
	conn.On(ws.TypeSessionEnded, b.handleSessionEnded)
	conn.On(ws.TypeFileAdded, b.handleFileAdded)
	conn.On(ws.TypeAutoExpireSet, b.handleAutoExpireSet)
	return b
}

// JoinSession remembers token and asks the server to join its room.
// Nothing is awaited: authorisation shows up later as room events, or not at all.
func (b *Bridge) JoinSession(token string) error {
	if token == "" {
		return errs.ErrMissingToken
	}
	b.mu.Lock()
	b.token = token
	b.mu.Unlock()

	if err := b.conn.Emit(ws.TypeJoinRoom, ws.JoinPayload{Token: token}); err != nil {
		return fmt.Errorf("join room: %w", err)
	}
	b.log.Info("join requested")
	return nil
}

// LeaveSession tells the server the client is leaving the held room.
func (b *Bridge) LeaveSession() error {
	token := b.Token()
	if token == "" {
		return nil
	}
	if err := b.conn.Emit(ws.TypeLeaveRoom, ws.JoinPayload{Token: token}); err != nil {
		return fmt.Errorf("leave room: %w", err)
	}
	return nil
}

func (b *Bridge) Token() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token
}

// Ended reports whether session_ended has been handled.
func (b *Bridge) Ended() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ended
}

func (b *Bridge) handleParticipantsUpdate(_ context.Context, payload json.RawMessage) {
	if b.Ended() {
		return
	}
	names, err := decodeParticipants(payload)
	if err != nil {
		b.log.Warn("participants_update dropped", slog.Any("err", err))
		return
	}
	b.view.ReplaceParticipants(names)
}

func (b *Bridge) handleSessionEnded(ctx context.Context, _ json.RawMessage) {
	b.mu.Lock()
	if b.ended {
		b.mu.Unlock()
		return
	}
	b.ended = true
	b.mu.Unlock()

	b.log.LogAttrs(ctx, slog.LevelInfo, "session ended by sender", logger.AttrsFromCtx(ctx)...)
	b.notifier.Notify(ctx, SessionEndedNotice)
	if err := b.nav.Navigate(ctx, b.cfg.LandingPath); err != nil {
		b.log.Warn("landing navigation failed", slog.Any("err", err))
	}
}

func (b *Bridge) handleFileAdded(_ context.Context, payload json.RawMessage) {
	if b.Ended() {
		return
	}
	var p ws.FileAddedPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.Filename == "" {
		b.log.Warn("file_added dropped", slog.Any("err", err))
		return
	}
	b.view.AddFile(domain.SharedFile{Filename: p.Filename, Uploader: p.Uploader})
}

func (b *Bridge) handleAutoExpireSet(_ context.Context, payload json.RawMessage) {
	if b.Ended() {
		return
	}
	var p ws.AutoExpirePayload
	if err := json.Unmarshal(payload, &p); err != nil || p.Minutes == nil || *p.Minutes < 0 {
		b.log.Warn("auto_expire_set dropped", slog.Any("err", err))
		return
	}
	b.view.SetAutoExpire(*p.Minutes)
}

// decodeParticipants accepts only {"participants": [string, ...]}.
func decodeParticipants(payload json.RawMessage) ([]string, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: participants_update payload is not an object", errs.ErrInvalidPayload)
	}
	var p ws.ParticipantsPayload
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidPayload, err)
	}
	if p.Participants == nil {
		return nil, fmt.Errorf("%w: participants missing or null", errs.ErrInvalidPayload)
	}
	names := make([]string, 0, len(*p.Participants))
	for i, n := range *p.Participants {
		if n == nil {
			return nil, fmt.Errorf("%w: participant %d is null", errs.ErrInvalidPayload, i)
		}
		names = append(names, *n)
	}
	return names, nil
}
