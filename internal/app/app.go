// Package app mounts the idle watchdog and the room bridge on a host and
// runs them until the host navigates away or quits.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/shieldnet/session-client/config"
	"github.com/shieldnet/session-client/internal/bridge"
	"github.com/shieldnet/session-client/internal/liveness"
	"github.com/shieldnet/session-client/internal/navigator"
	"github.com/shieldnet/session-client/internal/transport/ws"
	"github.com/shieldnet/session-client/internal/watchdog"
	"github.com/shieldnet/session-client/pkg/errs"
	"github.com/shieldnet/session-client/pkg/httputil"
	"github.com/shieldnet/session-client/pkg/logger"
)

const shutdownTimeout = 2 * time.Second

// Host is the page the components are mounted on.
type Host interface {
	bridge.View
	bridge.Notifier
	SetConnected(ok bool)
	Leave(path string)
	Serve(ctx context.Context) error
}

// HostFactory builds the host once the watchdog exists, since the host feeds
// it interactions.
type HostFactory func(w *watchdog.Watchdog) Host

type Option func(*options)

type options struct {
	httpClient *http.Client
	clock      clockwork.Clock
}

func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

func WithClock(c clockwork.Clock) Option {
	return func(o *options) { o.clock = c }
}

// Run blocks until the first navigation, the host quitting, or ctx ending.
func Run(ctx context.Context, cfg *config.Config, token string, newHost HostFactory, opts ...Option) error {
	if token == "" {
		return errs.ErrMissingToken
	}
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: cfg.Server.Timeout}
	}
	log := logger.FromCtx(ctx).With(slog.String("component", "app"))

	origin, err := httputil.ParseOrigin(cfg.Server.BaseURL, cfg.Server.Cookie)
	if err != nil {
		return err
	}

	nav := navigator.New(o.httpClient, origin)
	pinger := liveness.New(o.httpClient, origin, cfg.Idle.PingPath)
	wd := watchdog.New(watchdog.Config{
		Tick:        cfg.Idle.Tick,
		Threshold:   cfg.Idle.Threshold,
		LogoutPath:  cfg.Idle.LogoutPath,
		PingTimeout: cfg.Server.Timeout,
	}, pinger, nav, watchdog.WithClock(o.clock))
	host := newHost(wd)

	conn, err := ws.Dial(ctx, origin.WebsocketURL(cfg.Server.WSPath), origin.Header())
	if err != nil {
		return fmt.Errorf("connect room: %w", err)
	}
	b := bridge.New(conn, host, host, nav, bridge.Config{LandingPath: cfg.Room.LandingPath})
	if err := b.JoinSession(token); err != nil {
		_ = conn.Close()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	// the connection outlives runCtx so leave_room can still be flushed
	connCtx, connCancel := context.WithCancel(context.Background())
	defer connCancel()

	var (
		wg      sync.WaitGroup
		closing atomic.Bool
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		if err := wd.Run(runCtx); err != nil && runCtx.Err() == nil {
			log.Warn("watchdog stopped", slog.Any("err", err))
		}
	}()
	go func() {
		defer wg.Done()
		err := conn.Run(connCtx)
		if closing.Load() {
			return
		}
		log.Warn("room connection lost", slog.Any("err", err))
		host.SetConnected(false)
	}()
	go func() {
		defer wg.Done()
		select {
		case path, ok := <-nav.Left():
			if ok {
				host.Leave(path)
			}
			cancel()
		case <-runCtx.Done():
		}
	}()

	serveErr := host.Serve(runCtx)
	cancel()

	closing.Store(true)
	if !b.Ended() {
		if err := b.LeaveSession(); err != nil {
			log.Debug("leave room not sent", slog.Any("err", err))
		}
	}
	shCtx, shCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shCancel()
	if err := conn.Shutdown(shCtx); err != nil {
		log.Debug("ws close", slog.Any("err", err))
	}
	connCancel()

	wg.Wait()
	wd.Wait()
	log.Info("stopped", slog.String("state", wd.State().String()))
	return serveErr
}
