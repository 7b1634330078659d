// Package watchdog logs an idle client out after a fixed number of ticks
// without user interaction.
package watchdog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/shieldnet/session-client/pkg/logger"
)

type State int

const (
	StateActive State = iota
	StateExpired
)

func (s State) String() string {
	if s == StateExpired {
		return "expired"
	}
	return "active"
}

// Pinger notifies the server that the client is alive.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Navigator leaves the current page.
type Navigator interface {
	Navigate(ctx context.Context, path string) error
}

type Config struct {
	Tick        time.Duration // 1s
	Threshold   int           // idle ticks tolerated; expiry on Threshold+1
	LogoutPath  string        // /logout
	PingTimeout time.Duration // 5s
}

type Option func(*Watchdog)

func WithClock(c clockwork.Clock) Option {
	return func(w *Watchdog) { w.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(w *Watchdog) { w.log = l }
}

type Watchdog struct {
	cfg    Config
	pinger Pinger
	nav    Navigator
	clock  clockwork.Clock
	log    *slog.Logger

	mu    sync.Mutex
	idle  int
	state State

	pings sync.WaitGroup
}

func New(cfg Config, pinger Pinger, nav Navigator, opts ...Option) *Watchdog {
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 300
	}
	if cfg.LogoutPath == "" {
		cfg.LogoutPath = "/logout"
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = 5 * time.Second
	}

	w := &Watchdog{
		cfg:    cfg,
		pinger: pinger,
		nav:    nav,
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.log == nil {
		w.log = logger.L().With(slog.String("component", "watchdog"))
	}
	return w
}

// OnInteraction resets the idle counter and dispatches one liveness ping.
// The ping runs on its own goroutine and its outcome is discarded.
func (w *Watchdog) OnInteraction() {
	w.mu.Lock()
	if w.state == StateExpired {
		w.mu.Unlock()
		return
	}
	w.idle = 0
	w.mu.Unlock()

	w.pings.Add(1)
	go w.dispatchPing()
}

func (w *Watchdog) dispatchPing() {
	defer w.pings.Done()

	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.PingTimeout)
	defer cancel()

	if err := w.pinger.Ping(ctx); err != nil {
		w.log.Debug("liveness ping dropped", slog.Any("err", err))
	}
}

// Tick advances the counter by one and expires the watchdog once it passes
// the threshold. Navigation happens on the expiring tick only.
func (w *Watchdog) Tick(ctx context.Context) State {
	w.mu.Lock()
	if w.state == StateExpired {
		w.mu.Unlock()
		return StateExpired
	}
	w.idle++
	if w.idle <= w.cfg.Threshold {
		w.mu.Unlock()
		return StateActive
	}
	w.state = StateExpired
	idle := w.idle
	w.mu.Unlock()

	w.log.Info("idle timeout, logging out",
		slog.Int("idle_seconds", idle), slog.String("path", w.cfg.LogoutPath))
	if err := w.nav.Navigate(ctx, w.cfg.LogoutPath); err != nil {
		w.log.Warn("logout navigation failed", slog.Any("err", err))
	}
	return StateExpired
}

// Run ticks every cfg.Tick until ctx is done or the watchdog expires.
// The ticker is stopped on return.
func (w *Watchdog) Run(ctx context.Context) error {
	if w.State() == StateExpired {
		return nil
	}
	ticker := w.clock.NewTicker(w.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			if w.Tick(ctx) == StateExpired {
				return nil
			}
		}
	}
}

// Wait blocks until every dispatched ping has settled.
func (w *Watchdog) Wait() { w.pings.Wait() }

func (w *Watchdog) Idle() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.idle
}

func (w *Watchdog) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Watchdog) Threshold() int { return w.cfg.Threshold }
