package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/shieldnet/session-client/config"
	"github.com/shieldnet/session-client/internal/app"
	"github.com/shieldnet/session-client/internal/ui"
	"github.com/shieldnet/session-client/internal/watchdog"
	"github.com/shieldnet/session-client/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// --- logger ---
	out, closeLog, err := logOutput(cfg)
	if err != nil {
		log.Fatalf("open log file: %v", err)
	}
	defer closeLog()

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
		Output:    out,
	})
	slog.Info("starting session-client", "version", cfg.Logging.Version, "mode", cfg.UI.Mode)

	// token: first argument, then config/env
	token := cfg.Room.Token
	if len(os.Args) > 1 && strings.TrimSpace(os.Args[1]) != "" {
		token = strings.TrimSpace(os.Args[1])
	}

	// --- host ---
	var newHost app.HostFactory
	switch cfg.UI.Mode {
	case config.ModePlain:
		newHost = func(w *watchdog.Watchdog) app.Host {
			return ui.NewPlainHost(w, os.Stdin, os.Stdout)
		}
	default:
		newHost = func(w *watchdog.Watchdog) app.Host {
			return ui.NewTUIHost(w, token)
		}
	}

	// --- run until navigation or signal ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg, token, newHost); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("session-client stopped with error", "err", err)
		closeLog()
		os.Exit(1)
	}
	slog.Info("stopped")
}

// logOutput keeps the terminal clean in TUI mode by logging to a file.
func logOutput(cfg *config.Config) (io.Writer, func(), error) {
	if cfg.Logging.File == "" {
		return os.Stderr, func() {}, nil
	}
	f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}
