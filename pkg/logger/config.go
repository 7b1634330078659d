package logger

import (
	"io"
	"log/slog"
)

type Backend string

const (
	BackendStd Backend = "std" // slog text handler
	BackendZap Backend = "zap" // slog-zap, JSON
)

type Config struct {
	Service    string
	Version    string
	InstanceID string

	Level   slog.Level
	Env     Env
	Backend Backend // default: zap for stage/prod, std for dev
	Debug   bool

	// Output defaults to os.Stdout. The TUI host points it at a file so
	// log lines never land on the alternate screen.
	Output io.Writer

	// Zap sampling
	SampleInitial    int
	SampleThereafter int

	AddSource bool
}
