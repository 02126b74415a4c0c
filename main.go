package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/atomicstack/vault-browser/internal/app"
	"github.com/atomicstack/vault-browser/internal/config"
	"github.com/atomicstack/vault-browser/internal/logging"
	"github.com/atomicstack/vault-browser/internal/logging/events"
)

func main() {
	cfg := config.MustLoad()
	logging.Configure(logging.Config{
		FilePath: cfg.Logging.FilePath,
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
	})
	logging.SetTraceEnabled(cfg.Logging.Trace)
	defer logging.Sync()

	terminals := probeTerminals(os.Stdin, os.Stdout, os.Stderr)
	events.App.Start(startupTracePayload(cfg, terminals))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, withTerminalSize(cfg.App, terminals)); err != nil {
		logging.Error(err)
		logging.Sync()
		fmt.Fprintf(os.Stderr, "vault-browser: %v\n", err)
		os.Exit(1)
	}
}

// startupTracePayload is the first trace entry of a session: how the
// browser was invoked and what it resolved that to.
func startupTracePayload(cfg config.Config, terminals []terminal) map[string]interface{} {
	flags := make(map[string]interface{}, len(cfg.Flags)+3)
	for k, v := range cfg.Flags {
		flags[k] = v
	}
	flags["trace"] = cfg.Logging.Trace
	flags["logFile"] = cfg.Logging.FilePath
	flags["logPath"] = logging.Path()
	payload := map[string]interface{}{
		"argv":      cfg.Args,
		"flags":     flags,
		"config":    cfg,
		"terminals": terminals,
	}
	exe, err := os.Executable()
	payload["executable"] = describe(exe, err)
	cwd, err := os.Getwd()
	payload["cwd"] = describe(cwd, err)
	return payload
}

func describe(value string, err error) string {
	if err != nil {
		return "error: " + err.Error()
	}
	return value
}

// terminal is what term reports for one standard descriptor.
type terminal struct {
	Name   string `json:"name"`
	TTY    bool   `json:"tty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Error  string `json:"error,omitempty"`
}

func probeTerminals(files ...*os.File) []terminal {
	out := make([]terminal, 0, len(files))
	for _, f := range files {
		t := terminal{Name: f.Name()}
		fd := int(f.Fd())
		if t.TTY = term.IsTerminal(fd); t.TTY {
			var err error
			if t.Width, t.Height, err = term.GetSize(fd); err != nil {
				t.Error = err.Error()
			}
		}
		out = append(out, t)
	}
	return out
}

// withTerminalSize fills an unset width or height from the first descriptor
// that reported a size.
func withTerminalSize(cfg app.Config, terminals []terminal) app.Config {
	for _, t := range terminals {
		if t.Width == 0 || t.Height == 0 {
			continue
		}
		if cfg.Width == 0 {
			cfg.Width = t.Width
		}
		if cfg.Height == 0 {
			cfg.Height = t.Height
		}
		break
	}
	return cfg
}
