package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/multierr"

	"github.com/atomicstack/vault-browser/internal/api"
	"github.com/atomicstack/vault-browser/internal/backend"
	"github.com/atomicstack/vault-browser/internal/bus"
	"github.com/atomicstack/vault-browser/internal/conductor"
	"github.com/atomicstack/vault-browser/internal/logging"
	"github.com/atomicstack/vault-browser/internal/logging/events"
	"github.com/atomicstack/vault-browser/internal/metrics"
	"github.com/atomicstack/vault-browser/internal/state"
	"github.com/atomicstack/vault-browser/internal/ui"
)

// Config describes user-provided application options.
type Config struct {
	APIURL           string
	RootID           string
	PageSize         int
	Ordering         string
	Timeout          time.Duration
	CacheCapacity    int
	BatchConcurrency int
	Width            int
	Height           int
	ShowFooter       bool
	MetricsAddr      string
}

const (
	bridgeBuffer = 64
	historyLimit = 100
)

// Run wires the bus, conductor and view layer, then executes the Bubble Tea
// program until the user quits.
func Run(ctx context.Context, cfg Config) (err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer func() { events.App.Stop(err) }()

	b := bus.New()
	client := api.New(api.Config{BaseURL: cfg.APIURL, Timeout: cfg.Timeout})
	c := conductor.New(conductor.Options{
		Bus:              b,
		Resources:        client,
		Cache:            state.NewCache(state.CacheOptions{Capacity: cfg.CacheCapacity}),
		History:          state.NewHistory(historyLimit),
		PageSize:         cfg.PageSize,
		Ordering:         cfg.Ordering,
		BatchConcurrency: cfg.BatchConcurrency,
	})
	if err := c.Start(); err != nil {
		return fmt.Errorf("start conductor: %w", err)
	}
	defer c.Stop()

	bridge, err := backend.NewBridge(b, bridgeBuffer)
	if err != nil {
		return fmt.Errorf("attach bridge: %w", err)
	}
	defer bridge.Stop()

	_, stopMetrics, err := serveMetrics(cfg.MetricsAddr)
	if err != nil {
		return err
	}

	model := ui.NewModel(ui.Options{
		Context:    ctx,
		Publisher:  b,
		Bridge:     bridge,
		History:    c,
		RootID:     cfg.RootID,
		Width:      cfg.Width,
		Height:     cfg.Height,
		ShowFooter: cfg.ShowFooter,
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		err = nil
	}
	return multierr.Append(err, stopMetrics())
}

// serveMetrics exposes the Prometheus registry when addr is set. It returns
// the bound address and a function that shuts the listener down.
func serveMetrics(addr string) (string, func() error, error) {
	if addr == "" {
		return "", func() error { return nil }, nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("metrics listen: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	events.App.MetricsListen(ln.Addr().String())
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error(fmt.Errorf("metrics server: %w", err))
		}
	}()
	return ln.Addr().String(), func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}, nil
}
