// Command vault-api serves the reference tree-resource API from a DuckDB
// store.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atomicstack/vault-browser/internal/config"
	"github.com/atomicstack/vault-browser/internal/db"
	"github.com/atomicstack/vault-browser/internal/logging"
	"github.com/atomicstack/vault-browser/internal/logging/events"
	"github.com/atomicstack/vault-browser/internal/metrics"
	"github.com/atomicstack/vault-browser/internal/server"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}
	logging.Configure(logging.Config{
		FilePath: cfg.LogFile,
		Level:    cfg.LogLevel,
		Format:   cfg.LogFormat,
	})
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Error(err)
		logging.Sync()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server) (err error) {
	log := logging.L().Named("vault-api")
	defer func() { events.Server.Shutdown(err) }()

	store, err := db.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.Seed {
		n, err := store.Seed(ctx)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		if n > 0 {
			events.Server.Seed(n)
			log.Info("seeded demo tree", zap.Int("nodes", n))
		}
	}

	root := chi.NewRouter()
	root.Handle("/metrics", metrics.Handler())
	root.Mount("/", server.New(store, server.Options{Logger: log}))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		events.Server.Listen(cfg.Addr, cfg.Database)
		log.Info("listening", zap.String("addr", cfg.Addr), zap.String("database", cfg.Database))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
