// Package server is the reference resource API. It exposes the tree nodes
// held by a db.Store in the wire format the browser's client expects.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atomicstack/vault-browser/internal/api"
	"github.com/atomicstack/vault-browser/internal/db"
)

const defaultPageSize = 100

// Options configures the handler.
type Options struct {
	Logger *zap.Logger
	// Timeout bounds each request; zero means 30s.
	Timeout time.Duration
}

// Server routes API calls to the store.
type Server struct {
	store  *db.Store
	log    *zap.Logger
	router chi.Router
}

// New builds the router.
func New(store *db.Store, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	s := &Server{store: store, log: opts.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.Timeout))

	r.Route("/api", func(r chi.Router) {
		r.Get("/", s.discover)
		r.Route("/"+api.ResourceTreeNodes, func(r chi.Router) {
			r.Get("/", s.listNodes)
			r.Post("/", s.createNode)
			r.Get("/{id}/", s.getNode)
			r.Patch("/{id}/", s.patchNode)
			r.Delete("/{id}/", s.deleteNode)
		})
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
