// Package web provides the HTTP API for running imports against a loaded atlas.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/csvimp/internal/atlas"
	"github.com/JonMunkholm/csvimp/internal/config"
	"github.com/JonMunkholm/csvimp/internal/core"
	mw "github.com/JonMunkholm/csvimp/internal/web/middleware"
)

// Database is what the server needs from the database layer.
type Database interface {
	// Executor returns an executor dedicated to one import run.
	Executor() core.Executor
	Ping(ctx context.Context) error
}

// Server is the HTTP server for csvimp serve.
type Server struct {
	cfg     *config.Config
	atlas   *atlas.Atlas
	db      Database
	limiter *core.ImportLimiter
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a Server for the maps in a.
func NewServer(cfg *config.Config, a *atlas.Atlas, db Database) *Server {
	s := &Server{
		cfg:     cfg,
		atlas:   a,
		db:      db,
		limiter: core.NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime),
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(securityHeaders)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(&s.cfg.Security))

		// Imports are bounded by IMPORT_TIMEOUT instead.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
			r.Get("/maps", s.handleListMaps)
			r.Get("/maps/{name}", s.handleGetMap)
		})

		r.Post("/imports/{name}", s.handleImport)
	})
}

// Start listens on the configured address until Shutdown is called. Start
// and Shutdown may be called from different goroutines.
func (s *Server) Start() error {
	slog.Info("server starting", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown waits for running imports, then stops the server. Imports still
// running when ctx expires are cancelled with their connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if n := s.limiter.ActiveCount(); n > 0 {
		slog.Info("waiting for imports to complete", "active", n)
		if err := s.limiter.WaitForDrain(ctx); err != nil {
			slog.Warn("imports did not complete in time", "error", err)
		}
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Imports: s.limiter.Status()}
	status := http.StatusOK
	if err := s.db.Ping(ctx); err != nil {
		slog.Warn("health check: database unreachable", "error", err)
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
