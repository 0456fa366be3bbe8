package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/atomic"
)

// RouteRegistrar registers routes with the server's router.
type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// ListenAddr is the address and port to listen on.
	ListenAddr string

	// AllowedOrigins are the browser origins allowed by CORS. Empty allows all.
	AllowedOrigins []string

	// RequestTimeout bounds each request, including waiting for a bid to
	// confirm.
	RequestTimeout time.Duration

	// GracefulShutdownDuration is the maximum time to wait for in-flight
	// requests during shutdown.
	GracefulShutdownDuration time.Duration

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns a config listening on addr.
func DefaultServerConfig(addr string) *ServerConfig {
	return &ServerConfig{
		ListenAddr:               addr,
		RequestTimeout:           3 * time.Minute,
		GracefulShutdownDuration: 10 * time.Second,
		ReadTimeout:              15 * time.Second,
		WriteTimeout:             3*time.Minute + 5*time.Second,
	}
}

// Server hosts the bidding API with liveness and readiness probes.
type Server struct {
	cfg     *ServerConfig
	isReady atomic.Bool
	srv     *http.Server
}

// NewServer builds a Server with the given route registrars.
func NewServer(cfg *ServerConfig, registrars ...RouteRegistrar) *Server {
	s := &Server{cfg: cfg}
	s.srv = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.createRouter(registrars),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	s.isReady.Store(true)
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) createRouter(registrars []RouteRegistrar) http.Handler {
	mux := chi.NewRouter()

	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Logger)
	mux.Use(middleware.Recoverer)

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	mux.Get("/livez", s.handleLivenessCheck)
	mux.Get("/readyz", s.handleReadinessCheck)

	mux.Group(func(r chi.Router) {
		if s.cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		}
		for _, registrar := range registrars {
			registrar.RegisterRoutes(r)
		}
	})

	return mux
}

func (s *Server) handleLivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"alive"}`))
}

func (s *Server) handleReadinessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !s.isReady.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"not ready"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// SetReady flips the readiness probe.
func (s *Server) SetReady(ready bool) {
	s.isReady.Store(ready)
}

// ListenAndServe serves until Shutdown is called.
func (s *Server) ListenAndServe() error {
	log.Printf("INFO: Starting HTTP server on %s", s.cfg.ListenAddr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown marks the server not ready and drains in-flight requests.
func (s *Server) Shutdown() error {
	s.isReady.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.GracefulShutdownDuration)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		log.Printf("ERROR: Graceful HTTP server shutdown failed: %v", err)
		return err
	}
	log.Printf("INFO: HTTP server gracefully stopped")
	return nil
}
