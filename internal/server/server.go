package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/hearthapi/hearth/internal/auth"
	"github.com/hearthapi/hearth/internal/limiter"
	"github.com/hearthapi/hearth/internal/server/handler"
	"github.com/hearthapi/hearth/internal/server/middleware"
	"github.com/hearthapi/hearth/internal/store"
	"github.com/hearthapi/hearth/internal/token"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	Version         string
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
		Version:         "dev",
	}
}

// Server is the top-level HTTP server for hearth. It owns the Chi router,
// the store, the credential resolver, the token issuer, and the rate-limit
// ledger.
type Server struct {
	cfg        Config
	router     chi.Router
	store      *store.Store
	resolver   *auth.Resolver
	issuer     *token.Issuer
	ledger     limiter.Ledger
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, st *store.Store, resolver *auth.Resolver, issuer *token.Issuer, ledger limiter.Ledger, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		store:    st,
		resolver: resolver,
		issuer:   issuer,
		ledger:   ledger,
		logger:   logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-RetryAfter"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))

	// Every route below, authenticated or not, goes through admission
	// control first.
	r.Use(middleware.RateLimit(s.ledger, s.logger))

	healthHandler := handler.NewHealthHandler(s.cfg.Version)
	loginHandler := handler.NewLoginHandler(s.resolver, s.issuer, s.logger)
	postsHandler := handler.NewPostsHandler(s.store)

	// --- Health check (no auth required) ---
	r.Get("/health", healthHandler.Health)

	// --- Login: authenticates the request itself, not behind middleware ---
	r.Post("/api/login", loginHandler.Login)

	// --- Authenticated API routes ---
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(s.resolver))

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", postsHandler.List)
			r.Post("/", postsHandler.Create)
			r.Get("/{id}", postsHandler.Get)
			r.Put("/{id}", postsHandler.Update)
			r.Delete("/{id}", postsHandler.Delete)
		})
	})

	s.router = r
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests before returning.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Listen for shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start server in background goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
