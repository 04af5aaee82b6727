// Package server wires the application together: database, services,
// handlers, middleware, routes, and graceful shutdown.
//
// This is the composition root — every dependency is constructed here (or
// in main.go) and passed down explicitly. No package-level singletons: the
// database handle is opened once, owned by the Server, and closed on
// shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/txtshr/internal/auth"
	"github.com/sakif/txtshr/internal/handler"
	"github.com/sakif/txtshr/internal/middleware"
	sqliteRepo "github.com/sakif/txtshr/internal/repository/sqlite"
	"github.com/sakif/txtshr/internal/service"
)

// Config holds everything the server needs from the environment. A struct
// (rather than parameters) keeps wiring stable as options are added.
type Config struct {
	Port   int
	DBPath string

	// JWTSecret signs session tokens. Required — the API has protected
	// routes, so the server refuses to start without it.
	JWTSecret string

	// GitHub OAuth credentials. Optional: when empty, the GitHub routes
	// aren't registered and only email/password auth is available.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Server owns the router and the database handle.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB // closed during shutdown in Start
}

// New creates a Server and assembles the dependency chain:
//
//	sqlite.DB → TextService / AuthService → handlers → routes
//
// Each layer receives only what it needs — services get repository
// interfaces, handlers get services. Nothing below the repository imports
// the sqlite package.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("server: JWT secret is required")
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and the route table.
//
//	POST   /auth/register          → email+password signup
//	POST   /auth/login             → email+password login
//	GET    /auth/github/login      → redirect to GitHub          [if configured]
//	GET    /auth/github/callback   → complete OAuth, set cookie  [if configured]
//	POST   /auth/logout            → clear session cookie
//	GET    /api/me                 → current account              [auth]
//	GET    /api/me/texts           → caller's own texts           [auth]
//	POST   /api/texts              → create text                  [auth]
//	POST   /api/texts/anonymous    → create anonymous public text
//	GET    /api/texts              → public listing
//	GET    /api/texts/{id}         → full text                    [optional auth]
//	DELETE /api/texts/{id}         → delete own text              [auth]
func (s *Server) setupRoutes() error {
	// Global middleware, in order: request IDs for tracing, real client IPs
	// behind a proxy, panic recovery, then request logging.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" && s.config.GitHubClientSecret != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	} else {
		s.logger.Warn("GitHub OAuth not configured — only email/password auth available")
	}

	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	textService := service.NewTextService(s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, github, s.logger)
	textHandler := handler.NewTextHandler(textService, s.logger)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		if github != nil {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		}
	})

	s.router.Route("/api", func(r chi.Router) {
		// Public surface. getById carries OptionalAuth: the caller's
		// identity, if any, decides the private-text check in the service.
		r.Get("/texts", textHandler.HandleList)
		r.Post("/texts/anonymous", textHandler.HandleCreateAnonymous)
		r.With(auth.OptionalAuth(tokens)).Get("/texts/{id}", textHandler.HandleGetByID)

		// Protected surface.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Post("/texts", textHandler.HandleCreate)
			r.Delete("/texts/{id}", textHandler.HandleDelete)
			r.Get("/me", authHandler.HandleMe)
			r.Get("/me/texts", textHandler.HandleListMine)
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30s to
// finish, close the database (flushes the WAL, releases the file lock).
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
