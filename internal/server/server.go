// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the composition root — the one place where the entire
// dependency chain is assembled:
//
//	sqlite.DB → repositories → PasswordService/TokenService/SessionManager
//	          → UserService/PostService → handlers → routes
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get services, and nothing below the handlers knows
// about HTTP.
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

	"github.com/sakif/microblog/internal/auth"
	"github.com/sakif/microblog/internal/handler"
	"github.com/sakif/microblog/internal/middleware"
	sqliteRepo "github.com/sakif/microblog/internal/repository/sqlite"
	"github.com/sakif/microblog/internal/service"
)

// Config holds server configuration, loaded from the environment in
// cmd/server and passed here as a single value.
type Config struct {
	Port      int
	DBPath    string // path to the SQLite database file
	JWTSecret string // HMAC secret for session tokens
	// BcryptCost overrides the default work factor; 0 keeps the default.
	// Only tests should lower it.
	BcryptCost int
}

// Server owns the router and the resources that must be released on
// shutdown (the database connection).
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server with the full dependency graph wired.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
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

// setupRoutes configures middleware, wires the services, and registers all
// route handlers.
//
// ROUTE STRUCTURE:
//
//	POST   /auth/login             → authenticate, set session cookie
//	POST   /auth/logout            → destroy session (idempotent)
//	GET    /api/me                 → current user              [auth]
//	POST   /api/users              → register
//	GET    /api/users              → user roster               [admin]
//	GET    /api/users/{id}         → public profile
//	PUT    /api/users/{id}         → update profile            [auth]
//	DELETE /api/users/{id}         → delete account            [auth]
//	PUT    /api/users/{id}/admin   → grant/revoke admin        [admin]
//	GET    /api/posts              → list/search posts         [optional auth]
//	GET    /api/posts/{id}         → single post
//	POST   /api/posts              → publish post              [auth]
//	PUT    /api/posts/{id}         → edit post                 [auth]
//	DELETE /api/posts/{id}         → delete post               [auth]
func (s *Server) setupRoutes() error {
	// Global middleware — runs on every request, in order.
	s.router.Use(chimiddleware.RequestID) // X-Request-ID for tracing
	s.router.Use(chimiddleware.RealIP)    // real client IP from proxy headers
	s.router.Use(chimiddleware.Recoverer) // panics become 500s, not crashes
	s.router.Use(middleware.Logger(s.logger))

	// === AUTH / SESSION WIRING ===
	passwords := auth.NewPasswordService()
	if s.config.BcryptCost > 0 {
		passwords = auth.NewPasswordServiceWithCost(s.config.BcryptCost)
	}

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	sessions := auth.NewSessionManager(s.db.Users(), passwords, tokens, s.logger)

	// === SERVICES AND HANDLERS ===
	userService := service.NewUserService(s.db.Users(), passwords, s.logger)
	postService := service.NewPostService(s.db.Posts(), s.logger)

	authHandler := handler.NewAuthHandler(sessions, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	postHandler := handler.NewPostHandler(postService, s.logger)

	requireAuth := auth.RequireAuth(sessions)
	optionalAuth := auth.OptionalAuth(sessions)
	requireAdmin := auth.RequireAdmin(sessions)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.With(requireAuth).Get("/me", authHandler.HandleMe)

		r.Route("/users", func(r chi.Router) {
			r.Post("/", userHandler.HandleRegister)
			r.With(requireAdmin).Get("/", userHandler.HandleList)
			r.Get("/{id}", userHandler.HandleGet)
			r.With(requireAuth).Put("/{id}", userHandler.HandleUpdate)
			r.With(requireAuth).Delete("/{id}", userHandler.HandleDelete)
			r.With(requireAdmin).Put("/{id}/admin", userHandler.HandleSetAdmin)
		})

		r.Route("/posts", func(r chi.Router) {
			r.With(optionalAuth).Get("/", postHandler.HandleList)
			r.Get("/{id}", postHandler.HandleGet)
			r.With(requireAuth).Post("/", postHandler.HandleCreate)
			r.With(requireAuth).Put("/{id}", postHandler.HandleUpdate)
			r.With(requireAuth).Delete("/{id}", postHandler.HandleDelete)
		})
	})

	return nil
}

// Handler exposes the configured router. Tests mount this on httptest.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server and handles graceful shutdown.
//
// Shutdown order matters:
//  1. Stop accepting new connections
//  2. Wait for in-flight requests to finish (30s timeout)
//  3. Close the database (flushes WAL, releases the file lock)
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
