// Package server wires the application together: database, services,
// handlers, middleware and routes. It is the composition root; nothing else
// constructs dependencies.
//
// ROUTES:
//
//	GET    /healthz              liveness + database ping
//	POST   /users                register, sets the sessionId cookie
//	GET    /users/me             current user                 [session]
//	POST   /meals                create meal                  [session]
//	GET    /meals                list meals, oldest first     [session]
//	GET    /meals/metrics        adherence metrics            [session]
//	GET    /meals/{mealID}       show meal                    [session]
//	PUT    /meals/{mealID}       replace meal                 [session]
//	DELETE /meals/{mealID}       delete meal                  [session]
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/daily-diet/internal/auth"
	"github.com/sakif/daily-diet/internal/config"
	"github.com/sakif/daily-diet/internal/handler"
	"github.com/sakif/daily-diet/internal/middleware"
	sqliteRepo "github.com/sakif/daily-diet/internal/repository/sqlite"
	"github.com/sakif/daily-diet/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Server owns the router and the database pool. The pool is closed when
// Start returns or when Close is called.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens (and migrates) the database and builds the route tree.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	if cfg.DBPath != sqliteRepo.MemoryPath {
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
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
	s.setupRoutes()

	return s, nil
}

// setupRoutes installs middleware and routes.
//
// Middleware order matters: RequestID must run before Logger so each log
// line carries the ID, and Recoverer sits inside Logger so a panic is logged
// with its 500 status.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	if len(s.config.CORSOrigins) > 0 {
		// Credentials are required for the session cookie to cross origins.
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// s.db implements both repository interfaces; each service only sees
	// the one it needs.
	userService := service.NewUserService(s.db, s.logger)
	mealService := service.NewMealService(s.db, s.logger)

	cookie := auth.CookieOptions{MaxAge: s.config.SessionMaxAge, Secure: s.config.CookieSecure}
	userHandler := handler.NewUserHandler(userService, cookie, s.logger)
	mealHandler := handler.NewMealHandler(mealService, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	requireSession := auth.RequireSession(userService)

	s.router.Get("/healthz", healthHandler.HandleHealth)

	s.router.Route("/users", func(r chi.Router) {
		r.Post("/", userHandler.HandleRegister)
		r.With(requireSession).Get("/me", userHandler.HandleMe)
	})

	s.router.Route("/meals", func(r chi.Router) {
		r.Use(requireSession)

		r.Post("/", mealHandler.HandleCreate)
		r.Get("/", mealHandler.HandleList)
		// Static segment, so chi matches it ahead of /{mealID}.
		r.Get("/metrics", mealHandler.HandleMetrics)
		r.Get("/{mealID}", mealHandler.HandleGet)
		r.Put("/{mealID}", mealHandler.HandleUpdate)
		r.Delete("/{mealID}", mealHandler.HandleDelete)
	})
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start serves HTTP until ctx is cancelled or SIGINT/SIGTERM arrives, then
// drains in-flight requests for up to 30 seconds and closes the database.
func (s *Server) Start(ctx context.Context) error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
