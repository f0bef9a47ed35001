// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the composition root: main.go builds a Config, and New
// assembles every dependency from it:
//
//	backend.Client ─┬─ AuthService ── (user cache: memory, or memory over sqlite)
//	                ├─ TopicDetailService
//	                ├─ LikeService
//	                └─ ModerationService
//
// Handlers only see services; services only see the narrow backend
// interfaces they declare.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/forumfront/internal/auth"
	"github.com/sakif/forumfront/internal/backend"
	"github.com/sakif/forumfront/internal/handler"
	"github.com/sakif/forumfront/internal/middleware"
	"github.com/sakif/forumfront/internal/repository"
	"github.com/sakif/forumfront/internal/repository/memory"
	sqliteRepo "github.com/sakif/forumfront/internal/repository/sqlite"
	"github.com/sakif/forumfront/internal/service"
	"github.com/sakif/forumfront/internal/session"
)

// Config holds server configuration. Zero values take the package
// defaults of the component they configure.
type Config struct {
	Port int

	BackendURL     string
	BackendTimeout time.Duration

	JWTSecret     string
	SessionTTL    time.Duration
	SessionIdle   time.Duration
	SecureCookies bool

	CacheSize   int
	CacheTTL    time.Duration
	CacheDBPath string // empty keeps the user cache in memory only

	MediaConcurrency int
}

// Server represents the HTTP server and all its dependencies.
// The optional sqlite cache is owned by the server and closed on shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New wires the server. It fails when the backend URL or JWT secret is
// unusable, or the cache database cannot be opened.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	client, err := backend.New(backend.Config{
		BaseURL: cfg.BackendURL,
		Timeout: cfg.BackendTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating backend client: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}

	var cache repository.UserCache = memory.NewUserCache(cfg.CacheSize, cfg.CacheTTL)
	if cfg.CacheDBPath != "" {
		s.db, err = sqliteRepo.New(cfg.CacheDBPath, cfg.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("opening user cache database: %w", err)
		}
		pruned, err := s.db.Prune(context.Background())
		if err != nil {
			logger.Warn("pruning user cache failed", slog.String("error", err.Error()))
		} else if pruned > 0 {
			logger.Info("pruned stale cached users", slog.Int64("count", pruned))
		}
		cache = &repository.Tiered{Front: cache, Back: s.db}
	}

	store := session.NewStore(session.DefaultCapacity, cfg.SessionIdle, logger)
	s.setupRoutes(client, cache, tokens, store)
	return s, nil
}

// Handler returns the root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures middleware and routes.
//
// Middleware order: RequestID, RealIP, Recoverer, Logger, then Sessions so
// every handler below can rely on a session being present.
func (s *Server) setupRoutes(client *backend.Client, cache repository.UserCache, tokens *auth.TokenService, store *session.Store) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	authService := service.NewAuthService(client, cache, s.logger)
	details := service.NewTopicDetailService(client, authService, s.config.MediaConcurrency, s.logger)
	likes := service.NewLikeService(client, s.logger)
	moderation := service.NewModerationService(client, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	usersHandler := handler.NewUsersHandler(authService, s.logger)
	forumHandler := handler.NewForumHandler(client, details, likes, s.logger)
	adminHandler := handler.NewAdminHandler(moderation, client, s.logger)

	s.router.Group(func(r chi.Router) {
		r.Use(auth.Sessions(tokens, store, s.config.SecureCookies, s.logger))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/logout", authHandler.HandleLogout)
		})

		r.Route("/api", func(r chi.Router) {
			r.Get("/me", authHandler.HandleMe)
			r.With(auth.RequireUser).Patch("/me", authHandler.HandleUpdateMe)

			r.Get("/users", usersHandler.HandleBatch)
			r.Get("/users/{id}", usersHandler.HandleGet)

			r.Route("/forum", func(r chi.Router) {
				r.Get("/topics", forumHandler.HandleListTopics)
				r.Post("/topics", forumHandler.HandleCreateTopic)
				r.Post("/reload", forumHandler.HandleReload)
				r.Get("/categories", forumHandler.HandleCategories)
				r.Get("/topics/{id}", forumHandler.HandleTopic)
				r.Post("/topics/{id}/replies", forumHandler.HandleReply)
				r.Post("/topics/{id}/like", forumHandler.HandleLikeTopic)
				r.Delete("/topics/{id}/like", forumHandler.HandleUnlikeTopic)
				r.Post("/replies/{id}/like", forumHandler.HandleLikeReply)
				r.Delete("/replies/{id}/like", forumHandler.HandleUnlikeReply)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Get("/permissions", adminHandler.HandlePermissions)
				r.Get("/reports", adminHandler.HandleListReports)
				r.Put("/reports/{id}/approve", adminHandler.HandleApproveReport)
				r.Put("/reports/{id}/reject", adminHandler.HandleRejectReport)
				r.Get("/topics", adminHandler.HandleListTopics)
				r.Get("/topics/{id}", adminHandler.HandleGetTopic)
				r.Delete("/topics/{id}", adminHandler.HandleDeleteTopic)
				r.Put("/topics/{id}/highlight", adminHandler.HandleHighlight)
			})
		})
	})
}

// Start starts the HTTP server and handles graceful shutdown: stop
// accepting connections, give in-flight requests 30 seconds, then close
// the cache database.
func (s *Server) Start() error {
	if s.db != nil {
		defer s.db.Close()
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // topic pages fan out to many media requests
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("backend", s.config.BackendURL),
			slog.Bool("persistentCache", s.db != nil),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
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
