// Command server runs forumfront, the backend-for-frontend that holds each
// browser session's forum state and talks to the marketplace API on its
// behalf.
//
// Configuration comes from environment variables:
//
//	PORT               listen port (8080)
//	BACKEND_URL        marketplace API base URL (required)
//	BACKEND_TIMEOUT    per-request backend timeout (15s)
//	JWT_SECRET         session token signing key, 16+ chars (required)
//	SECURE_COOKIES     "true" to mark the session cookie Secure
//	CACHE_SIZE         max users kept in memory (5000)
//	CACHE_TTL          how long a cached user stays fresh (10m)
//	CACHE_DB_PATH      sqlite file for a persistent user cache (off)
//	MEDIA_CONCURRENCY  parallel reply-media requests per topic page (8)
//	SESSION_IDLE       idle time before a session is dropped (24h)
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sakif/forumfront/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(os.Getenv("LOG_LEVEL")),
	}))

	cfg := server.Config{
		Port:             envInt(logger, "PORT", 8080),
		BackendURL:       os.Getenv("BACKEND_URL"),
		BackendTimeout:   envDuration(logger, "BACKEND_TIMEOUT", 15*time.Second),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		SessionIdle:      envDuration(logger, "SESSION_IDLE", 24*time.Hour),
		SecureCookies:    os.Getenv("SECURE_COOKIES") == "true",
		CacheSize:        envInt(logger, "CACHE_SIZE", 5000),
		CacheTTL:         envDuration(logger, "CACHE_TTL", 10*time.Minute),
		CacheDBPath:      os.Getenv("CACHE_DB_PATH"),
		MediaConcurrency: envInt(logger, "MEDIA_CONCURRENCY", 8),
	}

	if cfg.BackendURL == "" {
		logger.Error("BACKEND_URL is required")
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		// Generate one with: openssl rand -hex 32
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	if cfg.CacheDBPath != "" {
		dir := filepath.Dir(cfg.CacheDBPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error("failed to create cache directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func envInt(logger *slog.Logger, key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		logger.Error("invalid integer in environment", slog.String("key", key), slog.String("value", raw))
		os.Exit(1)
	}
	return n
}

func envDuration(logger *slog.Logger, key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		logger.Error("invalid duration in environment", slog.String("key", key), slog.String("value", raw))
		os.Exit(1)
	}
	return d
}

func logLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
