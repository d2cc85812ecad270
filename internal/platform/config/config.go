package config

import (
	"log/slog"
	"os"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr               string
	GitHubAPIBaseURL   string
	GitHubOAuthBaseURL string
	StatePath          string
	ShutdownTimeout    time.Duration
	LogLevel           slog.Level
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:            ":8080",
		StatePath:       "repocomply.db",
		ShutdownTimeout: 10 * time.Second,
		LogLevel:        slog.LevelInfo,
	}

	if addr := os.Getenv("REPOCOMPLY_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	// Base URL overrides exist for tests and GitHub Enterprise deployments.
	cfg.GitHubAPIBaseURL = os.Getenv("REPOCOMPLY_GITHUB_API_URL")
	cfg.GitHubOAuthBaseURL = os.Getenv("REPOCOMPLY_GITHUB_OAUTH_URL")
	if path := os.Getenv("REPOCOMPLY_STATE_PATH"); path != "" {
		cfg.StatePath = path
	}
	if raw := os.Getenv("REPOCOMPLY_SHUTDOWN_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			cfg.ShutdownTimeout = d
		}
	}
	if os.Getenv("REPOCOMPLY_DEBUG") == "true" {
		cfg.LogLevel = slog.LevelDebug
	}

	return cfg
}
