// Package config reads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/oogwaaay/novel-ai-platform-sub002/internal/merge"
	"github.com/oogwaaay/novel-ai-platform-sub002/internal/tier"
)

const defaultMaxUploadBytes = 50 << 20

type Config struct {
	Port     string
	LogLevel slog.Level

	// Auth
	APIKey string

	// Text generation
	AnthropicAPIKey string
	AnthropicModel  string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int
	JobTTL       time.Duration

	// Manuscript import
	MaxUploadBytes       int64
	PDFFallbackPdftotext bool

	// Project versions; empty keeps repositories in memory.
	ReposDir string

	// Compressed-context cache; empty REDIS_URL uses an in-process cache.
	RedisURL        string
	ContextCacheTTL time.Duration

	MergeStrategy merge.Strategy
	DefaultTier   string
}

func Load() Config {
	cfg := Config{
		Port:     envOr("PORT", "8090"),
		LogLevel: envLevel("LOG_LEVEL", slog.LevelInfo),

		APIKey: os.Getenv("NOVEL_API_KEY"),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),
		JobTTL:       envDuration("JOB_TTL", time.Hour),

		MaxUploadBytes:       envInt64("MAX_UPLOAD_BYTES", defaultMaxUploadBytes),
		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		ReposDir: os.Getenv("REPOS_DIR"),

		RedisURL:        os.Getenv("REDIS_URL"),
		ContextCacheTTL: envDuration("CONTEXT_CACHE_TTL", 30*time.Minute),

		MergeStrategy: merge.Strategy(envOr("MERGE_STRATEGY", string(merge.DefaultStrategy))),
		DefaultTier:   envOr("DEFAULT_TIER", "free"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = time.Hour
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.ContextCacheTTL <= 0 {
		cfg.ContextCacheTTL = 30 * time.Minute
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("NOVEL_API_KEY is required")
	}
	if c.AnthropicAPIKey == "" {
		return errors.New("ANTHROPIC_API_KEY is required")
	}
	if _, err := merge.ParseStrategy(string(c.MergeStrategy)); err != nil {
		return fmt.Errorf("MERGE_STRATEGY: %w", err)
	}
	if _, err := tier.Lookup(c.DefaultTier); err != nil {
		return fmt.Errorf("DEFAULT_TIER: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if n, err := strconv.ParseInt(os.Getenv(key), 10, 64); err == nil {
		return n
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}

func envLevel(key string, fallback slog.Level) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(os.Getenv(key)))); err == nil {
		return level
	}
	return fallback
}
