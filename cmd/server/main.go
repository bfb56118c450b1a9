package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oogwaaay/novel-ai-platform-sub002/internal/api"
	"github.com/oogwaaay/novel-ai-platform-sub002/internal/config"
	"github.com/oogwaaay/novel-ai-platform-sub002/internal/ctxcache"
	"github.com/oogwaaay/novel-ai-platform-sub002/internal/generate"
	"github.com/oogwaaay/novel-ai-platform-sub002/internal/pipeline"
	"github.com/oogwaaay/novel-ai-platform-sub002/internal/versions"
)

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.ReposDir != "" {
		if err := os.MkdirAll(cfg.ReposDir, 0o755); err != nil {
			log.Error("create repos dir", "dir", cfg.ReposDir, "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("REPOS_DIR not set, project history is kept in memory")
	}
	projects := versions.New(cfg.ReposDir)

	// Initialize clients.
	var cache ctxcache.Cache = ctxcache.NewMemoryCache(cfg.ContextCacheTTL)
	if cfg.RedisURL != "" {
		rc, err := ctxcache.NewRedisCache(cfg.RedisURL, cfg.ContextCacheTTL)
		if err != nil {
			log.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer rc.Close()
		cache = rc
	}
	claude := generate.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	defer claude.Close()

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, projects, claude, cache, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, projects, cache, claude, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting novel api", "port", cfg.Port, "model", claude.Model(), "redis", cfg.RedisURL != "")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		orch.Stop()
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
