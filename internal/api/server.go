package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/oogwaaay/novel-ai-platform-sub002/internal/config"
	"github.com/oogwaaay/novel-ai-platform-sub002/internal/ctxcache"
	"github.com/oogwaaay/novel-ai-platform-sub002/internal/generate"
	"github.com/oogwaaay/novel-ai-platform-sub002/internal/pipeline"
	"github.com/oogwaaay/novel-ai-platform-sub002/internal/versions"
)

// Server is the HTTP API for merging, context compression, project versions
// and story generation.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	projects     *versions.Service
	cache        ctxcache.Cache
	claude       *generate.ClaudeClient
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. cache and claude may be
// nil.
func NewServer(orch *pipeline.Orchestrator, projects *versions.Service, cache ctxcache.Cache, claude *generate.ClaudeClient, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		projects:     projects,
		cache:        cache,
		claude:       claude,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/merge", s.handleMerge)
		r.Post("/api/merge/resolve", s.handleResolve)

		r.Post("/api/context/compress", s.handleCompress)
		r.Post("/api/context/select", s.handleSelect)
		r.Get("/api/tiers", s.handleTiers)

		r.Route("/api/projects", func(r chi.Router) {
			r.Post("/", s.handleCreateProject)
			r.Route("/{projectID}", func(r chi.Router) {
				r.Get("/branches", s.handleListBranches)
				r.Post("/branches", s.handleCreateBranch)
				r.Get("/branches/{branch}", s.handleBranchHead)
				r.Post("/branches/{branch}/versions", s.handleCommitVersion)
				r.Get("/branches/{branch}/history", s.handleHistory)
				r.Post("/branches/{branch}/import", s.handleImport)
				r.Get("/versions/{hash}", s.handleVersion)
				r.Post("/merge", s.handleProjectMerge)
			})
		})

		r.Post("/api/generate", s.handleGenerate)
		r.Get("/api/generate/{jobID}/status", s.handleGenerateStatus)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

// pinger is implemented by caches backed by a remote store.
type pinger interface {
	Ping(ctx context.Context) error
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.cache.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			s.log.Warn("health check: redis unreachable", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "redis": err.Error()})
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
