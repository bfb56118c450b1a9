package api

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/oogwaaay/novel-ai-platform-sub002/internal/compress"
	"github.com/oogwaaay/novel-ai-platform-sub002/internal/ctxcache"
	"github.com/oogwaaay/novel-ai-platform-sub002/internal/generate"
	"github.com/oogwaaay/novel-ai-platform-sub002/internal/tier"
)

type compressRequest struct {
	Text        string `json:"text"`
	MaxWords    int    `json:"max_words"`
	RecentWords *int   `json:"recent_words"`
}

func (s *Server) handleCompress(w http.ResponseWriter, r *http.Request) {
	var req compressRequest
	if !decodeJSON(w, r, s.cfg.MaxUploadBytes, &req) {
		return
	}
	if req.MaxWords <= 0 {
		jsonError(w, "max_words must be positive", http.StatusBadRequest)
		return
	}
	recent := compress.DefaultRecentWords
	if req.RecentWords != nil {
		recent = *req.RecentWords
	}
	writeJSON(w, http.StatusOK, compress.Compress(req.Text, req.MaxWords, recent))
}

type selectRequest struct {
	Text       string   `json:"text"`
	Tier       string   `json:"tier"`
	MaxWords   int      `json:"max_words"`
	Strategy   string   `json:"strategy"`
	Characters []string `json:"characters"`
}

type selectResponse struct {
	compress.Result
	Strategy compress.Strategy `json:"strategy"`
	MaxWords int               `json:"max_words"`
	CacheHit bool              `json:"cache_hit"`
}

// handleSelect picks the context window for a tier, the configured default
// when none is named. An explicit max_words narrows the tier window but never
// widens it.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !decodeJSON(w, r, s.cfg.MaxUploadBytes, &req) {
		return
	}
	strategy, err := compress.ParseStrategy(req.Strategy)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := generate.ValidateCharacters(req.Characters); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	name := req.Tier
	if name == "" {
		name = s.cfg.DefaultTier
	}
	t, err := tier.Lookup(name)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	strategy = t.Clamp(strategy)
	maxWords := t.ContextWindowWords
	if req.MaxWords > 0 && req.MaxWords < maxWords {
		maxWords = req.MaxWords
	}

	res, hit, err := ctxcache.Select(r.Context(), s.cache, req.Text, maxWords, req.Characters, strategy)
	if err != nil {
		s.log.Warn("context cache degraded", "error", err, "request_id", middleware.GetReqID(r.Context()))
	}
	writeJSON(w, http.StatusOK, selectResponse{Result: res, Strategy: strategy, MaxWords: maxWords, CacheHit: hit})
}

func (s *Server) handleTiers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tiers":        tier.All(),
		"default_tier": s.cfg.DefaultTier,
	})
}
