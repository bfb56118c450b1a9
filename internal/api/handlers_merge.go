package api

import (
	"net/http"

	"github.com/oogwaaay/novel-ai-platform-sub002/internal/merge"
)

type mergeRequest struct {
	Base     string `json:"base"`
	Local    string `json:"local"`
	Remote   string `json:"remote"`
	Strategy string `json:"strategy"`
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if !decodeJSON(w, r, s.cfg.MaxUploadBytes, &req) {
		return
	}
	strategy, err := s.mergeStrategy(req.Strategy)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, merge.MergeWith(strategy, req.Base, req.Local, req.Remote))
}

type resolveRequest struct {
	Result      merge.MergeResult          `json:"result"`
	Resolutions []merge.ConflictResolution `json:"resolutions"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !decodeJSON(w, r, s.cfg.MaxUploadBytes, &req) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"merged": merge.ApplyConflictResolutions(req.Result, req.Resolutions),
	})
}

// mergeStrategy falls back to the configured strategy when name is empty.
func (s *Server) mergeStrategy(name string) (merge.Strategy, error) {
	if name == "" {
		name = string(s.cfg.MergeStrategy)
	}
	return merge.ParseStrategy(name)
}
