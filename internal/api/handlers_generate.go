package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/oogwaaay/novel-ai-platform-sub002/internal/compress"
	"github.com/oogwaaay/novel-ai-platform-sub002/internal/generate"
	"github.com/oogwaaay/novel-ai-platform-sub002/internal/pipeline"
	"github.com/oogwaaay/novel-ai-platform-sub002/internal/tier"
)

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if !decodeJSON(w, r, s.cfg.MaxUploadBytes, &req) {
		return
	}
	if strings.TrimSpace(req.Context) == "" && req.ProjectID == "" {
		jsonError(w, "context or project_id is required", http.StatusBadRequest)
		return
	}
	if req.AppendToProject && req.ProjectID == "" {
		jsonError(w, "append_to_project requires project_id", http.StatusBadRequest)
		return
	}
	if _, err := compress.ParseStrategy(string(req.Strategy)); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Tier != "" {
		if _, err := tier.Lookup(req.Tier); err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if err := generate.ValidateInstruction(req.Instruction); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := generate.ValidateCharacters(req.Characters); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	job, err := s.orchestrator.Submit(req)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrQueueFull) || errors.Is(err, pipeline.ErrStopped) {
			code = http.StatusServiceUnavailable
		}
		jsonError(w, err.Error(), code)
		return
	}

	s.log.Info("generation queued", "job_id", job.ID, "project_id", req.ProjectID, "queue_depth", s.orchestrator.QueueDepth())
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/generate/%s/status", job.ID),
	})
}

func (s *Server) handleGenerateStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}
