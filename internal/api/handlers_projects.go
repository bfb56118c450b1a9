package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/oogwaaay/novel-ai-platform-sub002/internal/manuscript"
	"github.com/oogwaaay/novel-ai-platform-sub002/internal/merge"
	"github.com/oogwaaay/novel-ai-platform-sub002/internal/versions"
)

const defaultHistoryLimit = 50

type createProjectRequest struct {
	ProjectID string `json:"project_id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Author    string `json:"author"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if !decodeJSON(w, r, s.cfg.MaxUploadBytes, &req) {
		return
	}
	if req.ProjectID == "" {
		jsonError(w, "project_id is required", http.StatusBadRequest)
		return
	}
	info, err := s.projects.CreateProject(req.ProjectID, versions.Content{Title: req.Title, Body: req.Body}, req.Author)
	if err != nil {
		versionError(w, err)
		return
	}
	s.log.Info("project created", "project_id", req.ProjectID, "commit", info.Hash)
	writeJSON(w, http.StatusCreated, map[string]any{
		"project_id": req.ProjectID,
		"branch":     versions.DefaultBranch,
		"commit":     info,
	})
}

func (s *Server) handleListBranches(w http.ResponseWriter, r *http.Request) {
	branches, err := s.projects.Branches(chi.URLParam(r, "projectID"))
	if err != nil {
		versionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"branches": branches})
}

type createBranchRequest struct {
	Name string `json:"name"`
	From string `json:"from"`
}

func (s *Server) handleCreateBranch(w http.ResponseWriter, r *http.Request) {
	var req createBranchRequest
	if !decodeJSON(w, r, 1<<20, &req) {
		return
	}
	if req.From == "" {
		req.From = versions.DefaultBranch
	}
	projectID := chi.URLParam(r, "projectID")
	if err := s.projects.CreateBranch(projectID, req.Name, req.From); err != nil {
		versionError(w, err)
		return
	}
	_, head, err := s.projects.Head(projectID, req.Name)
	if err != nil {
		versionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"branch": req.Name, "head": head})
}

func (s *Server) handleBranchHead(w http.ResponseWriter, r *http.Request) {
	content, head, err := s.projects.Head(chi.URLParam(r, "projectID"), chi.URLParam(r, "branch"))
	if err != nil {
		versionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"content": content, "commit": head})
}

// handleVersion returns the content stored at a commit. Abbreviated hashes
// are accepted.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	content, err := s.projects.At(chi.URLParam(r, "projectID"), hash)
	if err != nil {
		versionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hash": hash, "content": content})
}

type commitRequest struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	Author  string `json:"author"`
	Message string `json:"message"`
}

func (s *Server) handleCommitVersion(w http.ResponseWriter, r *http.Request) {
	var req commitRequest
	if !decodeJSON(w, r, s.cfg.MaxUploadBytes, &req) {
		return
	}
	if req.Message == "" {
		req.Message = "Save version"
	}
	info, err := s.projects.Commit(chi.URLParam(r, "projectID"), chi.URLParam(r, "branch"),
		versions.Content{Title: req.Title, Body: req.Body}, req.Author, req.Message)
	if err != nil {
		versionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	commits, err := s.projects.History(chi.URLParam(r, "projectID"), chi.URLParam(r, "branch"), limit)
	if err != nil {
		versionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"commits": commits})
}

// handleImport parses an uploaded manuscript file and commits its prose as a
// new version of the branch.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	// Limit total request size; extra 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1<<20)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !manuscript.IsSupported(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	parser, err := manuscript.ForFile(filename, manuscript.WithPdftotext(s.cfg.PDFFallbackPdftotext))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	doc, err := parser.Parse(bytes.NewReader(data), filename)
	if err != nil {
		jsonError(w, "failed to parse manuscript: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = doc.Title
	}
	message := r.FormValue("message")
	if message == "" {
		message = "Import " + filename
	}

	projectID, branch := chi.URLParam(r, "projectID"), chi.URLParam(r, "branch")
	info, err := s.projects.Commit(projectID, branch, versions.Content{Title: title, Body: doc.Body()}, r.FormValue("author"), message)
	if err != nil {
		versionError(w, err)
		return
	}
	s.log.Info("manuscript imported", "project_id", projectID, "branch", branch, "file", filename, "words", info.Words)
	writeJSON(w, http.StatusCreated, map[string]any{
		"commit":   info,
		"title":    title,
		"sections": len(doc.Sections),
	})
}

type projectMergeRequest struct {
	Source      string                     `json:"source"`
	Target      string                     `json:"target"`
	Strategy    string                     `json:"strategy"`
	Preview     bool                       `json:"preview"`
	Resolutions []merge.ConflictResolution `json:"resolutions"`
	Author      string                     `json:"author"`
	Message     string                     `json:"message"`
}

// handleProjectMerge previews or performs a branch merge. A merge with
// unresolved conflicts answers 409 with the conflicts so the client can send
// resolutions.
func (s *Server) handleProjectMerge(w http.ResponseWriter, r *http.Request) {
	var req projectMergeRequest
	if !decodeJSON(w, r, s.cfg.MaxUploadBytes, &req) {
		return
	}
	if req.Source == "" {
		jsonError(w, "source is required", http.StatusBadRequest)
		return
	}
	if req.Target == "" {
		req.Target = versions.DefaultBranch
	}
	strategy, err := s.mergeStrategy(req.Strategy)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	projectID := chi.URLParam(r, "projectID")

	if req.Preview {
		res, err := s.projects.PreviewMerge(projectID, req.Source, req.Target, strategy)
		if err != nil {
			versionError(w, err)
			return
		}
		base, err := s.projects.MergeBase(projectID, req.Source, req.Target)
		if err != nil {
			versionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"result": res, "base": base, "commit": nil})
		return
	}

	res, commit, err := s.projects.MergeBranch(projectID, req.Source, req.Target, strategy, req.Resolutions, req.Author, req.Message)
	if err != nil {
		versionError(w, err)
		return
	}
	if commit == nil && res.HasConflicts && len(req.Resolutions) == 0 {
		writeJSON(w, http.StatusConflict, map[string]any{"result": res, "commit": nil})
		return
	}
	if commit != nil {
		s.log.Info("branches merged", "project_id", projectID, "source", req.Source, "target", req.Target, "commit", commit.Hash)
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": res, "commit": commit})
}
