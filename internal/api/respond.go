package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/oogwaaay/novel-ai-platform-sub002/internal/versions"
)

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON body no larger than limit bytes. On failure it has
// already written the error response.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return false
		}
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// versionError maps version-service errors to HTTP status codes.
func versionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, versions.ErrInvalidName):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, versions.ErrProjectNotFound),
		errors.Is(err, versions.ErrBranchNotFound),
		errors.Is(err, versions.ErrCommitNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, versions.ErrProjectExists),
		errors.Is(err, versions.ErrNoChanges),
		errors.Is(err, versions.ErrNoCommonAncestor):
		jsonError(w, err.Error(), http.StatusConflict)
	default:
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
