package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/workfold/workfold/internal/events"
)

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	cached, err := s.cache.Count(r.Context())
	if err != nil {
		s.logger.Error("failed to count cached configs", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to count cached configs")
		return
	}

	respondJSON(w, http.StatusOK, HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		CachedConfigs: cached,
	})
}

// handleProjectFolders handles GET /project/{owner}/{repo}/folders.
// The view is always produced; failures inside the pipeline degrade to the
// ungrouped workflow list rather than an error response.
func (s *Server) handleProjectFolders(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	repo := chi.URLParam(r, "repo")
	if owner == "" || repo == "" {
		s.writeError(w, http.StatusBadRequest, "owner and repo are required")
		return
	}

	view := s.views.Build(r.Context(), owner, repo)
	respondJSON(w, http.StatusOK, view)
}

// handleProjectCacheClear handles POST /project/{owner}/{repo}/cache/clear.
func (s *Server) handleProjectCacheClear(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	repo := chi.URLParam(r, "repo")
	if owner == "" || repo == "" {
		s.writeError(w, http.StatusBadRequest, "owner and repo are required")
		return
	}

	if err := s.cache.Clear(r.Context(), owner, repo); err != nil {
		s.logger.Error("failed to clear cached config", "owner", owner, "repo", repo, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to clear cached config")
		return
	}
	s.hub.Publish(events.TypeCacheCleared, map[string]string{"owner": owner, "repo": repo})

	respondJSON(w, http.StatusOK, CacheClearResponse{Cleared: 1})
}

// handleCacheClear handles POST /cache/clear.
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	cleared, err := s.cache.ClearAll(r.Context())
	if err != nil {
		s.logger.Error("failed to clear config cache", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to clear config cache")
		return
	}
	s.hub.Publish(events.TypeCacheCleared, map[string]any{"scope": "all", "cleared": cleared})

	respondJSON(w, http.StatusOK, CacheClearResponse{Cleared: cleared})
}

// handleRateLimit handles GET /ratelimit.
func (s *Server) handleRateLimit(w http.ResponseWriter, r *http.Request) {
	rl, err := s.limits.Get(r.Context(), "core")
	if err != nil {
		s.logger.Error("failed to read rate limit", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read rate limit")
		return
	}
	if rl == nil {
		s.writeError(w, http.StatusNotFound, "no rate limit observed yet")
		return
	}

	respondJSON(w, http.StatusOK, RateLimitResponse{
		Resource:   rl.Resource,
		Remaining:  rl.Remaining,
		Ceiling:    rl.Ceiling,
		ResetAt:    rl.ResetAt.Unix(),
		ObservedAt: rl.ObservedAt.Unix(),
	})
}

// respondJSON is a helper to write JSON responses
func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}
