package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fumiya-kume/cra/pkg/errors"
	"github.com/fumiya-kume/cra/pkg/review"
	"github.com/fumiya-kume/cra/pkg/storage"
)

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":        "cra",
		"version":     s.options.Version,
		"status":      "running",
		"environment": s.options.Environment,
	})
}

func (s *Server) cacheUp(ctx context.Context) bool {
	if s.deps.Cache == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.deps.Cache.Ping(ctx) == nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	redis := "down"
	if s.cacheUp(r.Context()) {
		redis = "up"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"version":     s.options.Version,
		"environment": s.options.Environment,
		"services": map[string]string{
			"redis":        redis,
			"llm_provider": s.options.LLMProvider,
		},
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.cacheUp(r.Context()) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "cache unavailable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleReviewSnippet(w http.ResponseWriter, r *http.Request) {
	var req review.SnippetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	resp, err := s.deps.Reviews.ReviewSnippet(r.Context(), req)
	s.metrics.observeReview("snippet", err)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnalyzeFile(w http.ResponseWriter, r *http.Request) {
	var req review.FileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		s.writeErr(w, r, errors.ValidationError("file_path is required"))
		return
	}
	resp, err := s.deps.Reviews.AnalyzeFile(r.Context(), req)
	s.metrics.observeReview("file", err)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": resp})
}

func (s *Server) handleReviewPR(w http.ResponseWriter, r *http.Request) {
	var req review.PRRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	resp, err := s.deps.Reviews.ReviewPullRequest(r.Context(), req)
	s.metrics.observeReview("pull_request", err)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": resp})
}

func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	rev, err := s.deps.Reviews.GetReview(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

type createRepositoryRequest struct {
	Name              string `json:"name"`
	FullName          string `json:"full_name"`
	URL               string `json:"url"`
	Platform          string `json:"platform"`
	AutoReviewEnabled *bool  `json:"auto_review_enabled"`
}

func (req createRepositoryRequest) validate() error {
	fields := []struct{ name, value string }{
		{"name", req.Name},
		{"full_name", req.FullName},
		{"url", req.URL},
		{"platform", req.Platform},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return errors.ValidationError(f.name + " is required")
		}
	}
	return nil
}

func (s *Server) requireStore(w http.ResponseWriter, r *http.Request) bool {
	if s.deps.Store == nil {
		s.writeErr(w, r, errors.ConfigurationError("repository storage is not configured"))
		return false
	}
	return true
}

func (s *Server) handleCreateRepository(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}
	var req createRepositoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		s.writeErr(w, r, err)
		return
	}

	repo := storage.NewRepository(req.Name, req.FullName, req.URL, req.Platform)
	if req.AutoReviewEnabled != nil {
		repo.AutoReviewEnabled = *req.AutoReviewEnabled
	}
	if err := s.deps.Store.CreateRepository(r.Context(), repo); err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, repo)
}

func (s *Server) handleListRepositories(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}
	repos, err := s.deps.Store.ListRepositories(r.Context())
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if repos == nil {
		repos = []storage.Repository{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"repositories": repos})
}

func (s *Server) handleGetRepository(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeErr(w, r, errors.ValidationError("invalid repository id"))
		return
	}
	repo, err := s.deps.Store.GetRepository(r.Context(), uint(id))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, repo)
}

type migrateRequest struct {
	Code          string `json:"code"`
	Language      string `json:"language"`
	SourceVersion string `json:"source_version"`
	TargetVersion string `json:"target_version"`
}

func (s *Server) handleMigrate(w http.ResponseWriter, r *http.Request) {
	if s.deps.Migrator == nil {
		s.writeErr(w, r, errors.ConfigurationError("migrations need an AI provider"))
		return
	}
	var req migrateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		s.writeErr(w, r, errors.ValidationError("code is required"))
		return
	}
	plan, err := s.deps.Migrator.SuggestMigration(r.Context(), req.Code, req.SourceVersion, req.TargetVersion, req.Language)
	s.metrics.observeReview("migration", err)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": plan})
}
