package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"shortsmith/internal/cleanup"
	"shortsmith/internal/geometry"
	"shortsmith/internal/history"
	"shortsmith/internal/logging"
	"shortsmith/internal/pipeline"
	"shortsmith/internal/segment"
	"shortsmith/internal/services"
	"shortsmith/internal/transform"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", LLM: s.deps.LLMEnabled})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	result := s.deps.Analyzer.Analyze(r.Context(), strings.TrimSpace(req.VideoURL))
	status := http.StatusOK
	if !result.Success {
		status = result.Kind.HTTPStatus()
	}
	s.writeJSON(w, status, result)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	mode, err := transform.ParseMode(req.Mode)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	outcome, err := s.deps.Generator.Generate(r.Context(), pipeline.Request{
		VideoURL:   strings.TrimSpace(req.VideoURL),
		StartTime:  strings.TrimSpace(req.StartTime),
		EndTime:    strings.TrimSpace(req.EndTime),
		AutoDetect: req.AutoDetect,
		Mode:       mode,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, outcome)
}

func (s *Server) handleListShorts(w http.ResponseWriter, r *http.Request) {
	limit := history.DefaultListLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "list shorts",
				fmt.Sprintf("limit must be a positive integer, got %q", raw), nil))
			return
		}
		limit = parsed
	}
	entries, err := s.deps.Store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*history.Entry{}
	}
	s.writeJSON(w, http.StatusOK, ShortListResponse{Shorts: entries})
}

func (s *Server) handleGetShort(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	entry, err := s.deps.Store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ShortResponse{Short: entry})
}

func (s *Server) handleMarkUploaded(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req MarkUploadedRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	entry, err := s.deps.Store.MarkUploaded(r.Context(), id, req.VideoID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := MarkUploadedResponse{Short: entry}
	if req.Cleanup {
		result := cleanup.AfterUpload(r.Context(), entry.OutputPath, s.opts.Cleanup, s.logger)
		resp.CleanedFiles = len(result.Removed)
		for _, failure := range result.Errors {
			logging.WarnWithContext(logging.WithContext(r.Context(), s.logger), "cleanup failed", "cleanup_failed",
				logging.String("path", failure.Path),
				logging.Error(failure.Error),
				logging.String(logging.FieldImpact, "file left on disk"),
			)
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteShort(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	entry, err := s.deps.Store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	deleted, err := s.deps.Store.Delete(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := DeleteResponse{Deleted: deleted}
	if path := strings.TrimSpace(entry.OutputPath); path != "" {
		switch err := os.Remove(path); {
		case err == nil:
			resp.FileRemoved = true
		case !errors.Is(err, os.ErrNotExist):
			logging.WarnWithContext(logging.WithContext(r.Context(), s.logger), "failed to remove short file", "short_file_remove_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "file left on disk"),
			)
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGeometry(w http.ResponseWriter, r *http.Request) {
	var req GeometryRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts := append([]geometry.Option{}, s.opts.Geometry...)
	if req.RotationMode != "" {
		mode, err := geometry.ParseRotationMode(req.RotationMode)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		opts = append(opts, geometry.WithRotation(mode))
	}
	if req.Scaling != "" {
		scaling, err := geometry.ParseScaling(req.Scaling)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		opts = append(opts, geometry.WithScaling(scaling))
	}
	plan, err := geometry.Fit(req.Width, req.Height, opts...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleSegment(w http.ResponseWriter, r *http.Request) {
	var req SegmentRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	seg, err := segment.Select(segment.Input{
		Duration: req.Duration,
		Heatmap:  req.Heatmap,
		Chapters: req.Chapters,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SegmentResponse{Segment: seg})
}

func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, services.Wrap(services.ErrValidation, "api", "parse id", fmt.Sprintf("invalid short id %q", raw), nil)
	}
	return id, nil
}
