package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"shortsmith/internal/analysis"
	"shortsmith/internal/cleanup"
	"shortsmith/internal/geometry"
	"shortsmith/internal/history"
	"shortsmith/internal/logging"
	"shortsmith/internal/pipeline"
	"shortsmith/internal/services"
)

const (
	requestIDHeader = "X-Request-Id"
	maxBodyBytes    = 1 << 20
)

// Analyzer picks a segment for a URL.
type Analyzer interface {
	Analyze(ctx context.Context, videoURL string) analysis.Result
}

// Generator renders shorts.
type Generator interface {
	Generate(ctx context.Context, req pipeline.Request) (pipeline.Outcome, error)
}

// Store is the history subset the API needs.
type Store interface {
	Get(ctx context.Context, id int64) (*history.Entry, error)
	List(ctx context.Context, limit int) ([]*history.Entry, error)
	MarkUploaded(ctx context.Context, id int64, uploadedVideoID string) (*history.Entry, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// Deps bundles the collaborators behind the routes.
type Deps struct {
	Analyzer   Analyzer
	Generator  Generator
	Store      Store
	LLMEnabled bool
}

// Options configures auth, CORS, and the defaults used by stateless routes.
type Options struct {
	Token          string
	AllowedOrigins []string
	Cleanup        cleanup.Options
	Geometry       []geometry.Option
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	deps      Deps
	opts      Options
	router    *chi.Mux
	validator *requestValidator
	logger    *slog.Logger
}

// NewServer creates a server with all routes configured.
func NewServer(deps Deps, opts Options, logger *slog.Logger) (*Server, error) {
	if deps.Analyzer == nil || deps.Generator == nil || deps.Store == nil {
		return nil, services.Wrap(services.ErrConfiguration, "api", "init", "analyzer, generator, and store are required", nil)
	}
	s := &Server{
		deps:      deps,
		opts:      opts,
		router:    chi.NewRouter(),
		validator: newRequestValidator(),
		logger:    logging.NewComponentLogger(logger, "api"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(s.requestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.logRequests)
	s.router.Use(middleware.Recoverer)
	if len(s.opts.AllowedOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", requestIDHeader},
			ExposedHeaders: []string{requestIDHeader},
			MaxAge:         300,
		}))
	}
}

func (s *Server) setupRoutes() {
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, services.Wrap(services.ErrNotFound, "api", "route", r.URL.Path, nil))
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed", Kind: "method_not_allowed"})
	})

	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.requireToken)
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/geometry", s.handleGeometry)
		r.Post("/segment", s.handleSegment)
		r.Route("/shorts", func(r chi.Router) {
			r.Post("/", s.handleGenerate)
			r.Get("/", s.handleListShorts)
			r.Get("/{id}", s.handleGetShort)
			r.Delete("/{id}", s.handleDeleteShort)
			r.Post("/{id}/uploaded", s.handleMarkUploaded)
		})
	})
}

// requestID propagates or assigns a correlation ID and stores it on the context.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := services.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		logging.WithContext(r.Context(), s.logger).Log(r.Context(), level, "http request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", status),
			logging.Int("bytes", ww.BytesWritten()),
			logging.Duration("duration", time.Since(started)),
			logging.String("remote", r.RemoteAddr),
		)
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	token := strings.TrimSpace(s.opts.Token)
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, supplied, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") ||
			subtle.ConstantTimeCompare([]byte(strings.TrimSpace(supplied)), []byte(token)) != 1 {
			s.writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing or invalid bearer token", Kind: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// decode reads a JSON body into dst and validates it.
func (s *Server) decode(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return services.Wrap(services.ErrValidation, "api", "decode", "request body is empty", nil)
		}
		return services.Wrap(services.ErrValidation, "api", "decode", fmt.Sprintf("invalid JSON body: %v", err), nil)
	}
	return s.validator.Validate(dst)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := services.HTTPStatus(err)
	detail := services.Diagnostics(err)
	if detail == "" {
		detail = err.Error()
	}
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "request failed", "api_request_failed",
			logging.String("path", r.URL.Path),
			logging.Error(err),
		)
	}
	s.writeJSON(w, status, ErrorResponse{
		Error:  services.Summary(err),
		Kind:   string(services.Classify(err)),
		Detail: detail,
	})
}
