package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"shortsmith/internal/analysis"
	"shortsmith/internal/api"
	"shortsmith/internal/cleanup"
	"shortsmith/internal/config"
	"shortsmith/internal/history"
	"shortsmith/internal/logging"
	"shortsmith/internal/pipeline"
	"shortsmith/internal/segment"
	"shortsmith/internal/services"
	"shortsmith/internal/testsupport"
	"shortsmith/internal/transform"
)

type stubAnalyzer struct {
	result analysis.Result
	urls   []string
}

func (s *stubAnalyzer) Analyze(_ context.Context, videoURL string) analysis.Result {
	s.urls = append(s.urls, videoURL)
	return s.result
}

type stubGenerator struct {
	outcome  pipeline.Outcome
	err      error
	requests []pipeline.Request
}

func (s *stubGenerator) Generate(_ context.Context, req pipeline.Request) (pipeline.Outcome, error) {
	s.requests = append(s.requests, req)
	return s.outcome, s.err
}

type harness struct {
	cfg       *config.Config
	store     *history.Store
	analyzer  *stubAnalyzer
	generator *stubGenerator
	server    *api.Server
}

func newHarness(t *testing.T, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	h := &harness{
		cfg:   cfg,
		store: store,
		analyzer: &stubAnalyzer{result: analysis.Result{
			Success: true,
			Segment: &segment.Segment{Start: 30, End: 75, Method: segment.MethodHeatmap, Confidence: segment.ConfidenceHigh},
		}},
		generator: &stubGenerator{},
	}
	srv, err := api.NewServer(api.Deps{
		Analyzer:  h.analyzer,
		Generator: h.generator,
		Store:     store,
	}, api.Options{
		Token:          cfg.API.Token,
		AllowedOrigins: []string{"https://studio.example"},
		Cleanup: cleanup.Options{
			DownloadsDir: cfg.Paths.DownloadsDir,
			OutputsDir:   cfg.Paths.OutputsDir,
			KeepOutputs:  true,
		},
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	h.server = srv
	return h
}

func (h *harness) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.server.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestNewServerRequiresCollaborators(t *testing.T) {
	if _, err := api.NewServer(api.Deps{}, api.Options{}, logging.NewNop()); err == nil {
		t.Fatal("expected error for missing deps")
	}
}

func TestHealthz(t *testing.T) {
	h := newHarness(t, testsupport.WithAPIToken("secret"))
	w := h.do(t, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decodeBody[api.HealthResponse](t, w)
	if resp.Status != "ok" {
		t.Fatalf("unexpected status %q", resp.Status)
	}
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected generated request id header")
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodGet, "/healthz", "", "X-Request-Id", "abc-123")
	if got := w.Header().Get("X-Request-Id"); got != "abc-123" {
		t.Fatalf("expected propagated request id, got %q", got)
	}
}

func TestBearerTokenRequired(t *testing.T) {
	h := newHarness(t, testsupport.WithAPIToken("secret"))

	w := h.do(t, http.MethodGet, "/api/v1/shorts", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	if resp := decodeBody[api.ErrorResponse](t, w); resp.Kind != "unauthorized" {
		t.Fatalf("unexpected kind %q", resp.Kind)
	}

	w = h.do(t, http.MethodGet, "/api/v1/shorts", "", "Authorization", "Bearer wrong")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", w.Code)
	}

	w = h.do(t, http.MethodGet, "/api/v1/shorts", "", "Authorization", "Bearer secret")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodPost, "/api/v1/analyze", `{"video_url":" https://www.youtube.com/watch?v=abc "}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(h.analyzer.urls) != 1 || h.analyzer.urls[0] != "https://www.youtube.com/watch?v=abc" {
		t.Fatalf("unexpected analyzer calls %v", h.analyzer.urls)
	}
	var resp struct {
		Success bool `json:"success"`
		Segment struct {
			StartTime int    `json:"start_time"`
			EndTime   int    `json:"end_time"`
			Method    string `json:"method"`
		} `json:"segment"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Segment.StartTime != 30 || resp.Segment.EndTime != 75 || resp.Segment.Method != "heatmap" {
		t.Fatalf("unexpected analysis body %s", w.Body.String())
	}
}

func TestAnalyzeFailureUsesKindStatus(t *testing.T) {
	h := newHarness(t)
	h.analyzer.result = analysis.Result{
		Success: false,
		Error:   "yt-dlp exited with status 1",
		Kind:    services.KindUpstreamUnavailable,
		Detail:  "ERROR: Video unavailable",
	}
	w := h.do(t, http.MethodPost, "/api/v1/analyze", `{"video_url":"https://youtu.be/abc"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Video unavailable") {
		t.Fatalf("expected detail in body, got %s", w.Body.String())
	}
}

func TestValidationErrors(t *testing.T) {
	h := newHarness(t)
	cases := []struct {
		name string
		path string
		body string
		want string
	}{
		{"missing url", "/api/v1/analyze", `{}`, "video_url is required"},
		{"bad url", "/api/v1/analyze", `{"video_url":"not a url"}`, "video_url must be a valid URL"},
		{"bad mode", "/api/v1/shorts", `{"video_url":"https://youtu.be/abc","mode":"square"}`, "mode must be one of: shorts, cut"},
		{"unknown field", "/api/v1/analyze", `{"video_url":"https://youtu.be/abc","extra":1}`, "invalid JSON body"},
		{"empty body", "/api/v1/analyze", ``, "request body is empty"},
		{"zero width", "/api/v1/geometry", `{"width":0,"height":1080}`, "width must be greater than 0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := h.do(t, http.MethodPost, tc.path, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
			resp := decodeBody[api.ErrorResponse](t, w)
			if resp.Kind != string(services.KindValidation) {
				t.Fatalf("expected validation kind, got %q", resp.Kind)
			}
			if !strings.Contains(resp.Error, tc.want) {
				t.Fatalf("expected %q in error, got %q", tc.want, resp.Error)
			}
		})
	}
	if len(h.generator.requests) != 0 {
		t.Fatalf("generator should not run on invalid input")
	}
}

func TestGenerateShort(t *testing.T) {
	h := newHarness(t)
	h.generator.outcome = pipeline.Outcome{
		Output:  "/tmp/clip_abc.mp4",
		Segment: segment.Segment{Start: 60, End: 90, Method: segment.MethodSmartDefault, Confidence: segment.ConfidenceLow},
		Mode:    transform.ModeCut,
		Title:   "Short: Example",
	}
	body := `{"video_url":"https://youtu.be/abc","start_time":"1:00","end_time":"1:30","mode":"cut"}`
	w := h.do(t, http.MethodPost, "/api/v1/shorts", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if len(h.generator.requests) != 1 {
		t.Fatalf("expected one generate call, got %d", len(h.generator.requests))
	}
	req := h.generator.requests[0]
	if req.Mode != transform.ModeCut || req.StartTime != "1:00" || req.EndTime != "1:30" || req.AutoDetect {
		t.Fatalf("unexpected pipeline request %+v", req)
	}
	if !strings.Contains(w.Body.String(), `"output":"/tmp/clip_abc.mp4"`) {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestGenerateFailureReportsDiagnostics(t *testing.T) {
	h := newHarness(t)
	h.generator.err = services.Wrap(services.ErrProcessing, "transform", "encode", "ffmpeg failed",
		&services.ToolError{Tool: "ffmpeg", ExitCode: 1, Stderr: "Invalid data found when processing input"})
	w := h.do(t, http.MethodPost, "/api/v1/shorts", `{"video_url":"https://youtu.be/abc","auto_detect":true}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	resp := decodeBody[api.ErrorResponse](t, w)
	if resp.Kind != string(services.KindProcessing) {
		t.Fatalf("unexpected kind %q", resp.Kind)
	}
	if resp.Detail != "Invalid data found when processing input" {
		t.Fatalf("unexpected detail %q", resp.Detail)
	}
}

func TestListAndGetShorts(t *testing.T) {
	h := newHarness(t)
	first := testsupport.NewEntry(t, h.store, "https://youtu.be/one", "/tmp/one.mp4")
	testsupport.NewEntry(t, h.store, "https://youtu.be/two", "/tmp/two.mp4")

	w := h.do(t, http.MethodGet, "/api/v1/shorts?limit=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	list := decodeBody[api.ShortListResponse](t, w)
	if len(list.Shorts) != 1 {
		t.Fatalf("expected limit to apply, got %d shorts", len(list.Shorts))
	}

	w = h.do(t, http.MethodGet, "/api/v1/shorts?limit=zero", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", w.Code)
	}

	w = h.do(t, http.MethodGet, "/api/v1/shorts/"+itoa(first.ID), "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	got := decodeBody[api.ShortResponse](t, w)
	if got.Short == nil || got.Short.VideoURL != "https://youtu.be/one" {
		t.Fatalf("unexpected short %+v", got.Short)
	}
}

func TestGetShortErrors(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/api/v1/shorts/999", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if resp := decodeBody[api.ErrorResponse](t, w); resp.Kind != string(services.KindNotFound) {
		t.Fatalf("unexpected kind %q", resp.Kind)
	}

	w = h.do(t, http.MethodGet, "/api/v1/shorts/abc", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", w.Code)
	}

	w = h.do(t, http.MethodGet, "/api/v2/nothing", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown route, got %d", w.Code)
	}
}

func TestMarkUploadedWithCleanup(t *testing.T) {
	h := newHarness(t)
	output := filepath.Join(h.cfg.Paths.OutputsDir, "short_abc.mp4")
	testsupport.WriteFile(t, output, 1024)
	testsupport.WriteFile(t, filepath.Join(h.cfg.Paths.DownloadsDir, "source.mp4"), 2048)
	pending := filepath.Join(h.cfg.Paths.OutputsDir, "short_pending.mp4")
	testsupport.WriteFile(t, pending, 1024)
	entry := testsupport.NewEntry(t, h.store, "https://youtu.be/abc", output)

	w := h.do(t, http.MethodPost, "/api/v1/shorts/"+itoa(entry.ID)+"/uploaded", `{"video_id":" xyz789 ","cleanup":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[api.MarkUploadedResponse](t, w)
	if resp.Short == nil || !resp.Short.Uploaded || resp.Short.UploadedVideoID != "xyz789" {
		t.Fatalf("unexpected short %+v", resp.Short)
	}
	if resp.CleanedFiles != 2 {
		t.Fatalf("expected 2 cleaned files, got %d", resp.CleanedFiles)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Fatalf("expected output removed, stat err=%v", err)
	}
	if _, err := os.Stat(pending); err != nil {
		t.Fatalf("shorts not yet uploaded must be kept: %v", err)
	}
}

func TestMarkUploadedRequiresVideoID(t *testing.T) {
	h := newHarness(t)
	entry := testsupport.NewEntry(t, h.store, "https://youtu.be/abc", "/tmp/abc.mp4")
	w := h.do(t, http.MethodPost, "/api/v1/shorts/"+itoa(entry.ID)+"/uploaded", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestDeleteShortRemovesFile(t *testing.T) {
	h := newHarness(t)
	output := filepath.Join(h.cfg.Paths.OutputsDir, "short_del.mp4")
	testsupport.WriteFile(t, output, 512)
	entry := testsupport.NewEntry(t, h.store, "https://youtu.be/abc", output)

	w := h.do(t, http.MethodDelete, "/api/v1/shorts/"+itoa(entry.ID), "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[api.DeleteResponse](t, w)
	if !resp.Deleted || !resp.FileRemoved {
		t.Fatalf("unexpected delete response %+v", resp)
	}
	if _, err := h.store.Get(context.Background(), entry.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected entry gone, got %v", err)
	}
}

func TestGeometryEndpoint(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodPost, "/api/v1/geometry", `{"width":1920,"height":1080,"rotation_mode":"scale"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var plan struct {
		Rotate    bool `json:"rotate"`
		CropOrPad struct {
			Mode string `json:"mode"`
		} `json:"crop_or_pad"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &plan); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if plan.Rotate {
		t.Fatal("scale mode must not rotate")
	}
	if plan.CropOrPad.Mode != "crop" {
		t.Fatalf("expected crop for cover scaling, got %q", plan.CropOrPad.Mode)
	}
}

func TestSegmentEndpoint(t *testing.T) {
	h := newHarness(t)
	body := `{"duration":600,"heatmap":[{"start_time":100,"value":0.2},{"start_time":300,"value":0.9}]}`
	w := h.do(t, http.MethodPost, "/api/v1/segment", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Segment struct {
			StartTime int    `json:"start_time"`
			EndTime   int    `json:"end_time"`
			Method    string `json:"method"`
		} `json:"segment"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Segment.Method != "heatmap" || resp.Segment.StartTime != 270 || resp.Segment.EndTime != 330 {
		t.Fatalf("unexpected segment %+v", resp.Segment)
	}

	w = h.do(t, http.MethodPost, "/api/v1/segment", `{"duration":0}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero duration, got %d", w.Code)
	}

	w = h.do(t, http.MethodPost, "/api/v1/segment", `{"duration":0.5}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for sub-second duration, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "duration must be greater than or equal to 1") {
		t.Fatalf("unexpected error body %s", w.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t, testsupport.WithAPIToken("secret"))
	w := h.do(t, http.MethodOptions, "/api/v1/shorts", "",
		"Origin", "https://studio.example",
		"Access-Control-Request-Method", http.MethodPost,
	)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 preflight, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://studio.example" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
