package services_test

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"shortsmith/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrProcessing, "transform", "encode", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrProcessing) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transform", "encode", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsToProcessing(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrProcessing) {
		t.Fatalf("expected processing marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected default detail, got %q", err.Error())
	}
}

func TestClassifyAndHTTPStatus(t *testing.T) {
	cases := []struct {
		err    error
		kind   services.Kind
		status int
	}{
		{services.Wrap(services.ErrValidation, "segment", "select", "negative duration", nil), services.KindValidation, http.StatusBadRequest},
		{services.Wrap(services.ErrConfiguration, "geometry", "fit", "bad size", nil), services.KindConfiguration, http.StatusBadRequest},
		{services.Wrap(services.ErrProcessing, "transform", "encode", "ffmpeg failed", nil), services.KindProcessing, http.StatusUnprocessableEntity},
		{services.Wrap(services.ErrUpstreamUnavailable, "ytdlp", "metadata", "offline", nil), services.KindUpstreamUnavailable, http.StatusBadGateway},
		{services.Wrap(services.ErrNotFound, "history", "get", "missing", nil), services.KindNotFound, http.StatusNotFound},
		{services.Wrap(services.ErrTimeout, "transform", "encode", "deadline", nil), services.KindTimeout, http.StatusGatewayTimeout},
		{errors.New("plain"), services.KindInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := services.Classify(tc.err); got != tc.kind {
			t.Fatalf("Classify(%v) = %q, want %q", tc.err, got, tc.kind)
		}
		if got := services.HTTPStatus(tc.err); got != tc.status {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.status)
		}
	}
	if services.Classify(nil) != "" {
		t.Fatal("expected empty kind for nil error")
	}
}

func TestToolErrorCarriesDiagnostics(t *testing.T) {
	toolErr := &services.ToolError{
		Tool:     "ffmpeg",
		ExitCode: 1,
		Stderr:   "line one\nline two\nline three\nInvalid data found when processing input\n",
		Err:      errors.New("exit status 1"),
	}
	err := services.Wrap(services.ErrProcessing, "transform", "encode", "ffmpeg failed", toolErr)

	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("expected stderr tail in message, got %q", err.Error())
	}
	if strings.Contains(toolErr.Error(), "line one") {
		t.Fatalf("expected only the last lines in the summary, got %q", toolErr.Error())
	}
	diag := services.Diagnostics(err)
	if !strings.HasPrefix(diag, "line one") {
		t.Fatalf("expected full diagnostics, got %q", diag)
	}
	if services.Diagnostics(fmt.Errorf("plain")) != "" {
		t.Fatal("expected empty diagnostics without tool error")
	}
}

func TestSummaryTruncatesLongMessages(t *testing.T) {
	err := errors.New(strings.Repeat("x", 300) + "\nsecond line")
	summary := services.Summary(err)
	if strings.Contains(summary, "second line") {
		t.Fatalf("expected first line only, got %q", summary)
	}
	if !strings.HasSuffix(summary, "...") {
		t.Fatalf("expected truncation marker, got %q", summary)
	}
	if services.Summary(nil) != "" {
		t.Fatal("expected empty summary for nil error")
	}
}
