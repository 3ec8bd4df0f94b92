package analysis_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"shortsmith/internal/analysis"
	"shortsmith/internal/logging"
	"shortsmith/internal/segment"
	"shortsmith/internal/services"
	"shortsmith/internal/services/ytdlp"
	"shortsmith/internal/textgen"
)

type stubRetriever struct {
	meta  ytdlp.VideoMetadata
	err   error
	calls int
}

func (s *stubRetriever) FetchMetadata(context.Context, string) (ytdlp.VideoMetadata, error) {
	s.calls++
	return s.meta, s.err
}

type stubCompleter struct {
	reply string
	err   error
}

func (s stubCompleter) Enabled() bool { return true }

func (s stubCompleter) Complete(context.Context, string, string) (string, error) {
	return s.reply, s.err
}

const videoURL = "https://www.youtube.com/watch?v=abc123"

func TestAnalyzeHeatmapPeak(t *testing.T) {
	retriever := &stubRetriever{meta: ytdlp.VideoMetadata{
		ID:       "abc123",
		Title:    "Lake Day",
		Duration: 600,
		Heatmap: []segment.HeatmapPoint{
			{StartTime: 50, Value: 0.2},
			{StartTime: 300, Value: 0.9},
			{StartTime: 301, Value: 0.9},
		},
	}}
	gen := textgen.New(stubCompleter{reply: "TITLE: Splash!\nDESCRIPTION: Into the lake #Shorts\nHASHTAGS: lake, summer"}, logging.NewNop())
	a := analysis.New(retriever, gen, logging.NewNop())

	res := a.Analyze(context.Background(), videoURL)
	if !res.Success || !res.AutoDetected {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Segment.Method != segment.MethodHeatmap || res.Segment.Confidence != segment.ConfidenceHigh {
		t.Fatalf("unexpected segment %+v", res.Segment)
	}
	if res.Segment.Start != 270 || res.Segment.End != 330 {
		t.Fatalf("expected 270-330, got %v-%v", res.Segment.Start, res.Segment.End)
	}
	if res.Metadata.Title != "Splash!" || !res.Metadata.AIGenerated {
		t.Fatalf("unexpected metadata %+v", res.Metadata)
	}
	if res.Err() != nil {
		t.Fatalf("unexpected error %v", res.Err())
	}
}

func TestAnalyzeFallsBackWhenTextGenerationFails(t *testing.T) {
	retriever := &stubRetriever{meta: ytdlp.VideoMetadata{ID: "x", Title: "Short Clip", Duration: 40}}
	gen := textgen.New(stubCompleter{err: services.ErrUpstreamUnavailable}, nil)

	res := analysis.New(retriever, gen, nil).Analyze(context.Background(), videoURL)
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Segment.Method != segment.MethodSmartDefault || res.Segment.Start != 0 || res.Segment.End != 40 {
		t.Fatalf("unexpected segment %+v", res.Segment)
	}
	if res.Metadata.AIGenerated || res.Metadata.Description != "#Shorts\n\nClip from: Short Clip" {
		t.Fatalf("expected templated metadata, got %+v", res.Metadata)
	}
}

func TestAnalyzeReportsRetrieverFailure(t *testing.T) {
	toolErr := &services.ToolError{Tool: "yt-dlp", ExitCode: 1, Stderr: "ERROR: Sign in to confirm you're not a bot"}
	retriever := &stubRetriever{err: services.Wrap(services.ErrUpstreamUnavailable, "ytdlp", "fetch metadata", "yt-dlp failed", toolErr)}

	res := analysis.New(retriever, nil, nil).Analyze(context.Background(), videoURL)
	if res.Success || res.Segment != nil {
		t.Fatalf("expected failure, got %+v", res)
	}
	if res.Kind != services.KindUpstreamUnavailable {
		t.Fatalf("unexpected kind %q", res.Kind)
	}
	if !strings.HasPrefix(res.Error, "upstream unavailable: ytdlp: fetch metadata") {
		t.Fatalf("unexpected error %q", res.Error)
	}
	if res.Detail != "ERROR: Sign in to confirm you're not a bot" {
		t.Fatalf("unexpected detail %q", res.Detail)
	}
	if !errors.Is(res.Err(), services.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream error, got %v", res.Err())
	}
}

func TestAnalyzeRejectsUnknownDuration(t *testing.T) {
	retriever := &stubRetriever{meta: ytdlp.VideoMetadata{ID: "live", Title: "Live"}}
	res := analysis.New(retriever, nil, nil).Analyze(context.Background(), videoURL)
	if res.Success || res.Kind != services.KindValidation {
		t.Fatalf("expected validation failure, got %+v", res)
	}
}

func TestAnalyzeRejectsBadURL(t *testing.T) {
	retriever := &stubRetriever{}
	res := analysis.New(retriever, nil, nil).Analyze(context.Background(), "not a url")
	if res.Success || res.Kind != services.KindValidation {
		t.Fatalf("expected validation failure, got %+v", res)
	}
	if retriever.calls != 0 {
		t.Fatal("retriever should not be called for an invalid URL")
	}
}

func TestAnalyzeWithCustomChain(t *testing.T) {
	retriever := &stubRetriever{meta: ytdlp.VideoMetadata{
		ID:       "c",
		Title:    "Chapters",
		Duration: 300,
		Chapters: []segment.Chapter{
			{Title: "Intro", StartTime: 0, EndTime: 60},
			{Title: "The Finale", StartTime: 200, EndTime: 300},
		},
	}}
	chain := segment.Chain{segment.ChapterStrategy{Keywords: []string{"finale"}}}
	res := analysis.New(retriever, nil, nil, analysis.WithChain(chain)).Analyze(context.Background(), videoURL)
	if !res.Success || res.Segment.Method != segment.MethodChapters || res.Segment.Start != 200 {
		t.Fatalf("unexpected result %+v", res.Segment)
	}
}
