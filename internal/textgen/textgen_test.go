package textgen_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"shortsmith/internal/logging"
	"shortsmith/internal/segment"
	"shortsmith/internal/services"
	"shortsmith/internal/services/ytdlp"
	"shortsmith/internal/textgen"
)

type stubCompleter struct {
	enabled bool
	reply   string
	err     error
	prompts []string
}

func (s *stubCompleter) Enabled() bool { return s.enabled }

func (s *stubCompleter) Complete(_ context.Context, _ string, user string) (string, error) {
	s.prompts = append(s.prompts, user)
	return s.reply, s.err
}

func sampleVideo() ytdlp.VideoMetadata {
	return ytdlp.VideoMetadata{
		ID:          "abc123",
		Title:       "Building a Treehouse in One Weekend",
		Description: strings.Repeat("d", 800),
		Duration:    600,
	}
}

func sampleSegment() segment.Segment {
	return segment.Segment{Start: 270, End: 330, Method: segment.MethodHeatmap, Confidence: segment.ConfidenceHigh, Reason: "Most replayed"}
}

func TestShortMetadataParsesReply(t *testing.T) {
	llm := &stubCompleter{enabled: true, reply: "Sure!\nTITLE: Treehouse in 60s\nDESCRIPTION: Watch the roof go on.\nHASHTAGS: DIY, #Woodworking, Treehouse\n"}
	gen := textgen.New(llm, logging.NewNop())

	got := gen.ShortMetadata(context.Background(), sampleVideo(), sampleSegment())
	if !got.AIGenerated {
		t.Fatal("expected ai generated metadata")
	}
	if got.Title != "Treehouse in 60s" {
		t.Fatalf("unexpected title %q", got.Title)
	}
	if got.Description != "#Shorts\n\nWatch the roof go on." {
		t.Fatalf("unexpected description %q", got.Description)
	}
	if !slices.Equal(got.Tags, []string{"DIY", "Woodworking", "Treehouse"}) {
		t.Fatalf("unexpected tags %v", got.Tags)
	}

	prompt := llm.prompts[0]
	for _, want := range []string{"Original Title: Building a Treehouse", "Video Duration: 600 seconds", "Selected Segment: 4:30 to 5:30", "Reason: Most replayed"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, strings.Repeat("d", 501)) {
		t.Fatal("expected description excerpt to be truncated to 500 characters")
	}
}

func TestShortMetadataKeepsExistingShortsTag(t *testing.T) {
	llm := &stubCompleter{enabled: true, reply: "TITLE: x\nDESCRIPTION: Great moment #shorts"}
	got := textgen.New(llm, nil).ShortMetadata(context.Background(), sampleVideo(), sampleSegment())
	if got.Description != "Great moment #shorts" {
		t.Fatalf("unexpected description %q", got.Description)
	}
	if !slices.Equal(got.Tags, []string{"Shorts", "YouTubeShorts"}) {
		t.Fatalf("expected default tags, got %v", got.Tags)
	}
}

func TestShortMetadataTruncatesTitle(t *testing.T) {
	llm := &stubCompleter{enabled: true, reply: "TITLE: " + strings.Repeat("é", 150)}
	got := textgen.New(llm, nil).ShortMetadata(context.Background(), sampleVideo(), sampleSegment())
	if n := len([]rune(got.Title)); n != 100 {
		t.Fatalf("expected 100 rune title, got %d", n)
	}
}

func TestShortMetadataFallsBack(t *testing.T) {
	video := sampleVideo()
	want := textgen.Metadata{
		Title:       video.Title,
		Description: "#Shorts\n\nClip from: " + video.Title,
		Tags:        []string{"Shorts", "YouTubeShorts"},
	}
	cases := map[string]textgen.Completer{
		"nil":      nil,
		"disabled": &stubCompleter{enabled: false, reply: "TITLE: ignored"},
		"error":    &stubCompleter{enabled: true, err: services.ErrUpstreamUnavailable},
		"empty":    &stubCompleter{enabled: true, reply: "   "},
	}
	for name, llm := range cases {
		t.Run(name, func(t *testing.T) {
			got := textgen.New(llm, nil).ShortMetadata(context.Background(), video, sampleSegment())
			if got.AIGenerated || got.Title != want.Title || got.Description != want.Description || !slices.Equal(got.Tags, want.Tags) {
				t.Fatalf("unexpected fallback %+v", got)
			}
		})
	}
}

func TestDefaultMetadataTruncatesLongTitle(t *testing.T) {
	title := strings.Repeat("t", 140)
	got := textgen.DefaultMetadata(title)
	if len(got.Title) != 100 {
		t.Fatalf("expected truncated title, got %d chars", len(got.Title))
	}
	if !strings.HasSuffix(got.Description, title) {
		t.Fatal("expected description to reference the full title")
	}
}

func TestTitleAndHashtags(t *testing.T) {
	llm := &stubCompleter{enabled: true, reply: "TITLE: Weekend Treehouse\nHASHTAGS: #diy #build #Shorts"}
	got := textgen.New(llm, nil).TitleAndHashtags(context.Background(), "Building a Treehouse")
	if got.Title != "Weekend Treehouse" || got.Hashtags != "#diy #build #Shorts" || !got.AIGenerated {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestTitleAndHashtagsFallback(t *testing.T) {
	title := strings.Repeat("x", 80)
	got := textgen.New(&stubCompleter{enabled: true, err: errors.New("boom")}, nil).TitleAndHashtags(context.Background(), title)
	if got.Title != "Short: "+strings.Repeat("x", 50) {
		t.Fatalf("unexpected title %q", got.Title)
	}
	if got.Hashtags != "#YouTubeShorts #Shorts #Viral" || got.AIGenerated {
		t.Fatalf("unexpected fallback %+v", got)
	}

	partial := textgen.New(&stubCompleter{enabled: true, reply: "HASHTAGS: #a"}, nil).TitleAndHashtags(context.Background(), "Clip")
	if partial.Title != "Short: Clip" || partial.Hashtags != "#a" {
		t.Fatalf("unexpected partial result %+v", partial)
	}
}

func TestExplainErrorFallback(t *testing.T) {
	err := services.Wrap(services.ErrTimeout, "transform", "encode", "ffmpeg exceeded 10m0s", nil)
	got := textgen.New(nil, nil).ExplainError(context.Background(), err, "encoding short")
	if got.Kind != services.KindTimeout || got.AIGenerated {
		t.Fatalf("unexpected explanation %+v", got)
	}
	if !strings.HasPrefix(got.Explanation, "The operation took too long") {
		t.Fatalf("unexpected explanation text %q", got.Explanation)
	}
	if !strings.Contains(got.Explanation, "Error details: timeout: transform: encode: ffmpeg exceeded 10m0s") {
		t.Fatalf("expected error details, got %q", got.Explanation)
	}
}

func TestExplainErrorUnknownKind(t *testing.T) {
	got := textgen.FallbackExplanation(errors.New("odd"))
	if got != "An unexpected internal error occurred. Check the error message for details. Error details: odd" {
		t.Fatalf("unexpected explanation %q", got)
	}
}

func TestExplainErrorUsesModel(t *testing.T) {
	toolErr := &services.ToolError{Tool: "ffmpeg", ExitCode: 1, Stderr: "Invalid data found"}
	err := services.Wrap(services.ErrProcessing, "transform", "encode", "ffmpeg failed", toolErr)
	llm := &stubCompleter{enabled: true, reply: "  The video file looks corrupt. Download it again.  "}
	got := textgen.New(llm, nil).ExplainError(context.Background(), err, "encoding short")
	if !got.AIGenerated || got.Explanation != "The video file looks corrupt. Download it again." {
		t.Fatalf("unexpected explanation %+v", got)
	}
	if got.Detail != "Invalid data found" {
		t.Fatalf("expected tool diagnostics, got %q", got.Detail)
	}
	if !strings.Contains(llm.prompts[0], "Context: encoding short") {
		t.Fatalf("prompt missing context: %s", llm.prompts[0])
	}
}
