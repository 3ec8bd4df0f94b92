// Package analysis picks the best segment of a video for a short and suggests
// upload text for it.
package analysis

import (
	"context"
	"log/slog"

	"shortsmith/internal/logging"
	"shortsmith/internal/segment"
	"shortsmith/internal/services"
	"shortsmith/internal/services/ytdlp"
	"shortsmith/internal/textgen"
)

// Result is the outcome of analyzing one video. A failed analysis carries
// Error (short) and Detail (full trace) and no segment.
type Result struct {
	Success      bool                 `json:"success"`
	Video        *ytdlp.VideoMetadata `json:"video,omitempty"`
	Segment      *segment.Segment     `json:"segment,omitempty"`
	Metadata     *textgen.Metadata    `json:"metadata,omitempty"`
	AutoDetected bool                 `json:"auto_detected"`
	Error        string               `json:"error,omitempty"`
	Kind         services.Kind        `json:"kind,omitempty"`
	Detail       string               `json:"detail,omitempty"`

	err error
}

// Err returns the underlying failure, or nil on success.
func (r Result) Err() error { return r.err }

// Analyzer fetches metadata, runs the segment selector, and asks the text
// generator for upload text.
type Analyzer struct {
	retriever ytdlp.Retriever
	chain     segment.Chain
	text      *textgen.Generator
	logger    *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithChain replaces the default selector chain.
func WithChain(chain segment.Chain) Option {
	return func(a *Analyzer) {
		if len(chain) > 0 {
			a.chain = chain
		}
	}
}

// New builds an Analyzer. A nil generator means templated text only.
func New(retriever ytdlp.Retriever, text *textgen.Generator, logger *slog.Logger, opts ...Option) *Analyzer {
	if text == nil {
		text = textgen.New(nil, logger)
	}
	a := &Analyzer{
		retriever: retriever,
		chain:     segment.DefaultChain(),
		text:      text,
		logger:    logging.NewComponentLogger(logger, "analysis"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze never returns an error: metadata and selection failures are
// reported through Result.Success and Result.Error.
func (a *Analyzer) Analyze(ctx context.Context, videoURL string) Result {
	ctx = services.WithStage(ctx, "analysis")
	logger := logging.WithContext(ctx, a.logger)

	if err := ytdlp.ValidateURL(videoURL); err != nil {
		return a.failed(logger, err)
	}
	if a.retriever == nil {
		return a.failed(logger, services.Wrap(services.ErrConfiguration, "analysis", "fetch metadata", "no metadata retriever configured", nil))
	}

	video, err := a.retriever.FetchMetadata(ctx, videoURL)
	if err != nil {
		return a.failed(logger, err)
	}
	ctx = services.WithVideoID(ctx, video.ID)
	logger = logging.WithContext(ctx, a.logger)

	seg, err := a.chain.Select(video.SegmentInput())
	if err != nil {
		return a.failed(logger, err)
	}
	logger.Info("segment selected",
		logging.Args(append(logging.DecisionAttrs("segment_strategy", string(seg.Method), seg.Reason),
			logging.Float64("start", seg.Start),
			logging.Float64("end", seg.End),
			logging.String("confidence", string(seg.Confidence)),
			logging.Int("heatmap_points", len(video.Heatmap)),
			logging.Int("chapters", len(video.Chapters)),
		)...)...,
	)

	meta := a.text.ShortMetadata(ctx, video, seg)
	return Result{
		Success:      true,
		Video:        &video,
		Segment:      &seg,
		Metadata:     &meta,
		AutoDetected: true,
	}
}

func (a *Analyzer) failed(logger *slog.Logger, err error) Result {
	logging.WarnWithContext(logger, "video analysis failed", "analysis_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the URL or supply start and end times manually"),
		logging.String(logging.FieldImpact, "segment must be chosen manually"),
	)
	detail := services.Diagnostics(err)
	if detail == "" {
		detail = err.Error()
	}
	return Result{
		Success: false,
		Error:   services.Summary(err),
		Kind:    services.Classify(err),
		Detail:  detail,
		err:     err,
	}
}
