package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"shortsmith/internal/analysis"
	"shortsmith/internal/cleanup"
	"shortsmith/internal/geometry"
	"shortsmith/internal/history"
	"shortsmith/internal/logging"
	"shortsmith/internal/segment"
	"shortsmith/internal/services"
	"shortsmith/internal/services/ytdlp"
	"shortsmith/internal/textgen"
	"shortsmith/internal/textutil"
	"shortsmith/internal/timecode"
	"shortsmith/internal/transform"
)

const (
	stageName  = "pipeline"
	idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	idLength   = 12
)

// Analyzer chooses a segment for a URL.
type Analyzer interface {
	Analyze(ctx context.Context, videoURL string) analysis.Result
}

// Downloader fetches the source media.
type Downloader interface {
	Download(ctx context.Context, videoURL, dir string) (ytdlp.Download, error)
}

// Transformer renders the clip.
type Transformer interface {
	Transform(ctx context.Context, req transform.Request) (transform.Result, error)
}

// Recorder persists generated shorts.
type Recorder interface {
	Create(ctx context.Context, entry history.Entry) (*history.Entry, error)
}

// Request is one generate call. Times use SS, MM:SS, or HH:MM:SS.
type Request struct {
	VideoURL   string
	StartTime  string
	EndTime    string
	AutoDetect bool
	Mode       transform.Mode
}

// Outcome describes a finished short.
type Outcome struct {
	Entry        *history.Entry   `json:"entry,omitempty"`
	Output       string           `json:"output"`
	Segment      segment.Segment  `json:"segment"`
	Capped       bool             `json:"capped"`
	AutoDetected bool             `json:"auto_detected"`
	Mode         transform.Mode   `json:"mode"`
	Plan         *geometry.Plan   `json:"plan,omitempty"`
	Title        string           `json:"title"`
	Description  string           `json:"description,omitempty"`
	Hashtags     string           `json:"hashtags,omitempty"`
	AIGenerated  bool             `json:"ai_generated"`
	CleanedFiles int              `json:"cleaned_files"`
	Elapsed      time.Duration    `json:"elapsed"`
	Analysis     *analysis.Result `json:"-"`
}

// Settings holds the directories and clip policy the pipeline works with.
type Settings struct {
	DownloadsDir   string
	OutputsDir     string
	MaxClipSeconds float64
}

// Deps bundles the collaborators. History and Text may be nil.
type Deps struct {
	Analyzer    Analyzer
	Downloader  Downloader
	Transformer Transformer
	History     Recorder
	Text        *textgen.Generator
}

// Option configures the pipeline.
type Option func(*Pipeline)

// WithIDGenerator replaces the nanoid output name generator.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// Pipeline runs generate requests end to end.
type Pipeline struct {
	settings Settings
	deps     Deps
	logger   *slog.Logger
	newID    func() (string, error)
}

// New validates the collaborators and returns a pipeline.
func New(settings Settings, deps Deps, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if deps.Downloader == nil || deps.Transformer == nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "init", "downloader and transformer are required", nil)
	}
	if strings.TrimSpace(settings.DownloadsDir) == "" || strings.TrimSpace(settings.OutputsDir) == "" {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "init", "downloads and outputs directories are required", nil)
	}
	if settings.MaxClipSeconds <= 0 {
		settings.MaxClipSeconds = transform.DefaultOptions().MaxClipSeconds
	}
	if deps.Text == nil {
		deps.Text = textgen.New(nil, logger)
	}
	p := &Pipeline{
		settings: settings,
		deps:     deps,
		logger:   logging.NewComponentLogger(logger, stageName),
		newID: func() (string, error) {
			return gonanoid.Generate(idAlphabet, idLength)
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Generate produces one short. Any failure returns an error and no outcome;
// a partially written output file is removed.
func (p *Pipeline) Generate(ctx context.Context, req Request) (Outcome, error) {
	started := time.Now()
	ctx = services.WithStage(ctx, stageName)
	logger := logging.WithContext(ctx, p.logger)

	videoURL := strings.TrimSpace(req.VideoURL)
	if err := ytdlp.ValidateURL(videoURL); err != nil {
		return Outcome{}, err
	}
	mode, err := transform.ParseMode(string(req.Mode))
	if err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{Mode: mode}
	seg, meta, err := p.resolveSegment(ctx, logger, videoURL, req, &outcome)
	if err != nil {
		return Outcome{}, err
	}
	if seg.Capped(p.settings.MaxClipSeconds) {
		logger.Info("segment longer than the clip limit; truncating",
			logging.Float64("requested_seconds", seg.Length()),
			logging.Float64("max_seconds", p.settings.MaxClipSeconds),
			logging.String(logging.FieldEventType, "segment_capped"),
		)
		seg = seg.Cap(p.settings.MaxClipSeconds)
		outcome.Capped = true
	}

	id, err := p.newID()
	if err != nil {
		return Outcome{}, services.Wrap(services.ErrProcessing, stageName, "output name", "generate id", err)
	}
	workspace, err := cleanup.NewWorkspace(filepath.Join(p.settings.DownloadsDir, id))
	if err != nil {
		return Outcome{}, services.Wrap(services.ErrConfiguration, stageName, "workspace", "prepare download directory", err)
	}
	defer workspace.Release(p.logger)

	download, err := p.deps.Downloader.Download(ctx, videoURL, workspace.Dir)
	if err != nil {
		return Outcome{}, err
	}
	ctx = services.WithVideoID(ctx, download.Metadata.ID)
	logger = logging.WithContext(ctx, p.logger)

	seg, err = fitToSource(seg, download.Metadata.Duration)
	if err != nil {
		return Outcome{}, err
	}

	prefix := "short"
	if mode == transform.ModeCut {
		prefix = "clip"
	}
	output := filepath.Join(p.settings.OutputsDir, fmt.Sprintf("%s_%s.mp4", prefix, id))

	rendered, err := p.deps.Transformer.Transform(ctx, transform.Request{
		Source:  download.Path,
		Output:  output,
		Segment: seg,
		Mode:    mode,
	})
	if err != nil {
		removePartial(logger, output)
		return Outcome{}, err
	}
	outcome.Output = rendered.Output
	outcome.Segment = rendered.Segment
	outcome.Capped = outcome.Capped || rendered.Capped
	outcome.Plan = rendered.Plan

	originalTitle := download.Metadata.DisplayTitle()
	if outcome.Analysis != nil && outcome.Analysis.Video != nil && download.Metadata.Title == "" {
		originalTitle = outcome.Analysis.Video.DisplayTitle()
	}
	p.describe(ctx, &outcome, meta, originalTitle)

	if p.deps.History != nil {
		entry, err := p.deps.History.Create(ctx, history.Entry{
			VideoURL:             videoURL,
			VideoID:              download.Metadata.ID,
			OriginalTitle:        originalTitle,
			StartTime:            outcome.Segment.Start,
			EndTime:              outcome.Segment.End,
			OutputPath:           outcome.Output,
			Mode:                 string(mode),
			Method:               outcome.Segment.Method,
			Confidence:           outcome.Segment.Confidence,
			Reason:               outcome.Segment.Reason,
			GeneratedTitle:       outcome.Title,
			GeneratedDescription: outcome.Description,
			GeneratedHashtags:    outcome.Hashtags,
			AIGenerated:          outcome.AIGenerated,
		})
		if err != nil {
			logging.ErrorWithContext(logger, "failed to record short in history", "history_write_failed",
				logging.String("output", outcome.Output),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check data_dir permissions; the rendered file was kept"),
			)
			return Outcome{}, err
		}
		outcome.Entry = entry
	}

	outcome.CleanedFiles = len(workspace.Release(p.logger).Removed)
	outcome.Elapsed = time.Since(started)

	logger.Info("short generated",
		logging.String("output", outcome.Output),
		logging.Float64("start", outcome.Segment.Start),
		logging.Float64("end", outcome.Segment.End),
		logging.String("method", string(outcome.Segment.Method)),
		logging.Bool("auto_detected", outcome.AutoDetected),
		logging.Bool("capped", outcome.Capped),
		logging.Duration("elapsed", outcome.Elapsed),
		logging.String(logging.FieldEventType, "short_generated"),
	)
	return outcome, nil
}

// resolveSegment runs analysis when asked to or when a time is missing, and
// otherwise parses the caller's times. Failed analysis falls back to the
// caller's times when both are present.
func (p *Pipeline) resolveSegment(ctx context.Context, logger *slog.Logger, videoURL string, req Request, outcome *Outcome) (segment.Segment, *textgen.Metadata, error) {
	start := strings.TrimSpace(req.StartTime)
	end := strings.TrimSpace(req.EndTime)
	manual := start != "" && end != ""

	if req.AutoDetect || !manual {
		if p.deps.Analyzer == nil {
			if !manual {
				return segment.Segment{}, nil, services.Wrap(services.ErrValidation, stageName, "segment",
					"start and end times are required when auto-detection is unavailable", nil)
			}
		} else {
			res := p.deps.Analyzer.Analyze(ctx, videoURL)
			outcome.Analysis = &res
			if res.Success && res.Segment != nil {
				outcome.AutoDetected = true
				logger.Info("using auto-detected segment",
					logging.Args(logging.DecisionAttrs("segment_source", "auto", res.Segment.Reason)...)...)
				return *res.Segment, res.Metadata, nil
			}
			if !manual {
				if err := res.Err(); err != nil {
					return segment.Segment{}, nil, err
				}
				return segment.Segment{}, nil, services.Wrap(services.ErrProcessing, stageName, "segment", res.Error, nil)
			}
			logging.WarnWithContext(logger, "auto-detection failed; using requested times", "auto_detect_fallback",
				logging.String("error", res.Error),
				logging.String(logging.FieldImpact, "segment taken from the request instead of analysis"),
			)
		}
	}

	startSeconds, err := timecode.Parse(start)
	if err != nil {
		return segment.Segment{}, nil, err
	}
	endSeconds, err := timecode.Parse(end)
	if err != nil {
		return segment.Segment{}, nil, err
	}
	seg := segment.Segment{
		Start:  startSeconds,
		End:    endSeconds,
		Reason: fmt.Sprintf("Requested range %s to %s", timecode.Format(startSeconds), timecode.Format(endSeconds)),
	}
	if err := seg.Validate(); err != nil {
		return segment.Segment{}, nil, err
	}
	return seg, nil, nil
}

// fitToSource rejects segments that start past the end of the source and
// trims ones that run over it. An unknown duration is left alone.
func fitToSource(seg segment.Segment, duration float64) (segment.Segment, error) {
	if duration <= 0 {
		return seg, nil
	}
	if seg.Start >= duration {
		return segment.Segment{}, services.Wrap(services.ErrValidation, stageName, "segment",
			fmt.Sprintf("start %s is beyond the video length %s", timecode.FormatClock(seg.Start), timecode.FormatClock(duration)), nil)
	}
	if seg.End > duration {
		seg.End = duration
	}
	return seg, nil
}

func (p *Pipeline) describe(ctx context.Context, outcome *Outcome, meta *textgen.Metadata, originalTitle string) {
	if meta != nil {
		outcome.Title = meta.Title
		outcome.Description = meta.Description
		outcome.Hashtags = textutil.FormatHashtags(meta.Tags)
		outcome.AIGenerated = meta.AIGenerated
		return
	}
	th := p.deps.Text.TitleAndHashtags(ctx, originalTitle)
	outcome.Title = th.Title
	outcome.Hashtags = th.Hashtags
	outcome.AIGenerated = th.AIGenerated
}

func removePartial(logger *slog.Logger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.WarnWithContext(logger, "failed to remove partial output", "partial_output_cleanup_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "an incomplete file remains in the outputs directory"),
		)
	}
}
