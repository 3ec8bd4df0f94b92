package transform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"shortsmith/internal/geometry"
	"shortsmith/internal/logging"
	"shortsmith/internal/media/ffprobe"
	"shortsmith/internal/segment"
	"shortsmith/internal/services"
)

const stageName = "transform"

// Prober inspects source media.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Result, error)
}

// Request describes one clip to render.
type Request struct {
	Source  string
	Output  string
	Segment segment.Segment
	Mode    Mode
}

// Result describes a rendered clip.
type Result struct {
	Output   string
	Segment  segment.Segment
	Capped   bool
	Plan     *geometry.Plan
	HasAudio bool
	Args     []string
	Elapsed  time.Duration
}

// Option configures the driver.
type Option func(*Driver)

// WithExecutor injects a custom executor.
func WithExecutor(exec services.Executor) Option {
	return func(d *Driver) {
		if exec != nil {
			d.exec = exec
		}
	}
}

// Driver renders clips with ffmpeg.
type Driver struct {
	opts   Options
	prober Prober
	exec   services.Executor
	logger *slog.Logger
}

// New constructs a driver. A nil prober runs ffprobe from PATH.
func New(opts Options, prober Prober, logger *slog.Logger, options ...Option) (*Driver, error) {
	if strings.TrimSpace(opts.FFmpegBinary) == "" {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "init", "ffmpeg binary required", nil)
	}
	if opts.FrameRate <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "init", "frame rate must be positive", nil)
	}
	if prober == nil {
		prober = ffprobe.Prober{Binary: "ffprobe"}
	}
	d := &Driver{
		opts:   opts,
		prober: prober,
		exec:   services.CommandExecutor{},
		logger: logging.NewComponentLogger(logger, stageName),
	}
	for _, opt := range options {
		opt(d)
	}
	return d, nil
}

// Transform caps the segment, probes the source, and runs the encoder once.
func (d *Driver) Transform(ctx context.Context, req Request) (Result, error) {
	ctx = services.WithStage(ctx, stageName)
	logger := logging.WithContext(ctx, d.logger)

	if strings.TrimSpace(req.Source) == "" || strings.TrimSpace(req.Output) == "" {
		return Result{}, services.Wrap(services.ErrValidation, stageName, "request", "source and output paths required", nil)
	}
	if err := req.Segment.Validate(); err != nil {
		return Result{}, err
	}
	mode := req.Mode
	if mode == "" {
		mode = ModeShorts
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return Result{}, err
	}

	result := Result{Output: req.Output, Segment: req.Segment}
	if req.Segment.Capped(d.opts.MaxClipSeconds) {
		result.Segment = req.Segment.Cap(d.opts.MaxClipSeconds)
		result.Capped = true
		logger.Info("segment truncated to maximum clip length",
			logging.Float64("requested_seconds", req.Segment.Length()),
			logging.Float64("max_seconds", d.opts.MaxClipSeconds),
			logging.String(logging.FieldEventType, "segment_capped"),
		)
	}

	probe, err := d.prober.Probe(ctx, req.Source)
	if err != nil {
		return Result{}, err
	}
	result.HasAudio = probe.HasAudio() && !d.opts.SuppressAudio

	input := ffmpeg.Input(req.Source, ffmpeg.KwArgs{
		"ss": formatSeconds(result.Segment.Start),
		"t":  formatSeconds(result.Segment.Length()),
	})
	video := input.Video()
	if mode == ModeShorts {
		width, height, err := probe.VideoDimensions()
		if err != nil {
			return Result{}, err
		}
		plan, err := geometry.Fit(width, height,
			geometry.WithTarget(d.opts.TargetWidth, d.opts.TargetHeight),
			geometry.WithRotation(d.opts.RotationMode),
			geometry.WithScaling(d.opts.Scaling),
		)
		if err != nil {
			return Result{}, err
		}
		result.Plan = &plan
		logger.Info("geometry plan",
			logging.Args(append(logging.DecisionAttrs("geometry", plan.Adjustment(), fmt.Sprintf("%dx%d source", width, height)),
				logging.Bool("rotate", plan.Rotate),
				logging.Float64("scale_factor", plan.ScaleFactor),
			)...)...,
		)
		video = applyPlan(video, plan)
	}
	video = video.
		Filter("fps", ffmpeg.Args{strconv.Itoa(d.opts.FrameRate)}).
		Filter("setsar", ffmpeg.Args{"1"})

	streams := []*ffmpeg.Stream{video}
	outputArgs := ffmpeg.KwArgs{
		"c:v":      d.opts.VideoCodec,
		"preset":   d.opts.Preset,
		"crf":      strconv.Itoa(d.opts.CRF),
		"pix_fmt":  "yuv420p",
		"movflags": "+faststart",
	}
	if result.HasAudio {
		streams = append(streams, input.Audio())
		outputArgs["c:a"] = d.opts.AudioCodec
	} else {
		outputArgs["an"] = ""
	}
	result.Args = ffmpeg.Output(streams, req.Output, outputArgs).
		OverWriteOutput().
		GlobalArgs("-hide_banner", "-loglevel", "error").
		GetArgs()

	if err := os.MkdirAll(filepath.Dir(req.Output), 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, stageName, "prepare output", filepath.Dir(req.Output), err)
	}

	started := time.Now()
	runCtx, cancel := services.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()
	logger.Info("encoding clip",
		logging.String("mode", string(mode)),
		logging.String("output", req.Output),
		logging.Float64("start_seconds", result.Segment.Start),
		logging.Float64("length_seconds", result.Segment.Length()),
	)
	if _, err := d.exec.Run(runCtx, d.opts.FFmpegBinary, result.Args); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{}, services.Wrap(services.ErrTimeout, stageName, "encode",
				fmt.Sprintf("ffmpeg exceeded %s", d.opts.Timeout), err)
		}
		return Result{}, services.Wrap(services.ErrProcessing, stageName, "encode", "ffmpeg failed", err)
	}
	if _, err := os.Stat(req.Output); err != nil {
		return Result{}, services.Wrap(services.ErrProcessing, stageName, "encode", "ffmpeg produced no output", err)
	}
	result.Elapsed = time.Since(started)
	logger.Info("clip encoded",
		logging.String("output", req.Output),
		logging.Duration("elapsed", result.Elapsed),
		logging.String(logging.FieldEventType, "clip_encoded"),
	)
	return result, nil
}

// applyPlan appends rotate, scale, and crop/pad filters for plan.
func applyPlan(video *ffmpeg.Stream, plan geometry.Plan) *ffmpeg.Stream {
	if plan.Rotate {
		video = video.Filter("transpose", ffmpeg.Args{"1"})
	}
	video = video.Filter("scale", ffmpeg.Args{strconv.Itoa(plan.ScaledWidth), strconv.Itoa(plan.ScaledHeight)})
	if plan.Crop != nil {
		video = video.Filter("crop", ffmpeg.Args{
			strconv.Itoa(plan.Crop.Width()),
			strconv.Itoa(plan.Crop.Height()),
			strconv.Itoa(plan.Crop.X1),
			strconv.Itoa(plan.Crop.Y1),
		})
	}
	if plan.Pad != nil {
		video = video.Filter("pad", ffmpeg.Args{
			strconv.Itoa(plan.TargetWidth),
			strconv.Itoa(plan.TargetHeight),
			strconv.Itoa(plan.Pad.X),
			strconv.Itoa(plan.Pad.Y),
		}, ffmpeg.KwArgs{"color": "black"})
	}
	return video
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
