package transform

import (
	"fmt"
	"strings"
	"time"

	"shortsmith/internal/config"
	"shortsmith/internal/geometry"
	"shortsmith/internal/services"
)

// Mode selects the encoder pipeline.
type Mode string

const (
	// ModeShorts fits the segment to the vertical canvas.
	ModeShorts Mode = "shorts"
	// ModeCut trims the segment without reframing it.
	ModeCut Mode = "cut"
)

// ParseMode parses a mode name. Empty selects ModeShorts.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModeShorts:
		return ModeShorts, nil
	case ModeCut:
		return ModeCut, nil
	default:
		return "", services.Wrap(services.ErrValidation, "transform", "mode", fmt.Sprintf("unknown mode %q (want shorts or cut)", value), nil)
	}
}

// Options holds encoder settings.
type Options struct {
	FFmpegBinary   string
	VideoCodec     string
	AudioCodec     string
	Preset         string
	CRF            int
	FrameRate      int
	TargetWidth    int
	TargetHeight   int
	MaxClipSeconds float64
	RotationMode   geometry.RotationMode
	Scaling        geometry.Scaling
	SuppressAudio  bool
	Timeout        time.Duration
}

// DefaultOptions returns H.264/AAC at 30fps on a 1080x1920 canvas with a 45s cap.
func DefaultOptions() Options {
	return Options{
		FFmpegBinary:   "ffmpeg",
		VideoCodec:     "libx264",
		AudioCodec:     "aac",
		Preset:         "medium",
		CRF:            23,
		FrameRate:      30,
		TargetWidth:    geometry.DefaultTargetWidth,
		TargetHeight:   geometry.DefaultTargetHeight,
		MaxClipSeconds: 45,
		RotationMode:   geometry.RotationSmart,
		Scaling:        geometry.ScaleCover,
		Timeout:        30 * time.Minute,
	}
}

// OptionsFromConfig maps the [ffmpeg] and [shorts] sections onto Options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	opts := DefaultOptions()
	if cfg == nil {
		return opts, nil
	}
	rotation, err := geometry.ParseRotationMode(cfg.Shorts.RotationMode)
	if err != nil {
		return Options{}, err
	}
	scaling, err := geometry.ParseScaling(cfg.Shorts.Scaling)
	if err != nil {
		return Options{}, err
	}
	opts.FFmpegBinary = cfg.FFmpegBinary()
	opts.VideoCodec = cfg.FFmpeg.VideoCodec
	opts.AudioCodec = cfg.FFmpeg.AudioCodec
	opts.Preset = cfg.FFmpeg.Preset
	opts.CRF = cfg.FFmpeg.CRF
	opts.FrameRate = cfg.FFmpeg.FrameRate
	opts.TargetWidth = cfg.Shorts.TargetWidth
	opts.TargetHeight = cfg.Shorts.TargetHeight
	opts.MaxClipSeconds = float64(cfg.Shorts.MaxClipSeconds)
	opts.RotationMode = rotation
	opts.Scaling = scaling
	opts.SuppressAudio = cfg.Shorts.SuppressAudio
	opts.Timeout = time.Duration(cfg.FFmpeg.TimeoutSeconds) * time.Second
	return opts, nil
}
