package geometry

import (
	"encoding/json"
	"fmt"
	"math"

	"shortsmith/internal/services"
)

const (
	DefaultTargetWidth  = 1080
	DefaultTargetHeight = 1920
)

// RotationMode controls whether landscape sources may be rotated.
type RotationMode string

const (
	// RotationSmart rotates a landscape source only when that brings its
	// aspect ratio strictly closer to the target.
	RotationSmart RotationMode = "smart"
	// RotationForce rotates every landscape source.
	RotationForce RotationMode = "rotate"
	// RotationNone never rotates.
	RotationNone RotationMode = "scale"
)

// ParseRotationMode validates a rotation mode string; empty means smart.
func ParseRotationMode(value string) (RotationMode, error) {
	switch RotationMode(value) {
	case "", RotationSmart:
		return RotationSmart, nil
	case RotationForce, RotationNone:
		return RotationMode(value), nil
	default:
		return "", services.Wrap(services.ErrConfiguration, "geometry", "rotation mode",
			fmt.Sprintf("unknown rotation mode %q", value), nil)
	}
}

// Scaling selects how the uniform scale factor is chosen.
type Scaling string

const (
	// ScaleCover fills the whole canvas and crops any overflow.
	ScaleCover Scaling = "cover"
	// ScaleContain keeps the whole frame visible and pads the deficit.
	ScaleContain Scaling = "contain"
)

// ParseScaling validates a scaling string; empty means cover.
func ParseScaling(value string) (Scaling, error) {
	switch Scaling(value) {
	case "", ScaleCover:
		return ScaleCover, nil
	case ScaleContain:
		return ScaleContain, nil
	default:
		return "", services.Wrap(services.ErrConfiguration, "geometry", "scaling",
			fmt.Sprintf("unknown scaling %q", value), nil)
	}
}

// Box is a crop window in scaled-frame pixel coordinates.
type Box struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Width returns the horizontal extent of the box.
func (b Box) Width() int { return b.X2 - b.X1 }

// Height returns the vertical extent of the box.
func (b Box) Height() int { return b.Y2 - b.Y1 }

// Offset places content on the target canvas.
type Offset struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Plan is the full mapping from a source frame to the target canvas.
type Plan struct {
	SourceWidth  int
	SourceHeight int
	TargetWidth  int
	TargetHeight int
	Rotate       bool
	ScaleFactor  float64
	ScaledWidth  int
	ScaledHeight int
	// Crop is set when the scaled frame overflows the canvas on any axis.
	Crop *Box
	// Pad is set when the (cropped) frame falls short of the canvas on any axis.
	Pad *Offset
}

// Adjustment names how the scaled frame is brought to target size.
func (p Plan) Adjustment() string {
	switch {
	case p.Crop != nil && p.Pad != nil:
		return "crop_pad"
	case p.Crop != nil:
		return "crop"
	case p.Pad != nil:
		return "pad"
	default:
		return "none"
	}
}

// OutputSize returns the frame size after crop and pad are applied.
func (p Plan) OutputSize() (int, int) {
	w, h := p.ScaledWidth, p.ScaledHeight
	if p.Crop != nil {
		w, h = p.Crop.Width(), p.Crop.Height()
	}
	if p.Pad != nil {
		w, h = p.TargetWidth, p.TargetHeight
	}
	return w, h
}

type planJSON struct {
	Rotate      bool       `json:"rotate"`
	ScaleFactor float64    `json:"scale_factor"`
	Source      dimensions `json:"source"`
	Scaled      dimensions `json:"scaled"`
	Target      dimensions `json:"target"`
	CropOrPad   cropOrPad  `json:"crop_or_pad"`
}

type dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type cropOrPad struct {
	Mode string  `json:"mode"`
	Crop *Box    `json:"crop,omitempty"`
	Pad  *Offset `json:"pad,omitempty"`
}

// MarshalJSON renders the plan as {rotate, scale_factor, crop_or_pad:{...}}.
func (p Plan) MarshalJSON() ([]byte, error) {
	return json.Marshal(planJSON{
		Rotate:      p.Rotate,
		ScaleFactor: p.ScaleFactor,
		Source:      dimensions{Width: p.SourceWidth, Height: p.SourceHeight},
		Scaled:      dimensions{Width: p.ScaledWidth, Height: p.ScaledHeight},
		Target:      dimensions{Width: p.TargetWidth, Height: p.TargetHeight},
		CropOrPad: cropOrPad{
			Mode: p.Adjustment(),
			Crop: p.Crop,
			Pad:  p.Pad,
		},
	})
}

type settings struct {
	targetWidth  int
	targetHeight int
	rotation     RotationMode
	scaling      Scaling
}

// Option customizes Fit.
type Option func(*settings)

// WithTarget overrides the 1080x1920 canvas.
func WithTarget(width, height int) Option {
	return func(s *settings) {
		s.targetWidth = width
		s.targetHeight = height
	}
}

// WithRotation overrides the smart rotation rule.
func WithRotation(mode RotationMode) Option {
	return func(s *settings) {
		if mode != "" {
			s.rotation = mode
		}
	}
}

// WithScaling overrides the cover scaling rule.
func WithScaling(scaling Scaling) Option {
	return func(s *settings) {
		if scaling != "" {
			s.scaling = scaling
		}
	}
}

// Fit computes the rotate, scale, and crop-or-pad plan for a source frame.
func Fit(sourceWidth, sourceHeight int, opts ...Option) (Plan, error) {
	cfg := settings{
		targetWidth:  DefaultTargetWidth,
		targetHeight: DefaultTargetHeight,
		rotation:     RotationSmart,
		scaling:      ScaleCover,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if sourceWidth <= 0 || sourceHeight <= 0 {
		return Plan{}, services.Wrap(services.ErrConfiguration, "geometry", "fit",
			fmt.Sprintf("source dimensions must be positive, got %dx%d", sourceWidth, sourceHeight), nil)
	}
	if cfg.targetWidth <= 0 || cfg.targetHeight <= 0 {
		return Plan{}, services.Wrap(services.ErrConfiguration, "geometry", "fit",
			fmt.Sprintf("target dimensions must be positive, got %dx%d", cfg.targetWidth, cfg.targetHeight), nil)
	}

	plan := Plan{
		SourceWidth:  sourceWidth,
		SourceHeight: sourceHeight,
		TargetWidth:  cfg.targetWidth,
		TargetHeight: cfg.targetHeight,
	}

	width, height := sourceWidth, sourceHeight
	if shouldRotate(width, height, cfg) {
		plan.Rotate = true
		width, height = height, width
	}

	widthRatio := float64(cfg.targetWidth) / float64(width)
	heightRatio := float64(cfg.targetHeight) / float64(height)
	scale := math.Max(widthRatio, heightRatio)
	if cfg.scaling == ScaleContain {
		scale = math.Min(widthRatio, heightRatio)
	}
	plan.ScaleFactor = scale
	plan.ScaledWidth = int(math.Round(float64(width) * scale))
	plan.ScaledHeight = int(math.Round(float64(height) * scale))

	cropX, cropW, padX := resolveAxis(plan.ScaledWidth, cfg.targetWidth)
	cropY, cropH, padY := resolveAxis(plan.ScaledHeight, cfg.targetHeight)
	if plan.ScaledWidth > cfg.targetWidth || plan.ScaledHeight > cfg.targetHeight {
		plan.Crop = &Box{X1: cropX, Y1: cropY, X2: cropX + cropW, Y2: cropY + cropH}
	}
	if plan.ScaledWidth < cfg.targetWidth || plan.ScaledHeight < cfg.targetHeight {
		plan.Pad = &Offset{X: padX, Y: padY}
	}
	return plan, nil
}

func shouldRotate(width, height int, cfg settings) bool {
	if width <= height {
		return false
	}
	switch cfg.rotation {
	case RotationForce:
		return true
	case RotationNone:
		return false
	}
	target := float64(cfg.targetHeight) / float64(cfg.targetWidth)
	rotated := float64(width) / float64(height)
	current := float64(height) / float64(width)
	return math.Abs(rotated-target) < math.Abs(current-target)
}

// resolveAxis returns the crop offset and extent within the scaled axis and
// the pad offset that centers the cropped extent on the target axis.
func resolveAxis(scaled, target int) (cropOffset, cropExtent, padOffset int) {
	if scaled > target {
		return (scaled - target) / 2, target, 0
	}
	return 0, scaled, (target - scaled) / 2
}
