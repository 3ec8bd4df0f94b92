package segment

import (
	"encoding/json"
	"fmt"
	"math"

	"shortsmith/internal/services"
)

// Method identifies the strategy that produced a segment.
type Method string

const (
	MethodHeatmap      Method = "heatmap"
	MethodChapters     Method = "chapters"
	MethodSmartDefault Method = "smart_default"
)

// ParseMethod validates a method string.
func ParseMethod(value string) (Method, error) {
	switch Method(value) {
	case MethodHeatmap, MethodChapters, MethodSmartDefault:
		return Method(value), nil
	default:
		return "", services.Wrap(services.ErrValidation, "segment", "parse method", fmt.Sprintf("unknown method %q", value), nil)
	}
}

// Confidence grades how reliable the signal behind a segment is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ParseConfidence validates a confidence string.
func ParseConfidence(value string) (Confidence, error) {
	switch Confidence(value) {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return Confidence(value), nil
	default:
		return "", services.Wrap(services.ErrValidation, "segment", "parse confidence", fmt.Sprintf("unknown confidence %q", value), nil)
	}
}

// HeatmapPoint is one "most replayed" sample. Value is relative intensity.
type HeatmapPoint struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time,omitempty"`
	Value     float64 `json:"value"`
}

// Chapter is a creator-authored chapter marker.
type Chapter struct {
	Title     string  `json:"title"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time,omitempty"`
}

// Input is the metadata the selector works from.
type Input struct {
	Duration float64
	Heatmap  []HeatmapPoint
	Chapters []Chapter
}

func (in Input) validate() error {
	if math.IsNaN(in.Duration) || math.IsInf(in.Duration, 0) {
		return services.Wrap(services.ErrValidation, "segment", "select", "duration is not a finite number", nil)
	}
	if in.Duration < 0 {
		return services.Wrap(services.ErrValidation, "segment", "select", fmt.Sprintf("negative duration %v", in.Duration), nil)
	}
	if in.Duration == 0 {
		return services.Wrap(services.ErrValidation, "segment", "select", "duration is zero or unknown", nil)
	}
	return nil
}

// Segment is a selected [Start, End) window in seconds.
type Segment struct {
	Start      float64
	End        float64
	Method     Method
	Confidence Confidence
	Reason     string
}

// Length returns End - Start.
func (s Segment) Length() float64 {
	return s.End - s.Start
}

// Cap truncates the end so the segment is at most max seconds long.
func (s Segment) Cap(max float64) Segment {
	if max > 0 && s.Length() > max {
		s.End = s.Start + max
	}
	return s
}

// Capped reports whether Cap(max) would change the segment.
func (s Segment) Capped(max float64) bool {
	return max > 0 && s.Length() > max
}

// Validate rejects negative starts and empty or inverted windows.
func (s Segment) Validate() error {
	if s.Start < 0 {
		return services.Wrap(services.ErrValidation, "segment", "validate", fmt.Sprintf("start %v is negative", s.Start), nil)
	}
	if s.Start >= s.End {
		return services.Wrap(services.ErrValidation, "segment", "validate", fmt.Sprintf("start %v must be before end %v", s.Start, s.End), nil)
	}
	return nil
}

type segmentJSON struct {
	StartTime  int        `json:"start_time"`
	EndTime    int        `json:"end_time"`
	Method     Method     `json:"method"`
	Confidence Confidence `json:"confidence"`
	Reason     string     `json:"reason"`
}

// WholeSeconds returns the smallest whole-second window enclosing the
// segment, so a non-empty segment never collapses to start == end.
func (s Segment) WholeSeconds() (int, int) {
	return int(math.Floor(s.Start)), int(math.Ceil(s.End))
}

// MarshalJSON renders whole-second boundaries.
func (s Segment) MarshalJSON() ([]byte, error) {
	start, end := s.WholeSeconds()
	return json.Marshal(segmentJSON{
		StartTime:  start,
		EndTime:    end,
		Method:     s.Method,
		Confidence: s.Confidence,
		Reason:     s.Reason,
	})
}

// UnmarshalJSON accepts the wire form and validates the enums.
func (s *Segment) UnmarshalJSON(data []byte) error {
	var raw segmentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	method, err := ParseMethod(string(raw.Method))
	if err != nil {
		return err
	}
	confidence, err := ParseConfidence(string(raw.Confidence))
	if err != nil {
		return err
	}
	*s = Segment{
		Start:      float64(raw.StartTime),
		End:        float64(raw.EndTime),
		Method:     method,
		Confidence: confidence,
		Reason:     raw.Reason,
	}
	return nil
}
