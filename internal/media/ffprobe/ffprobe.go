package ffprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"shortsmith/internal/services"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
	raw     []byte
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index        int        `json:"index"`
	CodecName    string     `json:"codec_name"`
	CodecType    string     `json:"codec_type"`
	Width        int        `json:"width"`
	Height       int        `json:"height"`
	AvgFrameRate string     `json:"avg_frame_rate"`
	Duration     string     `json:"duration"`
	SampleRate   string     `json:"sample_rate"`
	Channels     int        `json:"channels"`
	Tags         Tags       `json:"tags"`
	SideDataList []SideData `json:"side_data_list"`
}

// Tags holds the stream tags ffprobe reports.
type Tags struct {
	Rotate string `json:"rotate"`
}

// SideData carries display-matrix rotation for phone recordings.
type SideData struct {
	SideDataType string  `json:"side_data_type"`
	Rotation     float64 `json:"rotation"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

// Prober runs ffprobe with a fixed binary. A nil Exec runs the real tool.
type Prober struct {
	Binary string
	Exec   services.Executor
}

// Probe inspects path with the configured binary.
func (p Prober) Probe(ctx context.Context, path string) (Result, error) {
	exec := p.Exec
	if exec == nil {
		exec = services.CommandExecutor{}
	}
	return inspect(ctx, exec, p.Binary, path)
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	return inspect(ctx, services.CommandExecutor{}, binary, path)
}

func inspect(ctx context.Context, exec services.Executor, binary, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, services.Wrap(services.ErrValidation, "ffprobe", "inspect", "empty path", nil)
	}

	output, err := exec.Run(ctx, binary, []string{"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path})
	if err != nil {
		return Result{}, services.Wrap(services.ErrProcessing, "ffprobe", "inspect", path, err)
	}
	return Parse(output)
}

// Parse decodes raw ffprobe JSON output.
func Parse(output []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, services.Wrap(services.ErrProcessing, "ffprobe", "parse", "decode json", err)
	}
	result.raw = append([]byte(nil), output...)
	return result, nil
}

// RawJSON returns the raw ffprobe JSON payload.
func (r Result) RawJSON() []byte {
	return append([]byte(nil), r.raw...)
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int {
	return r.countStreams("video")
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	return r.countStreams("audio")
}

// HasAudio reports whether the container has at least one audio stream.
func (r Result) HasAudio() bool {
	return r.AudioStreamCount() > 0
}

func (r Result) countStreams(codecType string) int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, codecType) {
			count++
		}
	}
	return count
}

// VideoDimensions returns the display size of the first video stream. A
// 90 or 270 degree rotation tag swaps width and height.
func (r Result) VideoDimensions() (int, int, error) {
	for _, stream := range r.Streams {
		if !strings.EqualFold(stream.CodecType, "video") {
			continue
		}
		if stream.Width <= 0 || stream.Height <= 0 {
			return 0, 0, services.Wrap(services.ErrProcessing, "ffprobe", "dimensions",
				fmt.Sprintf("video stream %d reports %dx%d", stream.Index, stream.Width, stream.Height), nil)
		}
		if quarterTurn(stream.rotation()) {
			return stream.Height, stream.Width, nil
		}
		return stream.Width, stream.Height, nil
	}
	return 0, 0, services.Wrap(services.ErrProcessing, "ffprobe", "dimensions", "no video stream", nil)
}

func (s Stream) rotation() float64 {
	for _, side := range s.SideDataList {
		if side.Rotation != 0 {
			return side.Rotation
		}
	}
	if parsed, err := strconv.ParseFloat(strings.TrimSpace(s.Tags.Rotate), 64); err == nil {
		return parsed
	}
	return 0
}

func quarterTurn(degrees float64) bool {
	normalized := math.Mod(math.Abs(degrees), 180)
	return normalized == 90
}

// DurationSeconds returns the container duration in seconds, 0 when absent,
// or NaN when the value cannot be parsed.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

// SizeBytes returns the reported container size in bytes, or 0 when unavailable.
func (r Result) SizeBytes() int64 {
	size := parseFloat(r.Format.Size)
	if math.IsNaN(size) || size < 0 {
		return 0
	}
	return int64(size)
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
