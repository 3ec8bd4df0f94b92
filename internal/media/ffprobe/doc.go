// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties, including rotation
//   - Format: container-level metadata (duration, size)
//
// Primary entry points:
//   - Inspect: executes ffprobe and returns parsed Result
//   - Prober: binds a binary so callers can depend on a Probe method
//
// VideoDimensions reports display size, so phone recordings tagged with a
// 90 degree rotation come back as portrait.
package ffprobe
