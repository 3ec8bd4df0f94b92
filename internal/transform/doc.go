// Package transform turns a downloaded source video and a selected segment
// into a vertical clip by driving ffmpeg.
//
// In shorts mode the driver probes the source, computes a geometry plan,
// and encodes a single filter chain: optional transpose, scale, crop or pad
// to the target canvas, fixed frame rate, square pixels. Cut mode only trims
// the segment and re-encodes it. Both modes truncate segments longer than
// the configured maximum before the encoder starts.
//
// The encoder runs once per request under a wall-clock timeout. Failures are
// services.ErrProcessing carrying ffmpeg's stderr in a services.ToolError;
// the driver never retries.
package transform
