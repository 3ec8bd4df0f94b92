// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp video IDs, stage names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent kinds (validation, configuration, processing, upstream).
//   - ToolError, which keeps the captured stderr of a failed ffmpeg or yt-dlp
//     run available as a detailed trace next to the short message.
//
// Use these helpers when wiring new stage logic so operational behaviour (error
// handling, observability) stays uniform across the pipeline.
package services
