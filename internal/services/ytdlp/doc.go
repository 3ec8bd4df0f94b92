// Package ytdlp retrieves video metadata and source media through the yt-dlp
// command-line tool.
//
// FetchMetadata asks yt-dlp for a single JSON document without downloading
// and decodes the fields segment selection relies on: duration, the
// most-replayed heatmap, and chapters. Download fetches the best MP4
// rendition into a working directory and returns the final merged path.
//
// The cookie source is explicit configuration: either a browser profile or a
// Netscape cookie file, never both. Calls are paced by a token-bucket limiter
// so batch analysis does not hammer the platform. Failures surface as
// services.ErrUpstreamUnavailable wrapping a services.ToolError with yt-dlp's
// stderr; deadline overruns surface as services.ErrTimeout.
package ytdlp
