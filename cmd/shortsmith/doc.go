// Command shortsmith turns long-form videos into vertical Shorts.
//
// It picks a segment from YouTube's "most replayed" heatmap or chapter
// markers, downloads the source with yt-dlp, reframes it for a 1080x1920
// canvas with ffmpeg, and records every rendered short in a local history
// database. "shortsmith serve" exposes the same operations over HTTP.
package main
