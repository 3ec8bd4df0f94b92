// Package pipeline turns a video URL and an optional time range into a
// finished short: it picks or parses the segment, downloads the source,
// renders the clip, records it in history, and cleans up the downloads.
package pipeline
