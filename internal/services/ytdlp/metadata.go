package ytdlp

import (
	"strings"

	"shortsmith/internal/segment"
)

// VideoMetadata is the subset of yt-dlp's info JSON used by shortsmith. The
// heatmap and chapter entries decode straight into selector types.
type VideoMetadata struct {
	ID           string                 `json:"id"`
	Title        string                 `json:"title"`
	Description  string                 `json:"description"`
	Duration     float64                `json:"duration"`
	ViewCount    int64                  `json:"view_count"`
	LikeCount    int64                  `json:"like_count"`
	CommentCount int64                  `json:"comment_count"`
	Tags         []string               `json:"tags"`
	Categories   []string               `json:"categories"`
	Chapters     []segment.Chapter      `json:"chapters"`
	Heatmap      []segment.HeatmapPoint `json:"heatmap"`
	Thumbnail    string                 `json:"thumbnail"`
	Uploader     string                 `json:"uploader"`
	UploadDate   string                 `json:"upload_date"`
	WebpageURL   string                 `json:"webpage_url"`
}

// DisplayTitle returns the title or a placeholder when yt-dlp reported none.
func (m VideoMetadata) DisplayTitle() string {
	if title := strings.TrimSpace(m.Title); title != "" {
		return title
	}
	return "Unknown"
}

// SegmentInput converts the metadata into segment selector input.
func (m VideoMetadata) SegmentInput() segment.Input {
	return segment.Input{
		Duration: m.Duration,
		Heatmap:  m.Heatmap,
		Chapters: m.Chapters,
	}
}
