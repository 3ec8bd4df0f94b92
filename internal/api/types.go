package api

import (
	"shortsmith/internal/history"
	"shortsmith/internal/segment"
)

// AnalyzeRequest asks for the best segment of a video.
type AnalyzeRequest struct {
	VideoURL string `json:"video_url" validate:"required,url"`
}

// GenerateRequest asks for a short to be rendered.
type GenerateRequest struct {
	VideoURL   string `json:"video_url" validate:"required,url"`
	StartTime  string `json:"start_time" validate:"omitempty,max=16"`
	EndTime    string `json:"end_time" validate:"omitempty,max=16"`
	AutoDetect bool   `json:"auto_detect"`
	Mode       string `json:"mode" validate:"omitempty,oneof=shorts cut"`
}

// MarkUploadedRequest records an external upload. Cleanup deletes the
// uploaded file and empties the downloads directory afterwards.
type MarkUploadedRequest struct {
	VideoID string `json:"video_id" validate:"required,max=64"`
	Cleanup bool   `json:"cleanup"`
}

// GeometryRequest asks for a frame plan.
type GeometryRequest struct {
	Width        int    `json:"width" validate:"gt=0"`
	Height       int    `json:"height" validate:"gt=0"`
	RotationMode string `json:"rotation_mode" validate:"omitempty,oneof=smart rotate scale"`
	Scaling      string `json:"scaling" validate:"omitempty,oneof=cover contain"`
}

// SegmentRequest runs the segment selector on caller-supplied metadata.
type SegmentRequest struct {
	Duration float64                `json:"duration" validate:"gte=1"`
	Heatmap  []segment.HeatmapPoint `json:"heatmap"`
	Chapters []segment.Chapter      `json:"chapters"`
}

// SegmentResponse carries the selected segment.
type SegmentResponse struct {
	Segment segment.Segment `json:"segment"`
}

// ShortListResponse wraps history listings.
type ShortListResponse struct {
	Shorts []*history.Entry `json:"shorts"`
}

// ShortResponse wraps one history entry.
type ShortResponse struct {
	Short *history.Entry `json:"short"`
}

// MarkUploadedResponse reports the updated entry and any files removed.
type MarkUploadedResponse struct {
	Short        *history.Entry `json:"short"`
	CleanedFiles int            `json:"cleaned_files"`
}

// DeleteResponse reports what a delete removed.
type DeleteResponse struct {
	Deleted     bool `json:"deleted"`
	FileRemoved bool `json:"file_removed"`
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	LLM    bool   `json:"llm"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`
}
