package history

import (
	"strings"
	"time"

	"shortsmith/internal/segment"
)

// Entry is one generated short.
type Entry struct {
	ID                   int64              `json:"id"`
	VideoURL             string             `json:"video_url"`
	VideoID              string             `json:"video_id,omitempty"`
	OriginalTitle        string             `json:"original_title,omitempty"`
	StartTime            float64            `json:"start_time"`
	EndTime              float64            `json:"end_time"`
	OutputPath           string             `json:"output_path"`
	Mode                 string             `json:"mode"`
	Method               segment.Method     `json:"method,omitempty"`
	Confidence           segment.Confidence `json:"confidence,omitempty"`
	Reason               string             `json:"reason,omitempty"`
	GeneratedTitle       string             `json:"generated_title,omitempty"`
	GeneratedDescription string             `json:"generated_description,omitempty"`
	GeneratedHashtags    string             `json:"generated_hashtags,omitempty"`
	AIGenerated          bool               `json:"ai_generated"`
	Uploaded             bool               `json:"uploaded"`
	UploadedVideoID      string             `json:"uploaded_video_id,omitempty"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// DisplayTitle returns the best available title for listings.
func (e Entry) DisplayTitle() string {
	for _, candidate := range []string{e.GeneratedTitle, e.OriginalTitle, e.VideoURL} {
		if candidate = strings.TrimSpace(candidate); candidate != "" {
			return candidate
		}
	}
	return "Untitled"
}

// Length returns the clip length in seconds.
func (e Entry) Length() float64 {
	return e.EndTime - e.StartTime
}
