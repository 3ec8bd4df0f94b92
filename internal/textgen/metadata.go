package textgen

import (
	"context"
	"fmt"
	"strings"

	"shortsmith/internal/segment"
	"shortsmith/internal/services/ytdlp"
	"shortsmith/internal/textutil"
	"shortsmith/internal/timecode"
)

const (
	maxTitleRunes        = 100
	descriptionExcerpt   = 500
	shortsTag            = "#Shorts"
	metadataSystemPrompt = "You write titles and descriptions for YouTube Shorts. Answer using the exact line format requested."
)

var defaultTags = []string{"Shorts", "YouTubeShorts"}

// Metadata is the upload text suggested for a short.
type Metadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	AIGenerated bool     `json:"ai_generated"`
}

// DefaultMetadata returns the templated metadata for a video title.
func DefaultMetadata(title string) Metadata {
	return Metadata{
		Title:       textutil.Truncate(title, maxTitleRunes),
		Description: fmt.Sprintf("%s\n\nClip from: %s", shortsTag, title),
		Tags:        append([]string(nil), defaultTags...),
	}
}

// ShortMetadata asks the model for a title, description, and hashtags that
// fit the chosen segment. Missing fields fall back to the template.
func (g *Generator) ShortMetadata(ctx context.Context, video ytdlp.VideoMetadata, seg segment.Segment) Metadata {
	title := video.DisplayTitle()
	fallback := DefaultMetadata(title)

	text, ok := g.complete(ctx, "short metadata", metadataSystemPrompt, metadataPrompt(video, seg))
	if !ok {
		return fallback
	}

	fields := parseFields(text, "TITLE", "DESCRIPTION", "HASHTAGS")
	out := Metadata{
		Title:       textutil.Truncate(fields["TITLE"], maxTitleRunes),
		Description: fields["DESCRIPTION"],
		Tags:        textutil.SplitHashtags(fields["HASHTAGS"]),
		AIGenerated: true,
	}
	if out.Title == "" {
		out.Title = fallback.Title
	}
	if out.Description == "" {
		out.Description = fallback.Description
	} else if !strings.Contains(out.Description, "#Shorts") && !strings.Contains(out.Description, "#shorts") {
		out.Description = shortsTag + "\n\n" + out.Description
	}
	if len(out.Tags) == 0 {
		out.Tags = fallback.Tags
	}
	return out
}

func metadataPrompt(video ytdlp.VideoMetadata, seg segment.Segment) string {
	var b strings.Builder
	b.WriteString("You are creating a YouTube Short from this video:\n\n")
	fmt.Fprintf(&b, "Original Title: %s\n", video.DisplayTitle())
	fmt.Fprintf(&b, "Original Description: %s\n", textutil.Truncate(video.Description, descriptionExcerpt))
	fmt.Fprintf(&b, "Video Duration: %.0f seconds\n", video.Duration)
	fmt.Fprintf(&b, "Selected Segment: %s to %s\n", timecode.Format(seg.Start), timecode.Format(seg.End))
	fmt.Fprintf(&b, "Reason: %s\n\n", seg.Reason)
	b.WriteString("Generate:\n")
	b.WriteString("1. A catchy title for the Short (max 60 characters, engaging and clickable)\n")
	b.WriteString("2. A description with #Shorts tag and relevant context (2-3 sentences)\n")
	b.WriteString("3. 5 relevant hashtags (comma-separated)\n\n")
	b.WriteString("Format your response as:\n")
	b.WriteString("TITLE: [your title]\n")
	b.WriteString("DESCRIPTION: [your description]\n")
	b.WriteString("HASHTAGS: [hashtags]")
	return b.String()
}
