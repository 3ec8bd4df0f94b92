package textgen

import (
	"context"
	"fmt"

	"shortsmith/internal/textutil"
)

const defaultHashtags = "#YouTubeShorts #Shorts #Viral"

// TitleHashtags is a standalone title suggestion used when segment analysis
// was skipped.
type TitleHashtags struct {
	Title       string `json:"title"`
	Hashtags    string `json:"hashtags"`
	AIGenerated bool   `json:"ai_generated"`
}

// DefaultTitleHashtags returns the templated title and hashtag line.
func DefaultTitleHashtags(originalTitle string) TitleHashtags {
	return TitleHashtags{
		Title:    "Short: " + textutil.Truncate(originalTitle, 50),
		Hashtags: defaultHashtags,
	}
}

// TitleAndHashtags suggests a title and a hashtag line from the source title alone.
func (g *Generator) TitleAndHashtags(ctx context.Context, originalTitle string) TitleHashtags {
	fallback := DefaultTitleHashtags(originalTitle)
	prompt := fmt.Sprintf(`Based on this YouTube video title: %q

Generate:
1. A short, catchy title (max 60 characters) suitable for a YouTube Short
2. 5 relevant hashtags

Format your response EXACTLY like this:
TITLE: [your generated title]
HASHTAGS: #tag1 #tag2 #tag3 #tag4 #tag5`, originalTitle)

	text, ok := g.complete(ctx, "title and hashtags", metadataSystemPrompt, prompt)
	if !ok {
		return fallback
	}
	fields := parseFields(text, "TITLE", "HASHTAGS")
	out := TitleHashtags{
		Title:       textutil.Truncate(fields["TITLE"], maxTitleRunes),
		Hashtags:    textutil.FormatHashtags(textutil.SplitHashtags(fields["HASHTAGS"])),
		AIGenerated: true,
	}
	if out.Title == "" {
		out.Title = fallback.Title
	}
	if out.Hashtags == "" {
		out.Hashtags = fallback.Hashtags
	}
	return out
}
