package textutil

import (
	"strings"
)

// SplitHashtags parses a comma or whitespace separated hashtag list. Leading
// '#' marks are removed and duplicates are dropped case-insensitively,
// keeping the first spelling.
func SplitHashtags(line string) []string {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	seen := make(map[string]struct{}, len(fields))
	tags := make([]string, 0, len(fields))
	for _, field := range fields {
		tag := strings.TrimLeft(strings.TrimSpace(field), "#")
		if tag == "" {
			continue
		}
		key := folder.String(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// FormatHashtags renders tags as "#a #b".
func FormatHashtags(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimLeft(strings.TrimSpace(tag), "#"); tag != "" {
			parts = append(parts, "#"+tag)
		}
	}
	return strings.Join(parts, " ")
}
