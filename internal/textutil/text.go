package textutil

import (
	"strings"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// Truncate returns at most limit runes of value. A non-positive limit returns "".
func Truncate(value string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}

// Ellipsize truncates value to limit runes, replacing the tail with "..."
// when anything was cut.
func Ellipsize(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return Truncate(value, limit)
	}
	return string(runes[:limit-3]) + "..."
}

// ContainsFold reports whether substr appears in s under Unicode case folding.
func ContainsFold(s, substr string) bool {
	return strings.Contains(folder.String(s), folder.String(substr))
}

// FirstNonEmpty returns the first value that is not blank after trimming.
func FirstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
