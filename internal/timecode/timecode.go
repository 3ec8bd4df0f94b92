// Package timecode parses and formats the clock-style timestamps used for
// segment boundaries ("SS", "MM:SS", "HH:MM:SS").
package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"shortsmith/internal/services"
)

// Parse converts a timestamp into seconds. Accepted forms are plain seconds,
// MM:SS, and HH:MM:SS; the final component may carry a decimal fraction.
func Parse(value string) (float64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, services.Wrap(services.ErrValidation, "timecode", "parse", "empty time value", nil)
	}
	parts := strings.Split(trimmed, ":")
	if len(parts) > 3 {
		return 0, invalid(value)
	}

	var total float64
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return 0, invalid(value)
		}
		last := i == len(parts)-1
		var component float64
		if last {
			parsed, err := strconv.ParseFloat(part, 64)
			if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
				return 0, invalid(value)
			}
			component = parsed
		} else {
			parsed, err := strconv.Atoi(part)
			if err != nil {
				return 0, invalid(value)
			}
			component = float64(parsed)
		}
		if component < 0 {
			return 0, services.Wrap(services.ErrValidation, "timecode", "parse", fmt.Sprintf("negative time %q", value), nil)
		}
		total = total*60 + component
	}
	return total, nil
}

// Format renders seconds as M:SS with unbounded minutes.
func Format(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	whole := int(seconds)
	return fmt.Sprintf("%d:%02d", whole/60, whole%60)
}

// FormatClock renders seconds as H:MM:SS once an hour is reached, else M:SS.
func FormatClock(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	whole := int(seconds)
	if whole < 3600 {
		return Format(seconds)
	}
	return fmt.Sprintf("%d:%02d:%02d", whole/3600, (whole%3600)/60, whole%60)
}

func invalid(value string) error {
	return services.Wrap(services.ErrValidation, "timecode", "parse",
		fmt.Sprintf("invalid time format %q (use SS, MM:SS, or HH:MM:SS)", value), nil)
}
