package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrConfiguration       = errors.New("configuration error")
	ErrProcessing          = errors.New("processing error")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrNotFound            = errors.New("not found")
	ErrTimeout             = errors.New("timeout")
)

// Kind is the coarse failure class reported to users and API clients.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindConfiguration       Kind = "configuration"
	KindProcessing          Kind = "processing"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindNotFound            Kind = "not_found"
	KindTimeout             Kind = "timeout"
	KindInternal            Kind = "internal"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrProcessing
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ToolError captures the diagnostic output of a failed external process.
type ToolError struct {
	Tool     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s exited", e.Tool)
	if e.ExitCode != 0 {
		msg = fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
	}
	if tail := lastLines(e.Stderr, 3); tail != "" {
		msg += ": " + tail
	}
	return msg
}

func (e *ToolError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Diagnostics returns the full captured stderr of the first ToolError in the chain.
func Diagnostics(err error) string {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return strings.TrimSpace(toolErr.Stderr)
	}
	return ""
}

// Classify maps an error to its failure kind.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrUpstreamUnavailable):
		return KindUpstreamUnavailable
	case errors.Is(err, ErrProcessing):
		return KindProcessing
	default:
		return KindInternal
	}
}

// HTTPStatus maps an error to the status code the API responds with.
func HTTPStatus(err error) int {
	return Classify(err).HTTPStatus()
}

// HTTPStatus returns the status code used for failures of this kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindConfiguration:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindUpstreamUnavailable:
		return http.StatusBadGateway
	case KindProcessing:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Summary returns the short, human-readable part of an error: the outermost
// message without the wrapped cause chain or tool diagnostics.
func Summary(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if idx := strings.Index(msg, "\n"); idx >= 0 {
		msg = msg[:idx]
	}
	const limit = 200
	if runes := []rune(msg); len(runes) > limit {
		msg = string(runes[:limit]) + "..."
	}
	return msg
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

func lastLines(value string, n int) string {
	lines := strings.Split(strings.TrimSpace(value), "\n")
	kept := make([]string, 0, n)
	for i := len(lines) - 1; i >= 0 && len(kept) < n; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			kept = append([]string{line}, kept...)
		}
	}
	return strings.Join(kept, " | ")
}
