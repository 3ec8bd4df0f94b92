package textgen

import (
	"context"
	"fmt"
	"strings"

	"shortsmith/internal/services"
)

const explainSystemPrompt = "You are a helpful debugging assistant for a YouTube Shorts automation tool."

var fallbackExplanations = map[services.Kind]string{
	services.KindValidation:          "Invalid input value provided. Check that the URL and times are in the correct format.",
	services.KindConfiguration:       "Required configuration is missing or invalid. Check your settings file.",
	services.KindProcessing:          "An external tool failed while processing the video. Check that ffmpeg is installed and the source file is intact.",
	services.KindUpstreamUnavailable: "Could not reach the required service. Check your internet connection or try a different cookie source.",
	services.KindNotFound:            "The requested item could not be found. Check the identifier or path.",
	services.KindTimeout:             "The operation took too long to complete. Try again or raise the configured timeout.",
}

// Explanation is a user-facing account of a failure.
type Explanation struct {
	Kind        services.Kind `json:"kind"`
	Message     string        `json:"message"`
	Explanation string        `json:"explanation"`
	Context     string        `json:"context,omitempty"`
	Detail      string        `json:"detail,omitempty"`
	AIGenerated bool          `json:"ai_generated"`
}

// FallbackExplanation returns the templated explanation for an error.
func FallbackExplanation(err error) string {
	kind := services.Classify(err)
	base, ok := fallbackExplanations[kind]
	if !ok {
		base = fmt.Sprintf("An unexpected %s error occurred. Check the error message for details.", kind)
	}
	return fmt.Sprintf("%s Error details: %s", base, services.Summary(err))
}

// ExplainError describes err in plain language. where names the operation
// that failed, e.g. "downloading video".
func (g *Generator) ExplainError(ctx context.Context, err error, where string) Explanation {
	out := Explanation{
		Kind:        services.Classify(err),
		Message:     services.Summary(err),
		Context:     strings.TrimSpace(where),
		Detail:      services.Diagnostics(err),
		Explanation: FallbackExplanation(err),
	}
	if err == nil {
		out.Explanation = ""
		return out
	}

	prompt := fmt.Sprintf(`An error occurred:
Error Kind: %s
Error Message: %s
Context: %s

Provide a clear, concise explanation in 2-3 sentences that explains what went wrong in simple terms and suggests a specific fix. Write for someone who may not be a developer.

Format: Just the explanation, no extra formatting or labels.`, out.Kind, out.Message, out.Context)

	if text, ok := g.complete(ctx, "explain error", explainSystemPrompt, prompt); ok {
		out.Explanation = text
		out.AIGenerated = true
	}
	return out
}
