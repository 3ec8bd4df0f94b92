package textgen

import (
	"context"
	"log/slog"
	"strings"

	"shortsmith/internal/logging"
)

// Completer is the subset of the LLM client used for text generation.
type Completer interface {
	Enabled() bool
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Generator builds titles, descriptions, and error explanations.
type Generator struct {
	llm    Completer
	logger *slog.Logger
}

// New returns a Generator. A nil completer always yields the deterministic defaults.
func New(llm Completer, logger *slog.Logger) *Generator {
	return &Generator{
		llm:    llm,
		logger: logging.NewComponentLogger(logger, "textgen"),
	}
}

// Available reports whether a language model will be consulted.
func (g *Generator) Available() bool {
	return g != nil && g.llm != nil && g.llm.Enabled()
}

func (g *Generator) complete(ctx context.Context, op, systemPrompt, userPrompt string) (string, bool) {
	if !g.Available() {
		return "", false
	}
	text, err := g.llm.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, g.logger), "text generation failed; using defaults", "textgen_fallback",
			logging.String("operation", op),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check llm.api_key and network access"),
			logging.String(logging.FieldImpact, "templated text used instead of generated text"),
		)
		return "", false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	return text, true
}

// parseFields collects the value after each "PREFIX:" line. The first
// occurrence of a prefix wins.
func parseFields(text string, prefixes ...string) map[string]string {
	fields := make(map[string]string, len(prefixes))
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		for _, prefix := range prefixes {
			marker := prefix + ":"
			if !strings.HasPrefix(line, marker) {
				continue
			}
			if _, seen := fields[prefix]; !seen {
				fields[prefix] = strings.TrimSpace(strings.TrimPrefix(line, marker))
			}
			break
		}
	}
	return fields
}
