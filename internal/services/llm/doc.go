// Package llm provides an OpenAI-compatible chat completion client used for
// short-form metadata generation and error explanations.
//
// The default endpoint is OpenRouter; Gemini's OpenAI-compatible endpoint works
// unchanged. Complete returns the model's free-text reply with any markdown
// fence removed.
//
// Requests are paced by an optional token-bucket limiter and retried on HTTP
// 408/429/5xx, empty completions, and network timeouts with exponential
// backoff (base 1s, max 10s, up to 5 attempts by default). Retry-After headers
// are honored. Context cancellation aborts retries immediately.
//
// Callers treat every error from this package as non-fatal and fall back to
// deterministic text.
package llm
