package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"shortsmith/internal/services"
)

const (
	defaultBaseURL     = "https://openrouter.ai/api/v1/chat/completions"
	defaultHTTPTimeout = 60 * time.Second
	defaultTemperature = 0.7
)

// Config captures the runtime settings required to talk to the LLM.
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	Referer           string
	Title             string
	TimeoutSeconds    int
	RequestsPerMinute int
}

// Client wraps an OpenAI-compatible chat completion API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      retryPolicy
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts caps the number of requests per completion (default 5).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) { c.retry.attempts = attempts }
}

// WithRetryBackoff overrides the exponential backoff bounds.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retry.base = baseDelay
		c.retry.max = maxDelay
	}
}

// WithSleeper replaces the timer used between retries.
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) { c.retry.sleeper = sleeper }
}

// WithLimiter replaces the limiter derived from Config.RequestsPerMinute.
// A nil limiter disables pacing.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) { c.limiter = limiter }
}

// NewClient constructs an LLM client. A blank API key yields a client whose
// Enabled method reports false.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.Referer = strings.TrimSpace(cfg.Referer)
	cfg.Title = strings.TrimSpace(cfg.Title)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		retry:      defaultRetryPolicy(),
	}
	if cfg.RequestsPerMinute > 0 {
		client.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Enabled reports whether the client has credentials to issue requests.
func (c *Client) Enabled() bool {
	return c != nil && c.cfg.APIKey != ""
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.cfg.Model
}

// Complete sends one system and one user message and returns the reply text
// with whitespace and any surrounding markdown fence removed.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	const op = "llm complete"
	systemPrompt = strings.TrimSpace(systemPrompt)
	userPrompt = strings.TrimSpace(userPrompt)
	switch {
	case !c.Enabled():
		return "", services.Wrap(services.ErrConfiguration, "llm", "complete", "api key required", nil)
	case systemPrompt == "" || userPrompt == "":
		return "", services.Wrap(services.ErrValidation, "llm", "complete", "system and user prompts are required", nil)
	}

	payload := chatRequest{
		Model:       c.cfg.Model,
		Temperature: defaultTemperature,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}
	text, err := c.completeWithRetry(ctx, op, payload)
	if err != nil {
		return "", err
	}
	return StripCodeFence(text), nil
}

// HealthCheck sends a one-word ping to verify the key and model are usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	reply, err := c.Complete(ctx, "You are a connectivity probe. Follow the instruction exactly.", "Reply with the single word OK.")
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ToUpper(reply), "OK") {
		return services.Wrap(services.ErrUpstreamUnavailable, "llm", "health",
			fmt.Sprintf("unexpected reply %s", snippet(reply)), nil)
	}
	return nil
}

func (c *Client) completeWithRetry(ctx context.Context, op string, payload chatRequest) (string, error) {
	attempts := c.retry.maxAttempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return "", classify(fmt.Errorf("%s: rate limit wait: %w", op, err))
			}
		}
		text, err := c.completeOnce(ctx, op, payload)
		if err == nil {
			return text, nil
		}
		lastErr = err
		delay, again := c.retry.next(ctx, err, attempt)
		if !again {
			break
		}
		if err := c.retry.wait(ctx, delay); err != nil {
			return "", classify(err)
		}
	}
	if attempts > 1 {
		lastErr = fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, lastErr)
	}
	return "", classify(lastErr)
}

func (c *Client) completeOnce(ctx context.Context, op string, payload chatRequest) (string, error) {
	resp, body, err := c.post(ctx, payload)
	if err != nil {
		return "", err
	}
	r := resp.firstReply()
	if r.text != "" {
		return r.text, nil
	}
	return "", &emptyReplyError{op: op, finishReason: r.finishReason, refusal: r.refusal, body: snippet(string(body))}
}

// classify tags transport failures so callers can map them to a failure
// kind. Configuration, validation, and cancellation errors pass through.
func classify(err error) error {
	switch {
	case err == nil,
		errors.Is(err, services.ErrConfiguration),
		errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrUpstreamUnavailable),
		errors.Is(err, services.ErrTimeout),
		errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", services.ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %w", services.ErrUpstreamUnavailable, err)
	}
}
