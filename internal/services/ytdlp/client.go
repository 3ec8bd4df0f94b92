package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"shortsmith/internal/services"
)

const (
	// DefaultFormat prefers separate MP4 video and M4A audio, merged to MP4.
	DefaultFormat = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"

	outputTemplate = "%(id)s.%(ext)s"
	stageName      = "ytdlp"
)

// Retriever fetches video metadata for a URL.
type Retriever interface {
	FetchMetadata(ctx context.Context, videoURL string) (VideoMetadata, error)
}

// Config captures the yt-dlp invocation settings.
type Config struct {
	Binary             string
	Format             string
	CookiesFromBrowser string
	CookiesFile        string
	MetadataTimeout    time.Duration
	DownloadTimeout    time.Duration
	RequestsPerMinute  int
}

// Download describes a completed media download.
type Download struct {
	Path     string
	Metadata VideoMetadata
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor.
func WithExecutor(exec services.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLimiter replaces the limiter derived from Config.RequestsPerMinute.
// A nil limiter disables pacing.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// Client wraps yt-dlp CLI interactions.
type Client struct {
	cfg     Config
	exec    services.Executor
	limiter *rate.Limiter
}

// New constructs a yt-dlp client.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.Binary = strings.TrimSpace(cfg.Binary)
	if cfg.Binary == "" {
		return nil, fmt.Errorf("%w: yt-dlp binary required", services.ErrConfiguration)
	}
	cfg.CookiesFromBrowser = strings.TrimSpace(cfg.CookiesFromBrowser)
	cfg.CookiesFile = strings.TrimSpace(cfg.CookiesFile)
	if cfg.CookiesFromBrowser != "" && cfg.CookiesFile != "" {
		return nil, fmt.Errorf("%w: cookies_from_browser and cookies_file are mutually exclusive", services.ErrConfiguration)
	}
	if strings.TrimSpace(cfg.Format) == "" {
		cfg.Format = DefaultFormat
	}
	client := &Client{cfg: cfg, exec: services.CommandExecutor{}}
	if cfg.RequestsPerMinute > 0 {
		client.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// FetchMetadata returns the info JSON for videoURL without downloading media.
func (c *Client) FetchMetadata(ctx context.Context, videoURL string) (VideoMetadata, error) {
	if err := ValidateURL(videoURL); err != nil {
		return VideoMetadata{}, err
	}
	args := append(c.cookieArgs(), "--dump-single-json", "--no-download", "--no-warnings", "--no-playlist", videoURL)

	stdout, err := c.run(ctx, c.cfg.MetadataTimeout, "fetch metadata", args)
	if err != nil {
		return VideoMetadata{}, err
	}
	var meta VideoMetadata
	if err := json.Unmarshal(bytes.TrimSpace(stdout), &meta); err != nil {
		return VideoMetadata{}, services.Wrap(services.ErrUpstreamUnavailable, stageName, "fetch metadata", "decode info json", err)
	}
	if strings.TrimSpace(meta.ID) == "" {
		return VideoMetadata{}, services.Wrap(services.ErrUpstreamUnavailable, stageName, "fetch metadata", "info json missing video id", nil)
	}
	return meta, nil
}

// Download fetches videoURL into dir and returns the merged MP4 path.
func (c *Client) Download(ctx context.Context, videoURL, dir string) (Download, error) {
	if err := ValidateURL(videoURL); err != nil {
		return Download{}, err
	}
	if strings.TrimSpace(dir) == "" {
		return Download{}, services.Wrap(services.ErrValidation, stageName, "download", "destination directory required", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Download{}, services.Wrap(services.ErrConfiguration, stageName, "download", "create destination", err)
	}

	args := append(c.cookieArgs(),
		"--format", c.cfg.Format,
		"--merge-output-format", "mp4",
		"--output", filepath.Join(dir, outputTemplate),
		"--no-playlist",
		"--no-progress",
		"--no-warnings",
		"--no-simulate",
		"--print", "after_move:filepath",
		"--dump-json",
		videoURL,
	)
	stdout, err := c.run(ctx, c.cfg.DownloadTimeout, "download", args)
	if err != nil {
		return Download{}, err
	}

	result, err := parseDownloadOutput(stdout)
	if err != nil {
		return Download{}, services.Wrap(services.ErrProcessing, stageName, "download", "parse yt-dlp output", err)
	}
	if _, err := os.Stat(result.Path); err != nil {
		return Download{}, services.Wrap(services.ErrProcessing, stageName, "download", "no output file at "+result.Path, err)
	}
	return result, nil
}

// parseDownloadOutput reads yt-dlp's stdout when both --dump-json and
// --print after_move:filepath are given: one info JSON line followed by the
// final path.
func parseDownloadOutput(stdout []byte) (Download, error) {
	var result Download
	for _, line := range strings.Split(string(stdout), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case strings.HasPrefix(line, "{"):
			if err := json.Unmarshal([]byte(line), &result.Metadata); err != nil {
				return Download{}, fmt.Errorf("decode info json: %w", err)
			}
		default:
			result.Path = line
		}
	}
	if result.Path == "" {
		return Download{}, errors.New("yt-dlp did not report an output path")
	}
	return result, nil
}

func (c *Client) cookieArgs() []string {
	switch {
	case c.cfg.CookiesFromBrowser != "":
		return []string{"--cookies-from-browser", c.cfg.CookiesFromBrowser}
	case c.cfg.CookiesFile != "":
		return []string{"--cookies", c.cfg.CookiesFile}
	}
	return nil
}

func (c *Client) run(ctx context.Context, timeout time.Duration, op string, args []string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, services.Wrap(services.ErrUpstreamUnavailable, stageName, op, "rate limit wait", err)
		}
	}
	runCtx, cancel := services.WithTimeout(ctx, timeout)
	defer cancel()

	stdout, err := c.exec.Run(runCtx, c.cfg.Binary, args)
	if err == nil {
		return stdout, nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, services.Wrap(services.ErrTimeout, stageName, op, fmt.Sprintf("yt-dlp exceeded %s", timeout), err)
	}
	return nil, services.Wrap(services.ErrUpstreamUnavailable, stageName, op, "yt-dlp failed", err)
}

// ValidateURL rejects empty and non-http(s) URLs before any process is spawned.
func ValidateURL(videoURL string) error {
	trimmed := strings.TrimSpace(videoURL)
	if trimmed == "" {
		return services.Wrap(services.ErrValidation, stageName, "validate url", "video url required", nil)
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return services.Wrap(services.ErrValidation, stageName, "validate url", fmt.Sprintf("invalid video url %q", trimmed), err)
	}
	return nil
}
