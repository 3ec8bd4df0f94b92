package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"shortsmith/internal/config"
)

// ConfigOption adjusts the configuration produced by NewConfig.
type ConfigOption func(t testing.TB, base string, cfg *config.Config)

// NewConfig returns the default configuration with every working directory
// moved under a fresh temp dir. The LLM is disabled and the API binds to an
// ephemeral port.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths = config.Paths{
		DownloadsDir: filepath.Join(base, "downloads"),
		OutputsDir:   filepath.Join(base, "outputs"),
		DataDir:      filepath.Join(base, "data"),
		LogDir:       filepath.Join(base, "logs"),
	}
	cfg.Cache.Dir = filepath.Join(base, "cache")
	cfg.API.Bind = "127.0.0.1:0"
	cfg.LLM.APIKey = ""

	for _, opt := range opts {
		opt(t, base, &cfg)
	}
	return &cfg
}

// WithLLMKey enables text generation against baseURL with the given key.
func WithLLMKey(key, baseURL string) ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.LLM.APIKey = key
		if baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	}
}

// WithAPIToken sets the bearer token required by the HTTP API.
func WithAPIToken(token string) ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.API.Token = token
	}
}

// WithStubbedBinaries installs shell stubs for ffmpeg, ffprobe, and yt-dlp
// that print a version line and exit 0, and points the config at them by
// absolute path.
func WithStubbedBinaries() ConfigOption {
	return func(t testing.TB, base string, cfg *config.Config) {
		binDir := filepath.Join(base, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			t.Fatalf("mkdir bin dir: %v", err)
		}
		stub := func(name string) string {
			path := filepath.Join(binDir, name)
			script := fmt.Sprintf("#!/bin/sh\necho '%s version stub'\n", name)
			if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
				t.Fatalf("write stub %s: %v", name, err)
			}
			return path
		}
		cfg.FFmpeg.FFmpegBinary = stub("ffmpeg")
		cfg.FFmpeg.FFprobeBinary = stub("ffprobe")
		cfg.YTDLP.Binary = stub("yt-dlp")
	}
}
