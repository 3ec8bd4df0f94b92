package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"shortsmith/internal/config"
)

func clearLLMEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("SHORTSMITH_API_TOKEN", "")
	t.Setenv("SHORTSMITH_YTDLP_COOKIES_FROM_BROWSER", "")
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearLLMEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_CACHE_HOME", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantDownloads := filepath.Join(tempHome, ".local", "share", "shortsmith", "downloads")
	if cfg.Paths.DownloadsDir != wantDownloads {
		t.Fatalf("unexpected downloads dir: got %q want %q", cfg.Paths.DownloadsDir, wantDownloads)
	}
	if cfg.HistoryPath() != filepath.Join(tempHome, ".local", "share", "shortsmith", "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.HistoryPath())
	}
	if cfg.Cache.Dir != filepath.Join(tempHome, ".cache", "shortsmith", "metadata") {
		t.Fatalf("unexpected cache dir: %q", cfg.Cache.Dir)
	}
	if cfg.API.Bind != "127.0.0.1:7488" {
		t.Fatalf("unexpected api bind: %q", cfg.API.Bind)
	}
	if cfg.Shorts.TargetWidth != 1080 || cfg.Shorts.TargetHeight != 1920 || cfg.Shorts.MaxClipSeconds != 45 {
		t.Fatalf("unexpected shorts defaults: %+v", cfg.Shorts)
	}
	if cfg.FFmpeg.FrameRate != 30 || cfg.FFmpeg.Preset != "medium" || cfg.FFmpeg.VideoCodec != "libx264" || cfg.FFmpeg.AudioCodec != "aac" {
		t.Fatalf("unexpected ffmpeg defaults: %+v", cfg.FFmpeg)
	}
	if cfg.GetLLM().Enabled() {
		t.Fatal("expected text generation disabled without an API key")
	}
	if cfg.LLM.BaseURL != "https://openrouter.ai/api/v1/chat/completions" {
		t.Fatalf("unexpected llm base url: %q", cfg.LLM.BaseURL)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, dir := range []string{cfg.Paths.DownloadsDir, cfg.Paths.OutputsDir, cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Cache.Dir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearLLMEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "shortsmith.toml")

	type payload struct {
		Paths struct {
			OutputsDir string `toml:"outputs_dir"`
		} `toml:"paths"`
		Shorts struct {
			MaxClipSeconds int    `toml:"max_clip_seconds"`
			RotationMode   string `toml:"rotation_mode"`
		} `toml:"shorts"`
		YTDLP struct {
			CookiesFromBrowser string `toml:"cookies_from_browser"`
		} `toml:"ytdlp"`
		LLM struct {
			APIKey string `toml:"api_key"`
			Model  string `toml:"model"`
		} `toml:"llm"`
	}
	custom := payload{}
	custom.Paths.OutputsDir = filepath.Join(tempDir, "out")
	custom.Shorts.MaxClipSeconds = 30
	custom.Shorts.RotationMode = " Scale "
	custom.YTDLP.CookiesFromBrowser = "Firefox"
	custom.LLM.APIKey = "file-key"
	custom.LLM.Model = "demo/model"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.OutputsDir != filepath.Join(tempDir, "out") {
		t.Fatalf("unexpected outputs dir: %q", cfg.Paths.OutputsDir)
	}
	if cfg.Shorts.MaxClipSeconds != 30 {
		t.Fatalf("expected max clip 30, got %d", cfg.Shorts.MaxClipSeconds)
	}
	if cfg.Shorts.RotationMode != "scale" {
		t.Fatalf("expected normalized rotation mode, got %q", cfg.Shorts.RotationMode)
	}
	if cfg.YTDLP.CookiesFromBrowser != "firefox" {
		t.Fatalf("expected normalized browser, got %q", cfg.YTDLP.CookiesFromBrowser)
	}
	llm := cfg.GetLLM()
	if !llm.Enabled() || llm.APIKey != "file-key" || llm.Model != "demo/model" {
		t.Fatalf("unexpected llm config: %+v", llm)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	clearLLMEnv(t)
	configPath := filepath.Join(t.TempDir(), "shortsmith.toml")
	if err := os.WriteFile(configPath, []byte("[shorts]\nmax_clip = 30\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestLoadMissingCustomPathUsesDefaults(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("HOME", t.TempDir())
	missing := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, exists, err := config.Load(missing)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists || resolved != missing {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Shorts.MaxClipSeconds != 45 {
		t.Fatalf("expected defaults, got %+v", cfg.Shorts)
	}
}

func TestEnvFallbacks(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENROUTER_API_KEY", "env-openrouter")
	t.Setenv("SHORTSMITH_API_TOKEN", "env-token")
	t.Setenv("SHORTSMITH_YTDLP_COOKIES_FROM_BROWSER", "Chrome")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "env-openrouter" {
		t.Errorf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.API.Token != "env-token" {
		t.Errorf("expected API token from env, got %q", cfg.API.Token)
	}
	if cfg.YTDLP.CookiesFromBrowser != "chrome" {
		t.Errorf("expected cookie browser from env, got %q", cfg.YTDLP.CookiesFromBrowser)
	}
}

func TestGeminiKeySwitchesEndpoint(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "env-gemini")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "env-gemini" {
		t.Fatalf("expected gemini key, got %q", cfg.LLM.APIKey)
	}
	if !strings.Contains(cfg.LLM.BaseURL, "generativelanguage.googleapis.com") {
		t.Fatalf("expected gemini endpoint, got %q", cfg.LLM.BaseURL)
	}
	if cfg.LLM.Model != "gemini-2.0-flash" {
		t.Fatalf("expected gemini model, got %q", cfg.LLM.Model)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "[shorts]") {
		t.Fatalf("sample config missing shorts section: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.OutputsDir, "shortsmith") {
		t.Fatalf("expected outputs dir to contain shortsmith, got %q", cfg.Paths.OutputsDir)
	}
	if cfg.Shorts.MaxClipSeconds != 45 {
		t.Fatalf("expected sample max clip 45, got %d", cfg.Shorts.MaxClipSeconds)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"timeout", func(c *config.Config) { c.FFmpeg.TimeoutSeconds = 0 }, "ffmpeg.timeout_seconds must be positive"},
		{"frame rate", func(c *config.Config) { c.FFmpeg.FrameRate = 0 }, "ffmpeg.frame_rate must be positive"},
		{"crf", func(c *config.Config) { c.FFmpeg.CRF = 60 }, "ffmpeg.crf"},
		{"odd width", func(c *config.Config) { c.Shorts.TargetWidth = 1081 }, "must be even"},
		{"max clip", func(c *config.Config) { c.Shorts.MaxClipSeconds = 0 }, "shorts.max_clip_seconds must be positive"},
		{"rotation", func(c *config.Config) { c.Shorts.RotationMode = "sideways" }, "shorts.rotation_mode"},
		{"scaling", func(c *config.Config) { c.Shorts.Scaling = "stretch" }, "shorts.scaling"},
		{"cookies", func(c *config.Config) {
			c.YTDLP.CookiesFromBrowser = "firefox"
			c.YTDLP.CookiesFile = "/tmp/cookies.txt"
		}, "mutually exclusive"},
		{"base url", func(c *config.Config) { c.LLM.BaseURL = "ftp://example" }, "llm.base_url"},
		{"stale hours", func(c *config.Config) { c.Cleanup.StaleHours = -1 }, "cleanup.stale_hours"},
	}
	for _, tc := range cases {
		cfg := config.Default()
		tc.mutate(&cfg)
		err := cfg.Validate()
		if err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected %q in %q", tc.name, tc.want, err.Error())
		}
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}
