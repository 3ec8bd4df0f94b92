package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains working directory configuration.
type Paths struct {
	DownloadsDir string `toml:"downloads_dir"`
	OutputsDir   string `toml:"outputs_dir"`
	DataDir      string `toml:"data_dir"`
	LogDir       string `toml:"log_dir"`
}

// API contains configuration for the HTTP server.
type API struct {
	Bind           string   `toml:"bind"`
	Token          string   `toml:"token"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// YTDLP contains configuration for the yt-dlp media retriever.
type YTDLP struct {
	Binary                 string `toml:"binary"`
	Format                 string `toml:"format"`
	CookiesFromBrowser     string `toml:"cookies_from_browser"`
	CookiesFile            string `toml:"cookies_file"`
	MetadataTimeoutSeconds int    `toml:"metadata_timeout_seconds"`
	DownloadTimeoutSeconds int    `toml:"download_timeout_seconds"`
	RequestsPerMinute      int    `toml:"requests_per_minute"`
}

// FFmpeg contains encoder settings.
type FFmpeg struct {
	FFmpegBinary   string `toml:"ffmpeg_binary"`
	FFprobeBinary  string `toml:"ffprobe_binary"`
	VideoCodec     string `toml:"video_codec"`
	AudioCodec     string `toml:"audio_codec"`
	Preset         string `toml:"preset"`
	CRF            int    `toml:"crf"`
	FrameRate      int    `toml:"frame_rate"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Shorts contains the output canvas and clip policy.
type Shorts struct {
	TargetWidth    int    `toml:"target_width"`
	TargetHeight   int    `toml:"target_height"`
	MaxClipSeconds int    `toml:"max_clip_seconds"`
	RotationMode   string `toml:"rotation_mode"`
	Scaling        string `toml:"scaling"`
	SuppressAudio  bool   `toml:"suppress_audio"`
}

// LLM contains text generation connection settings.
type LLM struct {
	APIKey            string `toml:"api_key"`
	BaseURL           string `toml:"base_url"`
	Model             string `toml:"model"`
	Referer           string `toml:"referer"`
	Title             string `toml:"title"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
}

// Cache contains configuration for the video metadata cache.
type Cache struct {
	Enabled  bool   `toml:"enabled"`
	Dir      string `toml:"dir"`
	TTLHours int    `toml:"ttl_hours"`
}

// Cleanup contains configuration for working-file cleanup.
type Cleanup struct {
	KeepOutputs bool `toml:"keep_outputs"`
	StaleHours  int  `toml:"stale_hours"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for Shortsmith.
//
// Configuration sections by subsystem:
//   - Paths: downloads, outputs, history database, and logs
//   - API: HTTP bind address, bearer token, CORS origins
//   - YTDLP: metadata and download collaborator, explicit cookie source
//   - FFmpeg: encoder binaries, codecs, and wall-clock timeout
//   - Shorts: target canvas, clip length cap, rotation policy
//   - LLM: text generation for titles, descriptions, and error explanations
//   - Cache: metadata cache location and TTL
//   - Cleanup: retention of working files
//   - Logging: log format, level, and retention
type Config struct {
	Paths   Paths   `toml:"paths"`
	API     API     `toml:"api"`
	YTDLP   YTDLP   `toml:"ytdlp"`
	FFmpeg  FFmpeg  `toml:"ffmpeg"`
	Shorts  Shorts  `toml:"shorts"`
	LLM     LLM     `toml:"llm"`
	Cache   Cache   `toml:"cache"`
	Cleanup Cleanup `toml:"cleanup"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/shortsmith/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err == nil {
			if info.IsDir() {
				return "", false, fmt.Errorf("config path %q is a directory", expanded)
			}
			return expanded, true, nil
		}
		if os.IsNotExist(err) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("shortsmith.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the working directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DownloadsDir, c.Paths.OutputsDir, c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Cache.Enabled && strings.TrimSpace(c.Cache.Dir) != "" {
		if err := os.MkdirAll(c.Cache.Dir, 0o755); err != nil {
			return fmt.Errorf("create cache directory %q: %w", c.Cache.Dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used for encoding.
func (c *Config) FFmpegBinary() string {
	return c.FFmpeg.FFmpegBinary
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return c.FFmpeg.FFprobeBinary
}

// YTDLPBinary returns the yt-dlp executable name.
func (c *Config) YTDLPBinary() string {
	return c.YTDLP.Binary
}

// HistoryPath returns the location of the generated-shorts database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.DataDir, "history.db")
}

// LockPath returns the location of the API server instance lock.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "shortsmith.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "shortsmith", "metadata")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/shortsmith/metadata"
	}
	return filepath.Join(home, ".cache", "shortsmith", "metadata")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains text generation settings.
type LLMConfig struct {
	APIKey            string
	BaseURL           string
	Model             string
	Referer           string
	Title             string
	TimeoutSeconds    int
	RequestsPerMinute int
}

// Enabled reports whether an API key is available.
func (l LLMConfig) Enabled() bool {
	return strings.TrimSpace(l.APIKey) != ""
}

// GetLLM returns the text generation connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:            strings.TrimSpace(c.LLM.APIKey),
		BaseURL:           strings.TrimSpace(c.LLM.BaseURL),
		Model:             strings.TrimSpace(c.LLM.Model),
		Referer:           strings.TrimSpace(c.LLM.Referer),
		Title:             strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds:    c.LLM.TimeoutSeconds,
		RequestsPerMinute: c.LLM.RequestsPerMinute,
	}
}
