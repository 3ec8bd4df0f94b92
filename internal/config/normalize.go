package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAPI()
	if err := c.normalizeYTDLP(); err != nil {
		return err
	}
	c.normalizeFFmpeg()
	c.normalizeShorts()
	c.normalizeLLM()
	if err := c.normalizeCache(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DownloadsDir) == "" {
		c.Paths.DownloadsDir = defaultDownloadsDir
	}
	if c.Paths.DownloadsDir, err = expandPath(c.Paths.DownloadsDir); err != nil {
		return fmt.Errorf("paths.downloads_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputsDir) == "" {
		c.Paths.OutputsDir = defaultOutputsDir
	}
	if c.Paths.OutputsDir, err = expandPath(c.Paths.OutputsDir); err != nil {
		return fmt.Errorf("paths.outputs_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.Token == "" {
		if value, ok := os.LookupEnv("SHORTSMITH_API_TOKEN"); ok {
			c.API.Token = strings.TrimSpace(value)
		}
	}
	origins := make([]string, 0, len(c.API.AllowedOrigins))
	for _, origin := range c.API.AllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	c.API.AllowedOrigins = origins
}

func (c *Config) normalizeYTDLP() error {
	c.YTDLP.Binary = strings.TrimSpace(c.YTDLP.Binary)
	if c.YTDLP.Binary == "" {
		c.YTDLP.Binary = defaultYTDLPBinary
	}
	c.YTDLP.Format = strings.TrimSpace(c.YTDLP.Format)
	if c.YTDLP.Format == "" {
		c.YTDLP.Format = defaultYTDLPFormat
	}
	c.YTDLP.CookiesFromBrowser = strings.ToLower(strings.TrimSpace(c.YTDLP.CookiesFromBrowser))
	if c.YTDLP.CookiesFromBrowser == "" {
		if value, ok := os.LookupEnv("SHORTSMITH_YTDLP_COOKIES_FROM_BROWSER"); ok {
			c.YTDLP.CookiesFromBrowser = strings.ToLower(strings.TrimSpace(value))
		}
	}
	var err error
	if c.YTDLP.CookiesFile, err = expandPath(strings.TrimSpace(c.YTDLP.CookiesFile)); err != nil {
		return fmt.Errorf("ytdlp.cookies_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeFFmpeg() {
	c.FFmpeg.FFmpegBinary = strings.TrimSpace(c.FFmpeg.FFmpegBinary)
	if c.FFmpeg.FFmpegBinary == "" {
		c.FFmpeg.FFmpegBinary = defaultFFmpegBinary
	}
	c.FFmpeg.FFprobeBinary = strings.TrimSpace(c.FFmpeg.FFprobeBinary)
	if c.FFmpeg.FFprobeBinary == "" {
		c.FFmpeg.FFprobeBinary = defaultFFprobeBinary
	}
	c.FFmpeg.VideoCodec = strings.TrimSpace(c.FFmpeg.VideoCodec)
	if c.FFmpeg.VideoCodec == "" {
		c.FFmpeg.VideoCodec = defaultVideoCodec
	}
	c.FFmpeg.AudioCodec = strings.TrimSpace(c.FFmpeg.AudioCodec)
	if c.FFmpeg.AudioCodec == "" {
		c.FFmpeg.AudioCodec = defaultAudioCodec
	}
	c.FFmpeg.Preset = strings.ToLower(strings.TrimSpace(c.FFmpeg.Preset))
	if c.FFmpeg.Preset == "" {
		c.FFmpeg.Preset = defaultPreset
	}
}

func (c *Config) normalizeShorts() {
	c.Shorts.RotationMode = strings.ToLower(strings.TrimSpace(c.Shorts.RotationMode))
	if c.Shorts.RotationMode == "" {
		c.Shorts.RotationMode = defaultRotationMode
	}
	c.Shorts.Scaling = strings.ToLower(strings.TrimSpace(c.Shorts.Scaling))
	if c.Shorts.Scaling == "" {
		c.Shorts.Scaling = defaultScaling
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok && strings.TrimSpace(value) != "" {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("GEMINI_API_KEY"); ok && strings.TrimSpace(value) != "" {
			c.LLM.APIKey = strings.TrimSpace(value)
			if c.LLM.BaseURL == "" || c.LLM.BaseURL == defaultLLMBaseURL {
				c.LLM.BaseURL = defaultGeminiBaseURL
			}
			if c.LLM.Model == "" || c.LLM.Model == defaultLLMModel {
				c.LLM.Model = defaultGeminiModel
			}
		}
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeCache() error {
	var err error
	if strings.TrimSpace(c.Cache.Dir) == "" {
		c.Cache.Dir = defaultCacheDir()
	}
	if c.Cache.Dir, err = expandPath(c.Cache.Dir); err != nil {
		return fmt.Errorf("cache.dir: %w", err)
	}
	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = defaultCacheTTLHours
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
