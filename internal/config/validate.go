package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateYTDLP(); err != nil {
		return err
	}
	if err := c.validateFFmpeg(); err != nil {
		return err
	}
	if err := c.validateShorts(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if c.Cleanup.StaleHours < 0 {
		return errors.New("cleanup.stale_hours must be >= 0")
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	return ensurePositiveMap(map[string]int{
		"ytdlp.metadata_timeout_seconds": c.YTDLP.MetadataTimeoutSeconds,
		"ytdlp.download_timeout_seconds": c.YTDLP.DownloadTimeoutSeconds,
		"ffmpeg.timeout_seconds":         c.FFmpeg.TimeoutSeconds,
		"cache.ttl_hours":                c.Cache.TTLHours,
	})
}

func (c *Config) validateYTDLP() error {
	if c.YTDLP.CookiesFromBrowser != "" && c.YTDLP.CookiesFile != "" {
		return errors.New("ytdlp.cookies_from_browser and ytdlp.cookies_file are mutually exclusive")
	}
	if c.YTDLP.RequestsPerMinute < 0 {
		return errors.New("ytdlp.requests_per_minute must be >= 0")
	}
	return nil
}

func (c *Config) validateFFmpeg() error {
	if c.FFmpeg.FrameRate <= 0 {
		return errors.New("ffmpeg.frame_rate must be positive")
	}
	if c.FFmpeg.CRF < 0 || c.FFmpeg.CRF > 51 {
		return errors.New("ffmpeg.crf must be between 0 and 51")
	}
	return nil
}

func (c *Config) validateShorts() error {
	if err := ensurePositiveMap(map[string]int{
		"shorts.target_width":     c.Shorts.TargetWidth,
		"shorts.target_height":    c.Shorts.TargetHeight,
		"shorts.max_clip_seconds": c.Shorts.MaxClipSeconds,
	}); err != nil {
		return err
	}
	if c.Shorts.TargetWidth%2 != 0 || c.Shorts.TargetHeight%2 != 0 {
		return errors.New("shorts.target_width and shorts.target_height must be even")
	}
	switch c.Shorts.RotationMode {
	case "smart", "rotate", "scale":
	default:
		return fmt.Errorf("shorts.rotation_mode must be one of smart, rotate, scale (got %q)", c.Shorts.RotationMode)
	}
	switch c.Shorts.Scaling {
	case "cover", "contain":
	default:
		return fmt.Errorf("shorts.scaling must be one of cover, contain (got %q)", c.Shorts.Scaling)
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.RequestsPerMinute < 0 {
		return errors.New("llm.requests_per_minute must be >= 0")
	}
	if !strings.HasPrefix(c.LLM.BaseURL, "http://") && !strings.HasPrefix(c.LLM.BaseURL, "https://") {
		return fmt.Errorf("llm.base_url must be an http(s) URL (got %q)", c.LLM.BaseURL)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
