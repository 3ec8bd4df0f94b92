package config

const (
	defaultDownloadsDir           = "~/.local/share/shortsmith/downloads"
	defaultOutputsDir             = "~/.local/share/shortsmith/outputs"
	defaultDataDir                = "~/.local/share/shortsmith"
	defaultLogDir                 = "~/.local/share/shortsmith/logs"
	defaultLogRetentionDays       = 30
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultAPIBind                = "127.0.0.1:7488"
	defaultYTDLPBinary            = "yt-dlp"
	defaultYTDLPFormat            = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	defaultYTDLPMetadataTimeout   = 120
	defaultYTDLPDownloadTimeout   = 1800
	defaultYTDLPRequestsPerMinute = 30
	defaultFFmpegBinary           = "ffmpeg"
	defaultFFprobeBinary          = "ffprobe"
	defaultVideoCodec             = "libx264"
	defaultAudioCodec             = "aac"
	defaultPreset                 = "medium"
	defaultCRF                    = 23
	defaultFrameRate              = 30
	defaultFFmpegTimeout          = 1800
	defaultTargetWidth            = 1080
	defaultTargetHeight           = 1920
	defaultMaxClipSeconds         = 45
	defaultRotationMode           = "smart"
	defaultScaling                = "cover"
	defaultLLMBaseURL             = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel               = "google/gemini-3-flash-preview"
	defaultGeminiBaseURL          = "https://generativelanguage.googleapis.com/v1beta/openai/chat/completions"
	defaultGeminiModel            = "gemini-2.0-flash"
	defaultLLMTitle               = "Shortsmith"
	defaultLLMTimeoutSeconds      = 60
	defaultLLMRequestsPerMinute   = 20
	defaultCacheTTLHours          = 24
	defaultCleanupStaleHours      = 72
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadsDir: defaultDownloadsDir,
			OutputsDir:   defaultOutputsDir,
			DataDir:      defaultDataDir,
			LogDir:       defaultLogDir,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		YTDLP: YTDLP{
			Binary:                 defaultYTDLPBinary,
			Format:                 defaultYTDLPFormat,
			MetadataTimeoutSeconds: defaultYTDLPMetadataTimeout,
			DownloadTimeoutSeconds: defaultYTDLPDownloadTimeout,
			RequestsPerMinute:      defaultYTDLPRequestsPerMinute,
		},
		FFmpeg: FFmpeg{
			FFmpegBinary:   defaultFFmpegBinary,
			FFprobeBinary:  defaultFFprobeBinary,
			VideoCodec:     defaultVideoCodec,
			AudioCodec:     defaultAudioCodec,
			Preset:         defaultPreset,
			CRF:            defaultCRF,
			FrameRate:      defaultFrameRate,
			TimeoutSeconds: defaultFFmpegTimeout,
		},
		Shorts: Shorts{
			TargetWidth:    defaultTargetWidth,
			TargetHeight:   defaultTargetHeight,
			MaxClipSeconds: defaultMaxClipSeconds,
			RotationMode:   defaultRotationMode,
			Scaling:        defaultScaling,
		},
		LLM: LLM{
			BaseURL:           defaultLLMBaseURL,
			Model:             defaultLLMModel,
			Title:             defaultLLMTitle,
			TimeoutSeconds:    defaultLLMTimeoutSeconds,
			RequestsPerMinute: defaultLLMRequestsPerMinute,
		},
		Cache: Cache{
			Enabled:  true,
			Dir:      defaultCacheDir(),
			TTLHours: defaultCacheTTLHours,
		},
		Cleanup: Cleanup{
			KeepOutputs: true,
			StaleHours:  defaultCleanupStaleHours,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
