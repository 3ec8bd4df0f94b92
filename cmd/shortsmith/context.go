package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"shortsmith/internal/analysis"
	"shortsmith/internal/config"
	"shortsmith/internal/history"
	"shortsmith/internal/logging"
	"shortsmith/internal/media/ffprobe"
	"shortsmith/internal/metacache"
	"shortsmith/internal/pipeline"
	"shortsmith/internal/services"
	"shortsmith/internal/services/llm"
	"shortsmith/internal/services/ytdlp"
	"shortsmith/internal/textgen"
	"shortsmith/internal/transform"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	closers []func()
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// onClose registers fn to run when the command calls close.
func (c *commandContext) onClose(fn func()) {
	c.closers = append(c.closers, fn)
}

func (c *commandContext) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// newLogger writes console records to the command's stderr and a JSON copy
// to the log directory.
func (c *commandContext) newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	opts := logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	}
	if cfg.Paths.LogDir != "" {
		opts.FilePath = filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
	}
	return logging.New(opts)
}

func (c *commandContext) openStore() (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return nil, err
	}
	c.onClose(func() { _ = store.Close() })
	return store, nil
}

// app is the fully wired service graph used by analyze, generate, and serve.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	llm      *llm.Client
	text     *textgen.Generator
	analyzer *analysis.Analyzer
	store    *history.Store
	pipeline *pipeline.Pipeline
}

func (c *commandContext) openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.newLogger(cmd)
	if err != nil {
		return nil, err
	}

	llmCfg := cfg.GetLLM()
	llmClient := llm.NewClient(llm.Config{
		APIKey:            llmCfg.APIKey,
		BaseURL:           llmCfg.BaseURL,
		Model:             llmCfg.Model,
		Referer:           llmCfg.Referer,
		Title:             llmCfg.Title,
		TimeoutSeconds:    llmCfg.TimeoutSeconds,
		RequestsPerMinute: llmCfg.RequestsPerMinute,
	})
	text := textgen.New(llmClient, logger)

	client, err := ytdlp.New(ytdlp.Config{
		Binary:             cfg.YTDLPBinary(),
		Format:             cfg.YTDLP.Format,
		CookiesFromBrowser: cfg.YTDLP.CookiesFromBrowser,
		CookiesFile:        cfg.YTDLP.CookiesFile,
		MetadataTimeout:    time.Duration(cfg.YTDLP.MetadataTimeoutSeconds) * time.Second,
		DownloadTimeout:    time.Duration(cfg.YTDLP.DownloadTimeoutSeconds) * time.Second,
		RequestsPerMinute:  cfg.YTDLP.RequestsPerMinute,
	})
	if err != nil {
		return nil, err
	}

	var retriever ytdlp.Retriever = client
	if cfg.Cache.Enabled {
		cache, err := metacache.Open(cfg.Cache.Dir, time.Duration(cfg.Cache.TTLHours)*time.Hour, logger)
		if err != nil {
			logging.WarnWithContext(logger, "metadata cache unavailable", "cache_open_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "another shortsmith process may hold the cache; metadata is fetched directly"),
				logging.String(logging.FieldImpact, "repeated analysis re-runs yt-dlp"),
			)
		} else {
			c.onClose(func() { _ = cache.Close() })
			retriever = metacache.Wrap(client, cache)
		}
	}
	analyzer := analysis.New(retriever, text, logger)

	transformOpts, err := transform.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	driver, err := transform.New(transformOpts, ffprobe.Prober{Binary: cfg.FFprobeBinary()}, logger)
	if err != nil {
		return nil, err
	}

	store, err := c.openStore()
	if err != nil {
		return nil, err
	}

	pipe, err := pipeline.New(pipeline.Settings{
		DownloadsDir:   cfg.Paths.DownloadsDir,
		OutputsDir:     cfg.Paths.OutputsDir,
		MaxClipSeconds: transformOpts.MaxClipSeconds,
	}, pipeline.Deps{
		Analyzer:    analyzer,
		Downloader:  client,
		Transformer: driver,
		History:     store,
		Text:        text,
	}, logger)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		llm:      llmClient,
		text:     text,
		analyzer: analyzer,
		store:    store,
		pipeline: pipe,
	}, nil
}

// runContext tags the command's context with a fresh correlation ID.
func runContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return services.WithRequestID(ctx, uuid.NewString())
}

// explainFailure prints a plain-language explanation of err when requested
// and returns err unchanged.
func (a *app) explainFailure(ctx context.Context, out io.Writer, err error, where string, explain bool) error {
	if err == nil || !explain {
		return err
	}
	exp := a.text.ExplainError(ctx, err, where)
	fmt.Fprintf(out, "Explanation: %s\n", exp.Explanation)
	if exp.Detail != "" {
		fmt.Fprintf(out, "Details:\n%s\n", exp.Detail)
	}
	return err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
