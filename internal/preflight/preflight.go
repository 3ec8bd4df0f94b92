package preflight

import (
	"context"

	"shortsmith/internal/config"
	"shortsmith/internal/deps"
	"shortsmith/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Optional bool   `json:"optional,omitempty"`
	Detail   string `json:"detail"`
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, exec services.Executor) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Downloads directory", cfg.Paths.DownloadsDir),
		CheckDirectoryAccess("Outputs directory", cfg.Paths.OutputsDir),
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
	}
	results = append(results, CheckTools(ctx, cfg, exec)...)

	if cfg.GetLLM().Enabled() {
		results = append(results, CheckLLM(ctx, "Text generation LLM", cfg.GetLLM()))
	}
	return results
}

// Failed returns the non-optional results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}

// CheckTools converts the dependency report for ffmpeg, ffprobe, and yt-dlp
// into preflight results.
func CheckTools(ctx context.Context, cfg *config.Config, exec services.Executor) []Result {
	statuses := deps.CheckBinaries(ctx, exec, deps.Tools(cfg.FFmpegBinary(), cfg.FFprobeBinary(), cfg.YTDLPBinary()))
	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		detail := status.Detail
		if status.Available && status.Version != "" {
			detail = status.Version
		} else if status.Available && detail == "" {
			detail = status.Command
		}
		results = append(results, Result{
			Name:     status.Name,
			Passed:   status.Available,
			Optional: status.Optional,
			Detail:   detail,
		})
	}
	return results
}
