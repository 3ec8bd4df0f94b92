package preflight

import (
	"context"
	"fmt"

	"shortsmith/internal/cleanup"
	"shortsmith/internal/config"
	"shortsmith/internal/history"
)

// CheckLLMFromConfig reports the text generation status without failing
// when no key is configured.
func CheckLLMFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "Text generation LLM"

	if cfg == nil {
		return Result{Name: name, Optional: true, Detail: "Unknown"}
	}
	if !cfg.GetLLM().Enabled() {
		return Result{Name: name, Passed: true, Optional: true, Detail: "Disabled (templated titles)"}
	}
	return CheckLLM(ctx, name, cfg.GetLLM())
}

// CheckHistory opens the history database and reports how many shorts it holds.
func CheckHistory(ctx context.Context, cfg *config.Config) Result {
	const name = "History database"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	store, err := history.OpenPath(cfg.HistoryPath())
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.HistoryPath(), err)}
	}
	defer store.Close()
	count, err := store.Count(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.HistoryPath(), err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d shorts)", cfg.HistoryPath(), count)}
}

// WorkspaceUsage measures the downloads and outputs directories.
func WorkspaceUsage(cfg *config.Config) []cleanup.Usage {
	if cfg == nil {
		return nil
	}
	var usage []cleanup.Usage
	for _, dir := range []string{cfg.Paths.DownloadsDir, cfg.Paths.OutputsDir} {
		u, err := cleanup.MeasureUsage(dir)
		if err != nil {
			u = cleanup.Usage{Dir: dir}
		}
		usage = append(usage, u)
	}
	return usage
}
