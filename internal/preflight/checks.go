package preflight

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"shortsmith/internal/config"
	"shortsmith/internal/services"
	"shortsmith/internal/services/llm"
)

const llmCheckTimeout = 30 * time.Second

// CheckLLM sends one health-check completion to the configured endpoint.
// The result is always optional: titles fall back to templates when the
// endpoint is down.
func CheckLLM(ctx context.Context, name string, cfg config.LLMConfig) Result {
	result := Result{Name: name, Optional: true}
	if !cfg.Enabled() {
		result.Detail = "API key missing"
		return result
	}

	checkCtx, cancel := context.WithTimeout(ctx, llmCheckTimeout)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Referer: cfg.Referer,
		Title:   cfg.Title,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		result.Detail = describeLLMFailure(err)
		return result
	}
	result.Passed = true
	result.Detail = fmt.Sprintf("%s reachable", cfg.Model)
	return result
}

func describeLLMFailure(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded), services.Classify(err) == services.KindTimeout:
		return "health check timed out (LLM API unresponsive)"
	case services.Classify(err) == services.KindUpstreamUnavailable:
		return "LLM API unavailable: " + services.Summary(err)
	default:
		return services.Summary(err)
	}
}

// CheckDirectoryAccess verifies path is a directory the process can list,
// read, and write.
func CheckDirectoryAccess(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	if problem := directoryProblem(path); problem != "" {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s)", path, problem)}
	}
	return Result{Name: name, Passed: true, Detail: path + " (read/write ok)"}
}

func directoryProblem(path string) string {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "does not exist"
	case err != nil:
		return "stat: " + err.Error()
	case !info.IsDir():
		return "is not a directory"
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return "insufficient permissions: " + err.Error()
	}
	return ""
}
