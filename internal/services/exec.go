package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"
)

// Executor runs an external tool and returns its captured stdout. A non-zero
// exit is reported as a *ToolError carrying stderr.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

// CommandExecutor runs tools through os/exec.
type CommandExecutor struct{}

// Run executes binary with args, honoring ctx cancellation.
func (CommandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		toolErr := &ToolError{Tool: filepath.Base(binary), Stderr: stderr.String(), Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			toolErr.ExitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stdout.Bytes(), fmt.Errorf("%w: %w", ctxErr, toolErr)
		}
		return stdout.Bytes(), toolErr
	}
	return stdout.Bytes(), nil
}

// WithTimeout derives a context bounded by timeout. A non-positive timeout
// returns ctx unchanged with a no-op cancel.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
