// Package cleanup removes working files left behind by downloads and encodes.
//
// Every operation takes an advisory lock on <dir>/.shortsmith.lock so a
// server and a CLI invocation never clean the same directory at once. A busy
// lock skips the directory rather than waiting. Per-request workspaces hold the
// same lock for their lifetime, so sweeps never remove a download in progress.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"shortsmith/internal/logging"
)

// LockFileName is created in every directory being cleaned.
const LockFileName = ".shortsmith.lock"

// Options selects which working directories Clean empties.
type Options struct {
	DownloadsDir string
	OutputsDir   string
	KeepOutputs  bool
}

// Result contains the outcome of a cleanup operation.
type Result struct {
	Removed []string
	Errors  []Error
	// Skipped lists directories another cleaner held locked.
	Skipped []string
}

// Error pairs a path with its cleanup error.
type Error struct {
	Path  string
	Error error
}

func (r *Result) merge(other Result) {
	r.Removed = append(r.Removed, other.Removed...)
	r.Errors = append(r.Errors, other.Errors...)
	r.Skipped = append(r.Skipped, other.Skipped...)
}

// Clean removes every regular file and idle workspace from the downloads
// directory, and the same from the outputs directory unless KeepOutputs is set.
func Clean(ctx context.Context, opts Options, logger *slog.Logger) Result {
	logger = logging.NewComponentLogger(logger, "cleanup")
	var result Result
	result.merge(sweep(ctx, opts.DownloadsDir, nil, logger))
	if !opts.KeepOutputs {
		result.merge(sweep(ctx, opts.OutputsDir, nil, logger))
	}
	logger.Info("cleanup complete",
		logging.Int("removed", len(result.Removed)),
		logging.Int("errors", len(result.Errors)),
		logging.Bool("kept_outputs", opts.KeepOutputs),
		logging.String(logging.FieldEventType, "cleanup_complete"),
	)
	return result
}

// AfterUpload deletes the uploaded short at path and empties the downloads
// directory. Other outputs are left alone since they may not be uploaded yet.
func AfterUpload(ctx context.Context, path string, opts Options, logger *slog.Logger) Result {
	var result Result
	if path = strings.TrimSpace(path); path != "" {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			result.Errors = append(result.Errors, Error{Path: path, Error: err})
		} else if err == nil {
			result.Removed = append(result.Removed, path)
		}
	}
	opts.KeepOutputs = true
	result.merge(Clean(ctx, opts, logger))
	return result
}

// Workspace is a scratch directory owned by a single request.
type Workspace struct {
	Dir  string
	lock *flock.Flock
}

// NewWorkspace creates dir and locks it until Release.
func NewWorkspace(dir string) (*Workspace, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("workspace directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	lock := flock.New(filepath.Join(dir, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock workspace: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("workspace %s already in use", dir)
	}
	return &Workspace{Dir: dir, lock: lock}, nil
}

// Release removes the workspace and everything in it. Later calls are no-ops.
func (w *Workspace) Release(logger *slog.Logger) Result {
	var result Result
	if w == nil || w.lock == nil {
		return result
	}
	logger = logging.NewComponentLogger(logger, "cleanup")
	defer func() {
		_ = w.lock.Unlock()
		w.lock = nil
	}()

	_ = filepath.WalkDir(w.Dir, func(path string, entry os.DirEntry, err error) error {
		if err == nil && entry.Type().IsRegular() && entry.Name() != LockFileName {
			result.Removed = append(result.Removed, path)
		}
		return nil
	})
	if err := os.RemoveAll(w.Dir); err != nil {
		result.Removed = nil
		result.Errors = append(result.Errors, Error{Path: w.Dir, Error: err})
		logging.WarnWithContext(logger, "failed to remove workspace", "cleanup_failed",
			logging.String("path", w.Dir),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check directory permissions"),
			logging.String(logging.FieldImpact, "disk space not reclaimed until the next stale sweep"),
		)
		return result
	}
	logger.Debug("workspace released",
		logging.String("dir", w.Dir),
		logging.Int("removed", len(result.Removed)),
	)
	return result
}

// inUse reports whether a live workspace holds dir's lock.
func inUse(dir string) bool {
	lockPath := filepath.Join(dir, LockFileName)
	if _, err := os.Stat(lockPath); err != nil {
		return false
	}
	lock := flock.New(lockPath)
	defer func() { _ = lock.Close() }()
	locked, err := lock.TryLock()
	return err != nil || !locked
}

// CleanStale removes files and directories in dir last modified before maxAge ago.
func CleanStale(ctx context.Context, dir string, maxAge time.Duration, logger *slog.Logger) Result {
	logger = logging.NewComponentLogger(logger, "cleanup")
	cutoff := time.Now().Add(-maxAge)
	return sweep(ctx, dir, func(entry os.DirEntry, info os.FileInfo) bool {
		return info.ModTime().Before(cutoff)
	}, logger)
}

// sweep removes the entries of dir accepted by match, or every regular file
// and directory when match is nil. The lock file and locked workspaces are
// never removed.
func sweep(ctx context.Context, dir string, match func(os.DirEntry, os.FileInfo) bool, logger *slog.Logger) Result {
	result := Result{}

	dir = strings.TrimSpace(dir)
	if dir == "" {
		return result
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, Error{Path: dir, Error: err})
		}
		return result
	}

	lock := flock.New(filepath.Join(dir, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		result.Errors = append(result.Errors, Error{Path: dir, Error: fmt.Errorf("acquire lock: %w", err)})
		return result
	}
	if !locked {
		logger.Info("cleanup skipped; directory in use",
			logging.String("dir", dir),
			logging.String(logging.FieldEventType, "cleanup_skipped"),
		)
		result.Skipped = append(result.Skipped, dir)
		return result
	}
	defer func() { _ = lock.Unlock() }()

	for _, entry := range entries {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, Error{Path: dir, Error: ctx.Err()})
			return result
		}
		if entry.Name() == LockFileName {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, Error{Path: path, Error: err})
			continue
		}
		if match == nil {
			if !info.Mode().IsRegular() && !info.IsDir() {
				continue
			}
		} else if !match(entry, info) {
			continue
		}
		if info.IsDir() && inUse(path) {
			result.Skipped = append(result.Skipped, path)
			continue
		}

		if err := os.RemoveAll(path); err != nil {
			result.Errors = append(result.Errors, Error{Path: path, Error: err})
			logging.WarnWithContext(logger, "failed to remove working file", "cleanup_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check directory permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, path)
		logger.Debug("removed working file",
			logging.String("path", path),
			logging.Duration("age", time.Since(info.ModTime())),
		)
	}
	return result
}

// Usage summarizes a working directory.
type Usage struct {
	Dir   string
	Files int
	Bytes int64
}

// MeasureUsage counts regular files and their total size under dir. A missing
// directory reports zero usage.
func MeasureUsage(dir string) (Usage, error) {
	usage := Usage{Dir: dir}
	if strings.TrimSpace(dir) == "" {
		return usage, nil
	}
	err := filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == dir {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() || entry.Name() == LockFileName {
			return nil
		}
		info, err := entry.Info()
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		usage.Files++
		usage.Bytes += info.Size()
		return nil
	})
	return usage, err
}
