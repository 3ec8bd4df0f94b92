package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"shortsmith/internal/logging"
	"shortsmith/internal/testsupport"
)

func TestCleanKeepsOutputs(t *testing.T) {
	base := t.TempDir()
	downloads := filepath.Join(base, "downloads")
	outputs := filepath.Join(base, "outputs")
	testsupport.WriteFile(t, filepath.Join(downloads, "abc.mp4"), 1024)
	testsupport.WriteFile(t, filepath.Join(downloads, "abc.info.json"), 10)
	testsupport.WriteFile(t, filepath.Join(outputs, "short_1.mp4"), 512)
	if err := os.Mkdir(filepath.Join(downloads, "nested"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	result := Clean(context.Background(), Options{DownloadsDir: downloads, OutputsDir: outputs, KeepOutputs: true}, logging.NewNop())
	if len(result.Removed) != 3 || len(result.Errors) != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if _, err := os.Stat(filepath.Join(outputs, "short_1.mp4")); err != nil {
		t.Fatal("output should have been kept")
	}
	if _, err := os.Stat(filepath.Join(downloads, "nested")); !os.IsNotExist(err) {
		t.Fatal("idle workspace directories should be removed by Clean")
	}
}

func TestCleanAllRemovesOutputs(t *testing.T) {
	base := t.TempDir()
	outputs := filepath.Join(base, "outputs")
	testsupport.WriteFile(t, filepath.Join(outputs, "short_1.mp4"), 512)

	result := Clean(context.Background(), Options{DownloadsDir: filepath.Join(base, "missing"), OutputsDir: outputs}, logging.NewNop())
	if len(result.Removed) != 1 || len(result.Errors) != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestAfterUpload(t *testing.T) {
	base := t.TempDir()
	downloads := filepath.Join(base, "downloads")
	outputs := filepath.Join(base, "outputs")
	uploaded := filepath.Join(base, "elsewhere", "short_9.mp4")
	testsupport.WriteFile(t, uploaded, 10)
	testsupport.WriteFile(t, filepath.Join(downloads, "src.mp4"), 10)
	testsupport.WriteFile(t, filepath.Join(outputs, "short_2.mp4"), 10)

	pending := filepath.Join(outputs, "short_2.mp4")
	result := AfterUpload(context.Background(), uploaded, Options{DownloadsDir: downloads, OutputsDir: outputs}, logging.NewNop())
	if len(result.Removed) != 2 {
		t.Fatalf("expected 2 removals, got %+v", result)
	}
	if _, err := os.Stat(uploaded); !os.IsNotExist(err) {
		t.Fatal("uploaded file should be gone")
	}
	if _, err := os.Stat(pending); err != nil {
		t.Fatalf("other outputs must survive an upload cleanup: %v", err)
	}

	again := AfterUpload(context.Background(), uploaded, Options{DownloadsDir: downloads, OutputsDir: outputs}, logging.NewNop())
	if len(again.Errors) != 0 || len(again.Removed) != 0 {
		t.Fatalf("expected a no-op second pass, got %+v", again)
	}
}

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestCleanStaleRemovesOldEntries(t *testing.T) {
	tmpDir := t.TempDir()

	oldDir := filepath.Join(tmpDir, "old-download")
	if err := os.Mkdir(oldDir, 0o755); err != nil {
		t.Fatalf("create old dir: %v", err)
	}
	oldFile := filepath.Join(tmpDir, "old.mp4")
	testsupport.WriteFile(t, oldFile, 10)
	testsupport.Backdate(t, 2*time.Hour, oldDir, oldFile)
	recentFile := filepath.Join(tmpDir, "recent.mp4")
	testsupport.WriteFile(t, recentFile, 10)

	result := CleanStale(context.Background(), tmpDir, time.Hour, logging.NewNop())
	if len(result.Removed) != 2 {
		t.Fatalf("expected 2 removed, got %+v", result.Removed)
	}
	if _, err := os.Stat(recentFile); err != nil {
		t.Error("recent file should still exist")
	}
	if _, err := os.Stat(filepath.Join(tmpDir, LockFileName)); err != nil {
		t.Error("lock file should remain")
	}
}

func TestCleanSkipsLockedDirectory(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "busy.mp4"), 10)

	held := flock.New(filepath.Join(dir, LockFileName))
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("TryLock = %v, %v", locked, err)
	}
	defer held.Unlock()

	result := Clean(context.Background(), Options{DownloadsDir: dir, KeepOutputs: true}, logging.NewNop())
	if len(result.Skipped) != 1 || len(result.Removed) != 0 {
		t.Fatalf("expected skipped directory, got %+v", result)
	}
	if _, err := os.Stat(filepath.Join(dir, "busy.mp4")); err != nil {
		t.Fatal("file in locked directory should remain")
	}
}

func TestWorkspaceSurvivesSweeps(t *testing.T) {
	downloads := t.TempDir()
	ws, err := NewWorkspace(filepath.Join(downloads, "req1"))
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	source := filepath.Join(ws.Dir, "abc.mp4")
	testsupport.WriteFile(t, source, 10)
	testsupport.WriteFile(t, filepath.Join(downloads, "abc.mp4.part"), 10)
	testsupport.Backdate(t, 2*time.Hour, ws.Dir)

	if _, err := NewWorkspace(ws.Dir); err == nil {
		t.Fatal("expected a second claim on the same workspace to fail")
	}

	result := Clean(context.Background(), Options{DownloadsDir: downloads, KeepOutputs: true}, logging.NewNop())
	if len(result.Removed) != 1 || len(result.Skipped) != 1 || result.Skipped[0] != ws.Dir {
		t.Fatalf("expected busy workspace to be skipped, got %+v", result)
	}
	stale := CleanStale(context.Background(), downloads, time.Hour, logging.NewNop())
	if len(stale.Removed) != 0 || len(stale.Skipped) != 1 {
		t.Fatalf("expected stale sweep to skip busy workspace, got %+v", stale)
	}
	if _, err := os.Stat(source); err != nil {
		t.Fatalf("source in a live workspace must survive: %v", err)
	}

	released := ws.Release(logging.NewNop())
	if len(released.Removed) != 1 || released.Removed[0] != source || len(released.Errors) != 0 {
		t.Fatalf("unexpected release result %+v", released)
	}
	if _, err := os.Stat(ws.Dir); !os.IsNotExist(err) {
		t.Fatalf("workspace should be removed, stat err=%v", err)
	}
	if again := ws.Release(logging.NewNop()); len(again.Removed) != 0 || len(again.Errors) != 0 {
		t.Fatalf("second release should be a no-op, got %+v", again)
	}
}

func TestCleanStopsOnCanceledContext(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "a.mp4"), 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := Clean(ctx, Options{DownloadsDir: dir, KeepOutputs: true}, logging.NewNop())
	if len(result.Removed) != 0 || len(result.Errors) != 1 {
		t.Fatalf("expected cancellation error, got %+v", result)
	}
}

func TestMeasureUsage(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "a.mp4"), 100)
	testsupport.WriteFile(t, filepath.Join(dir, "sub", "b.mp4"), 50)

	usage, err := MeasureUsage(dir)
	if err != nil {
		t.Fatalf("MeasureUsage: %v", err)
	}
	if usage.Files != 2 || usage.Bytes != 150 {
		t.Fatalf("unexpected usage %+v", usage)
	}

	missing, err := MeasureUsage(filepath.Join(dir, "nope"))
	if err != nil || missing.Files != 0 {
		t.Fatalf("unexpected missing usage %+v, %v", missing, err)
	}
}
