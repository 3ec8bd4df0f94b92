package testsupport

import (
	"context"
	"testing"

	"shortsmith/internal/config"
	"shortsmith/internal/history"
)

// MustOpenStore opens a history.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewEntry records a short for tests using the provided store.
func NewEntry(t testing.TB, store *history.Store, videoURL, outputPath string) *history.Entry {
	t.Helper()

	entry, err := store.Create(context.Background(), history.Entry{
		VideoURL:   videoURL,
		StartTime:  10,
		EndTime:    40,
		OutputPath: outputPath,
	})
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return entry
}
