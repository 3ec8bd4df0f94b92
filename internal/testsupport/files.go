package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// mp4Header is enough of an ISO BMFF "ftyp" box for tools that sniff the
// container type. Nothing in the tests decodes the payload.
var mp4Header = []byte{0, 0, 0, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm', 0, 0, 2, 0, 'i', 's', 'o', 'm', 'm', 'p', '4', '1'}

// WriteFile creates a placeholder media file of exactly size bytes (at least
// one), creating parent directories as needed.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	n := max(int(size), 1)
	data := append([]byte(nil), mp4Header...)
	if n > len(data) {
		data = append(data, bytes.Repeat([]byte{0}, n-len(data))...)
	}
	if err := os.WriteFile(path, data[:n], 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Backdate sets the modification time of each path to age ago.
func Backdate(t testing.TB, age time.Duration, paths ...string) {
	t.Helper()

	when := time.Now().Add(-age)
	for _, path := range paths {
		if err := os.Chtimes(path, when, when); err != nil {
			t.Fatalf("backdate %s: %v", path, err)
		}
	}
}
