package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"shortsmith/internal/config"
)

// Store records generated shorts in a SQLite database.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// connPragmas are applied by the driver to every pooled connection.
var connPragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"foreign_keys(1)",
}

// Open opens the history database under cfg's data directory, creating
// directories as needed.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.HistoryPath())
}

// OpenPath opens or creates the history database at dbPath and brings its
// schema up to date.
func OpenPath(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	params := url.Values{"_pragma": connPragmas}
	db, err := sql.Open("sqlite", dbPath+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	store := &Store{db: db, path: dbPath, now: time.Now}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close releases the database handle. It is safe on a nil Store.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const sqliteBusy = 5

func busy(err error) bool {
	var coded interface{ Code() int }
	if errors.As(err, &coded) {
		// Extended result codes keep the primary code in the low byte.
		return coded.Code()&0xff == sqliteBusy
	}
	return err != nil && strings.Contains(err.Error(), "database is locked")
}

// withBusyRetry repeats op while SQLite reports the database as busy,
// doubling the pause between attempts.
func withBusyRetry[T any](ctx context.Context, op func() (T, error)) (T, error) {
	pause := 10 * time.Millisecond
	for attempt := 1; ; attempt++ {
		value, err := op()
		if err == nil || !busy(err) || attempt == 5 {
			return value, err
		}
		timer := time.NewTimer(pause)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			var zero T
			return zero, ctx.Err()
		}
		pause = min(pause*2, 200*time.Millisecond)
	}
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return withBusyRetry(ctx, func() (sql.Result, error) {
		return s.db.ExecContext(ctx, query, args...)
	})
}
