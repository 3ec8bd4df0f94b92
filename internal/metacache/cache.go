// Package metacache keeps yt-dlp metadata in a Badger store so repeated
// analysis of the same video skips the metadata round-trip.
package metacache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"shortsmith/internal/logging"
	"shortsmith/internal/services/ytdlp"
)

const keyPrefix = "video:"

// Cache is a TTL-bounded video metadata store.
type Cache struct {
	db     *badger.DB
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

type envelope struct {
	FetchedAt time.Time           `json:"fetched_at"`
	Metadata  ytdlp.VideoMetadata `json:"metadata"`
}

// Option configures the cache.
type Option func(*Cache)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// Open opens (or creates) the cache at dir. An empty dir opens an in-memory store.
func Open(dir string, ttl time.Duration, logger *slog.Logger, opts ...Option) (*Cache, error) {
	if ttl <= 0 {
		return nil, errors.New("metacache: ttl must be positive")
	}
	badgerOpts := badger.DefaultOptions(dir)
	if strings.TrimSpace(dir) == "" {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	badgerOpts.Logger = nil

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open metadata cache: %w", err)
	}
	cache := &Cache{
		db:     db,
		ttl:    ttl,
		logger: logging.NewComponentLogger(logger, "metacache"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(cache)
	}
	return cache, nil
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Get returns cached metadata for videoURL. The boolean is false on a miss
// or when the entry is older than the TTL.
func (c *Cache) Get(videoURL string) (ytdlp.VideoMetadata, bool, error) {
	var env envelope
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(videoURL))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &env)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ytdlp.VideoMetadata{}, false, nil
	}
	if err != nil {
		return ytdlp.VideoMetadata{}, false, fmt.Errorf("read metadata cache: %w", err)
	}
	if c.now().Sub(env.FetchedAt) > c.ttl {
		return ytdlp.VideoMetadata{}, false, nil
	}
	return env.Metadata, true, nil
}

// Put stores metadata for videoURL.
func (c *Cache) Put(videoURL string, meta ytdlp.VideoMetadata) error {
	payload, err := json.Marshal(envelope{FetchedAt: c.now(), Metadata: meta})
	if err != nil {
		return fmt.Errorf("encode metadata cache entry: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(cacheKey(videoURL), payload).WithTTL(c.ttl))
	})
}

// Delete removes the entry for videoURL, if any.
func (c *Cache) Delete(videoURL string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(cacheKey(videoURL))
	})
}

func cacheKey(videoURL string) []byte {
	return []byte(keyPrefix + strings.TrimSpace(videoURL))
}

// Retriever decorates a metadata retriever with the cache.
type Retriever struct {
	inner ytdlp.Retriever
	cache *Cache
}

// Wrap returns inner unchanged when cache is nil.
func Wrap(inner ytdlp.Retriever, cache *Cache) ytdlp.Retriever {
	if cache == nil {
		return inner
	}
	return &Retriever{inner: inner, cache: cache}
}

// FetchMetadata serves from the cache when fresh and populates it on a miss.
// Cache failures are logged and never fail the fetch.
func (r *Retriever) FetchMetadata(ctx context.Context, videoURL string) (ytdlp.VideoMetadata, error) {
	logger := logging.WithContext(ctx, r.cache.logger)
	meta, ok, err := r.cache.Get(videoURL)
	if err != nil {
		logging.WarnWithContext(logger, "metadata cache read failed", "cache_read_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "metadata fetched from yt-dlp"),
		)
	}
	if ok {
		logger.Debug("metadata cache hit", logging.String("video_id", meta.ID))
		return meta, nil
	}

	meta, err = r.inner.FetchMetadata(ctx, videoURL)
	if err != nil {
		return meta, err
	}
	if err := r.cache.Put(videoURL, meta); err != nil {
		logging.WarnWithContext(logger, "metadata cache write failed", "cache_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "next analysis refetches metadata"),
		)
	}
	return meta, nil
}
