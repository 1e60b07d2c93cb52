// Package scorecache memoizes perplexity scores in memory so a text is only
// sent to the scoring oracle once per TTL window.
package scorecache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/allegro/bigcache/v3"

	"stegtext/internal/logging"
)

// DefaultTTL is used when New receives a non-positive ttl.
const DefaultTTL = 60 * time.Minute

// Scorer is the wrapped scoring oracle.
type Scorer interface {
	Score(ctx context.Context, text string) (float64, error)
}

// Cache is a Scorer that remembers successful scores.
type Cache struct {
	next   Scorer
	cache  *bigcache.BigCache
	logger *slog.Logger
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// New wraps next with a cache whose entries expire after ttl.
func New(ctx context.Context, next Scorer, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	if next == nil {
		return nil, errors.New("scorecache: scorer required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	cfg := bigcache.DefaultConfig(ttl)
	cfg.Shards = 16
	cfg.MaxEntriesInWindow = 4096
	cfg.MaxEntrySize = 8
	cfg.CleanWindow = ttl
	cfg.Verbose = false
	cache, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("scorecache: create cache: %w", err)
	}
	return &Cache{
		next:   next,
		cache:  cache,
		logger: logging.NewComponentLogger(logger, "scorecache"),
	}, nil
}

// Score returns the cached score for text or asks the wrapped scorer. Errors
// are passed through and never cached.
func (c *Cache) Score(ctx context.Context, text string) (float64, error) {
	key := Key(text)
	if raw, err := c.cache.Get(key); err == nil && len(raw) == 8 {
		score := math.Float64frombits(binary.BigEndian.Uint64(raw))
		c.logger.Debug("score cache hit", logging.String("key", key[:12]), logging.Float64("perplexity", score))
		return score, nil
	}
	score, err := c.next.Score(ctx, text)
	if err != nil {
		return 0, err
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(score))
	if err := c.cache.Set(key, buf[:]); err != nil {
		c.logger.Warn("score cache store failed", logging.Error(err))
	}
	return score, nil
}

// Stats returns hit and miss counters.
func (c *Cache) Stats() Stats {
	s := c.cache.Stats()
	return Stats{Hits: s.Hits, Misses: s.Misses, Entries: c.cache.Len()}
}

// Close releases the cache.
func (c *Cache) Close() error {
	return c.cache.Close()
}

// Key returns the cache key for text.
func Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
