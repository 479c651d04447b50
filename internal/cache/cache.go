// Package cache memoizes materialized tables for a short time window.
//
// Entries live for a fixed TTL from insertion and the total entry count is
// bounded; when full, the least recently used entry is evicted. Concurrent
// misses on the same key share one compute call. Failed computes are never
// stored.
package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/JonMunkholm/sheetserve/internal/table"
)

const (
	// DefaultTTL is how long an entry stays fresh.
	DefaultTTL = 15 * time.Second

	// DefaultMaxEntries bounds the number of cached tables.
	DefaultMaxEntries = 100
)

// Source identifies the provider a key belongs to.
type Source string

const (
	SourceGoogle Source = "google"
	SourceGrist  Source = "grist"
)

// Key identifies one cached table. The zero ColumnRange means "all columns".
type Key struct {
	Source         Source
	SourceID       string
	TableKey       string
	SkipRows       int
	HeaderRowIndex int
	ColumnRange    string
}

// String returns a stable textual form used to coalesce concurrent calls.
// String fields are quoted so ids containing the separator cannot collide.
func (k Key) String() string {
	return fmt.Sprintf("%q|%q|%q|%d|%d|%q",
		k.Source, k.SourceID, k.TableKey, k.SkipRows, k.HeaderRowIndex, k.ColumnRange)
}

// Config controls cache sizing.
type Config struct {
	TTL        time.Duration
	MaxEntries int
}

// ComputeFunc produces the table for a key on a miss.
type ComputeFunc func(ctx context.Context) (*table.Table, error)

// Stats is a point-in-time view of cache usage.
type Stats struct {
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

// Cache is a bounded TTL cache of tables. It is safe for concurrent use.
type Cache struct {
	lru   *expirable.LRU[Key, *table.Table]
	group singleflight.Group

	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates a cache. Non-positive settings fall back to the defaults.
func New(cfg Config) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	return &Cache{
		lru: expirable.NewLRU[Key, *table.Table](cfg.MaxEntries, nil, cfg.TTL),
	}
}

// GetOrCompute returns the fresh cached table for key, or calls compute,
// stores its result and returns it.
//
// Concurrent callers missing on the same key wait for a single compute.
// The compute runs detached from any one caller's cancellation so a
// disconnecting client does not fail the others; a caller whose ctx ends
// first returns ctx.Err() while the compute finishes in the background.
func (c *Cache) GetOrCompute(ctx context.Context, key Key, compute ComputeFunc) (*table.Table, error) {
	if tbl, ok := c.lru.Get(key); ok {
		c.hits.Add(1)
		return tbl, nil
	}

	ch := c.group.DoChan(key.String(), func() (any, error) {
		// Another caller may have stored the entry while we were queued.
		if tbl, ok := c.lru.Get(key); ok {
			c.hits.Add(1)
			return tbl, nil
		}
		c.misses.Add(1)

		tbl, err := compute(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.lru.Add(key, tbl)
		return tbl, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*table.Table), nil
	}
}

// Len returns the number of entries, including ones that have expired but
// not yet been purged.
func (c *Cache) Len() int { return c.lru.Len() }

// Stats returns a usage snapshot.
func (c *Cache) Stats() Stats {
	return Stats{
		Entries: c.lru.Len(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}
