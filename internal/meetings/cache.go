package meetings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/teemow/meetgate/internal/kv"
	"github.com/teemow/meetgate/internal/logging"
)

// KeyPrefix scopes meeting entries in the keyed store. The daily reset
// deletes under this prefix and nothing else.
const KeyPrefix = "meeting:"

// Entry is "today's" meeting for an identity: at most one per email,
// created lazily and cleared in bulk by the daily reset.
type Entry struct {
	URL   string `json:"url"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Cache is the keyed-by-email store of daily meetings.
type Cache struct {
	kv     kv.Store
	logger *slog.Logger
}

// NewCache creates a meeting cache on the given keyed store.
func NewCache(store kv.Store, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{kv: store, logger: logger}
}

// Get returns the cached meeting for email, or ok=false on a cache
// miss. A stored value that fails to parse is treated as a miss.
func (c *Cache) Get(ctx context.Context, email string) (Entry, bool, error) {
	val, ok, err := c.kv.Get(ctx, KeyPrefix+email)
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to read meeting: %w", err)
	}
	if !ok {
		return Entry{}, false, nil
	}
	var e Entry
	if err := json.Unmarshal([]byte(val), &e); err != nil {
		c.logger.Warn("dropping unparseable meeting entry", logging.UserHash(email))
		return Entry{}, false, nil
	}
	return e, true, nil
}

// Store upserts the meeting entry for email.
func (c *Cache) Store(ctx context.Context, email string, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode meeting entry: %w", err)
	}
	if err := c.kv.Put(ctx, KeyPrefix+email, string(data)); err != nil {
		return fmt.Errorf("failed to store meeting: %w", err)
	}
	return nil
}

// List returns every cached meeting, paging through the full key space
// under the meeting prefix. Entries that fail to parse are dropped
// silently; corruption of one entry must not fail the whole listing.
// Order is arbitrary.
func (c *Cache) List(ctx context.Context) ([]Entry, error) {
	var entries []Entry

	cursor := ""
	for {
		page, err := c.kv.List(ctx, KeyPrefix, cursor)
		if err != nil {
			return nil, fmt.Errorf("failed to list meetings: %w", err)
		}

		for _, key := range page.Keys {
			val, ok, err := c.kv.Get(ctx, key)
			if err != nil {
				return nil, fmt.Errorf("failed to read meeting %s: %w", key, err)
			}
			if !ok {
				continue
			}
			var e Entry
			if err := json.Unmarshal([]byte(val), &e); err != nil {
				c.logger.Warn("dropping unparseable meeting entry", slog.String("key", key))
				continue
			}
			entries = append(entries, e)
		}

		if page.Complete {
			return entries, nil
		}
		cursor = page.Cursor
	}
}

// ClearAll deletes every key under the meeting prefix and returns the
// number deleted. Used exclusively by the daily reset; token and alias
// keys live under disjoint prefixes and are never touched. Deletes
// within a page are issued concurrently.
func (c *Cache) ClearAll(ctx context.Context) (int, error) {
	deleted := 0

	cursor := ""
	for {
		page, err := c.kv.List(ctx, KeyPrefix, cursor)
		if err != nil {
			return deleted, fmt.Errorf("failed to list meetings for clear: %w", err)
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, key := range page.Keys {
			g.Go(func() error { return c.kv.Delete(gctx, key) })
		}
		if err := g.Wait(); err != nil {
			return deleted, fmt.Errorf("failed to delete meeting keys: %w", err)
		}
		deleted += len(page.Keys)

		if page.Complete {
			return deleted, nil
		}
		cursor = page.Cursor
	}
}
