package papers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// cacheTTL is how long a category feed stays fresh between on-demand
// refreshes.
const cacheTTL = 15 * time.Minute

// Cache holds per-category feed snapshots, refreshed on demand when
// stale and periodically while the server runs.
type Cache struct {
	client     *Client
	maxResults int
	logger     *slog.Logger
	onFetch    func(err error)

	mu    sync.Mutex
	byCat map[string]cachedFeed
	cron  *cron.Cron
}

type cachedFeed struct {
	entries   []Entry
	fetchedAt time.Time
}

// NewCache wraps a client with snapshot caching. onFetch, if non-nil, is
// invoked after every upstream fetch so callers can count refreshes.
func NewCache(client *Client, maxResults int, logger *slog.Logger, onFetch func(err error)) *Cache {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Cache{
		client:     client,
		maxResults: maxResults,
		logger:     logger,
		onFetch:    onFetch,
		byCat:      make(map[string]cachedFeed),
	}
}

// Entries returns the cached entries for a category, fetching them first
// if the snapshot is missing or stale.
func (c *Cache) Entries(ctx context.Context, category string) ([]Entry, error) {
	if category == "" {
		category = DefaultCategory
	}

	c.mu.Lock()
	cached, ok := c.byCat[category]
	c.mu.Unlock()
	if ok && time.Since(cached.fetchedAt) < cacheTTL {
		return cached.entries, nil
	}

	entries, err := c.refresh(ctx, category)
	if err != nil {
		// Serve the stale snapshot rather than failing when one exists.
		if ok {
			c.logger.Warn("feed refresh failed, serving stale snapshot", "category", category, "error", err)
			return cached.entries, nil
		}
		return nil, err
	}
	return entries, nil
}

func (c *Cache) refresh(ctx context.Context, category string) ([]Entry, error) {
	entries, err := c.client.Recent(ctx, category, c.maxResults)
	if c.onFetch != nil {
		c.onFetch(err)
	}
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.byCat[category] = cachedFeed{entries: entries, fetchedAt: time.Now()}
	c.mu.Unlock()
	return entries, nil
}

// StartRefresher begins periodic background refreshes of every category
// seen so far, on the given cron schedule.
func (c *Cache) StartRefresher(schedule string) error {
	if schedule == "" {
		return nil
	}
	cr := cron.New()
	_, err := cr.AddFunc(schedule, func() {
		c.refreshAll()
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}
	c.mu.Lock()
	c.cron = cr
	c.mu.Unlock()
	cr.Start()
	c.logger.Debug("feed refresher started", "schedule", schedule)
	return nil
}

func (c *Cache) refreshAll() {
	c.mu.Lock()
	categories := make([]string, 0, len(c.byCat))
	for cat := range c.byCat {
		categories = append(categories, cat)
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	for _, cat := range categories {
		if _, err := c.refresh(ctx, cat); err != nil {
			c.logger.Warn("scheduled feed refresh failed", "category", cat, "error", err)
		}
	}
}

// Stop halts the background refresher.
func (c *Cache) Stop() {
	c.mu.Lock()
	cr := c.cron
	c.cron = nil
	c.mu.Unlock()
	if cr != nil {
		cr.Stop()
	}
}
