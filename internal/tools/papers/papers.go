// Package papers exposes arXiv retrieval as tools.
package papers

import (
	"context"
	"fmt"

	"hostbox/internal/papers"
	"hostbox/internal/tools"
)

// Options carries the configured defaults for the paper tools.
type Options struct {
	// Category applies when a request names none.
	Category string

	// MaxResults bounds search responses when a request names no limit.
	MaxResults int
}

func (o Options) category() string {
	if o.Category == "" {
		return papers.DefaultCategory
	}
	return o.Category
}

func (o Options) maxResults() int {
	if o.MaxResults <= 0 {
		return papers.DefaultMaxResults
	}
	return o.MaxResults
}

// Register adds the paper retrieval tools to the registry.
func Register(reg *tools.Registry, client *papers.Client, cache *papers.Cache, opts Options) {
	reg.Register(&SearchTool{client: client, opts: opts})
	reg.Register(&RecentTool{cache: cache, opts: opts})
	reg.Register(&FeedTool{cache: cache, opts: opts})
}

// SearchTool queries arXiv by free text.
type SearchTool struct {
	client *papers.Client
	opts   Options
}

func (t *SearchTool) Name() string { return "search_papers" }

func (t *SearchTool) Description() string {
	return "Search arXiv for papers matching a query. Returns a formatted listing of titles, authors and links."
}

func (t *SearchTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Free-text search query",
			},
			"max_results": map[string]any{
				"type":        "integer",
				"description": fmt.Sprintf("Maximum number of results (default %d)", t.opts.maxResults()),
			},
		},
		"required": []string{"query"},
	}
}

func (t *SearchTool) Validate(params map[string]any) error {
	if _, err := tools.RequireString(params, "query"); err != nil {
		return err
	}
	if _, err := tools.OptionalInt(params, "max_results", 0); err != nil {
		return err
	}
	return nil
}

func (t *SearchTool) Execute(ctx context.Context, params map[string]any) (*tools.Result, error) {
	query, err := tools.RequireString(params, "query")
	if err != nil {
		return nil, err
	}
	maxResults, err := tools.OptionalInt(params, "max_results", t.opts.maxResults())
	if err != nil {
		return nil, err
	}

	entries, err := t.client.Search(ctx, query, maxResults)
	if err != nil {
		return tools.FailureResult(fmt.Sprintf("Failed to search papers: %v", err)), nil
	}
	return tools.TextResult(papers.FormatEntries(entries)), nil
}

// RecentTool lists recent submissions in a category from the cache.
type RecentTool struct {
	cache *papers.Cache
	opts  Options
}

func (t *RecentTool) Name() string { return "recent_papers" }

func (t *RecentTool) Description() string {
	return "List recent arXiv submissions in a category. Served from a periodically refreshed cache."
}

func (t *RecentTool) InputSchema() map[string]any {
	return categorySchema(t.opts.category())
}

func (t *RecentTool) Validate(params map[string]any) error { return nil }

func (t *RecentTool) Execute(ctx context.Context, params map[string]any) (*tools.Result, error) {
	category := tools.OptionalString(params, "category", t.opts.category())
	entries, err := t.cache.Entries(ctx, category)
	if err != nil {
		return tools.FailureResult(fmt.Sprintf("Failed to fetch recent papers: %v", err)), nil
	}
	return tools.TextResult(papers.FormatEntries(entries)), nil
}

// FeedTool renders the cached category feed as RSS 2.0 XML.
type FeedTool struct {
	cache *papers.Cache
	opts  Options
}

func (t *FeedTool) Name() string { return "paper_feed" }

func (t *FeedTool) Description() string {
	return "Render recent arXiv submissions in a category as an RSS 2.0 feed."
}

func (t *FeedTool) InputSchema() map[string]any {
	return categorySchema(t.opts.category())
}

func (t *FeedTool) Validate(params map[string]any) error { return nil }

func (t *FeedTool) Execute(ctx context.Context, params map[string]any) (*tools.Result, error) {
	category := tools.OptionalString(params, "category", t.opts.category())
	entries, err := t.cache.Entries(ctx, category)
	if err != nil {
		return tools.FailureResult(fmt.Sprintf("Failed to fetch feed: %v", err)), nil
	}
	out, err := papers.RenderRSS(category, entries)
	if err != nil {
		return tools.FailureResult(fmt.Sprintf("Failed to render feed: %v", err)), nil
	}
	return tools.TextResult(out), nil
}

func categorySchema(defaultCategory string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"category": map[string]any{
				"type":        "string",
				"description": fmt.Sprintf("arXiv category (default %s)", defaultCategory),
			},
		},
	}
}
