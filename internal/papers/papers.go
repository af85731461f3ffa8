// Package papers retrieves paper listings from the arXiv Atom API and
// republishes them as text summaries or an RSS feed.
package papers

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultEndpoint is the public arXiv query API.
	DefaultEndpoint = "http://export.arxiv.org/api/query"

	// DefaultCategory is fetched when no category is requested.
	DefaultCategory = "cs.AI"

	// DefaultMaxResults bounds search responses.
	DefaultMaxResults = 10

	// maxBodyBytes caps the response body read from the upstream API.
	maxBodyBytes = 5 << 20

	requestTimeout = 10 * time.Second
)

// Entry is one paper from an Atom feed.
type Entry struct {
	ID        string
	Title     string
	Summary   string
	Authors   []string
	Link      string
	Published time.Time
}

// atomFeed mirrors the subset of the Atom schema arXiv responses use.
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string       `xml:"id"`
	Title     string       `xml:"title"`
	Summary   string       `xml:"summary"`
	Published string       `xml:"published"`
	Authors   []atomAuthor `xml:"author"`
	Links     []atomLink   `xml:"link"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

// Client fetches and parses arXiv Atom feeds.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *slog.Logger
}

// NewClient returns a client against the given endpoint, or the public
// arXiv API when endpoint is empty.
func NewClient(endpoint string, logger *slog.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: requestTimeout},
		logger:   logger,
	}
}

// Search queries papers matching the free-text query.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Entry, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("start", "0")
	params.Set("max_results", fmt.Sprintf("%d", maxResults))
	params.Set("sortBy", "relevance")
	return c.fetch(ctx, params)
}

// Recent lists the latest submissions in a category.
func (c *Client) Recent(ctx context.Context, category string, maxResults int) ([]Entry, error) {
	if category == "" {
		category = DefaultCategory
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	params := url.Values{}
	params.Set("search_query", "cat:"+category)
	params.Set("start", "0")
	params.Set("max_results", fmt.Sprintf("%d", maxResults))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")
	return c.fetch(ctx, params)
}

func (c *Client) fetch(ctx context.Context, params url.Values) ([]Entry, error) {
	reqURL := c.endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", "hostbox/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading feed body: %w", err)
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	entries := make([]Entry, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		entries = append(entries, e.toEntry())
	}
	c.logger.Debug("fetched feed", "url", reqURL, "entries", len(entries))
	return entries, nil
}

func (e atomEntry) toEntry() Entry {
	out := Entry{
		ID:      strings.TrimSpace(e.ID),
		Title:   collapseWhitespace(e.Title),
		Summary: collapseWhitespace(e.Summary),
		Link:    strings.TrimSpace(e.ID),
	}
	for _, a := range e.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			out.Authors = append(out.Authors, name)
		}
	}
	for _, l := range e.Links {
		// Prefer the abstract page link over PDF alternates.
		if l.Rel == "alternate" || (l.Rel == "" && l.Type == "text/html") {
			out.Link = l.Href
			break
		}
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Published)); err == nil {
		out.Published = t
	}
	return out
}

// collapseWhitespace folds the newline-wrapped text arXiv emits into
// single-spaced prose.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FormatEntries renders entries as a numbered text listing.
func FormatEntries(entries []Entry) string {
	if len(entries) == 0 {
		return "No papers found"
	}
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, e.Title)
		if len(e.Authors) > 0 {
			fmt.Fprintf(&b, "   Authors: %s\n", strings.Join(e.Authors, ", "))
		}
		if !e.Published.IsZero() {
			fmt.Fprintf(&b, "   Published: %s\n", e.Published.Format("2006-01-02"))
		}
		if e.Link != "" {
			fmt.Fprintf(&b, "   Link: %s\n", e.Link)
		}
		if e.Summary != "" {
			fmt.Fprintf(&b, "   %s\n", truncateSummary(e.Summary, 300))
		}
	}
	return b.String()
}

func truncateSummary(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
