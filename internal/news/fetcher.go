package news

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/pders01/gamelib/internal/config"
	"github.com/pders01/gamelib/internal/debuglog"
)

const maxFeedSize = 4 << 20

// validator remembers the conditional-request headers and items of the
// last successful fetch of one feed.
type validator struct {
	etag         string
	lastModified string
	items        []Item
}

// Fetcher downloads the per-game news feed named by the catalog news template.
type Fetcher struct {
	client    *http.Client
	template  string
	userAgent string
	parser    *Parser

	mu    sync.Mutex
	known map[string]validator
}

func NewFetcher(cfg *config.Config) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: cfg.Catalog.HTTPTimeout},
		template:  cfg.Catalog.NewsURL,
		userAgent: cfg.Catalog.UserAgent,
		parser:    NewParser(),
		known:     make(map[string]validator),
	}
}

// Fetch returns up to limit items for the game with externalID, newest first.
// An unchanged feed (304) is answered from the previous fetch.
func (f *Fetcher) Fetch(ctx context.Context, externalID string, limit int) ([]Item, error) {
	if f.template == "" {
		return nil, fmt.Errorf("no news url configured")
	}
	if externalID == "" {
		return nil, fmt.Errorf("missing game id")
	}
	target := strings.ReplaceAll(f.template, "{id}", url.PathEscape(externalID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")

	f.mu.Lock()
	prev, seen := f.known[externalID]
	f.mu.Unlock()
	if seen {
		if prev.etag != "" {
			req.Header.Set("If-None-Match", prev.etag)
		}
		if prev.lastModified != "" {
			req.Header.Set("If-Modified-Since", prev.lastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching news: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && seen {
		debuglog.Debugf("news for %s not modified", externalID)
		return head(prev.items, limit), nil
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	items, err := f.parser.Parse(io.LimitReader(resp.Body, maxFeedSize), 0)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.known[externalID] = validator{
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get("Last-Modified"),
		items:        items,
	}
	f.mu.Unlock()

	return head(items, limit), nil
}

func head(items []Item, limit int) []Item {
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return append([]Item(nil), items...)
}
