// Package catalog synchronizes an account's game library with the catalog
// API. It caches responses in memory, paces per-item detail lookups in
// batches and merges both sources into library records.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/pders01/gamelib/internal/config"
	"github.com/pders01/gamelib/internal/storage"
)

// Platform is the library platform tag of catalog games.
const Platform = "steam"

// CredentialsKey is the storage key the credentials are persisted under.
const CredentialsKey = "catalog.credentials"

const (
	endpointOwnedGames = "owned_games"
	endpointAppDetails = "app_details"
)

// CredentialStore persists credentials between runs. Get returns nil when
// nothing is stored.
type CredentialStore interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
}

// InstallStates supplies the locally tracked state of a game by id. It
// returns nil when nothing is tracked.
type InstallStates interface {
	InstallState(id string) (*storage.InstallState, error)
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

type Option func(*Client)

func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) { c.fetcher.client = doer }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithInstallStates(states InstallStates) Option {
	return func(c *Client) { c.installs = states }
}

func WithSleeper(sleep Sleeper) Option {
	return func(c *Client) { c.sleep = sleep }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.cache = NewCache(c.cfg.CacheTTL, now) }
}

type Client struct {
	cfg      config.CatalogConfig
	store    CredentialStore
	installs InstallStates
	fetcher  *fetcher
	cache    *Cache
	group    singleflight.Group
	logger   *zap.Logger
	sleep    Sleeper

	mu    sync.RWMutex
	creds *Credentials
}

func NewClient(cfg *config.Config, store CredentialStore, opts ...Option) *Client {
	cc := cfg.Catalog
	if cc.BatchSize <= 0 {
		cc.BatchSize = 10
	}

	c := &Client{
		cfg:   cc,
		store: store,
		fetcher: &fetcher{
			client:    newHTTPClient(cc.HTTPTimeout),
			userAgent: cc.UserAgent,
		},
		cache:  NewCache(cc.CacheTTL, time.Now),
		logger: zap.NewNop(),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("catalog")
	return c
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SetConfig replaces the in-memory credentials and persists them. The
// in-memory copy is updated even when persisting fails.
func (c *Client) SetConfig(creds Credentials) error {
	c.mu.Lock()
	stored := creds
	c.creds = &stored
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}
	if err := c.store.Set(CredentialsKey, data); err != nil {
		return fmt.Errorf("persisting credentials: %w", err)
	}
	return nil
}

// Config returns the current credentials, loading them from the store on
// first use. Load failures are logged and reported as unconfigured.
func (c *Client) Config() (Credentials, bool) {
	c.mu.RLock()
	if c.creds != nil {
		creds := *c.creds
		c.mu.RUnlock()
		return creds, true
	}
	c.mu.RUnlock()

	if c.store == nil {
		return Credentials{}, false
	}
	data, err := c.store.Get(CredentialsKey)
	if err != nil {
		c.logger.Warn("loading credentials", zap.Error(err))
		return Credentials{}, false
	}
	if data == nil {
		return Credentials{}, false
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		c.logger.Warn("decoding credentials", zap.Error(err))
		return Credentials{}, false
	}

	c.mu.Lock()
	if c.creds == nil {
		c.creds = &creds
	}
	creds = *c.creds
	c.mu.Unlock()
	return creds, true
}

// TestConnection reports whether a full ownership fetch succeeds.
func (c *Client) TestConnection(ctx context.Context) bool {
	if _, err := c.OwnedItems(ctx); err != nil {
		c.logger.Info("connection test failed", zap.Error(err))
		return false
	}
	return true
}

// OwnedItems returns the ownership list of the configured account.
func (c *Client) OwnedItems(ctx context.Context) (*OwnedItemsResponse, error) {
	creds, ok := c.Config()
	if !ok {
		return nil, ErrNotConfigured
	}

	target := strings.NewReplacer(
		"{key}", url.QueryEscape(creds.APIKey),
		"{account}", url.QueryEscape(creds.AccountID),
	).Replace(c.cfg.OwnedGamesURL)
	key := CacheKey(endpointOwnedGames, map[string]string{"accountId": creds.AccountID})

	data, err := c.fetch(ctx, key, proxied(creds.ProxyBaseURL, target), decodeOwnedItems)
	if err != nil {
		return nil, fmt.Errorf("fetching owned games: %w", err)
	}
	return data.(*OwnedItemsResponse), nil
}

func decodeOwnedItems(body []byte) (any, error) {
	var resp OwnedItemsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &resp, nil
}

func decodeItemDetails(body []byte) (any, error) {
	var resp map[string]ItemDetail
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return resp, nil
}

// ItemDetails looks up every id in batches. Lookups within a batch run
// concurrently and batches are separated by the configured delay. Repeated
// ids are looked up once, so batches and delays count distinct ids. Failed
// lookups map to ItemDetail{Success: false}. Without credentials nothing is
// requested and ErrNotConfigured is returned. Otherwise the only error is the
// context error; ids not reached before cancellation are mapped to failures.
func (c *Client) ItemDetails(ctx context.Context, ids []string) (map[string]ItemDetail, error) {
	creds, ok := c.Config()
	if !ok {
		return nil, ErrNotConfigured
	}

	ids = uniqueIDs(ids)
	results := make(map[string]ItemDetail, len(ids))
	var mu sync.Mutex

	size := c.cfg.BatchSize
	for start := 0; start < len(ids); start += size {
		if start > 0 {
			if err := c.sleep(ctx, c.cfg.BatchDelay); err != nil {
				for _, id := range ids[start:] {
					results[id] = ItemDetail{Success: false}
				}
				return results, err
			}
		}

		end := min(start+size, len(ids))
		var wg sync.WaitGroup
		for _, id := range ids[start:end] {
			id := id
			wg.Add(1)
			go func() {
				defer wg.Done()
				detail := c.itemDetail(ctx, creds, id)
				mu.Lock()
				results[id] = detail
				mu.Unlock()
			}()
		}
		wg.Wait()
	}

	return results, ctx.Err()
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (c *Client) itemDetail(ctx context.Context, creds Credentials, id string) ItemDetail {
	target := strings.NewReplacer("{id}", url.QueryEscape(id)).Replace(c.cfg.AppDetailsURL)
	key := CacheKey(endpointAppDetails, map[string]string{"appId": id})

	data, err := c.fetch(ctx, key, proxied(creds.ProxyBaseURL, target), decodeItemDetails)
	if err != nil {
		c.logger.Debug("item detail lookup failed", zap.String("id", id), zap.Error(err))
		return ItemDetail{Success: false}
	}
	detail, ok := data.(map[string]ItemDetail)[id]
	if !ok || !detail.Success {
		return ItemDetail{Success: false}
	}
	return detail
}

// fetch is the cache-checked GET shared by all endpoints. With coalescing
// enabled, concurrent callers for one key share a single fetch. The shared
// fetch outlives any one caller's cancellation and is bounded by the request
// timeout instead; each caller stops waiting when its own context is done.
func (c *Client) fetch(ctx context.Context, key, target string, decode func([]byte) (any, error)) (any, error) {
	if !c.cfg.CoalesceRequests {
		return c.fetchThrough(ctx, key, target, decode)
	}

	ch := c.group.DoChan(key, func() (any, error) {
		shared := context.WithoutCancel(ctx)
		if c.cfg.HTTPTimeout > 0 {
			var cancel context.CancelFunc
			shared, cancel = context.WithTimeout(shared, c.cfg.HTTPTimeout)
			defer cancel()
		}
		return c.fetchThrough(shared, key, target, decode)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) fetchThrough(ctx context.Context, key, target string, decode func([]byte) (any, error)) (any, error) {
	data, fresh, stale := c.cache.lookup(key)
	if fresh {
		return data, nil
	}

	body, err := c.fetcher.get(ctx, target)
	if err == nil {
		data, err = decode(body)
	}
	if err != nil {
		if stale != nil {
			c.cache.restore(key, stale)
			c.logger.Warn("using expired cache data due to request failure",
				zap.String("key", key), zap.Error(err))
			return stale.data, nil
		}
		return nil, err
	}

	c.cache.Set(key, data)
	return data, nil
}

// EnhancedLibrary fetches the ownership list and details and merges them
// into library records, in ownership order.
func (c *Client) EnhancedLibrary(ctx context.Context) ([]*storage.Game, error) {
	owned, err := c.OwnedItems(ctx)
	if err != nil {
		return nil, err
	}

	items := owned.Response.Games
	if len(items) == 0 {
		return []*storage.Game{}, nil
	}

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ExternalID()
	}

	details, err := c.ItemDetails(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetching item details: %w", err)
	}

	games := make([]*storage.Game, 0, len(items))
	for _, item := range items {
		games = append(games, c.enhance(item, details[item.ExternalID()]))
	}
	c.logger.Info("library assembled", zap.Int("games", len(games)))
	return games, nil
}

func (c *Client) ClearCache() {
	c.cache.Clear()
}

// The client is the library source for its platform.

func (c *Client) Name() string     { return "Steam" }
func (c *Client) Platform() string { return Platform }
func (c *Client) Priority() int    { return 100 }

func (c *Client) Library(ctx context.Context) ([]*storage.Game, error) {
	return c.EnhancedLibrary(ctx)
}
