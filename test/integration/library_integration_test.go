package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/gamelib/internal/api"
	"github.com/pders01/gamelib/internal/catalog"
	"github.com/pders01/gamelib/internal/config"
	"github.com/pders01/gamelib/internal/library"
	"github.com/pders01/gamelib/internal/news"
	"github.com/pders01/gamelib/internal/plugins"
	"github.com/pders01/gamelib/internal/search"
	"github.com/pders01/gamelib/internal/storage"
	"github.com/pders01/gamelib/internal/vault"
)

const (
	apiKey    = "0123456789abcdef0123456789abcdef"
	accountID = "76561197960287930"
)

const ownedJSON = `{"response":{"game_count":3,"games":[
 {"appid":620,"name":"Portal 2","playtime_forever":840,"img_icon_url":"p2","rtime_last_played":1700000000},
 {"appid":413150,"name":"Stardew Valley","playtime_forever":6000,"img_icon_url":"sv"},
 {"appid":999,"name":"Delisted Game","playtime_forever":0,"img_icon_url":"dg"}
]}}`

var detailJSON = map[string]string{
	"620": `{"620":{"success":true,"data":{"name":"Portal 2","short_description":"A puzzle game with portals.",
 "developers":["Valve"],"publishers":["Valve"],"genres":[{"id":"1","description":"Puzzle"}],
 "platforms":{"windows":true,"mac":true,"linux":true},
 "price_overview":{"currency":"USD","initial":999,"final":199,"discount_percent":80,"final_formatted":"$1.99"},
 "achievements":{"total":51},"release_date":{"coming_soon":false,"date":"18 Apr, 2011"}}}}`,
	"413150": `{"413150":{"success":true,"data":{"name":"Stardew Valley","short_description":"Farming life.",
 "developers":["ConcernedApe"],"publishers":["ConcernedApe"],"genres":[{"id":"2","description":"Simulation"},{"id":"3","description":"RPG"}],
 "release_date":{"coming_soon":false,"date":"26 Feb, 2016"}}}}`,
	"999": `{"999":{"success":false}}`,
}

const newsRSS = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Portal 2 news</title>
<item><title>Community update</title><link>https://example.com/p2/1</link>
<pubDate>Mon, 02 Jan 2023 10:00:00 GMT</pubDate><description>&lt;p&gt;New maps&lt;/p&gt;</description></item>
</channel></rss>`

// upstream fakes the catalog API and the news feeds.
type upstream struct {
	server      *httptest.Server
	ownedHits   atomic.Int32
	detailHits  atomic.Int32
	failOwned   atomic.Bool
	seenAPIKeys atomic.Value
}

func newUpstream(t *testing.T) *upstream {
	u := &upstream{}
	r := chi.NewRouter()
	r.Get("/owned", func(w http.ResponseWriter, r *http.Request) {
		u.ownedHits.Add(1)
		u.seenAPIKeys.Store(r.URL.Query().Get("key"))
		if u.failOwned.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, ownedJSON)
	})
	r.Get("/details", func(w http.ResponseWriter, r *http.Request) {
		u.detailHits.Add(1)
		fmt.Fprint(w, detailJSON[r.URL.Query().Get("appids")])
	})
	r.Get("/news/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") != "620" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, newsRSS)
	})
	u.server = httptest.NewServer(r)
	t.Cleanup(u.server.Close)
	return u
}

type env struct {
	cfg      *config.Config
	store    *storage.Store
	client   *catalog.Client
	manager  *library.Manager
	api      *httptest.Server
	upstream *upstream
}

func newEnv(t *testing.T) *env {
	t.Helper()
	up := newUpstream(t)

	cfg := config.TestConfig()
	cfg.Catalog.OwnedGamesURL = up.server.URL + "/owned?key={key}&steamid={account}"
	cfg.Catalog.AppDetailsURL = up.server.URL + "/details?appids={id}"
	cfg.Catalog.NewsURL = up.server.URL + "/news/{id}"
	cfg.Catalog.BatchSize = 2
	cfg.Server.AllowedOrigins = []string{"http://localhost:*"}

	store, err := storage.NewStore(filepath.Join(t.TempDir(), "gamelib.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	client := catalog.NewClient(cfg, vault.New(store, cfg.Vault.Passphrase),
		catalog.WithInstallStates(store),
		catalog.WithSleeper(func(context.Context, time.Duration) error { return nil }),
	)
	registry := plugins.NewRegistry()
	registry.Register(client)
	manager := library.NewManager(store, registry)

	srv := api.New(cfg, api.Deps{
		Catalog:  client,
		Library:  manager,
		Searcher: search.NewEngine(store),
		Installs: store,
	})
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &env{cfg: cfg, store: store, client: client, manager: manager, api: ts, upstream: up}
}

func (e *env) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, e.api.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestLibraryEndToEnd(t *testing.T) {
	e := newEnv(t)

	// unconfigured: sync fails without touching the upstream
	resp, _ := e.do(t, http.MethodPost, "/api/sync?platform=steam", "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Zero(t, e.upstream.ownedHits.Load())

	resp, body := e.do(t, http.MethodPut, "/api/config",
		fmt.Sprintf(`{"apiKey":%q,"accountId":%q}`, apiKey, accountID))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = e.do(t, http.MethodPost, "/api/config/test", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, strings.ToUpper(apiKey), e.upstream.seenAPIKeys.Load())

	resp, body = e.do(t, http.MethodPost, "/api/sync?platform=steam", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = e.do(t, http.MethodGet, "/api/library?sort=playtime&order=desc", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var lib struct {
		Games []*storage.Game `json:"games"`
		Total int             `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body, &lib))
	require.Equal(t, 3, lib.Total)
	assert.Equal(t, "Stardew Valley", lib.Games[0].Name)

	portal := lib.Games[1]
	assert.Equal(t, "steam-620", portal.ID)
	assert.Equal(t, "Valve", portal.Developer)
	assert.Equal(t, []string{"Puzzle"}, portal.Genres)
	assert.True(t, portal.Platforms.Linux)
	require.NotNil(t, portal.Price)
	assert.Equal(t, 80, portal.Price.Discount)
	require.NotNil(t, portal.LastPlayed)

	// a failed detail lookup still yields a game with fallbacks
	delisted := lib.Games[2]
	assert.Equal(t, "Delisted Game", delisted.Name)
	assert.Equal(t, "Unknown", delisted.Developer)
	assert.Empty(t, delisted.Genres)
	assert.True(t, delisted.Platforms.Windows)

	// install state flows back into library reads
	resp, body = e.do(t, http.MethodPut, "/api/library/steam-620/install",
		`{"installed":true,"fileSize":12000,"achievementsUnlocked":20}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var game storage.Game
	require.NoError(t, json.Unmarshal(body, &game))
	assert.True(t, game.Installed)
	require.NotNil(t, game.Achievements)
	assert.Equal(t, 20, game.Achievements.Unlocked)

	resp, body = e.do(t, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats library.Stats
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, 3, stats.TotalGames)
	assert.Equal(t, 1, stats.InstalledGames)
	assert.Equal(t, 6840, stats.TotalPlaytime)

	resp, body = e.do(t, http.MethodGet, "/api/search?q=puzzle", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "steam-620")
}

func TestSyncServesFromCache(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.client.SetConfig(catalog.Credentials{APIKey: strings.ToUpper(apiKey), AccountID: accountID}))

	ctx := context.Background()
	_, err := e.manager.Sync(ctx, catalog.Platform)
	require.NoError(t, err)
	owned, details := e.upstream.ownedHits.Load(), e.upstream.detailHits.Load()
	assert.Equal(t, int32(1), owned)
	assert.Equal(t, int32(3), details)

	// within the TTL nothing is refetched
	_, err = e.manager.Sync(ctx, catalog.Platform)
	require.NoError(t, err)
	assert.Equal(t, owned, e.upstream.ownedHits.Load())
	assert.Equal(t, details, e.upstream.detailHits.Load())

	// after a cache clear an upstream outage keeps the stored library
	e.client.ClearCache()
	e.upstream.failOwned.Store(true)
	_, err = e.manager.Sync(ctx, catalog.Platform)
	require.Error(t, err)

	games, err := e.manager.Games(library.Filter{})
	require.NoError(t, err)
	assert.Len(t, games, 3)

	rec, err := e.store.LastSync(catalog.Platform)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.Err)
}

func TestNewsForSyncedGame(t *testing.T) {
	e := newEnv(t)
	fetcher := news.NewFetcher(e.cfg)

	items, err := fetcher.Fetch(context.Background(), "620", 5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Community update", items[0].Title)
	assert.Equal(t, "New maps", items[0].Summary)

	_, err = fetcher.Fetch(context.Background(), "1", 5)
	assert.Error(t, err)
}
