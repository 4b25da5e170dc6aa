package main

import (
	"errors"
	"fmt"

	"github.com/pders01/gamelib/internal/catalog"
	"github.com/pders01/gamelib/internal/config"
	"github.com/pders01/gamelib/internal/debuglog"
	"github.com/pders01/gamelib/internal/launch"
	"github.com/pders01/gamelib/internal/library"
	"github.com/pders01/gamelib/internal/news"
	"github.com/pders01/gamelib/internal/plugins"
	"github.com/pders01/gamelib/internal/plugins/user"
	"github.com/pders01/gamelib/internal/search"
	"github.com/pders01/gamelib/internal/storage"
	"github.com/pders01/gamelib/internal/vault"
)

// application is the wired object graph shared by the TUI, the API server
// and the one-shot commands.
type application struct {
	cfg      *config.Config
	store    *storage.Store
	client   *catalog.Client
	manager  *library.Manager
	searcher search.Searcher
	launcher *launch.Launcher

	closers []func() error
}

func openApplication(cfg *config.Config, launchOpts ...launch.Option) (*application, error) {
	store, err := storage.NewStoreWithTimeout(cfg.Database.Path, cfg.Database.Timeout)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	app := &application{cfg: cfg, store: store, closers: []func() error{store.Close}}

	app.client = catalog.NewClient(cfg, vault.New(store, cfg.Vault.Passphrase),
		catalog.WithLogger(debuglog.L()),
		catalog.WithInstallStates(store),
	)

	registry, err := buildRegistry(cfg, app.client)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.manager = library.NewManager(store, registry)
	app.searcher = app.openSearcher()

	app.launcher, err = launch.NewLauncher(cfg, launchOpts...)
	if err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// buildRegistry registers the catalog client and, when enabled, the demo
// fixtures. The steam fixtures only stand in for the client while it has no
// credentials.
func buildRegistry(cfg *config.Config, client *catalog.Client) (*plugins.Registry, error) {
	registry := plugins.NewRegistry()
	if !cfg.Library.EnableDemo {
		registry.Register(client)
		return registry, nil
	}

	sources, err := user.LoadDemoSources(cfg.Library.DemoFixtures)
	if err != nil {
		return nil, err
	}

	var primary plugins.Source = client
	for _, src := range sources {
		if src.Platform() == catalog.Platform {
			primary = &plugins.FallbackSource{
				Primary:   client,
				Secondary: src,
				Use: func(err error) bool {
					return errors.Is(err, catalog.ErrNotConfigured)
				},
			}
			continue
		}
		registry.Register(src)
	}
	registry.Register(primary)
	return registry, nil
}

// openSearcher prefers the persistent bleve index and falls back to the
// in-memory scan engine when the index cannot be opened.
func (a *application) openSearcher() search.Searcher {
	if a.cfg.Database.SearchIndex != "" {
		eng, err := search.NewBleveEngine(a.store, a.cfg.Database.SearchIndex)
		if err == nil {
			a.manager.AddListener(eng)
			a.closers = append(a.closers, eng.Close)
			return eng
		}
		debuglog.Warnf("search index unavailable, using scan search: %v", err)
	}
	return search.NewEngine(a.store)
}

func (a *application) news() *news.Fetcher {
	return news.NewFetcher(a.cfg)
}

// Close releases resources in reverse order of acquisition.
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			debuglog.Warnf("close: %v", err)
		}
	}
	a.closers = nil
}
