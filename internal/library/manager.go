package library

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pders01/gamelib/internal/debuglog"
	"github.com/pders01/gamelib/internal/plugins"
	"github.com/pders01/gamelib/internal/search"
	"github.com/pders01/gamelib/internal/storage"
)

var ErrUnknownPlatform = errors.New("no source registered for platform")

// Store is the subset of storage.Store the manager writes through.
type Store interface {
	ReplaceGames(platform string, games []*storage.Game) error
	GetGames(platform string) ([]*storage.Game, error)
	GetGame(id string) (*storage.Game, error)
	SaveSyncRecord(rec storage.SyncRecord) error
	LastSync(platform string) (*storage.SyncRecord, error)
}

// maxConcurrentSyncs bounds how many sources SyncAll runs at once
const maxConcurrentSyncs = 4

type Manager struct {
	store     Store
	registry  *plugins.Registry
	listeners []search.UpdateListener
	now       func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewManager(store Store, registry *plugins.Registry) *Manager {
	return &Manager{
		store:    store,
		registry: registry,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
}

// AddListener registers l to be told about every replaced library.
func (m *Manager) AddListener(l search.UpdateListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

func (m *Manager) Registry() *plugins.Registry { return m.registry }

func (m *Manager) platformLock(platform string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[platform]
	if !ok {
		l = &sync.Mutex{}
		m.locks[platform] = l
	}
	return l
}

// Sync pulls the library of platform from its best source and replaces the
// stored games. On failure the stored games are left untouched and the
// failure is recorded in the platform's sync record.
func (m *Manager) Sync(ctx context.Context, platform string) (*storage.SyncRecord, error) {
	source := m.registry.Find(platform)
	if source == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlatform, platform)
	}

	lock := m.platformLock(platform)
	lock.Lock()
	defer lock.Unlock()

	rec := storage.SyncRecord{
		RunID:     uuid.NewString(),
		Platform:  platform,
		StartedAt: m.now(),
	}
	log := debuglog.WithFields(map[string]any{"run": rec.RunID, "platform": platform, "source": source.Name()})
	log.Debugf("sync started")

	err := m.syncSource(ctx, source, &rec)
	rec.FinishedAt = m.now()
	if err != nil {
		rec.Err = err.Error()
		log.Warnf("sync failed: %v", err)
	} else {
		log.Infof("sync finished with %d games in %s", rec.Games, rec.FinishedAt.Sub(rec.StartedAt))
	}

	if saveErr := m.store.SaveSyncRecord(rec); saveErr != nil {
		debuglog.Errorf("saving sync record for %s: %v", platform, saveErr)
	}

	if err != nil {
		return &rec, fmt.Errorf("syncing %s: %w", platform, err)
	}
	return &rec, nil
}

func (m *Manager) syncSource(ctx context.Context, source plugins.Source, rec *storage.SyncRecord) error {
	games, err := source.Library(ctx)
	if err != nil {
		return err
	}
	if err := m.store.ReplaceGames(source.Platform(), games); err != nil {
		return fmt.Errorf("saving games: %w", err)
	}
	rec.Games = len(games)

	m.mu.Lock()
	listeners := append([]search.UpdateListener(nil), m.listeners...)
	m.mu.Unlock()
	for _, l := range listeners {
		l.OnLibraryUpdated(source.Platform(), games)
	}
	return nil
}

// SyncAll syncs every registered platform. Failing platforms keep their
// previous games; their errors are joined into the returned error.
func (m *Manager) SyncAll(ctx context.Context) ([]storage.SyncRecord, error) {
	platforms := m.registry.Platforms()
	if len(platforms) == 0 {
		return nil, nil
	}

	records := make([]storage.SyncRecord, len(platforms))
	errs := make([]error, len(platforms))

	sem := make(chan struct{}, maxConcurrentSyncs)
	var wg sync.WaitGroup
	for i, platform := range platforms {
		i, platform := i, platform
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			rec, err := m.Sync(ctx, platform)
			if rec != nil {
				records[i] = *rec
			}
			errs[i] = err
		}()
	}
	wg.Wait()

	return records, errors.Join(errs...)
}

// Games returns the stored games matching f, sorted as f asks.
func (m *Manager) Games(f Filter) ([]*storage.Game, error) {
	games, err := m.store.GetGames("")
	if err != nil {
		return nil, fmt.Errorf("loading games: %w", err)
	}
	return f.Apply(games), nil
}

func (m *Manager) Game(id string) (*storage.Game, error) {
	return m.store.GetGame(id)
}

// LastSyncs returns the latest record of every registered platform that
// has synced at least once.
func (m *Manager) LastSyncs() []storage.SyncRecord {
	var out []storage.SyncRecord
	for _, p := range m.registry.Platforms() {
		rec, err := m.store.LastSync(p)
		if err != nil {
			continue
		}
		out = append(out, *rec)
	}
	return out
}
