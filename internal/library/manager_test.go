package library

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/gamelib/internal/plugins"
	"github.com/pders01/gamelib/internal/plugins/user"
	"github.com/pders01/gamelib/internal/storage"
)

type fakeSource struct {
	mu       sync.Mutex
	platform string
	games    []*storage.Game
	err      error
	calls    int
}

func (f *fakeSource) Name() string     { return "Fake " + f.platform }
func (f *fakeSource) Platform() string { return f.platform }
func (f *fakeSource) Priority() int    { return 50 }

func (f *fakeSource) Library(ctx context.Context) ([]*storage.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.games, nil
}

func (f *fakeSource) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type recordingListener struct {
	mu      sync.Mutex
	updates map[string]int
}

func (r *recordingListener) OnLibraryUpdated(platform string, games []*storage.Game) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updates == nil {
		r.updates = make(map[string]int)
	}
	r.updates[platform] = len(games)
}

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func demoRegistry(t *testing.T) *plugins.Registry {
	t.Helper()
	sources, err := user.LoadDemoSources("")
	require.NoError(t, err)
	registry := plugins.NewRegistry()
	for _, s := range sources {
		registry.Register(s)
	}
	return registry
}

func TestNewManager(t *testing.T) {
	store := newTestStore(t)
	registry := plugins.NewRegistry()

	manager := NewManager(store, registry)

	assert.NotNil(t, manager)
	assert.Equal(t, registry, manager.Registry())
}

func TestSync(t *testing.T) {
	store := newTestStore(t)
	manager := NewManager(store, demoRegistry(t))
	listener := &recordingListener{}
	manager.AddListener(listener)

	rec, err := manager.Sync(context.Background(), "gog")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Games)
	assert.NotEmpty(t, rec.RunID)
	assert.Empty(t, rec.Err)
	assert.False(t, rec.FinishedAt.Before(rec.StartedAt))

	games, err := store.GetGames("gog")
	require.NoError(t, err)
	assert.Len(t, games, 2)
	assert.Equal(t, 2, listener.updates["gog"])

	last, err := store.LastSync("gog")
	require.NoError(t, err)
	assert.Equal(t, rec.RunID, last.RunID)
}

func TestSyncUnknownPlatform(t *testing.T) {
	manager := NewManager(newTestStore(t), plugins.NewRegistry())

	_, err := manager.Sync(context.Background(), "battlenet")
	assert.ErrorIs(t, err, ErrUnknownPlatform)
}

func TestSyncAll(t *testing.T) {
	store := newTestStore(t)
	registry := demoRegistry(t)
	epic := &fakeSource{platform: "epic", games: []*storage.Game{
		{ID: "epic-celeste", ExternalID: "celeste", Platform: "epic", Name: "Celeste"},
	}}
	registry.Register(epic)
	manager := NewManager(store, registry)

	records, err := manager.SyncAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 5)

	all, err := store.GetGames("")
	require.NoError(t, err)
	// demo minus its two epic games plus the fake one
	assert.Len(t, all, 9)

	t.Run("failing source keeps previous games", func(t *testing.T) {
		boom := errors.New("launcher offline")
		epic.fail(boom)

		records, err := manager.SyncAll(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "syncing epic")
		require.Len(t, records, 5)

		games, err := store.GetGames("epic")
		require.NoError(t, err)
		require.Len(t, games, 1)
		assert.Equal(t, "Celeste", games[0].Name)

		last, err := store.LastSync("epic")
		require.NoError(t, err)
		assert.Equal(t, "launcher offline", last.Err)

		assert.Len(t, manager.LastSyncs(), 5)
	})
}

func TestSyncAllEmptyRegistry(t *testing.T) {
	manager := NewManager(newTestStore(t), plugins.NewRegistry())

	records, err := manager.SyncAll(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, records)
}

func TestSyncCancelled(t *testing.T) {
	store := newTestStore(t)
	manager := NewManager(store, demoRegistry(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := manager.Sync(ctx, "steam")
	assert.ErrorIs(t, err, context.Canceled)

	games, err := store.GetGames("steam")
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestManagerGames(t *testing.T) {
	store := newTestStore(t)
	manager := NewManager(store, demoRegistry(t))
	_, err := manager.SyncAll(context.Background())
	require.NoError(t, err)

	installed := true
	games, err := manager.Games(Filter{Installed: &installed, SortBy: SortPlaytime, SortOrder: Desc})
	require.NoError(t, err)
	require.Len(t, games, 7)
	assert.Equal(t, "The Witcher 3: Wild Hunt GOTY", games[0].Name)

	game, err := manager.Game("steam-1145360")
	require.NoError(t, err)
	assert.Equal(t, "Hades", game.Name)

	_, err = manager.Game("steam-0")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
