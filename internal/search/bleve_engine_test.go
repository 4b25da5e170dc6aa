//go:build bleve

package search

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/gamelib/internal/storage"
)

func TestBleveEngineIndexesAndSearches(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewStore(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.ReplaceGames("steam", []*storage.Game{
		{ID: "steam-1145360", Platform: "steam", Name: "Hades", Genres: []string{"Roguelike"}, Developer: "Supergiant Games"},
		{ID: "steam-1091500", Platform: "steam", Name: "Cyberpunk 2077", Description: "Night City awaits"},
	}))

	idxPath := filepath.Join(dir, "index.bleve")
	eng, err := NewBleveEngine(store, idxPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	n, err := eng.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	res, err := eng.Search("hades", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Hades", res[0].Game.Name)

	res, err = eng.Search("superg", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)

	fi, err := os.Stat(idxPath)
	require.NoError(t, err)
	require.True(t, fi.IsDir())
}

func TestBleveEngineFollowsLibraryUpdates(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewStore(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	eng, err := NewBleveEngine(store, filepath.Join(dir, "index.bleve"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	first := []*storage.Game{{ID: "gog-1", Platform: "gog", Name: "Disco Elysium"}}
	require.NoError(t, store.ReplaceGames("gog", first))
	eng.OnLibraryUpdated("gog", first)

	res, err := eng.Search("disco", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)

	second := []*storage.Game{{ID: "gog-2", Platform: "gog", Name: "Pillars of Eternity"}}
	require.NoError(t, store.ReplaceGames("gog", second))
	eng.OnLibraryUpdated("gog", second)

	res, err = eng.Search("disco", 10)
	require.NoError(t, err)
	assert.Empty(t, res)

	n, err := eng.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
