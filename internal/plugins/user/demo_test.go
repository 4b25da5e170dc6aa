package user

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/gamelib/internal/plugins"
)

func TestLoadDemoSources_Embedded(t *testing.T) {
	sources, err := LoadDemoSources("")
	require.NoError(t, err)

	var platforms []string
	for _, s := range sources {
		platforms = append(platforms, s.Platform())
	}
	assert.Equal(t, []string{"epic", "gog", "origin", "steam", "uplay"}, platforms)

	registry := plugins.NewRegistry()
	for _, s := range sources {
		registry.Register(s)
	}
	gog := registry.Find("gog")
	require.NotNil(t, gog)
	assert.Equal(t, "Demo GOG", gog.Name())
	assert.Equal(t, DemoPriority, gog.Priority())

	games, err := gog.Library(context.Background())
	require.NoError(t, err)
	require.Len(t, games, 2)

	witcher := games[0]
	assert.Equal(t, "gog-1495134320", witcher.ID)
	assert.Equal(t, "gog", witcher.Platform)
	assert.True(t, witcher.Platforms.Linux)
	require.NotNil(t, witcher.LastPlayed)
	assert.Equal(t, 2024, witcher.LastPlayed.Year())
	require.NotNil(t, witcher.Price)
	assert.Equal(t, 60, witcher.Price.Discount)
	assert.Equal(t, 52, witcher.Achievements.Unlocked)
}

func TestDemoSource_ReturnsCopies(t *testing.T) {
	sources, err := LoadDemoSources("")
	require.NoError(t, err)

	var steam *DemoSource
	for _, s := range sources {
		if s.Platform() == "steam" {
			steam = s
		}
	}
	require.NotNil(t, steam)

	first, err := steam.Library(context.Background())
	require.NoError(t, err)
	first[0].Name = "mutated"

	second, err := steam.Library(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Cyberpunk 2077", second[0].Name)

	hades := second[2]
	assert.True(t, hades.Downloading)
	require.NotNil(t, hades.DownloadProgress)
	assert.Equal(t, 65.0, *hades.DownloadProgress)
}

func TestDemoSource_Cancelled(t *testing.T) {
	sources, err := LoadDemoSources("")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sources[0].Library(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseDemoSources_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"invalid yaml", "games: [\n"},
		{"missing id", "games:\n  - platform: gog\n    name: X\n"},
		{"bad timestamp", "games:\n  - platform: gog\n    external_id: \"1\"\n    name: X\n    last_played: yesterday\n"},
		{"duplicate", "games:\n  - {platform: gog, external_id: \"1\", name: X}\n  - {platform: gog, external_id: \"1\", name: Y}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDemoSources([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadDemoSources_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	content := `games:
  - platform: epic
    external_id: Celeste
    name: Celeste
    genres: [Platformer]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	sources, err := LoadDemoSources(path)
	require.NoError(t, err)
	require.Len(t, sources, 1)

	games, err := sources[0].Library(context.Background())
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "epic-Celeste", games[0].ID)
	assert.Equal(t, "Unknown", games[0].Developer)
	assert.Equal(t, []string{}, games[0].Tags)

	_, err = LoadDemoSources(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
