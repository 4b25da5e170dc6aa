package plugins

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/gamelib/internal/storage"
)

// mockSource is a test source for testing the registry
type mockSource struct {
	name     string
	platform string
	priority int
	games    []*storage.Game
}

func (s *mockSource) Name() string     { return s.name }
func (s *mockSource) Platform() string { return s.platform }
func (s *mockSource) Priority() int    { return s.priority }

func (s *mockSource) Library(_ context.Context) ([]*storage.Game, error) {
	return s.games, nil
}

func TestNewRegistry(t *testing.T) {
	registry := NewRegistry()

	assert.NotNil(t, registry)
	assert.Empty(t, registry.ListSources())
	assert.Empty(t, registry.Sources())
	assert.Nil(t, registry.Find("steam"))
}

func TestRegistry_Register(t *testing.T) {
	registry := NewRegistry()
	source := &mockSource{name: "test", platform: "gog", priority: 50}

	registry.Register(source)

	require.Len(t, registry.ListSources(), 1)
	assert.Equal(t, source, registry.ListSources()[0])
}

func TestRegistry_Find(t *testing.T) {
	registry := NewRegistry()

	demo := &mockSource{name: "demo", platform: "steam", priority: 10}
	live := &mockSource{name: "live", platform: "steam", priority: 100}
	tie := &mockSource{name: "tie", platform: "steam", priority: 100}
	gog := &mockSource{name: "gog", platform: "gog", priority: 10}

	registry.Register(demo)
	registry.Register(live)
	registry.Register(tie)
	registry.Register(gog)

	tests := []struct {
		platform string
		want     Source
	}{
		{"steam", live},
		{"gog", gog},
		{"epic", nil},
	}

	for _, tt := range tests {
		t.Run(tt.platform, func(t *testing.T) {
			got := registry.Find(tt.platform)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_Sources(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&mockSource{name: "uplay", platform: "uplay", priority: 10})
	registry.Register(&mockSource{name: "steam demo", platform: "steam", priority: 10})
	registry.Register(&mockSource{name: "epic", platform: "epic", priority: 10})
	registry.Register(&mockSource{name: "steam", platform: "steam", priority: 100})

	assert.Equal(t, []string{"epic", "steam", "uplay"}, registry.Platforms())

	sources := registry.Sources()
	require.Len(t, sources, 3)
	assert.Equal(t, "epic", sources[0].Name())
	assert.Equal(t, "steam", sources[1].Name())
	assert.Equal(t, "uplay", sources[2].Name())
}
