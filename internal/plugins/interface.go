package plugins

import (
	"context"
	"sort"
	"sync"

	"github.com/pders01/gamelib/internal/storage"
)

// Source provides the library of one platform.
type Source interface {
	// Name returns a human readable name for status lines and logs
	Name() string

	// Platform returns the platform tag of every game the source yields
	Platform() string

	// Library returns the current library. Implementations may block on
	// the network and must honour ctx.
	Library(ctx context.Context) ([]*storage.Game, error)

	// Priority returns the priority of this source (higher = higher priority)
	// Useful when multiple sources serve the same platform
	Priority() int
}

// Registry manages all registered sources
type Registry struct {
	mu      sync.RWMutex
	sources []Source
}

func NewRegistry() *Registry {
	return &Registry{
		sources: make([]Source, 0),
	}
}

func (r *Registry) Register(source Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, source)
}

// Find returns the highest priority source for platform, or nil.
// On equal priority the source registered first wins.
func (r *Registry) Find(platform string) Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best Source
	for _, source := range r.sources {
		if source.Platform() != platform {
			continue
		}
		if best == nil || source.Priority() > best.Priority() {
			best = source
		}
	}
	return best
}

// Sources returns the best source of every platform, ordered by platform.
func (r *Registry) Sources() []Source {
	platforms := r.Platforms()
	out := make([]Source, 0, len(platforms))
	for _, p := range platforms {
		out = append(out, r.Find(p))
	}
	return out
}

// Platforms returns the sorted set of platforms with at least one source.
func (r *Registry) Platforms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var platforms []string
	for _, source := range r.sources {
		if !seen[source.Platform()] {
			seen[source.Platform()] = true
			platforms = append(platforms, source.Platform())
		}
	}
	sort.Strings(platforms)
	return platforms
}

// ListSources returns every registered source in registration order.
func (r *Registry) ListSources() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Source(nil), r.sources...)
}
