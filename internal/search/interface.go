package search

import "github.com/pders01/gamelib/internal/storage"

// Library is the read side of the game store that the engines search.
type Library interface {
	GetGames(platform string) ([]*storage.Game, error)
	GetGame(id string) (*storage.Game, error)
}

// Searcher defines the minimal search API used by the TUI and the API.
type Searcher interface {
	Search(query string, limit int) ([]*Result, error)
}

// UpdateListener can be implemented by search engines that maintain
// an external index and want to be notified when a platform's library
// has been replaced.
type UpdateListener interface {
	OnLibraryUpdated(platform string, games []*storage.Game)
}

// DebugStatser provides lightweight stats for visibility/debugging.
// Implemented by engines that can report index doc counts, etc.
type DebugStatser interface {
	DocCount() (int, error)
}
