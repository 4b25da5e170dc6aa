package tui

import "github.com/pders01/gamelib/internal/storage"

type View int

const (
	ViewLibrary View = iota
	ViewDetail
	ViewSearch
)

func (v View) String() string {
	switch v {
	case ViewLibrary:
		return "library"
	case ViewDetail:
		return "detail"
	case ViewSearch:
		return "search"
	default:
		return "unknown"
	}
}

type gamesLoadedMsg struct {
	games []*storage.Game
}

type detailRenderedMsg struct {
	id      string
	content string
}

type syncFinishedMsg struct {
	records []storage.SyncRecord
	err     error
}

type searchDebounceMsg struct {
	seq int
}

type searchResultsMsg struct {
	seq   int
	items []gameItem
}

type launchedMsg struct {
	name string
	err  error
}

type errorMsg struct {
	err error
}
