package tui

import (
	"fmt"
	"strings"

	"github.com/pders01/gamelib/internal/storage"
)

// Canonical short status messages used across the app.
const (
	MsgSyncing       = "Syncing…"
	MsgSyncBusy      = "Sync already running"
	MsgLoadingDetail = "Loading details…"
	MsgNoResults     = "No results"
	MsgNoSelection   = "No game selected"
)

func MsgLaunching(name string) string {
	return fmt.Sprintf("Launching %s…", strings.TrimSpace(name))
}

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

// MsgSyncSummary reports how many platforms synced and how many games
// they returned. docCount is appended when non-negative.
func MsgSyncSummary(records []storage.SyncRecord, docCount int) string {
	var ok, failed, games int
	for _, rec := range records {
		if rec.Err != "" {
			failed++
			continue
		}
		ok++
		games += rec.Games
	}
	base := fmt.Sprintf("Synced: %d platforms • %d games", ok, games)
	if failed > 0 {
		base += fmt.Sprintf(" • %d failed", failed)
	}
	if docCount >= 0 {
		base += fmt.Sprintf(" • idx: %d docs", docCount)
	}
	return base
}
