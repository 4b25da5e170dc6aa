package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/pders01/gamelib/internal/catalog"
	"github.com/pders01/gamelib/internal/debuglog"
	"github.com/pders01/gamelib/internal/library"
	"github.com/pders01/gamelib/internal/news"
	"github.com/pders01/gamelib/internal/storage"
)

func (a *App) loadGames() tea.Cmd {
	f := a.filter
	return func() tea.Msg {
		games, err := a.deps.Library.Games(f)
		if err != nil {
			return errorMsg{err: actionErr("loading library", err)}
		}
		return gamesLoadedMsg{games: games}
	}
}

func (a *App) syncAll() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()

		records, err := a.deps.Library.SyncAll(ctx)
		if err != nil {
			debuglog.Warnf("sync from TUI: %v", err)
		}
		return syncFinishedMsg{records: records, err: err}
	}
}

func (a *App) performSearch(query string, seq int) tea.Cmd {
	query = sanitizeSearchInput(query)
	return func() tea.Msg {
		if len([]rune(query)) < 2 {
			return searchResultsMsg{seq: seq}
		}
		results, err := a.deps.Searcher.Search(query, searchLimit)
		if err != nil {
			return errorMsg{err: actionErr("search", err)}
		}
		items := make([]gameItem, 0, len(results))
		for _, r := range results {
			items = append(items, gameItem{game: r.Game, score: r.Score})
		}
		return searchResultsMsg{seq: seq, items: items}
	}
}

func (a *App) launchGame(game *storage.Game) tea.Cmd {
	return func() tea.Msg {
		if err := a.deps.Launcher.Launch(game); err != nil {
			return launchedMsg{name: game.Name, err: actionErr("launch "+game.Name, err)}
		}
		return launchedMsg{name: game.Name}
	}
}

// renderDetail fetches the game's news when a news source is configured and
// renders the detail page with r.
func (a *App) renderDetail(game *storage.Game, r *glamour.TermRenderer) tea.Cmd {
	limit := a.config.UI.Detail.NewsItems
	source := a.deps.News
	return func() tea.Msg {
		var items []news.Item
		var newsErr error
		if source != nil && limit > 0 && game.Platform == catalog.Platform {
			ctx, cancel := context.WithTimeout(context.Background(), newsTimeout)
			items, newsErr = source.Fetch(ctx, game.ExternalID, limit)
			cancel()
			if newsErr != nil {
				debuglog.Debugf("news for %s: %v", game.ID, newsErr)
			}
		}

		rendered, err := r.Render(gameMarkdown(game, items, newsErr))
		if err != nil {
			rendered = fmt.Sprintf("Failed to render %s: %v\n\nPress Esc to go back.", game.Name, err)
		}
		return detailRenderedMsg{id: game.ID, content: rendered}
	}
}

// gameMarkdown builds the detail page of game. News is listed when items is
// non-empty; newsErr adds a short notice instead.
func gameMarkdown(game *storage.Game, items []news.Item, newsErr error) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", game.Name)
	by := game.Developer
	if game.Publisher != game.Developer {
		by = joinNonEmpty(" · ", game.Developer, game.Publisher)
	}
	if by != "" {
		fmt.Fprintf(&b, "*%s*\n\n", by)
	}

	b.WriteString("| | |\n|---|---|\n")
	row := func(k, v string) {
		if v != "" {
			fmt.Fprintf(&b, "| %s | %s |\n", k, strings.ReplaceAll(v, "|", "\\|"))
		}
	}
	row("Platform", library.PlatformTitle(game.Platform))
	row("Status", installStatus(game))
	row("Playtime", formatPlaytime(game.Playtime))
	if game.LastPlayed != nil {
		row("Last played", game.LastPlayed.Format("Jan 2, 2006"))
	}
	row("Released", game.ReleaseDate)
	row("Size", formatSize(game.FileSize))
	row("Genres", strings.Join(game.Genres, ", "))
	row("Systems", systems(game.Platforms))
	if game.Price != nil {
		price := game.Price.Formatted
		if game.Price.Discount > 0 {
			price += fmt.Sprintf(" (-%d%%)", game.Price.Discount)
		}
		row("Price", price)
	}
	if game.MetacriticScore != nil {
		row("Metacritic", fmt.Sprintf("%d", *game.MetacriticScore))
	}
	if game.UserRating != nil {
		row("Your rating", fmt.Sprintf("%.1f / 10", *game.UserRating))
	}
	if a := game.Achievements; a != nil && a.Total > 0 {
		row("Achievements", fmt.Sprintf("%d / %d (%.0f%%)", a.Unlocked, a.Total, 100*float64(a.Unlocked)/float64(a.Total)))
	}
	b.WriteString("\n")

	if game.Description != "" {
		b.WriteString(game.Description)
		b.WriteString("\n\n")
	}

	if len(game.Features) > 0 {
		b.WriteString("## Features\n\n")
		for _, f := range game.Features {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}
	if len(game.Tags) > 0 {
		fmt.Fprintf(&b, "**Tags:** %s\n\n", strings.Join(game.Tags, ", "))
	}

	switch {
	case len(items) > 0:
		b.WriteString("---\n\n## News\n\n")
		for _, it := range items {
			if it.Link != "" {
				fmt.Fprintf(&b, "### [%s](%s)\n", it.Title, it.Link)
			} else {
				fmt.Fprintf(&b, "### %s\n", it.Title)
			}
			if !it.Published.IsZero() {
				fmt.Fprintf(&b, "*%s*\n\n", it.Published.Format("Jan 2, 2006"))
			}
			if it.Summary != "" {
				b.WriteString(it.Summary)
				b.WriteString("\n\n")
			}
		}
	case newsErr != nil:
		b.WriteString("---\n\n*News unavailable.*\n")
	}
	return b.String()
}

func installStatus(g *storage.Game) string {
	switch {
	case g.Installed:
		return "Installed"
	case g.Downloading && g.DownloadProgress != nil:
		return fmt.Sprintf("Downloading (%.0f%%)", *g.DownloadProgress)
	case g.Downloading:
		return "Downloading"
	default:
		return "Not installed"
	}
}

func systems(s storage.OSSupport) string {
	var out []string
	if s.Windows {
		out = append(out, "Windows")
	}
	if s.Mac {
		out = append(out, "macOS")
	}
	if s.Linux {
		out = append(out, "Linux")
	}
	return strings.Join(out, ", ")
}
