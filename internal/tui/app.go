package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/gamelib/internal/config"
	"github.com/pders01/gamelib/internal/library"
	"github.com/pders01/gamelib/internal/news"
	"github.com/pders01/gamelib/internal/search"
	"github.com/pders01/gamelib/internal/storage"
)

// Library is the part of the library manager the TUI drives.
type Library interface {
	Games(f library.Filter) ([]*storage.Game, error)
	SyncAll(ctx context.Context) ([]storage.SyncRecord, error)
}

type Launcher interface {
	Launch(game *storage.Game) error
}

type NewsSource interface {
	Fetch(ctx context.Context, externalID string, limit int) ([]news.Item, error)
}

type Deps struct {
	Library  Library
	Searcher search.Searcher
	Launcher Launcher
	// News is optional; the detail view omits the news section without it.
	News NewsSource
}

const (
	searchDebounce = 150 * time.Millisecond
	searchLimit    = 50
	syncTimeout    = 5 * time.Minute
	newsTimeout    = 10 * time.Second
)

type App struct {
	config          *config.Config
	deps            Deps
	keys            keyMap
	keyHandler      *KeyHandler
	gameList        list.Model
	searchList      list.Model
	searchInput     textinput.Model
	viewport        viewport.Model
	help            help.Model
	view            View
	previousView    View
	cameFromSearch  bool
	filter          library.Filter
	games           []*storage.Game
	currentGame     *storage.Game
	searchSeq       int
	syncing         bool
	loadingDetail   bool
	status          string
	statusKind      StatusKind
	width           int
	height          int
	err             error
	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
}

func NewApp(cfg *config.Config, deps Deps) *App {
	ApplyTheme(cfg.UI.Colors)

	gameList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	gameList.Title = "› library"
	gameList.SetShowStatusBar(true)
	gameList.SetFilteringEnabled(true)
	gameList.SetShowHelp(false)

	searchList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	searchList.Title = "› search results"
	searchList.SetShowStatusBar(false)
	searchList.SetShowHelp(false)
	searchList.SetFilteringEnabled(false)

	si := textinput.New()
	si.Placeholder = "Search by name, genre, developer…"
	si.CharLimit = maxSearchLength

	sortBy, err := library.ParseSortBy(cfg.Library.DefaultSort)
	if err != nil {
		sortBy = library.SortName
	}

	app := &App{
		config:      cfg,
		deps:        deps,
		keys:        newKeyMap(cfg.Keys),
		gameList:    gameList,
		searchList:  searchList,
		searchInput: si,
		viewport:    viewport.New(0, 0),
		help:        help.New(),
		view:        ViewLibrary,
		filter:      library.Filter{SortBy: sortBy},
	}
	app.keyHandler = NewKeyHandler(app)
	return app
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	maxWidth := a.config.UI.Detail.WordWrapMaxWidth
	minWidth := a.config.UI.Detail.WordWrapMinWidth
	wordWrapWidth := (a.width * 9) / 10
	if maxWidth > 0 && wordWrapWidth > maxWidth {
		wordWrapWidth = maxWidth
	}
	if wordWrapWidth < minWidth {
		wordWrapWidth = minWidth
	}
	if a.width > 0 && a.width < 50 {
		wordWrapWidth = max(a.width-4, 20)
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}
	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) setStatus(msg string, kind StatusKind) {
	a.status = msg
	a.statusKind = kind
	if kind != StatusError {
		a.err = nil
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.loadGames(),
		tea.EnterAltScreen,
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.gameList.SetSize(msg.Width, msg.Height-3)
		a.searchList.SetSize(msg.Width, max(msg.Height-9, 5))
		a.viewport.Width = msg.Width
		a.viewport.Height = msg.Height - 3
		a.help.Width = msg.Width
		return a, nil

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case gamesLoadedMsg:
		a.games = msg.games
		items := make([]list.Item, len(msg.games))
		for i, g := range msg.games {
			items[i] = gameItem{game: g}
		}
		cmd := a.gameList.SetItems(items)
		a.gameList.Title = a.libraryTitle()
		return a, cmd

	case detailRenderedMsg:
		if a.view == ViewDetail && a.currentGame != nil && a.currentGame.ID == msg.id {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
			a.loadingDetail = false
			a.setStatus("", StatusInfo)
		}
		return a, nil

	case syncFinishedMsg:
		a.syncing = false
		docCount := -1
		if ds, ok := a.deps.Searcher.(search.DebugStatser); ok {
			if n, err := ds.DocCount(); err == nil {
				docCount = n
			}
		}
		kind := StatusSuccess
		if msg.err != nil {
			kind = StatusWarn
		}
		a.setStatus(MsgSyncSummary(msg.records, docCount), kind)
		return a, a.loadGames()

	case searchDebounceMsg:
		if msg.seq != a.searchSeq || a.view != ViewSearch {
			return a, nil
		}
		return a, a.performSearch(a.searchInput.Value(), msg.seq)

	case searchResultsMsg:
		if msg.seq != a.searchSeq || a.view != ViewSearch {
			return a, nil
		}
		items := make([]list.Item, len(msg.items))
		for i, it := range msg.items {
			items[i] = it
		}
		cmd := a.searchList.SetItems(items)
		if len(items) == 0 {
			a.setStatus(MsgNoResults, StatusInfo)
		} else {
			a.setStatus(MsgResultsCount(len(items)), StatusInfo)
		}
		return a, cmd

	case launchedMsg:
		if msg.err != nil {
			a.err = msg.err
			return a, nil
		}
		a.setStatus(MsgLaunching(msg.name), StatusSuccess)
		return a, nil

	case errorMsg:
		a.err = msg.err
		a.syncing = false
		return a, nil
	}

	var cmd tea.Cmd
	switch a.view {
	case ViewLibrary:
		a.gameList, cmd = a.gameList.Update(msg)
	case ViewDetail:
		a.viewport, cmd = a.viewport.Update(msg)
	case ViewSearch:
		a.searchInput, cmd = a.searchInput.Update(msg)
	}
	return a, cmd
}

func (a *App) libraryTitle() string {
	parts := []string{"› library", "sort: " + string(a.filter.SortBy)}
	if a.filter.Installed != nil && *a.filter.Installed {
		parts = append(parts, "installed only")
	}
	return strings.Join(parts, " · ")
}

func (a *App) View() string {
	var content string
	bodyHeight := a.height - 3

	switch a.view {
	case ViewLibrary:
		if len(a.games) == 0 && a.filter.Installed == nil {
			content = renderCentered(a.width, bodyHeight, GetWelcomeMessage(a.keys.Sync.Help().Key))
		} else {
			content = a.gameList.View()
		}

	case ViewDetail:
		if a.loadingDetail {
			content = renderCentered(a.width, bodyHeight, renderMuted(MsgLoadingDetail))
		} else {
			content = a.viewport.View()
		}

	case ViewSearch:
		inputWidth := a.width - 8
		if inputWidth < 10 {
			inputWidth = max(a.width-4, 1)
		}
		a.searchInput.Width = inputWidth

		var hint string
		switch {
		case a.searchInput.Focused():
			hint = "Type to search • Tab/↓: results • Esc: back"
		case len(a.searchList.Items()) > 0:
			hint = "↑↓: navigate • Enter: open • Tab: search box • Esc: back"
		default:
			hint = "No results • Tab: search box • Esc: back"
		}

		content = lipgloss.NewStyle().
			Width(a.width).
			Height(bodyHeight).
			MaxHeight(bodyHeight).
			Render(lipgloss.JoinVertical(
				lipgloss.Top,
				renderHeader("› search", a.width),
				"",
				renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), inputWidth),
				HelpStyle.Render(hint),
				"",
				a.searchList.View(),
			))
	}

	separator := SeparatorStyle.Render(strings.Repeat("─", max(a.width-1, 0)))
	return lipgloss.JoinVertical(lipgloss.Top, content, separator, a.statusBar())
}

func (a *App) statusBar() string {
	style := lipgloss.NewStyle().Width(a.width).Padding(0, 1)

	if a.err != nil {
		return style.Render(StatusErrorStyle.Render(fmt.Sprintf("✗ %v", a.err)))
	}
	if a.status != "" {
		return style.Render(a.statusKind.style().Render(a.status))
	}
	return style.Render(a.help.View(a.keys.forView(a.view)))
}

type gameItem struct {
	game  *storage.Game
	score float64
}

func (i gameItem) Title() string {
	if i.game.Installed {
		return InstalledItemStyle.Render("● " + i.game.Name)
	}
	if i.game.Downloading {
		progress := ""
		if i.game.DownloadProgress != nil {
			progress = fmt.Sprintf(" %.0f%%", *i.game.DownloadProgress)
		}
		return GameItemStyle.Render("↓ "+i.game.Name) + renderMuted(progress)
	}
	return GameItemStyle.Render("  " + i.game.Name)
}

func (i gameItem) Description() string {
	genres := i.game.Genres
	if len(genres) > 3 {
		genres = genres[:3]
	}
	desc := joinNonEmpty(" • ",
		library.PlatformTitle(i.game.Platform),
		formatPlaytime(i.game.Playtime),
		strings.Join(genres, ", "),
	)
	if i.score > 0 {
		desc += fmt.Sprintf(" • score %.1f", i.score)
	}
	return renderMuted(desc)
}

func (i gameItem) FilterValue() string {
	return i.game.Name + " " + i.game.Developer
}
