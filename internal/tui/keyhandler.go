package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/gamelib/internal/config"
	"github.com/pders01/gamelib/internal/storage"
)

const maxSearchLength = 256

type keyMap struct {
	Quit          key.Binding
	Back          key.Binding
	Open          key.Binding
	Search        key.Binding
	Sync          key.Binding
	Launch        key.Binding
	CycleSort     key.Binding
	InstalledOnly key.Binding
	Help          key.Binding

	view View
}

// modified joins the configured modifier with k. An empty modifier leaves
// the key bare.
func modified(modifier, k string) string {
	if modifier == "" {
		return k
	}
	return modifier + "+" + k
}

func newKeyMap(cfg config.KeyConfig) keyMap {
	b := cfg.Bindings
	bind := func(k, help string) key.Binding {
		return key.NewBinding(key.WithKeys(k), key.WithHelp(k, help))
	}
	withMod := func(k, help string) key.Binding {
		return bind(modified(cfg.Modifier, k), help)
	}

	return keyMap{
		Quit:          key.NewBinding(key.WithKeys(b.Quit, "ctrl+c"), key.WithHelp(b.Quit, "quit")),
		Back:          bind(b.Back, "back"),
		Open:          bind("enter", "details"),
		Search:        withMod(b.Search, "search"),
		Sync:          withMod(b.Sync, "sync"),
		Launch:        withMod(b.Launch, "launch"),
		CycleSort:     withMod(b.CycleSort, "sort"),
		InstalledOnly: withMod(b.InstalledOnly, "installed"),
		Help:          bind(b.Help, "more"),
	}
}

func (k keyMap) forView(v View) keyMap {
	k.view = v
	return k
}

func (k keyMap) ShortHelp() []key.Binding {
	switch k.view {
	case ViewDetail:
		return []key.Binding{k.Launch, k.Search, k.Back}
	case ViewSearch:
		return []key.Binding{k.Open, k.Back}
	default:
		return []key.Binding{k.Open, k.Launch, k.Sync, k.Search, k.CycleSort, k.InstalledOnly, k.Help}
	}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Open, k.Back, k.Quit},
		{k.Launch, k.Sync, k.Search},
		{k.CycleSort, k.InstalledOnly, k.Help},
	}
}

type KeyHandler struct {
	app *App
}

func NewKeyHandler(app *App) *KeyHandler {
	return &KeyHandler{app: app}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(msg); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

// isInTextInputMode reports whether typed characters belong to an input,
// either the search box or the library list's filter prompt.
func (kh *KeyHandler) isInTextInputMode() bool {
	switch kh.app.view {
	case ViewSearch:
		return kh.app.searchInput.Focused()
	case ViewLibrary:
		return kh.app.gameList.FilterState() == list.Filtering
	default:
		return false
	}
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	if a.view == ViewLibrary {
		var cmd tea.Cmd
		a.gameList, cmd = a.gameList.Update(msg)
		return a, cmd
	}

	switch msg.String() {
	case "esc":
		return kh.navigateBack()
	case "enter":
		if items := a.searchList.Items(); len(items) > 0 {
			if i, ok := items[0].(gameItem); ok {
				return kh.openDetail(i, true)
			}
		}
		return a, nil
	case "tab", "down":
		if len(a.searchList.Items()) > 0 {
			a.searchInput.Blur()
			a.searchList.Select(0)
		}
		return a, nil
	default:
		return kh.delegateToSearchInput(msg)
	}
}

// delegateToSearchInput updates the search box and schedules a debounced
// search when the query changed.
func (kh *KeyHandler) delegateToSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	prev := sanitizeSearchInput(a.searchInput.Value())

	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)

	if sanitizeSearchInput(a.searchInput.Value()) == prev {
		return a, cmd
	}
	a.searchSeq++
	seq := a.searchSeq
	return a, tea.Batch(cmd, tea.Tick(searchDebounce, func(time.Time) tea.Msg {
		return searchDebounceMsg{seq: seq}
	}))
}

func (kh *KeyHandler) handleCustomKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	keys := a.keys

	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit, true
	case key.Matches(msg, keys.Back):
		model, cmd := kh.navigateBack()
		return model, cmd, true
	case key.Matches(msg, keys.Search):
		model, cmd := kh.enterSearchMode()
		return model, cmd, true
	case key.Matches(msg, keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		return a, nil, true
	}

	switch a.view {
	case ViewLibrary:
		return kh.handleLibraryKeys(msg)
	case ViewDetail:
		if key.Matches(msg, keys.Launch) {
			return a, kh.launch(a.currentGame), true
		}
	}
	return a, nil, false
}

func (kh *KeyHandler) handleLibraryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	keys := a.keys

	switch {
	case key.Matches(msg, keys.Sync):
		if a.syncing {
			a.setStatus(MsgSyncBusy, StatusWarn)
			return a, nil, true
		}
		a.syncing = true
		a.setStatus(MsgSyncing, StatusInfo)
		return a, a.syncAll(), true

	case key.Matches(msg, keys.Launch):
		i, ok := a.gameList.SelectedItem().(gameItem)
		if !ok {
			a.setStatus(MsgNoSelection, StatusWarn)
			return a, nil, true
		}
		return a, kh.launch(i.game), true

	case key.Matches(msg, keys.CycleSort):
		a.filter.SortBy = a.filter.SortBy.Next()
		return a, a.loadGames(), true

	case key.Matches(msg, keys.InstalledOnly):
		if a.filter.Installed == nil {
			installed := true
			a.filter.Installed = &installed
		} else {
			a.filter.Installed = nil
		}
		return a, a.loadGames(), true
	}
	return a, nil, false
}

// delegateToCharm lets the bubbles components handle keys we don't intercept.
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	var cmd tea.Cmd

	switch a.view {
	case ViewLibrary:
		if key.Matches(msg, a.keys.Open) {
			if i, ok := a.gameList.SelectedItem().(gameItem); ok {
				return kh.openDetail(i, false)
			}
			return a, nil
		}
		a.gameList, cmd = a.gameList.Update(msg)
		return a, cmd

	case ViewSearch:
		switch msg.String() {
		case "tab", "shift+tab", "/":
			a.searchInput.Focus()
			return a, nil
		case "up":
			if a.searchList.Index() == 0 {
				a.searchInput.Focus()
				return a, nil
			}
		case "enter":
			if i, ok := a.searchList.SelectedItem().(gameItem); ok {
				return kh.openDetail(i, true)
			}
			return a, nil
		}
		a.searchList, cmd = a.searchList.Update(msg)
		return a, cmd

	case ViewDetail:
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (kh *KeyHandler) openDetail(item gameItem, fromSearch bool) (tea.Model, tea.Cmd) {
	a := kh.app
	if item.game == nil {
		return a, nil
	}
	a.currentGame = item.game
	a.cameFromSearch = fromSearch
	a.loadingDetail = true
	a.setStatus(MsgLoadingDetail, StatusInfo)
	a.view = ViewDetail

	r, err := a.getRenderer()
	if err != nil {
		a.loadingDetail = false
		a.err = actionErr("renderer", err)
		return a, nil
	}
	return a, a.renderDetail(item.game, r)
}

func (kh *KeyHandler) launch(game *storage.Game) tea.Cmd {
	if game == nil {
		return nil
	}
	return kh.app.launchGame(game)
}

func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	a := kh.app
	switch a.view {
	case ViewSearch:
		a.view = a.previousView
		if a.view == ViewSearch {
			a.view = ViewLibrary
		}
		a.searchSeq++
		a.searchInput.Reset()
		a.searchInput.Blur()
		a.searchList.SetItems([]list.Item{})
		a.setStatus("", StatusInfo)
		return a, nil

	case ViewDetail:
		a.loadingDetail = false
		if a.cameFromSearch {
			a.view = ViewSearch
			a.cameFromSearch = false
			a.searchInput.Blur()
			return a, nil
		}
		a.view = ViewLibrary
		return a, nil

	default:
		if a.err != nil || a.status != "" {
			a.err = nil
			a.setStatus("", StatusInfo)
			return a, nil
		}
		if a.filter.Installed != nil {
			a.filter.Installed = nil
			return a, a.loadGames()
		}
		return a, nil
	}
}

func (kh *KeyHandler) enterSearchMode() (tea.Model, tea.Cmd) {
	a := kh.app
	if a.view != ViewSearch {
		a.previousView = a.view
	}
	a.view = ViewSearch
	a.cameFromSearch = false
	a.searchSeq++
	a.searchInput.Reset()
	a.searchList.SetItems([]list.Item{})
	a.setStatus("", StatusInfo)
	return a, a.searchInput.Focus()
}

// sanitizeSearchInput collapses whitespace and limits the query length.
func sanitizeSearchInput(input string) string {
	input = strings.Join(strings.Fields(input), " ")
	if r := []rune(input); len(r) > maxSearchLength {
		input = string(r[:maxSearchLength])
	}
	return input
}
