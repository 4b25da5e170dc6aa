package launch

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/pders01/gamelib/internal/config"
	"github.com/pders01/gamelib/internal/debuglog"
	"github.com/pders01/gamelib/internal/storage"
)

//go:embed launchers.toml
var launchersTOML []byte

var ErrUnsupportedPlatform = errors.New("no launcher for platform")

// Definition holds the URI templates of one platform client.
type Definition struct {
	Description string `toml:"description"`
	Launch      string `toml:"launch"`
	Install     string `toml:"install"`
	Store       string `toml:"store"`
}

type launchersFile struct {
	Launchers map[string]Definition `toml:"launchers"`
}

// Action selects which template of a Definition to expand.
type Action int

const (
	ActionLaunch Action = iota
	ActionInstall
	ActionStore
)

func (a Action) String() string {
	switch a {
	case ActionInstall:
		return "install"
	case ActionStore:
		return "store"
	default:
		return "launch"
	}
}

// Runner starts an external command without waiting for it to exit.
type Runner func(name string, args ...string) error

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

type Launcher struct {
	opener      string
	definitions map[string]Definition
	run         Runner
}

type Option func(*Launcher)

// WithRunner replaces the process starter.
func WithRunner(r Runner) Option {
	return func(l *Launcher) { l.run = r }
}

// NewLauncher loads the built-in templates and merges the optional user file
// named in cfg.Launch.Launchers over them.
func NewLauncher(cfg *config.Config, opts ...Option) (*Launcher, error) {
	defs, err := parseDefinitions(launchersTOML)
	if err != nil {
		return nil, fmt.Errorf("parsing built-in launchers: %w", err)
	}

	if path := cfg.Launch.Launchers; path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			user, err := parseDefinitions(data)
			if err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
			for name, def := range user {
				defs[name] = mergeDefinition(defs[name], def)
			}
		case !errors.Is(err, os.ErrNotExist):
			debuglog.Warnf("reading launchers file %s: %v", path, err)
		}
	}

	l := &Launcher{
		opener:      cfg.Launch.DefaultOpener,
		definitions: defs,
		run:         startDetached,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func parseDefinitions(data []byte) (map[string]Definition, error) {
	var f launchersFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Launchers == nil {
		f.Launchers = make(map[string]Definition)
	}
	return f.Launchers, nil
}

func mergeDefinition(base, over Definition) Definition {
	if over.Description != "" {
		base.Description = over.Description
	}
	if over.Launch != "" {
		base.Launch = over.Launch
	}
	if over.Install != "" {
		base.Install = over.Install
	}
	if over.Store != "" {
		base.Store = over.Store
	}
	return base
}

// Platforms returns the platforms with a definition, sorted.
func (l *Launcher) Platforms() []string {
	out := make([]string, 0, len(l.definitions))
	for p := range l.definitions {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// URI expands the template for action with the game's external id.
func (l *Launcher) URI(game *storage.Game, action Action) (string, error) {
	def, ok := l.definitions[game.Platform]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnsupportedPlatform, game.Platform)
	}

	var tmpl string
	switch action {
	case ActionInstall:
		tmpl = def.Install
	case ActionStore:
		tmpl = def.Store
	default:
		tmpl = def.Launch
	}
	if tmpl == "" {
		return "", fmt.Errorf("%w %q: no %s template", ErrUnsupportedPlatform, game.Platform, action)
	}
	if game.ExternalID == "" {
		return "", fmt.Errorf("game %s has no external id", game.ID)
	}
	return strings.ReplaceAll(tmpl, "{id}", url.PathEscape(game.ExternalID)), nil
}

func (l *Launcher) Launch(game *storage.Game) error {
	return l.open(game, ActionLaunch)
}

func (l *Launcher) Install(game *storage.Game) error {
	return l.open(game, ActionInstall)
}

func (l *Launcher) OpenStore(game *storage.Game) error {
	return l.open(game, ActionStore)
}

func (l *Launcher) open(game *storage.Game, action Action) error {
	uri, err := l.URI(game, action)
	if err != nil {
		return err
	}

	name, args := openerCommand(l.opener, uri)
	if name == "" {
		return fmt.Errorf("no application found to open %s", uri)
	}

	debuglog.WithFields(map[string]any{"game": game.ID, "action": action.String()}).Infof("opening %s", uri)
	if err := l.run(name, args...); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	return nil
}

// openerCommand turns the configured opener into an executable invocation.
// "start" is a cmd.exe builtin and needs the shell.
func openerCommand(opener, uri string) (string, []string) {
	if opener == "" {
		opener = defaultOpener()
	}
	if opener == "start" {
		return "cmd", []string{"/c", "start", "", uri}
	}
	fields := strings.Fields(opener)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], append(fields[1:], uri)
}

func defaultOpener() string {
	switch runtime.GOOS {
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}
