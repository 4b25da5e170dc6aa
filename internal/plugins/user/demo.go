package user

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pders01/gamelib/internal/storage"
)

//go:embed demo_games.yaml
var defaultFixtures []byte

// DemoPriority ranks fixture sources below every live source.
const DemoPriority = 10

type fixtureFile struct {
	Games []fixtureGame `yaml:"games"`
}

type fixtureGame struct {
	Platform         string                `yaml:"platform"`
	ExternalID       string                `yaml:"external_id"`
	Name             string                `yaml:"name"`
	CoverImage       string                `yaml:"cover_image"`
	HeaderImage      string                `yaml:"header_image"`
	Description      string                `yaml:"description"`
	Genres           []string              `yaml:"genres"`
	Categories       []string              `yaml:"categories"`
	Developer        string                `yaml:"developer"`
	Publisher        string                `yaml:"publisher"`
	ReleaseDate      string                `yaml:"release_date"`
	Playtime         int                   `yaml:"playtime"`
	LastPlayed       string                `yaml:"last_played"`
	Installed        bool                  `yaml:"installed"`
	Downloading      bool                  `yaml:"downloading"`
	DownloadProgress *float64              `yaml:"download_progress"`
	FileSize         *int64                `yaml:"file_size"`
	Platforms        storage.OSSupport     `yaml:"platforms"`
	Price            *storage.Price        `yaml:"price"`
	UserRating       *float64              `yaml:"user_rating"`
	MetacriticScore  *int                  `yaml:"metacritic_score"`
	Achievements     *storage.Achievements `yaml:"achievements"`
	Features         []string              `yaml:"features"`
	Tags             []string              `yaml:"tags"`
}

func (f fixtureGame) game() (*storage.Game, error) {
	if f.Platform == "" || f.ExternalID == "" || f.Name == "" {
		return nil, fmt.Errorf("fixture %q: platform, external_id and name are required", f.Name)
	}

	g := &storage.Game{
		ID:               storage.GameID(f.Platform, f.ExternalID),
		ExternalID:       f.ExternalID,
		Name:             f.Name,
		Platform:         f.Platform,
		CoverImage:       f.CoverImage,
		HeaderImage:      f.HeaderImage,
		Description:      f.Description,
		Genres:           cloneStrings(f.Genres),
		Categories:       cloneStrings(f.Categories),
		Developer:        f.Developer,
		Publisher:        f.Publisher,
		ReleaseDate:      f.ReleaseDate,
		Playtime:         f.Playtime,
		Installed:        f.Installed,
		Downloading:      f.Downloading,
		DownloadProgress: clonePtr(f.DownloadProgress),
		FileSize:         clonePtr(f.FileSize),
		Platforms:        f.Platforms,
		Price:            clonePtr(f.Price),
		UserRating:       clonePtr(f.UserRating),
		MetacriticScore:  clonePtr(f.MetacriticScore),
		Achievements:     clonePtr(f.Achievements),
		Features:         cloneStrings(f.Features),
		Tags:             cloneStrings(f.Tags),
	}
	if g.Developer == "" {
		g.Developer = "Unknown"
	}
	if g.Publisher == "" {
		g.Publisher = "Unknown"
	}
	if f.LastPlayed != "" {
		t, err := time.Parse(time.RFC3339, f.LastPlayed)
		if err != nil {
			return nil, fmt.Errorf("fixture %q: last_played: %w", f.Name, err)
		}
		g.LastPlayed = &t
	}
	return g, nil
}

func cloneStrings(s []string) []string {
	return append([]string{}, s...)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// DemoSource serves a fixed library for one platform.
type DemoSource struct {
	platform string
	fixtures []fixtureGame
}

func (d *DemoSource) Name() string     { return "Demo " + platformTitle(d.platform) }
func (d *DemoSource) Platform() string { return d.platform }
func (d *DemoSource) Priority() int    { return DemoPriority }

// Library returns fresh copies of the fixtures on every call.
func (d *DemoSource) Library(ctx context.Context) ([]*storage.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	games := make([]*storage.Game, 0, len(d.fixtures))
	for _, f := range d.fixtures {
		g, err := f.game()
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, nil
}

func platformTitle(p string) string {
	switch p {
	case "gog":
		return "GOG"
	case "uplay":
		return "Uplay"
	case "":
		return ""
	default:
		return strings.ToUpper(p[:1]) + p[1:]
	}
}

// LoadDemoSources parses a fixture file into one source per platform,
// ordered by platform. An empty path selects the built-in fixtures.
func LoadDemoSources(path string) ([]*DemoSource, error) {
	data := defaultFixtures
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read demo fixtures: %w", err)
		}
	}
	return ParseDemoSources(data)
}

func ParseDemoSources(data []byte) ([]*DemoSource, error) {
	var file fixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse demo fixtures: %w", err)
	}

	byPlatform := make(map[string]*DemoSource)
	seen := make(map[string]bool)
	for _, f := range file.Games {
		// validate eagerly so a broken file fails at startup
		g, err := f.game()
		if err != nil {
			return nil, err
		}
		if seen[g.ID] {
			return nil, fmt.Errorf("duplicate demo game %s", g.ID)
		}
		seen[g.ID] = true

		src, ok := byPlatform[f.Platform]
		if !ok {
			src = &DemoSource{platform: f.Platform}
			byPlatform[f.Platform] = src
		}
		src.fixtures = append(src.fixtures, f)
	}

	sources := make([]*DemoSource, 0, len(byPlatform))
	for _, src := range byPlatform {
		sources = append(sources, src)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].platform < sources[j].platform })
	return sources, nil
}
