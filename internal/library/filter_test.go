package library

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/gamelib/internal/plugins/user"
	"github.com/pders01/gamelib/internal/storage"
)

func demoGames(t *testing.T) []*storage.Game {
	t.Helper()
	sources, err := user.LoadDemoSources("")
	require.NoError(t, err)

	var games []*storage.Game
	for _, s := range sources {
		lib, err := s.Library(context.Background())
		require.NoError(t, err)
		games = append(games, lib...)
	}
	require.Len(t, games, 10)
	return games
}

func names(games []*storage.Game) []string {
	out := make([]string, len(games))
	for i, g := range games {
		out[i] = g.Name
	}
	return out
}

func boolPtr(b bool) *bool { return &b }

func TestFilterApply(t *testing.T) {
	games := demoGames(t)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{
			name:   "search is case insensitive",
			filter: Filter{Search: "WITCHER"},
			want:   []string{"The Witcher 3: Wild Hunt", "The Witcher 3: Wild Hunt GOTY"},
		},
		{
			name:   "platform",
			filter: Filter{Platforms: []string{"GOG"}},
			want:   []string{"Disco Elysium - The Final Cut", "The Witcher 3: Wild Hunt GOTY"},
		},
		{
			name:   "genre and installed sorted by playtime",
			filter: Filter{Genres: []string{"rpg"}, Installed: boolPtr(true), SortBy: SortPlaytime, SortOrder: Desc},
			want: []string{
				"The Witcher 3: Wild Hunt GOTY",
				"The Witcher 3: Wild Hunt",
				"Cyberpunk 2077",
				"Disco Elysium - The Final Cut",
			},
		},
		{
			name:   "downloading",
			filter: Filter{Downloading: boolPtr(true)},
			want:   []string{"Hades"},
		},
		{
			name:   "category",
			filter: Filter{Categories: []string{"DRM-Free"}, SortBy: SortReleaseDate},
			want:   []string{"The Witcher 3: Wild Hunt GOTY", "Disco Elysium - The Final Cut"},
		},
		{
			name:   "feature",
			filter: Filter{Features: []string{"Photo Mode"}},
			want:   []string{"Assassin's Creed Valhalla"},
		},
		{
			name:   "no match",
			filter: Filter{Search: "zelda"},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(tt.filter.Apply(games)))
		})
	}
}

func TestFilterSorting(t *testing.T) {
	games := demoGames(t)

	first := func(f Filter) string { return f.Apply(games)[0].Name }
	last := func(f Filter) string {
		out := f.Apply(games)
		return out[len(out)-1].Name
	}

	assert.Equal(t, "Assassin's Creed Valhalla", first(Filter{}))
	assert.Equal(t, "The Witcher 3: Wild Hunt GOTY", first(Filter{SortOrder: Desc}))
	assert.Equal(t, "Hades", first(Filter{SortBy: SortFileSize}))
	assert.Equal(t, "Red Dead Redemption 2", first(Filter{SortBy: SortFileSize, SortOrder: Desc}))
	assert.Equal(t, "The Witcher 3: Wild Hunt", first(Filter{SortBy: SortReleaseDate}))
	assert.Equal(t, "Fortnite", first(Filter{SortBy: SortLastPlayed, SortOrder: Desc}))
	// never played sorts as oldest
	assert.Equal(t, "Control", first(Filter{SortBy: SortLastPlayed}))
	assert.Equal(t, "Battlefield 2042", first(Filter{SortBy: SortRating}))
	assert.Equal(t, "The Witcher 3: Wild Hunt GOTY", last(Filter{SortBy: SortPlaytime}))
}

func TestFilterApplyKeepsInput(t *testing.T) {
	games := demoGames(t)
	before := names(games)

	Filter{SortBy: SortPlaytime}.Apply(games)
	assert.Equal(t, before, names(games))
}

func TestFilterGroup(t *testing.T) {
	games := Filter{}.Apply(demoGames(t))

	groups := Filter{}.Group(games)
	require.Len(t, groups, 1)
	assert.Equal(t, "All Games", groups[0].Name)
	assert.Len(t, groups[0].Games, 10)

	groups = Filter{GroupBy: GroupInstalled}.Group(games)
	require.Len(t, groups, 2)
	assert.Equal(t, "Not Installed", groups[0].Name)
	assert.Len(t, groups[0].Games, 3)
	assert.Equal(t, "Installed", groups[1].Name)
	assert.Len(t, groups[1].Games, 7)

	groups = Filter{GroupBy: GroupPlatform}.Group(games)
	var platformNames []string
	for _, g := range groups {
		platformNames = append(platformNames, g.Name)
	}
	assert.ElementsMatch(t, []string{"Steam", "Epic", "GOG", "Origin", "Uplay"}, platformNames)

	groups = Filter{GroupBy: GroupGenre}.Group([]*storage.Game{{Name: "Untagged"}})
	require.Len(t, groups, 1)
	assert.Equal(t, "Unknown", groups[0].Name)

	groups = Filter{GroupBy: GroupFeatures}.Group([]*storage.Game{{Name: "Bare"}})
	assert.Equal(t, "No Features", groups[0].Name)

	groups = Filter{GroupBy: GroupCategory}.Group([]*storage.Game{{Name: "Bare", Categories: []string{"Single-player"}}})
	assert.Equal(t, "Single-player", groups[0].Name)
}

func TestParseOptions(t *testing.T) {
	s, err := ParseSortBy("LASTPLAYED")
	require.NoError(t, err)
	assert.Equal(t, SortLastPlayed, s)

	s, err = ParseSortBy("")
	require.NoError(t, err)
	assert.Equal(t, SortName, s)

	_, err = ParseSortBy("price")
	assert.Error(t, err)

	o, err := ParseSortOrder("DESC")
	require.NoError(t, err)
	assert.Equal(t, Desc, o)

	_, err = ParseSortOrder("up")
	assert.Error(t, err)

	g, err := ParseGroupBy("features")
	require.NoError(t, err)
	assert.Equal(t, GroupFeatures, g)

	_, err = ParseGroupBy("decade")
	assert.Error(t, err)
}

func TestSortByNext(t *testing.T) {
	s := SortName
	seen := map[SortBy]bool{}
	for range SortOptions {
		seen[s] = true
		s = s.Next()
	}
	assert.Equal(t, SortName, s)
	assert.Len(t, seen, len(SortOptions))
	assert.Equal(t, SortName, SortBy("bogus").Next())
}

func TestReleaseTime(t *testing.T) {
	tests := []struct {
		in   string
		year int
	}{
		{"2020-12-10", 2020},
		{"10 Dec, 2020", 2020},
		{"Dec 10, 2020", 2020},
		{"Dec 2020", 2020},
		{"2019", 2019},
		{"Coming soon", 1},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.year, ReleaseTime(tt.in).Year())
		})
	}
}
