package library

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pders01/gamelib/internal/storage"
)

type SortBy string

const (
	SortName        SortBy = "name"
	SortPlaytime    SortBy = "playtime"
	SortLastPlayed  SortBy = "lastPlayed"
	SortReleaseDate SortBy = "releaseDate"
	SortFileSize    SortBy = "fileSize"
	SortRating      SortBy = "rating"
)

// SortOptions lists every sort key in the order the TUI cycles through them.
var SortOptions = []SortBy{SortName, SortPlaytime, SortLastPlayed, SortReleaseDate, SortFileSize, SortRating}

func ParseSortBy(s string) (SortBy, error) {
	if s == "" {
		return SortName, nil
	}
	for _, opt := range SortOptions {
		if strings.EqualFold(s, string(opt)) {
			return opt, nil
		}
	}
	return "", fmt.Errorf("unknown sort %q", s)
}

// Next returns the sort key after s, wrapping around.
func (s SortBy) Next() SortBy {
	for i, opt := range SortOptions {
		if opt == s {
			return SortOptions[(i+1)%len(SortOptions)]
		}
	}
	return SortName
}

type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(s) {
	case "", "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	}
	return "", fmt.Errorf("unknown sort order %q", s)
}

type GroupBy string

const (
	GroupNone      GroupBy = "none"
	GroupGenre     GroupBy = "genre"
	GroupCategory  GroupBy = "category"
	GroupPlatform  GroupBy = "platform"
	GroupInstalled GroupBy = "installed"
	GroupFeatures  GroupBy = "features"
)

func ParseGroupBy(s string) (GroupBy, error) {
	switch g := GroupBy(strings.ToLower(s)); g {
	case "":
		return GroupNone, nil
	case GroupNone, GroupGenre, GroupCategory, GroupPlatform, GroupInstalled, GroupFeatures:
		return g, nil
	}
	return "", fmt.Errorf("unknown grouping %q", s)
}

// Filter selects and orders games. Empty slices and nil pointers match everything.
type Filter struct {
	Search      string
	Platforms   []string
	Genres      []string
	Categories  []string
	Features    []string
	Installed   *bool
	Downloading *bool
	SortBy      SortBy
	SortOrder   SortOrder
	GroupBy     GroupBy
}

// Matches reports whether g passes every criterion of f.
func (f Filter) Matches(g *storage.Game) bool {
	if f.Search != "" && !strings.Contains(strings.ToLower(g.Name), strings.ToLower(f.Search)) {
		return false
	}
	if len(f.Platforms) > 0 && !containsFold(f.Platforms, g.Platform) {
		return false
	}
	if len(f.Genres) > 0 && !anyShared(f.Genres, g.Genres) {
		return false
	}
	if len(f.Categories) > 0 && !anyShared(f.Categories, g.Categories) {
		return false
	}
	if len(f.Features) > 0 && !anyShared(f.Features, g.Features) {
		return false
	}
	if f.Installed != nil && g.Installed != *f.Installed {
		return false
	}
	if f.Downloading != nil && g.Downloading != *f.Downloading {
		return false
	}
	return true
}

// Apply returns the matching games sorted by f. The input slice is not modified.
func (f Filter) Apply(games []*storage.Game) []*storage.Game {
	out := make([]*storage.Game, 0, len(games))
	for _, g := range games {
		if f.Matches(g) {
			out = append(out, g)
		}
	}

	less := lessFunc(f.SortBy)
	desc := f.SortOrder == Desc
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

func lessFunc(by SortBy) func(a, b *storage.Game) bool {
	switch by {
	case SortPlaytime:
		return func(a, b *storage.Game) bool { return a.Playtime < b.Playtime }
	case SortLastPlayed:
		return func(a, b *storage.Game) bool { return unix(a.LastPlayed) < unix(b.LastPlayed) }
	case SortReleaseDate:
		return func(a, b *storage.Game) bool {
			return ReleaseTime(a.ReleaseDate).Before(ReleaseTime(b.ReleaseDate))
		}
	case SortFileSize:
		return func(a, b *storage.Game) bool { return deref(a.FileSize) < deref(b.FileSize) }
	case SortRating:
		return func(a, b *storage.Game) bool { return deref(a.UserRating) < deref(b.UserRating) }
	default:
		return func(a, b *storage.Game) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	}
}

var releaseLayouts = []string{
	"2006-01-02",
	"2 Jan, 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"Jan 2006",
	"2006",
}

// ReleaseTime parses the release date formats the sources emit. Unknown
// formats sort as the zero time.
func ReleaseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range releaseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func unix(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.Unix()
}

func deref[T int64 | float64 | int](p *T) T {
	if p == nil {
		return 0
	}
	return *p
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func anyShared(want, have []string) bool {
	for _, h := range have {
		if containsFold(want, h) {
			return true
		}
	}
	return false
}

// Group is a named run of games in display order.
type Group struct {
	Name  string          `json:"name"`
	Games []*storage.Game `json:"games"`
}

// Group buckets games by f.GroupBy, keeping the order of first appearance
// for both groups and games.
func (f Filter) Group(games []*storage.Game) []Group {
	if f.GroupBy == "" || f.GroupBy == GroupNone {
		return []Group{{Name: "All Games", Games: games}}
	}

	var groups []Group
	index := make(map[string]int)
	for _, g := range games {
		key := groupKey(f.GroupBy, g)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Name: key})
		}
		groups[i].Games = append(groups[i].Games, g)
	}
	return groups
}

func groupKey(by GroupBy, g *storage.Game) string {
	switch by {
	case GroupPlatform:
		return PlatformTitle(g.Platform)
	case GroupGenre:
		return firstOr(g.Genres, "Unknown")
	case GroupCategory:
		return firstOr(g.Categories, "Uncategorized")
	case GroupInstalled:
		if g.Installed {
			return "Installed"
		}
		return "Not Installed"
	case GroupFeatures:
		return firstOr(g.Features, "No Features")
	default:
		return "All Games"
	}
}

func firstOr(s []string, fallback string) string {
	if len(s) == 0 || s[0] == "" {
		return fallback
	}
	return s[0]
}

// PlatformTitle renders a platform tag for headings.
func PlatformTitle(p string) string {
	switch p {
	case "":
		return "Other"
	case "gog":
		return "GOG"
	}
	return strings.ToUpper(p[:1]) + p[1:]
}
