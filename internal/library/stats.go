package library

import (
	"sort"

	"github.com/pders01/gamelib/internal/storage"
)

const highlightCount = 5

type AchievementProgress struct {
	Total      int     `json:"total"`
	Unlocked   int     `json:"unlocked"`
	Percentage float64 `json:"percentage"`
}

// Stats summarises a library. Playtime is in minutes and LibraryValue in cents.
type Stats struct {
	TotalGames           int                 `json:"totalGames"`
	TotalPlaytime        int                 `json:"totalPlaytime"`
	InstalledGames       int                 `json:"installedGames"`
	RecentlyPlayed       []*storage.Game     `json:"recentlyPlayed"`
	MostPlayed           []*storage.Game     `json:"mostPlayed"`
	LibraryValue         int                 `json:"libraryValue"`
	AchievementProgress  AchievementProgress `json:"achievementProgress"`
	PlatformDistribution map[string]int      `json:"platformDistribution"`
	GenreDistribution    map[string]int      `json:"genreDistribution"`
}

func ComputeStats(games []*storage.Game) Stats {
	s := Stats{
		TotalGames:           len(games),
		RecentlyPlayed:       []*storage.Game{},
		MostPlayed:           []*storage.Game{},
		PlatformDistribution: make(map[string]int),
		GenreDistribution:    make(map[string]int),
	}

	var played []*storage.Game
	for _, g := range games {
		s.TotalPlaytime += g.Playtime
		if g.Installed {
			s.InstalledGames++
		}
		if g.Price != nil {
			s.LibraryValue += g.Price.Current
		}
		if g.Achievements != nil {
			s.AchievementProgress.Total += g.Achievements.Total
			s.AchievementProgress.Unlocked += g.Achievements.Unlocked
		}
		s.PlatformDistribution[g.Platform]++
		for _, genre := range g.Genres {
			s.GenreDistribution[genre]++
		}
		if g.LastPlayed != nil {
			played = append(played, g)
		}
	}

	if s.AchievementProgress.Total > 0 {
		s.AchievementProgress.Percentage =
			float64(s.AchievementProgress.Unlocked) / float64(s.AchievementProgress.Total) * 100
	}

	sort.SliceStable(played, func(i, j int) bool {
		return played[i].LastPlayed.After(*played[j].LastPlayed)
	})
	s.RecentlyPlayed = append(s.RecentlyPlayed, head(played, highlightCount)...)

	byPlaytime := make([]*storage.Game, 0, len(games))
	for _, g := range games {
		if g.Playtime > 0 {
			byPlaytime = append(byPlaytime, g)
		}
	}
	sort.SliceStable(byPlaytime, func(i, j int) bool {
		return byPlaytime[i].Playtime > byPlaytime[j].Playtime
	})
	s.MostPlayed = append(s.MostPlayed, head(byPlaytime, highlightCount)...)

	return s
}

func head(games []*storage.Game, n int) []*storage.Game {
	if len(games) > n {
		return games[:n]
	}
	return games
}

// TopGenres returns up to n genres by descending count, ties by name.
func (s Stats) TopGenres(n int) []string {
	genres := make([]string, 0, len(s.GenreDistribution))
	for g := range s.GenreDistribution {
		genres = append(genres, g)
	}
	sort.Slice(genres, func(i, j int) bool {
		ci, cj := s.GenreDistribution[genres[i]], s.GenreDistribution[genres[j]]
		if ci != cj {
			return ci > cj
		}
		return genres[i] < genres[j]
	})
	if n > 0 && len(genres) > n {
		genres = genres[:n]
	}
	return genres
}
