package storage

import (
	"errors"
	"time"
)

// Game is a display-ready library record. For catalog games it merges the
// ownership entry with the per-item detail lookup.
// FileSize is in megabytes.
type Game struct {
	ID               string        `json:"id"`
	ExternalID       string        `json:"externalId"`
	Name             string        `json:"name"`
	Platform         string        `json:"platform"`
	CoverImage       string        `json:"coverImage"`
	HeaderImage      string        `json:"headerImage"`
	Description      string        `json:"description"`
	Genres           []string      `json:"genres"`
	Categories       []string      `json:"categories"`
	Developer        string        `json:"developer"`
	Publisher        string        `json:"publisher"`
	ReleaseDate      string        `json:"releaseDate"`
	Playtime         int           `json:"playtime"`
	LastPlayed       *time.Time    `json:"lastPlayed,omitempty"`
	Installed        bool          `json:"installed"`
	Downloading      bool          `json:"downloading"`
	DownloadProgress *float64      `json:"downloadProgress,omitempty"`
	FileSize         *int64        `json:"fileSize,omitempty"`
	Platforms        OSSupport     `json:"platforms"`
	Price            *Price        `json:"price,omitempty"`
	UserRating       *float64      `json:"userRating,omitempty"`
	MetacriticScore  *int          `json:"metacriticScore,omitempty"`
	Achievements     *Achievements `json:"achievements,omitempty"`
	Features         []string      `json:"features"`
	Tags             []string      `json:"tags"`
}

type OSSupport struct {
	Windows bool `json:"windows"`
	Mac     bool `json:"mac"`
	Linux   bool `json:"linux"`
}

// Price amounts are in cents.
type Price struct {
	Current   int    `json:"current"`
	Original  int    `json:"original"`
	Discount  int    `json:"discount"`
	Formatted string `json:"formatted"`
}

type Achievements struct {
	Total    int `json:"total"`
	Unlocked int `json:"unlocked"`
}

// GameID builds the library id for a platform game.
func GameID(platform, externalID string) string {
	return platform + "-" + externalID
}

// InstallState is the locally tracked state of a game, keyed by game id.
type InstallState struct {
	Installed            bool      `json:"installed"`
	Downloading          bool      `json:"downloading"`
	DownloadProgress     *float64  `json:"downloadProgress,omitempty"`
	FileSize             *int64    `json:"fileSize,omitempty"`
	UserRating           *float64  `json:"userRating,omitempty"`
	AchievementsUnlocked int       `json:"achievementsUnlocked"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// Validate rejects out of range values and contradictory flags.
func (s InstallState) Validate() error {
	if s.DownloadProgress != nil && (*s.DownloadProgress < 0 || *s.DownloadProgress > 100) {
		return errors.New("downloadProgress must be between 0 and 100")
	}
	if s.UserRating != nil && (*s.UserRating < 0 || *s.UserRating > 10) {
		return errors.New("userRating must be between 0 and 10")
	}
	if s.FileSize != nil && *s.FileSize < 0 {
		return errors.New("fileSize must not be negative")
	}
	if s.AchievementsUnlocked < 0 {
		return errors.New("achievementsUnlocked must not be negative")
	}
	if s.Installed && s.Downloading {
		return errors.New("a game cannot be installed and downloading")
	}
	return nil
}

// Apply copies the tracked fields onto g.
func (s InstallState) Apply(g *Game) {
	g.Installed = s.Installed
	g.Downloading = s.Downloading
	g.DownloadProgress = s.DownloadProgress
	g.FileSize = s.FileSize
	g.UserRating = s.UserRating
	if g.Achievements != nil {
		unlocked := s.AchievementsUnlocked
		if unlocked > g.Achievements.Total {
			unlocked = g.Achievements.Total
		}
		g.Achievements.Unlocked = unlocked
	}
}

type SyncRecord struct {
	RunID      string    `json:"runId"`
	Platform   string    `json:"platform"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Games      int       `json:"games"`
	Err        string    `json:"err,omitempty"`
}
