package catalog

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pders01/gamelib/internal/storage"
)

// enhance merges an owned item with its detail record. Missing detail
// fields fall back to empty lists, "Unknown" and Windows-only support.
func (c *Client) enhance(item OwnedItem, detail ItemDetail) *storage.Game {
	externalID := item.ExternalID()
	images := strings.NewReplacer("{id}", externalID, "{icon}", item.ImgIconURL)

	game := &storage.Game{
		ID:          storage.GameID(Platform, externalID),
		ExternalID:  externalID,
		Name:        item.Name,
		Platform:    Platform,
		CoverImage:  images.Replace(c.cfg.CoverImageURL),
		HeaderImage: images.Replace(c.cfg.HeaderImageURL),
		Genres:      []string{},
		Categories:  []string{},
		Developer:   "Unknown",
		Publisher:   "Unknown",
		Playtime:    item.PlaytimeForever,
		Platforms:   storage.OSSupport{Windows: true},
		Features:    []string{},
		Tags:        []string{},
	}
	if item.RtimeLastPlayed > 0 {
		last := time.Unix(item.RtimeLastPlayed, 0).UTC()
		game.LastPlayed = &last
	}

	if d := detail.Data; detail.Success && d != nil {
		if d.HeaderImage != "" {
			game.HeaderImage = d.HeaderImage
		}
		game.Description = d.ShortDescription
		for _, g := range d.Genres {
			game.Genres = append(game.Genres, g.Description)
		}
		for _, cat := range d.Categories {
			game.Categories = append(game.Categories, cat.Description)
		}
		if len(d.Developers) > 0 {
			game.Developer = d.Developers[0]
		}
		if len(d.Publishers) > 0 {
			game.Publisher = d.Publishers[0]
		}
		game.ReleaseDate = d.ReleaseDate.Date
		if d.Platforms != nil {
			game.Platforms = storage.OSSupport{
				Windows: d.Platforms.Windows,
				Mac:     d.Platforms.Mac,
				Linux:   d.Platforms.Linux,
			}
		}
		if p := d.PriceOverview; p != nil {
			game.Price = &storage.Price{
				Current:   p.Final,
				Original:  p.Initial,
				Discount:  p.DiscountPercent,
				Formatted: p.FinalFormatted,
			}
		}
		if d.Metacritic != nil {
			score := d.Metacritic.Score
			game.MetacriticScore = &score
		}
		if d.Achievements != nil {
			game.Achievements = &storage.Achievements{Total: d.Achievements.Total}
		}
	}

	game.Features = append(game.Features, game.Categories...)
	game.Tags = append(game.Tags, game.Genres...)

	c.applyInstallState(game)
	return game
}

func (c *Client) applyInstallState(game *storage.Game) {
	if c.installs == nil {
		return
	}
	state, err := c.installs.InstallState(game.ID)
	if err != nil {
		c.logger.Debug("install state lookup failed", zap.String("id", game.ID), zap.Error(err))
		return
	}
	if state != nil {
		state.Apply(game)
	}
}
