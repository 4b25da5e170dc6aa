package catalog

import "strconv"

// Credentials configure access to the catalog API. ProxyBaseURL, when set,
// prefixes every request as {proxy}/{url}.
type Credentials struct {
	APIKey       string `json:"apiKey"`
	AccountID    string `json:"accountId"`
	ProxyBaseURL string `json:"proxyBaseUrl,omitempty"`
}

// OwnedItem is one entry of the ownership list as returned by the API.
type OwnedItem struct {
	AppID                    int64  `json:"appid"`
	Name                     string `json:"name"`
	PlaytimeForever          int    `json:"playtime_forever"`
	Playtime2Weeks           int    `json:"playtime_2weeks,omitempty"`
	ImgIconURL               string `json:"img_icon_url"`
	ImgLogoURL               string `json:"img_logo_url"`
	HasCommunityVisibleStats bool   `json:"has_community_visible_stats,omitempty"`
	RtimeLastPlayed          int64  `json:"rtime_last_played,omitempty"`
}

// ExternalID is the item identifier used for detail lookups and game ids.
func (o OwnedItem) ExternalID() string {
	return strconv.FormatInt(o.AppID, 10)
}

type OwnedItems struct {
	GameCount int         `json:"game_count"`
	Games     []OwnedItem `json:"games"`
}

type OwnedItemsResponse struct {
	Response OwnedItems `json:"response"`
}

// ItemDetail is the per-item lookup result. Failed lookups carry
// Success=false and no data.
type ItemDetail struct {
	Success bool        `json:"success"`
	Data    *DetailData `json:"data,omitempty"`
}

type DetailData struct {
	Type             string           `json:"type"`
	Name             string           `json:"name"`
	SteamAppID       int64            `json:"steam_appid"`
	IsFree           bool             `json:"is_free"`
	ShortDescription string           `json:"short_description"`
	HeaderImage      string           `json:"header_image"`
	Website          string           `json:"website"`
	Developers       []string         `json:"developers"`
	Publishers       []string         `json:"publishers"`
	PriceOverview    *PriceOverview   `json:"price_overview,omitempty"`
	Platforms        *PlatformSupport `json:"platforms,omitempty"`
	Categories       []Category       `json:"categories"`
	Genres           []Genre          `json:"genres"`
	Metacritic       *Metacritic      `json:"metacritic,omitempty"`
	Recommendations  *Recommendations `json:"recommendations,omitempty"`
	Achievements     *AchievementInfo `json:"achievements,omitempty"`
	ReleaseDate      ReleaseDate      `json:"release_date"`
}

type PriceOverview struct {
	Currency         string `json:"currency"`
	Initial          int    `json:"initial"`
	Final            int    `json:"final"`
	DiscountPercent  int    `json:"discount_percent"`
	InitialFormatted string `json:"initial_formatted"`
	FinalFormatted   string `json:"final_formatted"`
}

type PlatformSupport struct {
	Windows bool `json:"windows"`
	Mac     bool `json:"mac"`
	Linux   bool `json:"linux"`
}

type Category struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

type Genre struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

type Metacritic struct {
	Score int    `json:"score"`
	URL   string `json:"url"`
}

type Recommendations struct {
	Total int `json:"total"`
}

type AchievementInfo struct {
	Total int `json:"total"`
}

type ReleaseDate struct {
	ComingSoon bool   `json:"coming_soon"`
	Date       string `json:"date"`
}
