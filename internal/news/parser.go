package news

import (
	"fmt"
	"html"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Item is one news post about a game.
type Item struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Published time.Time `json:"published"`
	Summary   string    `json:"summary"`
	ImageURL  string    `json:"imageUrl,omitempty"`
}

const summaryLength = 280

var (
	tagRegex   = regexp.MustCompile(`<[^>]*>`)
	spaceRegex = regexp.MustCompile(`\s+`)
	imgRegex   = regexp.MustCompile(`<img[^>]+src=["']([^"']+)["']`)
)

type Parser struct {
	parser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		parser: gofeed.NewParser(),
	}
}

// Parse reads an RSS or Atom document and returns its newest limit items,
// newest first. A limit of zero or less returns every item.
func (p *Parser) Parse(reader io.Reader, limit int) ([]Item, error) {
	feed, err := p.parser.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, fi := range feed.Items {
		item := Item{
			Title:    strings.TrimSpace(fi.Title),
			Link:     fi.Link,
			Summary:  summarize(firstNonEmpty(fi.Description, fi.Content)),
			ImageURL: imageURL(fi),
		}
		switch {
		case fi.PublishedParsed != nil:
			item.Published = *fi.PublishedParsed
		case fi.UpdatedParsed != nil:
			item.Published = *fi.UpdatedParsed
		}
		items = append(items, item)
	}

	sortNewestFirst(items)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func sortNewestFirst(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Published.After(items[j].Published)
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// summarize flattens HTML to a single line of plain text.
func summarize(s string) string {
	s = tagRegex.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = strings.TrimSpace(spaceRegex.ReplaceAllString(s, " "))
	runes := []rune(s)
	if len(runes) <= summaryLength {
		return s
	}
	return strings.TrimSpace(string(runes[:summaryLength-1])) + "…"
}

func imageURL(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enclosure := range item.Enclosures {
		if enclosure.URL != "" && strings.HasPrefix(enclosure.Type, "image/") {
			return enclosure.URL
		}
	}
	if m := imgRegex.FindStringSubmatch(item.Content + " " + item.Description); len(m) > 1 {
		return m[1]
	}
	return ""
}
