package search

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/pders01/gamelib/internal/storage"
)

// Result represents a search match with relevance scoring
type Result struct {
	Game    *storage.Game
	Score   float64
	Matches []Match
}

// Match represents where text was found
type Match struct {
	Field  string // "name", "genres", "tags", "developer", "publisher", "description"
	Text   string // matched text snippet
	Weight float64
}

// Field weights. Name matches dominate, free text counts least.
const (
	weightName        = 4.0
	weightGenre       = 2.0
	weightDeveloper   = 1.5
	weightDescription = 1.0
)

// Engine scores games straight from the store without an index
type Engine struct {
	library Library
}

func NewEngine(library Library) *Engine {
	return &Engine{library: library}
}

// Search ranks every stored game against query, best match first
func (e *Engine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return []*Result{}, nil
	}

	games, err := e.library.GetGames("")
	if err != nil {
		return nil, err
	}

	var results []*Result
	for _, game := range games {
		if result := e.searchGame(game, terms); result != nil {
			results = append(results, result)
		}
	}

	// Highest score first, name breaks ties so output is stable
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Game.Name < results[j].Game.Name
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// SearchGames ranks an in-memory slice, used by views that already hold the games
func (e *Engine) SearchGames(games []*storage.Game, query string) []*Result {
	terms := tokenize(query)
	var results []*Result
	for _, game := range games {
		if result := e.searchGame(game, terms); result != nil {
			results = append(results, result)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

func (e *Engine) searchGame(game *storage.Game, terms []string) *Result {
	if len(terms) == 0 {
		return nil
	}

	var matches []Match
	var totalScore float64

	add := func(field, text string, weight float64) {
		if score := e.scoreField(text, terms, weight); score > 0 {
			matches = append(matches, Match{Field: field, Text: text, Weight: score})
			totalScore += score
		}
	}

	add("name", game.Name, weightName)
	add("genres", strings.Join(game.Genres, ", "), weightGenre)
	add("tags", strings.Join(game.Tags, ", "), weightGenre)
	add("developer", game.Developer, weightDeveloper)
	if game.Publisher != game.Developer {
		add("publisher", game.Publisher, weightDeveloper)
	}

	if descScore := e.scoreField(game.Description, terms, weightDescription); descScore > 0 {
		matches = append(matches, Match{
			Field:  "description",
			Text:   e.findBestSnippet(game.Description, terms, 120),
			Weight: descScore,
		})
		totalScore += descScore
	}

	if totalScore > 0 {
		return &Result{
			Game:    game,
			Score:   totalScore,
			Matches: matches,
		}
	}

	return nil
}

// scoreField calculates relevance score for a field
func (e *Engine) scoreField(text string, terms []string, weight float64) float64 {
	if text == "" {
		return 0
	}

	lower := strings.ToLower(text)
	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}

	var score float64
	matchedTerms := 0

	for _, term := range terms {
		// Exact phrase match (highest score)
		if strings.Contains(lower, term) {
			score += 2.0
			matchedTerms++
		}

		// Word boundary matches (medium score)
		for _, word := range words {
			if word == term {
				score += 1.5
				matchedTerms++
			} else if strings.HasPrefix(word, term) || strings.HasSuffix(word, term) {
				score += 1.0
				matchedTerms++
			} else if strings.Contains(word, term) {
				score += 0.5
				matchedTerms++
			}
		}
	}

	// Boost score if multiple terms match
	if len(terms) > 1 && matchedTerms > 1 {
		score *= 1.0 + float64(matchedTerms)/float64(len(terms))
	}

	tf := float64(matchedTerms) / float64(len(words))
	score *= (1.0 + math.Log(1.0+tf))

	return score * weight
}

// findBestSnippet finds the most relevant text snippet containing search terms
func (e *Engine) findBestSnippet(text string, terms []string, maxLength int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	windowSize := maxLength / 8
	if windowSize > len(words) {
		return truncate(text, maxLength)
	}

	bestScore := 0.0
	bestStart := 0
	for i := 0; i <= len(words)-windowSize; i++ {
		windowText := strings.ToLower(strings.Join(words[i:i+windowSize], " "))
		score := 0.0
		for _, term := range terms {
			if strings.Contains(windowText, term) {
				score += 1.0
			}
		}
		if score > bestScore {
			bestScore = score
			bestStart = i
		}
	}

	return truncate(strings.Join(words[bestStart:bestStart+windowSize], " "), maxLength)
}

// tokenize breaks text into lowercase searchable terms
func tokenize(text string) []string {
	var terms []string
	current := strings.Builder{}

	flush := func() {
		if current.Len() > 1 { // Skip single chars
			terms = append(terms, current.String())
		}
		current.Reset()
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()

	return terms
}

// truncate limits text length with ellipsis
func truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen-1]) + "…"
}
