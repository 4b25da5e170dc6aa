package search

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/gamelib/internal/storage"
)

type fakeLibrary struct {
	games []*storage.Game
	err   error
}

func (f *fakeLibrary) GetGames(platform string) ([]*storage.Game, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*storage.Game
	for _, g := range f.games {
		if platform == "" || g.Platform == platform {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeLibrary) GetGame(id string) (*storage.Game, error) {
	for _, g := range f.games {
		if g.ID == id {
			return g, nil
		}
	}
	return nil, storage.ErrNotFound
}

func sampleLibrary() *fakeLibrary {
	return &fakeLibrary{games: []*storage.Game{
		{
			ID: "steam-1091500", Platform: "steam", Name: "Cyberpunk 2077",
			Genres: []string{"RPG", "Action"}, Developer: "CD PROJEKT RED", Publisher: "CD PROJEKT RED",
			Description: "An open-world action-adventure story set in Night City.",
		},
		{
			ID: "gog-1495134320", Platform: "gog", Name: "The Witcher 3: Wild Hunt",
			Genres: []string{"RPG"}, Developer: "CD PROJEKT RED", Publisher: "CD PROJEKT",
			Description: "A story-driven open world RPG set in a fantasy universe.",
		},
		{
			ID: "steam-1145360", Platform: "steam", Name: "Hades",
			Genres: []string{"Roguelike", "Action"}, Tags: []string{"Indie"}, Developer: "Supergiant Games", Publisher: "Supergiant Games",
			Description: "Defy the god of the dead as you hack and slash out of the Underworld.",
		},
	}}
}

func TestNewEngine(t *testing.T) {
	lib := sampleLibrary()
	engine := NewEngine(lib)
	assert.NotNil(t, engine)
	assert.Equal(t, lib, engine.library)
}

func TestSearchMinLength(t *testing.T) {
	engine := NewEngine(sampleLibrary())

	tests := []struct {
		name  string
		query string
	}{
		{name: "Empty query", query: ""},
		{name: "Single character query", query: "a"},
		{name: "Whitespace only", query: "   "},
		{name: "Punctuation only", query: "!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := engine.Search(tt.query, 10)
			assert.NoError(t, err)
			assert.NotNil(t, results)
			assert.Empty(t, results, "short queries should return empty results")
		})
	}
}

func TestSearchRanksNameAboveDescription(t *testing.T) {
	engine := NewEngine(sampleLibrary())

	results, err := engine.Search("witcher", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "gog-1495134320", results[0].Game.ID)
	assert.Equal(t, "name", results[0].Matches[0].Field)

	// "story" only appears in descriptions
	results, err = engine.Search("story", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, "description", r.Matches[len(r.Matches)-1].Field)
	}
}

func TestSearchMatchesGenresAndDeveloper(t *testing.T) {
	engine := NewEngine(sampleLibrary())

	results, err := engine.Search("rpg", 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = engine.Search("supergiant", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Hades", results[0].Game.Name)

	results, err = engine.Search("indie", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "tags", results[0].Matches[0].Field)
}

func TestSearchLimit(t *testing.T) {
	engine := NewEngine(sampleLibrary())

	results, err := engine.Search("action", 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchLibraryError(t *testing.T) {
	engine := NewEngine(&fakeLibrary{err: errors.New("db closed")})

	_, err := engine.Search("hades", 10)
	assert.Error(t, err)
}

func TestSearchGames(t *testing.T) {
	engine := NewEngine(&fakeLibrary{})

	results := engine.SearchGames(sampleLibrary().games, "cd projekt")
	require.Len(t, results, 2)
	assert.Empty(t, engine.SearchGames(sampleLibrary().games, ""))
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "simple words",
			input:    "hello world",
			expected: []string{"hello", "world"},
		},
		{
			name:     "with punctuation",
			input:    "The Witcher 3: Wild Hunt",
			expected: []string{"the", "witcher", "wild", "hunt"},
		},
		{
			name:     "with numbers",
			input:    "Cyberpunk 2077",
			expected: []string{"cyberpunk", "2077"},
		},
		{
			name:     "single characters filtered",
			input:    "a b test c d word",
			expected: []string{"test", "word"},
		},
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
		{
			name:     "special characters",
			input:    "roguelike-action/indie",
			expected: []string{"roguelike", "action", "indie"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tokenize(tt.input))
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxLen   int
		expected string
	}{
		{name: "text shorter than limit", text: "short", maxLen: 10, expected: "short"},
		{name: "text exactly at limit", text: "exactlyten", maxLen: 10, expected: "exactlyten"},
		{name: "text longer than limit", text: "this is a very long text", maxLen: 10, expected: "this is a…"},
		{name: "empty text", text: "", maxLen: 10, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, truncate(tt.text, tt.maxLen))
		})
	}
}

func TestScoreField(t *testing.T) {
	engine := NewEngine(&fakeLibrary{})

	tests := []struct {
		name     string
		text     string
		terms    []string
		weight   float64
		minScore float64
	}{
		{name: "exact match", text: "hello world", terms: []string{"hello"}, weight: 1.0, minScore: 2.0},
		{name: "partial match", text: "hello world", terms: []string{"hel"}, weight: 1.0, minScore: 1.0},
		{name: "no match", text: "hello world", terms: []string{"xyz"}, weight: 1.0, minScore: 0},
		{name: "empty text", text: "", terms: []string{"hello"}, weight: 1.0, minScore: 0},
		{name: "multiple terms", text: "hello world test", terms: []string{"hello", "test"}, weight: 1.0, minScore: 4.0},
		{name: "case insensitive", text: "HELLO WORLD", terms: []string{"hello"}, weight: 1.0, minScore: 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := engine.scoreField(tt.text, tt.terms, tt.weight)
			assert.GreaterOrEqual(t, score, tt.minScore)
		})
	}

	assert.Greater(t,
		engine.scoreField("Hades", []string{"hades"}, weightName),
		engine.scoreField("Hades", []string{"hades"}, weightDescription))
}

func TestFindBestSnippet(t *testing.T) {
	engine := NewEngine(&fakeLibrary{})

	tests := []struct {
		name      string
		text      string
		terms     []string
		maxLength int
		contains  string
	}{
		{
			name:      "find term in text",
			text:      "This is a long text with the word hello in the middle and more text after",
			terms:     []string{"hello"},
			maxLength: 50,
			contains:  "hello",
		},
		{name: "empty text", text: "", terms: []string{"hello"}, maxLength: 50, contains: ""},
		{name: "text shorter than max", text: "short text", terms: []string{"short"}, maxLength: 100, contains: "short text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snippet := engine.findBestSnippet(tt.text, tt.terms, tt.maxLength)
			if tt.contains != "" {
				assert.Contains(t, snippet, tt.contains)
			} else {
				assert.Equal(t, "", snippet)
			}
			assert.LessOrEqual(t, len([]rune(snippet)), tt.maxLength)
		})
	}
}
