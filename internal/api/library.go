package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pders01/gamelib/internal/library"
	"github.com/pders01/gamelib/internal/storage"
)

type libraryResponse struct {
	Games  []*storage.Game `json:"games"`
	Total  int             `json:"total"`
	Groups []library.Group `json:"groups,omitempty"`
}

// listParam accepts both repeated and comma separated values.
func listParam(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func boolParam(q url.Values, key string) (*bool, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be true or false", key)
	}
	return &b, nil
}

func filterFromQuery(q url.Values) (library.Filter, error) {
	f := library.Filter{
		Search:     strings.TrimSpace(q.Get("search")),
		Platforms:  listParam(q, "platform"),
		Genres:     listParam(q, "genre"),
		Categories: listParam(q, "category"),
		Features:   listParam(q, "feature"),
	}

	var err error
	if f.Installed, err = boolParam(q, "installed"); err != nil {
		return f, err
	}
	if f.Downloading, err = boolParam(q, "downloading"); err != nil {
		return f, err
	}
	if f.SortBy, err = library.ParseSortBy(q.Get("sort")); err != nil {
		return f, err
	}
	if f.SortOrder, err = library.ParseSortOrder(q.Get("order")); err != nil {
		return f, err
	}
	if f.GroupBy, err = library.ParseGroupBy(q.Get("group")); err != nil {
		return f, err
	}
	return f, nil
}

func (s *Server) handleGetLibrary(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	games, err := s.deps.Library.Games(f)
	if err != nil {
		s.log.Error("loading library", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to load library")
		return
	}

	resp := libraryResponse{Games: games, Total: len(games)}
	if f.GroupBy != library.GroupNone {
		resp.Groups = f.Group(games)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	game, ok := s.lookupGame(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, game)
}

func (s *Server) lookupGame(w http.ResponseWriter, id string) (*storage.Game, bool) {
	game, err := s.deps.Library.Game(id)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Game not found")
		return nil, false
	}
	if err != nil {
		s.log.Error("loading game", zap.String("id", id), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to load game")
		return nil, false
	}
	return game, true
}

func (s *Server) handlePutInstall(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.lookupGame(w, id); !ok {
		return
	}

	var state storage.InstallState
	if err := decodeJSON(w, r, &state); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := state.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	state.UpdatedAt = timeNow()

	if err := s.deps.Installs.SetInstallState(id, state); err != nil {
		s.log.Error("saving install state", zap.String("id", id), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to save install state")
		return
	}

	game, ok := s.lookupGame(w, id)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, game)
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	games, err := s.deps.Library.Games(library.Filter{})
	if err != nil {
		s.log.Error("loading library", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to load library")
		return
	}
	respondJSON(w, http.StatusOK, library.ComputeStats(games))
}

type searchHit struct {
	Game    *storage.Game `json:"game"`
	Score   float64       `json:"score"`
	Matches []string      `json:"matches,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := 20
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		limit = n
	}

	results, err := s.deps.Searcher.Search(query, limit)
	if err != nil {
		s.log.Error("search", zap.String("query", query), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Search failed")
		return
	}

	hits := make([]searchHit, 0, len(results))
	for _, res := range results {
		hit := searchHit{Game: res.Game, Score: res.Score}
		for _, m := range res.Matches {
			hit.Matches = append(hit.Matches, m.Field)
		}
		hits = append(hits, hit)
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"results": hits,
	})
}
