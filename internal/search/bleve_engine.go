package search

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/gamelib/internal/debuglog"
	"github.com/pders01/gamelib/internal/storage"
)

type bleveEngine struct {
	library Library
	idx     bleve.Index
}

// BleveEngine is a Searcher backed by an on-disk index that follows library syncs.
type BleveEngine interface {
	Searcher
	UpdateListener
	DebugStatser
	Close() error
}

// NewBleveEngine creates or opens a Bleve index at indexPath and indexes the current library.
func NewBleveEngine(library Library, indexPath string) (BleveEngine, error) {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, err
	}

	idx, err := bleve.Open(indexPath)
	if err != nil {
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, err
		}
	}

	be := &bleveEngine{library: library, idx: idx}
	if err := be.reindexAll(); err != nil {
		idx.Close()
		return nil, err
	}
	return be, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	name := bleve.NewTextFieldMapping()
	name.Analyzer = standard.Name
	name.Store = true
	name.IncludeTermVectors = true

	text := func() *mapping.FieldMapping {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = standard.Name
		f.Store = false
		return f
	}

	platform := bleve.NewTextFieldMapping()
	platform.Analyzer = keyword.Name
	platform.Store = true

	dm.AddFieldMappingsAt("name", name)
	dm.AddFieldMappingsAt("genres", text())
	dm.AddFieldMappingsAt("tags", text())
	dm.AddFieldMappingsAt("developer", text())
	dm.AddFieldMappingsAt("publisher", text())
	dm.AddFieldMappingsAt("description", text())
	dm.AddFieldMappingsAt("platform", platform)

	im.DefaultMapping = dm
	return im
}

func gameDoc(g *storage.Game) map[string]any {
	return map[string]any{
		"name":        g.Name,
		"genres":      strings.Join(g.Genres, " "),
		"tags":        strings.Join(g.Tags, " "),
		"developer":   g.Developer,
		"publisher":   g.Publisher,
		"description": g.Description,
		"platform":    g.Platform,
	}
}

func (b *bleveEngine) reindexAll() error {
	games, err := b.library.GetGames("")
	if err != nil {
		return err
	}

	batch := b.idx.NewBatch()
	for _, g := range games {
		if err := batch.Index(g.ID, gameDoc(g)); err != nil {
			return err
		}
	}
	return b.idx.Batch(batch)
}

func (b *bleveEngine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	fields := []struct {
		name  string
		boost float64
	}{
		{"name", weightName},
		{"genres", weightGenre},
		{"tags", weightGenre},
		{"developer", weightDeveloper},
		{"publisher", weightDeveloper},
		{"description", weightDescription},
	}

	var qs []bleveQuery.Query
	for _, tok := range tokenize(query) {
		for _, f := range fields {
			qm := bleve.NewMatchQuery(tok)
			qm.SetField(f.name)
			qm.SetBoost(f.boost)
			qs = append(qs, qm)

			qp := bleve.NewPrefixQuery(tok)
			qp.SetField(f.name)
			qp.SetBoost(f.boost * 0.8)
			qs = append(qs, qp)
		}
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	res, err := b.idx.Search(req)
	if err != nil {
		return nil, err
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		game, err := b.library.GetGame(h.ID)
		if err != nil {
			// index can briefly lag a replaced library
			if !errors.Is(err, storage.ErrNotFound) {
				debuglog.Warnf("search: loading hit %s: %v", h.ID, err)
			}
			continue
		}
		out = append(out, &Result{Game: game, Score: h.Score})
	}
	return out, nil
}

// OnLibraryUpdated drops the platform's documents and indexes games in their place.
func (b *bleveEngine) OnLibraryUpdated(platform string, games []*storage.Game) {
	if err := b.deletePlatform(platform); err != nil {
		debuglog.Warnf("search: clearing %s from index: %v", platform, err)
	}

	batch := b.idx.NewBatch()
	for _, g := range games {
		if err := batch.Index(g.ID, gameDoc(g)); err != nil {
			debuglog.Warnf("search: indexing %s: %v", g.ID, err)
		}
	}
	if err := b.idx.Batch(batch); err != nil {
		debuglog.Errorf("search: indexing %s library: %v", platform, err)
	}
}

func (b *bleveEngine) deletePlatform(platform string) error {
	tq := bleve.NewTermQuery(platform)
	tq.SetField("platform")

	const size = 1000
	for {
		req := bleve.NewSearchRequestOptions(tq, size, 0, false)
		res, err := b.idx.Search(req)
		if err != nil {
			return err
		}
		if len(res.Hits) == 0 {
			return nil
		}
		batch := b.idx.NewBatch()
		for _, h := range res.Hits {
			batch.Delete(h.ID)
		}
		if err := b.idx.Batch(batch); err != nil {
			return err
		}
		if len(res.Hits) < size {
			return nil
		}
	}
}

// DocCount reports total documents in the index.
func (b *bleveEngine) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	return int(n), err
}

func (b *bleveEngine) Close() error {
	return b.idx.Close()
}
