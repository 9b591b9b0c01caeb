package search

import (
	"github.com/nikbrunner/qbm/internal/model"
	"github.com/nikbrunner/qbm/internal/render"
	"github.com/sahilm/fuzzy"
)

// SearchResult represents a fuzzy search match.
type SearchResult struct {
	Row            model.Row
	MatchedIndexes []int
	Score          int
}

// rowTitles implements fuzzy.Source over tag headers and bookmark rows.
type rowTitles []model.Row

func (rt rowTitles) String(i int) string {
	return render.Title(rt[i])
}

func (rt rowTitles) Len() int {
	return len(rt)
}

// FuzzySearchRows matches tag headers and bookmark rows by title.
// Informational rows are never returned. Results are sorted by match
// score (best first).
func FuzzySearchRows(rows []model.Row, query string) []SearchResult {
	if query == "" {
		return nil
	}

	var candidates rowTitles
	for _, row := range rows {
		switch row.(type) {
		case model.TagHeader, model.BookmarkRow:
			candidates = append(candidates, row)
		}
	}

	matches := fuzzy.FindFrom(query, candidates)

	results := make([]SearchResult, len(matches))
	for i, m := range matches {
		results[i] = SearchResult{
			Row:            candidates[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}

	return results
}

// Rows returns the matched rows in result order.
func Rows(results []SearchResult) []model.Row {
	rows := make([]model.Row, len(results))
	for i, r := range results {
		rows[i] = r.Row
	}
	return rows
}
