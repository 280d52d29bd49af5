// Package search implements the fuzzy workspace-symbol ranking behind the
// "search_symbols" tool (spec §4.G navigation.WorkspaceSymbols capability,
// §6 tool surface). Ranking is grounded on
// hugo-lorenzo-mato-quorum-ai's internal/tui/chat/history_search.go, which
// ranks free-text candidates the same way via github.com/sahilm/fuzzy;
// here the candidate strings are workspace symbol names instead of
// command-history entries.
package search

import (
	"sort"

	"github.com/sahilm/fuzzy"

	"github.com/helixforge/codemill/internal/symbol"
)

// Candidate is one workspace symbol available for fuzzy matching, together
// with the file it was extracted from (document_symbols results from many
// files, flattened into one searchable pool).
type Candidate struct {
	File   string
	Symbol symbol.Symbol
}

// Match is one ranked search result: the matched candidate plus the byte
// indexes fuzzy.Find identified, for client-side highlighting.
type Match struct {
	Candidate      Candidate
	Score          int
	MatchedIndexes []int
}

// Search ranks candidates against query using fuzzy subsequence matching,
// highest score first; ties keep the candidates' original relative order
// (stable sort) so repeated searches over an unchanged symbol set are
// deterministic.
func Search(query string, candidates []Candidate) []Match {
	if query == "" {
		out := make([]Match, len(candidates))
		for i, c := range candidates {
			out[i] = Match{Candidate: c}
		}
		return out
	}

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Symbol.Name
	}

	found := fuzzy.Find(query, names)
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Score > found[j].Score
	})

	out := make([]Match, 0, len(found))
	for _, f := range found {
		out = append(out, Match{
			Candidate:      candidates[f.Index],
			Score:          f.Score,
			MatchedIndexes: f.MatchedIndexes,
		})
	}
	return out
}

// Limit truncates matches to the top n, or returns matches unchanged if it
// already has n or fewer.
func Limit(matches []Match, n int) []Match {
	if n <= 0 || len(matches) <= n {
		return matches
	}
	return matches[:n]
}
