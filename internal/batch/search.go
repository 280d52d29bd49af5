package batch

import (
	"github.com/helixforge/codemill/internal/search"
)

// SearchSymbols implements the "search_symbols" tool's workspace-symbol
// capability (spec §4.A NavigationCapabilities.WorkspaceSymbols, §6 tool
// surface): fuzzy-rank every symbol currently held in this batch's AST
// cache against query. Only files already parsed into the cache are
// searched — callers run a batch (or at least ResolveScope+parseFile) over
// the desired workspace scope first, matching §4.H's "parse-once" model
// rather than this package re-walking the filesystem itself.
func (e *Engine) SearchSymbols(query string, limit int) []search.Match {
	var candidates []search.Candidate
	for _, path := range e.cache.Keys() {
		ast, ok := e.cache.Peek(path)
		if !ok {
			continue
		}
		for _, s := range ast.Symbols {
			candidates = append(candidates, search.Candidate{File: ast.Path, Symbol: s})
		}
	}
	matches := search.Search(query, candidates)
	return search.Limit(matches, limit)
}
