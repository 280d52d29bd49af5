// Package deadcode implements Dead-Code Discovery (spec §4.E.7): walk the
// workspace honoring ignore files, pull document symbols per file, and for
// each Function/Method/Interface/Class symbol ask for references at its
// position; a symbol with <=1 reference is flagged with a reason. This
// produces findings, not an edit plan.
package deadcode

import (
	"context"

	"github.com/helixforge/codemill/internal/batch"
	"github.com/helixforge/codemill/internal/engineerr"
	"github.com/helixforge/codemill/internal/symbol"
)

// Finding is one unreferenced (or only-declared) symbol.
type Finding struct {
	File   string
	Symbol symbol.Symbol
	Reason string // "no references" | "only declaration"
}

// ReferenceCounter returns the number of references to the symbol at
// (path, pos), including its own declaration.
type ReferenceCounter func(ctx context.Context, path string, pos symbol.Position) (int, error)

var flaggedKinds = map[symbol.Kind]bool{
	symbol.KindFunction:  true,
	symbol.KindMethod:    true,
	symbol.KindInterface: true,
	symbol.KindClass:     true,
}

// Discover walks workspacePath (honoring ignore files via batch.ResolveScope,
// the same scope-resolution the Batch Analysis Engine uses), optionally
// restricted to extFilter, and flags every Function/Method/Interface/Class
// symbol with at most one reference (spec §4.E.7).
func Discover(ctx context.Context, workspacePath string, extFilter []string, symbolsFor func(path string) ([]symbol.Symbol, error), countRefs ReferenceCounter) ([]Finding, error) {
	files, err := batch.ResolveScope(batch.Scope{Type: batch.ScopeWorkspace, Path: workspacePath})
	if err != nil {
		return nil, engineerr.Wrap(err, engineerr.Internal, "failed to resolve workspace scope %s", workspacePath)
	}
	files = filterByExt(files, extFilter)

	var findings []Finding
	for _, f := range files {
		syms, err := symbolsFor(f)
		if err != nil {
			continue // parse failures are skipped, not fatal, per batch analysis convention
		}
		for _, s := range syms {
			if !flaggedKinds[s.Kind] {
				continue
			}
			count, err := countRefs(ctx, f, s.Start)
			if err != nil {
				continue
			}
			switch {
			case count == 0:
				findings = append(findings, Finding{File: f, Symbol: s, Reason: "no references"})
			case count == 1:
				findings = append(findings, Finding{File: f, Symbol: s, Reason: "only declaration"})
			}
		}
	}
	return findings, nil
}

func filterByExt(files []string, extFilter []string) []string {
	if len(extFilter) == 0 {
		return files
	}
	allowed := map[string]bool{}
	for _, e := range extFilter {
		allowed[e] = true
	}
	var out []string
	for _, f := range files {
		if allowed[extOf(f)] {
			out = append(out, f)
		}
	}
	return out
}

func extOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i+1:]
		}
		if path[i] == '/' {
			break
		}
	}
	return ""
}
