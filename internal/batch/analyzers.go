package batch

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/helixforge/codemill/internal/symbol"
)

// analyzerFunc computes findings for one cached file under one query's
// (command, kind) pair (spec §4.H step 4: "Analyzers are grouped by command
// ... and by kind").
type analyzerFunc func(ast *CachedAst, options map[string]interface{}) []Finding

func analyzerFor(command, kind string) analyzerFunc {
	switch command {
	case "quality":
		switch kind {
		case "complexity":
			return complexityAnalyzer
		case "maintainability":
			return maintainabilityAnalyzer
		default:
			return complexityAnalyzer
		}
	case "dead_code":
		return deadCodeAnalyzer
	case "dependencies":
		return dependenciesAnalyzer
	case "structure":
		return structureAnalyzer
	case "documentation":
		return documentationAnalyzer
	case "tests":
		return testsAnalyzer
	default:
		return nil
	}
}

func complexityAnalyzer(ast *CachedAst, _ map[string]interface{}) []Finding {
	var out []Finding
	for _, m := range ast.Complexity {
		if m.Rating == "simple" {
			continue
		}
		out = append(out, Finding{
			Severity: severityForRating(string(m.Rating)),
			File:     ast.Path,
			Metrics: map[string]interface{}{
				"cyclomatic": m.Cyclomatic,
				"cognitive":  m.Cognitive,
				"max_nesting": m.MaxNesting,
			},
			Message: fmt.Sprintf("complexity rating %s (cyclomatic %d, cognitive %d)", m.Rating, m.Cyclomatic, m.Cognitive),
		})
	}
	return out
}

func severityForRating(rating string) string {
	switch rating {
	case "very_complex":
		return "error"
	case "complex":
		return "warning"
	default:
		return "info"
	}
}

func maintainabilityAnalyzer(ast *CachedAst, _ map[string]interface{}) []Finding {
	var out []Finding
	for _, m := range ast.Complexity {
		if m.CommentRatio < 0.05 && m.SLOC > 40 {
			out = append(out, Finding{
				Severity: "info",
				File:     ast.Path,
				Metrics:  map[string]interface{}{"sloc": m.SLOC, "comment_ratio": m.CommentRatio},
				Message:  "low comment density for file size",
			})
		}
	}
	return out
}

// deadCodeAnalyzer flags unreferenced symbols: a named symbol of any kind
// (names starting with "_" are skipped) that has no occurrence of its name
// anywhere else in the same file body besides its own declaration. This is a same-file heuristic only; cross-file
// usage is the reference detector's job (spec §4.F), not this analyzer's.
func deadCodeAnalyzer(ast *CachedAst, _ map[string]interface{}) []Finding {
	var out []Finding
	for _, s := range ast.Symbols {
		if s.Name == "" || strings.HasPrefix(s.Name, "_") {
			continue
		}
		if strings.Count(ast.Content, s.Name) <= 1 {
			r := symbolRangeFor(s)
			out = append(out, Finding{
				Severity: "warning",
				File:     ast.Path,
				Location: &r,
				Message:  fmt.Sprintf("%q appears unused within this file", s.Name),
			})
		}
	}
	return out
}

func symbolRangeFor(s symbol.Symbol) symbol.Range {
	end := s.Start
	if s.End != nil {
		end = *s.End
	}
	return symbol.Range{Start: s.Start, End: end}
}

func dependenciesAnalyzer(ast *CachedAst, _ map[string]interface{}) []Finding {
	var out []Finding
	for _, imp := range ast.Imports {
		out = append(out, Finding{
			Severity: "info",
			File:     ast.Path,
			Location: &imp.Source,
			Message:  fmt.Sprintf("imports %s", imp.ModulePath),
		})
	}
	return out
}

func structureAnalyzer(ast *CachedAst, _ map[string]interface{}) []Finding {
	counts := map[string]int{}
	for _, s := range ast.Symbols {
		counts[string(s.Kind)]++
	}
	var out []Finding
	for kind, n := range counts {
		out = append(out, Finding{
			Severity: "info",
			File:     ast.Path,
			Metrics:  map[string]interface{}{"count": n},
			Message:  fmt.Sprintf("%d %s symbol(s)", n, kind),
		})
	}
	return out
}

func documentationAnalyzer(ast *CachedAst, _ map[string]interface{}) []Finding {
	var out []Finding
	for _, s := range ast.Symbols {
		if s.Doc == "" && (string(s.Kind) == "function" || string(s.Kind) == "class" || string(s.Kind) == "struct") {
			out = append(out, Finding{
				Severity: "info",
				File:     ast.Path,
				Message:  fmt.Sprintf("%q has no documentation comment", s.Name),
			})
		}
	}
	return out
}

// testsAnalyzer implements the supplemented `missing_test`/`test_to_source`
// findings (SPEC_FULL.md §12 item 5): for a source file, report whether a
// conventionally-named test file exists, and vice versa.
func testsAnalyzer(ast *CachedAst, _ map[string]interface{}) []Finding {
	base := filepath.Base(ast.Path)
	dir := filepath.Dir(ast.Path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	if isTestFile(stem, ext) {
		source := sourceForTest(stem, ext)
		return []Finding{{
			Severity: "info",
			File:     ast.Path,
			Message:  fmt.Sprintf("test_to_source: %s exercises %s", base, source),
		}}
	}

	candidate := testFileCandidate(dir, stem, ext)
	return []Finding{{
		Severity: "warning",
		File:     ast.Path,
		Message:  fmt.Sprintf("missing_test: no test file found at %s", candidate),
	}}
}

func isTestFile(stem, ext string) bool {
	return strings.HasSuffix(stem, "_test") || strings.HasSuffix(stem, ".test") || strings.HasSuffix(stem, ".spec") ||
		strings.HasPrefix(stem, "test_") || (ext == ".rs" && stem == "tests")
}

func sourceForTest(stem, ext string) string {
	for _, suffix := range []string{"_test", ".test", ".spec"} {
		if strings.HasSuffix(stem, suffix) {
			return strings.TrimSuffix(stem, suffix) + ext
		}
	}
	return strings.TrimPrefix(stem, "test_") + ext
}

func testFileCandidate(dir, stem, ext string) string {
	switch ext {
	case ".py":
		return filepath.Join(dir, "test_"+stem+ext)
	case ".rs":
		return filepath.Join(dir, stem+"_test"+ext)
	default:
		return filepath.Join(dir, stem+".test"+ext)
	}
}
