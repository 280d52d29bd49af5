// Package complexity implements the cyclomatic/cognitive complexity and
// SLOC metrics engine (spec §4.C), grounded on the teacher's tag-extraction
// scanning style (internal/repomap/tag_extractor.go walks source text with
// a running brace-depth counter) but computing the spec's specific tables
// rather than tree-sitter tags.
package complexity

import (
	"regexp"
	"strings"
)

// Language tags the fixed decision-point tables operate over.
type Language string

const (
	LangRust       Language = "rust"
	LangGo         Language = "go"
	LangJava       Language = "java"
	LangTypeScript Language = "typescript"
	LangJavaScript Language = "javascript"
	LangPython     Language = "python"
)

// decisionKeywords is the fixed per-language keyword table from spec §4.C.
var decisionKeywords = map[Language][]string{
	LangRust:       {"if", "else if", "for", "while", "match", "case", "catch"},
	LangGo:         {"if", "else if", "for", "while", "match", "case", "catch"},
	LangJava:       {"if", "else if", "for", "while", "match", "case", "catch"},
	LangTypeScript: {"if", "else if", "for", "while", "do", "switch", "case", "catch"},
	LangJavaScript: {"if", "else if", "for", "while", "do", "switch", "case", "catch"},
	LangPython:     {"if", "elif", "for", "while", "except", "case"},
}

// decisionOperators is the fixed per-language logical-operator table.
var decisionOperators = map[Language][]string{
	LangRust:       {"&&", "||"},
	LangGo:         {"&&", "||"},
	LangJava:       {"&&", "||"},
	LangTypeScript: {"&&", "||", "?"},
	LangJavaScript: {"&&", "||", "?"},
	LangPython:     {"and", "or"},
}

// earlyExitKeywords are the top-level keywords that subtract from cognitive
// complexity (spec §4.C). The Design Notes §9 open question documents that
// only nesting depth 0 occurrences count; this is preserved deliberately.
var earlyExitKeywords = []string{"return", "continue", "break"}

var wordKeywordRe = map[string]*regexp.Regexp{}

// isWordOperator reports whether op is spelled with identifier characters
// (Python's "and"/"or") rather than symbols (&&, ||, ?), since only the
// former needs word-boundary matching to avoid matching inside an unrelated
// identifier (e.g. the "or" inside "for").
func isWordOperator(op string) bool {
	for _, r := range op {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '_') {
			return false
		}
	}
	return true
}

// operatorPositions returns the byte offset of each occurrence of op in
// body, using word-boundary matching for word-spelled operators and plain
// substring search for symbolic ones.
func operatorPositions(body, op string) []int {
	if isWordOperator(op) {
		re := keywordRegexp(op)
		locs := re.FindAllStringIndex(body, -1)
		positions := make([]int, len(locs))
		for i, loc := range locs {
			positions[i] = loc[0]
		}
		return positions
	}
	var positions []int
	idx := 0
	for {
		pos := strings.Index(body[idx:], op)
		if pos < 0 {
			break
		}
		abs := idx + pos
		positions = append(positions, abs)
		idx = abs + len(op)
	}
	return positions
}

// countOperator counts occurrences of op in body via operatorPositions.
func countOperator(body, op string) int {
	return len(operatorPositions(body, op))
}

func keywordRegexp(kw string) *regexp.Regexp {
	if re, ok := wordKeywordRe[kw]; ok {
		return re
	}
	// Multi-word keywords like "else if" need a regex that tolerates the
	// whitespace variance between tokens while still respecting word
	// boundaries on both ends (spec §4.B "word-boundary correctness").
	parts := strings.Fields(kw)
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = regexp.QuoteMeta(p)
	}
	pattern := `(?:^|[^A-Za-z0-9_])` + strings.Join(escaped, `\s+`) + `(?:$|[^A-Za-z0-9_])`
	re := regexp.MustCompile(pattern)
	wordKeywordRe[kw] = re
	return re
}

func countKeyword(body, kw string) int {
	return len(keywordRegexp(kw).FindAllStringIndex(body, -1))
}

// Rating buckets a cognitive score into the four spec §3/§4.C bands.
type Rating string

const (
	RatingSimple      Rating = "simple"
	RatingModerate    Rating = "moderate"
	RatingComplex     Rating = "complex"
	RatingVeryComplex Rating = "very_complex"
)

// RatingFor buckets a cognitive score (spec §4.C: 1-5/6-10/11-20/21+).
func RatingFor(cognitive int) Rating {
	switch {
	case cognitive <= 5:
		return RatingSimple
	case cognitive <= 10:
		return RatingModerate
	case cognitive <= 20:
		return RatingComplex
	default:
		return RatingVeryComplex
	}
}

// Metrics is the per-function complexity report (spec §3 ComplexityMetrics).
type Metrics struct {
	Cyclomatic   int     `json:"cyclomatic"`
	Cognitive    int     `json:"cognitive"`
	MaxNesting   int     `json:"max_nesting"`
	SLOC         int     `json:"sloc"`
	CommentRatio float64 `json:"comment_ratio"`
	Parameters   int     `json:"parameters"`
	Rating       Rating  `json:"rating"`
}

// Analyze computes Metrics for a single function body (spec §4.C).
func Analyze(body string, lang Language) Metrics {
	cyclomatic := 1
	for _, kw := range decisionKeywords[lang] {
		cyclomatic += countKeyword(body, kw)
	}
	for _, op := range decisionOperators[lang] {
		cyclomatic += countOperator(body, op)
	}

	cognitive, maxNesting := cognitiveAndNesting(body, lang)

	sloc, commentRatio := slocAndComments(body, lang)
	params := countParameters(body, lang)

	return Metrics{
		Cyclomatic:   cyclomatic,
		Cognitive:    cognitive,
		MaxNesting:   maxNesting,
		SLOC:         sloc,
		CommentRatio: commentRatio,
		Parameters:   params,
		Rating:       RatingFor(cognitive),
	}
}

// cognitiveAndNesting implements spec §4.C's cognitive-complexity walk:
// depth tracks raw brace counts; each decision point costs 1+depth; each
// top-level (depth 0) early exit subtracts 1, floored at 0.
func cognitiveAndNesting(body string, lang Language) (int, int) {
	// Precompute, for every byte offset, the current brace depth, so that
	// keyword occurrences found via regex can be priced by their position.
	depthAt := make([]int, len(body)+1)
	depth := 0
	maxDepth := 0
	for i, r := range body {
		depthAt[i] = depth
		switch r {
		case '{':
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		case '}':
			if depth > 0 {
				depth--
			}
		}
	}
	depthAt[len(body)] = depth

	cognitive := 0
	for _, kw := range decisionKeywords[lang] {
		re := keywordRegexp(kw)
		for _, loc := range re.FindAllStringIndex(body, -1) {
			cognitive += 1 + depthAt[loc[0]]
		}
	}
	for _, op := range decisionOperators[lang] {
		for _, pos := range operatorPositions(body, op) {
			cognitive += 1 + depthAt[pos]
		}
	}

	for _, kw := range earlyExitKeywords {
		re := keywordRegexp(kw)
		for _, loc := range re.FindAllStringIndex(body, -1) {
			if depthAt[loc[0]] == 0 {
				if cognitive > 0 {
					cognitive--
				}
			}
		}
	}

	return cognitive, maxDepth
}

var blockCommentDelims = map[Language][2]string{
	LangRust:       {"/*", "*/"},
	LangGo:         {"/*", "*/"},
	LangJava:       {"/*", "*/"},
	LangTypeScript: {"/*", "*/"},
	LangJavaScript: {"/*", "*/"},
	LangPython:     {`"""`, `"""`},
}

var lineCommentPrefix = map[Language]string{
	LangRust:       "//",
	LangGo:         "//",
	LangJava:       "//",
	LangTypeScript: "//",
	LangJavaScript: "//",
	LangPython:     "#",
}

// slocAndComments counts non-blank, non-comment lines (spec §4.C).
func slocAndComments(body string, lang Language) (int, float64) {
	lines := strings.Split(body, "\n")
	sloc := 0
	commentLines := 0
	inBlock := false
	open, close := blockCommentDelims[lang][0], blockCommentDelims[lang][1]
	prefix := lineCommentPrefix[lang]

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if inBlock {
			commentLines++
			if strings.Contains(trimmed, close) {
				inBlock = false
			}
			continue
		}
		if open != "" && strings.HasPrefix(trimmed, open) {
			commentLines++
			if !strings.HasSuffix(trimmed, close) || len(trimmed) <= len(open) {
				inBlock = true
			}
			continue
		}
		if prefix != "" && strings.HasPrefix(trimmed, prefix) {
			commentLines++
			continue
		}
		sloc++
	}

	total := sloc + commentLines
	if total == 0 {
		return 0, 0
	}
	return sloc, float64(commentLines) / float64(total)
}

// countParameters implements spec §4.C / §9's documented heuristic limitation:
// it only looks at the first line's opening paren, so a multi-line signature
// silently yields 0 (flagged, not fixed — per the Design Notes open question).
func countParameters(body string, lang Language) int {
	firstLine := body
	if idx := strings.IndexByte(body, '\n'); idx >= 0 {
		firstLine = body[:idx]
	}
	open := strings.IndexByte(firstLine, '(')
	if open < 0 {
		return 0
	}
	depth := 0
	closeIdx := -1
	for i := open; i < len(firstLine); i++ {
		switch firstLine[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				closeIdx = i
			}
		}
		if closeIdx >= 0 {
			break
		}
	}
	if closeIdx < 0 {
		return 0
	}
	inner := strings.TrimSpace(firstLine[open+1 : closeIdx])
	if inner == "" {
		return 0
	}
	parts := strings.Split(inner, ",")
	count := 0
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		switch lang {
		case LangPython:
			if p == "self" || p == "cls" {
				continue
			}
		case LangRust:
			if p == "&self" || p == "self" || p == "&mut self" {
				continue
			}
		}
		count++
	}
	return count
}
