// Package rust implements the Producer contract for Rust sources
// (spec §4.B), grounded on original_source/languages/mill-lang-rust's
// parser.rs. `use` tree parsing here produces the UseTree shape that
// internal/reference's Rust rewriter needs for segment-aware rewriting
// (spec §4.F "Rust use-tree rewriting").
package rust

import (
	"regexp"
	"strings"

	"github.com/helixforge/codemill/internal/parser"
	"github.com/helixforge/codemill/internal/symbol"
)

type Parser struct{}

func New() *Parser { return &Parser{} }

var (
	fnRe     = regexp.MustCompile(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?(?:unsafe\s+)?fn\s+([A-Za-z_][A-Za-z0-9_]*)`)
	structRe = regexp.MustCompile(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?struct\s+([A-Za-z_][A-Za-z0-9_]*)`)
	enumRe   = regexp.MustCompile(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?enum\s+([A-Za-z_][A-Za-z0-9_]*)`)
	traitRe  = regexp.MustCompile(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?trait\s+([A-Za-z_][A-Za-z0-9_]*)`)
	implRe   = regexp.MustCompile(`(?m)^\s*impl(?:<[^>]*>)?\s+(?:[A-Za-z_][A-Za-z0-9_:<>]*\s+for\s+)?([A-Za-z_][A-Za-z0-9_]*)`)
	modRe    = regexp.MustCompile(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?mod\s+([A-Za-z_][A-Za-z0-9_]*)\s*[{;]`)
	useRe    = regexp.MustCompile(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?use\s+([^;]+);`)
)

func (p *Parser) ListFunctions(source string) ([]string, error) {
	var names []string
	for _, m := range fnRe.FindAllStringSubmatch(source, -1) {
		names = append(names, m[1])
	}
	return names, nil
}

func (p *Parser) ParseSource(source string) (*symbol.ParseResult, error) {
	var syms []symbol.Symbol
	add := func(re *regexp.Regexp, kind symbol.Kind) {
		for _, m := range re.FindAllStringSubmatchIndex(source, -1) {
			start := parser.PositionAt(source, m[0])
			var end *symbol.Position
			if braceOpen := strings.IndexByte(source[m[0]:], '{'); braceOpen >= 0 {
				absOpen := m[0] + braceOpen
				if closeOff := matchingBrace(source, absOpen); closeOff >= 0 {
					e := parser.PositionAt(source, closeOff+1)
					end = &e
				}
			}
			syms = append(syms, symbol.Symbol{Name: source[m[2]:m[3]], Kind: kind, Start: start, End: end})
		}
	}
	add(fnRe, symbol.KindFunction)
	add(structRe, symbol.KindStruct)
	add(enumRe, symbol.KindEnum)
	add(traitRe, symbol.KindTrait)
	add(implRe, symbol.KindType)
	add(modRe, symbol.KindModule)

	imports, err := p.ParseImports(source)
	if err != nil {
		return nil, err
	}
	return &symbol.ParseResult{Symbols: syms, Imports: imports}, nil
}

func matchingBrace(source string, openOffset int) int {
	depth := 0
	for i := openOffset; i < len(source); i++ {
		switch source[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// UseTree is a parsed `use` path, preserving group/rename/glob forms so
// the reference rewriter can do segment-aware rewriting (spec §4.F).
type UseTree struct {
	Segments []string // e.g. ["crate_b", "hello_b"]
	Alias    string    // "as X", empty if none
	Glob     bool       // trailing `*`
	Group    []UseTree  // `{a, b::c}` trailing group members, each relative to Segments
}

func (p *Parser) ParseImports(source string) ([]symbol.ImportInfo, error) {
	var out []symbol.ImportInfo
	for _, m := range useRe.FindAllStringSubmatchIndex(source, -1) {
		body := source[m[2]:m[3]]
		tree := parseUseTree(body)
		modulePath := strings.Join(tree.Segments, "::")
		out = append(out, symbol.ImportInfo{
			ModulePath: modulePath,
			Kind:       symbol.ImportRustUse,
			Source:     symbol.Range{Start: parser.PositionAt(source, m[0]), End: parser.PositionAt(source, m[1])},
		})
	}
	return out, nil
}

// ParseUseTree splits "a::b::{c, d as e}" into segments plus a group tail.
// Exported for internal/reference's segment-aware use-tree rewriter.
func ParseUseTree(body string) UseTree {
	return parseUseTree(body)
}

// parseUseTree splits "a::b::{c, d as e}" into segments plus a group tail.
func parseUseTree(body string) UseTree {
	body = strings.TrimSpace(body)
	if idx := strings.Index(body, "{"); idx >= 0 && strings.HasSuffix(body, "}") {
		prefix := strings.TrimSuffix(strings.TrimSpace(body[:idx]), "::")
		inner := body[idx+1 : len(body)-1]
		var group []UseTree
		for _, part := range splitTopLevelComma(inner) {
			group = append(group, parseUseTree(strings.TrimSpace(part)))
		}
		var segs []string
		if prefix != "" {
			segs = strings.Split(prefix, "::")
		}
		return UseTree{Segments: segs, Group: group}
	}
	if strings.HasSuffix(body, "::*") {
		return UseTree{Segments: strings.Split(strings.TrimSuffix(body, "::*"), "::"), Glob: true}
	}
	if idx := strings.Index(body, " as "); idx >= 0 {
		path := strings.TrimSpace(body[:idx])
		alias := strings.TrimSpace(body[idx+4:])
		return UseTree{Segments: strings.Split(path, "::"), Alias: alias}
	}
	return UseTree{Segments: strings.Split(body, "::")}
}

func splitTopLevelComma(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i, c := range s {
		switch c {
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}

// IsExternal implements the Rust predicate from spec §3: a use path
// beginning with crate/self/super is internal; anything else (an external
// crate name) is external.
func (p *Parser) IsExternal(modulePath string) bool {
	first := modulePath
	if idx := strings.Index(modulePath, "::"); idx >= 0 {
		first = modulePath[:idx]
	}
	return first != "crate" && first != "self" && first != "super"
}

// IsLiteralLocationSafe tracks "..."/line-comment/block-comment state;
// character literals ('...') are not tracked.
func (p *Parser) IsLiteralLocationSafe(source string, pos symbol.Position, length int) bool {
	offset := parser.OffsetAt(source, pos)
	if offset < 0 {
		return false
	}
	inString := false
	inLineComment := false
	inBlockComment := false
	for i := 0; i < offset && i < len(source); i++ {
		c := source[i]
		if inLineComment {
			if c == '\n' {
				inLineComment = false
			}
			continue
		}
		if inBlockComment {
			if c == '*' && i+1 < len(source) && source[i+1] == '/' {
				inBlockComment = false
				i++
			}
			continue
		}
		if inString {
			if c == '\\' {
				i++
				continue
			}
			if c == '"' {
				inString = false
			}
			continue
		}
		switch {
		case c == '"':
			inString = true
		case c == '/' && i+1 < len(source) && source[i+1] == '/':
			inLineComment = true
		case c == '/' && i+1 < len(source) && source[i+1] == '*':
			inBlockComment = true
		}
	}
	return !inString && !inLineComment && !inBlockComment
}
