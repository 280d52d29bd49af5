// Package python implements the Producer contract for Python sources
// (spec §4.B), grounded on original_source/languages/mill-lang-python's
// parser.rs and reference_detector.rs: indentation-based scope tracking
// instead of braces, since Python has none.
package python

import (
	"regexp"
	"strings"

	"github.com/helixforge/codemill/internal/parser"
	"github.com/helixforge/codemill/internal/symbol"
)

type Parser struct{}

func New() *Parser { return &Parser{} }

var (
	defRe    = regexp.MustCompile(`(?m)^([ \t]*)(?:async\s+)?def\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
	classRe  = regexp.MustCompile(`(?m)^([ \t]*)class\s+([A-Za-z_][A-Za-z0-9_]*)\s*[:(]`)
	importRe = regexp.MustCompile(`(?m)^\s*import\s+([A-Za-z_][A-Za-z0-9_.]*)(?:\s+as\s+([A-Za-z_][A-Za-z0-9_]*))?`)
	fromRe   = regexp.MustCompile(`(?m)^\s*from\s+(\.*[A-Za-z_][A-Za-z0-9_.]*|\.+)\s+import\s+(.+)`)
)

func (p *Parser) ListFunctions(source string) ([]string, error) {
	var names []string
	for _, m := range defRe.FindAllStringSubmatch(source, -1) {
		names = append(names, m[2])
	}
	return names, nil
}

type decl struct {
	indent int
	offset int
	name   string
	kind   symbol.Kind
}

// ParseSource walks line-by-line tracking indentation depth as the scope
// stack (spec §4.B): a def/class closes when a later non-blank line
// dedents to or below its own indentation.
func (p *Parser) ParseSource(source string) (*symbol.ParseResult, error) {
	var decls []decl
	lineOffsets := computeLineOffsets(source)

	for _, m := range defRe.FindAllStringSubmatchIndex(source, -1) {
		indent := len(source[m[2]:m[3]])
		decls = append(decls, decl{indent: indent, offset: m[0], name: source[m[4]:m[5]], kind: symbol.KindFunction})
	}
	for _, m := range classRe.FindAllStringSubmatchIndex(source, -1) {
		indent := len(source[m[2]:m[3]])
		decls = append(decls, decl{indent: indent, offset: m[0], name: source[m[4]:m[5]], kind: symbol.KindClass})
	}

	// sort by offset (stable single pass order)
	for i := 1; i < len(decls); i++ {
		for j := i; j > 0 && decls[j].offset < decls[j-1].offset; j-- {
			decls[j], decls[j-1] = decls[j-1], decls[j]
		}
	}

	lines := strings.Split(source, "\n")
	var syms []symbol.Symbol
	for _, d := range decls {
		startLine := lineForOffset(lineOffsets, d.offset)
		endLine := len(lines) - 1
		lastNonBlank := startLine
		for ln := startLine + 1; ln < len(lines); ln++ {
			trimmed := strings.TrimRight(lines[ln], " \t\r")
			if strings.TrimSpace(trimmed) == "" {
				continue
			}
			lineIndent := indentOf(lines[ln])
			if lineIndent <= d.indent {
				endLine = lastNonBlank
				break
			}
			lastNonBlank = ln
		}
		end := symbol.Position{Line: endLine, Column: len(lines[endLine])}
		start := parser.PositionAt(source, d.offset)
		syms = append(syms, symbol.Symbol{Name: d.name, Kind: d.kind, Start: start, End: &end})
	}

	// A def nested directly inside a class body is a method rather than a function.
	for i := range syms {
		if syms[i].Kind != symbol.KindFunction {
			continue
		}
		for j := range syms {
			if syms[j].Kind != symbol.KindClass || syms[j].End == nil {
				continue
			}
			if syms[i].Start.Line > syms[j].Start.Line && syms[i].Start.Line <= syms[j].End.Line {
				syms[i].Kind = symbol.KindMethod
				break
			}
		}
	}

	imports, err := p.ParseImports(source)
	if err != nil {
		return nil, err
	}
	return &symbol.ParseResult{Symbols: syms, Imports: imports}, nil
}

func indentOf(line string) int {
	n := 0
	for _, r := range line {
		if r == ' ' || r == '\t' {
			n++
		} else {
			break
		}
	}
	return n
}

func computeLineOffsets(source string) []int {
	offsets := []int{0}
	for i, c := range source {
		if c == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

func lineForOffset(lineOffsets []int, offset int) int {
	lo, hi := 0, len(lineOffsets)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if lineOffsets[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

func (p *Parser) ParseImports(source string) ([]symbol.ImportInfo, error) {
	var out []symbol.ImportInfo
	for _, m := range importRe.FindAllStringSubmatchIndex(source, -1) {
		info := symbol.ImportInfo{
			ModulePath: source[m[2]:m[3]],
			Kind:       symbol.ImportPython,
			Source:     symbol.Range{Start: parser.PositionAt(source, m[0]), End: parser.PositionAt(source, m[1])},
		}
		if m[4] >= 0 {
			info.Named = []symbol.NamedImport{{Name: source[m[2]:m[3]], Alias: source[m[4]:m[5]]}}
		}
		out = append(out, info)
	}
	for _, m := range fromRe.FindAllStringSubmatchIndex(source, -1) {
		modulePath := source[m[2]:m[3]]
		names := source[m[4]:m[5]]
		info := symbol.ImportInfo{
			ModulePath: modulePath,
			Kind:       symbol.ImportPythonFrom,
			Source:     symbol.Range{Start: parser.PositionAt(source, m[0]), End: parser.PositionAt(source, m[1])},
		}
		names = strings.TrimSpace(names)
		names = strings.TrimPrefix(names, "(")
		names = strings.TrimSuffix(names, ")")
		for _, part := range strings.Split(names, ",") {
			part = strings.TrimSpace(part)
			if part == "" || part == "*" {
				continue
			}
			name, alias := part, ""
			if idx := strings.Index(part, " as "); idx >= 0 {
				name = strings.TrimSpace(part[:idx])
				alias = strings.TrimSpace(part[idx+4:])
			}
			info.Named = append(info.Named, symbol.NamedImport{Name: name, Alias: alias})
		}
		out = append(out, info)
	}
	return out, nil
}

// IsExternal implements the Python predicate from spec §3: a module path
// beginning with "." is a relative (internal) import; anything else is
// treated as an external dependency (stdlib/third-party are not
// distinguished here — that distinction is the manifest layer's job).
func (p *Parser) IsExternal(modulePath string) bool {
	return !strings.HasPrefix(modulePath, ".")
}

// IsLiteralLocationSafe tracks triple-quoted and single-quoted string
// state plus '#' comments (spec §4.B).
func (p *Parser) IsLiteralLocationSafe(source string, pos symbol.Position, length int) bool {
	offset := parser.OffsetAt(source, pos)
	if offset < 0 {
		return false
	}
	inTriple := byte(0)
	inString := byte(0)
	inComment := false
	for i := 0; i < offset && i < len(source); i++ {
		c := source[i]
		if inComment {
			if c == '\n' {
				inComment = false
			}
			continue
		}
		if inTriple != 0 {
			if c == inTriple && i+2 < len(source) && source[i+1] == inTriple && source[i+2] == inTriple {
				inTriple = 0
				i += 2
			}
			continue
		}
		if inString != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == inString {
				inString = 0
			}
			continue
		}
		switch {
		case c == '#':
			inComment = true
		case (c == '"' || c == '\'') && i+2 < len(source) && source[i+1] == c && source[i+2] == c:
			inTriple = c
			i += 2
		case c == '"' || c == '\'':
			inString = c
		}
	}
	return inTriple == 0 && inString == 0 && !inComment
}
