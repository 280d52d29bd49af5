// Package svelte implements the Producer contract for .svelte files
// (spec §4.B) by delegating to the TypeScript/JavaScript parser for the
// contents of <script> blocks, grounded on original_source's
// mill-lang-svelte/src/import_support.rs.
package svelte

import (
	"regexp"

	"github.com/helixforge/codemill/internal/parser"
	"github.com/helixforge/codemill/internal/parser/typescript"
	"github.com/helixforge/codemill/internal/symbol"
)

type Parser struct {
	ts *typescript.Parser
}

func New() *Parser { return &Parser{ts: typescript.New()} }

var scriptBlockRe = regexp.MustCompile(`(?is)<script[^>]*>(.*?)</script>`)

// scriptBlocks returns each <script> block's inner text plus the byte
// offset in the full document where that text begins, so positions
// computed against the extracted block can be translated back.
func scriptBlocks(source string) []struct {
	text   string
	offset int
} {
	var out []struct {
		text   string
		offset int
	}
	for _, m := range scriptBlockRe.FindAllStringSubmatchIndex(source, -1) {
		out = append(out, struct {
			text   string
			offset int
		}{text: source[m[2]:m[3]], offset: m[2]})
	}
	return out
}

func (p *Parser) ListFunctions(source string) ([]string, error) {
	var names []string
	for _, b := range scriptBlocks(source) {
		n, err := p.ts.ListFunctions(b.text)
		if err != nil {
			return nil, err
		}
		names = append(names, n...)
	}
	return names, nil
}

func (p *Parser) ParseSource(source string) (*symbol.ParseResult, error) {
	result := &symbol.ParseResult{}
	for _, b := range scriptBlocks(source) {
		sub, err := p.ts.ParseSource(b.text)
		if err != nil {
			return nil, err
		}
		prefix := parser.PositionAt(source, b.offset)
		for _, s := range sub.Symbols {
			s.Start = offsetPosition(prefix, s.Start)
			if s.End != nil {
				e := offsetPosition(prefix, *s.End)
				s.End = &e
			}
			result.Symbols = append(result.Symbols, s)
		}
		for _, im := range sub.Imports {
			im.Source.Start = offsetPosition(prefix, im.Source.Start)
			im.Source.End = offsetPosition(prefix, im.Source.End)
			result.Imports = append(result.Imports, im)
		}
	}
	return result, nil
}

// offsetPosition translates a position computed relative to a <script>
// block's own text back into document coordinates.
func offsetPosition(blockStart, pos symbol.Position) symbol.Position {
	if pos.Line == 0 {
		return symbol.Position{Line: blockStart.Line, Column: blockStart.Column + pos.Column}
	}
	return symbol.Position{Line: blockStart.Line + pos.Line, Column: pos.Column}
}

func (p *Parser) ParseImports(source string) ([]symbol.ImportInfo, error) {
	result, err := p.ParseSource(source)
	if err != nil {
		return nil, err
	}
	return result.Imports, nil
}

func (p *Parser) IsExternal(modulePath string) bool { return p.ts.IsExternal(modulePath) }

func (p *Parser) IsLiteralLocationSafe(source string, pos symbol.Position, length int) bool {
	for _, b := range scriptBlocks(source) {
		start := parser.PositionAt(source, b.offset)
		end := parser.PositionAt(source, b.offset+len(b.text))
		if pos.Less(start) || !pos.Less(end) {
			continue
		}
		return p.ts.IsLiteralLocationSafe(b.text, blockRelative(start, pos), length)
	}
	return false
}

// blockRelative translates a document-relative position into one relative
// to a <script> block's own text, the inverse of offsetPosition.
func blockRelative(blockStart, pos symbol.Position) symbol.Position {
	if pos.Line == blockStart.Line {
		return symbol.Position{Line: 0, Column: pos.Column - blockStart.Column}
	}
	return symbol.Position{Line: pos.Line - blockStart.Line, Column: pos.Column}
}
