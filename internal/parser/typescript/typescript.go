// Package typescript implements the Producer contract for TypeScript and
// JavaScript sources (spec §4.B), grounded on original_source's
// languages/mill-lang-typescript parser and reference_detector crates: a
// single regex-driven pass over the text with a brace-depth scope stack,
// not a full grammar parser.
package typescript

import (
	"regexp"
	"strings"

	"github.com/helixforge/codemill/internal/parser"
	"github.com/helixforge/codemill/internal/symbol"
)

type Parser struct{}

func New() *Parser { return &Parser{} }

var (
	functionDeclRe = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:async\s+)?function\s*\*?\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*\(`)
	arrowFuncRe    = regexp.MustCompile(`(?m)^\s*(?:export\s+)?const\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*(?::[^=]+)?=\s*(?:async\s*)?\([^)]*\)\s*(?::[^=>]+)?=>`)
	classDeclRe    = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
	interfaceRe    = regexp.MustCompile(`(?m)^\s*(?:export\s+)?interface\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
	methodDeclRe   = regexp.MustCompile(`(?m)^\s*(?:public|private|protected|static|async|readonly|\s)*([A-Za-z_$][A-Za-z0-9_$]*)\s*\([^)]*\)\s*(?::[^{;]+)?\{`)

	namedImportRe = regexp.MustCompile(`(?m)^\s*import\s+(?:type\s+)?(?:([A-Za-z_$][A-Za-z0-9_$]*)\s*,\s*)?(?:\{([^}]*)\}|\*\s+as\s+([A-Za-z_$][A-Za-z0-9_$]*))?\s*from\s*['"]([^'"]+)['"]`)
	bareImportRe  = regexp.MustCompile(`(?m)^\s*import\s+(?:type\s+)?([A-Za-z_$][A-Za-z0-9_$]*)\s+from\s*['"]([^'"]+)['"]`)
	sideEffectRe  = regexp.MustCompile(`(?m)^\s*import\s*['"]([^'"]+)['"]`)
	requireRe     = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)
	dynImportRe   = regexp.MustCompile(`import\(\s*['"]([^'"]+)['"]\s*\)`)
)

func (p *Parser) ListFunctions(source string) ([]string, error) {
	var names []string
	for _, m := range functionDeclRe.FindAllStringSubmatch(source, -1) {
		names = append(names, m[1])
	}
	for _, m := range arrowFuncRe.FindAllStringSubmatch(source, -1) {
		names = append(names, m[1])
	}
	return names, nil
}

func (p *Parser) ParseSource(source string) (*symbol.ParseResult, error) {
	symbols := p.extractSymbols(source)
	imports, err := p.ParseImports(source)
	if err != nil {
		return nil, err
	}
	return &symbol.ParseResult{Symbols: symbols, Imports: imports}, nil
}

// extractSymbols does the single-pass walk: every top-level declaration
// found by the regex table becomes a Symbol with Start set from its match
// offset; End is computed by scanning forward for the matching closing
// brace so nested methods inside a class correctly attribute an End
// (spec §4.B "scope stack tracks nested function/class bodies").
func (p *Parser) extractSymbols(source string) []symbol.Symbol {
	type find struct {
		offset int
		name   string
		kind   symbol.Kind
	}
	var finds []find
	for _, m := range functionDeclRe.FindAllStringSubmatchIndex(source, -1) {
		finds = append(finds, find{offset: m[0], name: source[m[2]:m[3]], kind: symbol.KindFunction})
	}
	for _, m := range arrowFuncRe.FindAllStringSubmatchIndex(source, -1) {
		finds = append(finds, find{offset: m[0], name: source[m[2]:m[3]], kind: symbol.KindFunction})
	}
	for _, m := range classDeclRe.FindAllStringSubmatchIndex(source, -1) {
		finds = append(finds, find{offset: m[0], name: source[m[2]:m[3]], kind: symbol.KindClass})
	}
	for _, m := range interfaceRe.FindAllStringSubmatchIndex(source, -1) {
		finds = append(finds, find{offset: m[0], name: source[m[2]:m[3]], kind: symbol.KindInterface})
	}

	symbolsByOffset := map[int]bool{}
	for _, f := range finds {
		symbolsByOffset[f.offset] = true
	}

	var syms []symbol.Symbol
	for _, f := range finds {
		braceOpen := strings.IndexByte(source[f.offset:], '{')
		var end *symbol.Position
		if braceOpen >= 0 {
			absOpen := f.offset + braceOpen
			closeOff := matchingBrace(source, absOpen)
			if closeOff >= 0 {
				p := parser.PositionAt(source, closeOff+1)
				end = &p
			}
		}
		syms = append(syms, symbol.Symbol{
			Name:  f.name,
			Kind:  f.kind,
			Start: parser.PositionAt(source, f.offset),
			End:   end,
		})
	}

	// Class methods: scan inside each class's body for method-shaped lines
	// not already claimed as a top-level function/class/interface.
	for _, m := range classDeclRe.FindAllStringSubmatchIndex(source, -1) {
		braceOpen := strings.IndexByte(source[m[0]:], '{')
		if braceOpen < 0 {
			continue
		}
		absOpen := m[0] + braceOpen
		closeOff := matchingBrace(source, absOpen)
		if closeOff < 0 {
			continue
		}
		body := source[absOpen+1 : closeOff]
		for _, mm := range methodDeclRe.FindAllStringSubmatchIndex(body, -1) {
			name := body[mm[2]:mm[3]]
			if name == "constructor" || name == "if" || name == "for" || name == "while" || name == "switch" {
				continue
			}
			methodAbsOffset := absOpen + 1 + mm[0]
			if symbolsByOffset[methodAbsOffset] {
				continue
			}
			methodBraceOpen := strings.IndexByte(body[mm[0]:], '{')
			var end *symbol.Position
			if methodBraceOpen >= 0 {
				absMethodOpen := absOpen + 1 + mm[0] + methodBraceOpen
				mClose := matchingBrace(source, absMethodOpen)
				if mClose >= 0 {
					p := parser.PositionAt(source, mClose+1)
					end = &p
				}
			}
			syms = append(syms, symbol.Symbol{
				Name:  name,
				Kind:  symbol.KindMethod,
				Start: parser.PositionAt(source, methodAbsOffset),
				End:   end,
			})
		}
	}

	return syms
}

// matchingBrace finds the offset of the closing brace matching the '{' at
// openOffset, honoring nesting.
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

func (p *Parser) ParseImports(source string) ([]symbol.ImportInfo, error) {
	var out []symbol.ImportInfo

	for _, m := range namedImportRe.FindAllStringSubmatchIndex(source, -1) {
		modulePath := source[m[8]:m[9]]
		rng := matchRange(source, m[0], m[1])
		info := symbol.ImportInfo{ModulePath: modulePath, Source: rng}
		if m[2] >= 0 {
			info.Default = source[m[2]:m[3]]
			info.Kind = symbol.ImportESModuleDefault
		}
		if m[6] >= 0 {
			info.Namespace = source[m[6]:m[7]]
			info.Kind = symbol.ImportESModuleNamespace
		}
		if m[4] >= 0 {
			info.Kind = symbol.ImportESModuleNamed
			for _, part := range strings.Split(source[m[4]:m[5]], ",") {
				part = strings.TrimSpace(part)
				if part == "" {
					continue
				}
				typeOnly := false
				if strings.HasPrefix(part, "type ") {
					typeOnly = true
					part = strings.TrimSpace(strings.TrimPrefix(part, "type "))
				}
				name, alias := part, ""
				if idx := strings.Index(part, " as "); idx >= 0 {
					name = strings.TrimSpace(part[:idx])
					alias = strings.TrimSpace(part[idx+4:])
				}
				info.Named = append(info.Named, symbol.NamedImport{Name: name, Alias: alias, TypeOnly: typeOnly})
			}
		}
		out = append(out, info)
	}

	for _, m := range bareImportRe.FindAllStringSubmatchIndex(source, -1) {
		out = append(out, symbol.ImportInfo{
			ModulePath: source[m[4]:m[5]],
			Kind:       symbol.ImportESModuleDefault,
			Default:    source[m[2]:m[3]],
			Source:     matchRange(source, m[0], m[1]),
		})
	}

	for _, m := range sideEffectRe.FindAllStringSubmatchIndex(source, -1) {
		out = append(out, symbol.ImportInfo{
			ModulePath: source[m[2]:m[3]],
			Kind:       symbol.ImportESModuleNamed,
			Source:     matchRange(source, m[0], m[1]),
		})
	}

	for _, m := range requireRe.FindAllStringSubmatchIndex(source, -1) {
		out = append(out, symbol.ImportInfo{
			ModulePath: source[m[2]:m[3]],
			Kind:       symbol.ImportCommonJSRequire,
			Source:     matchRange(source, m[0], m[1]),
		})
	}

	for _, m := range dynImportRe.FindAllStringSubmatchIndex(source, -1) {
		out = append(out, symbol.ImportInfo{
			ModulePath: source[m[2]:m[3]],
			Kind:       symbol.ImportCommonJSRequire,
			Source:     matchRange(source, m[0], m[1]),
		})
	}

	return out, nil
}

func matchRange(source string, start, end int) symbol.Range {
	return symbol.Range{Start: parser.PositionAt(source, start), End: parser.PositionAt(source, end)}
}

// IsExternal implements the TS/JS external-dependency predicate: anything
// not relative (./ or ../) and not an absolute filesystem path is an
// external (or alias-rooted) specifier (spec §3).
func (p *Parser) IsExternal(modulePath string) bool {
	return !strings.HasPrefix(modulePath, ".") && !strings.HasPrefix(modulePath, "/")
}

// IsLiteralLocationSafe walks source up to pos+length tracking string/
// comment state so extract-constant never rewrites inside a string or
// comment (spec §4.B literal-location predicate).
func (p *Parser) IsLiteralLocationSafe(source string, pos symbol.Position, length int) bool {
	offset := parser.OffsetAt(source, pos)
	if offset < 0 {
		return false
	}
	inString := byte(0)
	inLineComment := false
	inBlockComment := false
	inTemplate := false
	templateExprDepth := 0
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
		if inTemplate {
			if c == '\\' {
				i++
				continue
			}
			if c == '$' && i+1 < len(source) && source[i+1] == '{' {
				templateExprDepth++
				i++
				continue
			}
			if templateExprDepth > 0 {
				if c == '}' {
					templateExprDepth--
				}
				continue
			}
			if c == '`' {
				inTemplate = false
			}
			continue
		}
		switch c {
		case '"', '\'':
			inString = c
		case '`':
			inTemplate = true
		case '/':
			if i+1 < len(source) {
				if source[i+1] == '/' {
					inLineComment = true
				} else if source[i+1] == '*' {
					inBlockComment = true
				}
			}
		}
	}
	return inString == 0 && !inLineComment && !inBlockComment && (!inTemplate || templateExprDepth > 0)
}
