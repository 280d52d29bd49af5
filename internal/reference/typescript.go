package reference

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/helixforge/codemill/internal/editplan"
	"github.com/helixforge/codemill/internal/parser"
	"github.com/helixforge/codemill/internal/parser/typescript"
)

// TSDetector implements Detector for TypeScript/JavaScript (spec §4.F table row 1).
type TSDetector struct{}

func NewTSDetector() *TSDetector { return &TSDetector{} }

func (TSDetector) Extensions() []string {
	return []string{"ts", "tsx", "js", "jsx", "mjs", "cjs", "mts", "cts"}
}
func (TSDetector) ManifestNames() []string { return []string{"package.json"} }

var tsSpecifierRe = regexp.MustCompile(`(?:from|require|import)\s*\(?\s*['"]([^'"]+)['"]`)

func (d TSDetector) References(m Move, filePath string, content []byte) (bool, error) {
	base := filepath.Base(filePath)
	if base == "package.json" {
		pkg, err := parsePackageJSONBytes(content)
		if err != nil {
			return false, err
		}
		name := packageName(m.OldPath)
		for _, deps := range []map[string]string{pkg.Dependencies, pkg.DevDependencies, pkg.PeerDependencies, pkg.OptionalDependencies} {
			if _, ok := deps[name]; ok {
				return true, nil
			}
		}
		return false, nil
	}

	src := string(content)
	targetName := packageName(m.OldPath)
	fromDir := filepath.Dir(filePath)
	for _, m2 := range tsSpecifierRe.FindAllStringSubmatch(src, -1) {
		spec := m2[1]
		if resolvesToMovedEntity(spec, fromDir, m) || spec == targetName || strings.HasPrefix(spec, targetName+"/") {
			return true, nil
		}
	}
	return false, nil
}

// resolvesToMovedEntity reports whether a relative specifier, resolved
// against fromDir, lands inside m.OldPath.
func resolvesToMovedEntity(spec, fromDir string, m Move) bool {
	if !strings.HasPrefix(spec, ".") {
		return false
	}
	resolved := filepath.Clean(filepath.Join(fromDir, spec))
	return isWithin(m.OldPath, resolved) || resolved == m.OldPath
}

// TSRewriter computes rewritten specifiers for a moved TS/JS file or package.
type TSRewriter struct {
	Aliases map[string]string // tsconfig.json compilerOptions.paths roots, e.g. "$lib" -> "src/lib"
}

func NewTSRewriter(aliases map[string]string) *TSRewriter { return &TSRewriter{Aliases: aliases} }

func (r TSRewriter) Rewrite(m Move, filePath string, content []byte) ([]editplan.TextEdit, error) {
	src := string(content)
	p := typescript.New()
	imports, err := p.ParseImports(src)
	if err != nil {
		return nil, err
	}
	fromDir := filepath.Dir(filePath)
	var edits []editplan.TextEdit
	for _, imp := range imports {
		var newTarget string
		switch {
		case strings.HasPrefix(imp.ModulePath, "."):
			resolved := filepath.Clean(filepath.Join(fromDir, imp.ModulePath))
			if !isWithin(m.OldPath, resolved) && resolved != m.OldPath {
				continue
			}
			rel, err := filepath.Rel(m.OldPath, resolved)
			if err != nil {
				continue
			}
			newTarget = RelativeSpecifier(fromDir, filepath.Join(m.NewPath, rel))
		case r.aliasRoot(imp.ModulePath) != "":
			aliasPrefix, root := r.aliasMatch(imp.ModulePath)
			resolved := filepath.Join(root, strings.TrimPrefix(imp.ModulePath, aliasPrefix))
			if !isWithin(m.OldPath, resolved) {
				continue
			}
			rel, _ := filepath.Rel(m.OldPath, resolved)
			newTarget = aliasPrefix + filepath.ToSlash(filepath.Join(strings.TrimPrefix(m.NewPath, root), rel))
		case imp.ModulePath == packageName(m.OldPath) || strings.HasPrefix(imp.ModulePath, packageName(m.OldPath)+"/"):
			suffix := strings.TrimPrefix(imp.ModulePath, packageName(m.OldPath))
			newTarget = packageName(m.NewPath) + suffix
		default:
			continue
		}

		original := src[parser.OffsetAt(src, imp.Source.Start):parser.OffsetAt(src, imp.Source.End)]
		quote := byte('"')
		if idx := strings.IndexAny(original, `'"`); idx >= 0 {
			quote = original[idx]
		}
		oldSpecQuoted := string(quote) + imp.ModulePath + string(quote)
		newSpecQuoted := string(quote) + newTarget + string(quote)
		if !strings.Contains(original, oldSpecQuoted) {
			continue
		}
		rewritten := strings.Replace(original, oldSpecQuoted, newSpecQuoted, 1)
		edits = append(edits, editplan.TextEdit{
			FilePath:     filePath,
			EditType:     editplan.Replace,
			Location:     imp.Source,
			OriginalText: original,
			NewText:      rewritten,
			Priority:     80,
			Description:  "rewrite import specifier for moved module",
		})
	}
	return edits, nil
}

func (r TSRewriter) aliasRoot(spec string) string {
	prefix, root := r.aliasMatch(spec)
	if prefix == "" {
		return ""
	}
	return root
}

func (r TSRewriter) aliasMatch(spec string) (prefix, root string) {
	for alias, target := range r.Aliases {
		trimmed := strings.TrimSuffix(alias, "/*")
		if spec == trimmed || strings.HasPrefix(spec, trimmed+"/") {
			return trimmed, strings.TrimSuffix(target, "/*")
		}
	}
	return "", ""
}
