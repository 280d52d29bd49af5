package reference

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/helixforge/codemill/internal/editplan"
	"github.com/helixforge/codemill/internal/manifest"
	"github.com/helixforge/codemill/internal/parser"
	"github.com/helixforge/codemill/internal/symbol"
)

// PyDetector implements Detector for Python (spec §4.F table row 2).
type PyDetector struct{}

func NewPyDetector() *PyDetector { return &PyDetector{} }

func (PyDetector) Extensions() []string { return []string{"py"} }
func (PyDetector) ManifestNames() []string {
	return []string{"pyproject.toml", "requirements.txt", "requirements-dev.txt"}
}

var (
	pyImportRe = regexp.MustCompile(`(?m)^\s*import\s+([A-Za-z_][A-Za-z0-9_.]*)`)
	pyFromRe   = regexp.MustCompile(`(?m)^\s*from\s+([A-Za-z_][A-Za-z0-9_.]*)\s+import`)
)

func packageModuleName(oldPath string) string {
	return manifest.NormalizePyName(filepath.Base(oldPath))
}

func (d PyDetector) References(m Move, filePath string, content []byte) (bool, error) {
	base := filepath.Base(filePath)
	target := packageModuleName(m.OldPath)

	if base == "pyproject.toml" {
		p, err := manifest.ParsePyprojectToml(content)
		if err != nil {
			return false, err
		}
		if p.Project != nil {
			for _, dep := range p.Project.Dependencies {
				name := dep
				for _, sep := range []string{"==", ">=", "<=", "~=", "!=", ">", "<", "[", " "} {
					if idx := strings.Index(name, sep); idx >= 0 {
						name = name[:idx]
					}
				}
				if manifest.NormalizePyName(name) == target {
					return true, nil
				}
			}
		}
		if p.Tool != nil && p.Tool.Poetry != nil {
			for name := range p.Tool.Poetry.Dependencies {
				if manifest.NormalizePyName(name) == target {
					return true, nil
				}
			}
		}
		return false, nil
	}

	if strings.HasPrefix(base, "requirements") {
		lines, err := manifest.ParseRequirementsTxt(content)
		if err != nil {
			return false, err
		}
		for _, l := range lines {
			if !l.Comment && manifest.NormalizePyName(l.Name) == target {
				return true, nil
			}
		}
		return false, nil
	}

	src := string(content)
	for _, re := range []*regexp.Regexp{pyImportRe, pyFromRe} {
		for _, mm := range re.FindAllStringSubmatch(src, -1) {
			modulePath := mm[1]
			head := strings.SplitN(modulePath, ".", 2)[0]
			if manifest.NormalizePyName(head) == target {
				return true, nil
			}
		}
	}
	return false, nil
}

// PyRewriter rewrites `import X`/`from X import ...` statements whose head
// module matches the renamed package (spec §4.F).
type PyRewriter struct{}

func NewPyRewriter() *PyRewriter { return &PyRewriter{} }

func (r PyRewriter) Rewrite(m Move, filePath string, content []byte) ([]editplan.TextEdit, error) {
	src := string(content)
	oldName := packageModuleName(m.OldPath)
	newName := manifest.NormalizePyName(filepath.Base(m.NewPath))
	newName = strings.ReplaceAll(newName, "-", "_")
	var edits []editplan.TextEdit

	for _, re := range []*regexp.Regexp{pyImportRe, pyFromRe} {
		for _, mm := range re.FindAllStringSubmatchIndex(src, -1) {
			modulePath := src[mm[2]:mm[3]]
			parts := strings.SplitN(modulePath, ".", 2)
			if manifest.NormalizePyName(parts[0]) != oldName {
				continue
			}
			rest := ""
			if len(parts) > 1 {
				rest = "." + parts[1]
			}
			newModulePath := newName + rest
			edits = append(edits, editplan.TextEdit{
				FilePath:     filePath,
				EditType:     editplan.Replace,
				Location:     symbol.Range{Start: parser.PositionAt(src, mm[2]), End: parser.PositionAt(src, mm[3])},
				OriginalText: modulePath,
				NewText:      newModulePath,
				Priority:     80,
				Description:  "rewrite Python import for renamed package",
			})
		}
	}
	return edits, nil
}
