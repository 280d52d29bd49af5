package reference

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/helixforge/codemill/internal/editplan"
	"github.com/helixforge/codemill/internal/manifest"
	"github.com/helixforge/codemill/internal/parser"
	rustparser "github.com/helixforge/codemill/internal/parser/rust"
	"github.com/helixforge/codemill/internal/symbol"
)

// RustDetector implements Detector for Rust (spec §4.F table row 3).
type RustDetector struct{}

func NewRustDetector() *RustDetector { return &RustDetector{} }

func (RustDetector) Extensions() []string      { return []string{"rs"} }
func (RustDetector) ManifestNames() []string   { return []string{"Cargo.toml"} }

var useRe = regexp.MustCompile(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?use\s+([^;]+);`)

func crateName(oldPath string) string {
	name := filepath.Base(oldPath)
	return strings.ReplaceAll(name, "-", "_")
}

func (d RustDetector) References(m Move, filePath string, content []byte) (bool, error) {
	target := actualCrateName(nearestCrateRoot(m.OldPath), m.OldPath)
	base := filepath.Base(filePath)

	if base == "Cargo.toml" {
		c, err := manifest.ParseCargoToml(content)
		if err != nil {
			return false, err
		}
		if c.Workspace != nil {
			for _, mem := range c.Workspace.Members {
				if mem == m.OldPath || filepath.Base(mem) == filepath.Base(m.OldPath) {
					return true, nil
				}
			}
		}
		if _, ok := c.Dependencies[target]; ok {
			return true, nil
		}
		return false, nil
	}

	src := string(content)
	for _, mm := range useRe.FindAllStringSubmatch(src, -1) {
		tree := rustparser.ParseUseTree(mm[1])
		if len(tree.Segments) > 0 && strings.ReplaceAll(tree.Segments[0], "-", "_") == target {
			return true, nil
		}
	}
	return false, nil
}

// RustRewriter performs segment-aware rewriting of `use` trees (spec §4.F:
// "For Rust use trees, rewriting is segment-aware... cross-crate moves
// replace the whole prefix; same-crate moves slice from the match depth").
type RustRewriter struct{}

func NewRustRewriter() *RustRewriter { return &RustRewriter{} }

func (r RustRewriter) Rewrite(m Move, filePath string, content []byte) ([]editplan.TextEdit, error) {
	src := string(content)
	crateRoot := nearestCrateRoot(m.OldPath)
	oldCrate := actualCrateName(crateRoot, m.OldPath)
	// A move stays within the same crate when the new location is still
	// under the old crate's root; otherwise the crate itself changed (a
	// package rename or a move to a different crate entirely) and the new
	// identity is taken from the new path's own basename, the way a plain
	// directory rename is named throughout this package.
	crossCrate := crateRoot == "" || !isWithin(crateRoot, m.NewPath)
	newCrate := crateName(m.NewPath)
	if !crossCrate {
		newCrate = oldCrate
	}

	var edits []editplan.TextEdit
	for _, mm := range useRe.FindAllStringSubmatchIndex(src, -1) {
		body := src[mm[2]:mm[3]]
		tree := rustparser.ParseUseTree(body)
		if len(tree.Segments) == 0 || strings.ReplaceAll(tree.Segments[0], "-", "_") != oldCrate {
			continue
		}

		var newSegments []string
		if crossCrate {
			// Cross-crate move: replace the whole crate-name prefix, keep the
			// rest of the path untouched.
			newSegments = append([]string{newCrate}, tree.Segments[1:]...)
		} else {
			// Same-crate move: the crate's own name is unchanged, but the
			// moved file's position inside src/ may still shift an inner
			// module path segment (spec §9: a::b::c -> a::d::c when b is
			// renamed/moved to d within the same crate). Splice the old
			// module path wherever it occurs in the use tree for the new one.
			oldMod := modulePathSegments(crateRoot, m.OldPath)
			newMod := modulePathSegments(crateRoot, m.NewPath)
			newSegments = spliceModulePath(tree.Segments, oldMod, newMod)
		}

		if equalSegments(newSegments, tree.Segments) {
			continue
		}

		newBody := rebuildUseBody(newSegments, body)
		edits = append(edits, editplan.TextEdit{
			FilePath:     filePath,
			EditType:     editplan.Replace,
			Location:     symbol.Range{Start: parser.PositionAt(src, mm[2]), End: parser.PositionAt(src, mm[3])},
			OriginalText: body,
			NewText:      newBody,
			Priority:     80,
			Description:  "rewrite Rust use path for moved crate",
		})
	}
	return edits, nil
}

func equalSegments(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// rebuildUseBody replaces the plain `::`-joined path chain of body (a raw
// `use` path, possibly followed by a trailing `{...}` group, ` as` alias, or
// `*` glob) with newSegments, preserving the trailing construct verbatim.
func rebuildUseBody(newSegments []string, body string) string {
	trimmed := strings.TrimSpace(body)
	cut := pathChainEnd(trimmed)
	prefix := strings.TrimSuffix(trimmed[:cut], "::")
	rest := trimmed[len(prefix):]
	return strings.Join(newSegments, "::") + rest
}

// pathChainEnd finds where the plain path chain stops and a trailing group,
// alias, or glob construct begins; those never appear nested inside an
// earlier segment, so the first occurrence of any marker wins.
func pathChainEnd(trimmed string) int {
	end := len(trimmed)
	for _, marker := range []string{" as ", "{", "*"} {
		if idx := strings.Index(trimmed, marker); idx >= 0 && idx < end {
			end = idx
		}
	}
	return end
}

// modulePathSegments derives the module path (excluding the crate name
// itself) that movedPath represents within crateRoot, from its location
// relative to the crate's src/ directory: nested directories become
// nested modules, and mod.rs/lib.rs/main.rs contribute no segment of
// their own. Returns nil if crateRoot is empty or movedPath falls outside
// crateRoot's src/ tree.
func modulePathSegments(crateRoot, movedPath string) []string {
	if crateRoot == "" {
		return nil
	}
	rel, err := filepath.Rel(filepath.Join(crateRoot, "src"), movedPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil
	}
	rel = strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))
	var segs []string
	for _, p := range strings.Split(rel, "/") {
		switch p {
		case "", ".", "mod", "lib", "main":
			continue
		}
		segs = append(segs, p)
	}
	return segs
}

// nearestCrateRoot walks upward from path looking for the Cargo.toml of the
// crate that contains it, starting at path itself (so a crate-root
// directory resolves to itself, and a nested file resolves to its crate).
func nearestCrateRoot(path string) string {
	cur := path
	for {
		if _, err := os.Stat(filepath.Join(cur, "Cargo.toml")); err == nil {
			return cur
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return ""
		}
		cur = parent
	}
}

// actualCrateName resolves the crate name governing movedPath given its
// crateRoot (from nearestCrateRoot): the package name declared in
// crateRoot's Cargo.toml, falling back to movedPath's own basename when
// crateRoot is empty or carries no usable [package] name.
func actualCrateName(crateRoot, movedPath string) string {
	if crateRoot == "" {
		return crateName(movedPath)
	}
	if content, err := os.ReadFile(filepath.Join(crateRoot, "Cargo.toml")); err == nil {
		if c, err := manifest.ParseCargoToml(content); err == nil {
			if name, ok := c.Package["name"].(string); ok && name != "" {
				return strings.ReplaceAll(name, "-", "_")
			}
		}
	}
	return crateName(crateRoot)
}

// spliceModulePath replaces the first contiguous run matching oldMod found
// within segments[1:] (segments[0] is the crate name) with newMod, leaving
// the crate name and everything outside the match untouched. When oldMod
// doesn't occur, segments is returned unchanged.
func spliceModulePath(segments, oldMod, newMod []string) []string {
	if len(oldMod) == 0 {
		return segments
	}
	for start := 1; start+len(oldMod) <= len(segments); start++ {
		match := true
		for i, seg := range oldMod {
			if segments[start+i] != seg {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		out := make([]string, 0, len(segments)-len(oldMod)+len(newMod))
		out = append(out, segments[:start]...)
		out = append(out, newMod...)
		out = append(out, segments[start+len(oldMod):]...)
		return out
	}
	return segments
}
