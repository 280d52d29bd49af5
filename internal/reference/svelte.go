package reference

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/helixforge/codemill/internal/editplan"
)

// SvelteDetector implements Detector for .svelte files, delegating specifier
// scanning to the TypeScript detector for each file's <script> content plus
// the $lib alias (spec §4.F Svelte row).
type SvelteDetector struct {
	inner TSDetector
}

func NewSvelteDetector() *SvelteDetector { return &SvelteDetector{} }

func (SvelteDetector) Extensions() []string      { return []string{"svelte"} }
func (SvelteDetector) ManifestNames() []string   { return []string{"svelte.config.js", "svelte.config.cjs"} }

func (d SvelteDetector) References(m Move, filePath string, content []byte) (bool, error) {
	if strings.Contains(string(content), "$lib") {
		lib := nearestLibRoot(filepath.Dir(filePath))
		resolved := resolveLibSpecifier(content, lib)
		for _, r := range resolved {
			if isWithin(m.OldPath, r) || r == m.OldPath {
				return true, nil
			}
		}
	}
	return d.inner.References(m, filePath, content)
}

// SvelteRewriter rewrites relative and $lib-aliased specifiers inside
// .svelte <script> blocks for a moved file, resolving $lib against the
// nearest enclosing svelte.config.* (SPEC_FULL.md §12 item 3, resolving
// spec.md's own open question: "nearest enclosing wins, root config is the
// default nearest-enclosing for files outside any nested config").
type SvelteRewriter struct{}

func NewSvelteRewriter() *SvelteRewriter { return &SvelteRewriter{} }

func (r SvelteRewriter) Rewrite(m Move, filePath string, content []byte) ([]editplan.TextEdit, error) {
	libRoot := nearestLibRoot(filepath.Dir(filePath))
	aliases := map[string]string{}
	if libRoot != "" {
		aliases["$lib"] = libRoot
	}
	ts := TSRewriter{Aliases: aliases}
	return ts.Rewrite(m, filePath, content)
}

// nearestLibRoot walks upward from dir, up to the filesystem root, looking
// for a svelte.config.js or svelte.config.cjs; the closest enclosing
// config wins, so a project root config applies to files that have no
// nested config of their own. It returns "" when no config is found.
func nearestLibRoot(dir string) string {
	cur := dir
	for {
		for _, name := range []string{"svelte.config.js", "svelte.config.cjs"} {
			if _, err := os.Stat(filepath.Join(cur, name)); err == nil {
				return filepath.Join(cur, "src", "lib")
			}
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}
	return ""
}

// resolveLibSpecifier finds every `$lib/...` specifier in content and
// resolves it against libRoot, for reference-detection purposes.
func resolveLibSpecifier(content []byte, libRoot string) []string {
	if libRoot == "" {
		return nil
	}
	var out []string
	src := string(content)
	idx := 0
	for {
		pos := strings.Index(src[idx:], "$lib")
		if pos < 0 {
			break
		}
		start := idx + pos
		end := start + len("$lib")
		for end < len(src) && src[end] != '\'' && src[end] != '"' && src[end] != '`' {
			end++
		}
		rel := strings.TrimPrefix(src[start:end], "$lib")
		rel = strings.TrimPrefix(rel, "/")
		out = append(out, filepath.Join(libRoot, rel))
		idx = end
	}
	return out
}
