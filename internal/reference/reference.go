// Package reference implements the per-language Reference Detector &
// Rewriter (spec §4.F): given a file or package move/rename, find every
// other file that references it and compute the rewritten import
// specifier. Detection fans out concurrently across project files via
// golang.org/x/sync/errgroup, grounded on the concurrency pattern spec
// §5 requires ("each file checked concurrently") and used the same way
// in the quorum-ai/codenerd/inos_v1 examples.
package reference

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/helixforge/codemill/internal/editplan"
	"github.com/helixforge/codemill/internal/manifest"
)

// Move describes a rename/move operation being planned.
type Move struct {
	OldPath     string // absolute path, file or directory
	NewPath     string
	ProjectRoot string
}

// Detector is the per-language contract spec §4.F names.
type Detector interface {
	// Extensions lists the file extensions (no dot) and manifest base
	// names this detector scans.
	Extensions() []string
	ManifestNames() []string
	// References reports whether file content references the moved entity.
	References(m Move, filePath string, content []byte) (bool, error)
}

// Rewriter computes the TextEdits needed in one affected file.
type Rewriter interface {
	Rewrite(m Move, filePath string, content []byte) ([]editplan.TextEdit, error)
}

// DetectAffected scans projectFiles concurrently and returns the
// deduplicated subset that reference the moved entity (spec §4.F,
// §8 "Reference detector completeness"). Files inside the moved path
// itself are excluded, per spec §8's second completeness property.
func DetectAffected(ctx context.Context, d Detector, m Move, projectFiles []string) ([]string, error) {
	extSet := map[string]bool{}
	for _, e := range d.Extensions() {
		extSet[e] = true
	}
	manifestSet := map[string]bool{}
	for _, n := range d.ManifestNames() {
		manifestSet[n] = true
	}

	var candidates []string
	for _, f := range projectFiles {
		if isWithin(m.OldPath, f) {
			continue
		}
		ext := strings.TrimPrefix(filepath.Ext(f), ".")
		base := filepath.Base(f)
		if extSet[ext] || manifestSet[base] || (len(manifestSet) > 0 && hasManifestPrefix(base, d.ManifestNames())) {
			candidates = append(candidates, f)
		}
	}

	results := make([]bool, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	for i, f := range candidates {
		i, f := i, f
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			content, err := os.ReadFile(f)
			if err != nil {
				return nil // unreadable files are simply not affected
			}
			ok, err := d.References(m, f, content)
			if err != nil {
				return nil // a per-file parse failure does not fail the whole scan
			}
			mu.Lock()
			results[i] = ok
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var affected []string
	seen := map[string]bool{}
	for i, f := range candidates {
		if results[i] && !seen[f] {
			affected = append(affected, f)
			seen[f] = true
		}
	}
	return affected, nil
}

func hasManifestPrefix(base string, names []string) bool {
	for _, n := range names {
		if strings.HasPrefix(n, "requirements") && strings.HasPrefix(base, "requirements") && strings.HasSuffix(base, ".txt") {
			return true
		}
	}
	return false
}

func isWithin(root, file string) bool {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && rel != "")
}

// RelativeSpecifier recomputes a "./x" or "../y" specifier from fromDir to
// target, always using forward slashes (ecosystem convention regardless of
// host OS) and stripping any trailing source-file extension (spec §4.F
// "Import extension handling").
func RelativeSpecifier(fromDir, target string) string {
	rel, err := filepath.Rel(fromDir, target)
	if err != nil {
		rel = target
	}
	rel = filepath.ToSlash(rel)
	rel = stripKnownExt(rel)
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	return rel
}

func stripKnownExt(p string) string {
	for _, ext := range []string{".tsx", ".ts", ".jsx", ".js", ".mjs", ".cjs", ".mts", ".cts"} {
		if strings.HasSuffix(p, ext) {
			return strings.TrimSuffix(p, ext)
		}
	}
	return p
}

// PreserveQuote re-wraps newSpecifier in the same quote character the
// original specifier used (spec §4.F "Quote style").
func PreserveQuote(original, newSpecifier string) string {
	if len(original) > 0 && (original[0] == '\'' || original[0] == '"') {
		q := string(original[0])
		return q + newSpecifier + q
	}
	return `"` + newSpecifier + `"`
}

// packageName resolves the effective package name for a directory: the
// package.json "name" field if present, else the directory base name
// (spec §4.F TS/JS rule).
func packageName(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err == nil {
		if pkg, perr := manifest.ParsePackageJSON(data); perr == nil && pkg.Name != "" {
			return pkg.Name
		}
	}
	return filepath.Base(dir)
}

// joinPosix joins path elements with forward slashes regardless of host OS,
// matching module-specifier conventions.
func joinPosix(elems ...string) string { return path.Join(elems...) }

func parsePackageJSONBytes(content []byte) (*manifest.PackageJSON, error) {
	return manifest.ParsePackageJSON(content)
}
