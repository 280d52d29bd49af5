package reference

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

// TestDetectAffectedFindsImportersAndExcludesMovedPath reproduces the
// reference-detector-completeness property from spec §8: every importer of
// the moved package is found, and files inside the moved path itself are
// excluded from the affected set.
func TestDetectAffectedFindsImportersAndExcludesMovedPath(t *testing.T) {
	root := t.TempDir()
	oldPkg := filepath.Join(root, "mypkg")
	require.NoError(t, os.MkdirAll(oldPkg, 0o755))
	writeFile(t, oldPkg, "internal_user.py", "import mypkg\n")

	importer := writeFile(t, root, "app.py", "import mypkg\nfrom mypkg import util\n")
	unrelated := writeFile(t, root, "other.py", "import sys\n")

	m := Move{OldPath: oldPkg, NewPath: filepath.Join(root, "renamedpkg"), ProjectRoot: root}
	files := []string{filepath.Join(oldPkg, "internal_user.py"), importer, unrelated}

	affected, err := DetectAffected(context.Background(), NewPyDetector(), m, files)
	require.NoError(t, err)
	assert.Equal(t, []string{importer}, affected)
}

func TestDetectAffectedDeduplicates(t *testing.T) {
	root := t.TempDir()
	oldPkg := filepath.Join(root, "mypkg")
	require.NoError(t, os.MkdirAll(oldPkg, 0o755))
	importer := writeFile(t, root, "app.py", "import mypkg\nimport mypkg.sub\n")

	m := Move{OldPath: oldPkg, NewPath: filepath.Join(root, "renamedpkg"), ProjectRoot: root}
	affected, err := DetectAffected(context.Background(), NewPyDetector(), m, []string{importer})
	require.NoError(t, err)
	assert.Len(t, affected, 1)
}

func TestDetectAffectedIgnoresUnreadableFiles(t *testing.T) {
	root := t.TempDir()
	oldPkg := filepath.Join(root, "mypkg")
	m := Move{OldPath: oldPkg, NewPath: filepath.Join(root, "renamedpkg"), ProjectRoot: root}

	affected, err := DetectAffected(context.Background(), NewPyDetector(), m, []string{filepath.Join(root, "missing.py")})
	require.NoError(t, err)
	assert.Empty(t, affected)
}

func TestPyRewriterRewritesImportAndFromImport(t *testing.T) {
	root := t.TempDir()
	oldPkg := filepath.Join(root, "mypkg")
	newPkg := filepath.Join(root, "renamed_pkg")
	m := Move{OldPath: oldPkg, NewPath: newPkg, ProjectRoot: root}

	src := "import mypkg\nfrom mypkg.util import helper\n"
	edits, err := NewPyRewriter().Rewrite(m, "app.py", []byte(src))
	require.NoError(t, err)
	require.Len(t, edits, 2)
	assert.Equal(t, "mypkg", edits[0].OriginalText)
	assert.Equal(t, "renamed_pkg", edits[0].NewText)
	assert.Equal(t, "mypkg.util", edits[1].OriginalText)
	assert.Equal(t, "renamed_pkg.util", edits[1].NewText)
}

func TestRelativeSpecifierStripsExtensionAndUsesForwardSlashes(t *testing.T) {
	got := RelativeSpecifier("/proj/src/components", "/proj/src/utils/helper.ts")
	assert.Equal(t, "../utils/helper", got)
}

func TestPreserveQuotePreservesOriginalQuoteChar(t *testing.T) {
	assert.Equal(t, "'../a'", PreserveQuote("'../old'", "../a"))
	assert.Equal(t, `"../a"`, PreserveQuote(`"../old"`, "../a"))
	assert.Equal(t, `"../a"`, PreserveQuote("../old", "../a"))
}
