package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		content := "def f():\n    if True:\n        return 1\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "f"+string(rune('a'+i))+".py"), []byte(content), 0o644))
	}
}

// TestEngineParsesEachFileOnceAcrossQueries reproduces spec §8 scenario 6:
// a batch with three queries scoped to the same directory of 10 files
// parses each file exactly once.
func TestEngineParsesEachFileOnceAcrossQueries(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, 10)

	eng, err := NewEngine(nil, 0)
	require.NoError(t, err)

	scope := Scope{Type: ScopeDirectory, Path: dir}
	req := Request{Queries: []Query{
		{Command: "quality", Kind: "complexity", Scope: scope},
		{Command: "quality", Kind: "smells", Scope: scope},
		{Command: "dead_code", Kind: "unused_imports", Scope: scope},
	}}

	resp, err := eng.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 10, resp.Summary.TotalFiles)
	assert.Equal(t, int64(10), resp.Summary.CacheMisses)
	assert.Equal(t, int64(0), resp.Summary.CacheHits)
	assert.Len(t, resp.Results, 3)

	// Running the batch again against the same engine hits the cache for
	// every file instead of reparsing.
	resp2, err := eng.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(10), resp2.Summary.CacheHits)
}

func TestResolveScopeFileIsSingleton(t *testing.T) {
	files, err := ResolveScope(Scope{Type: ScopeFile, Path: "/tmp/x.py"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/tmp/x.py"}, files)
}

func TestResolveScopeDirectoryHonorsGitignoreAndGlobs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("ignored.py\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.py"), []byte("x = 1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kept.py"), []byte("x = 1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kept.txt"), []byte("x = 1\n"), 0o644))

	files, err := ResolveScope(Scope{Type: ScopeDirectory, Path: dir, IncludeGlobs: []string{"*.py"}})
	require.NoError(t, err)

	var bases []string
	for _, f := range files {
		bases = append(bases, filepath.Base(f))
	}
	assert.Contains(t, bases, "kept.py")
	assert.NotContains(t, bases, "ignored.py")
	assert.NotContains(t, bases, "kept.txt")
}

func TestResolveScopeUnknownTypeIsInvalidRequest(t *testing.T) {
	_, err := ResolveScope(Scope{Type: "bogus"})
	assert.Error(t, err)
}

func TestEngineToleratesFilesWithNoRegisteredProducer(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "untyped.bin"), []byte{0xff, 0xfe}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ok.py"), []byte("x = 1\n"), 0o644))

	eng, err := NewEngine(nil, 0)
	require.NoError(t, err)
	scope := Scope{Type: ScopeDirectory, Path: dir}
	resp, err := eng.Run(context.Background(), Request{Queries: []Query{
		{Command: "quality", Kind: "complexity", Scope: scope},
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Summary.TotalFiles)
}
