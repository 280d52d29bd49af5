package editplan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixforge/codemill/internal/engineerr"
	"github.com/helixforge/codemill/internal/symbol"
)

func rng(l1, c1, l2, c2 int) symbol.Range {
	return symbol.Range{Start: symbol.Position{Line: l1, Column: c1}, End: symbol.Position{Line: l2, Column: c2}}
}

func TestNewPlanCarriesMetadata(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := New("main.go", "rename_symbol", map[string]interface{}{"old": "a"}, now)
	assert.Equal(t, "main.go", p.SourceFile)
	assert.Equal(t, "rename_symbol", p.Metadata.Intent)
	assert.Equal(t, now, p.Metadata.CreatedAt)
	assert.Empty(t, p.Edits)
}

func TestAddEditRejectsOverlapSameFile(t *testing.T) {
	p := New("main.go", "x", nil, time.Now())
	require.NoError(t, p.AddEdit(TextEdit{EditType: Replace, Location: rng(0, 0, 0, 5), NewText: "a"}))

	err := p.AddEdit(TextEdit{EditType: Replace, Location: rng(0, 3, 0, 8), NewText: "b"})
	require.Error(t, err)
	assert.True(t, engineerr.Is(err, engineerr.Internal))
}

func TestAddEditAllowsAdjacentNonOverlapping(t *testing.T) {
	p := New("main.go", "x", nil, time.Now())
	require.NoError(t, p.AddEdit(TextEdit{EditType: Replace, Location: rng(0, 0, 0, 5), NewText: "a"}))
	require.NoError(t, p.AddEdit(TextEdit{EditType: Replace, Location: rng(0, 5, 0, 10), NewText: "b"}),
		"half-open ranges sharing only an endpoint must be accepted as non-overlapping")
}

func TestAddEditAllowsOverlapAcrossDifferentFiles(t *testing.T) {
	p := New("main.go", "x", nil, time.Now())
	require.NoError(t, p.AddEdit(TextEdit{EditType: Replace, Location: rng(0, 0, 0, 5), NewText: "a"}))
	require.NoError(t, p.AddEdit(TextEdit{
		FilePath: "other.go", EditType: Replace, Location: rng(0, 0, 0, 5), NewText: "b",
	}), "overlap across distinct files is not a same-file invariant violation")
}

func TestByFileGroupsByTargetResolvingEmptyFilePath(t *testing.T) {
	p := New("main.go", "x", nil, time.Now())
	require.NoError(t, p.AddEdit(TextEdit{EditType: Replace, Location: rng(0, 0, 0, 1), NewText: "a"}))
	require.NoError(t, p.AddEdit(TextEdit{FilePath: "other.go", EditType: Replace, Location: rng(0, 0, 0, 1), NewText: "b"}))

	byFile := p.ByFile()
	assert.Len(t, byFile["main.go"], 1)
	assert.Len(t, byFile["other.go"], 1)
}

func TestAddDependencyUpdateAndValidation(t *testing.T) {
	p := New("pkg/mod.py", "move", nil, time.Now())
	p.AddDependencyUpdate(DependencyUpdate{TargetFile: "pyproject.toml", Kind: DepUpdate, Name: "requests"})
	p.AddValidation(ValidationRule{Kind: ValidationSyntaxCheck, Target: "python"})

	assert.Len(t, p.DependencyUpdates, 1)
	assert.Len(t, p.Validations, 1)
	assert.Equal(t, ValidationSyntaxCheck, p.Validations[0].Kind)
}
