package inlinevar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixforge/codemill/internal/editplan"
	"github.com/helixforge/codemill/internal/parser"
)

// TestAnalyzeInlinesSimplePythonAssignment reproduces spec §8 scenario 2:
// inline a variable used exactly once, with no side effects and no branch
// boundary between declaration and use.
func TestAnalyzeInlinesSimplePythonAssignment(t *testing.T) {
	src := "def f():\n    total = a + b\n    return total * 2\n"
	declOffset := len("def f():\n") + len("    total = ")
	pos := parser.PositionAt(src, declOffset)

	a := Analyze(src, pos, parser.OffsetAt, parser.PositionAt)
	require.True(t, a.Safe, a.UnsafeReason)
	assert.Equal(t, "total", a.Name)
	assert.Equal(t, "a + b", a.Initializer)
	require.Len(t, a.Usages, 1)
}

func TestAnalyzeUnsafeWhenReassigned(t *testing.T) {
	src := "def f():\n    x = 1\n    x = 2\n    return x\n"
	declOffset := len("def f():\n    ")
	pos := parser.PositionAt(src, declOffset)

	a := Analyze(src, pos, parser.OffsetAt, parser.PositionAt)
	assert.False(t, a.Safe)
	assert.Contains(t, a.UnsafeReason, "reassigned")
}

func TestAnalyzeUnsafeWhenInitializerHasSideEffectingCall(t *testing.T) {
	src := "def f():\n    x = fetch_data()\n    return x\n"
	declOffset := len("def f():\n    ")
	pos := parser.PositionAt(src, declOffset)

	a := Analyze(src, pos, parser.OffsetAt, parser.PositionAt)
	assert.False(t, a.Safe)
	assert.Contains(t, a.UnsafeReason, "side effects")
}

func TestAnalyzeSafeWithPureBuiltinCall(t *testing.T) {
	src := "def f(items):\n    n = len(items)\n    return n\n"
	declOffset := len("def f(items):\n    ")
	pos := parser.PositionAt(src, declOffset)

	a := Analyze(src, pos, parser.OffsetAt, parser.PositionAt)
	require.True(t, a.Safe, a.UnsafeReason)
}

func TestAnalyzeUnsafeWhenNoUsages(t *testing.T) {
	src := "def f():\n    x = 1\n    return 2\n"
	declOffset := len("def f():\n    ")
	pos := parser.PositionAt(src, declOffset)

	a := Analyze(src, pos, parser.OffsetAt, parser.PositionAt)
	assert.False(t, a.Safe)
	assert.Contains(t, a.UnsafeReason, "no usages")
}

func TestAnalyzeUnsafeAcrossBranchBoundary(t *testing.T) {
	src := "def f(flag):\n    x = compute_default()\n    if flag:\n        return x\n    return 0\n"
	// use a pure initializer so the branch-boundary check is the one we hit,
	// not the side-effect check.
	src = "def f(flag):\n    x = 1\n    if flag:\n        return x\n    return 0\n"
	declOffset := len("def f(flag):\n    ")
	pos := parser.PositionAt(src, declOffset)

	a := Analyze(src, pos, parser.OffsetAt, parser.PositionAt)
	assert.False(t, a.Safe)
	assert.Contains(t, a.UnsafeReason, "branch boundary")
}

func TestPlanReplacesUsagesAndDeletesDeclaration(t *testing.T) {
	src := "def f():\n    total = a + b\n    return total * 2\n"
	declOffset := len("def f():\n") + len("    total = ")
	pos := parser.PositionAt(src, declOffset)
	a := Analyze(src, pos, parser.OffsetAt, parser.PositionAt)
	require.True(t, a.Safe, a.UnsafeReason)

	plan, err := Plan("f.py", a, time.Now())
	require.NoError(t, err)

	var deletes, replaces int
	for _, e := range plan.Edits {
		switch e.EditType {
		case editplan.Delete:
			deletes++
		case editplan.Replace:
			replaces++
			assert.Equal(t, "(a + b)", e.NewText, "initializer containing + must be parenthesized when substituted")
		}
	}
	assert.Equal(t, 1, deletes)
	assert.Equal(t, 1, replaces)
}

func TestPlanRejectsUnsafeAnalysis(t *testing.T) {
	_, err := Plan("f.py", Analysis{Safe: false, UnsafeReason: "no usages found"}, time.Now())
	require.Error(t, err)
}

func TestWrapIfNeededParenthesizesOperators(t *testing.T) {
	assert.Equal(t, "(a + b)", wrapIfNeeded("a + b"))
	assert.Equal(t, "foo()", wrapIfNeeded("foo()"))
	assert.Equal(t, "(already)", wrapIfNeeded("(already)"))
}
