package extractconst

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixforge/codemill/internal/editplan"
	"github.com/helixforge/codemill/internal/parser"
	"github.com/helixforge/codemill/internal/symbol"
)

// alwaysSafeProducer treats every location as outside strings/comments,
// except ranges explicitly listed as unsafe.
type alwaysSafeProducer struct {
	unsafeOffsets map[int]bool
}

func (p alwaysSafeProducer) ListFunctions(source string) ([]string, error) { return nil, nil }
func (p alwaysSafeProducer) ParseSource(source string) (*symbol.ParseResult, error) {
	return &symbol.ParseResult{}, nil
}
func (p alwaysSafeProducer) ParseImports(source string) ([]symbol.ImportInfo, error) { return nil, nil }
func (p alwaysSafeProducer) IsExternal(modulePath string) bool                       { return true }
func (p alwaysSafeProducer) IsLiteralLocationSafe(source string, pos symbol.Position, length int) bool {
	offset := parser.OffsetAt(source, pos)
	return !p.unsafeOffsets[offset]
}

func rngAt(source string, start, end int) symbol.Range {
	return symbol.Range{Start: parser.PositionAt(source, start), End: parser.PositionAt(source, end)}
}

func TestAnalyzeFindsAllSafeOccurrencesOfNumericLiteral(t *testing.T) {
	src := "timeout := 30\nretryDelay := 30\nmax := 430\n"
	p := alwaysSafeProducer{}
	lit := rngAt(src, 11, 13) // "30" in "timeout := 30"

	a := Analyze(p, src, lit)
	require.True(t, a.Feasible)
	assert.Equal(t, "30", a.Literal)
	// Exactly two whole-token matches of "30": not the "30" embedded in "430".
	assert.Len(t, a.Occurrences, 2)
}

func TestAnalyzeRejectsNonLiteralRange(t *testing.T) {
	src := "x := foo\n"
	p := alwaysSafeProducer{}
	a := Analyze(p, src, rngAt(src, 5, 8))
	assert.False(t, a.Feasible)
}

func TestAnalyzeRejectsWhenSourceLocationUnsafe(t *testing.T) {
	src := "x := 30\n"
	p := alwaysSafeProducer{unsafeOffsets: map[int]bool{5: true}}
	a := Analyze(p, src, rngAt(src, 5, 7))
	assert.False(t, a.Feasible)
	assert.Contains(t, a.Reason, "string or comment")
}

func TestAnalyzeStringLiteral(t *testing.T) {
	src := `status := "active"` + "\n" + `other := "active"` + "\n"
	p := alwaysSafeProducer{}
	a := Analyze(p, src, rngAt(src, 10, 18))
	require.True(t, a.Feasible)
	assert.Equal(t, `"active"`, a.Literal)
	assert.Len(t, a.Occurrences, 2)
}

func TestPlanDeclaresConstantAndReplacesOccurrences(t *testing.T) {
	src := "timeout := 30\nretryDelay := 30\n"
	p := alwaysSafeProducer{}
	lit := rngAt(src, 11, 13)
	a := Analyze(p, src, lit)
	require.True(t, a.Feasible)

	plan, err := Plan("main.go", a, "DefaultTimeout", "const %s = %s", time.Now())
	require.NoError(t, err)
	require.Len(t, plan.Edits, 3) // 1 declaration + 2 occurrences

	inserts := 0
	for _, e := range plan.Edits {
		if e.EditType == editplan.Insert {
			inserts++
		}
	}
	assert.Equal(t, 1, inserts)
}

func TestPlanRejectsInfeasibleAnalysis(t *testing.T) {
	_, err := Plan("main.go", Analysis{Feasible: false, Reason: "nope"}, "X", "const %s = %s", time.Now())
	require.Error(t, err)
}
