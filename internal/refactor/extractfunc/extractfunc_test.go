package extractfunc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixforge/codemill/internal/editplan"
	"github.com/helixforge/codemill/internal/symbol"
)

func TestAnalyzeComputesParametersFromFreeVariables(t *testing.T) {
	source := "a = 1\nb = 2\ntotal = a + b\nprint(total)\n"
	rangeText := "total = a + b\n"

	a := Analyze(source, rangeText, nil)
	assert.ElementsMatch(t, []string{"a", "b"}, a.Parameters)
}

func TestAnalyzeComputesReturnVariablesUsedAfterRange(t *testing.T) {
	source := "a = 1\nresult = a * 2\nprint(result)\n"
	rangeText := "result = a * 2\n"

	a := Analyze(source, rangeText, nil)
	assert.Contains(t, a.ReturnVariables, "result")
}

func TestAnalyzeExcludesVariableNotUsedAfterRange(t *testing.T) {
	source := "a = 1\ntemp = a * 2\nprint('done')\n"
	rangeText := "temp = a * 2\n"

	a := Analyze(source, rangeText, nil)
	assert.NotContains(t, a.ReturnVariables, "temp")
}

func TestAnalyzeDetectsReturnStatement(t *testing.T) {
	source := "def f():\n    return 1\n"
	rangeText := "    return 1\n"
	a := Analyze(source, rangeText, nil)
	assert.True(t, a.HasReturn)
}

func TestAnalyzeUsesEnclosingStartAsInsertionPoint(t *testing.T) {
	enclosing := symbol.Position{Line: 3, Column: 0}
	a := Analyze("x = 1\n", "x = 1\n", &enclosing)
	assert.Equal(t, enclosing, a.InsertionPoint)
}

func TestAnalyzeExcludesKeywordsFromParameters(t *testing.T) {
	source := "if True:\n    pass\n"
	a := Analyze(source, "if True:\n    pass\n", nil)
	assert.NotContains(t, a.Parameters, "if")
	assert.NotContains(t, a.Parameters, "True")
}

func TestPlanRejectsEmptyName(t *testing.T) {
	_, err := Plan("f.py", Analysis{}, "", symbol.Range{},
		func(string, Analysis) string { return "" },
		func(string, Analysis) string { return "" },
		"python", time.Now())
	require.Error(t, err)
}

func TestPlanBuildsInsertAndReplaceEditsWithValidation(t *testing.T) {
	a := Analysis{Parameters: []string{"a", "b"}, RangeText: "total = a + b\n"}
	render := func(name string, a Analysis) string {
		return "def " + name + "(a, b):\n    return a + b\n\n"
	}
	callExpr := func(name string, a Analysis) string {
		return "total = " + name + "(a, b)\n"
	}
	callRange := symbol.Range{Start: symbol.Position{Line: 2, Column: 0}, End: symbol.Position{Line: 3, Column: 0}}

	plan, err := Plan("f.py", a, "compute_total", callRange, render, callExpr, "python", time.Now())
	require.NoError(t, err)
	require.Len(t, plan.Edits, 2)
	assert.Equal(t, editplan.Insert, plan.Edits[0].EditType)
	assert.Equal(t, editplan.Replace, plan.Edits[1].EditType)
	require.Len(t, plan.Validations, 1)
	assert.Equal(t, editplan.ValidationSyntaxCheck, plan.Validations[0].Kind)
	assert.Equal(t, "python", plan.Validations[0].Target)
}
