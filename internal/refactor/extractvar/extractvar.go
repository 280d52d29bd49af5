// Package extractvar implements the Extract Variable planner (spec §4.E.3):
// analyze an expression range, suggest a name from its shape, and produce
// an EditPlan that declares it once and replaces the range with the name.
package extractvar

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/helixforge/codemill/internal/editplan"
	"github.com/helixforge/codemill/internal/engineerr"
	"github.com/helixforge/codemill/internal/symbol"
)

// Analysis is the feasibility result for one candidate range (spec §4.E.3 analyze step).
type Analysis struct {
	Expression    string
	SuggestedName string
	LineStart     symbol.Position
	IndentPrefix  string
	Feasible      bool
	Reason        string
}

var (
	assignmentRe  = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$.\[\]]*\s*(=|:=|\+=|-=|\*=|/=)\s*[^=]`)
	funcDeclRe    = regexp.MustCompile(`^\s*(function|def|fn|class)\b`)
)

// Analyze validates the range and suggests a name (spec §4.E.3).
func Analyze(source string, lineStart symbol.Position, exprStartOffset, exprEndOffset int) Analysis {
	expr := source[exprStartOffset:exprEndOffset]
	trimmed := strings.TrimSpace(expr)

	if strings.Contains(trimmed, "\n") && !(strings.HasPrefix(trimmed, "(") && strings.HasSuffix(trimmed, ")")) {
		return Analysis{Expression: expr, Feasible: false, Reason: "multi-line expressions must be parenthesized"}
	}
	if assignmentRe.MatchString(trimmed) {
		return Analysis{Expression: expr, Feasible: false, Reason: "assignment statements cannot be extracted"}
	}
	if funcDeclRe.MatchString(trimmed) {
		return Analysis{Expression: expr, Feasible: false, Reason: "function/class definitions cannot be extracted"}
	}

	lineStartOffset := exprStartOffset - lineStart.Column
	if lineStartOffset < 0 {
		lineStartOffset = 0
	}
	indent := leadingWhitespace(source[lineStartOffset:exprStartOffset])

	return Analysis{
		Expression:    trimmed,
		SuggestedName: suggestName(trimmed),
		LineStart:     symbol.Position{Line: lineStart.Line, Column: 0},
		IndentPrefix:  indent,
		Feasible:      true,
	}
}

func leadingWhitespace(s string) string {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return s[:i]
}

// suggestName derives a name from the expression's shape (spec §4.E.3's
// naming table).
func suggestName(expr string) string {
	switch {
	case strings.HasPrefix(expr, "len(") || strings.Contains(expr, ".length"):
		return "length"
	case strings.Contains(expr, ".split("):
		return "parts"
	case strings.HasPrefix(expr, `"`) || strings.HasPrefix(expr, "'") || strings.HasPrefix(expr, "`"):
		return "text"
	case isNumericLiteral(expr):
		return "value"
	case expr == "true" || expr == "false" || expr == "True" || expr == "False":
		return "flag"
	case strings.HasPrefix(expr, "[") && strings.HasSuffix(expr, "]"):
		return "items"
	case strings.HasPrefix(expr, "{") && strings.HasSuffix(expr, "}"):
		return "data"
	case containsArithmetic(expr):
		return "result"
	default:
		return "extracted"
	}
}

func isNumericLiteral(expr string) bool {
	if expr == "" {
		return false
	}
	for _, r := range expr {
		if !(r >= '0' && r <= '9' || r == '.' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

func containsArithmetic(expr string) bool {
	for _, op := range []string{"+", "-", "*", "/", "%"} {
		if strings.Contains(expr, op) {
			return true
		}
	}
	return false
}

// Plan builds the EditPlan for an accepted analysis (spec §4.E.3 plan step).
func Plan(sourceFile string, a Analysis, name string, declKeyword string, exprRange symbol.Range, now time.Time) (*editplan.EditPlan, error) {
	if !a.Feasible {
		return nil, engineerr.New(engineerr.InvalidRequest, "cannot extract variable: %s", a.Reason)
	}
	if name == "" {
		name = a.SuggestedName
	}

	plan := editplan.New(sourceFile, "extract_variable", map[string]interface{}{"name": name}, now)

	declLine := fmt.Sprintf("%s%s %s = %s\n", a.IndentPrefix, declKeyword, name, a.Expression)
	if err := plan.AddEdit(editplan.TextEdit{
		EditType:     editplan.Insert,
		Location:     symbol.Range{Start: a.LineStart, End: a.LineStart},
		OriginalText: "",
		NewText:      declLine,
		Priority:     100,
		Description:  fmt.Sprintf("declare extracted variable %q", name),
	}); err != nil {
		return nil, err
	}
	if err := plan.AddEdit(editplan.TextEdit{
		EditType:     editplan.Replace,
		Location:     exprRange,
		OriginalText: a.Expression,
		NewText:      name,
		Priority:     90,
		Description:  fmt.Sprintf("replace expression with %q", name),
	}); err != nil {
		return nil, err
	}
	return plan, nil
}
