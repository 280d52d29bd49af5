// Package extractfunc implements the Extract Function planner (spec
// §4.E.1): identify free variables read/written inside a range, find an
// insertion point before the innermost enclosing function/class, and build
// a new function definition plus a call-site replacement.
package extractfunc

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/helixforge/codemill/internal/editplan"
	"github.com/helixforge/codemill/internal/engineerr"
	"github.com/helixforge/codemill/internal/symbol"
)

// Analysis is the feasibility result (spec §4.E.1 analyze step).
type Analysis struct {
	Parameters      []string // in source order, deduplicated
	ReturnVariables []string
	HasReturn       bool
	InsertionPoint  symbol.Position
	IndentPrefix    string
	RangeText       string
}

var (
	identRe  = regexp.MustCompile(`\b[A-Za-z_][A-Za-z0-9_]*\b`)
	assignRe = regexp.MustCompile(`(?m)^\s*([A-Za-z_][A-Za-z0-9_]*)\s*(?::[^=]+)?=(?:[^=]|$)`)
	returnRe = regexp.MustCompile(`(?m)^\s*return\b`)
	keywords = map[string]bool{
		"if": true, "else": true, "elif": true, "for": true, "while": true,
		"return": true, "def": true, "function": true, "fn": true, "class": true,
		"let": true, "const": true, "var": true, "true": true, "false": true,
		"null": true, "None": true, "nil": true, "and": true, "or": true, "not": true,
		"in": true, "is": true, "import": true, "from": true, "as": true,
		"True": true, "False": true, "self": true, "this": true,
	}
)

// Analyze computes required parameters, return variables, and the
// insertion point for extracting rangeText out of source, where
// enclosingStart is the position of the innermost enclosing
// function/class (zero value if the range is at module scope).
func Analyze(source, rangeText string, enclosingStart *symbol.Position) Analysis {
	declaredBefore := identifiersAssignedBefore(source, rangeText)
	assignedInside := assignedNames(rangeText)
	readInside := identifierSet(rangeText)

	var params []string
	seen := map[string]bool{}
	for _, name := range orderedIdentifiers(rangeText) {
		if seen[name] || keywords[name] || assignedInside[name] {
			continue
		}
		if declaredBefore[name] {
			params = append(params, name)
			seen[name] = true
		}
	}

	usedAfter := usedAfterRange(source, rangeText)
	var returns []string
	for name := range assignedInside {
		if usedAfter[name] {
			returns = append(returns, name)
		}
	}
	sort.Strings(returns)
	_ = readInside

	hasReturn := returnRe.MatchString(rangeText)

	insertion := symbol.Position{}
	indent := ""
	if enclosingStart != nil {
		insertion = *enclosingStart
	}

	return Analysis{
		Parameters:      params,
		ReturnVariables: returns,
		HasReturn:       hasReturn,
		InsertionPoint:  insertion,
		IndentPrefix:    indent,
		RangeText:       rangeText,
	}
}

func orderedIdentifiers(text string) []string {
	return identRe.FindAllString(text, -1)
}

func identifierSet(text string) map[string]bool {
	out := map[string]bool{}
	for _, name := range orderedIdentifiers(text) {
		out[name] = true
	}
	return out
}

func assignedNames(text string) map[string]bool {
	out := map[string]bool{}
	for _, m := range assignRe.FindAllStringSubmatch(text, -1) {
		out[m[1]] = true
	}
	return out
}

func identifiersAssignedBefore(source, rangeText string) map[string]bool {
	idx := strings.Index(source, rangeText)
	before := source
	if idx >= 0 {
		before = source[:idx]
	}
	out := map[string]bool{}
	for _, m := range assignRe.FindAllStringSubmatch(before, -1) {
		out[m[1]] = true
	}
	for _, name := range orderedIdentifiers(before) {
		if !keywords[name] {
			out[name] = true
		}
	}
	return out
}

func usedAfterRange(source, rangeText string) map[string]bool {
	idx := strings.Index(source, rangeText)
	after := source
	if idx >= 0 {
		after = source[idx+len(rangeText):]
	}
	return identifierSet(after)
}

// Plan builds the two-edit EditPlan (spec §4.E.1 plan step): an Insert for
// the new function definition and a Replace for the call site.
func Plan(sourceFile string, a Analysis, name string, callRange symbol.Range, render func(name string, a Analysis) string, callExpr func(name string, a Analysis) string, syntaxCheckLang string, now time.Time) (*editplan.EditPlan, error) {
	if name == "" {
		return nil, engineerr.New(engineerr.InvalidRequest, "extract_function requires a target name")
	}
	plan := editplan.New(sourceFile, "extract_function", map[string]interface{}{"name": name}, now)

	def := render(name, a)
	if err := plan.AddEdit(editplan.TextEdit{
		EditType:     editplan.Insert,
		Location:     symbol.Range{Start: a.InsertionPoint, End: a.InsertionPoint},
		NewText:      def,
		Priority:     100,
		Description:  fmt.Sprintf("insert extracted function %q", name),
	}); err != nil {
		return nil, err
	}

	call := callExpr(name, a)
	if err := plan.AddEdit(editplan.TextEdit{
		EditType:     editplan.Replace,
		Location:     callRange,
		OriginalText: a.RangeText,
		NewText:      call,
		Priority:     90,
		Description:  "replace extracted range with call site",
	}); err != nil {
		return nil, err
	}

	plan.AddValidation(editplan.ValidationRule{Kind: editplan.ValidationSyntaxCheck, Target: syntaxCheckLang})
	return plan, nil
}
