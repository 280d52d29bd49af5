// Package inlinevar implements the Inline Variable planner (spec §4.E.2):
// locate a declaration at a cursor, find every use in the rest of the file
// after it, judge safety, and replace each use with the initializer while
// deleting the declaration.
package inlinevar

import (
	"regexp"
	"strings"
	"time"

	"github.com/helixforge/codemill/internal/editplan"
	"github.com/helixforge/codemill/internal/engineerr"
	"github.com/helixforge/codemill/internal/symbol"
)

// Usage is one reference to the variable after its declaration.
type Usage struct {
	Range symbol.Range
}

// Analysis is the feasibility result (spec §4.E.2 analyze step).
type Analysis struct {
	Name           string
	Initializer    string
	DeclLineRange  symbol.Range
	Usages         []Usage
	Safe           bool
	UnsafeReason   string
}

var declRe = regexp.MustCompile(`(?m)^([ \t]*)(?:(?:let|const|var)\s+)?([A-Za-z_][A-Za-z0-9_]*)\s*(?::[^=]+)?=\s*(.+?);?\s*$`)

var callRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*\s*\(`)

// hasUnprovablySideEffectingCall is the heuristic spec §4.E.2 names: "contains a
// function call the engine cannot prove pure". pureBuiltins are exempted.
var pureBuiltins = map[string]bool{
	"len": true, "str": true, "int": true, "float": true, "bool": true,
	"abs": true, "min": true, "max": true, "round": true,
}

func hasUnprovablySideEffectingCall(expr string) bool {
	for _, m := range callRe.FindAllString(expr, -1) {
		name := strings.TrimSpace(strings.TrimSuffix(m, "("))
		if !pureBuiltins[name] {
			return true
		}
	}
	return false
}

// Analyze locates the declaration containing pos and checks safety (spec §4.E.2).
func Analyze(source string, pos symbol.Position, byteOffset func(string, symbol.Position) int, posAt func(string, int) symbol.Position) Analysis {
	offset := byteOffset(source, pos)
	lineStart := strings.LastIndexByte(source[:offset], '\n') + 1
	lineEndRel := strings.IndexByte(source[offset:], '\n')
	lineEnd := len(source)
	if lineEndRel >= 0 {
		lineEnd = offset + lineEndRel
	}
	line := source[lineStart:lineEnd]

	m := declRe.FindStringSubmatch(line)
	if m == nil {
		return Analysis{Safe: false, UnsafeReason: "no variable declaration found at cursor"}
	}
	name := m[2]
	initializer := strings.TrimSpace(m[3])

	rest := source[lineEnd:]
	reassignRe := regexp.MustCompile(`(?m)^\s*` + regexp.QuoteMeta(name) + `\s*=[^=]`)
	if reassignRe.MatchString(rest) {
		return Analysis{Name: name, Initializer: initializer, Safe: false, UnsafeReason: "variable is reassigned after declaration"}
	}
	if hasUnprovablySideEffectingCall(initializer) {
		return Analysis{Name: name, Initializer: initializer, Safe: false, UnsafeReason: "initializer may have side effects"}
	}

	usages := findUsages(source, rest, name, lineEnd, posAt)
	if len(usages) == 0 {
		return Analysis{Name: name, Initializer: initializer, Safe: false, UnsafeReason: "no usages found"}
	}
	if crossesBranchBoundary(rest, name) {
		return Analysis{Name: name, Initializer: initializer, Usages: usages, Safe: false, UnsafeReason: "usages appear across a branch boundary"}
	}

	declEnd := lineEnd
	if declEnd < len(source) && source[declEnd] == '\n' {
		declEnd++
	}
	return Analysis{
		Name:          name,
		Initializer:   initializer,
		DeclLineRange: symbol.Range{Start: posAt(source, lineStart), End: posAt(source, declEnd)},
		Usages:        usages,
		Safe:          true,
	}
}

func findUsages(source, rest, name string, baseOffset int, posAt func(string, int) symbol.Position) []Usage {
	var out []Usage
	wordRe := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
	for _, m := range wordRe.FindAllStringIndex(rest, -1) {
		out = append(out, Usage{Range: symbol.Range{
			Start: posAt(source, baseOffset+m[0]),
			End:   posAt(source, baseOffset+m[1]),
		}})
	}
	return out
}

// crossesBranchBoundary is a conservative heuristic: if the remainder
// contains an `if`/`else`/`elif`/`match`/`switch`/`case` keyword before the
// first usage, evaluation order could change across branches.
func crossesBranchBoundary(rest, name string) bool {
	branchRe := regexp.MustCompile(`\b(if|else|elif|match|switch|case)\b`)
	wordRe := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
	branchLoc := branchRe.FindStringIndex(rest)
	useLoc := wordRe.FindStringIndex(rest)
	return branchLoc != nil && useLoc != nil && branchLoc[0] < useLoc[0]
}

// wrapIfNeeded parenthesizes the initializer when it contains operators
// that could bind lower than the surrounding context (spec §4.E.2).
func wrapIfNeeded(initializer string) string {
	trimmed := strings.TrimSpace(initializer)
	if strings.HasPrefix(trimmed, "(") && strings.HasSuffix(trimmed, ")") {
		return trimmed
	}
	for _, op := range []string{"+", "-", "*", "/", "%", "&&", "||", "?", ":", "and ", "or "} {
		if strings.Contains(trimmed, op) {
			return "(" + trimmed + ")"
		}
	}
	return trimmed
}

// Plan builds the EditPlan (spec §4.E.2 plan step).
func Plan(sourceFile string, a Analysis, now time.Time) (*editplan.EditPlan, error) {
	if !a.Safe {
		return nil, engineerr.New(engineerr.InvalidRequest, "cannot inline variable %q: %s", a.Name, a.UnsafeReason)
	}
	plan := editplan.New(sourceFile, "inline_variable", map[string]interface{}{"name": a.Name}, now)
	replacement := wrapIfNeeded(a.Initializer)

	for _, u := range a.Usages {
		if err := plan.AddEdit(editplan.TextEdit{
			EditType:     editplan.Replace,
			Location:     u.Range,
			OriginalText: a.Name,
			NewText:      replacement,
			Priority:     50,
			Description:  "inline variable usage",
		}); err != nil {
			return nil, err
		}
	}
	if err := plan.AddEdit(editplan.TextEdit{
		EditType:     editplan.Delete,
		Location:     a.DeclLineRange,
		Priority:     50,
		Description:  "delete inlined declaration",
	}); err != nil {
		return nil, err
	}
	return plan, nil
}
