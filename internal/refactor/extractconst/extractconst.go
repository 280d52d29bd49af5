// Package extractconst implements the Extract Constant planner (spec
// §4.E.4): validate a literal range, find every other occurrence of the
// same literal that is itself in a safe (non-string, non-comment)
// location, and produce an EditPlan that declares the constant once and
// replaces every occurrence.
package extractconst

import (
	"fmt"
	"strings"
	"time"

	"github.com/helixforge/codemill/internal/editplan"
	"github.com/helixforge/codemill/internal/engineerr"
	"github.com/helixforge/codemill/internal/parser"
	"github.com/helixforge/codemill/internal/symbol"
)

// Occurrence is one valid match of the literal text in the source.
type Occurrence struct {
	Range symbol.Range
}

// Analysis is the feasibility result (spec §4.E.4 analyze step).
type Analysis struct {
	Literal     string
	Occurrences []Occurrence
	Feasible    bool
	Reason      string
}

// Analyze validates that (line, col, length) denotes a literal and finds
// every other safe occurrence of the same literal text (spec §4.E.4).
func Analyze(producer parser.Producer, source string, literalRange symbol.Range) Analysis {
	start := parser.OffsetAt(source, literalRange.Start)
	end := parser.OffsetAt(source, literalRange.End)
	if start < 0 || end < 0 || start >= end || end > len(source) {
		return Analysis{Feasible: false, Reason: "invalid literal range"}
	}
	literal := source[start:end]
	if !isLiteral(literal) {
		return Analysis{Literal: literal, Feasible: false, Reason: "range does not denote a number, string, or boolean literal"}
	}
	if !producer.IsLiteralLocationSafe(source, literalRange.Start, end-start) {
		return Analysis{Literal: literal, Feasible: false, Reason: "range is inside a string or comment"}
	}

	var occurrences []Occurrence
	idx := 0
	for {
		pos := strings.Index(source[idx:], literal)
		if pos < 0 {
			break
		}
		matchStart := idx + pos
		matchEnd := matchStart + len(literal)
		if isWholeMatch(source, matchStart, matchEnd, literal) {
			startPos := parser.PositionAt(source, matchStart)
			if producer.IsLiteralLocationSafe(source, startPos, len(literal)) {
				occurrences = append(occurrences, Occurrence{Range: symbol.Range{Start: startPos, End: parser.PositionAt(source, matchEnd)}})
			}
		}
		idx = matchStart + 1
	}

	if len(occurrences) == 0 {
		return Analysis{Literal: literal, Feasible: false, Reason: "no valid occurrences of this literal"}
	}
	return Analysis{Literal: literal, Occurrences: occurrences, Feasible: true}
}

func isLiteral(s string) bool {
	if s == "" {
		return false
	}
	if s == "true" || s == "false" || s == "True" || s == "False" {
		return true
	}
	if (strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`)) ||
		(strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'")) {
		return len(s) >= 2
	}
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r == '.' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

// isWholeMatch rejects matches that are a substring of a larger token
// (e.g. literal "4" inside "42").
func isWholeMatch(source string, start, end int, literal string) bool {
	if isLiteral(literal) && !strings.HasPrefix(literal, `"`) && !strings.HasPrefix(literal, "'") {
		if start > 0 && isIdentByte(source[start-1]) {
			return false
		}
		if end < len(source) && isIdentByte(source[end]) {
			return false
		}
	}
	return true
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// Plan builds the EditPlan: declare the constant at module scope, replace
// every occurrence (spec §4.E.4 plan step).
func Plan(sourceFile string, a Analysis, name string, declTemplate string, now time.Time) (*editplan.EditPlan, error) {
	if !a.Feasible {
		return nil, engineerr.New(engineerr.InvalidRequest, "cannot extract constant: %s", a.Reason)
	}
	plan := editplan.New(sourceFile, "extract_constant", map[string]interface{}{"name": name}, now)

	declLine := fmt.Sprintf(declTemplate, name, a.Literal) + "\n"
	zero := symbol.Position{}
	if err := plan.AddEdit(editplan.TextEdit{
		EditType:     editplan.Insert,
		Location:     symbol.Range{Start: zero, End: zero},
		NewText:      declLine,
		Priority:     100,
		Description:  fmt.Sprintf("declare extracted constant %q", name),
	}); err != nil {
		return nil, err
	}
	for _, occ := range a.Occurrences {
		if err := plan.AddEdit(editplan.TextEdit{
			EditType:     editplan.Replace,
			Location:     occ.Range,
			OriginalText: a.Literal,
			NewText:      name,
			Priority:     90,
			Description:  fmt.Sprintf("replace literal with constant %q", name),
		}); err != nil {
			return nil, err
		}
	}
	return plan, nil
}
