// Package rename implements the Rename Symbol planner (spec §4.E.5): use
// the language plugin's find_references capability when available, else
// fall back to whole-word textual matches, and produce one Replace edit
// per reference (explicit file_path for cross-file references).
package rename

import (
	"fmt"
	"regexp"
	"time"

	"github.com/helixforge/codemill/internal/editplan"
	"github.com/helixforge/codemill/internal/engineerr"
	"github.com/helixforge/codemill/internal/symbol"
)

// Reference is one location that must be rewritten to the new name.
type Reference struct {
	FilePath string // empty means "the source file the plan was generated for"
	Range    symbol.Range
}

// Analysis is the feasibility result (spec §4.E.5 analyze step).
type Analysis struct {
	OldName    string
	References []Reference
	UsedFallback bool
}

// FindReferencesFunc calls the owning language plugin's find_references
// capability; callers pass nil when the plugin lacks it, triggering the
// textual fallback.
type FindReferencesFunc func(filePath string, pos symbol.Position) ([]Reference, error)

// Analyze resolves every reference to oldName at pos (spec §4.E.5).
func Analyze(filePath, oldName string, pos symbol.Position, findRefs FindReferencesFunc, fallbackSources map[string]string) (Analysis, error) {
	if findRefs != nil {
		refs, err := findRefs(filePath, pos)
		if err != nil {
			return Analysis{}, engineerr.Wrap(err, engineerr.AnalysisFailed, "find_references failed for %q", oldName)
		}
		if len(refs) > 0 {
			return Analysis{OldName: oldName, References: refs}, nil
		}
	}

	wordRe := regexp.MustCompile(`\b` + regexp.QuoteMeta(oldName) + `\b`)
	var refs []Reference
	for path, src := range fallbackSources {
		for _, m := range wordRe.FindAllStringIndex(src, -1) {
			refs = append(refs, Reference{
				FilePath: path,
				Range:    symbol.Range{Start: offsetToPos(src, m[0]), End: offsetToPos(src, m[1])},
			})
		}
	}
	if len(refs) == 0 {
		return Analysis{}, engineerr.New(engineerr.NotFound, "no references found for %q", oldName)
	}
	return Analysis{OldName: oldName, References: refs, UsedFallback: true}, nil
}

func offsetToPos(source string, offset int) symbol.Position {
	line, col := 0, 0
	for i := 0; i < offset && i < len(source); i++ {
		if source[i] == '\n' {
			line++
			col = 0
		} else {
			col++
		}
	}
	return symbol.Position{Line: line, Column: col}
}

// Plan builds one Replace edit per reference (spec §4.E.5 plan step).
// sourceFile is the file the plan nominally belongs to; references
// targeting a different file carry an explicit FilePath.
func Plan(sourceFile string, a Analysis, newName string, now time.Time, manifestUpdates []editplan.DependencyUpdate) (*editplan.EditPlan, error) {
	if newName == "" {
		return nil, engineerr.New(engineerr.InvalidRequest, "rename_symbol requires a new name")
	}
	plan := editplan.New(sourceFile, "rename_symbol", map[string]interface{}{"old_name": a.OldName, "new_name": newName}, now)

	for _, ref := range a.References {
		edit := editplan.TextEdit{
			EditType:     editplan.Replace,
			Location:     ref.Range,
			OriginalText: a.OldName,
			NewText:      newName,
			Priority:     70,
			Description:  fmt.Sprintf("rename %q to %q", a.OldName, newName),
		}
		if ref.FilePath != sourceFile {
			edit.FilePath = ref.FilePath
		}
		if err := plan.AddEdit(edit); err != nil {
			return nil, err
		}
	}
	for _, u := range manifestUpdates {
		plan.AddDependencyUpdate(u)
	}
	return plan, nil
}
