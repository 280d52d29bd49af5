// Package editplan implements the language-neutral Edit Plan IR (spec §3,
// §4.D): the only artifact refactoring planners produce. Planners never
// touch the filesystem; internal/applier does.
package editplan

import (
	"time"

	"github.com/helixforge/codemill/internal/engineerr"
	"github.com/helixforge/codemill/internal/symbol"
)

// EditType enumerates the three edit operations spec §3 names.
type EditType string

const (
	Insert  EditType = "insert"
	Replace EditType = "replace"
	Delete  EditType = "delete"
)

// TextEdit is one byte-level change (spec §3 wire shape).
type TextEdit struct {
	// FilePath is empty for "the source file the plan was generated for";
	// an absolute path targets another file (cross-file rename/reference edits).
	FilePath     string       `json:"file_path,omitempty"`
	EditType     EditType     `json:"edit_type"`
	Location     symbol.Range `json:"location"`
	OriginalText string       `json:"original_text"`
	NewText      string       `json:"new_text"`
	Priority     int          `json:"priority"`
	Description  string       `json:"description"`
}

func (e TextEdit) targetFile(planSource string) string {
	if e.FilePath == "" {
		return planSource
	}
	return e.FilePath
}

// DependencyUpdateKind enumerates the manifest mutation kinds spec §3/§6 name.
type DependencyUpdateKind string

const (
	DepAdd    DependencyUpdateKind = "add"
	DepRemove DependencyUpdateKind = "remove"
	DepUpdate DependencyUpdateKind = "update"
)

// DependencyUpdate describes one manifest-entry mutation (spec §3).
type DependencyUpdate struct {
	TargetFile  string                 `json:"target_file"`
	Kind        DependencyUpdateKind   `json:"kind"`
	Name        string                 `json:"name"`
	Version     string                 `json:"version,omitempty"`
	Section     string                 `json:"section,omitempty"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
}

// ValidationKind enumerates the post-apply check kinds spec §3/§6 name.
type ValidationKind string

const (
	ValidationSyntaxCheck ValidationKind = "syntax_check"
	ValidationTypeCheck   ValidationKind = "type_check"
	ValidationBuildCheck  ValidationKind = "build_check"
	ValidationTestRun     ValidationKind = "test_run"
)

// ValidationRule is a post-apply check descriptor (spec §3/§6).
type ValidationRule struct {
	Kind   ValidationKind         `json:"kind"`
	Target string                 `json:"target,omitempty"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// Metadata is the EditPlan's descriptive envelope (spec §3).
type Metadata struct {
	Intent            string                 `json:"intent"`
	OriginalArguments map[string]interface{} `json:"original_arguments,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
	// ComplexityEstimate is a coarse 0-10 human-facing difficulty score for
	// the refactor itself, not a ComplexityMetrics rating.
	ComplexityEstimate int      `json:"complexity_estimate"`
	ImpactAreas        []string `json:"impact_areas,omitempty"`
}

// EditPlan is the central refactoring artifact (spec §3).
type EditPlan struct {
	SourceFile        string              `json:"source_file"`
	Edits             []TextEdit          `json:"edits"`
	DependencyUpdates []DependencyUpdate  `json:"dependency_updates,omitempty"`
	Validations       []ValidationRule    `json:"validations,omitempty"`
	Metadata          Metadata            `json:"metadata"`
}

// New creates an empty plan for sourceFile with the given intent.
func New(sourceFile, intent string, args map[string]interface{}, now time.Time) *EditPlan {
	return &EditPlan{
		SourceFile: sourceFile,
		Metadata: Metadata{
			Intent:            intent,
			OriginalArguments: args,
			CreatedAt:         now,
		},
	}
}

// AddEdit appends an edit, enforcing the same-file non-overlap invariant
// (spec §3, §4.D, §8) at construction time: a violation is a programming
// error in the planner, not a runtime condition to tolerate.
func (p *EditPlan) AddEdit(e TextEdit) error {
	target := e.targetFile(p.SourceFile)
	for _, existing := range p.Edits {
		if existing.targetFile(p.SourceFile) != target {
			continue
		}
		if existing.Location.Overlaps(e.Location) {
			return engineerr.New(engineerr.Internal,
				"overlapping edits in file %s: [%v] and [%v]", target, existing.Location, e.Location)
		}
	}
	p.Edits = append(p.Edits, e)
	return nil
}

// AddDependencyUpdate records a manifest mutation.
func (p *EditPlan) AddDependencyUpdate(d DependencyUpdate) {
	p.DependencyUpdates = append(p.DependencyUpdates, d)
}

// AddValidation records a post-apply check.
func (p *EditPlan) AddValidation(v ValidationRule) {
	p.Validations = append(p.Validations, v)
}

// ByFile groups the plan's edits by the file they target, resolving the
// empty-FilePath convention against the plan's source file.
func (p *EditPlan) ByFile() map[string][]TextEdit {
	out := map[string][]TextEdit{}
	for _, e := range p.Edits {
		target := e.targetFile(p.SourceFile)
		out[target] = append(out[target], e)
	}
	return out
}
