// Package move implements the Move/Rename File/Directory planner (spec
// §4.E.6): run the language's Reference Detector & Rewriter (spec §4.F,
// internal/reference) over the project's files, computing one edit per
// rewritten import plus any manifest updates the move requires.
package move

import (
	"context"
	"os"
	"time"

	"github.com/helixforge/codemill/internal/editplan"
	"github.com/helixforge/codemill/internal/engineerr"
	"github.com/helixforge/codemill/internal/manifest"
	"github.com/helixforge/codemill/internal/reference"
)

// Analysis is the feasibility result (spec §4.E.6 analyze step).
type Analysis struct {
	Move           reference.Move
	AffectedFiles  []string
	ManifestUpdates []editplan.DependencyUpdate
}

// Analyze enumerates every file that references the moved entity (spec §4.E.6).
func Analyze(ctx context.Context, det reference.Detector, m reference.Move, projectFiles []string) (Analysis, error) {
	affected, err := reference.DetectAffected(ctx, det, m, projectFiles)
	if err != nil {
		return Analysis{}, engineerr.Wrap(err, engineerr.AnalysisFailed, "reference detection failed for move of %s", m.OldPath)
	}
	return Analysis{Move: m, AffectedFiles: affected}, nil
}

// AnalyzeWorkspaceMember additionally records a Cargo workspace members
// rewrite when the moved path is itself a workspace member (spec §4.E.6:
// "For a package rename, also compute manifest updates (workspace members,
// dependency paths)").
func AnalyzeWorkspaceMember(a Analysis, cargoTomlPath string) (Analysis, error) {
	content, err := os.ReadFile(cargoTomlPath)
	if err != nil {
		return a, nil // no workspace manifest to update is not an error
	}
	c, err := manifest.ParseCargoToml(content)
	if err != nil {
		return a, err
	}
	if c.RewriteWorkspaceMember(a.Move.OldPath, a.Move.NewPath) {
		a.ManifestUpdates = append(a.ManifestUpdates, editplan.DependencyUpdate{
			TargetFile: cargoTomlPath,
			Kind:       editplan.DepUpdate,
			Name:       "workspace.members",
		})
	}
	return a, nil
}

// Plan builds one edit per rewritten import across the affected files
// (spec §4.E.6 plan step).
func Plan(sourceFile string, a Analysis, rw reference.Rewriter, readFile func(string) ([]byte, error), now time.Time) (*editplan.EditPlan, error) {
	plan := editplan.New(sourceFile, "move", map[string]interface{}{
		"old_path": a.Move.OldPath,
		"new_path": a.Move.NewPath,
	}, now)

	for _, file := range a.AffectedFiles {
		content, err := readFile(file)
		if err != nil {
			return nil, engineerr.Wrap(err, engineerr.Internal, "failed to read affected file %s", file)
		}
		edits, err := rw.Rewrite(a.Move, file, content)
		if err != nil {
			return nil, engineerr.Wrap(err, engineerr.AnalysisFailed, "failed to rewrite references in %s", file)
		}
		for _, e := range edits {
			if e.FilePath == "" {
				e.FilePath = file
			}
			if err := plan.AddEdit(e); err != nil {
				return nil, err
			}
		}
	}

	for _, u := range a.ManifestUpdates {
		plan.AddDependencyUpdate(u)
	}
	return plan, nil
}
