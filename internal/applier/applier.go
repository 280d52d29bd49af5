// Package applier implements the Edit Plan Applier (spec §4.J): group edits
// by file, apply right-to-left, verify original_text before mutating,
// write atomically, move files after in-file edits, and apply dependency
// updates. The plan's validation rules are not run by this package.
// Atomic writes are grounded on
// hugo-lorenzo-mato-quorum-ai's internal/adapters/state/atomic_unix.go,
// which wraps github.com/google/renameio/v2 the same way this package
// does for edit-plan output.
package applier

import (
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/google/renameio/v2"

	"github.com/helixforge/codemill/internal/editplan"
	"github.com/helixforge/codemill/internal/engineerr"
	"github.com/helixforge/codemill/internal/logging"
	"github.com/helixforge/codemill/internal/manifest"
	"github.com/helixforge/codemill/internal/symbol"
)

// FileMove is a pending file or directory rename/move to perform after
// in-file edits are written (spec §4.J step 5).
type FileMove struct {
	OldPath string
	NewPath string
}

// Result is what Apply returns (spec §4.J: "{ success, modified_files, errors? }").
type Result struct {
	Success       bool
	ModifiedFiles []string
	Errors        []string
}

// Applier applies EditPlans to the filesystem.
type Applier struct {
	log *logging.Logger
}

func New(log *logging.Logger) *Applier {
	if log == nil {
		log = logging.DefaultLogger()
	}
	return &Applier{log: log}
}

// Apply groups, verifies and writes the plan's edits, performs moves, and
// applies dependency updates; it does not run the plan's validation
// rules. moves is the set of
// file/directory renames the plan also performs (e.g. a move-symbol
// refactor); they are applied after in-file edits so that new-path edits
// land at their final destination.
func (a *Applier) Apply(plan *editplan.EditPlan, moves []FileMove) (*Result, error) {
	byFile := plan.ByFile()

	// Step 3: read fresh, verify original_text, step 4: apply in memory.
	newContent := map[string][]byte{}
	for file, edits := range byFile {
		sorted := append([]editplan.TextEdit(nil), edits...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[j].Location.Start.Less(sorted[i].Location.Start)
		})

		original, err := os.ReadFile(file)
		if err != nil {
			return nil, engineerr.Wrap(err, engineerr.Internal, "failed to read %s for edit application", file)
		}
		content := string(original)

		for _, e := range sorted {
			start := byteOffsetFor(content, e.Location.Start)
			end := byteOffsetFor(content, e.Location.End)
			if start < 0 || end < 0 || start > len(content) || end > len(content) || start > end {
				return nil, engineerr.New(engineerr.EditConflict,
					"edit location out of range in %s", file).WithData(map[string]interface{}{"path": file})
			}
			actual := content[start:end]
			if actual != e.OriginalText {
				return nil, engineerr.New(engineerr.EditConflict,
					"original_text mismatch in %s: expected %q, found %q", file, e.OriginalText, actual).
					WithData(map[string]interface{}{"path": file, "expected": e.OriginalText, "actual": actual})
			}
			switch e.EditType {
			case editplan.Delete:
				content = content[:start] + content[end:]
			default:
				content = content[:start] + e.NewText + content[end:]
			}
		}
		newContent[file] = []byte(content)
	}

	result := &Result{Success: true}

	// Step 5a: write in-file edits before performing any move, so a moved
	// file's content lands correctly, then gets relocated.
	for file, content := range newContent {
		if err := writeAtomic(file, content); err != nil {
			result.Success = false
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.ModifiedFiles = append(result.ModifiedFiles, file)
	}
	if !result.Success {
		return result, nil
	}

	// Step 5b: perform moves after in-file edits (spec §4.J step 5).
	for _, mv := range moves {
		if err := moveFile(mv.OldPath, mv.NewPath); err != nil {
			result.Success = false
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.ModifiedFiles = append(result.ModifiedFiles, mv.NewPath)
	}

	// Step 6: apply dependency updates.
	byManifest := map[string][]editplan.DependencyUpdate{}
	for _, d := range plan.DependencyUpdates {
		byManifest[d.TargetFile] = append(byManifest[d.TargetFile], d)
	}
	for target, updates := range byManifest {
		if err := applyDependencyUpdates(target, updates); err != nil {
			result.Success = false
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.ModifiedFiles = append(result.ModifiedFiles, target)
	}

	return result, nil
}

// byteOffsetFor converts a line/column position to a byte offset within
// content; reimplemented here rather than imported from internal/parser to
// keep the applier independent of any single language's parser package.
func byteOffsetFor(content string, pos symbol.Position) int {
	line, col := 0, 0
	for i, r := range content {
		if line == pos.Line && col == pos.Column {
			return i
		}
		if r == '\n' {
			line++
			col = 0
		} else {
			col++
		}
	}
	if line == pos.Line && col == pos.Column {
		return len(content)
	}
	return -1
}

func writeAtomic(path string, content []byte) error {
	info, err := os.Stat(path)
	mode := os.FileMode(0644)
	if err == nil {
		mode = info.Mode()
	}
	if err := renameio.WriteFile(path, content, mode); err != nil {
		return engineerr.Wrap(err, engineerr.Internal, "failed to write %s", path)
	}
	return nil
}

// moveFile relocates oldPath to newPath, preferring the project's VCS move
// command when the file is tracked (observable only in VCS history per
// spec §4.J step 5), falling back to a filesystem rename.
func moveFile(oldPath, newPath string) error {
	if isGitTracked(oldPath) {
		cmd := exec.Command("git", "mv", oldPath, newPath)
		cmd.Dir = filepath.Dir(oldPath)
		if err := cmd.Run(); err == nil {
			return nil
		}
	}
	if err := os.MkdirAll(filepath.Dir(newPath), 0755); err != nil {
		return engineerr.Wrap(err, engineerr.Internal, "failed to create directory for move to %s", newPath)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return engineerr.Wrap(err, engineerr.Internal, "failed to move %s to %s", oldPath, newPath)
	}
	return nil
}

func isGitTracked(path string) bool {
	cmd := exec.Command("git", "ls-files", "--error-unmatch", path)
	cmd.Dir = filepath.Dir(path)
	return cmd.Run() == nil
}

func applyDependencyUpdates(targetFile string, updates []editplan.DependencyUpdate) error {
	content, err := os.ReadFile(targetFile)
	if err != nil {
		return engineerr.Wrap(err, engineerr.Internal, "failed to read manifest %s", targetFile)
	}

	base := filepath.Base(targetFile)
	kind, ok := manifest.DetectKind(base)
	if !ok {
		return engineerr.New(engineerr.InvalidRequest, "unsupported manifest %s", targetFile)
	}

	switch kind {
	case manifest.KindPackageJSON:
		pkg, err := manifest.ParsePackageJSON(content)
		if err != nil {
			return err
		}
		for _, u := range updates {
			if err := pkg.ApplyDependencyUpdate(u); err != nil {
				return err
			}
		}
		out, err := pkg.Marshal()
		if err != nil {
			return engineerr.Wrap(err, engineerr.Internal, "failed to marshal %s", targetFile)
		}
		return writeAtomic(targetFile, out)
	case manifest.KindRequirementsTxt:
		lines, err := manifest.ParseRequirementsTxt(content)
		if err != nil {
			return err
		}
		lines = applyRequirementsUpdates(lines, updates)
		return writeAtomic(targetFile, manifest.FormatRequirementsTxt(lines))
	default:
		// Cargo.toml / pyproject.toml dependency mutation is table-shaped and
		// format-preserving only through the same struct-level editing
		// RewriteWorkspaceMember/RewritePathDependency already perform; a
		// generic add/remove/update for those formats is out of scope for
		// this pass and is reported rather than silently skipped.
		return engineerr.New(engineerr.ValidationFailed, "dependency updates for %s are not supported by this applier", targetFile)
	}
}

func applyRequirementsUpdates(lines []manifest.RequirementLine, updates []editplan.DependencyUpdate) []manifest.RequirementLine {
	byName := map[string]editplan.DependencyUpdate{}
	for _, u := range updates {
		byName[manifest.NormalizePyName(u.Name)] = u
	}
	var out []manifest.RequirementLine
	seen := map[string]bool{}
	for _, l := range lines {
		if l.Comment {
			out = append(out, l)
			continue
		}
		norm := manifest.NormalizePyName(l.Name)
		if u, ok := byName[norm]; ok {
			seen[norm] = true
			if u.Kind == editplan.DepRemove {
				continue
			}
			raw := l.Name
			if u.Version != "" {
				raw = l.Name + "==" + u.Version
			}
			out = append(out, manifest.RequirementLine{Raw: raw, Name: l.Name})
			continue
		}
		out = append(out, l)
	}
	for norm, u := range byName {
		if seen[norm] || u.Kind == editplan.DepRemove {
			continue
		}
		raw := u.Name
		if u.Version != "" {
			raw = u.Name + "==" + u.Version
		}
		out = append(out, manifest.RequirementLine{Raw: raw, Name: u.Name})
	}
	return out
}
