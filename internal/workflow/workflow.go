// Package workflow implements the sequential Workflow Executor (spec §4.I):
// strictly ordered steps, $steps.<i>.<path> placeholder resolution against
// prior results, and a pause/resume table for steps requiring confirmation.
// The paused-workflow table is grounded on the teacher's MCPServer session
// table (internal/mcp/server.go's sync.RWMutex-guarded map keyed by
// uuid.UUID) — the only other place in the teacher's codebase that holds
// process-wide mutable state behind a mutex the way spec §4.I requires.
package workflow

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/helixforge/codemill/internal/engineerr"
)

// Step is one workflow step (spec §4.I).
type Step struct {
	Tool                string
	Description         string
	Params              map[string]interface{}
	RequiresConfirmation bool
}

// Workflow is an ordered list of steps (spec §4.I).
type Workflow struct {
	Steps  []Step
	DryRun bool
}

// StepResult is the tool-call result of one executed step, available to
// later steps' placeholder resolution.
type StepResult map[string]interface{}

// Dispatcher invokes one tool call; the executor is protocol-agnostic about
// what a "step" actually does.
type Dispatcher func(ctx context.Context, tool string, params map[string]interface{}) (StepResult, error)

// PausedWorkflowState is stored when a step requires confirmation (spec §4.I).
type PausedWorkflowState struct {
	Workflow      Workflow
	StepIndex     int
	Completed     []StepResult
	Log           []string
	DryRun        bool
}

// AwaitingConfirmation is returned instead of a final result when a step
// pauses the workflow (spec §4.I step 3).
type AwaitingConfirmation struct {
	WorkflowID      string
	StepIndex       int
	StepDescription string
	Log             []string
}

// Result is a completed workflow's outcome.
type Result struct {
	Completed []StepResult
	Log       []string
}

// Executor runs workflows sequentially and owns the paused-workflow table —
// the only process-wide mutable state in the whole engine (spec §4.I).
type Executor struct {
	mu     sync.Mutex
	paused map[string]*PausedWorkflowState
	dispatch Dispatcher
}

func NewExecutor(dispatch Dispatcher) *Executor {
	return &Executor{paused: map[string]*PausedWorkflowState{}, dispatch: dispatch}
}

// Run executes wf from step 0 (spec §4.I).
func (e *Executor) Run(ctx context.Context, wf Workflow) (*Result, *AwaitingConfirmation, error) {
	return e.runFrom(ctx, wf, 0, nil, nil, false)
}

// Resume looks up workflowID's paused state, removes it from the table, and
// continues from its paused step index (spec §4.I "resume_workflow").
func (e *Executor) Resume(ctx context.Context, workflowID string) (*Result, *AwaitingConfirmation, error) {
	e.mu.Lock()
	state, ok := e.paused[workflowID]
	if ok {
		delete(e.paused, workflowID)
	}
	e.mu.Unlock()
	if !ok {
		return nil, nil, engineerr.New(engineerr.NotFound, "no paused workflow %q", workflowID)
	}
	return e.runFrom(ctx, state.Workflow, state.StepIndex, state.Completed, state.Log, true)
}

// runFrom executes wf.Steps[startIndex:]. resuming is true only when this
// call continues a previously paused workflow: the paused step's own
// RequiresConfirmation flag must not re-pause it a second time, since
// Resume being called at all is the confirmation (spec §4.I "resume_workflow
// continues execution from the paused step").
func (e *Executor) runFrom(ctx context.Context, wf Workflow, startIndex int, completed []StepResult, log []string, resuming bool) (*Result, *AwaitingConfirmation, error) {
	completed = append([]StepResult(nil), completed...)
	log = append([]string(nil), log...)

	for i := startIndex; i < len(wf.Steps); i++ {
		step := wf.Steps[i]

		resolvedParams, err := resolvePlaceholders(step.Params, completed)
		if err != nil {
			return nil, nil, engineerr.Wrap(err, engineerr.InvalidRequest,
				"workflow step %d/%d (%s): %s", i+1, len(wf.Steps), step.Tool, step.Description)
		}
		if wf.DryRun {
			resolvedParams = withDryRun(resolvedParams)
		}

		if step.RequiresConfirmation && !(resuming && i == startIndex) {
			id := uuid.New().String()
			pausedLog := append([]string(nil), log...)
			e.mu.Lock()
			e.paused[id] = &PausedWorkflowState{
				Workflow:  wf,
				StepIndex: i,
				Completed: completed,
				Log:       pausedLog,
				DryRun:    wf.DryRun,
			}
			e.mu.Unlock()
			return nil, &AwaitingConfirmation{
				WorkflowID:      id,
				StepIndex:       i,
				StepDescription: step.Description,
				Log:             pausedLog,
			}, nil
		}

		result, err := e.dispatch(ctx, step.Tool, resolvedParams)
		if err != nil {
			return nil, nil, engineerr.Wrap(err, engineerr.AnalysisFailed,
				"workflow step %d/%d (%s, %s) failed: %s", i+1, len(wf.Steps), step.Tool, step.Description, err.Error())
		}

		logLine := stepLogLine(i, len(wf.Steps), step, wf.DryRun)
		log = append(log, logLine)
		completed = append(completed, result)
	}

	return &Result{Completed: completed, Log: log}, nil, nil
}

// stepLogLine formats one accumulated execution-log entry. The dry-run
// format names the tool and what it "would" do instead of what it did
// (SPEC_FULL.md §12 item 4: "step 2/5: rename_symbol - would rename `foo`
// to `bar`").
func stepLogLine(index, total int, step Step, dryRun bool) string {
	verb := "ran"
	if dryRun {
		verb = "would run"
	}
	detail := step.Description
	if detail == "" {
		detail = step.Tool
	}
	return fmt.Sprintf("step %d/%d: %s - %s %s", index+1, total, step.Tool, verb, detail)
}

func withDryRun(params map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(params)+1)
	for k, v := range params {
		out[k] = v
	}
	out["dry_run"] = true
	return out
}

var placeholderRe = regexp.MustCompile(`^\$steps\.(\d+)\.(.+)$`)

// resolvePlaceholders walks params recursively, replacing any string of the
// form "$steps.<index>.<dotted.path>" with the referenced prior step
// result's field (spec §4.I).
func resolvePlaceholders(params map[string]interface{}, completed []StepResult) (map[string]interface{}, error) {
	resolved, err := resolveValue(params, completed)
	if err != nil {
		return nil, err
	}
	out, _ := resolved.(map[string]interface{})
	return out, nil
}

func resolveValue(v interface{}, completed []StepResult) (interface{}, error) {
	switch val := v.(type) {
	case string:
		return resolveString(val, completed)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, sub := range val {
			r, err := resolveValue(sub, completed)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, sub := range val {
			r, err := resolveValue(sub, completed)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return v, nil
	}
}

func resolveString(s string, completed []StepResult) (interface{}, error) {
	m := placeholderRe.FindStringSubmatch(s)
	if m == nil {
		return s, nil
	}
	idx, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, fmt.Errorf("malformed step reference %q", s)
	}
	if idx >= len(completed) {
		return nil, fmt.Errorf("step %d has not been executed yet", idx)
	}
	return lookupPath(completed[idx], m[2], s)
}

// lookupPath walks a dotted path through a StepResult, e.g. "data.files.0.path".
func lookupPath(result StepResult, dotted string, original string) (interface{}, error) {
	var cur interface{} = map[string]interface{}(result)
	for _, key := range strings.Split(dotted, ".") {
		switch node := cur.(type) {
		case map[string]interface{}:
			v, ok := node[key]
			if !ok {
				return nil, fmt.Errorf("field %q not found in %s", key, original)
			}
			cur = v
		case []interface{}:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("field %q not found in %s", key, original)
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("field %q not found in %s", key, original)
		}
	}
	return cur, nil
}
