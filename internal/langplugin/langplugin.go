// Package langplugin wires the parser, refactor planner, and reference
// detector/rewriter packages (internal/parser/*, internal/refactor/*,
// internal/reference/*) into the plugin.Plugin contract (spec §4.A) so that
// the registry (internal/registry) has real, in-process collaborators to
// dispatch to. There is no external LSP process here (that integration is a
// separate collaborator per spec §9 Non-goals) — Adapter reads files
// straight off disk and calls the planner packages directly, the way an
// in-process plugin is expected to.
//
// Grounded on the teacher's runtime-registered Tool type
// (internal/mcp/server.go's Tool{ID,Name,Parameters,Handler}): one Adapter
// value per language plays the role one Tool registration played there,
// generalized to the richer Capabilities/Request/Response envelope spec
// §4.A describes.
package langplugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/helixforge/codemill/internal/batch"
	"github.com/helixforge/codemill/internal/editplan"
	"github.com/helixforge/codemill/internal/engineerr"
	"github.com/helixforge/codemill/internal/logging"
	"github.com/helixforge/codemill/internal/parser"
	pythonparser "github.com/helixforge/codemill/internal/parser/python"
	rustparser "github.com/helixforge/codemill/internal/parser/rust"
	svelteparser "github.com/helixforge/codemill/internal/parser/svelte"
	typescriptparser "github.com/helixforge/codemill/internal/parser/typescript"
	"github.com/helixforge/codemill/internal/plugin"
	"github.com/helixforge/codemill/internal/reference"
	"github.com/helixforge/codemill/internal/refactor/deadcode"
	"github.com/helixforge/codemill/internal/refactor/extractconst"
	"github.com/helixforge/codemill/internal/refactor/extractfunc"
	"github.com/helixforge/codemill/internal/refactor/extractvar"
	"github.com/helixforge/codemill/internal/refactor/inlinevar"
	"github.com/helixforge/codemill/internal/refactor/move"
	"github.com/helixforge/codemill/internal/refactor/rename"
	"github.com/helixforge/codemill/internal/symbol"
)

// codegen groups the per-language string-generation closures extract_function,
// extract_variable, and extract_constant need (spec §4.E.1/.3/.4 plan steps).
// These have no teacher/example analogue to adapt — every language's surface
// syntax for a function/variable/constant declaration differs — so each
// Adapter constructor below supplies its own, grounded on the syntax the
// same language's parser package already recognizes.
type codegen struct {
	renderFunc      func(name string, a extractfunc.Analysis) string
	callExprFunc    func(name string, a extractfunc.Analysis) string
	declKeyword     string
	declTemplate    string
	syntaxCheckLang string
}

// Adapter is a plugin.Plugin backed directly by this module's own parser and
// planner packages for one language family.
type Adapter struct {
	name       string
	extensions []string
	producer   parser.Producer
	detector   reference.Detector
	rewriter   reference.Rewriter
	codegen    codegen
	caps       plugin.Capabilities
	log        *logging.Logger
}

func baseCapabilities() plugin.Capabilities {
	return plugin.Capabilities{
		Navigation: plugin.NavigationCapabilities{
			FindReferences:  true,
			DocumentSymbols: true,
		},
		Editing: plugin.EditingCapabilities{
			Rename: true,
		},
		Refactoring: plugin.RefactoringCapabilities{
			ExtractFunction: true,
			ExtractVariable: true,
			ExtractConstant: true,
			InlineVariable:  true,
			MoveRefactor:    true,
		},
		Extras: map[string]bool{
			"find_dead_code": true,
		},
	}
}

// NewTypeScript builds the TS/JS adapter (spec §4.F table row 1).
func NewTypeScript(log *logging.Logger) *Adapter {
	return &Adapter{
		name:       "typescript",
		extensions: []string{"ts", "tsx", "js", "jsx", "mjs", "cjs", "mts", "cts"},
		producer:   typescriptparser.New(),
		detector:   reference.NewTSDetector(),
		rewriter:   reference.NewTSRewriter(nil),
		codegen:    tsCodegen(),
		caps:       baseCapabilities(),
		log:        log,
	}
}

// NewPython builds the Python adapter (spec §4.F table row 2).
func NewPython(log *logging.Logger) *Adapter {
	return &Adapter{
		name:       "python",
		extensions: []string{"py"},
		producer:   pythonparser.New(),
		detector:   reference.NewPyDetector(),
		rewriter:   reference.NewPyRewriter(),
		codegen:    pythonCodegen(),
		caps:       baseCapabilities(),
		log:        log,
	}
}

// NewRust builds the Rust adapter (spec §4.F table row 3).
func NewRust(log *logging.Logger) *Adapter {
	return &Adapter{
		name:       "rust",
		extensions: []string{"rs"},
		producer:   rustparser.New(),
		detector:   reference.NewRustDetector(),
		rewriter:   reference.NewRustRewriter(),
		codegen:    rustCodegen(),
		caps:       baseCapabilities(),
		log:        log,
	}
}

// NewSvelte builds the Svelte adapter (spec §4.F table row 4). Its script
// blocks are TS/JS, so it reuses the TS code-generation closures.
func NewSvelte(log *logging.Logger) *Adapter {
	return &Adapter{
		name:       "svelte",
		extensions: []string{"svelte"},
		producer:   svelteparser.New(),
		detector:   reference.NewSvelteDetector(),
		rewriter:   reference.NewSvelteRewriter(),
		codegen:    tsCodegen(),
		caps:       baseCapabilities(),
		log:        log,
	}
}

func (a *Adapter) Metadata() plugin.Metadata {
	return plugin.Metadata{Name: a.name, Version: "1.0.0", MinEngineVersion: "1.0.0"}
}

func (a *Adapter) SupportedExtensions() []string { return a.extensions }

func (a *Adapter) Capabilities() plugin.Capabilities { return a.caps }

func (a *Adapter) ToolDefinitions() []plugin.ToolDefinition {
	return []plugin.ToolDefinition{
		{Name: "document_symbols", Description: "list symbols declared in a file"},
		{Name: "find_references", Description: "find every reference to a symbol"},
		{Name: "extract_function", Description: "extract a statement range into a new function"},
		{Name: "extract_variable", Description: "extract an expression into a named variable"},
		{Name: "extract_constant", Description: "extract a literal into a module-scope constant"},
		{Name: "inline_variable", Description: "inline a variable's initializer into its usages"},
		{Name: "rename_symbol", Description: "rename a symbol and every reference to it"},
		{Name: "move_refactor", Description: "move/rename a file or directory and rewrite affected imports"},
		{Name: "find_dead_code", Description: "flag symbols with no or only-declaration references"},
	}
}

func (a *Adapter) HandleRequest(ctx context.Context, req plugin.Request) plugin.Response {
	data, err := a.dispatch(ctx, req)
	if err != nil {
		return plugin.Response{Success: false, Error: err, RequestID: req.RequestID}
	}
	return plugin.Response{Success: true, Data: data, RequestID: req.RequestID}
}

func (a *Adapter) dispatch(ctx context.Context, req plugin.Request) (map[string]interface{}, error) {
	switch req.Method {
	case "document_symbols", "list_files":
		return a.documentSymbols(req)
	case "find_references":
		return a.findReferences(req)
	case "extract_function":
		return a.extractFunction(req)
	case "extract_variable":
		return a.extractVariable(req)
	case "extract_constant":
		return a.extractConstant(req)
	case "inline_variable":
		return a.inlineVariable(req)
	case "rename_symbol":
		return a.renameSymbol(req)
	case "move_refactor", "rename_directory":
		return a.moveRefactor(ctx, req)
	case "find_dead_code":
		return a.findDeadCode(ctx, req)
	default:
		return nil, engineerr.New(engineerr.MethodNotSupported, "plugin %q does not implement method %q", a.name, req.Method)
	}
}

func readSource(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", engineerr.Wrap(err, engineerr.Internal, "failed to read %s", path)
	}
	return string(content), nil
}

func planToData(plan *editplan.EditPlan) map[string]interface{} {
	return map[string]interface{}{"plan": plan}
}

func (a *Adapter) documentSymbols(req plugin.Request) (map[string]interface{}, error) {
	source, err := readSource(req.FilePath)
	if err != nil {
		return nil, err
	}
	result, perr := a.producer.ParseSource(source)
	if perr != nil {
		return nil, engineerr.Wrap(perr, engineerr.ParseFailed, "failed to parse %s", req.FilePath)
	}
	return map[string]interface{}{"symbols": result.Symbols}, nil
}

// symbolNameAt derives the identifier starting at or immediately after
// offset, the way rename_symbol needs to resolve a bare cursor position
// into a name before any textual scan can begin; find_dead_code falls back
// to it when no parsed symbol starts at the position.
var identRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

func symbolNameAt(source string, offset int) string {
	if offset < 0 {
		offset = 0
	}
	if offset > len(source) {
		offset = len(source)
	}
	loc := identRe.FindStringIndex(source[offset:])
	if loc == nil {
		return ""
	}
	return source[offset+loc[0] : offset+loc[1]]
}

func paramString(params map[string]interface{}, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

// workspaceFiles resolves every file under root this adapter's language
// governs, via the same scope-resolution the Batch Analysis Engine and
// Dead-Code Discovery use (spec §4.H step 1, §4.E.7).
func (a *Adapter) workspaceFiles(root string) ([]string, error) {
	files, err := batch.ResolveScope(batch.Scope{Type: batch.ScopeWorkspace, Path: root})
	if err != nil {
		return nil, engineerr.Wrap(err, engineerr.Internal, "failed to resolve workspace scope %s", root)
	}
	allowed := map[string]bool{}
	for _, ext := range a.extensions {
		allowed[ext] = true
	}
	var out []string
	for _, f := range files {
		if allowed[strings.TrimPrefix(filepath.Ext(f), ".")] {
			out = append(out, f)
		}
	}
	return out, nil
}

func (a *Adapter) readWorkspaceSources(root string) (map[string]string, error) {
	files, err := a.workspaceFiles(root)
	if err != nil {
		return nil, err
	}
	out := map[string]string{}
	for _, f := range files {
		content, rerr := os.ReadFile(f)
		if rerr != nil {
			continue // unreadable files are simply excluded from the fallback scan
		}
		out[f] = string(content)
	}
	return out, nil
}

func (a *Adapter) findReferences(req plugin.Request) (map[string]interface{}, error) {
	source, err := readSource(req.FilePath)
	if err != nil {
		return nil, err
	}
	name := paramString(req.Params, "name")
	if name == "" && req.Position != nil {
		name = symbolNameAt(source, parser.OffsetAt(source, *req.Position))
	}
	if name == "" {
		return nil, engineerr.New(engineerr.InvalidRequest, "find_references requires a name or a position")
	}

	sources := map[string]string{req.FilePath: source}
	if root := paramString(req.Params, "workspace_root"); root != "" {
		if ws, werr := a.readWorkspaceSources(root); werr == nil {
			sources = ws
		}
	}

	wordRe := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
	var refs []rename.Reference
	for path, src := range sources {
		for _, m := range wordRe.FindAllStringIndex(src, -1) {
			refs = append(refs, rename.Reference{
				FilePath: path,
				Range:    symbol.Range{Start: parser.PositionAt(src, m[0]), End: parser.PositionAt(src, m[1])},
			})
		}
	}
	return map[string]interface{}{"references": refs}, nil
}

func (a *Adapter) extractFunction(req plugin.Request) (map[string]interface{}, error) {
	if req.Range == nil {
		return nil, engineerr.New(engineerr.InvalidRequest, "extract_function requires a range")
	}
	source, err := readSource(req.FilePath)
	if err != nil {
		return nil, err
	}
	start := parser.OffsetAt(source, req.Range.Start)
	end := parser.OffsetAt(source, req.Range.End)
	if start < 0 || end < 0 || start > end || end > len(source) {
		return nil, engineerr.New(engineerr.InvalidRequest, "extract_function range is out of bounds")
	}
	rangeText := source[start:end]

	var enclosingStart *symbol.Position
	if result, perr := a.producer.ParseSource(source); perr == nil {
		enclosingStart = innermostEnclosing(result.Symbols, req.Range.Start)
	}

	analysis := extractfunc.Analyze(source, rangeText, enclosingStart)
	name := paramString(req.Params, "name")
	plan, perr := extractfunc.Plan(req.FilePath, analysis, name, *req.Range,
		a.codegen.renderFunc, a.codegen.callExprFunc, a.codegen.syntaxCheckLang, time.Now())
	if perr != nil {
		return nil, perr
	}
	return planToData(plan), nil
}

// innermostEnclosing returns the start position of the smallest
// Function/Method/Class/Struct symbol whose range contains pos, the
// insertion point extract_function analyzes relative to (spec §4.E.1).
func innermostEnclosing(syms []symbol.Symbol, pos symbol.Position) *symbol.Position {
	var best *symbol.Symbol
	for i := range syms {
		s := &syms[i]
		switch s.Kind {
		case symbol.KindFunction, symbol.KindMethod, symbol.KindClass, symbol.KindStruct:
		default:
			continue
		}
		if s.End == nil || pos.Less(s.Start) || s.End.Less(pos) {
			continue
		}
		if best == nil || best.Start.Less(s.Start) {
			best = s
		}
	}
	if best == nil {
		return nil
	}
	start := best.Start
	return &start
}

func (a *Adapter) extractVariable(req plugin.Request) (map[string]interface{}, error) {
	if req.Range == nil {
		return nil, engineerr.New(engineerr.InvalidRequest, "extract_variable requires a range")
	}
	source, err := readSource(req.FilePath)
	if err != nil {
		return nil, err
	}
	start := parser.OffsetAt(source, req.Range.Start)
	end := parser.OffsetAt(source, req.Range.End)
	if start < 0 || end < 0 || start > end || end > len(source) {
		return nil, engineerr.New(engineerr.InvalidRequest, "extract_variable range is out of bounds")
	}

	analysis := extractvar.Analyze(source, req.Range.Start, start, end)
	name := paramString(req.Params, "name")
	plan, perr := extractvar.Plan(req.FilePath, analysis, name, a.codegen.declKeyword, *req.Range, time.Now())
	if perr != nil {
		return nil, perr
	}
	return planToData(plan), nil
}

func (a *Adapter) extractConstant(req plugin.Request) (map[string]interface{}, error) {
	if req.Range == nil {
		return nil, engineerr.New(engineerr.InvalidRequest, "extract_constant requires a range")
	}
	source, err := readSource(req.FilePath)
	if err != nil {
		return nil, err
	}
	analysis := extractconst.Analyze(a.producer, source, *req.Range)
	name := paramString(req.Params, "name")
	plan, perr := extractconst.Plan(req.FilePath, analysis, name, a.codegen.declTemplate, time.Now())
	if perr != nil {
		return nil, perr
	}
	return planToData(plan), nil
}

func (a *Adapter) inlineVariable(req plugin.Request) (map[string]interface{}, error) {
	if req.Position == nil {
		return nil, engineerr.New(engineerr.InvalidRequest, "inline_variable requires a position")
	}
	source, err := readSource(req.FilePath)
	if err != nil {
		return nil, err
	}
	analysis := inlinevar.Analyze(source, *req.Position, parser.OffsetAt, parser.PositionAt)
	plan, perr := inlinevar.Plan(req.FilePath, analysis, time.Now())
	if perr != nil {
		return nil, perr
	}
	return planToData(plan), nil
}

func (a *Adapter) renameSymbol(req plugin.Request) (map[string]interface{}, error) {
	source, err := readSource(req.FilePath)
	if err != nil {
		return nil, err
	}
	oldName := paramString(req.Params, "name")
	if oldName == "" && req.Position != nil {
		oldName = symbolNameAt(source, parser.OffsetAt(source, *req.Position))
	}
	if oldName == "" {
		return nil, engineerr.New(engineerr.InvalidRequest, "rename_symbol requires a name or a position")
	}
	newName := paramString(req.Params, "new_name")

	var pos symbol.Position
	if req.Position != nil {
		pos = *req.Position
	}

	sources := map[string]string{req.FilePath: source}
	if root := paramString(req.Params, "workspace_root"); root != "" {
		if ws, werr := a.readWorkspaceSources(root); werr == nil {
			sources = ws
		}
	}

	analysis, aerr := rename.Analyze(req.FilePath, oldName, pos, nil, sources)
	if aerr != nil {
		return nil, aerr
	}
	plan, perr := rename.Plan(req.FilePath, analysis, newName, time.Now(), nil)
	if perr != nil {
		return nil, perr
	}
	return planToData(plan), nil
}

func (a *Adapter) moveRefactor(ctx context.Context, req plugin.Request) (map[string]interface{}, error) {
	oldPath := paramString(req.Params, "old_path")
	newPath := paramString(req.Params, "new_path")
	if oldPath == "" || newPath == "" {
		return nil, engineerr.New(engineerr.InvalidRequest, "move_refactor requires old_path and new_path")
	}
	root := paramString(req.Params, "workspace_root")
	if root == "" {
		root = filepath.Dir(oldPath)
	}

	files, err := a.workspaceFiles(root)
	if err != nil {
		return nil, err
	}
	mv := reference.Move{OldPath: oldPath, NewPath: newPath, ProjectRoot: root}

	analysis, aerr := move.Analyze(ctx, a.detector, mv, files)
	if aerr != nil {
		return nil, aerr
	}
	if cargoToml := filepath.Join(root, "Cargo.toml"); a.name == "rust" {
		if updated, werr := move.AnalyzeWorkspaceMember(analysis, cargoToml); werr == nil {
			analysis = updated
		}
	}

	plan, perr := move.Plan(oldPath, analysis, a.rewriter, os.ReadFile, time.Now())
	if perr != nil {
		return nil, perr
	}
	return planToData(plan), nil
}

func (a *Adapter) findDeadCode(ctx context.Context, req plugin.Request) (map[string]interface{}, error) {
	root := paramString(req.Params, "workspace_root")
	if root == "" {
		return nil, engineerr.New(engineerr.InvalidRequest, "find_dead_code requires a workspace_root")
	}

	symbolsFor := func(path string) ([]symbol.Symbol, error) {
		content, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil, rerr
		}
		result, perr := a.producer.ParseSource(string(content))
		if perr != nil {
			return nil, perr
		}
		return result.Symbols, nil
	}

	countRefs := func(_ context.Context, path string, pos symbol.Position) (int, error) {
		content, rerr := os.ReadFile(path)
		if rerr != nil {
			return 0, rerr
		}
		source := string(content)
		name := ""
		if result, perr := a.producer.ParseSource(source); perr == nil {
			for _, s := range result.Symbols {
				if s.Start == pos {
					name = s.Name
					break
				}
			}
		}
		if name == "" {
			name = symbolNameAt(source, parser.OffsetAt(source, pos))
		}
		if name == "" {
			return 0, fmt.Errorf("no identifier at %v in %s", pos, path)
		}
		sources, werr := a.readWorkspaceSources(root)
		if werr != nil {
			return 0, werr
		}
		wordRe := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
		count := 0
		for _, src := range sources {
			count += len(wordRe.FindAllStringIndex(src, -1))
		}
		return count, nil
	}

	findings, err := deadcode.Discover(ctx, root, a.extensions, symbolsFor, countRefs)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"findings": findings}, nil
}
