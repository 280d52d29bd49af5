package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"time"

	"github.com/spf13/cobra"

	"github.com/helixforge/codemill/internal/applier"
	"github.com/helixforge/codemill/internal/auth"
	"github.com/helixforge/codemill/internal/batch"
	"github.com/helixforge/codemill/internal/config"
	"github.com/helixforge/codemill/internal/editplan"
	"github.com/helixforge/codemill/internal/engineerr"
	"github.com/helixforge/codemill/internal/langplugin"
	"github.com/helixforge/codemill/internal/logging"
	"github.com/helixforge/codemill/internal/plugin"
	"github.com/helixforge/codemill/internal/registry"
	"github.com/helixforge/codemill/internal/symbol"
	"github.com/helixforge/codemill/internal/transport"
	"github.com/helixforge/codemill/internal/workflow"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the analysis/refactoring engine as a WebSocket server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return engineerr.Wrap(err, engineerr.Internal, "failed to load configuration")
	}

	log := logging.NewLoggerWithName("codemill")

	reg := registry.New(log)
	registerBuiltinPlugins(reg, cfg.Plugins, log)

	batchEngine, err := batch.NewEngine(log, cfg.Batch.CacheSize)
	if err != nil {
		return engineerr.Wrap(err, engineerr.Internal, "failed to start batch engine")
	}
	ap := applier.New(log)

	var validator *auth.Validator
	if cfg.Auth.Enabled {
		validator = auth.NewValidator(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.Audience)
	}

	dispatch := buildDispatch(reg, batchEngine, ap, log)
	exec := workflow.NewExecutor(func(ctx context.Context, tool string, params map[string]interface{}) (workflow.StepResult, error) {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, engineerr.Wrap(err, engineerr.InvalidRequest, "failed to marshal step params")
		}
		result, err := dispatch(ctx, tool, raw)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(result)
		if err != nil {
			return nil, engineerr.Wrap(err, engineerr.Internal, "failed to marshal step result for %q", tool)
		}
		var out workflow.StepResult
		if err := json.Unmarshal(b, &out); err != nil {
			return nil, engineerr.Wrap(err, engineerr.Internal, "failed to decode step result for %q", tool)
		}
		return out, nil
	})

	fullDispatch := func(ctx context.Context, method string, params json.RawMessage) (interface{}, error) {
		if method == "run_workflow" || method == "resume_workflow" {
			return dispatchWorkflow(ctx, exec, method, params)
		}
		return dispatch(ctx, method, params)
	}

	srv := transport.NewServer(fullDispatch, transport.Options{
		MaxClients: cfg.Server.MaxClients,
		Validator:  validator,
		Log:        log,
	})

	if err := config.WatchForChanges(log, func(*config.Config) {
		log.Info("configuration changed; restart to apply server/auth changes")
	}); err != nil {
		log.Warn(fmt.Sprintf("config hot-reload disabled: %v", err))
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.Router(),
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("listening", logging.Fields{"addr": addr})
	if cfg.Server.TLSCertFile != "" && cfg.Server.TLSKeyFile != "" {
		return httpServer.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
	}
	return httpServer.ListenAndServe()
}

// registerBuiltinPlugins registers the in-process language adapters
// (internal/langplugin) that back every extract/rename/move/dead-code tool
// call, so reg.Dispatch/DispatchWorkspace have real collaborators instead of
// an empty table. A cfg.Plugins entry whose name matches a built-in adapter
// overrides its priority; any other entry names a plugin this binary has no
// in-process adapter for (an LSP-backed plugin is a separate collaborator,
// spec §9 Non-goals), so it is only logged.
func registerBuiltinPlugins(reg *registry.Registry, configured []config.PluginConfig, log *logging.Logger) {
	builtins := []struct {
		name string
		p    plugin.Plugin
	}{
		{"typescript", langplugin.NewTypeScript(log)},
		{"python", langplugin.NewPython(log)},
		{"rust", langplugin.NewRust(log)},
		{"svelte", langplugin.NewSvelte(log)},
	}
	priorities := map[string]int{}
	known := map[string]bool{}
	for _, b := range builtins {
		known[b.name] = true
	}
	for _, pc := range configured {
		if !known[pc.Name] {
			log.Warn(fmt.Sprintf("plugin %q configured but no in-process adapter registered (LSP adapters are a separate collaborator)", pc.Name))
			continue
		}
		priorities[pc.Name] = pc.Priority
	}
	for _, b := range builtins {
		priority := 100
		if pr, ok := priorities[b.name]; ok {
			priority = pr
		}
		reg.Register(b.p, priority)
	}
}

// buildDispatch maps the client-facing tool vocabulary (spec §4.G) onto
// the engine components that serve it. Methods belonging to a language
// plugin's own capability surface (navigation, editing, intelligence) are
// routed through the registry: a request naming a file path is routed by
// extension (reg.Dispatch); a workspace-wide request (no file path, e.g. a
// directory move or a workspace-wide dead-code scan) fans out to every
// plugin that supports the method (reg.DispatchWorkspace), merging their
// results (spec §4.G step 2).
func buildDispatch(reg *registry.Registry, batchEngine *batch.Engine, ap *applier.Applier, log *logging.Logger) transport.Dispatch {
	return func(ctx context.Context, method string, params json.RawMessage) (interface{}, error) {
		switch method {
		case "batch_analyze":
			var req batch.Request
			if err := json.Unmarshal(params, &req); err != nil {
				return nil, engineerr.Wrap(err, engineerr.InvalidRequest, "invalid batch_analyze params")
			}
			return batchEngine.Run(ctx, req)
		case "apply_edit_plan":
			var body struct {
				Plan  *editplan.EditPlan `json:"plan"`
				Moves []applier.FileMove `json:"moves"`
			}
			if err := json.Unmarshal(params, &body); err != nil {
				return nil, engineerr.Wrap(err, engineerr.InvalidRequest, "invalid apply_edit_plan params")
			}
			if body.Plan == nil {
				return nil, engineerr.New(engineerr.InvalidRequest, "apply_edit_plan requires a plan")
			}
			return ap.Apply(body.Plan, body.Moves)
		default:
			var p struct {
				FilePath  string                 `json:"file_path"`
				Position  *symbol.Position       `json:"position"`
				Range     *symbol.Range          `json:"range"`
				Params    map[string]interface{} `json:"params"`
				RequestID string                 `json:"request_id"`
			}
			if err := json.Unmarshal(params, &p); err != nil {
				return nil, engineerr.Wrap(err, engineerr.InvalidRequest, "invalid params for %q", method)
			}
			req := plugin.Request{
				Method:    method,
				FilePath:  p.FilePath,
				Position:  p.Position,
				Range:     p.Range,
				Params:    p.Params,
				RequestID: p.RequestID,
			}
			if p.FilePath == "" {
				return mergeWorkspaceResponses(reg.DispatchWorkspace(ctx, req)), nil
			}
			resp := reg.Dispatch(ctx, req, extOf)
			if !resp.Success {
				return nil, resp.Error
			}
			return resp, nil
		}
	}
}

// mergeWorkspaceResponses combines every plugin's workspace-wide response
// into one payload: list-shaped fields ("findings", "references", "symbols")
// are concatenated across plugins (via reflection, since each adapter
// returns its own concrete slice type, e.g. []deadcode.Finding, not a
// generic []interface{}) so a multi-language workspace scan reads like a
// single result set, the way spec §4.G step 2 describes ("fan out...
// merge results").
func mergeWorkspaceResponses(responses []plugin.Response) map[string]interface{} {
	merged := map[string]interface{}{}
	var errs []string
	for _, resp := range responses {
		if !resp.Success {
			if resp.Error != nil {
				errs = append(errs, resp.Error.Error())
			}
			continue
		}
		for key, value := range resp.Data {
			existing, ok := merged[key]
			if !ok {
				merged[key] = value
				continue
			}
			existingVal, newVal := reflect.ValueOf(existing), reflect.ValueOf(value)
			if existingVal.Kind() == reflect.Slice && newVal.Kind() == reflect.Slice && existingVal.Type() == newVal.Type() {
				merged[key] = reflect.AppendSlice(existingVal, newVal).Interface()
			} else {
				merged[key] = value
			}
		}
	}
	if len(merged) == 0 && len(errs) > 0 {
		merged["errors"] = errs
	}
	return merged
}

func dispatchWorkflow(ctx context.Context, exec *workflow.Executor, method string, params json.RawMessage) (interface{}, error) {
	switch method {
	case "run_workflow":
		var wf workflow.Workflow
		if err := json.Unmarshal(params, &wf); err != nil {
			return nil, engineerr.Wrap(err, engineerr.InvalidRequest, "invalid run_workflow params")
		}
		result, awaiting, err := exec.Run(ctx, wf)
		if err != nil {
			return nil, err
		}
		if awaiting != nil {
			return awaiting, nil
		}
		return result, nil
	case "resume_workflow":
		var body struct {
			WorkflowID string `json:"workflow_id"`
		}
		if err := json.Unmarshal(params, &body); err != nil {
			return nil, engineerr.Wrap(err, engineerr.InvalidRequest, "invalid resume_workflow params")
		}
		result, awaiting, err := exec.Resume(ctx, body.WorkflowID)
		if err != nil {
			return nil, err
		}
		if awaiting != nil {
			return awaiting, nil
		}
		return result, nil
	}
	return nil, engineerr.New(engineerr.MethodNotSupported, "unknown workflow method %q", method)
}

func extOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i+1:]
		}
		if path[i] == '/' {
			break
		}
	}
	return ""
}
