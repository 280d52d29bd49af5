// Package registry implements the Plugin Registry & Dispatcher (spec §4.G):
// extension-to-plugin priority routing, workspace-wide fan-out, and the
// tool-name overlay that keeps client-facing method names stable across
// differently-shaped plugin protocols. Grounded on the teacher's
// MCPServer tool table (internal/mcp/server.go's sync.RWMutex-guarded
// map[string]*Tool), generalized from a flat tool map to a
// priority-ordered, extension-keyed plugin table.
package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/helixforge/codemill/internal/engineerr"
	"github.com/helixforge/codemill/internal/logging"
	"github.com/helixforge/codemill/internal/plugin"
)

// Entry is one registered plugin plus its configured priority. Lower
// Priority values win when multiple plugins register for the same
// extension (spec §4.G step 1).
type Entry struct {
	Plugin   plugin.Plugin
	Priority int
}

// Registry holds every registered plugin, indexed by file extension for
// routing and kept in registration order for workspace-wide fan-out.
type Registry struct {
	mu        sync.RWMutex
	byExt     map[string][]Entry
	all       []Entry
	log       *logging.Logger
}

func New(log *logging.Logger) *Registry {
	if log == nil {
		log = logging.DefaultLogger()
	}
	return &Registry{byExt: map[string][]Entry{}, log: log}
}

// Register adds a plugin at the given priority for every extension it
// supports (spec §4.G: "Multiple plugins may register for the same
// extension; selection is by configured priority").
func (r *Registry) Register(p plugin.Plugin, priority int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := Entry{Plugin: p, Priority: priority}
	r.all = append(r.all, entry)
	for _, ext := range p.SupportedExtensions() {
		r.byExt[ext] = append(r.byExt[ext], entry)
		sort.SliceStable(r.byExt[ext], func(i, j int) bool {
			return r.byExt[ext][i].Priority < r.byExt[ext][j].Priority
		})
	}
	r.log.Debug("registered plugin", logging.Fields{"plugin": p.Metadata().Name, "extensions": p.SupportedExtensions(), "priority": priority})
}

// ForExtension returns the plugins registered for ext, highest priority
// (lowest number) first.
func (r *Registry) ForExtension(ext string) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, len(r.byExt[ext]))
	copy(out, r.byExt[ext])
	return out
}

// All returns every registered plugin in registration order.
func (r *Registry) All() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, len(r.all))
	copy(out, r.all)
	return out
}

// methodOverlay maps a stable client-facing tool name to the plugin-facing
// method name a plugin actually implements, when they differ (spec §4.G
// "Tool-name overlay"). Most methods pass through unchanged; only the
// handful the spec calls out by name are remapped here.
var methodOverlay = map[string]string{
	"get_symbol_info": "get_hover",
}

// Dispatch resolves and invokes the right plugin for req.Method against
// req.FilePath, applying the tool-name overlay before calling the plugin
// (spec §4.G steps 1 and 3). extOf extracts the bare extension (no dot)
// from a file path.
func (r *Registry) Dispatch(ctx context.Context, req plugin.Request, extOf func(string) string) plugin.Response {
	overlaid := overlayMethod(req.Method, req.Params)
	callReq := req
	callReq.Method = overlaid

	ext := extOf(req.FilePath)
	entries := r.ForExtension(ext)
	for _, e := range entries {
		if e.Plugin.Capabilities().Supports(req.Method) {
			start := time.Now()
			resp := e.Plugin.HandleRequest(ctx, callReq)
			resp.Metadata.PluginName = e.Plugin.Metadata().Name
			resp.Metadata.ProcessingTimeMS = time.Since(start).Milliseconds()
			return resp
		}
	}

	if len(entries) > 0 {
		// A plugin exists for this extension but none supports the method:
		// propagate MethodNotSupported rather than PluginNotFound (spec §4.G
		// "When a plugin refuses the operation, propagate its MethodNotSupported").
		return plugin.Response{
			Success:   false,
			Error:     engineerr.New(engineerr.MethodNotSupported, "no plugin for extension %q supports method %q", ext, req.Method),
			RequestID: req.RequestID,
		}
	}
	return plugin.Response{
		Success:   false,
		Error:     engineerr.New(engineerr.NotFound, "no plugin registered for extension %q (method %q)", ext, req.Method),
		RequestID: req.RequestID,
	}
}

// DispatchWorkspace fans a workspace-wide request (no single file path) out
// to every registered plugin whose capabilities include the requested
// operation, and merges their successful responses (spec §4.G step 2).
func (r *Registry) DispatchWorkspace(ctx context.Context, req plugin.Request) []plugin.Response {
	overlaid := overlayMethod(req.Method, req.Params)
	callReq := req
	callReq.Method = overlaid

	var responses []plugin.Response
	for _, e := range r.All() {
		if !e.Plugin.Capabilities().Supports(req.Method) {
			continue
		}
		start := time.Now()
		resp := e.Plugin.HandleRequest(ctx, callReq)
		resp.Metadata.PluginName = e.Plugin.Metadata().Name
		resp.Metadata.ProcessingTimeMS = time.Since(start).Milliseconds()
		responses = append(responses, resp)
	}
	return responses
}

// overlayMethod applies the call_hierarchy three-way dispatch fix
// (SPEC_FULL.md §12 item 6): the stable "call_hierarchy" tool name maps to
// one of three plugin-facing operations depending on a "direction" param,
// matching the LSP textDocument/prepareCallHierarchy + incoming/outgoing
// calls split the original collapsed into a single boolean that dropped
// the "both" case.
func overlayMethod(method string, params map[string]interface{}) string {
	if method == "call_hierarchy" {
		switch direction, _ := params["direction"].(string); direction {
		case "incoming":
			return "incoming_calls"
		case "outgoing":
			return "outgoing_calls"
		default:
			return "prepare_call_hierarchy"
		}
	}
	if mapped, ok := methodOverlay[method]; ok {
		return mapped
	}
	return method
}
