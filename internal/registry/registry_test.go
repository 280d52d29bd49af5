package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixforge/codemill/internal/engineerr"
	"github.com/helixforge/codemill/internal/plugin"
)

type fakePlugin struct {
	name    string
	exts    []string
	caps    plugin.Capabilities
	calls   []plugin.Request
	handler func(plugin.Request) plugin.Response
}

func (f *fakePlugin) Metadata() plugin.Metadata { return plugin.Metadata{Name: f.name} }
func (f *fakePlugin) SupportedExtensions() []string { return f.exts }
func (f *fakePlugin) Capabilities() plugin.Capabilities { return f.caps }
func (f *fakePlugin) ToolDefinitions() []plugin.ToolDefinition { return nil }
func (f *fakePlugin) HandleRequest(ctx context.Context, req plugin.Request) plugin.Response {
	f.calls = append(f.calls, req)
	if f.handler != nil {
		return f.handler(req)
	}
	return plugin.Response{Success: true, RequestID: req.RequestID}
}

func extOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i+1:]
		}
	}
	return ""
}

func refsCaps() plugin.Capabilities {
	return plugin.Capabilities{Navigation: plugin.NavigationCapabilities{FindReferences: true, CallHierarchy: true}}
}

func TestRegisterOrdersByPriorityPerExtension(t *testing.T) {
	r := New(nil)
	low := &fakePlugin{name: "low-priority", exts: []string{"py"}, caps: refsCaps()}
	high := &fakePlugin{name: "high-priority", exts: []string{"py"}, caps: refsCaps()}

	r.Register(low, 10)
	r.Register(high, 1)

	entries := r.ForExtension("py")
	require.Len(t, entries, 2)
	assert.Equal(t, "high-priority", entries[0].Plugin.Metadata().Name)
	assert.Equal(t, "low-priority", entries[1].Plugin.Metadata().Name)
}

func TestDispatchRoutesToHighestPriorityThatSupportsMethod(t *testing.T) {
	r := New(nil)
	noRefs := &fakePlugin{name: "no-refs", exts: []string{"py"}, caps: plugin.Capabilities{}}
	withRefs := &fakePlugin{name: "with-refs", exts: []string{"py"}, caps: refsCaps()}

	r.Register(noRefs, 1)
	r.Register(withRefs, 2)

	resp := r.Dispatch(context.Background(), plugin.Request{Method: "find_references", FilePath: "a.py"}, extOf)
	require.True(t, resp.Success)
	assert.Equal(t, "with-refs", resp.Metadata.PluginName)
	assert.Empty(t, noRefs.calls)
}

func TestDispatchMethodNotSupportedWhenPluginExistsButLacksCapability(t *testing.T) {
	r := New(nil)
	r.Register(&fakePlugin{name: "p", exts: []string{"py"}, caps: plugin.Capabilities{}}, 1)

	resp := r.Dispatch(context.Background(), plugin.Request{Method: "find_references", FilePath: "a.py"}, extOf)
	require.False(t, resp.Success)
	assert.True(t, engineerr.Is(resp.Error, engineerr.MethodNotSupported))
}

func TestDispatchNotFoundWhenNoPluginForExtension(t *testing.T) {
	r := New(nil)
	resp := r.Dispatch(context.Background(), plugin.Request{Method: "find_references", FilePath: "a.rs"}, extOf)
	require.False(t, resp.Success)
	assert.True(t, engineerr.Is(resp.Error, engineerr.NotFound))
}

func TestDispatchWorkspaceFansOutToAllSupportingPlugins(t *testing.T) {
	r := New(nil)
	py := &fakePlugin{name: "py", exts: []string{"py"}, caps: plugin.Capabilities{Navigation: plugin.NavigationCapabilities{WorkspaceSymbols: true}}}
	ts := &fakePlugin{name: "ts", exts: []string{"ts"}, caps: plugin.Capabilities{Navigation: plugin.NavigationCapabilities{WorkspaceSymbols: true}}}
	none := &fakePlugin{name: "none", exts: []string{"rs"}, caps: plugin.Capabilities{}}
	r.Register(py, 1)
	r.Register(ts, 1)
	r.Register(none, 1)

	resps := r.DispatchWorkspace(context.Background(), plugin.Request{Method: "search_symbols"})
	require.Len(t, resps, 2)
}

// TestOverlayMethodCallHierarchyThreeWayDispatch covers the call_hierarchy
// direction overlay (three distinct plugin-facing methods from one stable
// tool name).
func TestOverlayMethodCallHierarchyThreeWayDispatch(t *testing.T) {
	var seenMethods []string
	r := New(nil)
	p := &fakePlugin{name: "p", exts: []string{"go"}, caps: refsCaps(), handler: func(req plugin.Request) plugin.Response {
		seenMethods = append(seenMethods, req.Method)
		return plugin.Response{Success: true}
	}}
	// Dispatch checks Supports against the client-facing "call_hierarchy"
	// name (CallHierarchy in refsCaps); the Extras map also advertises the
	// three overlaid method names.
	p.caps.Extras = map[string]bool{"prepare_call_hierarchy": true, "incoming_calls": true, "outgoing_calls": true}
	r.Register(p, 1)

	r.Dispatch(context.Background(), plugin.Request{Method: "call_hierarchy", FilePath: "a.go", Params: map[string]interface{}{}}, extOf)
	r.Dispatch(context.Background(), plugin.Request{Method: "call_hierarchy", FilePath: "a.go", Params: map[string]interface{}{"direction": "incoming"}}, extOf)
	r.Dispatch(context.Background(), plugin.Request{Method: "call_hierarchy", FilePath: "a.go", Params: map[string]interface{}{"direction": "outgoing"}}, extOf)

	assert.Equal(t, []string{"prepare_call_hierarchy", "incoming_calls", "outgoing_calls"}, seenMethods)
}

func TestOverlayMethodGetSymbolInfoMapsToHover(t *testing.T) {
	assert.Equal(t, "get_hover", overlayMethod("get_symbol_info", nil))
	assert.Equal(t, "find_references", overlayMethod("find_references", nil))
}
