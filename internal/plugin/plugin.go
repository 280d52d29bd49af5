// Package plugin defines the language-plugin contract every language
// implementation satisfies (spec §4.A): capability descriptor, uniform
// request/response envelopes, and the single handle_request entry point.
// The shape is grounded on the teacher's runtime-registered Tool type
// (internal/mcp/server.go's Tool{ID,Name,Parameters,Handler}) generalized
// per spec §9's "carry the capability flags explicitly so the dispatcher
// can decide without calling the plugin first" re-architecture note —
// capabilities are a plain struct of booleans, not discovered by probing.
package plugin

import (
	"context"

	"github.com/helixforge/codemill/internal/symbol"
)

// Metadata describes a plugin's identity (spec §4.A).
type Metadata struct {
	Name             string
	Version          string
	MinEngineVersion string
}

// NavigationCapabilities groups the navigation-family booleans (spec §4.A).
type NavigationCapabilities struct {
	GoToDefinition   bool
	FindReferences   bool
	DocumentSymbols  bool
	WorkspaceSymbols bool
	CallHierarchy    bool
	TypeHierarchy    bool
}

// EditingCapabilities groups the editing-family booleans.
type EditingCapabilities struct {
	Rename          bool
	Format          bool
	CodeActions     bool
	OrganizeImports bool
}

// RefactoringCapabilities groups the refactoring-family booleans.
type RefactoringCapabilities struct {
	ExtractFunction bool
	ExtractVariable bool
	ExtractConstant bool
	InlineVariable  bool
	InlineFunction  bool
	MoveRefactor    bool
}

// IntelligenceCapabilities groups the intelligence-family booleans.
type IntelligenceCapabilities struct {
	Hover          bool
	Completions    bool
	SignatureHelp  bool
}

// DiagnosticsCapabilities groups the diagnostics-family booleans.
type DiagnosticsCapabilities struct {
	Pull bool
	Push bool
}

// Capabilities is the full structured descriptor a plugin advertises
// (spec §4.A), plus a free-form language-specific extras map.
type Capabilities struct {
	Navigation   NavigationCapabilities
	Editing      EditingCapabilities
	Refactoring  RefactoringCapabilities
	Intelligence IntelligenceCapabilities
	Diagnostics  DiagnosticsCapabilities
	Extras       map[string]bool
}

// Supports reports whether the capability set advertises the named
// operation, using the dispatcher's stable method-name vocabulary
// (spec §4.G tool surface names, e.g. "extract_function", "find_references").
func (c Capabilities) Supports(method string) bool {
	switch method {
	case "find_definition":
		return c.Navigation.GoToDefinition
	case "find_references":
		return c.Navigation.FindReferences
	case "document_symbols", "list_files":
		return c.Navigation.DocumentSymbols
	case "search_symbols":
		return c.Navigation.WorkspaceSymbols
	case "call_hierarchy":
		return c.Navigation.CallHierarchy
	case "type_hierarchy":
		return c.Navigation.TypeHierarchy
	case "rename_symbol":
		return c.Editing.Rename
	case "format":
		return c.Editing.Format
	case "code_actions":
		return c.Editing.CodeActions
	case "organize_imports":
		return c.Editing.OrganizeImports
	case "extract_function":
		return c.Refactoring.ExtractFunction
	case "extract_variable":
		return c.Refactoring.ExtractVariable
	case "extract_constant":
		return c.Refactoring.ExtractConstant
	case "inline_variable":
		return c.Refactoring.InlineVariable
	case "inline_function":
		return c.Refactoring.InlineFunction
	case "move_refactor", "rename_directory":
		return c.Refactoring.MoveRefactor
	case "get_symbol_info":
		return c.Intelligence.Hover
	case "completions":
		return c.Intelligence.Completions
	case "signature_help":
		return c.Intelligence.SignatureHelp
	case "diagnostics_pull":
		return c.Diagnostics.Pull
	case "diagnostics_push":
		return c.Diagnostics.Push
	default:
		if c.Extras != nil {
			return c.Extras[method]
		}
		return false
	}
}

// ToolDefinition is one operation descriptor a plugin exposes, JSON-schema
// parameters included (spec §4.A).
type ToolDefinition struct {
	Name        string
	Description string
	Schema      map[string]interface{}
}

// Request is the uniform request envelope (spec §4.A).
type Request struct {
	Method    string
	FilePath  string
	Position  *symbol.Position
	Range     *symbol.Range
	Params    map[string]interface{}
	RequestID string
}

// ResponseMetadata carries per-call bookkeeping (spec §4.A).
type ResponseMetadata struct {
	PluginName       string
	ProcessingTimeMS int64
	Cached           bool
}

// Response is the uniform response envelope (spec §4.A).
type Response struct {
	Success   bool
	Data      map[string]interface{}
	Error     error
	RequestID string
	Metadata  ResponseMetadata
}

// Plugin is the interface every language implementation satisfies.
type Plugin interface {
	Metadata() Metadata
	SupportedExtensions() []string
	Capabilities() Capabilities
	ToolDefinitions() []ToolDefinition
	HandleRequest(ctx context.Context, req Request) Response
}
