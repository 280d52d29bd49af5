package langplugin

import (
	"fmt"
	"strings"

	"github.com/helixforge/codemill/internal/refactor/extractfunc"
)

// reindentBody strips whatever common leading whitespace text's non-blank
// lines share and re-prefixes every line with indent, so a range lifted out
// of its call site renders at the right depth inside the new function body.
func reindentBody(text, indent string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	common := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if common == -1 || n < common {
			common = n
		}
	}
	if common < 0 {
		common = 0
	}
	var out strings.Builder
	for _, line := range lines {
		trimmed := line
		if len(line) >= common {
			trimmed = line[common:]
		}
		out.WriteString(indent)
		out.WriteString(trimmed)
		out.WriteString("\n")
	}
	return out.String()
}

// tsCodegen renders extract_function definitions in the brace-block,
// semicolon-terminated style the typescript parser already recognizes
// (internal/parser/typescript/typescript.go's function/method matching).
func tsCodegen() codegen {
	render := func(name string, a extractfunc.Analysis) string {
		body := reindentBody(a.RangeText, "  ")
		var ret string
		switch len(a.ReturnVariables) {
		case 0:
		case 1:
			ret = fmt.Sprintf("  return %s;\n", a.ReturnVariables[0])
		default:
			ret = fmt.Sprintf("  return { %s };\n", strings.Join(a.ReturnVariables, ", "))
		}
		return fmt.Sprintf("function %s(%s) {\n%s%s}\n\n", name, strings.Join(a.Parameters, ", "), body, ret)
	}
	callExpr := func(name string, a extractfunc.Analysis) string {
		call := fmt.Sprintf("%s(%s)", name, strings.Join(a.Parameters, ", "))
		switch len(a.ReturnVariables) {
		case 0:
			return call + ";\n"
		case 1:
			return fmt.Sprintf("const %s = %s;\n", a.ReturnVariables[0], call)
		default:
			return fmt.Sprintf("const { %s } = %s;\n", strings.Join(a.ReturnVariables, ", "), call)
		}
	}
	return codegen{
		renderFunc:      render,
		callExprFunc:    callExpr,
		declKeyword:     "const",
		declTemplate:    "const %s = %s;",
		syntaxCheckLang: "typescript",
	}
}

// pythonCodegen renders extract_function definitions in def/indent style the
// python parser recognizes (internal/parser/python/python.go's decl scanning).
func pythonCodegen() codegen {
	render := func(name string, a extractfunc.Analysis) string {
		body := reindentBody(a.RangeText, "    ")
		var ret string
		if len(a.ReturnVariables) > 0 {
			ret = fmt.Sprintf("    return %s\n", strings.Join(a.ReturnVariables, ", "))
		}
		return fmt.Sprintf("def %s(%s):\n%s%s\n\n", name, strings.Join(a.Parameters, ", "), body, ret)
	}
	callExpr := func(name string, a extractfunc.Analysis) string {
		call := fmt.Sprintf("%s(%s)", name, strings.Join(a.Parameters, ", "))
		if len(a.ReturnVariables) == 0 {
			return call + "\n"
		}
		return fmt.Sprintf("%s = %s\n", strings.Join(a.ReturnVariables, ", "), call)
	}
	return codegen{
		renderFunc:      render,
		callExprFunc:    callExpr,
		declKeyword:     "",
		declTemplate:    "%s = %s",
		syntaxCheckLang: "python",
	}
}

// rustCodegen renders extract_function definitions in fn/brace-block style
// the rust parser recognizes (internal/parser/rust/rust.go's fn matching).
// Parameter and return types are not inferred (neither this engine nor its
// parser does type inference anywhere else), so generated signatures are
// left for the caller to annotate, matching this engine's other heuristic,
// non-type-checking planners.
func rustCodegen() codegen {
	render := func(name string, a extractfunc.Analysis) string {
		body := reindentBody(a.RangeText, "    ")
		var ret string
		var retType string
		switch len(a.ReturnVariables) {
		case 0:
		case 1:
			ret = fmt.Sprintf("    return %s;\n", a.ReturnVariables[0])
			retType = " /* TODO: return type */"
		default:
			ret = fmt.Sprintf("    return (%s);\n", strings.Join(a.ReturnVariables, ", "))
			retType = " /* TODO: return type */"
		}
		return fmt.Sprintf("fn %s(%s)%s {\n%s%s}\n\n", name, strings.Join(a.Parameters, ", "), retType, body, ret)
	}
	callExpr := func(name string, a extractfunc.Analysis) string {
		call := fmt.Sprintf("%s(%s)", name, strings.Join(a.Parameters, ", "))
		switch len(a.ReturnVariables) {
		case 0:
			return call + ";\n"
		case 1:
			return fmt.Sprintf("let %s = %s;\n", a.ReturnVariables[0], call)
		default:
			return fmt.Sprintf("let (%s) = %s;\n", strings.Join(a.ReturnVariables, ", "), call)
		}
	}
	return codegen{
		renderFunc:      render,
		callExprFunc:    callExpr,
		declKeyword:     "let",
		declTemplate:    "const %s = %s;",
		syntaxCheckLang: "rust",
	}
}
