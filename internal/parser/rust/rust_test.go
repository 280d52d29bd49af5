package rust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixforge/codemill/internal/symbol"
)

func TestParseSourceExtractsFunctionsStructsAndEnds(t *testing.T) {
	src := `pub fn hello_b() -> i32 {
    42
}

struct Point {
    x: i32,
}
`
	p := New()
	result, err := p.ParseSource(src)
	require.NoError(t, err)
	require.Len(t, result.Symbols, 2)

	fn := result.Symbols[0]
	assert.Equal(t, "hello_b", fn.Name)
	assert.Equal(t, symbol.KindFunction, fn.Kind)
	require.NotNil(t, fn.End)
	assert.True(t, fn.Start.Less(*fn.End) || fn.Start == *fn.End)

	st := result.Symbols[1]
	assert.Equal(t, "Point", st.Name)
	assert.Equal(t, symbol.KindStruct, st.Kind)
}

func TestParseImportsExtractsUseTree(t *testing.T) {
	src := "use crate_b::hello_b;\nuse std::collections::{HashMap, HashSet as Set};\n"
	p := New()
	imports, err := p.ParseImports(src)
	require.NoError(t, err)
	require.Len(t, imports, 2)
	assert.Equal(t, "crate_b::hello_b", imports[0].ModulePath)
	assert.Equal(t, symbol.ImportRustUse, imports[0].Kind)
	assert.Equal(t, "std::collections", imports[1].ModulePath)
}

func TestParseUseTreeGroupAndAlias(t *testing.T) {
	tree := ParseUseTree("a::b::{c, d as e}")
	assert.Equal(t, []string{"a", "b"}, tree.Segments)
	require.Len(t, tree.Group, 2)
	assert.Equal(t, []string{"c"}, tree.Group[0].Segments)
	assert.Equal(t, []string{"d"}, tree.Group[1].Segments)
	assert.Equal(t, "e", tree.Group[1].Alias)
}

func TestParseUseTreeNestedGroup(t *testing.T) {
	// spec §9 Open Question: nested-group tests explicitly covered.
	tree := ParseUseTree("a::{b::{c, d}, e}")
	require.Len(t, tree.Group, 2)
	assert.Equal(t, []string{"b"}, tree.Group[0].Segments)
	require.Len(t, tree.Group[0].Group, 2)
	assert.Equal(t, []string{"c"}, tree.Group[0].Group[0].Segments)
	assert.Equal(t, []string{"e"}, tree.Group[1].Segments)
}

func TestParseUseTreeGlob(t *testing.T) {
	tree := ParseUseTree("crate_a::prelude::*")
	assert.True(t, tree.Glob)
	assert.Equal(t, []string{"crate_a", "prelude"}, tree.Segments)
}

func TestIsExternal(t *testing.T) {
	p := New()
	assert.False(t, p.IsExternal("crate::foo"))
	assert.False(t, p.IsExternal("self::bar"))
	assert.False(t, p.IsExternal("super::baz"))
	assert.True(t, p.IsExternal("serde::Serialize"))
}

func TestIsLiteralLocationSafeRejectsInsideStringAndComment(t *testing.T) {
	p := New()
	src := `fn f() {
    let s = "42";
    // 42
    let x = 42;
}
`
	// position of the "42" inside the string literal on line 1
	unsafePos := symbol.Position{Line: 1, Column: 14}
	assert.False(t, p.IsLiteralLocationSafe(src, unsafePos, 2))

	safePos := symbol.Position{Line: 3, Column: 13}
	assert.True(t, p.IsLiteralLocationSafe(src, safePos, 2))
}
