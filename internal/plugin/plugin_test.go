package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapabilitiesSupportsMapsStableMethodNames(t *testing.T) {
	c := Capabilities{
		Navigation:  NavigationCapabilities{FindReferences: true},
		Refactoring: RefactoringCapabilities{ExtractFunction: true, MoveRefactor: true},
	}
	assert.True(t, c.Supports("find_references"))
	assert.True(t, c.Supports("extract_function"))
	assert.True(t, c.Supports("move_refactor"))
	assert.True(t, c.Supports("rename_directory"), "rename_directory shares the MoveRefactor capability")
	assert.False(t, c.Supports("inline_variable"))
}

func TestCapabilitiesSupportsFallsBackToExtras(t *testing.T) {
	c := Capabilities{Extras: map[string]bool{"custom_tool": true}}
	assert.True(t, c.Supports("custom_tool"))
	assert.False(t, c.Supports("other_tool"))
}

func TestCapabilitiesSupportsUnknownMethodWithNilExtras(t *testing.T) {
	c := Capabilities{}
	assert.False(t, c.Supports("anything"))
}
