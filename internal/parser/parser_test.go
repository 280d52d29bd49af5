package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/helixforge/codemill/internal/symbol"
)

func TestPositionAtOffsetAtRoundTrip(t *testing.T) {
	src := "line0\nline1\nline2"
	for _, offset := range []int{0, 3, 6, 11, 12, len(src)} {
		pos := PositionAt(src, offset)
		back := OffsetAt(src, pos)
		assert.Equal(t, offset, back, "offset=%d pos=%v", offset, pos)
	}
}

func TestPositionAtTracksLineAndColumn(t *testing.T) {
	src := "ab\ncd\n"
	assert.Equal(t, symbol.Position{Line: 0, Column: 2}, PositionAt(src, 2))
	assert.Equal(t, symbol.Position{Line: 1, Column: 0}, PositionAt(src, 3))
	assert.Equal(t, symbol.Position{Line: 1, Column: 2}, PositionAt(src, 5))
}

func TestOffsetAtPastEndReturnsNegativeOne(t *testing.T) {
	src := "abc"
	assert.Equal(t, -1, OffsetAt(src, symbol.Position{Line: 5, Column: 0}))
}

func TestScopeStackPushPopOrder(t *testing.T) {
	var s ScopeStack
	assert.Equal(t, 0, s.Len())
	s.Push(scopeFrame{Kind: symbol.KindFunction, Name: "outer"})
	s.Push(scopeFrame{Kind: symbol.KindFunction, Name: "inner"})
	assert.Equal(t, 2, s.Len())

	top, ok := s.Top()
	assert.True(t, ok)
	assert.Equal(t, "inner", top.Name)

	popped, ok := s.Pop()
	assert.True(t, ok)
	assert.Equal(t, "inner", popped.Name)
	assert.Equal(t, 1, s.Len())

	popped, ok = s.Pop()
	assert.True(t, ok)
	assert.Equal(t, "outer", popped.Name)

	_, ok = s.Pop()
	assert.False(t, ok)
}
