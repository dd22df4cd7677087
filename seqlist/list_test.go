package seqlist

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grailbio/richformat/fracpos"
)

func TestInsertAtMintsOrderedPositions(t *testing.T) {
	l := New()
	l.InsertAt(0, "a")
	l.InsertAt(1, "c")
	l.InsertAt(1, "b")

	assert.Equal(t, []any{"a", "b", "c"}, values(l))
	for i := 1; i < l.Length(); i++ {
		assert.Equal(t, -1, l.PositionAt(i-1).(fracpos.Position).Compare(l.PositionAt(i).(fracpos.Position)))
	}
}

func TestInsertManyAtMintsStrictlyIncreasingPositions(t *testing.T) {
	l := New()
	l.InsertAt(0, "start")
	l.InsertAt(1, "end")

	positions := l.InsertManyAt(1, []any{"x", "y", "z"})
	assert.Len(t, positions, 3)
	for i := 1; i < len(positions); i++ {
		assert.Equal(t, -1, positions[i-1].Compare(positions[i]))
	}
	assert.Equal(t, []any{"start", "x", "y", "z", "end"}, values(l))
}

func TestDeleteAt(t *testing.T) {
	l := New()
	l.InsertAt(0, "a")
	l.InsertAt(1, "b")
	l.DeleteAt(0)
	assert.Equal(t, []any{"b"}, values(l))
}

func TestIndexOfPosition(t *testing.T) {
	l := New()
	l.InsertAt(0, "a")
	l.InsertAt(1, "b")
	p := l.PositionAt(1)

	idx, found := l.IndexOfPosition(fracpos.Space{}, p)
	assert.True(t, found)
	assert.Equal(t, 1, idx)
}

func TestFromItemsPreservesOrder(t *testing.T) {
	l := New()
	l.InsertAt(0, "a")
	l.InsertAt(1, "b")
	rebuilt := FromItems(l.Items())
	assert.Equal(t, values(l), values(rebuilt))
}

func values(l *List) []any {
	out := make([]any, l.Length())
	for i := range out {
		out[i] = l.ValueAt(i)
	}
	return out
}
