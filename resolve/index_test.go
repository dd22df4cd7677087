package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grailbio/richformat/anchor"
	"github.com/grailbio/richformat/mark"
)

type intSpace struct{}

func (intSpace) Compare(a, b anchor.Position) int {
	ai, bi := a.(int), b.(int)
	switch {
	case ai < bi:
		return -1
	case ai > bi:
		return 1
	default:
		return 0
	}
}
func (intSpace) Equal(a, b anchor.Position) bool { return a.(int) == b.(int) }
func (intSpace) MinPos() anchor.Position         { return 0 }
func (intSpace) MaxPos() anchor.Position         { return 100 }

func boldMark(start, end int, value any, ts uint64) *mark.Mark {
	return &mark.Mark{
		Start: anchor.Anchor{Pos: start, Side: anchor.Before},
		End:   anchor.Anchor{Pos: end, Side: anchor.Before},
		Key:   "bold", Value: value, Timestamp: ts, CreatorID: "a",
	}
}

func TestNewIndexSeededWithMinPosAfter(t *testing.T) {
	idx := New(intSpace{})
	assert.Equal(t, map[string]any{}, idx.Lookup(50))
}

func TestCreateAtFillsFromPredecessor(t *testing.T) {
	idx := New(intSpace{})
	m := boldMark(10, 30, true, 1)

	before := idx.CreateAt(10, anchor.Before)
	before["bold"] = []*mark.Mark{m}
	after := idx.CreateAt(10, anchor.After)
	assert.Equal(t, Stacks{"bold": {m}}, after)

	// A later position with nothing created yet should resolve to the
	// effective stacks of its predecessor.
	assert.Equal(t, map[string]any{"bold": true}, idx.Lookup(20))
}

func TestCreateAtMinPosIsNoOp(t *testing.T) {
	idx := New(intSpace{})
	stacks := idx.CreateAt(0, anchor.After)
	assert.Equal(t, Stacks{}, stacks)
}

func TestFormatOmitsNullWinners(t *testing.T) {
	s := Stacks{
		"bold":  {boldMark(0, 1, true, 1)},
		"color": {boldMark(0, 1, mark.Null, 1)},
	}
	assert.Equal(t, map[string]any{"bold": true}, Format(s))
}

func TestAscendVisitsInPositionOrder(t *testing.T) {
	idx := New(intSpace{})
	idx.CreateAt(30, anchor.Before)
	idx.CreateAt(10, anchor.Before)
	idx.CreateAt(20, anchor.Before)

	var seen []anchor.Position
	idx.Ascend(func(e Entry) bool {
		seen = append(seen, e.Pos)
		return true
	})
	assert.Equal(t, []anchor.Position{0, 10, 20, 30}, seen)
}

func TestGCRemovesEmptyEntriesButKeepsSeededMin(t *testing.T) {
	idx := New(intSpace{})
	idx.CreateAt(10, anchor.Before)
	idx.CreateAt(10, anchor.After)

	var before int
	idx.Ascend(func(Entry) bool { before++; return true })
	assert.Equal(t, 2, before)

	idx.GC()

	var after int
	idx.Ascend(func(Entry) bool { after++; return true })
	assert.Equal(t, 1, after) // the empty entry at 10 is gone, MinPos stays
}
