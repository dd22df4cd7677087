// Package seqlist implements a minimal backing sequence: an ordered list
// pairing a fracpos.Position with an arbitrary payload. It plays the role
// spec.md §1 calls "the backing list of values", kept out of the core's
// scope but needed here to exercise and demonstrate package richformat end
// to end, the way grailbio/bio/interval ships BEDUnion as one concrete
// consumer of its lower-level endpoint primitives.
package seqlist

import (
	"github.com/grailbio/richformat/anchor"
	"github.com/grailbio/richformat/fracpos"
)

// Item is one element of a List: the position it occupies and its value.
type Item struct {
	Pos   fracpos.Position
	Value any
}

// List is a position-ordered sequence. It is not safe for concurrent use,
// matching the single-threaded cooperative model in spec.md §5.
type List struct {
	items []Item
}

// New returns an empty List.
func New() *List { return &List{} }

// FromItems builds a List directly from already-positioned items, as used
// when reloading a previously saved document. items must already be sorted
// by Pos; FromItems does not re-sort or validate them.
func FromItems(items []Item) *List { return &List{items: items} }

// Length implements anchor.List.
func (l *List) Length() int { return len(l.items) }

// PositionAt implements anchor.List.
func (l *List) PositionAt(i int) anchor.Position { return l.items[i].Pos }

// ValueAt returns the payload stored at index i.
func (l *List) ValueAt(i int) any { return l.items[i].Value }

// Items returns the list contents in order. Callers must not mutate the
// returned slice.
func (l *List) Items() []Item { return l.items }

// positionBefore/positionAfter return the neighboring positions around idx,
// falling back to the sentinels at the ends.
func (l *List) positionBefore(idx int) fracpos.Position {
	if idx == 0 {
		return fracpos.MinPos
	}
	return l.items[idx-1].Pos
}

func (l *List) positionAfter(idx int) fracpos.Position {
	if idx == len(l.items) {
		return fracpos.MaxPos
	}
	return l.items[idx].Pos
}

// InsertAt mints a fresh position strictly between idx-1 and idx and
// inserts value there, returning the position it was given.
func (l *List) InsertAt(idx int, value any) fracpos.Position {
	pos := fracpos.Between(l.positionBefore(idx), l.positionAfter(idx))
	l.items = append(l.items, Item{})
	copy(l.items[idx+1:], l.items[idx:])
	l.items[idx] = Item{Pos: pos, Value: value}
	return pos
}

// InsertManyAt mints len(values) fresh, strictly increasing positions
// between idx-1 and idx and inserts them in order, returning the minted
// positions.
func (l *List) InsertManyAt(idx int, values []any) []fracpos.Position {
	positions := make([]fracpos.Position, len(values))
	lo := l.positionBefore(idx)
	hi := l.positionAfter(idx)
	for i := range values {
		// Repeated bisection of the remaining gap keeps every minted
		// position strictly increasing and strictly inside (lo, hi).
		p := fracpos.Between(lo, hi)
		positions[i] = p
		lo = p
	}
	items := make([]Item, len(values))
	for i, v := range values {
		items[i] = Item{Pos: positions[i], Value: v}
	}
	l.items = append(l.items[:idx], append(items, l.items[idx:]...)...)
	return positions
}

// DeleteAt removes the item at idx.
func (l *List) DeleteAt(idx int) {
	l.items = append(l.items[:idx], l.items[idx+1:]...)
}

// IndexOfPosition returns the index of p if present, and whether it was
// found.
func (l *List) IndexOfPosition(sp anchor.Space, p anchor.Position) (idx int, found bool) {
	return anchor.IndexOfPosition(sp, l, p)
}
