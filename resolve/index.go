// Package resolve implements the resolution index described in spec.md
// §4.D: a sparse, Position-keyed structure of per-anchor-side mark stacks
// that answers "what wins at this position" and backs the change computer
// in package engine.
package resolve

import (
	"github.com/google/btree"
	"github.com/grailbio/richformat/anchor"
	"github.com/grailbio/richformat/mark"
)

// Stacks maps a format key to the marks contending for it at one anchor
// side, ordered ascending by precedence; the last element is the current
// winner.
type Stacks map[string][]*mark.Mark

func (s Stacks) clone() Stacks {
	if s == nil {
		return nil
	}
	out := make(Stacks, len(s))
	for k, v := range s {
		cp := make([]*mark.Mark, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

// FormatData holds the two anchor-side stacks at one position. Either side
// may be nil if nothing has ever needed it populated.
type FormatData struct {
	Before, After Stacks
}

// entry is the btree element: a Position ordered via the owning Index's
// anchor.Space, carrying its FormatData.
type entry struct {
	idx  *Index
	pos  anchor.Position
	data *FormatData
}

func (e *entry) Less(than btree.Item) bool {
	return e.idx.sp.Compare(e.pos, than.(*entry).pos) < 0
}

// Index is the resolution index. It is always seeded with MinPos().After
// populated empty, per invariant 4 in spec.md §3, so the left-walk used by
// Lookup always terminates.
type Index struct {
	sp   anchor.Space
	tree *btree.BTree
}

// degree follows google/btree's own recommendation of a moderate branching
// factor; the index is expected to hold at most a few anchors per mark, not
// millions of keys.
const degree = 32

// New returns an Index seeded per invariant 4.
func New(sp anchor.Space) *Index {
	idx := &Index{sp: sp, tree: btree.New(degree)}
	idx.tree.ReplaceOrInsert(&entry{idx: idx, pos: sp.MinPos(), data: &FormatData{After: Stacks{}}})
	return idx
}

func (idx *Index) get(pos anchor.Position) (*entry, bool) {
	item := idx.tree.Get(&entry{idx: idx, pos: pos})
	if item == nil {
		return nil, false
	}
	return item.(*entry), true
}

// predecessor returns the entry at the greatest position strictly less
// than pos, which invariant 4 guarantees always exists (MinPos().After is
// always present).
func (idx *Index) predecessor(pos anchor.Position) *entry {
	var pred *entry
	idx.tree.DescendLessOrEqual(&entry{idx: idx, pos: pos}, func(item btree.Item) bool {
		e := item.(*entry)
		if idx.sp.Equal(e.pos, pos) {
			// Keep walking past the exact match; we want strictly less.
			return true
		}
		pred = e
		return false
	})
	return pred
}

// effectiveStacks returns the stacks that are in force immediately before
// pos: the predecessor entry's After side, falling back to its Before side
// if After was never populated.
func (idx *Index) effectiveStacks(pos anchor.Position) Stacks {
	pred := idx.predecessor(pos)
	if pred == nil {
		// Unreachable given the seeded MinPos entry, but fail safe.
		return Stacks{}
	}
	if pred.data.After != nil {
		return pred.data.After
	}
	if pred.data.Before != nil {
		return pred.data.Before
	}
	return Stacks{}
}

// CreateAt ensures an index entry exists at pos with the requested side
// populated, per spec.md §4.D's fill rule: a missing After side is filled
// by deep-copying the same entry's Before side; a missing Before side (or
// an After side with no Before to copy from) is filled from the effective
// stacks immediately to the left. It is a no-op for pos == MinPos, which is
// always pre-seeded. It returns the requested side's stacks.
func (idx *Index) CreateAt(pos anchor.Position, side anchor.Side) Stacks {
	if idx.sp.Equal(pos, idx.sp.MinPos()) {
		e, _ := idx.get(pos)
		return e.data.After
	}
	e, found := idx.get(pos)
	if !found {
		e = &entry{idx: idx, pos: pos, data: &FormatData{}}
		idx.tree.ReplaceOrInsert(e)
	}
	if side == anchor.Before {
		if e.data.Before == nil {
			e.data.Before = idx.effectiveStacks(pos).clone()
		}
		return e.data.Before
	}
	if e.data.After == nil {
		if e.data.Before != nil {
			e.data.After = e.data.Before.clone()
		} else {
			e.data.After = idx.effectiveStacks(pos).clone()
		}
	}
	return e.data.After
}

// Format derives the key->value map a set of stacks resolves to, omitting
// any key whose winner is mark.Null.
func Format(s Stacks) map[string]any {
	out := make(map[string]any, len(s))
	for k, stack := range s {
		if len(stack) == 0 {
			continue
		}
		top := stack[len(stack)-1]
		if mark.IsNull(top.Value) {
			continue
		}
		out[k] = top.Value
	}
	return out
}

// Lookup returns the format at position p, which must not be MinPos or
// MaxPos (those are gaps, not addressable positions; callers should check
// with anchor.Validate-adjacent logic before calling, or rely on the
// caller in package engine which enforces this).
func (idx *Index) Lookup(p anchor.Position) map[string]any {
	if e, found := idx.get(p); found && e.data.Before != nil {
		return Format(e.data.Before)
	}
	return Format(idx.effectiveStacks(p))
}

// Entry exposes one index entry for iteration (engine.FormattedSpans walks
// every entry in position order).
type Entry struct {
	Pos           anchor.Position
	Before, After Stacks
}

// Ascend visits every entry in ascending position order, stopping early if
// fn returns false.
func (idx *Index) Ascend(fn func(Entry) bool) {
	idx.tree.Ascend(func(item btree.Item) bool {
		e := item.(*entry)
		return fn(Entry{Pos: e.pos, Before: e.data.Before, After: e.data.After})
	})
}

// GC removes entries whose both sides are empty or absent, per spec.md
// §9's open question on garbage collection: allowed, not required. An
// empty entry is kept when the stacks in force to its left are not empty,
// since it marks where that formatting ends. It never touches the seeded
// MinPos entry.
func (idx *Index) GC() {
	var dead []anchor.Position
	leftEmpty := true
	idx.tree.Ascend(func(item btree.Item) bool {
		e := item.(*entry)
		if idx.sp.Equal(e.pos, idx.sp.MinPos()) {
			leftEmpty = isEmpty(e.data.After)
			return true
		}
		if isEmpty(e.data.Before) && isEmpty(e.data.After) && leftEmpty {
			dead = append(dead, e.pos)
		} else if e.data.After != nil {
			leftEmpty = isEmpty(e.data.After)
		} else {
			leftEmpty = isEmpty(e.data.Before)
		}
		return true
	})
	for _, p := range dead {
		idx.tree.Delete(&entry{idx: idx, pos: p})
	}
}

func isEmpty(s Stacks) bool {
	if s == nil {
		return true
	}
	for _, stack := range s {
		if len(stack) > 0 {
			return false
		}
	}
	return true
}
