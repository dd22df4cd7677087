// Package engine implements the change computer (spec.md §4.E): AddMark
// and DeleteMark over a mark.Store and a resolve.Index, emitting the
// minimal list of observable format changes each mutation causes, plus
// FormattedSpans for reading back the resolved state as maximal spans.
package engine

import (
	"reflect"

	"github.com/pkg/errors"

	"github.com/grailbio/richformat/anchor"
	"github.com/grailbio/richformat/mark"
	"github.com/grailbio/richformat/resolve"
	"github.com/grailbio/richformat/span"
)

// ErrMarkRangeInvalid is returned by AddMark when start >= end, except for
// the one allowed zero-width case: (p, Before) -> (p, After) on the same
// position, which identifies a single position (e.g. for formatting an
// embed).
var ErrMarkRangeInvalid = errors.New("engine: mark start must precede end")

// Change is one observable format transition, corresponding to a maximal
// span over which a single key's winner changed (or, for DeleteMark,
// reverted) to a new value.
type Change struct {
	Start, End    anchor.Anchor
	Key           string
	Value         any
	PreviousValue any
	Format        map[string]any
}

// Engine ties a mark.Store and a resolve.Index to one anchor.Space,
// implementing spec.md §4.E/§4.D's combined read/write contract.
type Engine struct {
	sp    anchor.Space
	store *mark.Store
	index *resolve.Index
}

// New returns an empty Engine over sp, ordering marks with cmp (nil for
// mark.DefaultComparator).
func New(sp anchor.Space, cmp mark.Comparator) *Engine {
	return &Engine{sp: sp, store: mark.NewStore(cmp), index: resolve.New(sp)}
}

// Space returns the anchor.Space this engine was constructed with.
func (e *Engine) Space() anchor.Space { return e.sp }

// MarkStore exposes the underlying mark.Store for callers (package
// richformat's Save) that need to enumerate every mark currently applied.
func (e *Engine) MarkStore() *mark.Store { return e.store }

// GetFormat returns the format at position p, which must not be MinPos or
// MaxPos.
func (e *Engine) GetFormat(p anchor.Position) (map[string]any, error) {
	if e.sp.Equal(p, e.sp.MinPos()) || e.sp.Equal(p, e.sp.MaxPos()) {
		return nil, anchor.ErrFormatAtBoundary
	}
	return e.index.Lookup(p), nil
}

// sideIncluded reports whether the Before/After side of the index entry at pos
// falls within the half-open span [start, end), per the inclusion table in
// spec.md §4.E.
func sideIncluded(sp anchor.Space, start, end anchor.Anchor, pos anchor.Position, side anchor.Side) bool {
	atStart := sp.Equal(pos, start.Pos)
	atEnd := sp.Equal(pos, end.Pos)
	switch {
	case atStart && atEnd:
		// Only possible for the allowed zero-width mark, (p,Before)->(p,After).
		if side == anchor.Before {
			return start.Side == anchor.Before
		}
		return false
	case atStart:
		if side == anchor.Before {
			return start.Side == anchor.Before
		}
		return true
	case atEnd:
		if side == anchor.Before {
			return end.Side == anchor.After
		}
		return false
	default:
		return true
	}
}

func isZeroWidthAllowed(m *mark.Mark) bool {
	return m.Start.Side == anchor.Before && m.End.Side == anchor.After
}

func validateRange(sp anchor.Space, m *mark.Mark) error {
	c := anchor.Compare(sp, m.Start, m.End)
	if c < 0 {
		return nil
	}
	if c == 0 && sp.Equal(m.Start.Pos, m.End.Pos) && isZeroWidthAllowed(m) {
		return nil
	}
	return errors.Wrapf(ErrMarkRangeInvalid, "start %v must precede end %v", m.Start, m.End)
}

// changePayload is the (previousValue, formatAfter) pair spec.md §4.E
// streams through the span builder. Changed reports whether the key's
// resolved value actually differs from before (a new winner carrying the
// same value does not count); an unchanged payload exists only to break a
// running span.
type changePayload struct {
	changed       bool
	previousValue any
	format        map[string]any
}

func formatEqual(a, b map[string]any) bool {
	return reflect.DeepEqual(a, b)
}

func payloadEqual(a, b changePayload) bool {
	if a.changed != b.changed {
		return false
	}
	if !reflect.DeepEqual(a.previousValue, b.previousValue) {
		return false
	}
	return formatEqual(a.format, b.format)
}

// insertSorted inserts m into stack (ascending by cmp), returning the new
// stack and whether m landed on top (i.e. became the new winner).
func insertSorted(stack []*mark.Mark, m *mark.Mark, cmp mark.Comparator) ([]*mark.Mark, bool) {
	i := 0
	for i < len(stack) && cmp(stack[i], m) < 0 {
		i++
	}
	out := make([]*mark.Mark, len(stack)+1)
	copy(out, stack[:i])
	out[i] = m
	copy(out[i+1:], stack[i:])
	return out, i == len(stack)
}

func removeFromStack(stack []*mark.Mark, m *mark.Mark) ([]*mark.Mark, bool) {
	for i, s := range stack {
		if s == m {
			wasTop := i == len(stack)-1
			out := make([]*mark.Mark, 0, len(stack)-1)
			out = append(out, stack[:i]...)
			out = append(out, stack[i+1:]...)
			return out, wasTop
		}
	}
	return stack, false
}

func topValue(stack []*mark.Mark) (any, bool) {
	if len(stack) == 0 {
		return nil, false
	}
	return stack[len(stack)-1].Value, true
}

// AddMark inserts m, returning the minimal list of format changes it
// causes. If a comparator-equal mark is already present, or m's range is
// invalid, AddMark is a synchronous no-op/failure and the engine is left
// untouched.
func (e *Engine) AddMark(m *mark.Mark) ([]Change, error) {
	if err := validateRange(e.sp, m); err != nil {
		return nil, err
	}
	inserted, err := e.store.Add(m)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, nil
	}

	e.index.CreateAt(m.Start.Pos, m.Start.Side)
	e.index.CreateAt(m.End.Pos, m.End.Side)

	// Materialize every included side in the range before inserting m
	// anywhere: CreateAt fills a missing Before side from the entry to its
	// left, which would already hold m if that entry were updated first.
	e.index.Ascend(func(en resolve.Entry) bool {
		if e.sp.Compare(en.Pos, m.End.Pos) > 0 {
			return false
		}
		for _, side := range []anchor.Side{anchor.Before, anchor.After} {
			if e.sp.Compare(en.Pos, m.Start.Pos) >= 0 && sideIncluded(e.sp, m.Start, m.End, en.Pos, side) {
				e.index.CreateAt(en.Pos, side)
			}
		}
		return true
	})

	cmp := e.store.Comparator()
	b := span.New(payloadEqual, func(a, c anchor.Anchor) bool { return anchor.Less(e.sp, a, c) })

	e.index.Ascend(func(en resolve.Entry) bool {
		if e.sp.Compare(en.Pos, m.Start.Pos) < 0 {
			return true
		}
		if e.sp.Compare(en.Pos, m.End.Pos) > 0 {
			return false
		}
		// Materialize every included side's stacks before inserting m into
		// any of them: CreateAt(pos, After) fills a missing After side by
		// copying Before, so if Before already held m by the time After is
		// created, m would be copied into After too and end up duplicated.
		var sides []anchor.Side
		stacksBySide := map[anchor.Side]resolve.Stacks{}
		for _, side := range []anchor.Side{anchor.Before, anchor.After} {
			if !sideIncluded(e.sp, m.Start, m.End, en.Pos, side) {
				continue
			}
			sides = append(sides, side)
			stacksBySide[side] = e.index.CreateAt(en.Pos, side)
		}
		for _, side := range sides {
			stacks := stacksBySide[side]
			stack := stacks[m.Key]
			newStack, isTop := insertSorted(stack, m, cmp)
			stacks[m.Key] = newStack
			a := anchor.Anchor{Pos: en.Pos, Side: side}
			if isTop {
				prev, had := topValue(stack)
				// The winning mark at this anchor changed, but that is only an
				// observable change if the resolved value actually differs —
				// two marks can legitimately agree on the same value.
				changed := !reflect.DeepEqual(prev, m.Value)
				if !had {
					// No earlier winner: previousValue stays nil, and only a
					// non-Null value is observable.
					changed = !mark.IsNull(m.Value)
				}
				b.Push(a, changePayload{changed: changed, previousValue: prev, format: resolve.Format(stacks)})
			} else {
				cur, _ := topValue(newStack)
				b.Push(a, changePayload{changed: false, previousValue: cur, format: resolve.Format(stacks)})
			}
		}
		return true
	})

	spans := b.Finish(m.End)
	return toChanges(m.Key, m.Value, spans), nil
}

// DeleteMark removes the comparator-equal mark to m, returning the
// resulting format changes. If no such mark is present, it is a no-op.
func (e *Engine) DeleteMark(m *mark.Mark) ([]Change, error) {
	removed, err := e.store.Remove(m)
	if err != nil {
		return nil, err
	}
	if removed == nil {
		return nil, nil
	}

	b := span.New(payloadEqual, func(a, c anchor.Anchor) bool { return anchor.Less(e.sp, a, c) })

	e.index.Ascend(func(en resolve.Entry) bool {
		if e.sp.Compare(en.Pos, removed.Start.Pos) < 0 {
			return true
		}
		if e.sp.Compare(en.Pos, removed.End.Pos) > 0 {
			return false
		}
		for _, side := range []anchor.Side{anchor.Before, anchor.After} {
			if !sideIncluded(e.sp, removed.Start, removed.End, en.Pos, side) {
				continue
			}
			stacks := e.index.CreateAt(en.Pos, side)
			stack := stacks[removed.Key]
			newStack, wasTop := removeFromStack(stack, removed)
			if len(newStack) == 0 {
				delete(stacks, removed.Key)
			} else {
				stacks[removed.Key] = newStack
			}
			a := anchor.Anchor{Pos: en.Pos, Side: side}
			if wasTop {
				next, had := topValue(newStack)
				if !had {
					next = mark.Null
				}
				changed := !reflect.DeepEqual(next, removed.Value)
				b.Push(a, changePayload{changed: changed, previousValue: removed.Value, format: resolve.Format(stacks)})
			} else {
				cur, _ := topValue(newStack)
				b.Push(a, changePayload{changed: false, previousValue: cur, format: resolve.Format(stacks)})
			}
		}
		return true
	})

	spans := b.Finish(removed.End)
	return toDeleteChanges(removed.Key, spans), nil
}

func toChanges(key string, value any, spans []span.Span[anchor.Anchor, changePayload]) []Change {
	var out []Change
	for _, s := range spans {
		if !s.Payload.changed {
			continue
		}
		out = append(out, Change{
			Start:         s.Start,
			End:           s.End,
			Key:           key,
			Value:         value,
			PreviousValue: s.Payload.previousValue,
			Format:        s.Payload.format,
		})
	}
	return out
}

func toDeleteChanges(key string, spans []span.Span[anchor.Anchor, changePayload]) []Change {
	var out []Change
	for _, s := range spans {
		if !s.Payload.changed {
			continue
		}
		value, ok := s.Payload.format[key]
		if !ok {
			value = mark.Null
		}
		out = append(out, Change{
			Start:         s.Start,
			End:           s.End,
			Key:           key,
			Value:         value,
			PreviousValue: s.Payload.previousValue,
			Format:        s.Payload.format,
		})
	}
	return out
}
