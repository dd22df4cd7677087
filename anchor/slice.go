package anchor

import "github.com/pkg/errors"

// Bias controls which side of a gap ResolveBias resolves to when the
// position queried with IndexOfPosition is absent from the list.
type Bias int

const (
	// BiasLeft resolves to the index strictly to the left of the gap.
	BiasLeft Bias = iota
	// BiasRight resolves to the index strictly to the right of the gap.
	BiasRight
)

// Bind controls which gap anchorAt produces for a given index: the one
// immediately to the left of it (anchored off the preceding position) or
// immediately to the right (anchored off the following position).
type Bind int

const (
	BindLeft Bind = iota
	BindRight
)

// Expand controls how spanFromSlice widens a slice-derived span past its
// endpoints, e.g. so inserted content continues a neighboring mark.
type Expand int

const (
	ExpandNone Expand = iota
	ExpandBefore
	ExpandAfter
	ExpandBoth
)

// List is the minimal read-only view of a backing sequence this package
// needs: its length, and the position held at a given index.
type List interface {
	Length() int
	PositionAt(i int) Position
}

// IndexOfAnchor returns the index immediately to the right of a in list:
// for a Before anchor, the index of the first present position >= a.Pos;
// for an After anchor, one past the index of the last present position
// <= a.Pos. The result is always in [0, list.Length()].
func IndexOfAnchor(sp Space, list List, a Anchor) int {
	n := list.Length()
	lo, hi := 0, n
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		p := list.PositionAt(mid)
		var before bool
		if a.Side == Before {
			before = sp.Compare(p, a.Pos) < 0
		} else {
			before = sp.Compare(p, a.Pos) <= 0
		}
		if before {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// AnchorAt returns the anchor in the gap between index i-1 and i. bind
// chooses which neighboring position the anchor is expressed relative to:
// BindLeft yields (positionAt(i-1), After), or MinAnchor when i == 0;
// BindRight yields (positionAt(i), Before), or MaxAnchor when i == length.
func AnchorAt(sp Space, list List, i int, bind Bind) Anchor {
	n := list.Length()
	if bind == BindLeft {
		if i == 0 {
			return MinAnchor(sp)
		}
		return Anchor{Pos: list.PositionAt(i - 1), Side: After}
	}
	if i == n {
		return MaxAnchor(sp)
	}
	return Anchor{Pos: list.PositionAt(i), Side: Before}
}

// Span is a half-open anchor interval [Start, End).
type Span struct {
	Start, End Anchor
}

// SliceFromSpan projects an anchor span back onto index space by running
// IndexOfAnchor on each endpoint.
func SliceFromSpan(sp Space, list List, s Span) (startIdx, endIdx int) {
	return IndexOfAnchor(sp, list, s.Start), IndexOfAnchor(sp, list, s.End)
}

// IndexOfPosition returns the index of p in list if present; otherwise the
// insertion point it would occupy, which is the index strictly to the right
// of the gap. ResolveBias turns that into a left- or right-biased index.
func IndexOfPosition(sp Space, list List, p Position) (idx int, found bool) {
	n := list.Length()
	lo, hi := 0, n
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if sp.Compare(list.PositionAt(mid), p) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < n && sp.Equal(list.PositionAt(lo), p) {
		return lo, true
	}
	return lo, false
}

// ResolveBias turns the (idx, found) pair IndexOfPosition returns into a
// single index per the requested Bias, when p is absent from the list.
func ResolveBias(idx int, found bool, bias Bias) int {
	if found || bias == BiasRight {
		return idx
	}
	return idx - 1
}

// SpanFromSlice builds the anchor span corresponding to the half-open index
// range [startIdx, endIdx), choosing each endpoint's bind per expand:
// ExpandBefore/ExpandBoth widen the start to include the gap before it;
// ExpandAfter/ExpandBoth widen the end to include the gap after it. It
// fails if startIdx >= endIdx or either index falls outside [0, length].
func SpanFromSlice(sp Space, list List, startIdx, endIdx int, expand Expand) (Span, error) {
	n := list.Length()
	if startIdx < 0 || endIdx > n || startIdx >= endIdx {
		return Span{}, errors.Wrapf(ErrOutOfRange, "slice [%d, %d) invalid for length %d", startIdx, endIdx, n)
	}
	startBind := BindRight
	if expand == ExpandBefore || expand == ExpandBoth {
		startBind = BindLeft
	}
	endBind := BindLeft
	if expand == ExpandAfter || expand == ExpandBoth {
		endBind = BindRight
	}
	return Span{
		Start: AnchorAt(sp, list, startIdx, startBind),
		End:   AnchorAt(sp, list, endIdx, endBind),
	}, nil
}
