// Package anchor implements the anchor algebra: points in the gaps just
// before or after a position in an externally owned, totally ordered
// position space. The space itself (how positions compare, and what its
// minimum/maximum sentinels are) is supplied by the caller through Space;
// this package never mints, stores, or mutates positions.
package anchor

import "github.com/pkg/errors"

// Side distinguishes the gap immediately before a position from the gap
// immediately after it.
type Side int

const (
	Before Side = iota
	After
)

func (s Side) String() string {
	if s == Before {
		return "before"
	}
	return "after"
}

// Position is an opaque identifier from an external position space. The
// engine never inspects it directly; every comparison goes through Space.
type Position = any

// Anchor is a point in the gap just before or just after pos.
type Anchor struct {
	Pos  Position
	Side Side
}

// Space is the external position-space contract consumed by this package
// and its callers (spec.md §6's "position space contract"). MinPos and
// MaxPos are reserved sentinels that compare strictly below/above every
// real position.
type Space interface {
	// Compare returns -1, 0, or 1 as a is less than, equal to, or greater
	// than b.
	Compare(a, b Position) int
	Equal(a, b Position) bool
	MinPos() Position
	MaxPos() Position
}

// MinAnchor and MaxAnchor bound the anchor space for a given Space: the
// gap just after MinPos, and the gap just before MaxPos.
func MinAnchor(sp Space) Anchor { return Anchor{Pos: sp.MinPos(), Side: After} }
func MaxAnchor(sp Space) Anchor { return Anchor{Pos: sp.MaxPos(), Side: Before} }

// ErrInvalidAnchor is returned for the two excluded extremes,
// (MinPos, Before) and (MaxPos, After), which do not identify a gap in the
// space.
var ErrInvalidAnchor = errors.New("anchor: invalid anchor")

// ErrOutOfRange is returned by slice/span conversions given indices outside
// [0, length] or a non-increasing range.
var ErrOutOfRange = errors.New("anchor: index out of range")

// ErrFormatAtBoundary is returned when a format lookup is attempted at
// MinPos or MaxPos directly, which are gaps, not addressable positions.
var ErrFormatAtBoundary = errors.New("anchor: format lookup at boundary position")

// Validate rejects exactly the two illegal extremes; every other
// combination of position and side is a valid anchor.
func Validate(sp Space, a Anchor) error {
	if a.Side == Before && sp.Equal(a.Pos, sp.MinPos()) {
		return errors.Wrapf(ErrInvalidAnchor, "(MinPos, before) is not a valid gap")
	}
	if a.Side == After && sp.Equal(a.Pos, sp.MaxPos()) {
		return errors.Wrapf(ErrInvalidAnchor, "(MaxPos, after) is not a valid gap")
	}
	return nil
}

// Equal reports component-wise equality.
func Equal(sp Space, a, b Anchor) bool {
	return a.Side == b.Side && sp.Equal(a.Pos, b.Pos)
}

// Compare orders anchors by position, breaking ties so that Before sorts
// immediately ahead of After at the same position.
func Compare(sp Space, a, b Anchor) int {
	if c := sp.Compare(a.Pos, b.Pos); c != 0 {
		return c
	}
	if a.Side == b.Side {
		return 0
	}
	if a.Side == Before {
		return -1
	}
	return 1
}

// Less is Compare expressed as a strict order, for callers (such as the
// ordered-map adapters in resolve) that want a boolean less-than.
func Less(sp Space, a, b Anchor) bool {
	return Compare(sp, a, b) < 0
}
