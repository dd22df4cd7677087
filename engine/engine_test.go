package engine

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

func at(pos int, side anchor.Side) anchor.Anchor { return anchor.Anchor{Pos: pos, Side: side} }

func newMark(start, end anchor.Anchor, key string, value any, ts uint64, creator string) *mark.Mark {
	return &mark.Mark{Start: start, End: end, Key: key, Value: value, Timestamp: ts, CreatorID: creator}
}

func TestAddMarkRejectsInvertedRange(t *testing.T) {
	e := New(intSpace{}, nil)
	m := newMark(at(30, anchor.Before), at(10, anchor.Before), "bold", true, 1, "a")
	_, err := e.AddMark(m)
	assert.ErrorIs(t, err, ErrMarkRangeInvalid)
}

func TestAddMarkAllowsZeroWidthEmbed(t *testing.T) {
	e := New(intSpace{}, nil)
	m := newMark(at(10, anchor.Before), at(10, anchor.After), "embed", "img", 1, "a")
	changes, err := e.AddMark(m)
	assert.NoError(t, err)
	assert.NotEmpty(t, changes)
}

func TestAddMarkThenGetFormat(t *testing.T) {
	e := New(intSpace{}, nil)
	m := newMark(at(10, anchor.Before), at(30, anchor.Before), "bold", true, 1, "a")
	_, err := e.AddMark(m)
	assert.NoError(t, err)

	f, err := e.GetFormat(20)
	assert.NoError(t, err)
	assert.Equal(t, map[string]any{"bold": true}, f)

	f, err = e.GetFormat(40)
	assert.NoError(t, err)
	assert.Empty(t, f)
}

func TestGetFormatRejectsBoundaryPositions(t *testing.T) {
	e := New(intSpace{}, nil)
	_, err := e.GetFormat(0)
	assert.ErrorIs(t, err, anchor.ErrFormatAtBoundary)
	_, err = e.GetFormat(100)
	assert.ErrorIs(t, err, anchor.ErrFormatAtBoundary)
}

func TestAddMarkLaterTimestampWins(t *testing.T) {
	e := New(intSpace{}, nil)
	m1 := newMark(at(10, anchor.Before), at(30, anchor.Before), "bold", "a-val", 1, "a")
	m2 := newMark(at(10, anchor.Before), at(30, anchor.Before), "bold", "b-val", 2, "b")

	_, err := e.AddMark(m1)
	assert.NoError(t, err)
	changes, err := e.AddMark(m2)
	assert.NoError(t, err)
	assert.NotEmpty(t, changes)

	f, err := e.GetFormat(20)
	assert.NoError(t, err)
	assert.Equal(t, "b-val", f["bold"])
}

func TestAddMarkDuplicateIsNoOp(t *testing.T) {
	e := New(intSpace{}, nil)
	m1 := newMark(at(10, anchor.Before), at(30, anchor.Before), "bold", true, 1, "a")
	_, err := e.AddMark(m1)
	assert.NoError(t, err)

	m2 := newMark(at(10, anchor.Before), at(30, anchor.Before), "bold", true, 1, "a")
	changes, err := e.AddMark(m2)
	assert.NoError(t, err)
	assert.Nil(t, changes)
}

func TestDeleteMarkRevertsToPreviousWinner(t *testing.T) {
	e := New(intSpace{}, nil)
	m1 := newMark(at(10, anchor.Before), at(30, anchor.Before), "bold", "a-val", 1, "a")
	m2 := newMark(at(10, anchor.Before), at(30, anchor.Before), "bold", "b-val", 2, "b")
	_, err := e.AddMark(m1)
	assert.NoError(t, err)
	_, err = e.AddMark(m2)
	assert.NoError(t, err)

	changes, err := e.DeleteMark(newMark(at(10, anchor.Before), at(30, anchor.Before), "bold", "b-val", 2, "b"))
	assert.NoError(t, err)
	assert.NotEmpty(t, changes)

	f, err := e.GetFormat(20)
	assert.NoError(t, err)
	assert.Equal(t, "a-val", f["bold"])
}

func TestDeleteMarkLastOneClearsKey(t *testing.T) {
	e := New(intSpace{}, nil)
	m := newMark(at(10, anchor.Before), at(30, anchor.Before), "bold", true, 1, "a")
	_, err := e.AddMark(m)
	assert.NoError(t, err)

	changes, err := e.DeleteMark(newMark(at(10, anchor.Before), at(30, anchor.Before), "bold", true, 1, "a"))
	assert.NoError(t, err)
	assert.NotEmpty(t, changes)

	f, err := e.GetFormat(20)
	assert.NoError(t, err)
	assert.Empty(t, f)
}

func TestDeleteMarkMissingIsNoOp(t *testing.T) {
	e := New(intSpace{}, nil)
	changes, err := e.DeleteMark(newMark(at(10, anchor.Before), at(30, anchor.Before), "bold", true, 1, "a"))
	assert.NoError(t, err)
	assert.Nil(t, changes)
}

func TestAddMarkDisjointRangesDoNotInteract(t *testing.T) {
	e := New(intSpace{}, nil)
	_, err := e.AddMark(newMark(at(10, anchor.Before), at(20, anchor.Before), "bold", true, 1, "a"))
	assert.NoError(t, err)
	_, err = e.AddMark(newMark(at(50, anchor.Before), at(60, anchor.Before), "italic", true, 2, "a"))
	assert.NoError(t, err)

	f, err := e.GetFormat(15)
	assert.NoError(t, err)
	assert.Equal(t, map[string]any{"bold": true}, f)

	f, err = e.GetFormat(55)
	assert.NoError(t, err)
	assert.Equal(t, map[string]any{"italic": true}, f)

	f, err = e.GetFormat(30)
	assert.NoError(t, err)
	assert.Empty(t, f)
}
