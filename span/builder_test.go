package span

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intEq(a, b int) bool   { return a == b }
func intLess(a, b int) bool { return a < b }

func TestBuilderMergesEqualPayloads(t *testing.T) {
	b := New(intEq, intLess)
	b.Push(0, 1)
	b.Push(5, 1)
	b.Push(5, 1) // redundant push at the same boundary, same payload
	b.Push(10, 2)
	got := b.Finish(20)

	want := []Span[int, int]{
		{Start: 0, End: 10, Payload: 1},
		{Start: 10, End: 20, Payload: 2},
	}
	assert.Equal(t, want, got)
}

func TestBuilderDropsZeroLengthSpans(t *testing.T) {
	b := New(intEq, intLess)
	b.Push(0, 1)
	b.Push(5, 2)
	b.Push(5, 3) // zero-length run at position 5: silently dropped
	got := b.Finish(10)

	want := []Span[int, int]{
		{Start: 0, End: 5, Payload: 1},
		{Start: 5, End: 10, Payload: 3},
	}
	assert.Equal(t, want, got)
}

func TestBuilderNoPushesYieldsNothing(t *testing.T) {
	b := New(intEq, intLess)
	assert.Empty(t, b.Finish(10))
}

func TestBuilderSinglePayloadWholeRange(t *testing.T) {
	b := New(intEq, intLess)
	b.Push(0, 42)
	got := b.Finish(100)
	assert.Equal(t, []Span[int, int]{{Start: 0, End: 100, Payload: 42}}, got)
}
