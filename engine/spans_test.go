package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/grailbio/richformat/anchor"
)

func TestFormattedSpansCoversFullRangeWithNoGaps(t *testing.T) {
	e := New(intSpace{}, nil)
	_, err := e.AddMark(newMark(at(10, anchor.Before), at(30, anchor.Before), "bold", true, 1, "a"))
	assert.NoError(t, err)

	spans := e.FormattedSpans()
	assert.Equal(t, anchor.MinAnchor(intSpace{}), spans[0].Start)
	assert.Equal(t, anchor.MaxAnchor(intSpace{}), spans[len(spans)-1].End)

	for i := 1; i < len(spans); i++ {
		assert.Equal(t, spans[i-1].End, spans[i].Start)
	}
}

func TestFormattedSpansMergesAdjacentEqualFormats(t *testing.T) {
	e := New(intSpace{}, nil)
	_, err := e.AddMark(newMark(at(10, anchor.Before), at(20, anchor.Before), "bold", true, 1, "a"))
	assert.NoError(t, err)
	_, err = e.AddMark(newMark(at(20, anchor.Before), at(30, anchor.Before), "bold", true, 2, "a"))
	assert.NoError(t, err)

	spans := e.FormattedSpans()
	var boldRuns int
	for _, s := range spans {
		if v, ok := s.Format["bold"]; ok && v == true {
			boldRuns++
		}
	}
	assert.Equal(t, 1, boldRuns, "the two adjacent equal-format marks should merge into one run")
}

func TestFormattedSpansExactShapeForTwoOverlappingMarks(t *testing.T) {
	e := New(intSpace{}, nil)
	_, err := e.AddMark(newMark(at(10, anchor.Before), at(30, anchor.Before), "bold", true, 1, "a"))
	assert.NoError(t, err)
	_, err = e.AddMark(newMark(at(20, anchor.Before), at(40, anchor.Before), "italic", true, 2, "a"))
	assert.NoError(t, err)

	want := []FormatSpan{
		{Start: anchor.MinAnchor(intSpace{}), End: at(10, anchor.Before), Format: map[string]any{}},
		{Start: at(10, anchor.Before), End: at(20, anchor.Before), Format: map[string]any{"bold": true}},
		{Start: at(20, anchor.Before), End: at(30, anchor.Before), Format: map[string]any{"bold": true, "italic": true}},
		{Start: at(30, anchor.Before), End: at(40, anchor.Before), Format: map[string]any{"italic": true}},
		{Start: at(40, anchor.Before), End: anchor.MaxAnchor(intSpace{}), Format: map[string]any{}},
	}
	got := e.FormattedSpans()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("FormattedSpans mismatch (-want +got):\n%s", diff)
	}
}

func TestGCIsIdempotentAndDoesNotChangeObservableFormat(t *testing.T) {
	e := New(intSpace{}, nil)
	_, err := e.AddMark(newMark(at(10, anchor.Before), at(30, anchor.Before), "bold", true, 1, "a"))
	assert.NoError(t, err)
	_, err = e.DeleteMark(newMark(at(10, anchor.Before), at(30, anchor.Before), "bold", true, 1, "a"))
	assert.NoError(t, err)

	before, err := e.GetFormat(20)
	assert.NoError(t, err)

	e.GC()
	e.GC()

	after, err := e.GetFormat(20)
	assert.NoError(t, err)
	assert.Equal(t, before, after)
}
