package engine

import (
	"github.com/grailbio/richformat/anchor"
	"github.com/grailbio/richformat/resolve"
	"github.com/grailbio/richformat/span"
)

// FormatSpan is one maximal half-open anchor interval over which the
// resolved format is constant, as produced by FormattedSpans.
type FormatSpan struct {
	Start, End anchor.Anchor
	Format     map[string]any
}

// FormattedSpans streams every index entry in position order and returns
// the gap-free sequence of maximal spans from MinAnchor to MaxAnchor
// described in spec.md §4.E, with consecutive spans differing in at least
// one key.
func (e *Engine) FormattedSpans() []FormatSpan {
	b := span.New(formatEqual, func(a, c anchor.Anchor) bool { return anchor.Less(e.sp, a, c) })
	e.index.Ascend(func(en resolve.Entry) bool {
		if en.Before != nil {
			b.Push(anchor.Anchor{Pos: en.Pos, Side: anchor.Before}, resolve.Format(en.Before))
		}
		if en.After != nil {
			b.Push(anchor.Anchor{Pos: en.Pos, Side: anchor.After}, resolve.Format(en.After))
		}
		return true
	})
	raw := b.Finish(anchor.MaxAnchor(e.sp))
	out := make([]FormatSpan, len(raw))
	for i, s := range raw {
		out[i] = FormatSpan{Start: s.Start, End: s.End, Format: s.Payload}
	}
	return out
}

// GC delegates to the underlying resolve.Index's garbage collection of
// empty entries. See spec.md §9's open question: implemented, never run
// implicitly.
func (e *Engine) GC() { e.index.GC() }
