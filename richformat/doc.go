// Package richformat is the convenience facade described in spec.md §4.F:
// an index-addressable document that pairs an engine.Engine (the
// formatting core) with a concrete backing list (seqlist) and position
// space (fracpos), exposing mark creation, slice-based formatting,
// insertion-with-format, and save/load.
package richformat

import (
	"sort"

	"github.com/google/uuid"
	"github.com/grailbio/base/log"

	"github.com/grailbio/richformat/anchor"
	"github.com/grailbio/richformat/engine"
	"github.com/grailbio/richformat/fracpos"
	"github.com/grailbio/richformat/mark"
	"github.com/grailbio/richformat/seqlist"
)

// Doc is one formatted sequence: a list of values, each at a fracpos
// position, with marks layered on top by package engine.
type Doc struct {
	sp        fracpos.Space
	list      *seqlist.List
	eng       *engine.Engine
	replicaID string
	nextSeq   uint64
	onMark    func(*mark.Mark)
}

// Option configures NewDoc.
type Option func(*Doc)

// WithReplicaID fixes the creator id stamped on marks minted by NewMark.
// If omitted, NewDoc generates one with google/uuid, the way zmux-server
// and erigon both mint entity ids rather than hand-rolling a random string.
func WithReplicaID(id string) Option { return func(d *Doc) { d.replicaID = id } }

// WithComparator overrides the default (timestamp, creatorID) mark
// precedence order.
func WithComparator(cmp mark.Comparator) Option {
	return func(d *Doc) { d.eng = engine.New(d.sp, cmp) }
}

// WithMarkCallback registers a synchronous callback fired after a new mark
// has been fully applied by Format or InsertWithFormat, matching spec.md
// §9's "event callbacks" design note: it fires only once the engine's
// internal state is fully updated.
func WithMarkCallback(fn func(*mark.Mark)) Option {
	return func(d *Doc) { d.onMark = fn }
}

// NewDoc returns an empty Doc.
func NewDoc(opts ...Option) *Doc {
	d := &Doc{list: seqlist.New()}
	d.eng = engine.New(d.sp, nil)
	for _, opt := range opts {
		opt(d)
	}
	if d.replicaID == "" {
		d.replicaID = uuid.NewString()
	}
	return d
}

// List exposes the backing sequence for read access.
func (d *Doc) List() *seqlist.List { return d.list }

// Space returns the position space backing this Doc.
func (d *Doc) Space() anchor.Space { return d.sp }

// NewMark stamps a fresh mark with this Doc's replica id and local
// precedence counter, advancing the counter as spec.md §4.F requires so
// subsequently created marks always win over any mark observed so far.
func (d *Doc) NewMark(start, end anchor.Anchor, key string, value any) *mark.Mark {
	m := &mark.Mark{
		Start: start, End: end, Key: key, Value: value,
		CreatorID: d.replicaID, Timestamp: d.nextSeq,
	}
	d.nextSeq++
	return m
}

func (d *Doc) observeTimestamp(ts uint64) {
	if ts >= d.nextSeq {
		d.nextSeq = ts + 1
	}
}

// AddMark inserts m into the formatting engine, advancing the local
// precedence counter past m.Timestamp so future NewMark calls still win.
func (d *Doc) AddMark(m *mark.Mark) ([]engine.Change, error) {
	changes, err := d.eng.AddMark(m)
	if err != nil {
		return nil, err
	}
	d.observeTimestamp(m.Timestamp)
	return changes, nil
}

// DeleteMark removes m from the formatting engine.
func (d *Doc) DeleteMark(m *mark.Mark) ([]engine.Change, error) {
	return d.eng.DeleteMark(m)
}

// GetFormat returns the format at list index i.
func (d *Doc) GetFormat(i int) (map[string]any, error) {
	return d.eng.GetFormat(d.list.PositionAt(i))
}

// Format builds a mark covering [startIdx, endIdx) (widened per expand),
// adds it, and returns the new mark and the resulting change list, per
// spec.md §4.F.
func (d *Doc) Format(startIdx, endIdx int, key string, value any, expand anchor.Expand) (*mark.Mark, []engine.Change, error) {
	s, err := anchor.SpanFromSlice(d.sp, d.list, startIdx, endIdx, expand)
	if err != nil {
		return nil, nil, err
	}
	m := d.NewMark(s.Start, s.End, key, value)
	changes, err := d.AddMark(m)
	if err != nil {
		return nil, nil, err
	}
	if d.onMark != nil {
		d.onMark(m)
	}
	return m, changes, nil
}

// FormattedSpans delegates to the engine.
func (d *Doc) FormattedSpans() []engine.FormatSpan { return d.eng.FormattedSpans() }

// Slice is one maximal, index-addressable run of list items sharing one
// format, as produced by FormattedSlices.
type Slice struct {
	StartIdx, EndIdx int
	Format           map[string]any
}

// FormattedSlices projects FormattedSpans through the backing list's
// indices, dropping empty slices and merging consecutive slices that land
// on the same format after projection (which can happen when a span has no
// covered indices at all). An empty rng means the whole list.
func (d *Doc) FormattedSlices(rng ...[2]int) []Slice {
	lo, hi := 0, d.list.Length()
	if len(rng) > 0 {
		lo, hi = rng[0][0], rng[0][1]
	}
	var out []Slice
	for _, fs := range d.eng.FormattedSpans() {
		startIdx, endIdx := anchor.SliceFromSpan(d.sp, d.list, anchor.Span{Start: fs.Start, End: fs.End})
		if startIdx < lo {
			startIdx = lo
		}
		if endIdx > hi {
			endIdx = hi
		}
		if startIdx >= endIdx {
			continue
		}
		if n := len(out); n > 0 && out[n-1].EndIdx == startIdx && formatsEqual(out[n-1].Format, fs.Format) {
			out[n-1].EndIdx = endIdx
			continue
		}
		out = append(out, Slice{StartIdx: startIdx, EndIdx: endIdx, Format: fs.Format})
	}
	return out
}

func formatsEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		bv, ok := b[k]
		if !ok || bv != v {
			return false
		}
	}
	return true
}

// Entry is one present list item, as produced by Entries.
type Entry struct {
	Index  int
	Pos    fracpos.Position
	Value  any
	Format map[string]any
}

// Entries yields (position, value, format) per present item in order,
// optionally restricted to [rng[0][0], rng[0][1]).
func (d *Doc) Entries(rng ...[2]int) ([]Entry, error) {
	lo, hi := 0, d.list.Length()
	if len(rng) > 0 {
		lo, hi = rng[0][0], rng[0][1]
	}
	out := make([]Entry, 0, hi-lo)
	for i := lo; i < hi; i++ {
		f, err := d.GetFormat(i)
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{Index: i, Pos: d.list.PositionAt(i).(fracpos.Position), Value: d.list.ValueAt(i), Format: f})
	}
	return out, nil
}

// FormatAt is one index's resolved format, as produced by FormatRange.
type FormatAt struct {
	Index  int
	Format map[string]any
}

// FormatRange returns one FormatAt per index in [startIdx, endIdx), read
// with GetFormat for each index, for callers that want a value per
// position instead of the merged slices of FormattedSlices (spec.md §4.F's supplemented
// operations) — e.g. a toolbar deciding whether every character in a
// selection is bold.
func (d *Doc) FormatRange(startIdx, endIdx int) ([]FormatAt, error) {
	out := make([]FormatAt, 0, endIdx-startIdx)
	for i := startIdx; i < endIdx; i++ {
		f, err := d.GetFormat(i)
		if err != nil {
			return nil, err
		}
		out = append(out, FormatAt{Index: i, Format: f})
	}
	return out, nil
}

// IsRangeUniform reports whether key has exactly one consistent value
// across [startIdx, endIdx), the common "is the toolbar button active"
// query (spec.md §4.F's supplemented operations). An empty range is
// vacuously not uniform.
func (d *Doc) IsRangeUniform(startIdx, endIdx int, key string) (value any, uniform bool) {
	if startIdx >= endIdx {
		return nil, false
	}
	for _, s := range d.FormattedSlices([2]int{startIdx, endIdx}) {
		v, ok := s.Format[key]
		if !ok {
			v = mark.Null
		}
		if !uniform {
			value = v
			uniform = true
			continue
		}
		if v != value {
			return nil, false
		}
	}
	return value, uniform
}

// GC runs the engine's resolution-index garbage collection. Never invoked
// automatically, matching spec.md §5's no-hidden-work rule.
func (d *Doc) GC() {
	d.eng.GC()
	log.Printf("richformat: GC complete\n")
}

// DiffFormats returns, for each key whose target value differs from (or is
// absent from) current, the value that needs setting — mark.Null meaning
// "remove this key" — ignoring mark.Null entries that already agree in
// both maps. This is the comparison insertWithFormat uses to decide which
// marks a freshly inserted range actually needs.
func DiffFormats(current, target map[string]any) map[string]any {
	out := map[string]any{}
	for k, want := range target {
		if mark.IsNull(want) {
			if have, ok := current[k]; ok && !mark.IsNull(have) {
				out[k] = mark.Null
			}
			continue
		}
		if have, ok := current[k]; !ok || have != want {
			out[k] = want
		}
	}
	for k := range current {
		if _, wanted := target[k]; !wanted {
			out[k] = mark.Null
		}
	}
	return out
}

// ExpandRule chooses the Expand behavior for one (key, value) pair, the
// per-mark policy spec.md §9 describes: text formatting typically expands
// after, hyperlinks typically don't expand at all, hyperlink removals
// expand both sides.
type ExpandRule func(key string, value any) anchor.Expand

// DefaultExpandRule always expands after, per spec.md scenario 5's default.
func DefaultExpandRule(string, any) anchor.Expand { return anchor.ExpandAfter }

// InsertWithFormat inserts content at idx, then creates exactly the marks
// needed so the inserted range reads back as desiredFormat: it diffs the
// format the insertion point would otherwise inherit against
// desiredFormat and creates one mark per differing key, each widened per
// rule (nil defaults to DefaultExpandRule). Per spec.md §9's open
// question, it deliberately does not return the format changes those
// marks caused — the caller already knows the target format.
func (d *Doc) InsertWithFormat(idx int, desiredFormat map[string]any, content []any, rule ExpandRule) ([]*mark.Mark, error) {
	if len(content) == 0 {
		log.Panicf("richformat: InsertWithFormat requires at least one content value")
	}
	if rule == nil {
		rule = DefaultExpandRule
	}
	d.list.InsertManyAt(idx, content)
	endIdx := idx + len(content)

	inherited, err := d.GetFormat(idx)
	if err != nil {
		return nil, err
	}
	diff := DiffFormats(inherited, desiredFormat)
	if len(diff) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(diff))
	for k := range diff {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	marks := make([]*mark.Mark, 0, len(keys))
	for _, key := range keys {
		value := diff[key]
		s, err := anchor.SpanFromSlice(d.sp, d.list, idx, endIdx, rule(key, value))
		if err != nil {
			return nil, err
		}
		m := d.NewMark(s.Start, s.End, key, value)
		if _, err := d.AddMark(m); err != nil {
			return nil, err
		}
		if d.onMark != nil {
			d.onMark(m)
		}
		marks = append(marks, m)
	}
	return marks, nil
}
