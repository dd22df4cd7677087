package richformat

import (
	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/grailbio/richformat/anchor"
	"github.com/grailbio/richformat/fracpos"
	"github.com/grailbio/richformat/mark"
	"github.com/grailbio/richformat/seqlist"
)

// ErrLoadInvalidMark is returned by Load when a saved mark fails to
// reapply to the otherwise-reconstructed document, which indicates the
// saved state was corrupt or produced by an incompatible Space.
var ErrLoadInvalidMark = errors.New("richformat: saved mark failed to reapply")

// wireItem and wireMark are the JSON wire shapes spec.md §6 describes: the
// backing list as (position, value) pairs, and marks as an array in
// ascending Comparator order, with fracpos.Position leaning on its own
// MarshalJSON/UnmarshalJSON for exact round-tripping.
type wireItem struct {
	Pos   fracpos.Position `json:"pos"`
	Value any              `json:"value"`
}

type wireAnchor struct {
	Pos  fracpos.Position `json:"pos"`
	Side anchor.Side      `json:"side"`
}

type wireMark struct {
	Start     wireAnchor `json:"start"`
	End       wireAnchor `json:"end"`
	Key       string     `json:"key"`
	Value     any        `json:"value"`
	CreatorID string     `json:"creatorId"`
	Timestamp uint64     `json:"timestamp"`
}

type wireDoc struct {
	ReplicaID string     `json:"replicaId"`
	NextSeq   uint64     `json:"nextSeq"`
	Items     []wireItem `json:"items"`
	Marks     []wireMark `json:"marks"`
}

func toWireAnchor(a anchor.Anchor) wireAnchor {
	return wireAnchor{Pos: a.Pos.(fracpos.Position), Side: a.Side}
}

func fromWireAnchor(w wireAnchor) anchor.Anchor {
	return anchor.Anchor{Pos: w.Pos, Side: w.Side}
}

// Save renders the full document state — replica id, precedence counter,
// backing list, and every mark — as JSON via github.com/goccy/go-json, the
// drop-in faster encoder the rest of this stack's ecosystem favors over
// encoding/json.
func (d *Doc) Save() ([]byte, error) {
	w := wireDoc{ReplicaID: d.replicaID, NextSeq: d.nextSeq}
	for _, it := range d.list.Items() {
		w.Items = append(w.Items, wireItem{Pos: it.Pos, Value: it.Value})
	}
	for _, m := range d.eng.MarkStore().Save() {
		w.Marks = append(w.Marks, wireMark{
			Start: toWireAnchor(m.Start), End: toWireAnchor(m.End),
			Key: m.Key, Value: m.Value,
			CreatorID: m.CreatorID, Timestamp: m.Timestamp,
		})
	}
	return json.Marshal(w)
}

// Load rebuilds a Doc from bytes previously produced by Save, using opts
// the same way NewDoc does (WithComparator in particular must match the
// comparator Save's originating Doc used, or the marks will reapply in an
// order that silently changes which one wins at each position).
func Load(data []byte, opts ...Option) (*Doc, error) {
	var w wireDoc
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, errors.Wrap(err, "richformat: decoding saved document")
	}
	d := NewDoc(append([]Option{WithReplicaID(w.ReplicaID)}, opts...)...)

	items := make([]seqlist.Item, len(w.Items))
	for i, it := range w.Items {
		items[i] = seqlist.Item{Pos: it.Pos, Value: it.Value}
	}
	d.list = seqlist.FromItems(items)

	for _, wm := range w.Marks {
		m := &mark.Mark{
			Start: fromWireAnchor(wm.Start), End: fromWireAnchor(wm.End),
			Key: wm.Key, Value: wm.Value,
			CreatorID: wm.CreatorID, Timestamp: wm.Timestamp,
		}
		if _, err := d.eng.AddMark(m); err != nil {
			return nil, errors.Wrapf(ErrLoadInvalidMark, "mark %v: %v", m, err)
		}
	}
	if w.NextSeq > d.nextSeq {
		d.nextSeq = w.NextSeq
	}
	return d, nil
}
