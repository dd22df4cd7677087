// Package mark defines the Mark type and the ordered store that holds it.
// A Mark instructs "key = value over the anchor span [start, end)"; the
// store never reorders or mutates marks, only tracks which are currently
// present.
package mark

import (
	"fmt"

	"github.com/grailbio/richformat/anchor"
)

// Null is the reserved sentinel payload meaning "remove this key from the
// format" rather than "set it to nil/zero". It is distinct from a Go nil:
// a Mark can legitimately carry a nil Value (e.g. clearing a boolean to
// untyped absence would use Null, but a mark that sets a key to JSON null
// still carries a real, non-Null value).
var Null = struct{ name string }{"mark.Null"}

// IsNull reports whether v is the Null sentinel.
func IsNull(v any) bool { return v == any(Null) }

// Mark is the unit the store and the resolution index operate on. Start
// and End are required to satisfy Start < End under the owning anchor
// Space, except for the single allowed zero-width case identified by
// (p, Before) -> (p, After) on the same position.
type Mark struct {
	Start, End anchor.Anchor
	Key        string
	Value      any

	// CreatorID and Timestamp are the reference precedence fields described
	// in spec.md §6. A custom Comparator may ignore them entirely in favor
	// of other fields embedded by the caller in a wrapped type, but the
	// default Comparator below reads exactly these two.
	CreatorID string
	Timestamp uint64
}

func (m *Mark) String() string {
	return fmt.Sprintf("Mark{%s=%v [%v,%v) @%s/%d}", m.Key, m.Value, m.Start, m.End, m.CreatorID, m.Timestamp)
}

// Comparator totally orders marks for precedence purposes. Equality is
// exactly Comparator(a, b) == 0; the store treats two marks as the same
// logical entry whenever Comparator reports them equal, regardless of
// pointer identity.
type Comparator func(a, b *Mark) int

// DefaultComparator orders by ascending Timestamp, then lexicographically
// by CreatorID, matching the reference wire shape in spec.md §6.
func DefaultComparator(a, b *Mark) int {
	if a.Timestamp != b.Timestamp {
		if a.Timestamp < b.Timestamp {
			return -1
		}
		return 1
	}
	switch {
	case a.CreatorID < b.CreatorID:
		return -1
	case a.CreatorID > b.CreatorID:
		return 1
	default:
		return 0
	}
}
