package mark

import (
	"github.com/biogo/store/llrb"
	"github.com/pkg/errors"
)

// ErrInconsistentComparator is returned when a tree lookup finds a mark
// that the caller-supplied Comparator reports equal to the probe one way
// but not the other. Other violations of a total order (such as a < b and
// b < a for the same pair, or non-transitive equality) are not detected.
// The offending operation fails without mutating state.
var ErrInconsistentComparator = errors.New("mark: comparator is not a consistent total order")

// tailCacheSize bounds the "test the tail first" fast path spec.md §4.C
// calls out: a short cache of the most recently inserted marks lets Locate
// find a recently added mark (a repeated add, or a delete of a recent mark)
// without touching the tree. A mark not in the cache, including every
// brand-new mark, is looked up in the tree.
const tailCacheSize = 10

// elem adapts a *Mark into an llrb.Comparable using the store's configured
// Comparator, the way interval.IntTree's gffInterval wraps a *gff.Feature
// for its own sort key.
type elem struct {
	m   *Mark
	cmp Comparator
}

func (e elem) Compare(other llrb.Comparable) int {
	o, ok := other.(elem)
	if !ok {
		panic("mark: comparing elem against foreign llrb.Comparable")
	}
	return e.cmp(e.m, o.m)
}

// Store is the ordered set of marks described in spec.md §4.C: sorted
// ascending by Comparator, no two elements comparator-equal. It is backed
// by an llrb.Tree (github.com/biogo/store/llrb), the ordered-set structure
// the biogo ecosystem already uses for comparator-keyed collections.
type Store struct {
	cmp  Comparator
	tree llrb.Tree
	tail []*Mark // most recently inserted, front = newest
}

// NewStore returns an empty Store ordered by cmp. A nil cmp defaults to
// DefaultComparator.
func NewStore(cmp Comparator) *Store {
	if cmp == nil {
		cmp = DefaultComparator
	}
	return &Store{cmp: cmp}
}

func (s *Store) wrap(m *Mark) elem { return elem{m: m, cmp: s.cmp} }

// Locate reports where m belongs relative to the store: the canonical
// mark already present (comparator-equal to m), if any, and whether one
// was found. It consults the tail cache first, then the tree, matching the
// "test the tail, else binary search the prefix" optimization spec.md
// §4.C requires.
func (s *Store) Locate(m *Mark) (existing *Mark, found bool, err error) {
	for _, t := range s.tail {
		if s.cmp(t, m) == 0 {
			return t, true, nil
		}
	}
	got := s.tree.Get(s.wrap(m))
	if got == nil {
		return nil, false, nil
	}
	e, ok := got.(elem)
	if !ok {
		return nil, false, errors.Wrap(ErrInconsistentComparator, "llrb returned a foreign element")
	}
	// Re-probe with the reverse comparison to catch a comparator that
	// claims equality one way but not the other.
	if s.cmp(m, e.m) != 0 {
		return nil, false, errors.Wrap(ErrInconsistentComparator, "asymmetric comparator result")
	}
	return e.m, true, nil
}

// Add inserts m if no comparator-equal mark is present, returning whether
// it was actually inserted.
func (s *Store) Add(m *Mark) (inserted bool, err error) {
	_, found, err := s.Locate(m)
	if err != nil {
		return false, err
	}
	if found {
		return false, nil
	}
	s.tree.Insert(s.wrap(m))
	s.pushTail(m)
	return true, nil
}

// Remove deletes the canonical mark comparator-equal to m, if any, and
// returns it.
func (s *Store) Remove(m *Mark) (removed *Mark, err error) {
	existing, found, err := s.Locate(m)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	s.tree.Delete(s.wrap(existing))
	s.dropTail(existing)
	return existing, nil
}

// Len returns the number of marks currently stored.
func (s *Store) Len() int { return s.tree.Len() }

// Comparator returns the precedence comparator this store was constructed
// with, for callers (package engine) that need to order marks within a
// per-key stack the same way the store orders them globally.
func (s *Store) Comparator() Comparator { return s.cmp }

// Do visits every mark in ascending Comparator order, stopping early if fn
// returns true.
func (s *Store) Do(fn func(*Mark) bool) {
	s.tree.Do(func(c llrb.Comparable) bool {
		return fn(c.(elem).m)
	})
}

// Save returns the stored marks in ascending Comparator order, the
// serialization spec.md §6 calls "an array of marks in ascending
// compareMarks order".
func (s *Store) Save() []*Mark {
	out := make([]*Mark, 0, s.Len())
	s.Do(func(m *Mark) bool {
		out = append(out, m)
		return false
	})
	return out
}

// Load replaces the store's contents with marks, which is assumed to
// already be sorted by Comparator; Load re-inserts defensively rather than
// trusting that invariant blindly.
func (s *Store) Load(marks []*Mark) {
	s.tree = llrb.Tree{}
	s.tail = nil
	for _, m := range marks {
		s.tree.Insert(s.wrap(m))
		s.pushTail(m)
	}
}

func (s *Store) pushTail(m *Mark) {
	s.tail = append([]*Mark{m}, s.tail...)
	if len(s.tail) > tailCacheSize {
		s.tail = s.tail[:tailCacheSize]
	}
}

func (s *Store) dropTail(m *Mark) {
	for i, t := range s.tail {
		if t == m {
			s.tail = append(s.tail[:i], s.tail[i+1:]...)
			return
		}
	}
}
