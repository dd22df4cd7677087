// Package span implements a small, stateful streaming device that turns an
// in-order sequence of (anchor, payload) pairs into maximal half-open
// spans, merging neighbors whose payloads compare equal and dropping
// zero-length spans. It has no notion of marks or formats; callers supply
// both the anchor order (implicitly, by feeding events in order) and the
// payload equality.
package span

// Equal reports whether two payloads should be merged into one span.
type Equal[T any] func(a, b T) bool

// Span is a half-open interval [Start, End) carrying one payload, where A
// is whatever anchor/position type the caller is streaming over.
type Span[A, T any] struct {
	Start, End A
	Payload    T
}

// Builder accumulates (anchor, payload) events and emits maximal spans.
// Zero value is not usable; construct with New.
type Builder[A, T any] struct {
	eq      Equal[T]
	less    func(a, b A) bool
	out     []Span[A, T]
	pending bool
	start   A
	payload T
}

// New returns a Builder that merges adjacent spans whose payloads compare
// equal under eq. less is used only to detect and skip zero-length spans.
func New[A, T any](eq Equal[T], less func(a, b A) bool) *Builder[A, T] {
	return &Builder[A, T]{eq: eq, less: less}
}

// Push feeds the payload that holds starting at anchor a, continuing until
// the next Push or Finish call.
func (b *Builder[A, T]) Push(a A, payload T) {
	if b.pending {
		if b.eq(b.payload, payload) {
			// Same payload as the running span: nothing to emit, just keep
			// accumulating under the existing start.
			return
		}
		b.emit(a)
	}
	b.start = a
	b.payload = payload
	b.pending = true
}

// Finish closes the builder at the given end anchor, emitting the final
// pending span if any, and returns every span built so far.
func (b *Builder[A, T]) Finish(end A) []Span[A, T] {
	if b.pending {
		b.emit(end)
	}
	return b.out
}

func (b *Builder[A, T]) emit(end A) {
	if !b.less(b.start, end) {
		// Zero- (or negative-) length span: drop it silently, per spec.
		b.pending = false
		return
	}
	if n := len(b.out); n > 0 && b.eq(b.out[n-1].Payload, b.payload) {
		b.out[n-1].End = end
	} else {
		b.out = append(b.out, Span[A, T]{Start: b.start, End: end, Payload: b.payload})
	}
	b.pending = false
}
