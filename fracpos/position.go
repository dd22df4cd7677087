// Package fracpos implements one concrete anchor.Space: fractional
// positions drawn from the open interval (0, 1), represented as
// arbitrary-precision rationals so arbitrarily many positions can always be
// minted between any two neighbors. This satisfies the external position
// space contract spec.md §6 describes; the formatting engine in package
// engine never imports this package directly, only anchor.Space.
package fracpos

import (
	"math/big"

	"github.com/grailbio/richformat/anchor"
)

// Position is one fractional identifier. The zero value is not a valid
// Position; use MinPos, MaxPos, or Between.
type Position struct {
	r *big.Rat
}

// MinPos and MaxPos are the reserved sentinels: 0 and 1. Neither is ever a
// valid real position (Between never returns them), matching spec.md §3's
// requirement that they compare strictly below/above every real position.
var (
	MinPos = Position{r: big.NewRat(0, 1)}
	MaxPos = Position{r: big.NewRat(1, 1)}
)

// Between returns a fresh position strictly between a and b. It panics if
// a is not strictly less than b, since that indicates a caller bug (no
// valid position could satisfy the request).
func Between(a, b Position) Position {
	if a.r.Cmp(b.r) >= 0 {
		panic("fracpos: Between requires a < b")
	}
	mid := new(big.Rat).Add(a.r, b.r)
	mid.Quo(mid, big.NewRat(2, 1))
	return Position{r: mid}
}

// Compare returns -1, 0, or 1 per the usual convention.
func (p Position) Compare(other Position) int { return p.r.Cmp(other.r) }

// Equal reports whether p and other denote the same rational.
func (p Position) Equal(other Position) bool { return p.r.Cmp(other.r) == 0 }

// lexDigits is the fixed number of fractional decimal digits kept in the
// lex string form; generous enough that repeated Between calls between
// neighbors stay distinguishable for a very large number of insertions
// before precision is exhausted.
const lexDigits = 64

// LexString renders p as the position space's own serializable wire form
// (spec.md §6): a fixed-width decimal string such that byte-lexicographic
// order agrees with Position order, because every value lies in [0, 1] and
// FloatString pads the fractional part to a constant width.
func (p Position) LexString() string { return p.r.FloatString(lexDigits) }

// String implements fmt.Stringer for debugging/log output.
func (p Position) String() string { return p.LexString() }

// Space adapts Position's ordering to the anchor.Space contract.
type Space struct{}

var _ anchor.Space = Space{}

func (Space) Compare(a, b anchor.Position) int { return a.(Position).Compare(b.(Position)) }
func (Space) Equal(a, b anchor.Position) bool  { return a.(Position).Equal(b.(Position)) }
func (Space) MinPos() anchor.Position          { return MinPos }
func (Space) MaxPos() anchor.Position          { return MaxPos }

// MarshalJSON renders p as its exact rational string ("num/den"), so
// saved state round-trips precisely instead of losing precision to a
// fixed-width decimal approximation.
func (p Position) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.r.RatString() + `"`), nil
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (p *Position) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return &ParseError{Input: s}
	}
	p.r = r
	return nil
}

// ParseError reports a malformed saved Position.
type ParseError struct{ Input string }

func (e *ParseError) Error() string { return "fracpos: cannot parse position " + e.Input }
