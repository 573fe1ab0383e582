package domain

import "strings"

// Bounds on the number of ones AppendOnes adds.
const (
	MinOnes = 1
	MaxOnes = 10
)

// IntN is a source of randomness. It returns a uniform value in [0, n).
// *math/rand/v2.Rand satisfies it; the top-level math/rand/v2 functions can
// be adapted with IntNFunc.
type IntN interface {
	IntN(n int) int
}

// IntNFunc adapts a function to IntN.
type IntNFunc func(n int) int

// IntN implements IntN.
func (f IntNFunc) IntN(n int) int {
	return f(n)
}

// AppendOnes returns a copy of thing with between MinOnes and MaxOnes "1"
// characters appended to its name. The count is drawn from rng.
//
// The input is not modified. Calls on independent copies are safe to run
// concurrently as long as rng is.
func AppendOnes(thing Thing, rng IntN) Thing {
	k := MinOnes + rng.IntN(MaxOnes-MinOnes+1)
	thing.Name += strings.Repeat("1", k)
	return thing
}

// IncrementMukluk returns a copy of baz whose mukluk is increased by the
// number of '1' characters in thing's name.
func IncrementMukluk(thing Thing, baz Baz) Baz {
	baz.Mukluk += strings.Count(thing.Name, "1")
	return baz
}
