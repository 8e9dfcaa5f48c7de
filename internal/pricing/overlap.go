// Package pricing holds the pure pricing logic of the ticketing core: the
// interval-overlap predicate that backs the flash-sale non-overlap invariant
// and the resolver that decides which price is in force for a tier at a
// given instant. Nothing in this package touches storage or the clock; both
// are handed in, which keeps the invariants provable in plain unit tests.
package pricing

import "time"

// Overlaps reports whether the half-open intervals [s1, e1) and [s2, e2)
// intersect: s1 < e2 && s2 < e1. Adjacent windows (one ending exactly where
// the other starts) do not overlap, which is what lets an operator schedule
// back-to-back sales on the same tier.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}
