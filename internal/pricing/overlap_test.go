package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, min int) time.Time {
	return time.Date(2025, time.June, 14, hour, min, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	// Reference window [10:00, 11:00).
	s, e := at(10, 0), at(11, 0)

	cases := []struct {
		name   string
		s2, e2 time.Time
		want   bool
	}{
		{"fully contained", at(10, 30), at(10, 45), true},
		{"partial end overlap", at(10, 45), at(11, 15), true},
		{"partial start overlap", at(9, 45), at(10, 15), true},
		{"identical window", at(10, 0), at(11, 0), true},
		{"enclosing window", at(9, 0), at(12, 0), true},
		{"adjacent after, half-open boundary", at(11, 0), at(12, 0), false},
		{"adjacent before, half-open boundary", at(9, 0), at(10, 0), false},
		{"disjoint after", at(12, 0), at(13, 0), false},
		{"disjoint before", at(8, 0), at(9, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(s, e, tc.s2, tc.e2))
			// The predicate is symmetric.
			assert.Equal(t, tc.want, Overlaps(tc.s2, tc.e2, s, e))
		})
	}
}
