package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderIDRoundTrip(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id, err := NewOrderID()
		require.NoError(t, err)
		assert.True(t, IsValidOrderID(id), "generated id %q must validate", id)
		_, dup := seen[id]
		assert.False(t, dup, "ids must not repeat")
		seen[id] = struct{}{}
	}
}

func TestIsValidOrderIDRejectsGarbage(t *testing.T) {
	bad := []string{
		"",
		"TKT",
		"TKT-",
		"TKT-abc-12ab34cd",      // non-numeric timestamp
		"TKT-0-12ab34cd",        // zero timestamp
		"TKT-1718000000000-xyz", // suffix not hex
		"TKT-1718000000000-12ab34", // suffix too short
		"ORD-1718000000000-12ab34cd", // wrong prefix
		"TKT-1718000000000-12ab34cd-extra",
	}
	for _, s := range bad {
		assert.False(t, IsValidOrderID(s), "expected %q to be rejected", s)
	}
}
