package utils // package utils provides helpers for identifier generation and validation

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Order ids are a timestamp-entropy composite: "TKT-<unix ms>-<8 hex>".
// The millisecond timestamp keeps ids roughly sortable for operators while
// the random suffix makes cross-order enumeration impractical. Every
// lookup that takes an order id from the outside runs IsValidOrderID
// first.

const orderIDPrefix = "TKT"

// NewOrderID generates a fresh order identifier.
func NewOrderID() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	ms := time.Now().UTC().UnixMilli()
	return orderIDPrefix + "-" + strconv.FormatInt(ms, 10) + "-" + hex.EncodeToString(b), nil
}

// IsValidOrderID reports whether s has the shape produced by NewOrderID.
// It validates shape only; existence is always decided by a store lookup.
func IsValidOrderID(s string) bool {
	parts := strings.Split(s, "-")
	if len(parts) != 3 || parts[0] != orderIDPrefix {
		return false
	}
	ms, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || ms <= 0 {
		return false
	}
	if len(parts[2]) != 8 {
		return false
	}
	_, err = hex.DecodeString(parts[2])
	return err == nil
}
