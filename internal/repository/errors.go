// Package repository implements MySQL persistence for tiers, flash sales
// and orders. The sentinel values below let higher layers distinguish
// failure scenarios without inspecting SQL errors: handlers translate them
// into HTTP status codes (not-found -> 404, capacity and redemption
// conflicts -> 400/409) per the service's error taxonomy.
package repository

import (
	"errors"
	"fmt"
)

// ErrTierNotFound is returned when no ticket tier exists for the given id.
var ErrTierNotFound = errors.New("ticket tier not found")

// ErrTierInactive is returned by ReserveCapacity when the tier exists but
// has been switched off for sale.
var ErrTierInactive = errors.New("ticket tier is not active")

// ErrInsufficientCapacity is returned when an atomic reservation finds
// fewer seats remaining than requested. The conditional UPDATE guarantees
// availability never goes negative; this error is how the losing caller of
// a race learns it lost.
var ErrInsufficientCapacity = errors.New("insufficient tier capacity")

// ErrSaleNotFound is returned when no flash sale exists for the given id.
var ErrSaleNotFound = errors.New("flash sale not found")

// ErrOrderNotFound is returned when no order exists for the given order id
// or payment session id.
var ErrOrderNotFound = errors.New("order not found")

// ErrTicketNotFound is returned when the (order, ticket number) pair does
// not identify an issued ticket.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrTicketAlreadyUsed is returned when a redemption attempt finds the
// ticket already marked used. Exactly one of any number of concurrent
// attempts for the same ticket succeeds; every other caller gets this.
var ErrTicketAlreadyUsed = errors.New("ticket already used")

// ErrDuplicateSession is returned when an order insert collides with an
// existing order for the same payment session. It backstops the issuer's
// idempotency check under concurrent confirmation callbacks.
var ErrDuplicateSession = errors.New("order already issued for session")

// OverlapError reports a flash-sale window collision. It wraps enough
// context (the conflicting sale's id and title) for the admin caller to
// adjust, and unwraps to ErrSaleOverlap for errors.Is checks.
type OverlapError struct {
	ConflictingID    uint64
	ConflictingTitle string
}

// ErrSaleOverlap is the sentinel OverlapError unwraps to.
var ErrSaleOverlap = errors.New("flash sale window overlaps an active sale")

func (e *OverlapError) Error() string {
	return fmt.Sprintf("flash sale window overlaps active sale %q (id %d)", e.ConflictingTitle, e.ConflictingID)
}

func (e *OverlapError) Unwrap() error { return ErrSaleOverlap }
