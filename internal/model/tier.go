package model

import "errors"

// TicketTier is a named, priced category of ticket with a fixed capacity.
// TotalQuantity never changes after creation; AvailableQuantity only moves
// through the tier store's atomic operations and always stays inside
// [0, TotalQuantity]. BasePriceRef is an opaque identifier understood by the
// payment gateway; the service never stores amounts of money itself.
//
// Fields:
//
//	ID                – primary key identifier.
//	Name              – display name ("General Admission", "VIP Cageside").
//	TotalQuantity     – capacity at creation, immutable.
//	AvailableQuantity – remaining sellable seats.
//	BasePriceRef      – gateway price identifier charged outside flash sales.
//	IsActive          – whether the tier is currently sellable.
type TicketTier struct {
	ID                uint64
	Name              string
	TotalQuantity     int
	AvailableQuantity int
	BasePriceRef      string
	IsActive          bool
}

// Validation errors returned by NewTicketTier.
var (
	ErrTierNameRequired  = errors.New("tier name is required")
	ErrTierPriceRequired = errors.New("tier base price ref is required")
	ErrTierBadQuantity   = errors.New("tier quantity must be non-negative")
)

// NewTicketTier builds a tier with its full capacity available. Quantities
// are validated here so a tier can never be persisted in a state the store
// invariants would not accept.
func NewTicketTier(name string, totalQuantity int, basePriceRef string) (TicketTier, error) {
	if name == "" {
		return TicketTier{}, ErrTierNameRequired
	}
	if basePriceRef == "" {
		return TicketTier{}, ErrTierPriceRequired
	}
	if totalQuantity < 0 {
		return TicketTier{}, ErrTierBadQuantity
	}
	return TicketTier{
		Name:              name,
		TotalQuantity:     totalQuantity,
		AvailableQuantity: totalQuantity,
		BasePriceRef:      basePriceRef,
		IsActive:          true,
	}, nil
}
