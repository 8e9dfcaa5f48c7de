package pricing

import (
	"context"
	"time"

	"github.com/arenatix/ticketing/internal/model"
)

// SaleSource yields the flash sale in force for a tier at an instant, or
// nil when there is none. The registry's non-overlap invariant guarantees
// at most one candidate; observing more than one would be a data-integrity
// bug, not a state the resolver has to arbitrate.
type SaleSource interface {
	FindActiveForTier(ctx context.Context, tierID uint64, now time.Time) (*model.FlashSale, error)
}

// Resolution is the outcome of a price lookup: the gateway price reference
// to charge, and whether (and which) flash sale produced it.
type Resolution struct {
	PriceRef    string
	IsFlashSale bool
	FlashSaleID uint64
}

// Resolver answers "what does this tier cost right now". It is a pure
// function of tier state, flash-sale state and the supplied instant; it is
// safe to call concurrently and has no side effects.
type Resolver struct {
	sales        SaleSource
	flashEnabled bool
}

// NewResolver builds a resolver. When flashEnabled is false the resolver
// ignores the sale source entirely and always returns base prices; the
// global flash-sale kill switch.
func NewResolver(sales SaleSource, flashEnabled bool) *Resolver {
	return &Resolver{sales: sales, flashEnabled: flashEnabled}
}

// Resolve returns the price in force for the tier at the given instant.
// A sale starting exactly at now is in force; one ending exactly at now is
// not (half-open window).
func (r *Resolver) Resolve(ctx context.Context, tier model.TicketTier, now time.Time) (Resolution, error) {
	base := Resolution{PriceRef: tier.BasePriceRef}
	if !r.flashEnabled {
		return base, nil
	}
	sale, err := r.sales.FindActiveForTier(ctx, tier.ID, now)
	if err != nil {
		return Resolution{}, err
	}
	if sale == nil {
		return base, nil
	}
	return Resolution{
		PriceRef:    sale.SalePriceRef,
		IsFlashSale: true,
		FlashSaleID: sale.ID,
	}, nil
}
