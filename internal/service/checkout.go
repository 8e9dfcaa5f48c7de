package service

import (
	"context"
	"time"

	"github.com/arenatix/ticketing/internal/config"
	"github.com/arenatix/ticketing/internal/model"
	"github.com/arenatix/ticketing/internal/payment"
	"github.com/arenatix/ticketing/internal/pricing"
	"github.com/arenatix/ticketing/internal/repository"
)

// TierReader is the tier store slice the gate needs: checkout only reads
// tiers. The actual capacity decrement happens at issuance time.
type TierReader interface {
	GetByID(ctx context.Context, id uint64) (model.TicketTier, error)
	List(ctx context.Context) ([]model.TicketTier, error)
}

// PriceSource yields gateway price objects (normally the Redis-backed
// read-through cache).
type PriceSource interface {
	Get(ctx context.Context, priceRef string) (payment.Price, error)
}

// SessionCreator is the gateway slice the gate needs.
type SessionCreator interface {
	CreateSession(ctx context.Context, req payment.CreateSessionRequest) (payment.Session, error)
}

// Gate is the checkout gate: it validates a basket, resolves the effective
// price per line, and opens a payment session. It reserves nothing:
// availability at this step is informational, and the atomic decrement
// happens only after payment confirmation in the issuer. Between those two
// points two baskets can both be told "available".
type Gate struct {
	tiers      TierReader
	resolver   *pricing.Resolver
	prices     PriceSource
	gateway    SessionCreator
	features   config.Features
	successURL string
	cancelURL  string
	sessionTTL time.Duration
	now        func() time.Time
}

// NewGate builds a checkout gate. The feature flags are injected at
// construction so a disabled gate can be tested deterministically.
func NewGate(tiers TierReader, resolver *pricing.Resolver, prices PriceSource, gateway SessionCreator,
	features config.Features, successURL, cancelURL string, sessionTTL time.Duration) *Gate {
	return &Gate{
		tiers:      tiers,
		resolver:   resolver,
		prices:     prices,
		gateway:    gateway,
		features:   features,
		successURL: successURL,
		cancelURL:  cancelURL,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// BasketItem is one requested (tier, quantity) pair.
type BasketItem struct {
	TierID   uint64 `json:"tier_id"`
	Quantity int    `json:"quantity"`
}

// CheckoutRequest is the storefront's checkout submission.
type CheckoutRequest struct {
	EventID string       `json:"event_id"`
	Items   []BasketItem `json:"items"`
}

// CheckoutResponse hands back the gateway session to redirect the customer
// to, plus the resolved total for display.
type CheckoutResponse struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
	TotalAmount int64  `json:"total_amount"`
	Currency    string `json:"currency"`
}

// Checkout validates every basket line, resolves the price in force for
// each, enforces a single currency across the basket, freezes the lines
// into session metadata and delegates session creation to the gateway. Any
// validation failure aborts before the gateway is contacted; gateway
// failures surface verbatim as *payment.GatewayError.
func (g *Gate) Checkout(ctx context.Context, req CheckoutRequest) (CheckoutResponse, error) {
	if !g.features.CheckoutEnabled {
		return CheckoutResponse{}, ErrCheckoutDisabled
	}
	if req.EventID == "" {
		return CheckoutResponse{}, validationf("event_id is required")
	}
	if len(req.Items) == 0 {
		return CheckoutResponse{}, validationf("basket is empty")
	}
	seen := make(map[uint64]struct{}, len(req.Items))
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return CheckoutResponse{}, validationf("quantity for tier %d must be positive", it.TierID)
		}
		if _, dup := seen[it.TierID]; dup {
			return CheckoutResponse{}, validationf("tier %d appears more than once in the basket", it.TierID)
		}
		seen[it.TierID] = struct{}{}
	}

	now := g.now()
	var (
		lines     = make([]sessionLine, 0, len(req.Items))
		lineItems = make([]payment.LineItem, 0, len(req.Items))
		total     int64
		currency  string
	)

	for _, it := range req.Items {
		tier, err := g.tiers.GetByID(ctx, it.TierID)
		if err != nil {
			return CheckoutResponse{}, err // ErrTierNotFound or DB failure
		}
		if !tier.IsActive {
			return CheckoutResponse{}, repository.ErrTierInactive
		}
		// Informational availability check only; the authoritative,
		// atomic check is the issuer's ReserveCapacity.
		if tier.AvailableQuantity < it.Quantity {
			return CheckoutResponse{}, &AvailabilityError{
				TierName:  tier.Name,
				Requested: it.Quantity,
				Remaining: tier.AvailableQuantity,
			}
		}

		res, err := g.resolver.Resolve(ctx, tier, now)
		if err != nil {
			return CheckoutResponse{}, err
		}
		price, err := g.prices.Get(ctx, res.PriceRef)
		if err != nil {
			return CheckoutResponse{}, err
		}
		if currency == "" {
			currency = price.Currency
		} else if price.Currency != currency {
			return CheckoutResponse{}, validationf("basket mixes currencies %s and %s", currency, price.Currency)
		}
		total += price.UnitAmount * int64(it.Quantity)

		lines = append(lines, sessionLine{
			TierID:      tier.ID,
			TierName:    tier.Name,
			Quantity:    it.Quantity,
			PriceRef:    res.PriceRef,
			FlashSaleID: res.FlashSaleID,
		})
		lineItems = append(lineItems, payment.LineItem{PriceRef: res.PriceRef, Quantity: it.Quantity})
	}

	encoded, err := encodeLines(lines)
	if err != nil {
		return CheckoutResponse{}, err
	}

	session, err := g.gateway.CreateSession(ctx, payment.CreateSessionRequest{
		LineItems: lineItems,
		Metadata: map[string]string{
			metaKeyEventID: req.EventID,
			metaKeyLines:   encoded,
		},
		SuccessURL: g.successURL,
		CancelURL:  g.cancelURL,
		ExpiresAt:  now.Add(g.sessionTTL),
	})
	if err != nil {
		return CheckoutResponse{}, err
	}

	return CheckoutResponse{
		SessionID:   session.ID,
		RedirectURL: session.RedirectURL,
		TotalAmount: total,
		Currency:    currency,
	}, nil
}

// ListTiers returns the storefront tier listing with the price in force
// right now resolved per tier, so the UI can show flash pricing without a
// second round trip.
func (g *Gate) ListTiers(ctx context.Context) ([]TierListing, error) {
	tiers, err := g.tiers.List(ctx)
	if err != nil {
		return nil, err
	}
	now := g.now()
	out := make([]TierListing, 0, len(tiers))
	for _, tier := range tiers {
		res, err := g.resolver.Resolve(ctx, tier, now)
		if err != nil {
			return nil, err
		}
		out = append(out, TierListing{
			Tier:        tier,
			PriceRef:    res.PriceRef,
			IsFlashSale: res.IsFlashSale,
			FlashSaleID: res.FlashSaleID,
		})
	}
	return out, nil
}

// TierListing pairs a tier with its currently effective price.
type TierListing struct {
	Tier        model.TicketTier
	PriceRef    string
	IsFlashSale bool
	FlashSaleID uint64
}
