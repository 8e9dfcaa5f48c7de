package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenatix/ticketing/internal/config"
	"github.com/arenatix/ticketing/internal/model"
	"github.com/arenatix/ticketing/internal/payment"
	"github.com/arenatix/ticketing/internal/pricing"
	"github.com/arenatix/ticketing/internal/repository"
)

type gateFixture struct {
	gate    *Gate
	tiers   *fakeTierStore
	sales   *fakeSaleStore
	gateway *fakeGateway
}

func newGateFixture(t *testing.T, features config.Features) *gateFixture {
	t.Helper()
	tiers := newFakeTierStore(
		model.TicketTier{ID: 1, Name: "GA", TotalQuantity: 100, AvailableQuantity: 100, BasePriceRef: "price_ga40", IsActive: true},
		model.TicketTier{ID: 2, Name: "VIP", TotalQuantity: 20, AvailableQuantity: 2, BasePriceRef: "price_vip90", IsActive: true},
		model.TicketTier{ID: 3, Name: "Balcony", TotalQuantity: 50, AvailableQuantity: 50, BasePriceRef: "price_balcony_eur", IsActive: false},
	)
	sales := newFakeSaleStore()
	gateway := newFakeGateway()
	prices := &fakePrices{prices: map[string]payment.Price{
		"price_ga40":        {ID: "price_ga40", UnitAmount: 4000, Currency: "usd"},
		"price_ga25":        {ID: "price_ga25", UnitAmount: 2500, Currency: "usd"},
		"price_vip90":       {ID: "price_vip90", UnitAmount: 9000, Currency: "usd"},
		"price_balcony_eur": {ID: "price_balcony_eur", UnitAmount: 3000, Currency: "eur"},
	}}
	resolver := pricing.NewResolver(sales, features.FlashSalesEnabled)
	gate := NewGate(tiers, resolver, prices, gateway, features, "https://shop.example/ok", "https://shop.example/cancel", 30*time.Minute)
	gate.now = func() time.Time { return at(10, 30) }
	return &gateFixture{gate: gate, tiers: tiers, sales: sales, gateway: gateway}
}

func TestCheckoutFlashSalePricing(t *testing.T) {
	fx := newGateFixture(t, enabled())
	ctx := context.Background()

	// GA drops from $40 to $25 for the hour around "now".
	sale, err := model.NewFlashSale("door buster", at(10, 0), at(11, 0), []uint64{1}, "price_ga25", "price_ga40")
	require.NoError(t, err)
	_, err = fx.sales.Create(ctx, sale)
	require.NoError(t, err)

	resp, err := fx.gate.Checkout(ctx, CheckoutRequest{
		EventID: "evt_fightnight",
		Items:   []BasketItem{{TierID: 1, Quantity: 3}},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(7500), resp.TotalAmount, "3 x $25 under the flash sale")
	assert.Equal(t, "usd", resp.Currency)
	assert.Equal(t, "sess_1", resp.SessionID)
	assert.NotEmpty(t, resp.RedirectURL)

	// The session request freezes the resolved price and the metadata
	// needed to reconstruct the basket at confirmation time.
	require.Len(t, fx.gateway.created, 1)
	req := fx.gateway.created[0]
	require.Len(t, req.LineItems, 1)
	assert.Equal(t, payment.LineItem{PriceRef: "price_ga25", Quantity: 3}, req.LineItems[0])
	assert.Equal(t, "evt_fightnight", req.Metadata["event_id"])
	lines, err := decodeLines(req.Metadata["lines"])
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, uint64(1), lines[0].TierID)
	assert.Equal(t, "price_ga25", lines[0].PriceRef)
	assert.NotZero(t, lines[0].FlashSaleID, "line carries the sale that priced it")
	assert.Equal(t, at(11, 0), req.ExpiresAt)

	// Checkout never reserves; availability is untouched until issuance.
	assert.Equal(t, 100, fx.tiers.available(1))
}

func TestCheckoutBasePriceOutsideWindow(t *testing.T) {
	fx := newGateFixture(t, enabled())
	ctx := context.Background()

	sale, err := model.NewFlashSale("later", at(11, 0), at(12, 0), []uint64{1}, "price_ga25", "price_ga40")
	require.NoError(t, err)
	_, err = fx.sales.Create(ctx, sale)
	require.NoError(t, err)

	resp, err := fx.gate.Checkout(ctx, CheckoutRequest{
		EventID: "evt_fightnight",
		Items:   []BasketItem{{TierID: 1, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(8000), resp.TotalAmount, "sale not yet started, base price holds")
}

func TestCheckoutValidation(t *testing.T) {
	fx := newGateFixture(t, enabled())
	ctx := context.Background()

	var ve *ValidationError

	_, err := fx.gate.Checkout(ctx, CheckoutRequest{EventID: "", Items: []BasketItem{{TierID: 1, Quantity: 1}}})
	assert.ErrorAs(t, err, &ve)

	_, err = fx.gate.Checkout(ctx, CheckoutRequest{EventID: "evt", Items: nil})
	assert.ErrorAs(t, err, &ve)

	_, err = fx.gate.Checkout(ctx, CheckoutRequest{EventID: "evt", Items: []BasketItem{{TierID: 1, Quantity: 0}}})
	assert.ErrorAs(t, err, &ve)

	_, err = fx.gate.Checkout(ctx, CheckoutRequest{EventID: "evt", Items: []BasketItem{
		{TierID: 1, Quantity: 1}, {TierID: 1, Quantity: 2},
	}})
	assert.ErrorAs(t, err, &ve, "duplicate tier lines are rejected")

	_, err = fx.gate.Checkout(ctx, CheckoutRequest{EventID: "evt", Items: []BasketItem{{TierID: 42, Quantity: 1}}})
	assert.ErrorIs(t, err, repository.ErrTierNotFound)

	_, err = fx.gate.Checkout(ctx, CheckoutRequest{EventID: "evt", Items: []BasketItem{{TierID: 3, Quantity: 1}}})
	assert.ErrorIs(t, err, repository.ErrTierInactive)

	// No validation failure ever reached the gateway.
	assert.Empty(t, fx.gateway.created)
}

func TestCheckoutInsufficientAvailability(t *testing.T) {
	fx := newGateFixture(t, enabled())

	_, err := fx.gate.Checkout(context.Background(), CheckoutRequest{
		EventID: "evt",
		Items:   []BasketItem{{TierID: 2, Quantity: 5}},
	})
	var ae *AvailabilityError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "VIP", ae.TierName)
	assert.Equal(t, 5, ae.Requested)
	assert.Equal(t, 2, ae.Remaining)
	assert.Empty(t, fx.gateway.created)
}

func TestCheckoutRejectsMixedCurrencies(t *testing.T) {
	fx := newGateFixture(t, enabled())
	ctx := context.Background()

	// Reactivate the EUR tier so the only failure is the currency mix.
	tier, err := fx.tiers.GetByID(ctx, 3)
	require.NoError(t, err)
	tier.IsActive = true
	fx.tiers.tiers[3] = tier

	_, err = fx.gate.Checkout(ctx, CheckoutRequest{
		EventID: "evt",
		Items:   []BasketItem{{TierID: 1, Quantity: 1}, {TierID: 3, Quantity: 1}},
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Msg, "currencies")
	assert.Empty(t, fx.gateway.created)
}

func TestCheckoutDisabledFlag(t *testing.T) {
	fx := newGateFixture(t, config.Features{CheckoutEnabled: false, FlashSalesEnabled: true})

	_, err := fx.gate.Checkout(context.Background(), CheckoutRequest{
		EventID: "evt",
		Items:   []BasketItem{{TierID: 1, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrCheckoutDisabled)
	assert.Empty(t, fx.gateway.created)
}

func TestListTiersResolvesEffectivePrices(t *testing.T) {
	fx := newGateFixture(t, enabled())
	ctx := context.Background()

	sale, err := model.NewFlashSale("door buster", at(10, 0), at(11, 0), []uint64{1}, "price_ga25", "price_ga40")
	require.NoError(t, err)
	_, err = fx.sales.Create(ctx, sale)
	require.NoError(t, err)

	listings, err := fx.gate.ListTiers(ctx)
	require.NoError(t, err)
	byID := make(map[uint64]TierListing, len(listings))
	for _, l := range listings {
		byID[l.Tier.ID] = l
	}
	assert.Equal(t, "price_ga25", byID[1].PriceRef)
	assert.True(t, byID[1].IsFlashSale)
	assert.Equal(t, "price_vip90", byID[2].PriceRef)
	assert.False(t, byID[2].IsFlashSale)
}
