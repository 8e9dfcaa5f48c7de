package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenatix/ticketing/internal/model"
	"github.com/arenatix/ticketing/internal/payment"
	"github.com/arenatix/ticketing/internal/repository"
)

type issuerFixture struct {
	issuer    *Issuer
	tiers     *fakeTierStore
	orders    *fakeOrderStore
	gateway   *fakeGateway
	publisher *fakePublisher
}

func newIssuerFixture(t *testing.T) *issuerFixture {
	t.Helper()
	tiers := newFakeTierStore(
		model.TicketTier{ID: 1, Name: "GA", TotalQuantity: 100, AvailableQuantity: 100, BasePriceRef: "price_ga40", IsActive: true},
		model.TicketTier{ID: 2, Name: "VIP", TotalQuantity: 20, AvailableQuantity: 1, BasePriceRef: "price_vip90", IsActive: true},
	)
	orders := newFakeOrderStore()
	gateway := newFakeGateway()
	publisher := &fakePublisher{}
	issuer := NewIssuer(orders, tiers, gateway, publisher)
	issuer.now = func() time.Time { return at(12, 0) }
	return &issuerFixture{issuer: issuer, tiers: tiers, orders: orders, gateway: gateway, publisher: publisher}
}

// paidSession injects a settled gateway session carrying the given frozen
// basket lines.
func (fx *issuerFixture) paidSession(t *testing.T, id string, lines []sessionLine) {
	t.Helper()
	encoded, err := encodeLines(lines)
	require.NoError(t, err)
	fx.gateway.session(payment.Session{
		ID:            id,
		PaymentStatus: payment.StatusPaid,
		AmountTotal:   7500,
		Currency:      "usd",
		Customer:      payment.CustomerDetails{Name: "Ada Lovelace", Email: "ada@example.com"},
		Metadata: map[string]string{
			metaKeyEventID: "evt_fightnight",
			metaKeyLines:   encoded,
		},
	})
}

func TestIssueMintsOrder(t *testing.T) {
	fx := newIssuerFixture(t)
	fx.paidSession(t, "sess_paid", []sessionLine{
		{TierID: 1, TierName: "GA", Quantity: 2, PriceRef: "price_ga25", FlashSaleID: 7},
		{TierID: 2, TierName: "VIP", Quantity: 1, PriceRef: "price_vip90"},
	})

	order, err := fx.issuer.Issue(context.Background(), "sess_paid")
	require.NoError(t, err)

	assert.True(t, len(order.OrderID) > 0)
	assert.Equal(t, "sess_paid", order.SessionID)
	assert.Equal(t, "evt_fightnight", order.EventID)
	assert.Equal(t, "Ada Lovelace", order.CustomerName)
	assert.Equal(t, "ada@example.com", order.CustomerEmail)
	assert.Equal(t, int64(7500), order.TotalAmount)
	assert.Equal(t, "usd", order.Currency)

	// Ticket numbers are sequential across lines and each item carries the
	// price actually paid.
	require.Len(t, order.Items, 3)
	for i, item := range order.Items {
		assert.Equal(t, i+1, item.TicketNumber)
		assert.False(t, item.Used)
	}
	assert.Equal(t, "price_ga25", order.Items[0].PricePaidRef)
	assert.Equal(t, uint64(7), order.Items[0].FlashSaleID)
	assert.Equal(t, "price_vip90", order.Items[2].PricePaidRef)
	assert.Zero(t, order.Items[2].FlashSaleID)

	// Capacity was decremented at issuance, not before.
	assert.Equal(t, 98, fx.tiers.available(1))
	assert.Equal(t, 0, fx.tiers.available(2))

	// One delivery event with a scannable payload per ticket.
	require.Len(t, fx.publisher.events, 1)
	event := fx.publisher.events[0]
	assert.Equal(t, order.OrderID, event.OrderID)
	require.Len(t, event.Tickets, 3)
	assert.Equal(t, order.OrderID, event.Tickets[1].Payload.TransactionID)
	assert.Equal(t, 2, event.Tickets[1].Payload.TicketNumber)
}

func TestIssueIdempotentOnSession(t *testing.T) {
	fx := newIssuerFixture(t)
	fx.paidSession(t, "sess_paid", []sessionLine{
		{TierID: 1, TierName: "GA", Quantity: 3, PriceRef: "price_ga25", FlashSaleID: 7},
	})
	ctx := context.Background()

	first, err := fx.issuer.Issue(ctx, "sess_paid")
	require.NoError(t, err)

	second, err := fx.issuer.Issue(ctx, "sess_paid")
	require.NoError(t, err)

	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Len(t, second.Items, 3)
	assert.Equal(t, 97, fx.tiers.available(1), "retried confirmation must not decrement again")
	assert.Len(t, fx.publisher.events, 1, "delivery fires once")
}

func TestIssueRejectsUnpaidSession(t *testing.T) {
	fx := newIssuerFixture(t)
	encoded, err := encodeLines([]sessionLine{{TierID: 1, TierName: "GA", Quantity: 1, PriceRef: "price_ga40"}})
	require.NoError(t, err)
	fx.gateway.session(payment.Session{
		ID:            "sess_open",
		PaymentStatus: "unpaid",
		Metadata:      map[string]string{metaKeyEventID: "evt", metaKeyLines: encoded},
	})

	_, err = fx.issuer.Issue(context.Background(), "sess_open")
	assert.ErrorIs(t, err, ErrSessionNotPaid)
	assert.Equal(t, 100, fx.tiers.available(1))
	assert.Empty(t, fx.publisher.events)
}

func TestIssueUnknownSession(t *testing.T) {
	fx := newIssuerFixture(t)

	_, err := fx.issuer.Issue(context.Background(), "sess_missing")
	var ge *payment.GatewayError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, 404, ge.StatusCode)
}

func TestIssueInsufficientCapacity(t *testing.T) {
	fx := newIssuerFixture(t)
	fx.paidSession(t, "sess_paid", []sessionLine{
		{TierID: 2, TierName: "VIP", Quantity: 2, PriceRef: "price_vip90"},
	})

	_, err := fx.issuer.Issue(context.Background(), "sess_paid")
	assert.ErrorIs(t, err, repository.ErrInsufficientCapacity)

	_, err = fx.orders.GetBySessionID(context.Background(), "sess_paid")
	assert.ErrorIs(t, err, repository.ErrOrderNotFound, "no order is minted on a capacity conflict")
	assert.Empty(t, fx.publisher.events)
}

func TestIssueMissingLineMetadata(t *testing.T) {
	fx := newIssuerFixture(t)
	fx.gateway.session(payment.Session{
		ID:            "sess_bare",
		PaymentStatus: payment.StatusPaid,
		Metadata:      map[string]string{metaKeyEventID: "evt"},
	})

	_, err := fx.issuer.Issue(context.Background(), "sess_bare")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestIssuePublishFailureDoesNotFailIssuance(t *testing.T) {
	fx := newIssuerFixture(t)
	fx.publisher.err = errors.New("broker down")
	fx.paidSession(t, "sess_paid", []sessionLine{
		{TierID: 1, TierName: "GA", Quantity: 1, PriceRef: "price_ga40"},
	})

	order, err := fx.issuer.Issue(context.Background(), "sess_paid")
	require.NoError(t, err, "ticket validity never depends on the delivery side channel")
	assert.Len(t, order.Items, 1)
	assert.Equal(t, 99, fx.tiers.available(1))
}

func TestIssueNilPublisher(t *testing.T) {
	fx := newIssuerFixture(t)
	fx.issuer.publisher = nil
	fx.paidSession(t, "sess_paid", []sessionLine{
		{TierID: 1, TierName: "GA", Quantity: 1, PriceRef: "price_ga40"},
	})

	_, err := fx.issuer.Issue(context.Background(), "sess_paid")
	assert.NoError(t, err)
}

// blindOrderStore hides existing orders from the pre-insert idempotency
// lookup a fixed number of times, forcing the insert-race path where the
// unique session constraint is the last line of defense.
type blindOrderStore struct {
	*fakeOrderStore
	misses int
}

func (s *blindOrderStore) GetBySessionID(ctx context.Context, sessionID string) (model.Order, error) {
	if s.misses > 0 {
		s.misses--
		return model.Order{}, repository.ErrOrderNotFound
	}
	return s.fakeOrderStore.GetBySessionID(ctx, sessionID)
}

func TestIssueDuplicateInsertRace(t *testing.T) {
	fx := newIssuerFixture(t)
	fx.paidSession(t, "sess_paid", []sessionLine{
		{TierID: 1, TierName: "GA", Quantity: 1, PriceRef: "price_ga40"},
	})
	ctx := context.Background()

	winner, err := fx.issuer.Issue(ctx, "sess_paid")
	require.NoError(t, err)

	// The loser misses the idempotency read, reserves, then loses the
	// insert and must return the winner's order.
	fx.issuer.orders = &blindOrderStore{fakeOrderStore: fx.orders, misses: 1}
	loser, err := fx.issuer.Issue(ctx, "sess_paid")
	require.NoError(t, err)
	assert.Equal(t, winner.OrderID, loser.OrderID)
}
