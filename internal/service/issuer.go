package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/arenatix/ticketing/internal/model"
	"github.com/arenatix/ticketing/internal/payment"
	"github.com/arenatix/ticketing/internal/queue"
	"github.com/arenatix/ticketing/internal/repository"
	"github.com/arenatix/ticketing/internal/utils"
)

// OrderStore is the order persistence slice the issuer needs.
type OrderStore interface {
	Create(ctx context.Context, o model.Order) error
	GetBySessionID(ctx context.Context, sessionID string) (model.Order, error)
}

// CapacityReserver is the single capacity-decrementing operation of the
// tier store.
type CapacityReserver interface {
	ReserveCapacity(ctx context.Context, id uint64, qty int) error
}

// SessionRetriever is the gateway slice the issuer needs.
type SessionRetriever interface {
	RetrieveSession(ctx context.Context, id string) (payment.Session, error)
}

// DeliveryPublisher emits the tickets.issued event for the PDF/email
// worker.
type DeliveryPublisher interface {
	PublishTicketsIssued(ctx context.Context, event queue.TicketsIssuedEvent) error
}

// Issuer mints orders once payment is confirmed. Issuance is idempotent on
// the payment session id: confirmation callbacks can be retried or
// duplicated and must always land on the same order with the same ticket
// numbers, decrementing capacity exactly once.
type Issuer struct {
	orders    OrderStore
	tiers     CapacityReserver
	gateway   SessionRetriever
	publisher DeliveryPublisher
	now       func() time.Time
}

// NewIssuer builds an issuer. publisher may be nil when no broker is
// configured; delivery is a side channel either way.
func NewIssuer(orders OrderStore, tiers CapacityReserver, gateway SessionRetriever, publisher DeliveryPublisher) *Issuer {
	return &Issuer{orders: orders, tiers: tiers, gateway: gateway, publisher: publisher, now: time.Now}
}

// Issue turns a confirmed payment session into an order. The sequence is:
//
//  1. Retrieve the session; reject anything the gateway does not report as
//     paid (expired sessions can therefore never mint tickets).
//  2. Idempotency check: an order already issued for this session is
//     returned unchanged.
//  3. Reconstruct the basket from session metadata and reserve capacity
//     per line; this is the actual decrement, deferred from checkout to
//     confirmed payment.
//  4. Mint the order id and per-seat ticket numbers and persist everything.
//  5. Publish tickets.issued; a publish failure is logged and swallowed
//     because ticket validity is decided by stored state, never by whether
//     the email went out.
func (i *Issuer) Issue(ctx context.Context, sessionID string) (model.Order, error) {
	session, err := i.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		return model.Order{}, err
	}
	if session.PaymentStatus != payment.StatusPaid {
		return model.Order{}, ErrSessionNotPaid
	}

	if existing, err := i.orders.GetBySessionID(ctx, sessionID); err == nil {
		return existing, nil
	} else if !errors.Is(err, repository.ErrOrderNotFound) {
		return model.Order{}, err
	}

	lines, err := decodeLines(session.Metadata[metaKeyLines])
	if err != nil || len(lines) == 0 {
		return model.Order{}, validationf("session %s carries no reconstructable line items", sessionID)
	}

	for _, line := range lines {
		if err := i.tiers.ReserveCapacity(ctx, line.TierID, line.Quantity); err != nil {
			// Paid but unfulfillable: surface the conflict to the
			// operator path instead of silently overselling. Capacity
			// reserved for earlier lines stays reserved; remediation
			// (refund) is outside this core.
			return model.Order{}, err
		}
	}

	orderID, err := utils.NewOrderID()
	if err != nil {
		return model.Order{}, err
	}

	order := model.Order{
		OrderID:       orderID,
		SessionID:     sessionID,
		EventID:       session.Metadata[metaKeyEventID],
		CustomerName:  session.Customer.Name,
		CustomerEmail: session.Customer.Email,
		TotalAmount:   session.AmountTotal,
		Currency:      session.Currency,
		CreatedAt:     i.now().UTC(),
	}
	seq := 0
	for _, line := range lines {
		for n := 0; n < line.Quantity; n++ {
			seq++
			order.Items = append(order.Items, model.TicketItem{
				TicketNumber: seq,
				TierID:       line.TierID,
				TierName:     line.TierName,
				PricePaidRef: line.PriceRef,
				FlashSaleID:  line.FlashSaleID,
			})
		}
	}

	if err := i.orders.Create(ctx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicateSession) {
			// A concurrent confirmation won the insert race; theirs is
			// the order of record.
			return i.orders.GetBySessionID(ctx, sessionID)
		}
		return model.Order{}, err
	}

	i.publishIssued(ctx, order)
	return order, nil
}

func (i *Issuer) publishIssued(ctx context.Context, order model.Order) {
	if i.publisher == nil {
		return
	}
	event := queue.TicketsIssuedEvent{
		OrderID:       order.OrderID,
		EventID:       order.EventID,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		TotalAmount:   order.TotalAmount,
		Currency:      order.Currency,
		IssuedAt:      order.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, it := range order.Items {
		event.Tickets = append(event.Tickets, queue.IssuedTicket{
			TicketNumber: it.TicketNumber,
			TierName:     it.TierName,
			PriceRef:     it.PricePaidRef,
			Payload: queue.RedemptionPayload{
				TransactionID: order.OrderID,
				TicketNumber:  it.TicketNumber,
			},
		})
	}
	if err := i.publisher.PublishTicketsIssued(ctx, event); err != nil {
		log.Printf("issuer: delivery publish failed for order %s: %v", order.OrderID, err)
	}
}
