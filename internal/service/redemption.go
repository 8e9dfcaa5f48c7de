package service

import (
	"context"
	"time"

	"github.com/arenatix/ticketing/internal/repository"
	"github.com/arenatix/ticketing/internal/utils"
)

// TicketRedeemer is the single mutation path for a ticket's used flag.
type TicketRedeemer interface {
	RedeemTicket(ctx context.Context, orderID string, ticketNumber int, now time.Time) error
}

// Redemption is the door-side validator. The whole state machine is
// Unused -> Used, terminal; there is no administrative unuse. All trust is
// re-derived from the store lookup; the scanned payload is just a pair of
// identifiers.
type Redemption struct {
	orders TicketRedeemer
	now    func() time.Time
}

// NewRedemption builds the redemption validator.
func NewRedemption(orders TicketRedeemer) *Redemption {
	return &Redemption{orders: orders, now: time.Now}
}

// Redeem attempts to admit the ticket identified by (transactionID,
// ticketNumber). Returns nil on admission, ErrTicketAlreadyUsed when the
// ticket was spent (by anyone, including a concurrent identical request),
// and ErrTicketNotFound for unknown or malformed identifiers. The order id
// format check runs first so garbage payloads never reach the database.
func (r *Redemption) Redeem(ctx context.Context, transactionID string, ticketNumber int) error {
	if !utils.IsValidOrderID(transactionID) || ticketNumber <= 0 {
		return repository.ErrTicketNotFound
	}
	return r.orders.RedeemTicket(ctx, transactionID, ticketNumber, r.now())
}
