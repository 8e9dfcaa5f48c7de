package model

import "time"

// Order is the durable record of one confirmed purchase. It is created
// exactly once per successful payment session (issuance is idempotent on
// SessionID) and is immutable afterwards except for each item's single
// used-flag flip.
//
// Fields:
//
//	OrderID       – public identifier, generated at issuance time.
//	SessionID     – payment gateway session that funded this order.
//	EventID       – event the tickets admit to.
//	CustomerName  – purchaser name as reported by the gateway.
//	CustomerEmail – purchaser email as reported by the gateway.
//	TotalAmount   – total charged, minor units, as reported by the gateway.
//	Currency      – ISO currency code of TotalAmount.
//	CreatedAt     – issuance timestamp.
//	Items         – one TicketItem per physical seat.
type Order struct {
	OrderID       string
	SessionID     string
	EventID       string
	CustomerName  string
	CustomerEmail string
	TotalAmount   int64
	Currency      string
	CreatedAt     time.Time
	Items         []TicketItem
}

// TicketItem is one redeemable seat within an order. TicketNumber is unique
// within its order; together with the order id it forms the redemption
// payload scanned at the door. Used transitions false -> true exactly once
// and never back.
type TicketItem struct {
	TicketNumber int
	TierID       uint64
	TierName     string
	PricePaidRef string
	FlashSaleID  uint64 // zero when the base price was charged
	Used         bool
	UsedAt       *time.Time
}
