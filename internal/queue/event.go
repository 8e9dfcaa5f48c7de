// Package queue defines message payloads exchanged over the message broker
// and the publisher that emits them.
package queue

// RedemptionPayload is the structured content embedded in each ticket's QR
// code. It carries no signature: the door validator re-derives all trust
// from a store lookup, so a forged payload can only ever produce NotFound.
type RedemptionPayload struct {
	TransactionID string `json:"transaction_id"`
	TicketNumber  int    `json:"ticket_number"`
}

// IssuedTicket is one seat inside a TicketsIssuedEvent.
type IssuedTicket struct {
	TicketNumber int               `json:"ticket_number"`
	TierName     string            `json:"tier_name"`
	PriceRef     string            `json:"price_ref"`
	Payload      RedemptionPayload `json:"payload"`
}

// TicketsIssuedEvent is published when an order has been minted. The
// external delivery worker renders the PDF and emails it; failure or delay
// there never affects ticket validity, which is decided solely by stored
// ticket state. The event carries everything the worker needs so it never
// has to query the primary database.
type TicketsIssuedEvent struct {
	MessageID     string         `json:"message_id"`
	OrderID       string         `json:"order_id"`
	EventID       string         `json:"event_id"`
	CustomerName  string         `json:"customer_name"`
	CustomerEmail string         `json:"customer_email"`
	TotalAmount   int64          `json:"total_amount"`
	Currency      string         `json:"currency"`
	IssuedAt      string         `json:"issued_at"`
	Tickets       []IssuedTicket `json:"tickets"`
}
