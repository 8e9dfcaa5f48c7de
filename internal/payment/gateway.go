// Package payment wraps the external payment gateway. The gateway is the
// only durable record between "checkout started" and "payment confirmed",
// and it is the source of truth for unit amounts and currencies; this
// service never caches money amounts authoritatively.
package payment

import (
	"context"
	"fmt"
	"time"
)

// LineItem is one priced line of a checkout session request.
type LineItem struct {
	PriceRef string `json:"price"`
	Quantity int    `json:"quantity"`
}

// CustomerDetails is the purchaser identity as reported by the gateway
// once the session completes.
type CustomerDetails struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is a checkout session, either freshly created (ID + RedirectURL)
// or retrieved after the fact (payment status, customer, totals, and the
// metadata blob we attached at creation).
type Session struct {
	ID            string            `json:"id"`
	RedirectURL   string            `json:"url"`
	PaymentStatus string            `json:"payment_status"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	Customer      CustomerDetails   `json:"customer_details"`
	Metadata      map[string]string `json:"metadata"`
}

// StatusPaid is the settled payment status; only sessions in this state
// ever reach the issuer.
const StatusPaid = "paid"

// Price is a gateway price object: the unit amount in minor units plus its
// currency.
type Price struct {
	ID         string `json:"id"`
	UnitAmount int64  `json:"unit_amount"`
	Currency   string `json:"currency"`
}

// CreateSessionRequest carries everything the gateway needs to host the
// payment page. Metadata must be sufficient to reconstruct the basket at
// confirmation time.
type CreateSessionRequest struct {
	LineItems  []LineItem        `json:"line_items"`
	Metadata   map[string]string `json:"metadata"`
	SuccessURL string            `json:"success_url"`
	CancelURL  string            `json:"cancel_url"`
	ExpiresAt  time.Time         `json:"expires_at"`
}

// Gateway is the consumed payment contract. Implementations must surface
// gateway-side failures as *GatewayError so handlers can pass the upstream
// status through instead of masking it as a generic 500.
type Gateway interface {
	CreateSession(ctx context.Context, req CreateSessionRequest) (Session, error)
	RetrieveSession(ctx context.Context, id string) (Session, error)
	RetrievePrice(ctx context.Context, priceRef string) (Price, error)
}

// GatewayError is a non-2xx answer from the gateway, kept verbatim.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway: %d %s", e.StatusCode, e.Message)
}
