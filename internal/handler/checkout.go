package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/arenatix/ticketing/internal/service"
)

// CheckoutHandler exposes the storefront purchase surface: the tier
// listing and checkout itself.
type CheckoutHandler struct {
	Gate   *service.Gate
	Issuer *service.Issuer
}

// NewCheckoutHandler constructs a CheckoutHandler.
func NewCheckoutHandler(gate *service.Gate, issuer *service.Issuer) *CheckoutHandler {
	if gate == nil || issuer == nil {
		panic("nil service passed to NewCheckoutHandler")
	}
	return &CheckoutHandler{Gate: gate, Issuer: issuer}
}

// ListTiers handles GET /v1/tiers. Each tier comes back with the price
// reference in force at request time so the storefront can render flash
// pricing directly.
func (h *CheckoutHandler) ListTiers(c echo.Context) error {
	listings, err := h.Gate.ListTiers(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	out := make([]echo.Map, 0, len(listings))
	for _, l := range listings {
		out = append(out, echo.Map{
			"id":            l.Tier.ID,
			"name":          l.Tier.Name,
			"available":     l.Tier.AvailableQuantity,
			"is_active":     l.Tier.IsActive,
			"price_ref":     l.PriceRef,
			"is_flash_sale": l.IsFlashSale,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"tiers": out})
}

// Checkout handles POST /v1/checkout. On success it returns the gateway
// session id and redirect URL; the customer completes payment there and
// the confirmation callback later drives issuance.
func (h *CheckoutHandler) Checkout(c echo.Context) error {
	var req service.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	resp, err := h.Gate.Checkout(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// ConfirmPayment handles POST /v1/payments/confirm. It is called from the
// gateway's success return (and can be retried by webhooks); issuance is
// idempotent on the session id so duplicates always land on the same
// order.
func (h *CheckoutHandler) ConfirmPayment(c echo.Context) error {
	var body struct {
		SessionID string `json:"session_id"`
	}
	if err := c.Bind(&body); err != nil || body.SessionID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "session_id is required"})
	}
	order, err := h.Issuer.Issue(c.Request().Context(), body.SessionID)
	if err != nil {
		return writeError(c, err)
	}

	tickets := make([]echo.Map, 0, len(order.Items))
	for _, it := range order.Items {
		tickets = append(tickets, echo.Map{
			"ticket_number": it.TicketNumber,
			"tier":          it.TierName,
			"price_ref":     it.PricePaidRef,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"order_id":     order.OrderID,
		"event_id":     order.EventID,
		"total_amount": order.TotalAmount,
		"currency":     order.Currency,
		"tickets":      tickets,
	})
}
