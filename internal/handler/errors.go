// Package handler contains the Echo HTTP handlers. Handlers bind and
// sanity-check input, call a service, and translate typed results into
// status codes; no business rule lives here.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/arenatix/ticketing/internal/payment"
	"github.com/arenatix/ticketing/internal/repository"
	"github.com/arenatix/ticketing/internal/service"
)

// writeError maps the core error taxonomy onto HTTP responses:
// validation -> 400, conflicts -> 409 (with enough context to adjust),
// not-found -> 404, gateway failures -> the gateway's own status, anything
// unexpected -> a detail-free 500.
func writeError(c echo.Context, err error) error {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Msg})
	}

	var ae *service.AvailabilityError
	if errors.As(err, &ae) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "insufficient availability",
			"tier":      ae.TierName,
			"requested": ae.Requested,
			"remaining": ae.Remaining,
		})
	}

	var oe *repository.OverlapError
	if errors.As(err, &oe) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":            "flash sale window overlaps an active sale",
			"conflicting_id":   oe.ConflictingID,
			"conflicting_sale": oe.ConflictingTitle,
		})
	}

	var ge *payment.GatewayError
	if errors.As(err, &ge) {
		// Upstream failures pass through with the gateway's status and
		// message, never masked as a generic 500.
		return c.JSON(ge.StatusCode, echo.Map{"error": "payment gateway error", "gateway_message": ge.Message})
	}

	switch {
	case errors.Is(err, repository.ErrTierNotFound),
		errors.Is(err, repository.ErrSaleNotFound),
		errors.Is(err, repository.ErrOrderNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrTierInactive):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tier is not on sale"})
	case errors.Is(err, repository.ErrInsufficientCapacity):
		return c.JSON(http.StatusConflict, echo.Map{"error": "insufficient tier capacity"})
	case errors.Is(err, service.ErrSessionNotPaid):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment session is not paid"})
	case errors.Is(err, service.ErrCheckoutDisabled),
		errors.Is(err, service.ErrFlashSalesDisabled):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": err.Error()})
	}

	c.Logger().Errorf("internal error: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
