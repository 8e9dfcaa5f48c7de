package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/arenatix/ticketing/internal/repository"
	"github.com/arenatix/ticketing/internal/service"
)

// RedemptionHandler exposes the door-scan endpoint. Response shape is
// fixed for the scanner app: 200 {success, message} on admission, 400 on
// an already-used ticket, 404 when the pair is unknown.
type RedemptionHandler struct {
	Redemption *service.Redemption
}

// NewRedemptionHandler constructs a RedemptionHandler.
func NewRedemptionHandler(r *service.Redemption) *RedemptionHandler {
	if r == nil {
		panic("nil service passed to NewRedemptionHandler")
	}
	return &RedemptionHandler{Redemption: r}
}

// Use handles POST /tickets/use/:transactionId/:ticketNumber.
func (h *RedemptionHandler) Use(c echo.Context) error {
	transactionID := c.Param("transactionId")
	ticketNumber, err := strconv.Atoi(c.Param("ticketNumber"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "ticket not found"})
	}

	err = h.Redemption.Redeem(c.Request().Context(), transactionID, ticketNumber)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "ticket accepted"})
	case errors.Is(err, repository.ErrTicketAlreadyUsed):
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "ticket already used"})
	case errors.Is(err, repository.ErrTicketNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "ticket not found"})
	default:
		return writeError(c, err)
	}
}
