package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health responds 200 with a small JSON body. Used by load balancers and
// the door-scanner app to verify the service is reachable before an event.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
