package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/arenatix/ticketing/internal/model"
	"github.com/arenatix/ticketing/internal/repository"
)

// AdminTierHandler exposes tier CRUD to the (externally authenticated)
// admin frontend. Capacity is never set directly: creation fixes the
// total, and AdjustCapacity is the only way to move availability outside
// the sale path.
type AdminTierHandler struct {
	Tiers *repository.TierRepo
}

// NewAdminTierHandler constructs an AdminTierHandler.
func NewAdminTierHandler(tiers *repository.TierRepo) *AdminTierHandler {
	if tiers == nil {
		panic("nil repository passed to NewAdminTierHandler")
	}
	return &AdminTierHandler{Tiers: tiers}
}

// List handles GET /v1/admin/tiers.
func (h *AdminTierHandler) List(c echo.Context) error {
	tiers, err := h.Tiers.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	out := make([]echo.Map, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, tierJSON(t))
	}
	return c.JSON(http.StatusOK, echo.Map{"tiers": out})
}

// Create handles POST /v1/admin/tiers.
func (h *AdminTierHandler) Create(c echo.Context) error {
	var body struct {
		Name          string `json:"name"`
		TotalQuantity int    `json:"total_quantity"`
		BasePriceRef  string `json:"base_price_ref"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	tier, err := model.NewTicketTier(body.Name, body.TotalQuantity, body.BasePriceRef)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	id, err := h.Tiers.Create(c.Request().Context(), tier)
	if err != nil {
		return writeError(c, err)
	}
	tier.ID = id
	return c.JSON(http.StatusCreated, tierJSON(tier))
}

// Update handles PATCH /v1/admin/tiers/:id. Only name, base price and the
// active flag are editable; quantities are off limits here.
func (h *AdminTierHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tier id"})
	}
	ctx := c.Request().Context()
	existing, err := h.Tiers.GetByID(ctx, id)
	if err != nil {
		return writeError(c, err)
	}

	var body struct {
		Name         *string `json:"name"`
		BasePriceRef *string `json:"base_price_ref"`
		IsActive     *bool   `json:"is_active"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Name != nil {
		existing.Name = *body.Name
	}
	if body.BasePriceRef != nil {
		existing.BasePriceRef = *body.BasePriceRef
	}
	if body.IsActive != nil {
		existing.IsActive = *body.IsActive
	}
	if existing.Name == "" || existing.BasePriceRef == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and base_price_ref must not be empty"})
	}

	if err := h.Tiers.Update(ctx, id, existing.Name, existing.BasePriceRef, existing.IsActive); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, tierJSON(existing))
}

// AdjustCapacity handles POST /v1/admin/tiers/:id/adjust with a signed
// delta. The store clamps the adjustment inside [0, total]; an impossible
// delta is rejected, not clamped.
func (h *AdminTierHandler) AdjustCapacity(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tier id"})
	}
	var body struct {
		Delta int `json:"delta"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()
	if err := h.Tiers.AdjustCapacity(ctx, id, body.Delta); err != nil {
		return writeError(c, err)
	}
	tier, err := h.Tiers.GetByID(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, tierJSON(tier))
}

func tierJSON(t model.TicketTier) echo.Map {
	return echo.Map{
		"id":                 t.ID,
		"name":               t.Name,
		"total_quantity":     t.TotalQuantity,
		"available_quantity": t.AvailableQuantity,
		"base_price_ref":     t.BasePriceRef,
		"is_active":          t.IsActive,
	}
}

func parseID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}
