package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/arenatix/ticketing/internal/model"
	"github.com/arenatix/ticketing/internal/service"
)

// AdminSaleHandler exposes flash-sale CRUD to the admin frontend. All
// window invariants (endAt > startAt, non-overlap per tier) are enforced
// in the registry; this handler only shapes requests and responses.
type AdminSaleHandler struct {
	Registry *service.Registry
}

// NewAdminSaleHandler constructs an AdminSaleHandler.
func NewAdminSaleHandler(reg *service.Registry) *AdminSaleHandler {
	if reg == nil {
		panic("nil service passed to NewAdminSaleHandler")
	}
	return &AdminSaleHandler{Registry: reg}
}

type saleBody struct {
	Title         *string    `json:"title"`
	StartAt       *time.Time `json:"start_at"`
	EndAt         *time.Time `json:"end_at"`
	TargetTierIDs *[]uint64  `json:"target_tier_ids"`
	SalePriceRef  *string    `json:"sale_price_ref"`
}

// List handles GET /v1/admin/flash-sales. Each sale carries a computed
// in_force flag for the current instant.
func (h *AdminSaleHandler) List(c echo.Context) error {
	sales, err := h.Registry.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	now := time.Now()
	out := make([]echo.Map, 0, len(sales))
	for _, s := range sales {
		out = append(out, saleJSON(s, now))
	}
	return c.JSON(http.StatusOK, echo.Map{"flash_sales": out})
}

// Create handles POST /v1/admin/flash-sales.
func (h *AdminSaleHandler) Create(c echo.Context) error {
	var body saleBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Title == nil || body.StartAt == nil || body.EndAt == nil || body.TargetTierIDs == nil || body.SalePriceRef == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title, start_at, end_at, target_tier_ids and sale_price_ref are required"})
	}
	sale, err := h.Registry.Create(c.Request().Context(), service.CreateSaleInput{
		Title:         *body.Title,
		StartAt:       *body.StartAt,
		EndAt:         *body.EndAt,
		TargetTierIDs: *body.TargetTierIDs,
		SalePriceRef:  *body.SalePriceRef,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, saleJSON(sale, time.Now()))
}

// Update handles PATCH /v1/admin/flash-sales/:id. Absent fields stay
// unchanged; the registry re-runs the overlap check on the patched result.
func (h *AdminSaleHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid sale id"})
	}
	var body saleBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	sale, err := h.Registry.Update(c.Request().Context(), id, service.UpdateSaleInput{
		Title:         body.Title,
		StartAt:       body.StartAt,
		EndAt:         body.EndAt,
		TargetTierIDs: body.TargetTierIDs,
		SalePriceRef:  body.SalePriceRef,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, saleJSON(sale, time.Now()))
}

// Delete handles DELETE /v1/admin/flash-sales/:id.
func (h *AdminSaleHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid sale id"})
	}
	if err := h.Registry.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Activate handles POST /v1/admin/flash-sales/:id/activate.
func (h *AdminSaleHandler) Activate(c echo.Context) error {
	return h.setActive(c, true)
}

// Deactivate handles POST /v1/admin/flash-sales/:id/deactivate.
func (h *AdminSaleHandler) Deactivate(c echo.Context) error {
	return h.setActive(c, false)
}

func (h *AdminSaleHandler) setActive(c echo.Context, active bool) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid sale id"})
	}
	ctx := c.Request().Context()
	if active {
		err = h.Registry.Activate(ctx, id)
	} else {
		err = h.Registry.Deactivate(ctx, id)
	}
	if err != nil {
		return writeError(c, err)
	}
	sale, err := h.Registry.Get(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, saleJSON(sale, time.Now()))
}

func saleJSON(s model.FlashSale, now time.Time) echo.Map {
	return echo.Map{
		"id":                      s.ID,
		"title":                   s.Title,
		"start_at":                s.StartAt,
		"end_at":                  s.EndAt,
		"target_tier_ids":         s.TargetTierIDs,
		"sale_price_ref":          s.SalePriceRef,
		"base_price_ref_snapshot": s.BasePriceRefSnapshot,
		"is_active":               s.IsActive,
		"in_force":                s.InForce(now),
	}
}
