package rest

import (
	"context"
	"net/http"

	"agriMandi/business/matching"
	"agriMandi/domain"

	"github.com/labstack/echo/v4"
)

type ConfigUpserter interface {
	Upsert(ctx context.Context, cfg domain.MatchingConfiguration) error
}

type MatchingAdminHandler struct {
	cfgStore *matching.ConfigStore
	cfgRepo  ConfigUpserter
}

func NewMatchingAdminHandler(cfgStore *matching.ConfigStore, cfgRepo ConfigUpserter) *MatchingAdminHandler {
	return &MatchingAdminHandler{
		cfgStore: cfgStore,
		cfgRepo:  cfgRepo,
	}
}

// GET /api/v1/admin/matching/config?commodity_id=cotton
func (h *MatchingAdminHandler) GetConfig(c echo.Context) error {
	commodityID := c.QueryParam("commodity_id")
	if commodityID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "commodity_id is required",
		})
	}

	return c.JSON(http.StatusOK, h.cfgStore.ForCommodity(commodityID))
}

// PUT /api/v1/admin/matching/config
// body: MatchingConfiguration JSON; takes effect on next restart
func (h *MatchingAdminHandler) UpsertConfig(c echo.Context) error {
	ctx := c.Request().Context()

	var body domain.MatchingConfiguration
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "invalid body: " + err.Error(),
		})
	}
	if body.CommodityID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "commodity_id is required",
		})
	}
	if err := body.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": err.Error(),
		})
	}

	if err := h.cfgRepo.Upsert(ctx, body); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "configuration saved",
	})
}
