package rest

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"agriMandi/business/risk"
	"agriMandi/domain"
	"agriMandi/internal/repository/postgres"
	"agriMandi/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type RiskService interface {
	AssessPartyRisk(ctx context.Context, partyID uuid.UUID, role domain.PartnerRole, tradeValue decimal.Decimal) (domain.RiskAssessment, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload any)
}

type RiskHandler struct {
	riskService RiskService
	bus         EventPublisher
	timeout     time.Duration
}

func NewRiskHandler(riskService RiskService, bus EventPublisher) *RiskHandler {
	return &RiskHandler{
		riskService: riskService,
		bus:         bus,
		timeout:     10 * time.Second,
	}
}

// GET /api/v1/risk/partners/:id?role=BUYER&trade_value=100000
func (h *RiskHandler) AssessPartner(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid partner id"})
	}

	role := domain.PartnerRole(strings.ToUpper(c.QueryParam("role")))
	switch role {
	case domain.RoleBuyer, domain.RoleSeller, domain.RoleTrader:
	default:
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "role must be BUYER, SELLER or TRADER"})
	}

	tradeValue := decimal.Zero
	if raw := c.QueryParam("trade_value"); raw != "" {
		tradeValue, err = decimal.NewFromString(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid trade_value"})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	assessment, err := h.riskService.AssessPartyRisk(ctx, id, role, tradeValue)
	if err != nil {
		// Degraded assessments are still served; the flag in the body tells
		// the caller the data was incomplete.
		if errors.Is(err, risk.ErrRiskDataUnavailable) {
			logger.Warn("Serving degraded risk assessment", "partner_id", id, "error", err)
			return c.JSON(http.StatusOK, fres.Response.StatusOK(assessment))
		}
		if errors.Is(err, postgres.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ResponseError{Message: "partner not found"})
		}
		logger.Error("Failed to assess partner risk", "partner_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(assessment))
}

// POST /api/v1/admin/risk/recheck/:id
// Re-assesses the partner and announces the new status so open listings on
// both sides get re-matched.
func (h *RiskHandler) Recheck(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid partner id"})
	}

	role := domain.PartnerRole(strings.ToUpper(c.QueryParam("role")))
	switch role {
	case domain.RoleBuyer, domain.RoleSeller, domain.RoleTrader:
	default:
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "role must be BUYER, SELLER or TRADER"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	assessment, err := h.riskService.AssessPartyRisk(ctx, id, role, decimal.Zero)
	if err != nil && !errors.Is(err, risk.ErrRiskDataUnavailable) {
		if errors.Is(err, postgres.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ResponseError{Message: "partner not found"})
		}
		logger.Error("Failed to recheck partner risk", "partner_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	h.bus.Publish(ctx, domain.TopicRiskStatusChanged, domain.RiskStatusChangedEvent{
		PartnerID: id,
		NewStatus: assessment.Status,
	})

	return c.JSON(http.StatusOK, fres.Response.StatusOK(assessment))
}
