package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"agriMandi/business/listing"
	"agriMandi/domain"
	"agriMandi/internal/repository/postgres"
	"agriMandi/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type ListingService interface {
	CreateRequirement(ctx context.Context, req *domain.Requirement) (*domain.Requirement, error)
	PublishRequirement(ctx context.Context, id uuid.UUID) (domain.Requirement, error)
	GetRequirement(ctx context.Context, id uuid.UUID) (domain.Requirement, error)
	GetBuyerRequirements(ctx context.Context, buyerID uuid.UUID) ([]domain.Requirement, error)
	CreateAvailability(ctx context.Context, av *domain.Availability) (*domain.Availability, error)
	PublishAvailability(ctx context.Context, id uuid.UUID) (domain.Availability, error)
	GetAvailability(ctx context.Context, id uuid.UUID) (domain.Availability, error)
	GetSellerAvailabilities(ctx context.Context, sellerID uuid.UUID) ([]domain.Availability, error)
}

type RequirementHandler struct {
	listingService ListingService
	validator      *validator.Validate
	timeout        time.Duration
}

func NewRequirementHandler(listingService ListingService) *RequirementHandler {
	return &RequirementHandler{
		listingService: listingService,
		validator:      validator.New(),
		timeout:        10 * time.Second,
	}
}

type CreateRequirementRequest struct {
	CommodityID string `json:"commodity_id" validate:"required"`

	QuantityMin       string `json:"quantity_min"`
	QuantityMax       string `json:"quantity_max" validate:"required"`
	QuantityPreferred string `json:"quantity_preferred"`

	BudgetPerUnitMax       string `json:"budget_per_unit_max" validate:"required"`
	BudgetPerUnitPreferred string `json:"budget_per_unit_preferred"`
	BudgetTotal            string `json:"budget_total"`

	Quality map[string]domain.QualityConstraint `json:"quality"`

	DeliveryLocations     []domain.LocationPoint `json:"delivery_locations" validate:"required,min=1"`
	DeliveryWindowStart   time.Time              `json:"delivery_window_start"`
	DeliveryWindowEnd     time.Time              `json:"delivery_window_end"`
	DeliveryTerms         string                 `json:"delivery_terms"`
	AllowedDeliveryStates []string               `json:"allowed_delivery_states"`

	Intent    string    `json:"intent" validate:"required,oneof=direct_buy negotiation auction price_discovery"`
	AIContext []float64 `json:"ai_context"`
}

func (h *RequirementHandler) CreateRequirement(c echo.Context) error {
	buyerID, ok := c.Get("partner_id").(uuid.UUID)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var req CreateRequirementRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid request body", "error", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validator.Struct(&req); err != nil {
		logger.Error("Failed to validate requirement request", "error", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	quantities, err := parseDecimals(map[string]string{
		"quantity_min":              req.QuantityMin,
		"quantity_max":              req.QuantityMax,
		"quantity_preferred":        req.QuantityPreferred,
		"budget_per_unit_max":       req.BudgetPerUnitMax,
		"budget_per_unit_preferred": req.BudgetPerUnitPreferred,
		"budget_total":              req.BudgetTotal,
	})
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	requirement := &domain.Requirement{
		BuyerID:     buyerID,
		CommodityID: req.CommodityID,

		QuantityMin:       quantities["quantity_min"],
		QuantityMax:       quantities["quantity_max"],
		QuantityPreferred: quantities["quantity_preferred"],

		BudgetPerUnitMax:       quantities["budget_per_unit_max"],
		BudgetPerUnitPreferred: quantities["budget_per_unit_preferred"],
		BudgetTotal:            quantities["budget_total"],

		Quality: datatypes.NewJSONType(req.Quality),

		DeliveryLocations:     req.DeliveryLocations,
		DeliveryWindowStart:   req.DeliveryWindowStart,
		DeliveryWindowEnd:     req.DeliveryWindowEnd,
		DeliveryTerms:         req.DeliveryTerms,
		AllowedDeliveryStates: req.AllowedDeliveryStates,

		Intent:    domain.BuyIntent(req.Intent),
		AIContext: req.AIContext,
	}

	created, err := h.listingService.CreateRequirement(ctx, requirement)
	if err != nil {
		if listing.IsValidationError(err) {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		}
		logger.Error("Failed to create requirement", "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(created))
}

func (h *RequirementHandler) PublishRequirement(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid requirement id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	published, err := h.listingService.PublishRequirement(ctx, id)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ResponseError{Message: "requirement not found"})
		}
		logger.Error("Failed to publish requirement", "error", err)
		return c.JSON(http.StatusConflict, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(published))
}

func (h *RequirementHandler) GetRequirementByID(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid requirement id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	requirement, err := h.listingService.GetRequirement(ctx, id)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ResponseError{Message: "requirement not found"})
		}
		logger.Error("Failed to find requirement", "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(requirement))
}

func (h *RequirementHandler) GetMyRequirements(c echo.Context) error {
	buyerID, ok := c.Get("partner_id").(uuid.UUID)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	requirements, err := h.listingService.GetBuyerRequirements(ctx, buyerID)
	if err != nil {
		logger.Error("Failed to find buyer requirements", "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(requirements))
}

// parseDecimals parses optional decimal fields; empty strings become zero.
func parseDecimals(fields map[string]string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(fields))
	for name, raw := range fields {
		if raw == "" {
			out[name] = decimal.Zero
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, errors.New("invalid " + name)
		}
		out[name] = d
	}
	return out, nil
}
