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

type AvailabilityHandler struct {
	listingService ListingService
	validator      *validator.Validate
	timeout        time.Duration
}

func NewAvailabilityHandler(listingService ListingService) *AvailabilityHandler {
	return &AvailabilityHandler{
		listingService: listingService,
		validator:      validator.New(),
		timeout:        10 * time.Second,
	}
}

type CreateAvailabilityRequest struct {
	CommodityID   string `json:"commodity_id" validate:"required"`
	QuantityTotal string `json:"quantity_total" validate:"required"`
	PricePerUnit  string `json:"price_per_unit" validate:"required"`

	Quality map[string]float64 `json:"quality"`

	DeliveryLocation    domain.LocationPoint `json:"delivery_location" validate:"required"`
	DeliveryWindowStart time.Time            `json:"delivery_window_start"`
	DeliveryWindowEnd   time.Time            `json:"delivery_window_end"`
	DeliveryTerms       string               `json:"delivery_terms"`

	AIRecommended bool `json:"ai_recommended"`
}

func (h *AvailabilityHandler) CreateAvailability(c echo.Context) error {
	sellerID, ok := c.Get("partner_id").(uuid.UUID)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var req CreateAvailabilityRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid request body", "error", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validator.Struct(&req); err != nil {
		logger.Error("Failed to validate availability request", "error", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	quantityTotal, err := decimal.NewFromString(req.QuantityTotal)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid quantity_total"})
	}
	pricePerUnit, err := decimal.NewFromString(req.PricePerUnit)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid price_per_unit"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	availability := &domain.Availability{
		SellerID:    sellerID,
		CommodityID: req.CommodityID,

		QuantityTotal: quantityTotal,
		PricePerUnit:  pricePerUnit,

		Quality: datatypes.NewJSONType(req.Quality),

		DeliveryLocation:    datatypes.NewJSONType(req.DeliveryLocation),
		DeliveryWindowStart: req.DeliveryWindowStart,
		DeliveryWindowEnd:   req.DeliveryWindowEnd,
		DeliveryTerms:       req.DeliveryTerms,

		AIRecommended: req.AIRecommended,
	}

	created, err := h.listingService.CreateAvailability(ctx, availability)
	if err != nil {
		if listing.IsValidationError(err) {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		}
		logger.Error("Failed to create availability", "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(created))
}

func (h *AvailabilityHandler) PublishAvailability(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid availability id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	published, err := h.listingService.PublishAvailability(ctx, id)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ResponseError{Message: "availability not found"})
		}
		logger.Error("Failed to publish availability", "error", err)
		return c.JSON(http.StatusConflict, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(published))
}

func (h *AvailabilityHandler) GetAvailabilityByID(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid availability id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	availability, err := h.listingService.GetAvailability(ctx, id)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ResponseError{Message: "availability not found"})
		}
		logger.Error("Failed to find availability", "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(availability))
}

func (h *AvailabilityHandler) GetMyAvailabilities(c echo.Context) error {
	sellerID, ok := c.Get("partner_id").(uuid.UUID)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	availabilities, err := h.listingService.GetSellerAvailabilities(ctx, sellerID)
	if err != nil {
		logger.Error("Failed to find seller availabilities", "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(availabilities))
}
