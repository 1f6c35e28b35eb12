package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"agriMandi/business/allocation"
	"agriMandi/domain"
	"agriMandi/internal/repository/postgres"
	"agriMandi/pkg/logger"
	"agriMandi/pkg/metrics"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type AllocationService interface {
	Allocate(ctx context.Context, availabilityID uuid.UUID, qty decimal.Decimal, requesterID uuid.UUID) (domain.AllocationRecord, error)
}

type AllocationHandler struct {
	allocationService AllocationService
	validator         *validator.Validate
	timeout           time.Duration
}

func NewAllocationHandler(allocationService AllocationService) *AllocationHandler {
	return &AllocationHandler{
		allocationService: allocationService,
		validator:         validator.New(),
		timeout:           10 * time.Second,
	}
}

type AllocateRequest struct {
	AvailabilityID string `json:"availability_id" validate:"required,uuid"`
	Quantity       string `json:"quantity" validate:"required"`
}

// POST /allocations
func (h *AllocationHandler) Allocate(c echo.Context) error {
	requesterID, ok := c.Get("partner_id").(uuid.UUID)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var req AllocateRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid request body", "error", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validator.Struct(&req); err != nil {
		logger.Error("Failed to validate allocation request", "error", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	availabilityID, err := uuid.Parse(req.AvailabilityID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid availability_id"})
	}

	qty, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid quantity"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	metrics.AllocationRequests.Inc()

	record, err := h.allocationService.Allocate(ctx, availabilityID, qty, requesterID)
	if err != nil {
		if allocation.IsValidationError(err) {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		}
		if errors.Is(err, postgres.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ResponseError{Message: "availability not found"})
		}
		if errors.Is(err, allocation.ErrInsufficientQuantity) {
			return c.JSON(http.StatusConflict, ResponseError{Message: err.Error()})
		}
		if errors.Is(err, allocation.ErrConcurrencyConflict) {
			return c.JSON(http.StatusConflict, ResponseError{Message: err.Error()})
		}
		logger.Error("Failed to allocate quantity", "availability_id", availabilityID, "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(record))
}
