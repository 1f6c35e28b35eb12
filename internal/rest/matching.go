package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"agriMandi/business/matching"
	"agriMandi/domain"
	"agriMandi/internal/repository/postgres"
	"agriMandi/pkg/logger"
	"agriMandi/pkg/metrics"

	"github.com/AMFarhan21/fres"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type MatchService interface {
	FindMatchesForRequirement(ctx context.Context, id uuid.UUID) ([]domain.MatchCandidate, error)
	FindMatchesForAvailability(ctx context.Context, id uuid.UUID) ([]domain.MatchCandidate, error)
}

type MatchHandler struct {
	matchService MatchService
	timeout      time.Duration
}

func NewMatchHandler(matchService MatchService) *MatchHandler {
	return &MatchHandler{
		matchService: matchService,
		timeout:      15 * time.Second,
	}
}

// GET /requirements/:id/matches
func (h *MatchHandler) MatchesForRequirement(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid requirement id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	metrics.MatchSearchRequests.Inc()
	start := time.Now()

	candidates, err := h.matchService.FindMatchesForRequirement(ctx, id)
	metrics.MatchSearchLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		if matching.IsValidationError(err) {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		}
		if errors.Is(err, postgres.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ResponseError{Message: "requirement not found"})
		}
		logger.Error("Failed to find matches for requirement", "requirement_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(candidates))
}

// GET /availabilities/:id/matches
func (h *MatchHandler) MatchesForAvailability(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid availability id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	metrics.MatchSearchRequests.Inc()
	start := time.Now()

	candidates, err := h.matchService.FindMatchesForAvailability(ctx, id)
	metrics.MatchSearchLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		if matching.IsValidationError(err) {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		}
		if errors.Is(err, postgres.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ResponseError{Message: "availability not found"})
		}
		logger.Error("Failed to find matches for availability", "availability_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(candidates))
}
