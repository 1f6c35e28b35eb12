package rest

import (
	"context"
	"errors"
	"net/http"

	"agriMandi/business/partner"
	"agriMandi/domain"
	"agriMandi/internal/repository/postgres"
	"agriMandi/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type PartnerService interface {
	Register(ctx context.Context, p *domain.TradingPartner) (*domain.TradingPartner, error)
	GetPartner(ctx context.Context, id uuid.UUID) (domain.TradingPartner, error)
}

type PartnerHandler struct {
	partnerService PartnerService
	validator      *validator.Validate
}

func NewPartnerHandler(partnerService PartnerService) *PartnerHandler {
	return &PartnerHandler{
		partnerService: partnerService,
		validator:      validator.New(),
	}
}

type RegisterPartnerRequest struct {
	Name           string   `json:"name" validate:"required"`
	Role           string   `json:"role" validate:"required,oneof=BUYER SELLER TRADER"`
	FiscalID       string   `json:"fiscal_id"`
	RegistrationNo string   `json:"registration_no"`
	Phone          string   `json:"phone"`
	Email          string   `json:"email" validate:"omitempty,email"`
	StateCode      string   `json:"state_code" validate:"required"`
	CountryCode    string   `json:"country_code" validate:"required"`
	CreditLimit    string   `json:"credit_limit" validate:"required"`
	Capabilities   []string `json:"capabilities"`
}

func (h *PartnerHandler) Register(c echo.Context) error {
	var req RegisterPartnerRequest

	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid request body", "error", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validator.Struct(&req); err != nil {
		logger.Error("Failed to validate partner request", "error", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	creditLimit, err := decimal.NewFromString(req.CreditLimit)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid credit_limit"})
	}

	p := &domain.TradingPartner{
		Name:           req.Name,
		Role:           domain.PartnerRole(req.Role),
		FiscalID:       req.FiscalID,
		RegistrationNo: req.RegistrationNo,
		Phone:          req.Phone,
		Email:          req.Email,
		StateCode:      req.StateCode,
		CountryCode:    req.CountryCode,
		CreditLimit:    creditLimit,
		Capabilities:   req.Capabilities,
	}

	registered, err := h.partnerService.Register(c.Request().Context(), p)
	if err != nil {
		if errors.Is(err, partner.ErrInvalidPartner) {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		}
		logger.Error("Failed to register partner", "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(registered))
}

func (h *PartnerHandler) GetPartnerByID(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid partner id"})
	}

	p, err := h.partnerService.GetPartner(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ResponseError{Message: "partner not found"})
		}
		logger.Error("Failed to find partner", "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(p))
}
