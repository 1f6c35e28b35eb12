package partner

import (
	"context"
	"errors"
	"fmt"

	"agriMandi/domain"
	"agriMandi/pkg/logger"

	"github.com/google/uuid"
)

// ErrInvalidPartner marks registration input that can never succeed.
var ErrInvalidPartner = errors.New("invalid partner")

type PartnerStore interface {
	Create(ctx context.Context, partner *domain.TradingPartner) error
	FindByID(ctx context.Context, id uuid.UUID) (domain.TradingPartner, error)
}

type PartnerService struct {
	partners PartnerStore
}

func NewPartnerService(partners PartnerStore) *PartnerService {
	return &PartnerService{partners: partners}
}

func (s *PartnerService) Register(ctx context.Context, p *domain.TradingPartner) (*domain.TradingPartner, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	switch p.Role {
	case domain.RoleBuyer, domain.RoleSeller, domain.RoleTrader:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidPartner, p.Role)
	}

	if p.FiscalID == "" && p.RegistrationNo == "" {
		return nil, fmt.Errorf("%w: fiscal_id or registration_no required", ErrInvalidPartner)
	}

	for _, c := range p.Capabilities {
		switch c {
		case domain.CapDomesticBuy, domain.CapDomesticSell, domain.CapImport, domain.CapExport:
		default:
			return nil, fmt.Errorf("%w: unknown capability %q", ErrInvalidPartner, c)
		}
	}

	if p.ReputationRating < 0 || p.ReputationRating > 5 {
		return nil, fmt.Errorf("%w: reputation_rating out of range", ErrInvalidPartner)
	}

	p.ID = uuid.New()

	if err := s.partners.Create(ctx, p); err != nil {
		return nil, err
	}

	logger.Info("Trading partner registered", "partner_id", p.ID, "role", p.Role)
	return p, nil
}

func (s *PartnerService) GetPartner(ctx context.Context, id uuid.UUID) (domain.TradingPartner, error) {
	return s.partners.FindByID(ctx, id)
}
