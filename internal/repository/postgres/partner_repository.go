package postgres

import (
	"context"
	"errors"
	"fmt"

	"agriMandi/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PartnerRepository struct {
	DB *gorm.DB
}

func NewPartnerRepository(db *gorm.DB) *PartnerRepository {
	return &PartnerRepository{DB: db}
}

func (r *PartnerRepository) Create(ctx context.Context, partner *domain.TradingPartner) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(partner).Error; err != nil {
		return fmt.Errorf("failed to create trading partner: %w", err)
	}

	return nil
}

func (r *PartnerRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.TradingPartner, error) {
	if err := ctx.Err(); err != nil {
		return domain.TradingPartner{}, fmt.Errorf("context error: %w", err)
	}

	var partner domain.TradingPartner
	err := r.DB.WithContext(ctx).First(&partner, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.TradingPartner{}, fmt.Errorf("trading partner %s: %w", id, ErrNotFound)
		}
		return domain.TradingPartner{}, fmt.Errorf("failed to find trading partner: %w", err)
	}

	return partner, nil
}
