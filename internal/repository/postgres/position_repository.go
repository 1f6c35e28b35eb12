package postgres

import (
	"context"
	"fmt"
	"time"

	"agriMandi/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PositionRepository struct {
	DB *gorm.DB
}

func NewPositionRepository(db *gorm.DB) *PositionRepository {
	return &PositionRepository{DB: db}
}

func (r *PositionRepository) Create(ctx context.Context, position *domain.TradePosition) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(position).Error; err != nil {
		return fmt.Errorf("failed to create trade position: %w", err)
	}

	return nil
}

// HasOpenPosition feeds the circular-trading check: an open position in the
// given direction against the counterparty on the given calendar day.
func (r *PositionRepository) HasOpenPosition(ctx context.Context, partnerID, counterpartyID uuid.UUID, commodityID string, direction domain.PositionDirection, day time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context error: %w", err)
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	var count int64
	err := r.DB.WithContext(ctx).Model(&domain.TradePosition{}).
		Where("partner_id = ? AND counterparty_id = ? AND commodity_id = ?", partnerID, counterpartyID, commodityID).
		Where("direction = ? AND open = ?", direction, true).
		Where("trade_date >= ? AND trade_date < ?", dayStart, dayEnd).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to query trade positions: %w", err)
	}

	return count > 0, nil
}
