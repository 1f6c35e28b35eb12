package postgres

import (
	"context"
	"fmt"
	"time"

	"agriMandi/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AllocationRepository struct {
	DB *gorm.DB
}

func NewAllocationRepository(db *gorm.DB) *AllocationRepository {
	return &AllocationRepository{DB: db}
}

func (r *AllocationRepository) Create(ctx context.Context, record *domain.AllocationRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create allocation record: %w", err)
	}

	return nil
}

func (r *AllocationRepository) FindExpired(ctx context.Context, now time.Time) ([]domain.AllocationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var records []domain.AllocationRecord
	err := r.DB.WithContext(ctx).
		Where("status = ? AND expires_at <= ?", domain.AllocationReserved, now).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find expired allocations: %w", err)
	}

	return records, nil
}

func (r *AllocationRepository) MarkReleased(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	result := r.DB.WithContext(ctx).Model(&domain.AllocationRecord{}).
		Where("id = ? AND status = ?", id, domain.AllocationReserved).
		Update("status", domain.AllocationReleased)
	if result.Error != nil {
		return fmt.Errorf("failed to mark allocation released: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("allocation %s: not in reserved state", id)
	}

	return nil
}
