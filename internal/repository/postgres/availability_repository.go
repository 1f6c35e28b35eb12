package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agriMandi/business/allocation"
	"agriMandi/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AvailabilityRepository struct {
	DB *gorm.DB
}

func NewAvailabilityRepository(db *gorm.DB) *AvailabilityRepository {
	return &AvailabilityRepository{DB: db}
}

func (r *AvailabilityRepository) Create(ctx context.Context, av *domain.Availability) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(av).Error; err != nil {
		return fmt.Errorf("failed to create availability: %w", err)
	}

	return nil
}

func (r *AvailabilityRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Availability, error) {
	if err := ctx.Err(); err != nil {
		return domain.Availability{}, fmt.Errorf("context error: %w", err)
	}

	var av domain.Availability
	err := r.DB.WithContext(ctx).First(&av, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Availability{}, fmt.Errorf("availability %s: %w", id, ErrNotFound)
		}
		return domain.Availability{}, fmt.Errorf("failed to find availability: %w", err)
	}

	return av, nil
}

func (r *AvailabilityRepository) FindOpenByCommodity(ctx context.Context, commodityID string) ([]domain.Availability, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var avs []domain.Availability
	err := r.DB.WithContext(ctx).
		Where("commodity_id = ? AND status = ?", commodityID, domain.AvailabilityActive).
		Where("quantity_total - quantity_reserved - quantity_sold > 0").
		Find(&avs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find open availabilities: %w", err)
	}

	return avs, nil
}

func (r *AvailabilityRepository) FindRecentUnmatched(ctx context.Context, since time.Time) ([]domain.Availability, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var avs []domain.Availability
	err := r.DB.WithContext(ctx).
		Where("status = ? AND created_at >= ?", domain.AvailabilityActive, since).
		Find(&avs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find recent unmatched availabilities: %w", err)
	}

	return avs, nil
}

func (r *AvailabilityRepository) FindOpenBySeller(ctx context.Context, sellerID uuid.UUID) ([]domain.Availability, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var avs []domain.Availability
	err := r.DB.WithContext(ctx).
		Where("seller_id = ? AND status = ?", sellerID, domain.AvailabilityActive).
		Find(&avs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find seller availabilities: %w", err)
	}

	return avs, nil
}

// ReserveQuantity is the optimistic-concurrency core of the allocator: a
// single conditional UPDATE guarded by the version token and the remaining
// quantity. A lost race and an empty pot are distinguished by re-reading.
func (r *AvailabilityRepository) ReserveQuantity(ctx context.Context, id uuid.UUID, qty decimal.Decimal, version uint64) (domain.Availability, error) {
	if err := ctx.Err(); err != nil {
		return domain.Availability{}, fmt.Errorf("context error: %w", err)
	}

	result := r.DB.WithContext(ctx).Model(&domain.Availability{}).
		Where("id = ? AND version = ?", id, version).
		Where("quantity_total - quantity_reserved - quantity_sold >= ?", qty).
		Updates(map[string]interface{}{
			"quantity_reserved": gorm.Expr("quantity_reserved + ?", qty),
			"version":           gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return domain.Availability{}, fmt.Errorf("failed to reserve quantity: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		current, err := r.FindByID(ctx, id)
		if err != nil {
			return domain.Availability{}, err
		}
		if current.Version != version {
			return domain.Availability{}, allocation.ErrConcurrencyConflict
		}
		return domain.Availability{}, allocation.ErrInsufficientQuantity
	}

	updated, err := r.FindByID(ctx, id)
	if err != nil {
		return domain.Availability{}, err
	}

	// Fully committed stock flips the availability to RESERVED so it drops
	// out of the open candidate pool.
	if !updated.AvailableQuantity().IsPositive() && updated.Status == domain.AvailabilityActive {
		if err := r.updateStatus(ctx, id, domain.AvailabilityReserved); err != nil {
			return domain.Availability{}, err
		}
		updated.Status = domain.AvailabilityReserved
	}

	return updated, nil
}

// ReleaseQuantity returns reserved quantity to the pool (expired
// reservations, rollbacks).
func (r *AvailabilityRepository) ReleaseQuantity(ctx context.Context, id uuid.UUID, qty decimal.Decimal) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	result := r.DB.WithContext(ctx).Model(&domain.Availability{}).
		Where("id = ? AND quantity_reserved >= ?", id, qty).
		Updates(map[string]interface{}{
			"quantity_reserved": gorm.Expr("quantity_reserved - ?", qty),
			"version":           gorm.Expr("version + 1"),
			"status":            domain.AvailabilityActive,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to release quantity: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("availability %s: reserved quantity below %s", id, qty)
	}

	return nil
}

// UpdateStatus applies a lifecycle transition; illegal moves are rejected.
func (r *AvailabilityRepository) UpdateStatus(ctx context.Context, id uuid.UUID, next domain.AvailabilityStatus) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	av, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !av.Status.CanTransitionTo(next) {
		return fmt.Errorf("availability %s: illegal transition %s -> %s", id, av.Status, next)
	}

	result := r.DB.WithContext(ctx).Model(&domain.Availability{}).
		Where("id = ? AND status = ?", id, av.Status).
		Update("status", next)
	if result.Error != nil {
		return fmt.Errorf("failed to update availability status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("availability %s: status changed concurrently", id)
	}

	return nil
}

func (r *AvailabilityRepository) updateStatus(ctx context.Context, id uuid.UUID, next domain.AvailabilityStatus) error {
	err := r.DB.WithContext(ctx).Model(&domain.Availability{}).
		Where("id = ?", id).
		Update("status", next).Error
	if err != nil {
		return fmt.Errorf("failed to update availability status: %w", err)
	}

	return nil
}
