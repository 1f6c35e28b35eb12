package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agriMandi/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

type RequirementRepository struct {
	DB *gorm.DB
}

func NewRequirementRepository(db *gorm.DB) *RequirementRepository {
	return &RequirementRepository{DB: db}
}

func (r *RequirementRepository) Create(ctx context.Context, req *domain.Requirement) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("failed to create requirement: %w", err)
	}

	return nil
}

func (r *RequirementRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Requirement, error) {
	if err := ctx.Err(); err != nil {
		return domain.Requirement{}, fmt.Errorf("context error: %w", err)
	}

	var req domain.Requirement
	err := r.DB.WithContext(ctx).First(&req, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Requirement{}, fmt.Errorf("requirement %s: %w", id, ErrNotFound)
		}
		return domain.Requirement{}, fmt.Errorf("failed to find requirement: %w", err)
	}

	return req, nil
}

// FindOpenByCommodity narrows the candidate pool at query level; the
// location hard filter runs on the result before scoring.
func (r *RequirementRepository) FindOpenByCommodity(ctx context.Context, commodityID string) ([]domain.Requirement, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var reqs []domain.Requirement
	err := r.DB.WithContext(ctx).
		Where("commodity_id = ? AND status = ?", commodityID, domain.RequirementPublished).
		Find(&reqs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find open requirements: %w", err)
	}

	return reqs, nil
}

func (r *RequirementRepository) FindRecentUnmatched(ctx context.Context, since time.Time) ([]domain.Requirement, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var reqs []domain.Requirement
	err := r.DB.WithContext(ctx).
		Where("status = ? AND created_at >= ?", domain.RequirementPublished, since).
		Find(&reqs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find recent unmatched requirements: %w", err)
	}

	return reqs, nil
}

func (r *RequirementRepository) FindOpenByBuyer(ctx context.Context, buyerID uuid.UUID) ([]domain.Requirement, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var reqs []domain.Requirement
	err := r.DB.WithContext(ctx).
		Where("buyer_id = ? AND status = ?", buyerID, domain.RequirementPublished).
		Find(&reqs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find buyer requirements: %w", err)
	}

	return reqs, nil
}

// UpdateStatus applies a lifecycle transition; illegal moves are rejected.
func (r *RequirementRepository) UpdateStatus(ctx context.Context, id uuid.UUID, next domain.RequirementStatus) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	req, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !req.Status.CanTransitionTo(next) {
		return fmt.Errorf("requirement %s: illegal transition %s -> %s", id, req.Status, next)
	}

	result := r.DB.WithContext(ctx).Model(&domain.Requirement{}).
		Where("id = ? AND status = ?", id, req.Status).
		Update("status", next)
	if result.Error != nil {
		return fmt.Errorf("failed to update requirement status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("requirement %s: status changed concurrently", id)
	}

	return nil
}
