package postgres

import (
	"context"
	"fmt"

	"agriMandi/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MatchingConfigRepository struct {
	DB *gorm.DB
}

func NewMatchingConfigRepository(db *gorm.DB) *MatchingConfigRepository {
	return &MatchingConfigRepository{DB: db}
}

func (r *MatchingConfigRepository) FindAll(ctx context.Context) ([]domain.MatchingConfiguration, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []domain.MatchingConfiguration
	if err := r.DB.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query matching_configurations: %w", err)
	}

	return rows, nil
}

// Upsert seeds or updates one commodity's configuration; the process-wide
// store only picks it up on the next restart.
func (r *MatchingConfigRepository) Upsert(ctx context.Context, cfg domain.MatchingConfiguration) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := r.DB.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "commodity_id"}},
			UpdateAll: true,
		},
	).Create(&cfg).Error; err != nil {
		return fmt.Errorf("failed to upsert matching configuration: %w", err)
	}

	return nil
}
