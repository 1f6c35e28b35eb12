package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"agriMandi/domain"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MatchEventRepository is the write-only append sink for the audit trail.
type MatchEventRepository struct {
	DB *gorm.DB
}

func NewMatchEventRepository(db *gorm.DB) *MatchEventRepository {
	return &MatchEventRepository{DB: db}
}

func (r *MatchEventRepository) Append(ctx context.Context, topic string, payload any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	var body datatypes.JSONMap
	if err := json.Unmarshal(raw, &body); err != nil {
		return fmt.Errorf("failed to normalize event payload: %w", err)
	}

	event := domain.MatchEvent{
		Topic:   topic,
		Payload: body,
	}

	if err := r.DB.WithContext(ctx).Create(&event).Error; err != nil {
		return fmt.Errorf("failed to append match event: %w", err)
	}

	return nil
}
