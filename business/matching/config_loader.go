package matching

import (
	"context"
	"fmt"

	"agriMandi/domain"
	"agriMandi/pkg/logger"
)

// ConfigStore is the immutable per-commodity configuration map, validated at
// load time. A malformed row fails the whole load rather than silently
// falling back.
type ConfigStore struct {
	byCommodity map[string]domain.MatchingConfiguration
	fallback    domain.MatchingConfiguration
}

func LoadConfigStore(ctx context.Context, repo ConfigRepository) (*ConfigStore, error) {
	fallback := DefaultCommodityConfiguration()
	if err := fallback.Validate(); err != nil {
		return nil, fmt.Errorf("default configuration invalid: %w", err)
	}

	store := &ConfigStore{
		byCommodity: make(map[string]domain.MatchingConfiguration),
		fallback:    fallback,
	}

	if repo == nil {
		return store, nil
	}

	rows, err := repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load matching configurations: %w", err)
	}

	for _, row := range rows {
		if err := row.Validate(); err != nil {
			return nil, fmt.Errorf("matching configuration rejected: %w", err)
		}
		if row.CommodityID == fallback.CommodityID {
			store.fallback = row
			continue
		}
		store.byCommodity[row.CommodityID] = row
	}

	logger.Info("matching configuration loaded",
		"commodities", len(store.byCommodity),
		"fallback_min_score", store.fallback.MinScore,
	)

	return store, nil
}

// ForCommodity returns the commodity's configuration or the fallback.
func (s *ConfigStore) ForCommodity(commodityID string) domain.MatchingConfiguration {
	if cfg, ok := s.byCommodity[commodityID]; ok {
		return cfg
	}
	return s.fallback
}
