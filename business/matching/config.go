package matching

import (
	"context"
	"time"

	"agriMandi/domain"
)

// Config holds the global matching constants. Per-commodity weight vectors
// and thresholds come from the ConfigRepository and are loaded once at
// startup.
type Config struct {
	// WarnPenalty is the multiplicative discount applied to the whole
	// composite score of a WARN-status candidate.
	WarnPenalty float64

	// AIBoost is the additive bonus for counterparties flagged by the
	// external recommendation service, clamped so Final never exceeds 1.0.
	AIBoost float64

	MaxDistanceKm    float64
	AllowCrossRegion bool

	// MaxResults bounds the ranked result set per job.
	MaxResults int

	DedupWindow time.Duration

	Workers       int
	QueueCapacity int
	MaxAttempts   int
	RetryBackoff  time.Duration

	SweepInterval time.Duration
	SweepLookback time.Duration
}

const (
	defaultWarnPenalty   = 0.10
	defaultAIBoost       = 0.05
	defaultMaxDistanceKm = 500.0
	defaultMaxResults    = 50
	defaultDedupWindow   = 5 * time.Minute
	defaultWorkers       = 4
	defaultQueueCapacity = 1024
	defaultMaxAttempts   = 3
	defaultRetryBackoff  = 2 * time.Second
	defaultSweepInterval = 30 * time.Second
	defaultSweepLookback = 15 * time.Minute
)

func DefaultConfig() Config {
	return Config{
		WarnPenalty:      defaultWarnPenalty,
		AIBoost:          defaultAIBoost,
		MaxDistanceKm:    defaultMaxDistanceKm,
		AllowCrossRegion: false,
		MaxResults:       defaultMaxResults,
		DedupWindow:      defaultDedupWindow,
		Workers:          defaultWorkers,
		QueueCapacity:    defaultQueueCapacity,
		MaxAttempts:      defaultMaxAttempts,
		RetryBackoff:     defaultRetryBackoff,
		SweepInterval:    defaultSweepInterval,
		SweepLookback:    defaultSweepLookback,
	}
}

// read per-commodity weight vectors and thresholds from the store.
type ConfigRepository interface {
	FindAll(ctx context.Context) ([]domain.MatchingConfiguration, error)
}

// DefaultCommodityConfiguration is the fallback for commodities without a
// seeded row.
func DefaultCommodityConfiguration() domain.MatchingConfiguration {
	return domain.MatchingConfiguration{
		CommodityID:    "default",
		WeightQuality:  0.40,
		WeightPrice:    0.30,
		WeightDelivery: 0.15,
		WeightRisk:     0.15,
		MinScore:       0.6,
	}
}
