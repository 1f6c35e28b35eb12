package domain

import (
	"fmt"
	"math"
)

const weightEpsilon = 1e-9

// MatchingConfiguration is the per-commodity weight vector and minimum
// acceptable score. Immutable once loaded; the loader rejects malformed rows.
type MatchingConfiguration struct {
	CommodityID string `gorm:"column:commodity_id;primaryKey" json:"commodity_id"`

	WeightQuality  float64 `gorm:"column:weight_quality" json:"weight_quality"`
	WeightPrice    float64 `gorm:"column:weight_price" json:"weight_price"`
	WeightDelivery float64 `gorm:"column:weight_delivery" json:"weight_delivery"`
	WeightRisk     float64 `gorm:"column:weight_risk" json:"weight_risk"`

	MinScore float64 `gorm:"column:min_score" json:"min_score"`
}

func (MatchingConfiguration) TableName() string {
	return "matching_configurations"
}

func (c MatchingConfiguration) Validate() error {
	for name, w := range map[string]float64{
		"weight_quality":  c.WeightQuality,
		"weight_price":    c.WeightPrice,
		"weight_delivery": c.WeightDelivery,
		"weight_risk":     c.WeightRisk,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("commodity %s: %s out of range: %v", c.CommodityID, name, w)
		}
	}

	sum := c.WeightQuality + c.WeightPrice + c.WeightDelivery + c.WeightRisk
	if math.Abs(sum-1.0) > weightEpsilon {
		return fmt.Errorf("commodity %s: weights sum to %v, want 1.0", c.CommodityID, sum)
	}

	if c.MinScore <= 0 || c.MinScore > 1 {
		return fmt.Errorf("commodity %s: min_score out of range: %v", c.CommodityID, c.MinScore)
	}

	return nil
}
