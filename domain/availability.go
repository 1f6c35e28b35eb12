package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type AvailabilityStatus string

const (
	AvailabilityDraft     AvailabilityStatus = "DRAFT"
	AvailabilityActive    AvailabilityStatus = "ACTIVE"
	AvailabilityReserved  AvailabilityStatus = "RESERVED"
	AvailabilitySold      AvailabilityStatus = "SOLD"
	AvailabilityExpired   AvailabilityStatus = "EXPIRED"
	AvailabilityCancelled AvailabilityStatus = "CANCELLED"
)

var availabilityTransitions = map[AvailabilityStatus][]AvailabilityStatus{
	AvailabilityDraft:    {AvailabilityActive, AvailabilityCancelled},
	AvailabilityActive:   {AvailabilityReserved, AvailabilityExpired, AvailabilityCancelled},
	AvailabilityReserved: {AvailabilitySold, AvailabilityActive, AvailabilityExpired, AvailabilityCancelled},
}

func (s AvailabilityStatus) CanTransitionTo(next AvailabilityStatus) bool {
	for _, allowed := range availabilityTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Availability struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SellerID    uuid.UUID `gorm:"type:uuid;column:seller_id;not null" json:"seller_id"`
	CommodityID string    `gorm:"column:commodity_id;not null" json:"commodity_id"`

	QuantityTotal    decimal.Decimal `gorm:"column:quantity_total;type:numeric" json:"quantity_total"`
	QuantityReserved decimal.Decimal `gorm:"column:quantity_reserved;type:numeric" json:"quantity_reserved"`
	QuantitySold     decimal.Decimal `gorm:"column:quantity_sold;type:numeric" json:"quantity_sold"`

	PricePerUnit decimal.Decimal `gorm:"column:price_per_unit;type:numeric" json:"price_per_unit"`

	// Quality holds the offered value per quality parameter (e.g. fiber
	// length, moisture), matched against the requirement's constraints.
	Quality datatypes.JSONType[map[string]float64] `gorm:"column:quality;type:jsonb" json:"quality"`

	DeliveryLocation    datatypes.JSONType[LocationPoint] `gorm:"column:delivery_location;type:jsonb" json:"delivery_location"`
	DeliveryWindowStart time.Time                         `gorm:"column:delivery_window_start" json:"delivery_window_start"`
	DeliveryWindowEnd   time.Time                         `gorm:"column:delivery_window_end" json:"delivery_window_end"`
	DeliveryTerms       string                            `gorm:"column:delivery_terms;type:text" json:"delivery_terms"`

	// AIRecommended is the opaque boost flag from the external
	// recommendation service.
	AIRecommended bool `gorm:"column:ai_recommended;default:false" json:"ai_recommended"`

	Status AvailabilityStatus `gorm:"column:status;not null" json:"status"`

	// Version is the optimistic-lock token guarding quantity updates.
	Version uint64 `gorm:"column:version;not null;default:0" json:"version"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Availability) TableName() string {
	return "availabilities"
}

// AvailableQuantity is what can still be allocated.
func (a Availability) AvailableQuantity() decimal.Decimal {
	return a.QuantityTotal.Sub(a.QuantityReserved).Sub(a.QuantitySold)
}

func (a Availability) TradeValue() decimal.Decimal {
	return a.AvailableQuantity().Mul(a.PricePerUnit)
}
