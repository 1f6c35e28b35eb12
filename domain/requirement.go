package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type RequirementStatus string

const (
	RequirementCreated   RequirementStatus = "CREATED"
	RequirementPublished RequirementStatus = "PUBLISHED"
	RequirementMatched   RequirementStatus = "MATCHED"
	RequirementFulfilled RequirementStatus = "FULFILLED"
	RequirementExpired   RequirementStatus = "EXPIRED"
	RequirementCancelled RequirementStatus = "CANCELLED"
)

// requirementTransitions lists the allowed lifecycle moves; anything else is
// rejected by CanTransitionTo.
var requirementTransitions = map[RequirementStatus][]RequirementStatus{
	RequirementCreated:   {RequirementPublished, RequirementCancelled},
	RequirementPublished: {RequirementMatched, RequirementExpired, RequirementCancelled},
	RequirementMatched:   {RequirementFulfilled, RequirementExpired, RequirementCancelled},
}

func (s RequirementStatus) CanTransitionTo(next RequirementStatus) bool {
	for _, allowed := range requirementTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type BuyIntent string

const (
	IntentDirectBuy      BuyIntent = "direct_buy"
	IntentNegotiation    BuyIntent = "negotiation"
	IntentAuction        BuyIntent = "auction"
	IntentPriceDiscovery BuyIntent = "price_discovery"
)

// QualityConstraint bounds one quality parameter of a requirement. Exact
// overrides the range when set.
type QualityConstraint struct {
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Preferred *float64 `json:"preferred,omitempty"`
	Exact     *float64 `json:"exact,omitempty"`
}

type Requirement struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BuyerID     uuid.UUID `gorm:"type:uuid;column:buyer_id;not null" json:"buyer_id"`
	CommodityID string    `gorm:"column:commodity_id;not null" json:"commodity_id"`

	QuantityMin       decimal.Decimal `gorm:"column:quantity_min;type:numeric" json:"quantity_min"`
	QuantityMax       decimal.Decimal `gorm:"column:quantity_max;type:numeric" json:"quantity_max"`
	QuantityPreferred decimal.Decimal `gorm:"column:quantity_preferred;type:numeric" json:"quantity_preferred"`

	BudgetPerUnitMax       decimal.Decimal `gorm:"column:budget_per_unit_max;type:numeric" json:"budget_per_unit_max"`
	BudgetPerUnitPreferred decimal.Decimal `gorm:"column:budget_per_unit_preferred;type:numeric" json:"budget_per_unit_preferred"`
	BudgetTotal            decimal.Decimal `gorm:"column:budget_total;type:numeric" json:"budget_total"`

	Quality datatypes.JSONType[map[string]QualityConstraint] `gorm:"column:quality;type:jsonb" json:"quality"`

	DeliveryLocations     datatypes.JSONSlice[LocationPoint] `gorm:"column:delivery_locations;type:jsonb" json:"delivery_locations"`
	DeliveryWindowStart   time.Time                          `gorm:"column:delivery_window_start" json:"delivery_window_start"`
	DeliveryWindowEnd     time.Time                          `gorm:"column:delivery_window_end" json:"delivery_window_end"`
	DeliveryTerms         string                             `gorm:"column:delivery_terms;type:text" json:"delivery_terms"`
	AllowedDeliveryStates datatypes.JSONSlice[string]        `gorm:"column:allowed_delivery_states;type:jsonb" json:"allowed_delivery_states"`

	Intent BuyIntent `gorm:"column:intent;not null" json:"intent"`

	// AIContext is an opaque vector from the external recommendation service;
	// absent means no AI signal, never an error.
	AIContext datatypes.JSONSlice[float64] `gorm:"column:ai_context;type:jsonb" json:"ai_context"`

	Status    RequirementStatus `gorm:"column:status;not null" json:"status"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Requirement) TableName() string {
	return "requirements"
}

// TradeValue estimates the money at risk for risk assessment: preferred
// quantity at the max per-unit budget.
func (r Requirement) TradeValue() decimal.Decimal {
	qty := r.QuantityPreferred
	if qty.IsZero() {
		qty = r.QuantityMax
	}
	return qty.Mul(r.BudgetPerUnitMax)
}
