package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PartnerRole string

const (
	RoleBuyer  PartnerRole = "BUYER"
	RoleSeller PartnerRole = "SELLER"
	RoleTrader PartnerRole = "TRADER"
)

// CanBuy reports whether the role is allowed on the demand side of a trade.
func (r PartnerRole) CanBuy() bool {
	return r == RoleBuyer || r == RoleTrader
}

// CanSell reports whether the role is allowed on the supply side of a trade.
func (r PartnerRole) CanSell() bool {
	return r == RoleSeller || r == RoleTrader
}

const (
	CapDomesticBuy  = "domestic_buy"
	CapDomesticSell = "domestic_sell"
	CapImport       = "import"
	CapExport       = "export"
)

type TradingPartner struct {
	ID             uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string      `gorm:"column:name;type:text" json:"name"`
	Role           PartnerRole `gorm:"column:role;not null" json:"role"`
	FiscalID       string      `gorm:"column:fiscal_id;type:text" json:"fiscal_id"`
	RegistrationNo string      `gorm:"column:registration_no;type:text" json:"registration_no"`
	Phone          string      `gorm:"column:phone;type:text" json:"phone"`
	Email          string      `gorm:"column:email;type:text" json:"email"`
	StateCode      string      `gorm:"column:state_code;type:text" json:"state_code"`
	CountryCode    string      `gorm:"column:country_code;type:text" json:"country_code"`

	CreditLimit     decimal.Decimal `gorm:"column:credit_limit;type:numeric" json:"credit_limit"`
	CurrentExposure decimal.Decimal `gorm:"column:current_exposure;type:numeric" json:"current_exposure"`

	// ReputationRating is 0..5, performance scores are 0..100.
	ReputationRating    float64 `gorm:"column:reputation_rating" json:"reputation_rating"`
	PaymentPerformance  float64 `gorm:"column:payment_performance" json:"payment_performance"`
	DeliveryPerformance float64 `gorm:"column:delivery_performance" json:"delivery_performance"`

	Capabilities datatypes.JSONSlice[string] `gorm:"column:capabilities;type:jsonb" json:"capabilities"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (TradingPartner) TableName() string {
	return "trading_partners"
}

func (p TradingPartner) HasCapability(cap string) bool {
	for _, c := range p.Capabilities {
		if c == cap {
			return true
		}
	}
	return false
}
