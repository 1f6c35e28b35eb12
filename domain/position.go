package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PositionDirection string

const (
	PositionBuy  PositionDirection = "BUY"
	PositionSell PositionDirection = "SELL"
)

func (d PositionDirection) Opposite() PositionDirection {
	if d == PositionBuy {
		return PositionSell
	}
	return PositionBuy
}

// TradePosition is an open buy/sell position between two partners in one
// commodity; the circular-trading check looks for same-day reversals.
type TradePosition struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	PartnerID      uuid.UUID         `gorm:"type:uuid;column:partner_id;not null" json:"partner_id"`
	CounterpartyID uuid.UUID         `gorm:"type:uuid;column:counterparty_id;not null" json:"counterparty_id"`
	CommodityID    string            `gorm:"column:commodity_id;not null" json:"commodity_id"`
	Direction      PositionDirection `gorm:"column:direction;not null" json:"direction"`
	Quantity       decimal.Decimal   `gorm:"column:quantity;type:numeric" json:"quantity"`
	Open           bool              `gorm:"column:open;default:true" json:"open"`
	TradeDate      time.Time         `gorm:"column:trade_date;not null" json:"trade_date"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (TradePosition) TableName() string {
	return "trade_positions"
}
