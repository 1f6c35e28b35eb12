package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AllocationStatus string

const (
	AllocationReserved  AllocationStatus = "RESERVED"
	AllocationCompleted AllocationStatus = "COMPLETED"
	AllocationReleased  AllocationStatus = "RELEASED"
)

// AllocationRecord is the outcome of a successful atomic reservation against
// an availability.
type AllocationRecord struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AvailabilityID uuid.UUID `gorm:"type:uuid;column:availability_id;not null" json:"availability_id"`
	RequesterID    uuid.UUID `gorm:"type:uuid;column:requester_id;not null" json:"requester_id"`

	Quantity decimal.Decimal `gorm:"column:quantity;type:numeric" json:"quantity"`

	// Partial is set when less than the requested quantity was granted.
	Partial           bool            `gorm:"column:partial" json:"partial"`
	RequestedQuantity decimal.Decimal `gorm:"column:requested_quantity;type:numeric" json:"requested_quantity"`

	RemainingAvailable decimal.Decimal `gorm:"column:remaining_available;type:numeric" json:"remaining_available"`

	// Version is the availability's lock token after the commit.
	Version uint64 `gorm:"column:version;not null" json:"version"`

	Status    AllocationStatus `gorm:"column:status;not null" json:"status"`
	ExpiresAt time.Time        `gorm:"column:expires_at" json:"expires_at"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (AllocationRecord) TableName() string {
	return "allocation_records"
}
