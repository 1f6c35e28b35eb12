package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Topics consumed and emitted by the match orchestrator.
const (
	TopicRequirementCreated  = "requirement.created"
	TopicAvailabilityCreated = "availability.created"
	TopicRiskStatusChanged   = "risk.status.changed"

	TopicMatchFound     = "match.found"
	TopicMatchRejected  = "match.rejected"
	TopicMatchAllocated = "match.allocated"
)

type RequirementCreatedEvent struct {
	RequirementID uuid.UUID `json:"requirement_id"`
	CommodityID   string    `json:"commodity_id"`
	Intent        BuyIntent `json:"intent"`
}

type AvailabilityCreatedEvent struct {
	AvailabilityID uuid.UUID `json:"availability_id"`
	CommodityID    string    `json:"commodity_id"`
}

type RiskStatusChangedEvent struct {
	PartnerID uuid.UUID  `json:"partner_id"`
	NewStatus RiskStatus `json:"new_status"`
}

type MatchFoundEvent struct {
	RequirementID  uuid.UUID      `json:"requirement_id"`
	AvailabilityID uuid.UUID      `json:"availability_id"`
	CommodityID    string         `json:"commodity_id"`
	Breakdown      ScoreBreakdown `json:"breakdown"`
	RiskStatus     RiskStatus     `json:"risk_status"`
}

// MatchRejectReason distinguishes a below-threshold rejection from a
// compliance block.
type MatchRejectReason string

const (
	RejectBelowThreshold MatchRejectReason = "below_threshold"
	RejectBlocked        MatchRejectReason = "blocked"
	RejectNoCandidates   MatchRejectReason = "no_candidates"
)

type MatchRejectedEvent struct {
	RequirementID  uuid.UUID         `json:"requirement_id"`
	AvailabilityID uuid.UUID         `json:"availability_id,omitempty"`
	CommodityID    string            `json:"commodity_id"`
	Reason         MatchRejectReason `json:"reason"`

	// BlockDetail goes to the audit sink only, never to external parties.
	BlockDetail string `json:"-"`
}

type MatchAllocatedEvent struct {
	Allocation AllocationRecord `json:"allocation"`
}

// MatchEvent is one append-only row in the audit sink.
type MatchEvent struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	Topic     string            `gorm:"column:topic;not null" json:"topic"`
	Payload   datatypes.JSONMap `gorm:"column:payload;type:jsonb" json:"payload"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (MatchEvent) TableName() string {
	return "match_events"
}
