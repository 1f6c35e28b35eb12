package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// ScoreBreakdown is the full scoring trail for one candidate pair.
type ScoreBreakdown struct {
	Quality  float64 `json:"quality"`
	Price    float64 `json:"price"`
	Delivery float64 `json:"delivery"`
	Risk     float64 `json:"risk"`

	Base        float64 `json:"base"`
	WarnPenalty float64 `json:"warn_penalty"`
	AIBoost     float64 `json:"ai_boost"`
	Final       float64 `json:"final"`
}

// MatchCandidate is an ephemeral scored pairing of one requirement and one
// availability. It is returned or emitted, never persisted as a first-class
// record; Key() is its deduplication identity.
type MatchCandidate struct {
	CommodityID    string    `json:"commodity_id"`
	RequirementID  uuid.UUID `json:"requirement_id"`
	AvailabilityID uuid.UUID `json:"availability_id"`

	Breakdown  ScoreBreakdown `json:"breakdown"`
	RiskStatus RiskStatus     `json:"risk_status"`

	Blocked     bool   `json:"blocked"`
	BlockReason string `json:"-"` // internal only, withheld from responses
	Eligible    bool   `json:"eligible"`
}

func (c MatchCandidate) Key() string {
	return fmt.Sprintf("%s|%s|%s", c.CommodityID, c.RequirementID, c.AvailabilityID)
}
