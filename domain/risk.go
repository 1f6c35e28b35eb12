package domain

type RiskStatus string

const (
	RiskPass RiskStatus = "PASS"
	RiskWarn RiskStatus = "WARN"
	RiskFail RiskStatus = "FAIL"
)

// RiskStatusForScore maps a 0-100 score onto the outcome tiers:
// PASS >= 80, WARN 60-79, FAIL < 60.
func RiskStatusForScore(score float64) RiskStatus {
	switch {
	case score >= 80:
		return RiskPass
	case score >= 60:
		return RiskWarn
	default:
		return RiskFail
	}
}

// RiskFactor is one contributing deduction in an assessment.
type RiskFactor struct {
	Code      string  `json:"code"`
	Deduction float64 `json:"deduction"`
	Detail    string  `json:"detail,omitempty"`
}

// HardBlock is a compliance violation that excludes a candidate regardless
// of its numeric score. MatchedField names what triggered the rule; it is
// never surfaced to the non-blocking party.
type HardBlock struct {
	Rule         string `json:"rule"`
	MatchedField string `json:"matched_field"`
	Detail       string `json:"detail,omitempty"`
}

const (
	BlockRulePartyLink       = "party_link"
	BlockRuleCircularTrading = "circular_trading"
	BlockRuleRoleRestriction = "role_restriction"
)

type RiskAssessment struct {
	Score   float64      `json:"score"`
	Status  RiskStatus   `json:"status"`
	Factors []RiskFactor `json:"factors,omitempty"`
	Blocks  []HardBlock  `json:"blocks,omitempty"`

	// DataUnavailable marks an assessment degraded to WARN because partner
	// data could not be fetched; the sweep re-evaluates it later.
	DataUnavailable bool `json:"data_unavailable,omitempty"`
}

func (a RiskAssessment) Blocked() bool {
	return len(a.Blocks) > 0
}
