// Package risk computes buyer/seller/trade risk assessments and the
// compliance hard blocks that gate matching.
package risk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agriMandi/domain"
	"agriMandi/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrRiskDataUnavailable marks a transient partner-data lookup failure. The
// caller treats the party as WARN, never silently as PASS.
var ErrRiskDataUnavailable = errors.New("risk data unavailable")

const (
	CombineWorst = "worst"
	CombineMean  = "mean"
)

// deduction magnitudes: credit up to 40, reputation up to 30, behavioral
// performance up to 30.
const (
	creditDeductionFull    = 40.0
	creditDeductionPartial = 20.0

	reputationDeductionFull = 30.0
	reputationDeductionHalf = 15.0

	performanceDeductionFull = 30.0
	performanceDeductionHalf = 15.0
)

// degradedScore is assigned when partner data cannot be fetched; it lands in
// the WARN band so the candidate is penalized but not excluded.
const degradedScore = 60.0

type Config struct {
	// CombineRule merges the two party assessments: "worst" keeps the lower
	// score, "mean" averages them.
	CombineRule   string
	LookupTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		CombineRule:   CombineWorst,
		LookupTimeout: 3 * time.Second,
	}
}

type PartnerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (domain.TradingPartner, error)
}

type PositionRepository interface {
	// HasOpenPosition reports whether partner holds an open position in the
	// given direction against counterparty for the commodity on the given
	// calendar day.
	HasOpenPosition(ctx context.Context, partnerID, counterpartyID uuid.UUID, commodityID string, direction domain.PositionDirection, day time.Time) (bool, error)
}

type RiskService struct {
	partners  PartnerRepository
	positions PositionRepository
	cfg       Config
}

func NewRiskService(partners PartnerRepository, positions PositionRepository, cfg Config) *RiskService {
	if cfg.CombineRule == "" {
		cfg.CombineRule = CombineWorst
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = DefaultConfig().LookupTimeout
	}
	return &RiskService{
		partners:  partners,
		positions: positions,
		cfg:       cfg,
	}
}

// AssessPartyRisk scores a single party for a prospective trade value.
func (s *RiskService) AssessPartyRisk(ctx context.Context, partyID uuid.UUID, role domain.PartnerRole, tradeValue decimal.Decimal) (domain.RiskAssessment, error) {
	partner, err := s.lookupPartner(ctx, partyID)
	if err != nil {
		return degradedAssessment(), fmt.Errorf("%w: party %s: %v", ErrRiskDataUnavailable, partyID, err)
	}

	return scoreParty(partner, role, tradeValue), nil
}

// AssessTradeRisk combines both party assessments and applies the hard-block
// checks. Any block forces status FAIL with score 0 regardless of the numeric
// computation. Unreachable partner data degrades that party to WARN and caps
// the combined status at WARN.
func (s *RiskService) AssessTradeRisk(ctx context.Context, buyerID, sellerID uuid.UUID, commodityID string, tradeValue decimal.Decimal) (domain.RiskAssessment, error) {
	buyer, buyerErr := s.lookupPartner(ctx, buyerID)
	seller, sellerErr := s.lookupPartner(ctx, sellerID)

	var buyerAss, sellerAss domain.RiskAssessment

	if buyerErr != nil {
		logger.Warn("buyer risk data unavailable", "buyer_id", buyerID, "error", buyerErr)
		buyerAss = degradedAssessment()
	} else {
		buyerAss = scoreParty(buyer, domain.RoleBuyer, tradeValue)
	}

	if sellerErr != nil {
		logger.Warn("seller risk data unavailable", "seller_id", sellerID, "error", sellerErr)
		sellerAss = degradedAssessment()
	} else {
		sellerAss = scoreParty(seller, domain.RoleSeller, tradeValue)
	}

	combined := s.combine(buyerAss, sellerAss)

	// Hard blocks need both parties' records; a party whose data is missing
	// is already degraded to WARN and re-checked by the safety sweep.
	if buyerErr == nil && sellerErr == nil {
		blocks, warns, err := s.hardBlocks(ctx, buyer, seller, commodityID)
		if err != nil {
			return degradedAssessment(), fmt.Errorf("hard block checks: %w", err)
		}

		if len(blocks) > 0 {
			combined.Blocks = blocks
			combined.Score = 0
			combined.Status = domain.RiskFail
			return combined, nil
		}

		if len(warns) > 0 {
			combined.Factors = append(combined.Factors, warns...)
			if combined.Status == domain.RiskPass {
				combined.Status = domain.RiskWarn
			}
		}
	}

	return combined, nil
}

func (s *RiskService) lookupPartner(ctx context.Context, id uuid.UUID) (domain.TradingPartner, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.LookupTimeout)
	defer cancel()

	return s.partners.FindByID(ctx, id)
}

func (s *RiskService) combine(a, b domain.RiskAssessment) domain.RiskAssessment {
	var score float64
	switch s.cfg.CombineRule {
	case CombineMean:
		score = (a.Score + b.Score) / 2
	default:
		score = a.Score
		if b.Score < score {
			score = b.Score
		}
	}

	out := domain.RiskAssessment{
		Score:           score,
		Status:          domain.RiskStatusForScore(score),
		Factors:         append(append([]domain.RiskFactor{}, a.Factors...), b.Factors...),
		DataUnavailable: a.DataUnavailable || b.DataUnavailable,
	}

	// Missing data never averages up to a clean PASS.
	if out.DataUnavailable && out.Status == domain.RiskPass {
		out.Status = domain.RiskWarn
	}

	return out
}

// scoreParty applies the deduction rules to current partner data. Pure
// function of the loaded record.
func scoreParty(p domain.TradingPartner, role domain.PartnerRole, tradeValue decimal.Decimal) domain.RiskAssessment {
	score := 100.0
	var factors []domain.RiskFactor

	// Credit exposure: full deduction when the trade would exceed the limit,
	// partial when the remaining buffer is under 120% of the trade value.
	remaining := p.CreditLimit.Sub(p.CurrentExposure)
	buffer := tradeValue.Mul(decimal.NewFromFloat(1.2))
	switch {
	case tradeValue.GreaterThan(remaining):
		score -= creditDeductionFull
		factors = append(factors, domain.RiskFactor{
			Code:      "credit_limit_exceeded",
			Deduction: creditDeductionFull,
			Detail:    fmt.Sprintf("remaining credit %s below trade value %s", remaining, tradeValue),
		})
	case remaining.LessThan(buffer):
		score -= creditDeductionPartial
		factors = append(factors, domain.RiskFactor{
			Code:      "credit_buffer_low",
			Deduction: creditDeductionPartial,
			Detail:    fmt.Sprintf("remaining credit %s below 120%% of trade value", remaining),
		})
	}

	// Reputation rating on the 0..5 scale.
	switch {
	case p.ReputationRating < 3.0:
		score -= reputationDeductionFull
		factors = append(factors, domain.RiskFactor{Code: "reputation_low", Deduction: reputationDeductionFull})
	case p.ReputationRating < 4.0:
		score -= reputationDeductionHalf
		factors = append(factors, domain.RiskFactor{Code: "reputation_fair", Deduction: reputationDeductionHalf})
	}

	// Behavioral performance: payment side for buyers, delivery side for
	// sellers; traders are judged on the side they act in.
	perf := p.PaymentPerformance
	perfCode := "payment_performance"
	if role == domain.RoleSeller {
		perf = p.DeliveryPerformance
		perfCode = "delivery_performance"
	}
	switch {
	case perf < 50:
		score -= performanceDeductionFull
		factors = append(factors, domain.RiskFactor{Code: perfCode + "_poor", Deduction: performanceDeductionFull})
	case perf < 75:
		score -= performanceDeductionHalf
		factors = append(factors, domain.RiskFactor{Code: perfCode + "_weak", Deduction: performanceDeductionHalf})
	}

	if score < 0 {
		score = 0
	}

	return domain.RiskAssessment{
		Score:   score,
		Status:  domain.RiskStatusForScore(score),
		Factors: factors,
	}
}

func degradedAssessment() domain.RiskAssessment {
	return domain.RiskAssessment{
		Score:           degradedScore,
		Status:          domain.RiskWarn,
		DataUnavailable: true,
		Factors: []domain.RiskFactor{
			{Code: "risk_data_unavailable", Deduction: 100 - degradedScore},
		},
	}
}
