package matching

import (
	"math"
	"strings"
	"time"

	"agriMandi/domain"

	"github.com/shopspring/decimal"
)

const (
	// qualityPreferredBonus rewards hitting the buyer's preferred value
	// exactly, on top of the in-range score.
	qualityPreferredBonus = 0.1

	// priceDecayRate controls how fast the price sub-score collapses once the
	// offer exceeds budget: score = exp(-rate * overrun_fraction).
	priceDecayRate = 5.0

	qualityEpsilon = 1e-6

	deliveryTimelineWeight = 0.50
	deliveryTermsWeight    = 0.30
	deliveryDistanceWeight = 0.20
)

// ScorePair computes the full weighted breakdown for one requirement /
// availability pair. Hard-block exclusion happens upstream; here a FAIL
// status only zeroes the risk term.
func ScorePair(
	req domain.Requirement,
	av domain.Availability,
	assessment domain.RiskAssessment,
	commodityCfg domain.MatchingConfiguration,
	cfg Config,
	locations LocationFilter,
) domain.ScoreBreakdown {

	b := domain.ScoreBreakdown{
		Quality:  qualityScore(req.Quality.Data(), av.Quality.Data()),
		Price:    priceScore(av.PricePerUnit, req.BudgetPerUnitMax),
		Delivery: deliveryScore(req, av, locations),
		Risk:     riskSubScore(assessment.Status),
	}

	b.Base = b.Quality*commodityCfg.WeightQuality +
		b.Price*commodityCfg.WeightPrice +
		b.Delivery*commodityCfg.WeightDelivery +
		b.Risk*commodityCfg.WeightRisk

	final := b.Base

	// The WARN penalty discounts the whole composite, not just the risk
	// share: elevated uncertainty taints every dimension of the deal.
	if assessment.Status == domain.RiskWarn {
		b.WarnPenalty = cfg.WarnPenalty
		final *= 1 - cfg.WarnPenalty
	}

	if av.AIRecommended && cfg.AIBoost > 0 {
		boost := cfg.AIBoost
		if final+boost > 1.0 {
			boost = 1.0 - final
		}
		if boost < 0 {
			boost = 0
		}
		b.AIBoost = boost
		final += boost
	}

	b.Final = clamp01(final)

	return b
}

// qualityScore is the arithmetic mean of per-parameter scores: 1.0 inside the
// required range, 1.0+bonus when the preferred value is hit exactly, 0.0
// outside. The mean may exceed 1.0 so preferred-exact offers outrank merely
// in-range ones; the composite is clamped at the end. An unconstrained
// requirement scores 1.0.
func qualityScore(constraints map[string]domain.QualityConstraint, offered map[string]float64) float64 {
	if len(constraints) == 0 {
		return 1.0
	}

	total := 0.0
	for param, c := range constraints {
		value, ok := offered[param]
		if !ok {
			continue // parameter not offered scores 0
		}

		if c.Exact != nil {
			if math.Abs(value-*c.Exact) <= qualityEpsilon {
				total += 1.0
			}
			continue
		}

		if c.Min != nil && value < *c.Min-qualityEpsilon {
			continue
		}
		if c.Max != nil && value > *c.Max+qualityEpsilon {
			continue
		}

		score := 1.0
		if c.Preferred != nil && math.Abs(value-*c.Preferred) <= qualityEpsilon {
			score += qualityPreferredBonus
		}
		total += score
	}

	return total / float64(len(constraints))
}

// priceScore is 1.0 at or under budget, then decays exponentially with the
// overrun percentage. It approaches but never reaches zero, so a large
// overrun still cannot carry a candidate over the commodity threshold.
func priceScore(price, budgetPerUnit decimal.Decimal) float64 {
	if budgetPerUnit.IsZero() || !price.GreaterThan(budgetPerUnit) {
		return 1.0
	}

	overrun, _ := price.Sub(budgetPerUnit).Div(budgetPerUnit).Float64()

	return math.Exp(-priceDecayRate * overrun)
}

// deliveryScore blends timeline (50%), terms (30%) and normalized inverse
// distance (20%).
func deliveryScore(req domain.Requirement, av domain.Availability, locations LocationFilter) float64 {
	timeline := timelineScore(req.DeliveryWindowStart, req.DeliveryWindowEnd, av.DeliveryWindowStart, av.DeliveryWindowEnd)
	terms := termsScore(req.DeliveryTerms, av.DeliveryTerms)

	dist := locations.ClosestDistanceKm(req.DeliveryLocations, av.DeliveryLocation.Data())
	distance := 0.0
	if !math.IsInf(dist, 1) {
		if dist > locations.maxDistanceKm {
			dist = locations.maxDistanceKm
		}
		distance = 1 - dist/locations.maxDistanceKm
	}

	return deliveryTimelineWeight*timeline +
		deliveryTermsWeight*terms +
		deliveryDistanceWeight*distance
}

// timelineScore: 1.0 when the seller's window fits inside the buyer's, 0.5
// for a partial overlap, 0 when disjoint. Unset windows are neutral.
func timelineScore(reqStart, reqEnd, avStart, avEnd time.Time) float64 {
	if reqStart.IsZero() || reqEnd.IsZero() || avStart.IsZero() || avEnd.IsZero() {
		return 0.5
	}

	if !avStart.Before(reqStart) && !avEnd.After(reqEnd) {
		return 1.0
	}

	if avStart.After(reqEnd) || avEnd.Before(reqStart) {
		return 0.0
	}

	return 0.5
}

// incoterm-like categories for terms compatibility
var termCategories = map[string]string{
	"EXW": "origin",
	"FCA": "origin",
	"FOB": "shipment",
	"CFR": "shipment",
	"CIF": "shipment",
	"DAP": "delivered",
	"DPU": "delivered",
	"DDP": "delivered",
}

func termsScore(reqTerms, avTerms string) float64 {
	if reqTerms == "" || avTerms == "" {
		return 0.5
	}

	reqTerms = strings.ToUpper(reqTerms)
	avTerms = strings.ToUpper(avTerms)

	if reqTerms == avTerms {
		return 1.0
	}

	reqCat, okReq := termCategories[reqTerms]
	avCat, okAv := termCategories[avTerms]
	if okReq && okAv && reqCat == avCat {
		return 0.7
	}

	return 0.0
}

func riskSubScore(status domain.RiskStatus) float64 {
	switch status {
	case domain.RiskPass:
		return 1.0
	case domain.RiskWarn:
		return 0.5
	default:
		return 0.0
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
