//go:build !integration

package matching

import (
	"math"
	"testing"
	"time"

	"agriMandi/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func f64(v float64) *float64 { return &v }

func testLocations() LocationFilter {
	return NewLocationFilter(500, false)
}

func cottonPair() (domain.Requirement, domain.Availability) {
	loc := domain.LocationPoint{LocationID: 7, Name: "Nagpur", StateCode: "MH", CountryCode: "IN", Latitude: 21.15, Longitude: 79.09}

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	req := domain.Requirement{
		CommodityID:         "cotton",
		QuantityMin:         decimal.NewFromInt(50),
		QuantityMax:         decimal.NewFromInt(100),
		BudgetPerUnitMax:    decimal.NewFromInt(5000),
		Quality:             datatypes.NewJSONType(map[string]domain.QualityConstraint{"fiber_length_mm": {Min: f64(28), Max: f64(30)}}),
		DeliveryLocations:   []domain.LocationPoint{loc},
		DeliveryWindowStart: start,
		DeliveryWindowEnd:   end,
	}
	av := domain.Availability{
		CommodityID:         "cotton",
		QuantityTotal:       decimal.NewFromInt(200),
		PricePerUnit:        decimal.NewFromInt(4800),
		Quality:             datatypes.NewJSONType(map[string]float64{"fiber_length_mm": 29}),
		DeliveryLocation:    datatypes.NewJSONType(loc),
		DeliveryWindowStart: start,
		DeliveryWindowEnd:   end,
	}
	return req, av
}

func TestScorePairCottonScenario(t *testing.T) {
	req, av := cottonPair()

	warn := domain.RiskAssessment{Score: 60, Status: domain.RiskWarn}
	cfg := DefaultConfig()
	commodityCfg := DefaultCommodityConfiguration()

	b := ScorePair(req, av, warn, commodityCfg, cfg, testLocations())

	assert.Equal(t, 1.0, b.Quality)
	assert.Equal(t, 1.0, b.Price)
	// timeline fits (1.0), terms unset (0.5), same registered location (1.0)
	assert.InDelta(t, 0.85, b.Delivery, 1e-9)
	assert.Equal(t, 0.5, b.Risk)

	wantBase := 0.40*1.0 + 0.30*1.0 + 0.15*0.85 + 0.15*0.5
	assert.InDelta(t, wantBase, b.Base, 1e-9)

	assert.Equal(t, cfg.WarnPenalty, b.WarnPenalty)
	assert.InDelta(t, wantBase*0.9, b.Final, 1e-9)
	assert.Greater(t, b.Final, commodityCfg.MinScore)
}

func TestScorePairWarnPenaltyIsMultiplicative(t *testing.T) {
	req, av := cottonPair()
	cfg := DefaultConfig()
	commodityCfg := DefaultCommodityConfiguration()

	pass := ScorePair(req, av, domain.RiskAssessment{Score: 90, Status: domain.RiskPass}, commodityCfg, cfg, testLocations())
	warn := ScorePair(req, av, domain.RiskAssessment{Score: 65, Status: domain.RiskWarn}, commodityCfg, cfg, testLocations())

	assert.Zero(t, pass.WarnPenalty)
	assert.InDelta(t, pass.Base, pass.Final, 1e-9)
	assert.InDelta(t, warn.Base*(1-cfg.WarnPenalty), warn.Final, 1e-9)
}

func TestScorePairAIBoostClampedAtOne(t *testing.T) {
	req, av := cottonPair()
	req.Quality = datatypes.NewJSONType(map[string]domain.QualityConstraint{})
	req.DeliveryTerms = "DAP"
	av.DeliveryTerms = "DAP"
	av.AIRecommended = true

	b := ScorePair(req, av, domain.RiskAssessment{Score: 95, Status: domain.RiskPass}, DefaultCommodityConfiguration(), DefaultConfig(), testLocations())

	// base is 1.0 here, so the whole boost gets trimmed
	assert.InDelta(t, 1.0, b.Base, 1e-9)
	assert.Zero(t, b.AIBoost)
	assert.Equal(t, 1.0, b.Final)
}

func TestScorePairAIBoostApplied(t *testing.T) {
	req, av := cottonPair()
	av.AIRecommended = true
	cfg := DefaultConfig()

	plain := ScorePair(req, av, domain.RiskAssessment{Status: domain.RiskWarn}, DefaultCommodityConfiguration(), cfg, testLocations())

	av.AIRecommended = false
	base := ScorePair(req, av, domain.RiskAssessment{Status: domain.RiskWarn}, DefaultCommodityConfiguration(), cfg, testLocations())

	assert.InDelta(t, cfg.AIBoost, plain.AIBoost, 1e-9)
	assert.InDelta(t, base.Final+cfg.AIBoost, plain.Final, 1e-9)
}

func TestPriceScoreDecay(t *testing.T) {
	budget := decimal.NewFromInt(5000)

	assert.Equal(t, 1.0, priceScore(decimal.NewFromInt(4000), budget))
	assert.Equal(t, 1.0, priceScore(budget, budget))

	// 10% over budget: exp(-5 * 0.1)
	got := priceScore(decimal.NewFromInt(5500), budget)
	assert.InDelta(t, math.Exp(-0.5), got, 1e-9)

	// 100% over budget collapses but stays above zero
	far := priceScore(decimal.NewFromInt(10000), budget)
	assert.InDelta(t, math.Exp(-5), far, 1e-9)
	assert.Greater(t, far, 0.0)

	// zero budget never divides
	assert.Equal(t, 1.0, priceScore(decimal.NewFromInt(100), decimal.Zero))
}

func TestQualityScore(t *testing.T) {
	t.Run("no constraints", func(t *testing.T) {
		assert.Equal(t, 1.0, qualityScore(nil, map[string]float64{"x": 1}))
	})

	t.Run("missing offered parameter scores zero", func(t *testing.T) {
		constraints := map[string]domain.QualityConstraint{
			"moisture": {Max: f64(12)},
			"staple":   {Min: f64(28)},
		}
		got := qualityScore(constraints, map[string]float64{"moisture": 10})
		assert.InDelta(t, 0.5, got, 1e-9)
	})

	t.Run("out of range scores zero", func(t *testing.T) {
		constraints := map[string]domain.QualityConstraint{"moisture": {Max: f64(12)}}
		assert.Zero(t, qualityScore(constraints, map[string]float64{"moisture": 14}))
	})

	t.Run("exact match", func(t *testing.T) {
		constraints := map[string]domain.QualityConstraint{"grade": {Exact: f64(2)}}
		assert.Equal(t, 1.0, qualityScore(constraints, map[string]float64{"grade": 2}))
		assert.Zero(t, qualityScore(constraints, map[string]float64{"grade": 3}))
	})

	t.Run("preferred exact outranks merely in range", func(t *testing.T) {
		constraints := map[string]domain.QualityConstraint{"staple": {Min: f64(28), Max: f64(30), Preferred: f64(29)}}

		preferred := qualityScore(constraints, map[string]float64{"staple": 29})
		inRange := qualityScore(constraints, map[string]float64{"staple": 28})

		assert.Equal(t, 1.0, inRange)
		assert.InDelta(t, 1.0+qualityPreferredBonus, preferred, 1e-9)
		assert.Greater(t, preferred, inRange)
	})

	t.Run("bonus averages across parameters", func(t *testing.T) {
		constraints := map[string]domain.QualityConstraint{
			"staple":   {Min: f64(28), Max: f64(30), Preferred: f64(29)},
			"moisture": {Max: f64(12)},
		}
		got := qualityScore(constraints, map[string]float64{"staple": 29, "moisture": 10})
		assert.InDelta(t, 1.0+qualityPreferredBonus/2, got, 1e-9)
	})
}

func TestTimelineScore(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC) }

	assert.Equal(t, 1.0, timelineScore(day(1), day(31), day(5), day(20)))
	assert.Equal(t, 0.5, timelineScore(day(1), day(15), day(10), day(20)))
	assert.Equal(t, 0.0, timelineScore(day(1), day(10), day(15), day(20)))
	assert.Equal(t, 0.5, timelineScore(time.Time{}, time.Time{}, day(1), day(2)))
}

func TestTermsScore(t *testing.T) {
	assert.Equal(t, 1.0, termsScore("FOB", "fob"))
	assert.Equal(t, 0.7, termsScore("FOB", "CIF"))
	assert.Equal(t, 0.0, termsScore("EXW", "DDP"))
	assert.Equal(t, 0.5, termsScore("", "FOB"))
	assert.Equal(t, 0.0, termsScore("FOB", "CUSTOM"))
}

func TestHaversineKm(t *testing.T) {
	// Nagpur to Mumbai is roughly 700 km great-circle
	d := HaversineKm(21.1458, 79.0882, 19.0760, 72.8777)
	assert.InDelta(t, 700, d, 30)

	assert.Zero(t, HaversineKm(21.15, 79.09, 21.15, 79.09))
}
