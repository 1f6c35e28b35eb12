//go:build !integration

package matching

import (
	"context"
	"sync"
	"testing"
	"time"

	"agriMandi/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type fakeRequirementRepo struct {
	byID   map[uuid.UUID]domain.Requirement
	open   map[string][]domain.Requirement
	recent []domain.Requirement
}

func (f *fakeRequirementRepo) FindByID(_ context.Context, id uuid.UUID) (domain.Requirement, error) {
	return f.byID[id], nil
}

func (f *fakeRequirementRepo) FindOpenByCommodity(_ context.Context, commodityID string) ([]domain.Requirement, error) {
	return f.open[commodityID], nil
}

func (f *fakeRequirementRepo) FindRecentUnmatched(_ context.Context, _ time.Time) ([]domain.Requirement, error) {
	return f.recent, nil
}

func (f *fakeRequirementRepo) FindOpenByBuyer(_ context.Context, buyerID uuid.UUID) ([]domain.Requirement, error) {
	var out []domain.Requirement
	for _, r := range f.byID {
		if r.BuyerID == buyerID && r.Status == domain.RequirementPublished {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeAvailabilityRepo struct {
	byID   map[uuid.UUID]domain.Availability
	open   map[string][]domain.Availability
	recent []domain.Availability
}

func (f *fakeAvailabilityRepo) FindByID(_ context.Context, id uuid.UUID) (domain.Availability, error) {
	return f.byID[id], nil
}

func (f *fakeAvailabilityRepo) FindOpenByCommodity(_ context.Context, commodityID string) ([]domain.Availability, error) {
	return f.open[commodityID], nil
}

func (f *fakeAvailabilityRepo) FindRecentUnmatched(_ context.Context, _ time.Time) ([]domain.Availability, error) {
	return f.recent, nil
}

func (f *fakeAvailabilityRepo) FindOpenBySeller(_ context.Context, sellerID uuid.UUID) ([]domain.Availability, error) {
	var out []domain.Availability
	for _, a := range f.byID {
		if a.SellerID == sellerID && a.Status == domain.AvailabilityActive {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeAssessor struct {
	assessment domain.RiskAssessment
}

func (f *fakeAssessor) AssessTradeRisk(context.Context, uuid.UUID, uuid.UUID, string, decimal.Decimal) (domain.RiskAssessment, error) {
	return f.assessment, nil
}

type recordingBus struct {
	mu     sync.Mutex
	events map[string][]any
}

func newRecordingBus() *recordingBus {
	return &recordingBus{events: make(map[string][]any)}
}

func (b *recordingBus) Publish(_ context.Context, topic string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[topic] = append(b.events[topic], payload)
}

func (b *recordingBus) Subscribe(string, Handler) {}

func (b *recordingBus) count(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events[topic])
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []string
}

func (a *recordingAudit) Append(_ context.Context, topic string, _ any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, topic)
	return nil
}

type matchFixture struct {
	svc   *MatchService
	reqs  *fakeRequirementRepo
	avs   *fakeAvailabilityRepo
	bus   *recordingBus
	audit *recordingAudit
	req   domain.Requirement
	av    domain.Availability
}

func newMatchFixture(t *testing.T, assessment domain.RiskAssessment) *matchFixture {
	t.Helper()

	req, av := cottonPair()
	req.ID = uuid.New()
	req.BuyerID = uuid.New()
	req.Status = domain.RequirementPublished
	av.ID = uuid.New()
	av.SellerID = uuid.New()
	av.Status = domain.AvailabilityActive

	reqs := &fakeRequirementRepo{
		byID: map[uuid.UUID]domain.Requirement{req.ID: req},
		open: map[string][]domain.Requirement{"cotton": {req}},
	}
	avs := &fakeAvailabilityRepo{
		byID: map[uuid.UUID]domain.Availability{av.ID: av},
		open: map[string][]domain.Availability{"cotton": {av}},
	}

	bus := newRecordingBus()
	audit := &recordingAudit{}

	store, err := LoadConfigStore(context.Background(), nil)
	require.NoError(t, err)

	svc := NewMatchService(
		reqs,
		avs,
		&fakeAssessor{assessment: assessment},
		store,
		NewDuplicateDetector(5*time.Minute, nil),
		bus,
		audit,
		DefaultConfig(),
	)

	return &matchFixture{svc: svc, reqs: reqs, avs: avs, bus: bus, audit: audit, req: req, av: av}
}

func TestFindMatchesForRequirementHappyPath(t *testing.T) {
	fx := newMatchFixture(t, domain.RiskAssessment{Score: 90, Status: domain.RiskPass})

	got, err := fx.svc.FindMatchesForRequirement(context.Background(), fx.req.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)

	c := got[0]
	assert.True(t, c.Eligible)
	assert.False(t, c.Blocked)
	assert.Equal(t, fx.av.ID, c.AvailabilityID)
	assert.Equal(t, domain.RiskPass, c.RiskStatus)
	assert.GreaterOrEqual(t, c.Breakdown.Final, 0.6)

	assert.Equal(t, 1, fx.bus.count(domain.TopicMatchFound))
	assert.Equal(t, 0, fx.bus.count(domain.TopicMatchRejected))
}

func TestFindMatchesHardBlockBeatsPerfectScore(t *testing.T) {
	blocked := domain.RiskAssessment{
		Score:  0,
		Status: domain.RiskFail,
		Blocks: []domain.HardBlock{{Rule: domain.BlockRulePartyLink, MatchedField: "fiscal_id"}},
	}
	fx := newMatchFixture(t, blocked)

	got, err := fx.svc.FindMatchesForRequirement(context.Background(), fx.req.ID)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.Equal(t, 1, fx.bus.count(domain.TopicMatchRejected))
	event := fx.bus.events[domain.TopicMatchRejected][0].(domain.MatchRejectedEvent)
	assert.Equal(t, domain.RejectBlocked, event.Reason)

	// blocked pair and the rejection both land in the audit trail
	assert.Len(t, fx.audit.entries, 2)
}

func TestFindMatchesDedupGatesEventsNotResults(t *testing.T) {
	fx := newMatchFixture(t, domain.RiskAssessment{Score: 90, Status: domain.RiskPass})
	ctx := context.Background()

	first, err := fx.svc.FindMatchesForRequirement(ctx, fx.req.ID)
	require.NoError(t, err)
	second, err := fx.svc.FindMatchesForRequirement(ctx, fx.req.ID)
	require.NoError(t, err)

	// the caller always gets the ranked results back
	assert.Len(t, first, 1)
	assert.Len(t, second, 1)

	// but the event fires once per window
	assert.Equal(t, 1, fx.bus.count(domain.TopicMatchFound))
}

func TestFindMatchesBelowThresholdRejected(t *testing.T) {
	fx := newMatchFixture(t, domain.RiskAssessment{Score: 90, Status: domain.RiskPass})

	// price far over budget drags the composite under the 0.6 floor
	av := fx.av
	av.PricePerUnit = decimal.NewFromInt(50_000)
	av.Quality = datatypes.NewJSONType(map[string]float64{"fiber_length_mm": 10})
	fx.avs.open["cotton"] = []domain.Availability{av}

	got, err := fx.svc.FindMatchesForRequirement(context.Background(), fx.req.ID)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.Equal(t, 1, fx.bus.count(domain.TopicMatchRejected))
	event := fx.bus.events[domain.TopicMatchRejected][0].(domain.MatchRejectedEvent)
	assert.Equal(t, domain.RejectBelowThreshold, event.Reason)
}

func TestFindMatchesLocationHardFilter(t *testing.T) {
	fx := newMatchFixture(t, domain.RiskAssessment{Score: 90, Status: domain.RiskPass})

	// different state, far away, cross-region disabled
	av := fx.av
	av.DeliveryLocation = datatypes.NewJSONType(domain.LocationPoint{
		LocationID: 99, StateCode: "TN", CountryCode: "IN", Latitude: 13.08, Longitude: 80.27,
	})
	fx.avs.open["cotton"] = []domain.Availability{av}

	got, err := fx.svc.FindMatchesForRequirement(context.Background(), fx.req.ID)
	require.NoError(t, err)
	assert.Empty(t, got)

	event := fx.bus.events[domain.TopicMatchRejected][0].(domain.MatchRejectedEvent)
	assert.Equal(t, domain.RejectNoCandidates, event.Reason)
}

func TestFindMatchesHonorsAllowedDeliveryStates(t *testing.T) {
	fx := newMatchFixture(t, domain.RiskAssessment{Score: 90, Status: domain.RiskPass})
	ctx := context.Background()

	// the offer sits in MH at the buyer's own registered location; a state
	// allow-list without MH still excludes it
	req := fx.req
	req.AllowedDeliveryStates = []string{"GJ"}
	fx.reqs.byID[req.ID] = req

	got, err := fx.svc.FindMatchesForRequirement(ctx, req.ID)
	require.NoError(t, err)
	assert.Empty(t, got)

	req.AllowedDeliveryStates = []string{"GJ", "MH"}
	fx.reqs.byID[req.ID] = req

	got, err = fx.svc.FindMatchesForRequirement(ctx, req.ID)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFindMatchesNeverPairsPartyWithItself(t *testing.T) {
	fx := newMatchFixture(t, domain.RiskAssessment{Score: 90, Status: domain.RiskPass})

	av := fx.av
	av.SellerID = fx.req.BuyerID
	fx.avs.open["cotton"] = []domain.Availability{av}

	got, err := fx.svc.FindMatchesForRequirement(context.Background(), fx.req.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindMatchesValidatesInput(t *testing.T) {
	fx := newMatchFixture(t, domain.RiskAssessment{Score: 90, Status: domain.RiskPass})

	_, err := fx.svc.FindMatchesForRequirement(context.Background(), uuid.Nil)
	assert.True(t, IsValidationError(err))

	_, err = fx.svc.FindMatchesForAvailability(context.Background(), uuid.Nil)
	assert.True(t, IsValidationError(err))
}

func TestFindMatchesForAvailabilityMirror(t *testing.T) {
	fx := newMatchFixture(t, domain.RiskAssessment{Score: 90, Status: domain.RiskPass})

	got, err := fx.svc.FindMatchesForAvailability(context.Background(), fx.av.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, fx.req.ID, got[0].RequirementID)
}

func TestFindMatchesRanksByFinalScore(t *testing.T) {
	fx := newMatchFixture(t, domain.RiskAssessment{Score: 90, Status: domain.RiskPass})

	cheaper := fx.av
	cheaper.ID = uuid.New()
	cheaper.SellerID = uuid.New()

	pricier := fx.av
	pricier.ID = uuid.New()
	pricier.SellerID = uuid.New()
	pricier.PricePerUnit = decimal.NewFromInt(5500)

	fx.avs.open["cotton"] = []domain.Availability{pricier, cheaper}

	got, err := fx.svc.FindMatchesForRequirement(context.Background(), fx.req.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, cheaper.ID, got[0].AvailabilityID)
	assert.Greater(t, got[0].Breakdown.Final, got[1].Breakdown.Final)
}

func TestRecentUnmatchedJobsUseSweepPriority(t *testing.T) {
	fx := newMatchFixture(t, domain.RiskAssessment{Score: 90, Status: domain.RiskPass})
	fx.reqs.recent = []domain.Requirement{fx.req}
	fx.avs.recent = []domain.Availability{fx.av}

	jobs, err := fx.svc.RecentUnmatchedJobs(context.Background(), time.Now().Add(-15*time.Minute))
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	for _, job := range jobs {
		assert.Equal(t, PrioritySweep, job.Priority)
	}
}

func TestPartnerJobsCoverBothSides(t *testing.T) {
	fx := newMatchFixture(t, domain.RiskAssessment{Score: 90, Status: domain.RiskPass})

	buyerJobs, err := fx.svc.PartnerJobs(context.Background(), fx.req.BuyerID)
	require.NoError(t, err)
	require.Len(t, buyerJobs, 1)
	assert.Equal(t, JobRequirement, buyerJobs[0].Kind)
	assert.Equal(t, fx.req.ID, buyerJobs[0].EntityID)

	sellerJobs, err := fx.svc.PartnerJobs(context.Background(), fx.av.SellerID)
	require.NoError(t, err)
	require.Len(t, sellerJobs, 1)
	assert.Equal(t, JobAvailability, sellerJobs[0].Kind)
}
