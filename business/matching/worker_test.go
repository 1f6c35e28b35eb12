//go:build !integration

package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"agriMandi/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyRequirementRepo struct {
	calls int
	err   error
}

func (f *flakyRequirementRepo) FindByID(context.Context, uuid.UUID) (domain.Requirement, error) {
	f.calls++
	return domain.Requirement{}, f.err
}

func (f *flakyRequirementRepo) FindOpenByCommodity(context.Context, string) ([]domain.Requirement, error) {
	return nil, f.err
}

func (f *flakyRequirementRepo) FindRecentUnmatched(context.Context, time.Time) ([]domain.Requirement, error) {
	return nil, f.err
}

func (f *flakyRequirementRepo) FindOpenByBuyer(context.Context, uuid.UUID) ([]domain.Requirement, error) {
	return nil, f.err
}

func flakyOrchestrator(t *testing.T, repo RequirementRepository, cfg Config) *Orchestrator {
	t.Helper()

	store, err := LoadConfigStore(context.Background(), nil)
	require.NoError(t, err)

	svc := NewMatchService(
		repo,
		&fakeAvailabilityRepo{},
		&fakeAssessor{assessment: domain.RiskAssessment{Score: 90, Status: domain.RiskPass}},
		store,
		nil,
		newRecordingBus(),
		&recordingAudit{},
		cfg,
	)
	return NewOrchestrator(svc, cfg)
}

func TestBindEnqueuesWithIntentPriority(t *testing.T) {
	fx := newMatchFixture(t, domain.RiskAssessment{Score: 90, Status: domain.RiskPass})

	cfg := DefaultConfig()
	o := NewOrchestrator(fx.svc, cfg)

	bus := NewInProcessBus()
	o.Bind(bus)

	ctx := context.Background()
	bus.Publish(ctx, domain.TopicRequirementCreated, domain.RequirementCreatedEvent{
		RequirementID: fx.req.ID,
		CommodityID:   "cotton",
		Intent:        domain.IntentDirectBuy,
	})
	bus.Publish(ctx, domain.TopicAvailabilityCreated, domain.AvailabilityCreatedEvent{
		AvailabilityID: fx.av.ID,
		CommodityID:    "cotton",
	})

	require.Equal(t, 2, o.queue.Len())

	job, ok := o.queue.Pop(ctx)
	require.True(t, ok)
	assert.Equal(t, JobRequirement, job.Kind)
	assert.Equal(t, fx.req.ID, job.EntityID)
	assert.Equal(t, 40, job.Priority)

	job, ok = o.queue.Pop(ctx)
	require.True(t, ok)
	assert.Equal(t, JobAvailability, job.Kind)
	assert.Equal(t, 10, job.Priority)
}

func TestBindRiskStatusChangeRequeuesPartner(t *testing.T) {
	fx := newMatchFixture(t, domain.RiskAssessment{Score: 90, Status: domain.RiskPass})

	o := NewOrchestrator(fx.svc, DefaultConfig())
	bus := NewInProcessBus()
	o.Bind(bus)

	bus.Publish(context.Background(), domain.TopicRiskStatusChanged, domain.RiskStatusChangedEvent{
		PartnerID: fx.req.BuyerID,
		NewStatus: domain.RiskWarn,
	})

	require.Equal(t, 1, o.queue.Len())
	job, _ := o.queue.Pop(context.Background())
	assert.Equal(t, fx.req.ID, job.EntityID)
}

func TestBindIgnoresUnexpectedPayload(t *testing.T) {
	fx := newMatchFixture(t, domain.RiskAssessment{Score: 90, Status: domain.RiskPass})

	o := NewOrchestrator(fx.svc, DefaultConfig())
	bus := NewInProcessBus()
	o.Bind(bus)

	bus.Publish(context.Background(), domain.TopicRequirementCreated, "not an event")
	assert.Equal(t, 0, o.queue.Len())
}

func TestProcessRetriesTransientErrors(t *testing.T) {
	repo := &flakyRequirementRepo{err: errors.New("db timeout")}

	cfg := DefaultConfig()
	cfg.RetryBackoff = time.Millisecond
	o := flakyOrchestrator(t, repo, cfg)

	o.process(context.Background(), Job{Kind: JobRequirement, EntityID: uuid.New(), Priority: 40})
	assert.Equal(t, 1, repo.calls)

	// the retry lands back on the queue after the backoff
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	retry, ok := o.queue.Pop(ctx)
	require.True(t, ok)
	assert.Equal(t, 1, retry.Attempts)
	assert.Equal(t, 40, retry.Priority)
}

func TestProcessStopsAfterMaxAttempts(t *testing.T) {
	repo := &flakyRequirementRepo{err: errors.New("db timeout")}

	cfg := DefaultConfig()
	cfg.RetryBackoff = time.Millisecond
	cfg.MaxAttempts = 3
	o := flakyOrchestrator(t, repo, cfg)

	o.process(context.Background(), Job{Kind: JobRequirement, EntityID: uuid.New(), Attempts: cfg.MaxAttempts - 1})

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, o.queue.Len())
}

func TestProcessValidationErrorIsTerminal(t *testing.T) {
	repo := &flakyRequirementRepo{}

	cfg := DefaultConfig()
	cfg.RetryBackoff = time.Millisecond
	o := flakyOrchestrator(t, repo, cfg)

	// nil entity id trips the input check before the repo is touched
	o.process(context.Background(), Job{Kind: JobRequirement, EntityID: uuid.Nil})

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, o.queue.Len())
	assert.Equal(t, 0, repo.calls)
}

func TestOrchestratorEndToEnd(t *testing.T) {
	fx := newMatchFixture(t, domain.RiskAssessment{Score: 90, Status: domain.RiskPass})

	cfg := DefaultConfig()
	cfg.Workers = 2
	cfg.SweepInterval = time.Hour
	o := NewOrchestrator(fx.svc, cfg)

	bus := NewInProcessBus()
	o.Bind(bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Start(ctx)

	bus.Publish(ctx, domain.TopicRequirementCreated, domain.RequirementCreatedEvent{
		RequirementID: fx.req.ID,
		CommodityID:   "cotton",
		Intent:        domain.IntentDirectBuy,
	})

	require.Eventually(t, func() bool {
		return fx.bus.count(domain.TopicMatchFound) == 1
	}, 2*time.Second, 10*time.Millisecond)

	o.Shutdown()
}

func TestSweepEnqueuesRecentUnmatched(t *testing.T) {
	fx := newMatchFixture(t, domain.RiskAssessment{Score: 90, Status: domain.RiskPass})
	fx.reqs.recent = []domain.Requirement{fx.req}

	o := NewOrchestrator(fx.svc, DefaultConfig())
	o.sweep(context.Background())

	require.Equal(t, 1, o.queue.Len())
	job, _ := o.queue.Pop(context.Background())
	assert.Equal(t, PrioritySweep, job.Priority)
}

func TestEstimatedTradeValue(t *testing.T) {
	req, av := cottonPair()

	// preferred quantity wins when set
	req.QuantityPreferred = decimal.NewFromInt(80)
	assert.True(t, estimatedTradeValue(req, av).Equal(decimal.NewFromInt(80*4800)))

	// falls back to max, capped at what the seller still has
	req.QuantityPreferred = decimal.Zero
	av.QuantityReserved = decimal.NewFromInt(150)
	assert.True(t, estimatedTradeValue(req, av).Equal(decimal.NewFromInt(50*4800)))
}
