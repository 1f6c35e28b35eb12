package matching

import (
	"context"
	"sync"
	"time"

	"agriMandi/domain"
	"agriMandi/pkg/logger"

	"github.com/google/uuid"
)

// Orchestrator reacts to creation and risk-status events, enqueues
// match-discovery jobs on the priority queue, and drives the worker pool plus
// the periodic safety sweep.
type Orchestrator struct {
	svc   *MatchService
	queue *PriorityQueue
	cfg   Config

	wg sync.WaitGroup
}

func NewOrchestrator(svc *MatchService, cfg Config) *Orchestrator {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	if cfg.SweepLookback <= 0 {
		cfg.SweepLookback = defaultSweepLookback
	}

	return &Orchestrator{
		svc:   svc,
		queue: NewPriorityQueue(cfg.QueueCapacity),
		cfg:   cfg,
	}
}

// Bind subscribes the orchestrator to the consumed topics. Handlers only
// enqueue; all heavy work happens on the worker pool.
func (o *Orchestrator) Bind(bus EventBus) {
	bus.Subscribe(domain.TopicRequirementCreated, func(ctx context.Context, payload any) {
		event, ok := payload.(domain.RequirementCreatedEvent)
		if !ok {
			logger.Error("unexpected payload", "topic", domain.TopicRequirementCreated)
			return
		}
		o.Enqueue(Job{
			Kind:     JobRequirement,
			EntityID: event.RequirementID,
			Priority: PriorityForIntent(event.Intent),
		})
	})

	bus.Subscribe(domain.TopicAvailabilityCreated, func(ctx context.Context, payload any) {
		event, ok := payload.(domain.AvailabilityCreatedEvent)
		if !ok {
			logger.Error("unexpected payload", "topic", domain.TopicAvailabilityCreated)
			return
		}
		o.Enqueue(Job{
			Kind:     JobAvailability,
			EntityID: event.AvailabilityID,
			Priority: PriorityForIntent(""),
		})
	})

	bus.Subscribe(domain.TopicRiskStatusChanged, func(ctx context.Context, payload any) {
		event, ok := payload.(domain.RiskStatusChangedEvent)
		if !ok {
			logger.Error("unexpected payload", "topic", domain.TopicRiskStatusChanged)
			return
		}
		o.requeuePartner(ctx, event.PartnerID)
	})
}

// Enqueue pushes a job; a full queue drops it with a metric and leaves
// recovery to the safety sweep.
func (o *Orchestrator) Enqueue(job Job) {
	if err := o.queue.Push(job); err != nil {
		MatchQueueDroppedTotal.Inc()
		logger.Warn("match job dropped",
			"kind", job.Kind,
			"entity_id", job.EntityID,
			"error", err,
		)
		return
	}
	MatchQueueDepth.Set(float64(o.queue.Len()))
}

func (o *Orchestrator) requeuePartner(ctx context.Context, partnerID uuid.UUID) {
	jobs, err := o.svc.PartnerJobs(ctx, partnerID)
	if err != nil {
		logger.Error("requeue after risk change failed", "partner_id", partnerID, "error", err)
		return
	}
	for _, job := range jobs {
		o.Enqueue(job)
	}
}

// Start launches the worker pool and the safety sweep. Returns immediately;
// use Shutdown to drain.
func (o *Orchestrator) Start(ctx context.Context) {
	for i := 0; i < o.cfg.Workers; i++ {
		o.wg.Add(1)
		go o.worker(ctx)
	}

	o.wg.Add(1)
	go o.sweepLoop(ctx)

	logger.Info("match orchestrator started",
		"workers", o.cfg.Workers,
		"queue_capacity", o.cfg.QueueCapacity,
		"sweep_interval", o.cfg.SweepInterval,
	)
}

// Shutdown closes the queue and waits for in-flight jobs.
func (o *Orchestrator) Shutdown() {
	o.queue.Close()
	o.wg.Wait()
}

func (o *Orchestrator) worker(ctx context.Context) {
	defer o.wg.Done()

	for {
		job, ok := o.queue.Pop(ctx)
		if !ok {
			return
		}
		MatchQueueDepth.Set(float64(o.queue.Len()))
		o.process(ctx, job)
	}
}

func (o *Orchestrator) process(ctx context.Context, job Job) {
	var err error
	switch job.Kind {
	case JobRequirement:
		_, err = o.svc.FindMatchesForRequirement(ctx, job.EntityID)
	case JobAvailability:
		_, err = o.svc.FindMatchesForAvailability(ctx, job.EntityID)
	}

	if err == nil {
		MatchJobsProcessedTotal.WithLabelValues(string(job.Kind), "ok").Inc()
		return
	}

	// Validation failures are terminal; everything else gets bounded retries
	// with exponential backoff.
	if IsValidationError(err) {
		MatchJobsProcessedTotal.WithLabelValues(string(job.Kind), "invalid").Inc()
		logger.Warn("match job rejected", "kind", job.Kind, "entity_id", job.EntityID, "error", err)
		return
	}

	attempt := job.Attempts + 1
	if attempt < o.cfg.MaxAttempts {
		backoff := o.cfg.RetryBackoff << job.Attempts
		MatchJobRetriesTotal.Inc()
		logger.Warn("match job retry scheduled",
			"kind", job.Kind,
			"entity_id", job.EntityID,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		retry := job
		retry.Attempts = attempt
		time.AfterFunc(backoff, func() {
			o.Enqueue(retry)
		})
		return
	}

	// Surfaced for alerting, never silently dropped; the sweep may still
	// pick the entity up again.
	MatchJobsProcessedTotal.WithLabelValues(string(job.Kind), "failed").Inc()
	logger.Error("match job failed permanently",
		"kind", job.Kind,
		"entity_id", job.EntityID,
		"attempts", attempt,
		"error", err,
	)
}

// sweepLoop re-scans recently created, unmatched records so a dropped event
// still results in eventual matching.
func (o *Orchestrator) sweepLoop(ctx context.Context) {
	defer o.wg.Done()

	ticker := time.NewTicker(o.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-o.queue.done:
			return
		case <-ticker.C:
			o.sweep(ctx)
		}
	}
}

func (o *Orchestrator) sweep(ctx context.Context) {
	since := time.Now().Add(-o.cfg.SweepLookback)

	jobs, err := o.svc.RecentUnmatchedJobs(ctx, since)
	if err != nil {
		logger.Error("safety sweep failed", "error", err)
		return
	}
	if len(jobs) == 0 {
		return
	}

	logger.Debug("safety sweep enqueueing", "jobs", len(jobs))
	for _, job := range jobs {
		o.Enqueue(job)
	}
}
