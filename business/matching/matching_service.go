package matching

import (
	"context"
	"fmt"
	"sort"
	"time"

	"agriMandi/domain"
	"agriMandi/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---- Repository interfaces ----

type RequirementRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (domain.Requirement, error)
	// FindOpenByCommodity narrows to published requirements for the
	// commodity; the location hard filter runs on top of this.
	FindOpenByCommodity(ctx context.Context, commodityID string) ([]domain.Requirement, error)
	FindRecentUnmatched(ctx context.Context, since time.Time) ([]domain.Requirement, error)
	FindOpenByBuyer(ctx context.Context, buyerID uuid.UUID) ([]domain.Requirement, error)
}

type AvailabilityRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (domain.Availability, error)
	FindOpenByCommodity(ctx context.Context, commodityID string) ([]domain.Availability, error)
	FindRecentUnmatched(ctx context.Context, since time.Time) ([]domain.Availability, error)
	FindOpenBySeller(ctx context.Context, sellerID uuid.UUID) ([]domain.Availability, error)
}

// RiskAssessor gates and scores candidate pairs; see business/risk.
type RiskAssessor interface {
	AssessTradeRisk(ctx context.Context, buyerID, sellerID uuid.UUID, commodityID string, tradeValue decimal.Decimal) (domain.RiskAssessment, error)
}

// AuditSink is the write-only append log for compliance and match outcomes.
type AuditSink interface {
	Append(ctx context.Context, topic string, payload any) error
}

// ---- Service ----

type MatchService struct {
	requirements   RequirementRepository
	availabilities AvailabilityRepository
	riskAssessor   RiskAssessor
	configs        *ConfigStore
	detector       *DuplicateDetector
	bus            EventBus
	audit          AuditSink
	locations      LocationFilter
	cfg            Config
}

func NewMatchService(
	requirements RequirementRepository,
	availabilities AvailabilityRepository,
	riskAssessor RiskAssessor,
	configs *ConfigStore,
	detector *DuplicateDetector,
	bus EventBus,
	audit AuditSink,
	cfg Config,
) *MatchService {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaultMaxResults
	}
	return &MatchService{
		requirements:   requirements,
		availabilities: availabilities,
		riskAssessor:   riskAssessor,
		configs:        configs,
		detector:       detector,
		bus:            bus,
		audit:          audit,
		locations:      NewLocationFilter(cfg.MaxDistanceKm, cfg.AllowCrossRegion),
		cfg:            cfg,
	}
}

// FindMatchesForRequirement runs the full discovery pipeline for one
// requirement: location pre-filter, risk gating, scoring, ranking,
// deduplicated event emission.
func (s *MatchService) FindMatchesForRequirement(ctx context.Context, id uuid.UUID) ([]domain.MatchCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if id == uuid.Nil {
		return nil, &ValidationError{Field: "requirement_id", Reason: "must not be empty"}
	}

	req, err := s.requirements.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load requirement: %w", err)
	}
	if req.Status != domain.RequirementPublished && req.Status != domain.RequirementCreated {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("requirement is %s, not matchable", req.Status)}
	}

	pool, err := s.availabilities.FindOpenByCommodity(ctx, req.CommodityID)
	if err != nil {
		return nil, fmt.Errorf("load availabilities: %w", err)
	}

	// Location hard filter runs before any per-candidate scoring.
	candidates := pool[:0:0]
	for _, av := range pool {
		if av.SellerID == req.BuyerID {
			continue // never match a party against itself
		}
		if s.locations.Compatible(req.DeliveryLocations, req.AllowedDeliveryStates, av.DeliveryLocation.Data()) {
			candidates = append(candidates, av)
		}
	}

	pairs := make([]pair, 0, len(candidates))
	for _, av := range candidates {
		pairs = append(pairs, pair{req: req, av: av})
	}

	return s.evaluate(ctx, req.CommodityID, pairs, JobRequirement, req.ID)
}

// FindMatchesForAvailability is the seller-side mirror.
func (s *MatchService) FindMatchesForAvailability(ctx context.Context, id uuid.UUID) ([]domain.MatchCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if id == uuid.Nil {
		return nil, &ValidationError{Field: "availability_id", Reason: "must not be empty"}
	}

	av, err := s.availabilities.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}
	if av.Status != domain.AvailabilityActive {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("availability is %s, not matchable", av.Status)}
	}

	pool, err := s.requirements.FindOpenByCommodity(ctx, av.CommodityID)
	if err != nil {
		return nil, fmt.Errorf("load requirements: %w", err)
	}

	pairs := make([]pair, 0, len(pool))
	for _, req := range pool {
		if req.BuyerID == av.SellerID {
			continue
		}
		if !s.locations.Compatible(req.DeliveryLocations, req.AllowedDeliveryStates, av.DeliveryLocation.Data()) {
			continue
		}
		pairs = append(pairs, pair{req: req, av: av})
	}

	return s.evaluate(ctx, av.CommodityID, pairs, JobAvailability, av.ID)
}

type pair struct {
	req domain.Requirement
	av  domain.Availability
}

// evaluate scores each surviving pair independently, ranks by final score,
// truncates, and dispatches deduplicated match.found events (or one
// match.rejected when nothing survives).
func (s *MatchService) evaluate(ctx context.Context, commodityID string, pairs []pair, kind JobKind, anchorID uuid.UUID) ([]domain.MatchCandidate, error) {
	commodityCfg := s.configs.ForCommodity(commodityID)

	tid := TraceIDFromContext(ctx)
	logger.Debug("match_evaluate",
		"trace_id", tid,
		"kind", kind,
		"anchor_id", anchorID,
		"commodity", commodityID,
		"candidate_count", len(pairs),
	)

	eligible := make([]domain.MatchCandidate, 0, len(pairs))
	blockedCount := 0
	scoredCount := 0

	for _, p := range pairs {
		assessment, err := s.riskAssessor.AssessTradeRisk(ctx, p.req.BuyerID, p.av.SellerID, commodityID, estimatedTradeValue(p.req, p.av))
		if err != nil {
			return nil, fmt.Errorf("assess trade risk: %w", err)
		}

		candidate := domain.MatchCandidate{
			CommodityID:    commodityID,
			RequirementID:  p.req.ID,
			AvailabilityID: p.av.ID,
			RiskStatus:     assessment.Status,
		}

		// Hard blocks short-circuit scoring entirely.
		if assessment.Blocked() {
			blockedCount++
			candidate.Blocked = true
			candidate.BlockReason = assessment.Blocks[0].Rule
			s.auditBlocked(ctx, candidate, assessment)
			continue
		}

		candidate.Breakdown = ScorePair(p.req, p.av, assessment, commodityCfg, s.cfg, s.locations)
		scoredCount++

		if candidate.Breakdown.Final >= commodityCfg.MinScore {
			candidate.Eligible = true
			eligible = append(eligible, candidate)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Breakdown.Final > eligible[j].Breakdown.Final
	})
	if len(eligible) > s.cfg.MaxResults {
		eligible = eligible[:s.cfg.MaxResults]
	}

	if len(eligible) == 0 {
		s.emitRejected(ctx, commodityID, kind, anchorID, blockedCount, scoredCount)
		return eligible, nil
	}

	for _, c := range eligible {
		if s.detector != nil && s.detector.Suppress(ctx, c.Key()) {
			continue
		}
		s.emitFound(ctx, c)
	}

	return eligible, nil
}

// estimatedTradeValue is the money at risk for this specific pairing: the
// allocatable quantity at the offered price.
func estimatedTradeValue(req domain.Requirement, av domain.Availability) decimal.Decimal {
	qty := req.QuantityPreferred
	if qty.IsZero() {
		qty = req.QuantityMax
	}
	if available := av.AvailableQuantity(); qty.GreaterThan(available) {
		qty = available
	}
	return qty.Mul(av.PricePerUnit)
}

func (s *MatchService) emitFound(ctx context.Context, c domain.MatchCandidate) {
	event := domain.MatchFoundEvent{
		RequirementID:  c.RequirementID,
		AvailabilityID: c.AvailabilityID,
		CommodityID:    c.CommodityID,
		Breakdown:      c.Breakdown,
		RiskStatus:     c.RiskStatus,
	}

	MatchesFoundTotal.Inc()

	if s.bus != nil {
		s.bus.Publish(ctx, domain.TopicMatchFound, event)
	}
	if s.audit != nil {
		if err := s.audit.Append(ctx, domain.TopicMatchFound, event); err != nil {
			logger.Error("audit append failed", "topic", domain.TopicMatchFound, "error", err)
		}
	}
}

func (s *MatchService) emitRejected(ctx context.Context, commodityID string, kind JobKind, anchorID uuid.UUID, blockedCount, scoredCount int) {
	reason := domain.RejectNoCandidates
	switch {
	case blockedCount > 0 && scoredCount == 0:
		reason = domain.RejectBlocked
	case scoredCount > 0:
		reason = domain.RejectBelowThreshold
	}

	event := domain.MatchRejectedEvent{
		CommodityID: commodityID,
		Reason:      reason,
	}
	if kind == JobRequirement {
		event.RequirementID = anchorID
	} else {
		event.AvailabilityID = anchorID
	}

	MatchesRejectedTotal.WithLabelValues(string(reason)).Inc()

	if s.bus != nil {
		s.bus.Publish(ctx, domain.TopicMatchRejected, event)
	}
	if s.audit != nil {
		if err := s.audit.Append(ctx, domain.TopicMatchRejected, event); err != nil {
			logger.Error("audit append failed", "topic", domain.TopicMatchRejected, "error", err)
		}
	}
}

// auditBlocked records the compliance block with full detail in the
// write-only sink. The blocking detail never reaches either party.
func (s *MatchService) auditBlocked(ctx context.Context, c domain.MatchCandidate, assessment domain.RiskAssessment) {
	if s.audit == nil {
		return
	}

	payload := map[string]any{
		"commodity_id":    c.CommodityID,
		"requirement_id":  c.RequirementID,
		"availability_id": c.AvailabilityID,
		"blocks":          assessment.Blocks,
	}
	if err := s.audit.Append(ctx, domain.TopicMatchRejected, payload); err != nil {
		logger.Error("audit append failed", "topic", domain.TopicMatchRejected, "error", err)
	}
}

// ---- Sweep support ----

// RecentUnmatchedJobs lists sweep jobs for recently created, still-open
// requirements and availabilities; it backstops dropped events.
func (s *MatchService) RecentUnmatchedJobs(ctx context.Context, since time.Time) ([]Job, error) {
	reqs, err := s.requirements.FindRecentUnmatched(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("sweep requirements: %w", err)
	}

	avs, err := s.availabilities.FindRecentUnmatched(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("sweep availabilities: %w", err)
	}

	jobs := make([]Job, 0, len(reqs)+len(avs))
	for _, r := range reqs {
		jobs = append(jobs, Job{Kind: JobRequirement, EntityID: r.ID, Priority: PrioritySweep})
	}
	for _, a := range avs {
		jobs = append(jobs, Job{Kind: JobAvailability, EntityID: a.ID, Priority: PrioritySweep})
	}

	return jobs, nil
}

// PartnerJobs lists re-scoring jobs for a partner whose risk status changed.
func (s *MatchService) PartnerJobs(ctx context.Context, partnerID uuid.UUID) ([]Job, error) {
	reqs, err := s.requirements.FindOpenByBuyer(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("open requirements for partner: %w", err)
	}

	avs, err := s.availabilities.FindOpenBySeller(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("open availabilities for partner: %w", err)
	}

	jobs := make([]Job, 0, len(reqs)+len(avs))
	for _, r := range reqs {
		jobs = append(jobs, Job{Kind: JobRequirement, EntityID: r.ID, Priority: PriorityForIntent(r.Intent)})
	}
	for _, a := range avs {
		jobs = append(jobs, Job{Kind: JobAvailability, EntityID: a.ID, Priority: PriorityForIntent("")})
	}

	return jobs, nil
}
