// Package allocation performs atomic, version-checked quantity reservation
// against availabilities.
package allocation

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

var (
	// ErrInsufficientQuantity means nothing is left to allocate; the caller
	// decides whether to retry or abandon.
	ErrInsufficientQuantity = errors.New("insufficient available quantity")

	// ErrConcurrencyConflict means the optimistic version check lost against
	// a concurrent allocation and internal retries were exhausted.
	ErrConcurrencyConflict = errors.New("allocation concurrency conflict")
)

// optimisticRetries bounds the internal re-read-and-retry loop before a
// conflict is surfaced to the caller.
const optimisticRetries = 3

// AvailabilityStore is the concurrency-controlled quantity store.
type AvailabilityStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (domain.Availability, error)

	// ReserveQuantity atomically moves qty from available to reserved iff the
	// version still matches and enough quantity remains. Returns the updated
	// row, ErrConcurrencyConflict on a stale version, or
	// ErrInsufficientQuantity when the quantity check fails.
	ReserveQuantity(ctx context.Context, id uuid.UUID, qty decimal.Decimal, version uint64) (domain.Availability, error)

	// ReleaseQuantity moves qty back from reserved to available.
	ReleaseQuantity(ctx context.Context, id uuid.UUID, qty decimal.Decimal) error
}

type AllocationRepository interface {
	Create(ctx context.Context, record *domain.AllocationRecord) error
	FindExpired(ctx context.Context, now time.Time) ([]domain.AllocationRecord, error)
	MarkReleased(ctx context.Context, id uuid.UUID) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload any)
}

type AuditSink interface {
	Append(ctx context.Context, topic string, payload any) error
}

type Config struct {
	// ReservationTTL is how long a reservation survives before the expiry
	// sweep releases it back to available quantity.
	ReservationTTL time.Duration
	ExpirySweep    time.Duration
}

func DefaultConfig() Config {
	return Config{
		ReservationTTL: 24 * time.Hour,
		ExpirySweep:    time.Minute,
	}
}

type AllocationService struct {
	availabilities AvailabilityStore
	allocations    AllocationRepository
	bus            EventPublisher
	audit          AuditSink
	cfg            Config
}

func NewAllocationService(
	availabilities AvailabilityStore,
	allocations AllocationRepository,
	bus EventPublisher,
	audit AuditSink,
	cfg Config,
) *AllocationService {
	if cfg.ReservationTTL <= 0 {
		cfg.ReservationTTL = DefaultConfig().ReservationTTL
	}
	if cfg.ExpirySweep <= 0 {
		cfg.ExpirySweep = DefaultConfig().ExpirySweep
	}
	return &AllocationService{
		availabilities: availabilities,
		allocations:    allocations,
		bus:            bus,
		audit:          audit,
		cfg:            cfg,
	}
}

// Allocate reserves up to qty units against the availability. Partial
// allocation is granted and reported explicitly, never silently rounded.
// All-or-nothing per attempt: a failed attempt commits no side effects.
func (s *AllocationService) Allocate(ctx context.Context, availabilityID uuid.UUID, qty decimal.Decimal, requesterID uuid.UUID) (domain.AllocationRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.AllocationRecord{}, fmt.Errorf("context error: %w", err)
	}
	if availabilityID == uuid.Nil {
		return domain.AllocationRecord{}, &ValidationError{Field: "availability_id", Reason: "must not be empty"}
	}
	if requesterID == uuid.Nil {
		return domain.AllocationRecord{}, &ValidationError{Field: "requester_id", Reason: "must not be empty"}
	}
	if !qty.IsPositive() {
		return domain.AllocationRecord{}, &ValidationError{Field: "quantity", Reason: "must be positive"}
	}

	// Lost optimistic races are retried internally a few times with a fresh
	// read before the conflict is surfaced.
	var lastErr error
	for attempt := 0; attempt < optimisticRetries; attempt++ {
		av, err := s.availabilities.FindByID(ctx, availabilityID)
		if err != nil {
			return domain.AllocationRecord{}, fmt.Errorf("load availability: %w", err)
		}
		if av.Status != domain.AvailabilityActive && av.Status != domain.AvailabilityReserved {
			return domain.AllocationRecord{}, &ValidationError{Field: "status", Reason: fmt.Sprintf("availability is %s, not allocatable", av.Status)}
		}

		available := av.AvailableQuantity()
		if !available.IsPositive() {
			return domain.AllocationRecord{}, ErrInsufficientQuantity
		}

		grant := qty
		if grant.GreaterThan(available) {
			grant = available
		}

		updated, err := s.availabilities.ReserveQuantity(ctx, availabilityID, grant, av.Version)
		if errors.Is(err, ErrConcurrencyConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return domain.AllocationRecord{}, err
		}

		record := domain.AllocationRecord{
			ID:                 uuid.New(),
			AvailabilityID:     availabilityID,
			RequesterID:        requesterID,
			Quantity:           grant,
			Partial:            grant.LessThan(qty),
			RequestedQuantity:  qty,
			RemainingAvailable: updated.AvailableQuantity(),
			Version:            updated.Version,
			Status:             domain.AllocationReserved,
			ExpiresAt:          time.Now().Add(s.cfg.ReservationTTL),
		}

		if err := s.allocations.Create(ctx, &record); err != nil {
			// Roll the reservation back so a bookkeeping failure leaves no
			// partial side effects.
			if relErr := s.availabilities.ReleaseQuantity(ctx, availabilityID, grant); relErr != nil {
				logger.Error("allocation rollback failed",
					"availability_id", availabilityID,
					"quantity", grant,
					"error", relErr,
				)
			}
			return domain.AllocationRecord{}, fmt.Errorf("persist allocation: %w", err)
		}

		AllocationsTotal.WithLabelValues("ok").Inc()
		s.emitAllocated(ctx, record)

		return record, nil
	}

	AllocationsTotal.WithLabelValues("conflict").Inc()

	return domain.AllocationRecord{}, fmt.Errorf("allocate availability %s: %w", availabilityID, lastErr)
}

func (s *AllocationService) emitAllocated(ctx context.Context, record domain.AllocationRecord) {
	event := domain.MatchAllocatedEvent{Allocation: record}

	if s.bus != nil {
		s.bus.Publish(ctx, domain.TopicMatchAllocated, event)
	}
	if s.audit != nil {
		if err := s.audit.Append(ctx, domain.TopicMatchAllocated, event); err != nil {
			logger.Error("audit append failed", "topic", domain.TopicMatchAllocated, "error", err)
		}
	}
}

// StartExpirySweep releases reservations that were never converted to a
// completed trade. Blocks until the context is cancelled.
func (s *AllocationService) StartExpirySweep(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ExpirySweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.releaseExpired(ctx)
		}
	}
}

func (s *AllocationService) releaseExpired(ctx context.Context) {
	expired, err := s.allocations.FindExpired(ctx, time.Now())
	if err != nil {
		logger.Error("expiry sweep query failed", "error", err)
		return
	}

	for _, record := range expired {
		if err := s.availabilities.ReleaseQuantity(ctx, record.AvailabilityID, record.Quantity); err != nil {
			logger.Error("release expired reservation failed",
				"allocation_id", record.ID,
				"availability_id", record.AvailabilityID,
				"error", err,
			)
			continue
		}
		if err := s.allocations.MarkReleased(ctx, record.ID); err != nil {
			logger.Error("mark allocation released failed", "allocation_id", record.ID, "error", err)
			continue
		}

		AllocationsReleasedTotal.Inc()
		logger.Info("reservation expired and released",
			"allocation_id", record.ID,
			"availability_id", record.AvailabilityID,
			"quantity", record.Quantity,
		)
	}
}
