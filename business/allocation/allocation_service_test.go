//go:build !integration

package allocation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"agriMandi/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore mimics the postgres conditional-update semantics in memory:
// the reserve only lands when the version still matches.
type memStore struct {
	mu sync.Mutex
	av domain.Availability

	findErr      error
	conflictHits int
	releases     []decimal.Decimal
}

func (m *memStore) FindByID(context.Context, uuid.UUID) (domain.Availability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return domain.Availability{}, m.findErr
	}
	return m.av, nil
}

func (m *memStore) ReserveQuantity(_ context.Context, _ uuid.UUID, qty decimal.Decimal, version uint64) (domain.Availability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conflictHits > 0 {
		m.conflictHits--
		m.av.Version++
		return domain.Availability{}, ErrConcurrencyConflict
	}
	if version != m.av.Version {
		return domain.Availability{}, ErrConcurrencyConflict
	}
	if qty.GreaterThan(m.av.AvailableQuantity()) {
		return domain.Availability{}, ErrInsufficientQuantity
	}

	m.av.QuantityReserved = m.av.QuantityReserved.Add(qty)
	m.av.Version++
	if m.av.AvailableQuantity().IsZero() {
		m.av.Status = domain.AvailabilityReserved
	}
	return m.av, nil
}

func (m *memStore) ReleaseQuantity(_ context.Context, _ uuid.UUID, qty decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.av.QuantityReserved = m.av.QuantityReserved.Sub(qty)
	m.releases = append(m.releases, qty)
	return nil
}

type memAllocations struct {
	mu      sync.Mutex
	records []domain.AllocationRecord

	createErr error
	expired   []domain.AllocationRecord
	released  []uuid.UUID
}

func (m *memAllocations) Create(_ context.Context, record *domain.AllocationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.records = append(m.records, *record)
	return nil
}

func (m *memAllocations) FindExpired(context.Context, time.Time) ([]domain.AllocationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expired, nil
}

func (m *memAllocations) MarkReleased(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = append(m.released, id)
	return nil
}

type capturingBus struct {
	mu     sync.Mutex
	topics []string
}

func (b *capturingBus) Publish(_ context.Context, topic string, _ any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics = append(b.topics, topic)
}

type nopAudit struct{}

func (nopAudit) Append(context.Context, string, any) error { return nil }

func activeAvailability(total int64) domain.Availability {
	return domain.Availability{
		ID:            uuid.New(),
		SellerID:      uuid.New(),
		CommodityID:   "cotton",
		QuantityTotal: decimal.NewFromInt(total),
		PricePerUnit:  decimal.NewFromInt(4800),
		Status:        domain.AvailabilityActive,
	}
}

func newAllocationFixture(total int64) (*AllocationService, *memStore, *memAllocations, *capturingBus) {
	store := &memStore{av: activeAvailability(total)}
	allocs := &memAllocations{}
	bus := &capturingBus{}
	svc := NewAllocationService(store, allocs, bus, nopAudit{}, DefaultConfig())
	return svc, store, allocs, bus
}

func TestAllocateFullGrant(t *testing.T) {
	svc, store, allocs, bus := newAllocationFixture(100)

	record, err := svc.Allocate(context.Background(), store.av.ID, decimal.NewFromInt(60), uuid.New())
	require.NoError(t, err)

	assert.False(t, record.Partial)
	assert.True(t, record.Quantity.Equal(decimal.NewFromInt(60)))
	assert.True(t, record.RemainingAvailable.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, domain.AllocationReserved, record.Status)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), record.ExpiresAt, time.Minute)

	require.Len(t, allocs.records, 1)
	assert.Equal(t, []string{domain.TopicMatchAllocated}, bus.topics)
}

func TestAllocatePartialGrantIsExplicit(t *testing.T) {
	svc, store, _, _ := newAllocationFixture(30)

	record, err := svc.Allocate(context.Background(), store.av.ID, decimal.NewFromInt(100), uuid.New())
	require.NoError(t, err)

	assert.True(t, record.Partial)
	assert.True(t, record.Quantity.Equal(decimal.NewFromInt(30)))
	assert.True(t, record.RequestedQuantity.Equal(decimal.NewFromInt(100)))
	assert.True(t, record.RemainingAvailable.IsZero())

	// fully reserved stock flips the availability out of ACTIVE
	assert.Equal(t, domain.AvailabilityReserved, store.av.Status)
}

func TestAllocateNothingLeft(t *testing.T) {
	svc, store, _, _ := newAllocationFixture(50)
	store.av.QuantityReserved = decimal.NewFromInt(50)
	store.av.Status = domain.AvailabilityReserved

	_, err := svc.Allocate(context.Background(), store.av.ID, decimal.NewFromInt(10), uuid.New())
	assert.ErrorIs(t, err, ErrInsufficientQuantity)
}

func TestAllocateRetriesLostRace(t *testing.T) {
	svc, store, _, _ := newAllocationFixture(100)
	store.conflictHits = 2

	record, err := svc.Allocate(context.Background(), store.av.ID, decimal.NewFromInt(10), uuid.New())
	require.NoError(t, err)
	assert.True(t, record.Quantity.Equal(decimal.NewFromInt(10)))
}

func TestAllocateSurfacesConflictAfterRetries(t *testing.T) {
	svc, store, _, _ := newAllocationFixture(100)
	store.conflictHits = optimisticRetries

	_, err := svc.Allocate(context.Background(), store.av.ID, decimal.NewFromInt(10), uuid.New())
	assert.ErrorIs(t, err, ErrConcurrencyConflict)
}

func TestAllocateRollsBackWhenBookkeepingFails(t *testing.T) {
	svc, store, allocs, bus := newAllocationFixture(100)
	allocs.createErr = errors.New("insert failed")

	_, err := svc.Allocate(context.Background(), store.av.ID, decimal.NewFromInt(25), uuid.New())
	require.Error(t, err)

	require.Len(t, store.releases, 1)
	assert.True(t, store.releases[0].Equal(decimal.NewFromInt(25)))
	assert.True(t, store.av.QuantityReserved.IsZero())
	assert.Empty(t, bus.topics)
}

func TestAllocateInputValidation(t *testing.T) {
	svc, store, _, _ := newAllocationFixture(100)
	ctx := context.Background()

	_, err := svc.Allocate(ctx, uuid.Nil, decimal.NewFromInt(10), uuid.New())
	assert.True(t, IsValidationError(err))

	_, err = svc.Allocate(ctx, store.av.ID, decimal.NewFromInt(10), uuid.Nil)
	assert.True(t, IsValidationError(err))

	_, err = svc.Allocate(ctx, store.av.ID, decimal.Zero, uuid.New())
	assert.True(t, IsValidationError(err))

	store.av.Status = domain.AvailabilityCancelled
	_, err = svc.Allocate(ctx, store.av.ID, decimal.NewFromInt(10), uuid.New())
	assert.True(t, IsValidationError(err))
}

func TestConcurrentAllocationsNeverOversell(t *testing.T) {
	svc, store, allocs, _ := newAllocationFixture(100)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Allocate(context.Background(), store.av.ID, decimal.NewFromInt(10), uuid.New())
		}()
	}
	wg.Wait()

	granted := decimal.Zero
	for _, r := range allocs.records {
		granted = granted.Add(r.Quantity)
	}

	assert.True(t, granted.LessThanOrEqual(decimal.NewFromInt(100)), "granted %s", granted)
	assert.True(t, store.av.QuantityReserved.Equal(granted))
	assert.True(t, store.av.AvailableQuantity().GreaterThanOrEqual(decimal.Zero))
}

func TestReleaseExpiredReservations(t *testing.T) {
	svc, store, allocs, _ := newAllocationFixture(100)
	store.av.QuantityReserved = decimal.NewFromInt(40)

	expired := domain.AllocationRecord{
		ID:             uuid.New(),
		AvailabilityID: store.av.ID,
		Quantity:       decimal.NewFromInt(40),
		Status:         domain.AllocationReserved,
		ExpiresAt:      time.Now().Add(-time.Hour),
	}
	allocs.expired = []domain.AllocationRecord{expired}

	svc.releaseExpired(context.Background())

	assert.True(t, store.av.QuantityReserved.IsZero())
	require.Len(t, allocs.released, 1)
	assert.Equal(t, expired.ID, allocs.released[0])
}
