package matching

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"agriMandi/domain"

	"github.com/google/uuid"
)

type JobKind string

const (
	JobRequirement  JobKind = "requirement"
	JobAvailability JobKind = "availability"
)

// Job is one unit of match-discovery work.
type Job struct {
	Kind     JobKind
	EntityID uuid.UUID
	Priority int
	Attempts int

	EnqueuedAt time.Time
	seq        uint64
}

// PriorityForIntent derives queue priority from the buyer's urgency:
// direct-buy ahead of negotiation ahead of auction ahead of price-discovery.
func PriorityForIntent(intent domain.BuyIntent) int {
	switch intent {
	case domain.IntentDirectBuy:
		return 40
	case domain.IntentNegotiation:
		return 30
	case domain.IntentAuction:
		return 20
	default:
		return 10
	}
}

// PrioritySweep is below every event-driven priority so backlog repair never
// starves fresh work.
const PrioritySweep = 0

// PriorityQueue is a bounded, concurrency-safe max-priority queue. Push never
// blocks: a full queue drops the job with ErrQueueOverload and the safety
// sweep picks the entity up later.
type PriorityQueue struct {
	mu     sync.Mutex
	items  jobHeap
	seq    uint64
	closed bool

	capacity int
	tokens   chan struct{}
	done     chan struct{}
}

func NewPriorityQueue(capacity int) *PriorityQueue {
	if capacity <= 0 {
		capacity = defaultQueueCapacity
	}
	return &PriorityQueue{
		capacity: capacity,
		tokens:   make(chan struct{}, capacity),
		done:     make(chan struct{}),
	}
}

func (q *PriorityQueue) Push(job Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	if q.items.Len() >= q.capacity {
		q.mu.Unlock()
		return ErrQueueOverload
	}

	job.seq = q.seq
	q.seq++
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now()
	}
	heap.Push(&q.items, job)
	q.mu.Unlock()

	// cannot block: token count never exceeds item count <= capacity
	q.tokens <- struct{}{}

	return nil
}

// Pop blocks until work is available, the context is cancelled, or the queue
// is closed. A closed queue wins over pending work: leftover jobs are
// abandoned and recovered by the safety sweep.
func (q *PriorityQueue) Pop(ctx context.Context) (Job, bool) {
	select {
	case <-q.done:
		return Job{}, false
	default:
	}

	select {
	case <-ctx.Done():
		return Job{}, false
	case <-q.done:
		return Job{}, false
	case <-q.tokens:
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.items.Len() == 0 {
		return Job{}, false
	}

	return heap.Pop(&q.items).(Job), true
}

func (q *PriorityQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

func (q *PriorityQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

// jobHeap orders by priority descending, then FIFO within a priority.
type jobHeap []Job

func (h jobHeap) Len() int { return len(h) }

func (h jobHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].seq < h[j].seq
}

func (h jobHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *jobHeap) Push(x any) { *h = append(*h, x.(Job)) }

func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
