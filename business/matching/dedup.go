package matching

import (
	"context"
	"sync"
	"time"

	"agriMandi/pkg/logger"
)

// gcThreshold bounds the in-memory key set; expired entries are swept once
// it is crossed.
const gcThreshold = 4096

// DedupBackstop is the persisted layer behind the in-memory window (redis
// SETNX with TTL). MarkOnce returns true on the first sighting of the key
// within the TTL.
type DedupBackstop interface {
	MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// DuplicateDetector suppresses re-emission of a candidate pair key within a
// sliding window. Legitimate re-evaluation resumes once the window elapses.
type DuplicateDetector struct {
	mu       sync.Mutex
	seen     map[string]time.Time
	window   time.Duration
	backstop DedupBackstop

	now func() time.Time
}

func NewDuplicateDetector(window time.Duration, backstop DedupBackstop) *DuplicateDetector {
	if window <= 0 {
		window = defaultDedupWindow
	}
	return &DuplicateDetector{
		seen:     make(map[string]time.Time),
		window:   window,
		backstop: backstop,
		now:      time.Now,
	}
}

// Suppress marks the key as emitted and reports whether it had already been
// emitted inside the window.
func (d *DuplicateDetector) Suppress(ctx context.Context, key string) bool {
	now := d.now()

	d.mu.Lock()
	if at, ok := d.seen[key]; ok && now.Sub(at) < d.window {
		d.mu.Unlock()
		return true
	}
	d.seen[key] = now
	if len(d.seen) > gcThreshold {
		d.gcLocked(now)
	}
	d.mu.Unlock()

	if d.backstop == nil {
		return false
	}

	first, err := d.backstop.MarkOnce(ctx, key, d.window)
	if err != nil {
		// Backstop outage degrades to memory-only dedup.
		logger.Warn("dedup backstop unavailable", "error", err)
		return false
	}

	return !first
}

func (d *DuplicateDetector) gcLocked(now time.Time) {
	for key, at := range d.seen {
		if now.Sub(at) >= d.window {
			delete(d.seen, key)
		}
	}
}
