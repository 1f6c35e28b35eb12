//go:build !integration

package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeBackstop struct {
	marked map[string]bool
	err    error
	calls  int
}

func (f *fakeBackstop) MarkOnce(_ context.Context, key string, _ time.Duration) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	if f.marked == nil {
		f.marked = make(map[string]bool)
	}
	if f.marked[key] {
		return false, nil
	}
	f.marked[key] = true
	return true, nil
}

func TestDedupSuppressesInsideWindow(t *testing.T) {
	d := NewDuplicateDetector(5*time.Minute, nil)
	ctx := context.Background()

	assert.False(t, d.Suppress(ctx, "cotton|r1|a1"))
	assert.True(t, d.Suppress(ctx, "cotton|r1|a1"))
	assert.False(t, d.Suppress(ctx, "cotton|r1|a2"))
}

func TestDedupWindowExpires(t *testing.T) {
	d := NewDuplicateDetector(5*time.Minute, nil)

	current := time.Now()
	d.now = func() time.Time { return current }

	ctx := context.Background()
	assert.False(t, d.Suppress(ctx, "k"))

	current = current.Add(4 * time.Minute)
	assert.True(t, d.Suppress(ctx, "k"))

	current = current.Add(6 * time.Minute)
	assert.False(t, d.Suppress(ctx, "k"))
}

func TestDedupBackstopCatchesOtherInstances(t *testing.T) {
	backstop := &fakeBackstop{marked: map[string]bool{"k": true}}
	d := NewDuplicateDetector(5*time.Minute, backstop)

	// unseen locally, already marked by another instance
	assert.True(t, d.Suppress(context.Background(), "k"))
}

func TestDedupBackstopOutageDegradesToMemory(t *testing.T) {
	backstop := &fakeBackstop{err: errors.New("redis down")}
	d := NewDuplicateDetector(5*time.Minute, backstop)
	ctx := context.Background()

	assert.False(t, d.Suppress(ctx, "k"))
	assert.True(t, d.Suppress(ctx, "k"))
	assert.Equal(t, 1, backstop.calls)
}

func TestDedupGarbageCollection(t *testing.T) {
	d := NewDuplicateDetector(time.Minute, nil)

	current := time.Now()
	d.now = func() time.Time { return current }

	ctx := context.Background()
	for i := 0; i < gcThreshold+1; i++ {
		d.Suppress(ctx, time.Duration(i).String())
		current = current.Add(time.Millisecond)
	}

	current = current.Add(2 * time.Minute)
	d.Suppress(ctx, "fresh")

	d.mu.Lock()
	size := len(d.seen)
	d.mu.Unlock()
	assert.LessOrEqual(t, size, gcThreshold)
}
