package matching

import (
	"context"
	"sync"

	"agriMandi/pkg/logger"
)

// Handler consumes one event payload.
type Handler func(ctx context.Context, payload any)

// EventBus is the queue/topic abstraction between the marketplace workflows
// and the match orchestrator. The in-process bus below serves the
// single-binary deployment; a broker-backed implementation can replace it
// without changing component contracts.
type EventBus interface {
	Publish(ctx context.Context, topic string, payload any)
	Subscribe(topic string, handler Handler)
}

type InProcessBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewInProcessBus() *InProcessBus {
	return &InProcessBus{
		handlers: make(map[string][]Handler),
	}
}

func (b *InProcessBus) Subscribe(topic string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
}

// Publish dispatches synchronously; subscribers are expected to do no more
// than enqueue or record.
func (b *InProcessBus) Publish(ctx context.Context, topic string, payload any) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[topic]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("event handler panic", "topic", topic, "panic", r)
				}
			}()
			h(ctx, payload)
		}()
	}
}
