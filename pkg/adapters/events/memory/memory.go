package memory

import (
	"context"
	"sync"

	"github.com/swellproject/swell/internal/domain"
	"github.com/swellproject/swell/internal/ports"
)

// EventBus implements ports.EventBus with in-process handlers. It is the
// default bus for single-process deployments and tests.
type EventBus struct {
	subscribers map[string][]ports.EventHandler
	mu          sync.RWMutex
	closed      bool
}

// NewEventBus creates an in-memory event bus.
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string][]ports.EventHandler),
	}
}

// Publish delivers an event to all subscribers of a topic. Handlers run
// asynchronously; handler errors are dropped.
func (e *EventBus) Publish(ctx context.Context, topic string, event domain.Event) error {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil
	}
	handlers := make([]ports.EventHandler, len(e.subscribers[topic]))
	copy(handlers, e.subscribers[topic])
	e.mu.RUnlock()

	for _, handler := range handlers {
		go func(h ports.EventHandler) {
			_ = h(ctx, event)
		}(handler)
	}

	return nil
}

// Subscribe registers a handler for a topic until the bus closes.
func (e *EventBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.subscribers[topic] = append(e.subscribers[topic], handler)
	return nil
}

// Close drops all subscriptions.
func (e *EventBus) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	e.subscribers = make(map[string][]ports.EventHandler)
	return nil
}
