package events

import (
	"context"
	"sync"
)

// Handler handles a published event.
type Handler func(context.Context, Event)

// Dispatcher is an explicit publish/subscribe channel owned by the
// composition root. Subscriptions are scoped: Subscribe hands back a cancel
// function the owning component must call on teardown, so the listener list
// never grows without bound.
type Dispatcher interface {
	Publish(ctx context.Context, event Event)
	Subscribe(eventType EventType, handler Handler) (cancel func())
}

// inMemoryDispatcher is a simple synchronous dispatcher.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[EventType]map[int]Handler
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[EventType]map[int]Handler),
	}
}

// Publish synchronously invokes handlers for the given event.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) {
	d.mu.RLock()
	handlers := make([]Handler, 0, len(d.listeners[event.Type]))
	for _, handler := range d.listeners[event.Type] {
		handlers = append(handlers, handler)
	}
	d.mu.RUnlock()

	for _, handler := range handlers {
		handler(ctx, event)
	}
}

// Subscribe registers a handler for the given event type and returns its
// cancel function.
func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler Handler) (cancel func()) {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	if d.listeners[eventType] == nil {
		d.listeners[eventType] = make(map[int]Handler)
	}
	d.listeners[eventType][id] = handler
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.listeners[eventType], id)
		d.mu.Unlock()
	}
}
