package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// EventHandler consumes one event. A returned error is reported back to the
// publisher but never blocks delivery to the other handlers.
type EventHandler func(context.Context, Event) error

// Dispatcher is what services publish to and workers subscribe on.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// Bus delivers events in-process, synchronously and in subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]EventHandler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[EventType][]EventHandler)}
}

func (b *Bus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := b.handlers[event.Type]
	b.mu.RUnlock()

	var errs []error
	for i, handler := range handlers {
		if err := deliver(ctx, handler, event); err != nil {
			errs = append(errs, fmt.Errorf("%s handler %d: %w", event.Type, i, err))
		}
	}
	return errors.Join(errs...)
}

// deliver keeps a panicking subscriber from taking the publishing request
// down with it.
func deliver(ctx context.Context, handler EventHandler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return handler(ctx, event)
}

func (b *Bus) Subscribe(eventType EventType, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	// copy-on-write so Publish can iterate its snapshot without the lock
	next := make([]EventHandler, len(b.handlers[eventType]), len(b.handlers[eventType])+1)
	copy(next, b.handlers[eventType])
	b.handlers[eventType] = append(next, handler)
}

// Subscribers reports how many handlers listen for eventType.
func (b *Bus) Subscribers(eventType EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}
