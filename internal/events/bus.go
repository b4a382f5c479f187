package events

import (
	"sync"
	"time"
)

// Handler processes a single event. Handlers must not block: the bus
// dispatches on a single goroutine and a slow handler delays all others.
type Handler func(Event)

// Bus provides event distribution across components.
// Emit is safe for concurrent use; handlers run on the bus goroutine
// in subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler

	events chan Event
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

// NewBus creates a new event bus with the specified channel capacity
// and starts its dispatch loop.
func NewBus(capacity int) *Bus {
	b := &Bus{
		events: make(chan Event, capacity),
		done:   make(chan struct{}),
	}
	b.wg.Add(1)
	go b.dispatch()
	return b
}

// Subscribe registers a handler for all subsequent events.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Emit publishes an event to all subscribers. The event's Time is set
// here if the caller left it zero. Emit drops the event if the bus is
// already closed.
func (b *Bus) Emit(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	select {
	case <-b.done:
	case b.events <- e:
	}
}

// Close shuts down the event bus after draining queued events.
func (b *Bus) Close() error {
	b.once.Do(func() {
		close(b.done)
	})
	b.wg.Wait()
	return nil
}

func (b *Bus) dispatch() {
	defer b.wg.Done()
	for {
		select {
		case e := <-b.events:
			b.deliver(e)
		case <-b.done:
			// Drain anything queued before Close.
			for {
				select {
				case e := <-b.events:
					b.deliver(e)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) deliver(e Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}
