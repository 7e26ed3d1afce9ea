package core

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xonecas/zoea-discovery/internal/constants"
)

// EventBus distributes activity events to subscribers.
type EventBus struct {
	mu          sync.RWMutex
	subscribers []chan Event
	bufferSize  int
	dropped     atomic.Int64
}

// NewEventBus creates a new event bus.
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize < constants.MinEventBusBufferSize {
		bufferSize = constants.MinEventBusBufferSize
	}
	return &EventBus{
		bufferSize: bufferSize,
	}
}

// Subscribe returns a channel that receives events.
// The caller is responsible for reading from the channel to avoid blocking.
func (b *EventBus) Subscribe() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.bufferSize)
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscriber channel.
func (b *EventBus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subscribers {
		if sub == ch {
			close(sub)
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			return
		}
	}
}

// Publish sends an event to all subscribers.
// Non-blocking: drops events if a subscriber's buffer is full.
func (b *EventBus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			b.drop(event)
		}
	}
}

// PublishBlocking sends an event to all subscribers, waiting up to timeout
// for buffer space. It reports whether every subscriber received the event.
// Used for events a dashboard must not miss, such as deactivation.
func (b *EventBus) PublishBlocking(event Event, timeout time.Duration) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	delivered := true
	for _, ch := range b.subscribers {
		if !delivered {
			select {
			case ch <- event:
			default:
				b.drop(event)
			}
			continue
		}
		select {
		case ch <- event:
		case <-timer.C:
			delivered = false
			b.drop(event)
		}
	}
	return delivered
}

// Dropped returns how many deliveries were skipped because a buffer was full.
func (b *EventBus) Dropped() int64 {
	return b.dropped.Load()
}

func (b *EventBus) drop(event Event) {
	n := b.dropped.Add(1)
	log.Debug().Str("type", string(event.Type)).Str("activity", event.Activity).Int64("dropped", n).Msg("Event dropped, subscriber buffer full")
}

// Close closes all subscriber channels.
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subscribers {
		close(ch)
	}
	b.subscribers = nil
}
