// Package events fans client events out to the presentation layer. The bus
// is in-process and synchronous; handlers must be fast and must not publish
// from within themselves.
package events

import (
	"sync"
	"time"
)

// Event is one published occurrence.
type Event struct {
	Topic      Topic
	Payload    any
	OccurredAt time.Time
}

// Handler receives published events for a subscribed topic.
type Handler func(Event)

// Bus dispatches events to topic subscribers.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[Topic]map[int]Handler
	// Now is injectable for tests.
	Now func() time.Time
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{
		subs: map[Topic]map[int]Handler{},
		Now:  time.Now,
	}
}

// Subscribe registers a handler for a topic and returns its unsubscribe
// function.
func (b *Bus) Subscribe(topic Topic, h Handler) func() {
	if h == nil {
		return func() {}
	}
	b.mu.Lock()
	id := b.next
	b.next++
	if b.subs[topic] == nil {
		b.subs[topic] = map[int]Handler{}
	}
	b.subs[topic][id] = h
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.subs[topic], id)
		b.mu.Unlock()
	}
}

// Publish delivers the payload to every subscriber of the topic. A nil bus
// drops events so callers can wire it optionally.
func (b *Bus) Publish(topic Topic, payload any) {
	if b == nil {
		return
	}
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[topic]))
	for _, h := range b.subs[topic] {
		handlers = append(handlers, h)
	}
	now := b.Now()
	b.mu.RUnlock()
	ev := Event{Topic: topic, Payload: payload, OccurredAt: now}
	for _, h := range handlers {
		h(ev)
	}
}
