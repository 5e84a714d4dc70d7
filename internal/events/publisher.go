// Package events provides in-process publishing of highlight engine
// notifications: buffer attach/detach, span updates, cache writes, and
// background rebuilds.
package events

import (
	"errors"
	"sync"
	"time"
)

// EventType identifies a kind of engine notification.
type EventType string

const (
	EventBufferAttached    EventType = "buffer_attached"
	EventBufferDetached    EventType = "buffer_detached"
	EventSpansUpdated      EventType = "spans_updated"
	EventBackgroundRebuilt EventType = "background_rebuilt"
	EventCacheSaved        EventType = "cache_saved"
)

// Event is one engine notification.
type Event struct {
	// ID uniquely identifies the event.
	ID string

	// Type is the notification kind.
	Type EventType

	// Buffer is the buffer the event concerns; -1 for process-wide
	// events such as cache writes.
	Buffer int

	// AttachID is the attachment identity of the buffer state, when
	// one exists.
	AttachID string

	// SpanCount carries the live span count for span updates.
	SpanCount int

	// Time is when the event was published.
	Time time.Time
}

// Handler is a callback invoked when an event matches a subscription.
type Handler func(event Event)

// Filter defines criteria for matching events.
type Filter struct {
	// Types filters by event type (nil = all types).
	Types []EventType

	// Buffer filters to one buffer (nil = all buffers).
	Buffer *int
}

// Matches returns true if the event matches the filter criteria.
func (f *Filter) Matches(event Event) bool {
	if len(f.Types) > 0 {
		matched := false
		for _, t := range f.Types {
			if event.Type == t {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if f.Buffer != nil && event.Buffer != *f.Buffer {
		return false
	}
	return true
}

var (
	ErrInvalidSubscriptionID = errors.New("events: subscription id must not be empty")
	ErrNilHandler            = errors.New("events: handler must not be nil")
	ErrSubscriptionExists    = errors.New("events: subscription id already registered")
	ErrSubscriptionNotFound  = errors.New("events: subscription not found")
)

// subscription represents an active event subscription.
type subscription struct {
	id      string
	filter  Filter
	handler Handler
}

// Publisher is an in-process pub/sub hub for engine events.
type Publisher struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
}

// NewPublisher creates an empty publisher.
func NewPublisher() *Publisher {
	return &Publisher{subscriptions: make(map[string]*subscription)}
}

// Publish sends an event to all matching subscribers.
func (p *Publisher) Publish(event Event) {
	// Collect matching handlers under the read lock, invoke outside
	// it to avoid deadlocks with subscribers that publish.
	p.mu.RLock()
	var handlers []Handler
	for _, sub := range p.subscriptions {
		if sub.filter.Matches(event) {
			handlers = append(handlers, sub.handler)
		}
	}
	p.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

// Subscribe registers a handler to receive events matching the filter.
func (p *Publisher) Subscribe(id string, filter Filter, handler Handler) error {
	if id == "" {
		return ErrInvalidSubscriptionID
	}
	if handler == nil {
		return ErrNilHandler
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.subscriptions[id]; exists {
		return ErrSubscriptionExists
	}
	p.subscriptions[id] = &subscription{id: id, filter: filter, handler: handler}
	return nil
}

// Unsubscribe removes a subscription by ID.
func (p *Publisher) Unsubscribe(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.subscriptions[id]; !exists {
		return ErrSubscriptionNotFound
	}
	delete(p.subscriptions, id)
	return nil
}

// SubscriberCount returns the number of active subscribers.
func (p *Publisher) SubscriberCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subscriptions)
}

// Close removes all subscriptions.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscriptions = make(map[string]*subscription)
}
