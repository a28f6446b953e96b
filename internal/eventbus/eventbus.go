// Package eventbus fans catalog and compile events out to subscribers.
// Each subscriber gets a buffered channel; publishing never blocks, so a
// slow subscriber drops events rather than stalling the publisher.
package eventbus

import (
	"sync"
	"time"
)

const defaultBufSize = 64

// EventType names what happened.
type EventType string

const (
	EventISRAdded        EventType = "isr_added"
	EventISRDeleted      EventType = "isr_deleted"
	EventRuleAdded       EventType = "rule_added"
	EventRuleDeleted     EventType = "rule_deleted"
	EventCatalogReloaded EventType = "catalog_reloaded"
	EventPolicyCompiled  EventType = "policy_compiled"
)

// Event is one catalog or compile notification.
type Event struct {
	Type   EventType
	Time   time.Time
	ISRID  string
	RuleID string
	Path   string
	Detail string
}

// EventBus implements fan-out pub/sub for events.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
	bufSize     int
}

func New(bufSize int) *EventBus {
	if bufSize <= 0 {
		bufSize = defaultBufSize
	}
	return &EventBus{
		subscribers: make(map[string]chan Event),
		bufSize:     bufSize,
	}
}

// Subscribe creates a new subscription. Returns the channel and an
// unsubscribe function that must be called when done.
func (eb *EventBus) Subscribe(id string) (<-chan Event, func()) {
	ch := make(chan Event, eb.bufSize)

	eb.mu.Lock()
	eb.subscribers[id] = ch
	eb.mu.Unlock()

	unsub := func() {
		eb.mu.Lock()
		delete(eb.subscribers, id)
		close(ch)
		eb.mu.Unlock()
	}
	return ch, unsub
}

// Publish sends an event to all subscribers. Non-blocking: slow
// subscribers will miss events. A zero Time is stamped here.
func (eb *EventBus) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	eb.mu.RLock()
	defer eb.mu.RUnlock()

	for _, ch := range eb.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (eb *EventBus) SubscriberCount() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subscribers)
}
