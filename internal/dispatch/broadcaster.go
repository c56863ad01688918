package dispatch

import (
	"sync"
	"sync/atomic"
)

type Topic string

const (
	TopicIncidentUpdated     Topic = "incident_updated"
	TopicNewIncident         Topic = "new_incident"
	TopicClusterUpdated      Topic = "cluster_updated"
	TopicVerificationUpdated Topic = "verification_updated"
	TopicUserNotification    Topic = "user_notification"
)

// Event is one published update. Targeted events carry the observer id they
// are addressed to; broadcast events leave it empty.
type Event struct {
	Topic      Topic  `json:"topic"`
	ObserverID string `json:"observer_id,omitempty"`
	Payload    any    `json:"payload"`
}

type subscriber struct {
	ch         chan Event
	observerID string
}

// Broadcaster fans events out to all current subscribers. Delivery is
// best-effort: a subscriber whose buffer is full misses the event rather
// than blocking the publisher.
type Broadcaster struct {
	subscribers map[uint64]subscriber
	nextID      atomic.Uint64
	mu          sync.RWMutex
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]subscriber),
	}
}

// Subscribe registers an observer on the default channel. The observerID
// may be empty for anonymous listeners; targeted events only reach
// subscribers registered under the matching observer id.
func (b *Broadcaster) Subscribe(observerID string) (uint64, chan Event) {
	id := b.nextID.Add(1)
	ch := make(chan Event, 100) // Buffer for a full monitoring pass

	b.mu.Lock()
	b.subscribers[id] = subscriber{ch: ch, observerID: observerID}
	b.mu.Unlock()

	return id, ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	if sub, ok := b.subscribers[id]; ok {
		close(sub.ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

// Publish broadcasts the event to every subscriber.
func (b *Broadcaster) Publish(topic Topic, payload any) {
	evt := Event{Topic: topic, Payload: payload}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		select {
		case sub.ch <- evt:
		default:
			// Skip slow subscribers
		}
	}
}

// SendToObserver delivers a targeted event to the subscribers registered
// under observerID. A disconnected observer is silently skipped.
func (b *Broadcaster) SendToObserver(observerID string, topic Topic, payload any) {
	evt := Event{Topic: topic, ObserverID: observerID, Payload: payload}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		if sub.observerID != observerID {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
		}
	}
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes all subscriber channels, causing attached streams to exit.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, sub := range b.subscribers {
		close(sub.ch)
		delete(b.subscribers, id)
	}
}
