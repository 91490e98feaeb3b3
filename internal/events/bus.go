// Package events provides the process-wide notification bus the token
// manager publishes on. The core only publishes; consumers (UI, store
// layers) subscribe and react.
package events

import (
	"sync"
	"time"
)

// Topics the core publishes.
const (
	// TopicAuthError signals an irrecoverable refresh failure. Subscribers
	// should force re-authentication.
	TopicAuthError = "auth-error"

	// TopicLogout signals an explicit logout completed.
	TopicLogout = "logout"
)

// Event is one published notification.
type Event struct {
	Topic     string
	Reason    string
	Timestamp time.Time
}

// Bus is a topic-based publish/subscribe fan-out. Publish never blocks:
// when a subscriber's channel is full the event is dropped for that
// subscriber rather than stalling the publisher.
type Bus struct {
	mu   sync.Mutex
	subs map[string][]chan Event
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string][]chan Event)}
}

// Subscribe registers interest in a topic and returns the delivery channel
// plus a cancel function that removes the subscription and closes the
// channel. Buffer must be at least 1 so a slow consumer does not lose the
// first event.
func (b *Bus) Subscribe(topic string, buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], ch)
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		channels := b.subs[topic]
		for i, c := range channels {
			if c == ch {
				b.subs[topic] = append(channels[:i], channels[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of its topic, dropping it
// for any subscriber whose buffer is full.
func (b *Bus) Publish(topic, reason string) {
	ev := Event{Topic: topic, Reason: reason, Timestamp: time.Now()}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[topic] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close removes every subscription and closes all delivery channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for topic, channels := range b.subs {
		for _, ch := range channels {
			close(ch)
		}
		delete(b.subs, topic)
	}
}
