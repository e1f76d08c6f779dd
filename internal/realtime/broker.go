// Package realtime fans out chat messages and notifications to connected clients.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
)

// Event is one message delivered to subscribers of a topic
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NewEvent encodes data into an event
func NewEvent(eventType string, data interface{}) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Data: raw}, nil
}

// Broker publishes events to topics and lets clients subscribe to them
type Broker interface {
	Publish(ctx context.Context, topic string, event Event) error
	Subscribe(topic string) (<-chan Event, func())
	Close() error
}

// Topic names
func ConversationTopic(conversationID string) string {
	return "conversation:" + conversationID
}

func UserTopic(userID string) string {
	return "user:" + userID
}

const subscriberBuffer = 16

// Hub is an in-process broker. Slow subscribers miss events rather than block publishers.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[chan Event]struct{}
	closed bool
}

var _ Broker = (*Hub)(nil)

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{topics: make(map[string]map[chan Event]struct{})}
}

// Publish delivers the event to current subscribers of topic
func (h *Hub) Publish(ctx context.Context, topic string, event Event) error {
	h.deliver(topic, event)
	return nil
}

func (h *Hub) deliver(topic string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.topics[topic] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe returns a channel of events and a function that ends the subscription
func (h *Hub) Subscribe(topic string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[chan Event]struct{})
	}
	h.topics[topic][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if subs, ok := h.topics[topic]; ok {
				if _, ok := subs[ch]; ok {
					delete(subs, ch)
					close(ch)
				}
				if len(subs) == 0 {
					delete(h.topics, topic)
				}
			}
		})
	}
}

// Subscribers returns the number of subscribers on a topic
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Close ends every subscription
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for topic, subs := range h.topics {
		for ch := range subs {
			close(ch)
		}
		delete(h.topics, topic)
	}
	return nil
}
