// Package events fans market activity out to WebSocket clients and, when
// configured, to other instances through Redis.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Event is the envelope every subscriber receives
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Publisher delivers events to subscribers. Delivery is best effort:
// Publish never blocks on slow subscribers and never fails the caller.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data interface{})
}

// Encode builds the wire form of an event
func Encode(eventType string, data interface{}) ([]byte, error) {
	return json.Marshal(Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// Multi publishes to every publisher in order
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, eventType string, data interface{}) {
	for _, p := range m {
		p.Publish(ctx, eventType, data)
	}
}

// Nop discards events
type Nop struct{}

func (Nop) Publish(context.Context, string, interface{}) {}
