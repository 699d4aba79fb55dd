package pubsub

import (
	"context"
	"encoding/json"
	"time"
)

// Topics published by the status server
const (
	TopicBuildStatus = "build_status"
	TopicPhase       = "phase"
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // e.g. "build_status", "phase"
	Type    string          `json:"type"`    // e.g. "started", "succeeded", "failed"
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Per-topic sequence number
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	Topic() string
	// Events delivers published events; it is closed when the publisher shuts down
	Events() <-chan Event
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic.
	// Context cancellation closes the subscription.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data interface{}) error

	Close() error
}

// BuildStatus is the payload of build_status events
type BuildStatus struct {
	State   string    `json:"state"`   // building, succeeded, failed
	Reason  string    `json:"reason"`  // why the build was started
	Message string    `json:"message"` // human-readable status
	Time    time.Time `json:"time"`
}

// PhaseStatus is the payload of phase events
type PhaseStatus struct {
	Name       string `json:"name"`
	Outcome    string `json:"outcome,omitempty"` // empty while running
	Step       int    `json:"step"`              // 1-based
	Total      int    `json:"total"`
	DurationMs int64  `json:"durationMs,omitempty"`
	Error      string `json:"error,omitempty"`
}
