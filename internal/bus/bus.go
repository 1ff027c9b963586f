// Package bus provides event bus implementations for search events.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Handler is a function that handles events.
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for event bus implementations.
type Bus interface {
	// Publish publishes an event to a topic.
	Publish(ctx context.Context, topic string, event Event) error

	// Subscribe subscribes to events on a topic.
	Subscribe(ctx context.Context, topic string, handler Handler) error

	// Close closes the bus and releases resources.
	Close() error
}

// Event represents a bus event.
type Event struct {
	// ID is the unique event identifier.
	ID string `json:"id"`

	// Type is the event type (e.g., "search.performed").
	Type string `json:"type"`

	// Source is the service that generated the event.
	Source string `json:"source"`

	// Timestamp is when the event was created, in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`

	// CorrelationID links the event to the HTTP request that caused it.
	CorrelationID string `json:"correlation_id,omitempty"`

	// Payload contains the event data.
	Payload any `json:"payload"`
}

// Topics for different event types.
const (
	// TopicSearchPerformed carries a SearchPerformed payload after every
	// served search.
	TopicSearchPerformed = "search.performed"

	// TopicContentReloaded carries a ContentReloaded payload after the
	// server swaps in a changed content directory.
	TopicContentReloaded = "content.reloaded"
)

// NewEvent builds an event with a fresh ID and the current time.
func NewEvent(eventType, source, correlationID string, payload any) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UnixMilli(),
		CorrelationID: correlationID,
		Payload:       payload,
	}
}

// SearchPerformed describes one served search.
type SearchPerformed struct {
	Query          string `json:"query"`
	Intent         string `json:"intent"`
	ExtractedQuery string `json:"extracted_query,omitempty"`

	// SmartCard is the card type, empty when no card was built.
	SmartCard   string `json:"smart_card,omitempty"`
	ResultCount int    `json:"result_count"`
	LatencyMs   int64  `json:"latency_ms"`
}

// ContentReloaded describes the collections now being served.
type ContentReloaded struct {
	Fingerprint  string `json:"fingerprint"`
	Vocabulary   int    `json:"vocabulary"`
	Verbs        int    `json:"verbs"`
	Conjugations int    `json:"conjugations"`
	Grammar      int    `json:"grammar"`
}

// DecodePayload fills v from the event payload. In-process buses deliver
// the original value; Kafka delivers decoded JSON, so both are handled.
func DecodePayload(event Event, v any) error {
	if sp, ok := v.(*SearchPerformed); ok {
		switch p := event.Payload.(type) {
		case SearchPerformed:
			*sp = p
			return nil
		case *SearchPerformed:
			if p != nil {
				*sp = *p
				return nil
			}
		}
	}

	data, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding payload: %w", err)
	}
	return nil
}
