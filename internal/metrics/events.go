package metrics

import (
	"context"

	"github.com/falasearch/fala-search/internal/bus"
	"github.com/falasearch/fala-search/internal/pkg/logger"
)

// EventSubscriber subscribes to the event bus and updates metrics.
type EventSubscriber struct {
	metrics *Metrics
	bus     bus.Bus
	log     *logger.Logger
}

// NewEventSubscriber creates a new event subscriber.
func NewEventSubscriber(metrics *Metrics, eventBus bus.Bus, log *logger.Logger) *EventSubscriber {
	if log == nil {
		log = logger.Discard()
	}
	return &EventSubscriber{
		metrics: metrics,
		bus:     eventBus,
		log:     log.WithComponent("metrics"),
	}
}

// SubscribeToEvents subscribes to all relevant events and updates metrics.
func (es *EventSubscriber) SubscribeToEvents(ctx context.Context) error {
	if err := es.bus.Subscribe(ctx, bus.TopicSearchPerformed, es.handleSearchPerformed); err != nil {
		return err
	}
	return es.bus.Subscribe(ctx, bus.TopicContentReloaded, es.handleContentReloaded)
}

func (es *EventSubscriber) handleSearchPerformed(ctx context.Context, event bus.Event) error {
	var p bus.SearchPerformed
	if err := bus.DecodePayload(event, &p); err != nil {
		es.log.Warn("Dropping malformed search event",
			"event_id", event.ID,
			"error", err.Error(),
		)
		return err
	}

	es.metrics.RecordSearch(p.Intent, p.SmartCard, float64(p.LatencyMs), p.ResultCount)
	return nil
}

func (es *EventSubscriber) handleContentReloaded(ctx context.Context, event bus.Event) error {
	var p bus.ContentReloaded
	if err := bus.DecodePayload(event, &p); err != nil {
		es.log.Warn("Dropping malformed reload event",
			"event_id", event.ID,
			"error", err.Error(),
		)
		return err
	}

	es.metrics.UpdateContent(p.Vocabulary, p.Verbs, p.Conjugations, p.Grammar)
	return nil
}
