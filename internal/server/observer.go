package server

import (
	"context"
	"time"

	"github.com/falasearch/fala-search/internal/bus"
	"github.com/falasearch/fala-search/internal/pkg/logger"
	"github.com/falasearch/fala-search/internal/search"
)

const eventSource = "fala-search-server"

// busObserver announces every served search on the event bus.
type busObserver struct {
	bus bus.Bus
	log *logger.Logger
}

func newBusObserver(b bus.Bus, log *logger.Logger) search.Observer {
	if b == nil {
		return nil
	}
	return &busObserver{bus: b, log: log}
}

// SearchPerformed publishes a search.performed event. A failed publish is
// logged and never fails the request.
func (o *busObserver) SearchPerformed(ctx context.Context, q string, resp search.Response, took time.Duration) {
	payload := bus.SearchPerformed{
		Query:          q,
		Intent:         string(resp.Intent.Type),
		ExtractedQuery: resp.Intent.ExtractedQuery,
		ResultCount:    len(resp.Results),
		LatencyMs:      took.Milliseconds(),
	}
	if resp.SmartCard != nil {
		payload.SmartCard = string(resp.SmartCard.CardType())
	}

	event := bus.NewEvent(bus.TopicSearchPerformed, eventSource, logger.RequestIDFromContext(ctx), payload)
	if err := o.bus.Publish(ctx, bus.TopicSearchPerformed, event); err != nil {
		o.log.WithContext(ctx).Warn("Failed to publish search event",
			"event_id", event.ID,
			"error", err.Error(),
		)
	}
}
