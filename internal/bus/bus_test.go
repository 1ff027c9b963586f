package bus

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/falasearch/fala-search/internal/config"
	"github.com/falasearch/fala-search/internal/pkg/logger"
)

func waitGroup(t *testing.T, wg *sync.WaitGroup, timeout time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal("Timeout waiting for events")
	}
}

func TestMemoryBus_PublishSubscribe(t *testing.T) {
	bus := NewMemoryBus(logger.Discard())
	defer bus.Close()

	var received atomic.Int32
	var wg sync.WaitGroup

	err := bus.Subscribe(context.Background(), TopicSearchPerformed, func(ctx context.Context, event Event) error {
		received.Add(1)
		wg.Done()
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	wg.Add(3)
	for i := 0; i < 3; i++ {
		if err := bus.Publish(context.Background(), TopicSearchPerformed, NewEvent(TopicSearchPerformed, "test", "", nil)); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}

	waitGroup(t, &wg, time.Second)

	if got := received.Load(); got != 3 {
		t.Errorf("Received %d events, want 3", got)
	}
}

func TestMemoryBus_MultipleSubscribers(t *testing.T) {
	bus := NewMemoryBus(nil)
	defer bus.Close()

	var count1, count2 atomic.Int32
	var wg sync.WaitGroup

	bus.Subscribe(context.Background(), "t", func(ctx context.Context, event Event) error {
		count1.Add(1)
		wg.Done()
		return nil
	})
	bus.Subscribe(context.Background(), "t", func(ctx context.Context, event Event) error {
		count2.Add(1)
		wg.Done()
		return nil
	})

	wg.Add(2)
	bus.Publish(context.Background(), "t", Event{ID: "e1"})
	waitGroup(t, &wg, time.Second)

	if count1.Load() != 1 || count2.Load() != 1 {
		t.Errorf("Expected both subscribers to receive 1 event, got %d and %d", count1.Load(), count2.Load())
	}
}

func TestMemoryBus_NoSubscribers(t *testing.T) {
	bus := NewMemoryBus(nil)
	defer bus.Close()

	if err := bus.Publish(context.Background(), "empty.topic", Event{ID: "test"}); err != nil {
		t.Errorf("Publish() to empty topic error = %v", err)
	}
}

func TestMemoryBus_HandlerOutlivesRequestContext(t *testing.T) {
	bus := NewMemoryBus(nil)
	defer bus.Close()

	var wg sync.WaitGroup
	var ctxErr atomic.Value
	bus.Subscribe(context.Background(), "t", func(ctx context.Context, event Event) error {
		time.Sleep(20 * time.Millisecond)
		ctxErr.Store(ctx.Err() == nil)
		wg.Done()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	wg.Add(1)
	bus.Publish(ctx, "t", Event{ID: "e1"})
	cancel()
	waitGroup(t, &wg, time.Second)

	if live, _ := ctxErr.Load().(bool); !live {
		t.Error("handler context was cancelled with the publisher's")
	}
}

func TestMemoryBus_Close(t *testing.T) {
	bus := NewMemoryBus(nil)

	var finished atomic.Bool
	bus.Subscribe(context.Background(), "t", func(ctx context.Context, event Event) error {
		time.Sleep(30 * time.Millisecond)
		finished.Store(true)
		return nil
	})
	bus.Publish(context.Background(), "t", Event{ID: "e1"})

	if err := bus.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !finished.Load() {
		t.Error("Close() returned before in-flight handler finished")
	}
	if err := bus.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if err := bus.Publish(context.Background(), "t", Event{}); err == nil {
		t.Error("Publish() after Close() should error")
	}
	err := bus.Subscribe(context.Background(), "t", func(ctx context.Context, event Event) error {
		return nil
	})
	if err == nil {
		t.Error("Subscribe() after Close() should error")
	}
}

func TestMemoryBus_Concurrent(t *testing.T) {
	bus := NewMemoryBus(nil)
	defer bus.Close()

	var received atomic.Int32
	var wg sync.WaitGroup

	bus.Subscribe(context.Background(), "concurrent", func(ctx context.Context, event Event) error {
		received.Add(1)
		wg.Done()
		return nil
	})

	numPublishers := 10
	eventsPerPublisher := 100
	wg.Add(numPublishers * eventsPerPublisher)

	for p := 0; p < numPublishers; p++ {
		go func() {
			for i := 0; i < eventsPerPublisher; i++ {
				bus.Publish(context.Background(), "concurrent", Event{ID: "test"})
			}
		}()
	}

	waitGroup(t, &wg, 5*time.Second)

	if got, want := received.Load(), int32(numPublishers*eventsPerPublisher); got != want {
		t.Errorf("Received %d events, want %d", got, want)
	}
}

func TestNewEvent(t *testing.T) {
	before := time.Now().UnixMilli()
	e := NewEvent(TopicSearchPerformed, "http", "req-1", SearchPerformed{Query: "casa"})

	if _, err := uuid.Parse(e.ID); err != nil {
		t.Errorf("ID %q is not a UUID", e.ID)
	}
	if e.Type != TopicSearchPerformed || e.Source != "http" || e.CorrelationID != "req-1" {
		t.Errorf("unexpected event %+v", e)
	}
	if e.Timestamp < before {
		t.Errorf("Timestamp %d before %d", e.Timestamp, before)
	}

	if other := NewEvent(TopicSearchPerformed, "http", "", nil); other.ID == e.ID {
		t.Error("event IDs should be unique")
	}
}

func TestDecodePayload(t *testing.T) {
	want := SearchPerformed{
		Query:       "conjugate falar",
		Intent:      "conjugation",
		SmartCard:   "conjugation",
		ResultCount: 7,
		LatencyMs:   2,
	}

	// What a Kafka consumer sees: the payload after a JSON round trip.
	data, err := json.Marshal(Event{Payload: want})
	if err != nil {
		t.Fatal(err)
	}
	var wire Event
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		event Event
	}{
		{"value", Event{Payload: want}},
		{"pointer", Event{Payload: &want}},
		{"decoded json", wire},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got SearchPerformed
			if err := DecodePayload(tt.event, &got); err != nil {
				t.Fatalf("DecodePayload() error = %v", err)
			}
			if got != want {
				t.Errorf("got %+v, want %+v", got, want)
			}
		})
	}

	var got SearchPerformed
	if err := DecodePayload(Event{Payload: "not an object"}, &got); err == nil {
		t.Error("expected error for string payload")
	}
}

type recordedPublish struct {
	topic string
	err   error
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedPublish
}

func (r *fakeRecorder) RecordBusPublish(topic string, latencyMs int64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedPublish{topic, err})
}

func TestInstrumentedBus(t *testing.T) {
	inner := NewMemoryBus(nil)
	rec := &fakeRecorder{}
	b := NewInstrumentedBus(inner, rec)

	if err := b.Publish(context.Background(), TopicSearchPerformed, Event{ID: "e1"}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	b.Close()
	if err := b.Publish(context.Background(), TopicSearchPerformed, Event{ID: "e2"}); err == nil {
		t.Fatal("Publish() after Close() should error")
	}

	if len(rec.calls) != 2 {
		t.Fatalf("recorded %d publishes, want 2", len(rec.calls))
	}
	if rec.calls[0].topic != TopicSearchPerformed || rec.calls[0].err != nil {
		t.Errorf("first call = %+v", rec.calls[0])
	}
	if rec.calls[1].err == nil {
		t.Error("second call should carry the error")
	}
}

func TestNewBus(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.BusConfig
		wantErr bool
	}{
		{"memory", config.BusConfig{Type: "memory"}, false},
		{"default", config.BusConfig{}, false},
		{"case insensitive", config.BusConfig{Type: "Memory"}, false},
		{"kafka without brokers", config.BusConfig{Type: "kafka"}, true},
		{"unknown", config.BusConfig{Type: "nats"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBus(tt.cfg, logger.Discard())
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewBus() error = %v, wantErr %v", err, tt.wantErr)
			}
			if b != nil {
				b.Close()
			}
		})
	}
}
