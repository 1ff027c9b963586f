package bus

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/falasearch/fala-search/internal/config"
	"github.com/falasearch/fala-search/internal/pkg/logger"
)

func TestEventLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "journal", "events.log")

	t.Run("Disabled", func(t *testing.T) {
		l, err := NewEventLogger(logPath, false)
		if err != nil {
			t.Fatalf("NewEventLogger failed: %v", err)
		}
		defer l.Close()

		if l.IsEnabled() {
			t.Error("Expected logger to be disabled")
		}
		if err := l.Log("t", Event{ID: "e"}); err != nil {
			t.Errorf("Log on disabled logger: %v", err)
		}
		if _, err := os.Stat(logPath); !os.IsNotExist(err) {
			t.Error("disabled logger should not create the file")
		}
		if _, err := l.GetEvents(time.Time{}, 0); err == nil {
			t.Error("GetEvents on disabled logger should error")
		}
	})

	t.Run("LogAndRead", func(t *testing.T) {
		l, err := NewEventLogger(logPath, true)
		if err != nil {
			t.Fatalf("NewEventLogger failed: %v", err)
		}
		defer l.Close()

		for _, q := range []string{"casa", "ser vs estar", "conjugate falar"} {
			e := NewEvent(TopicSearchPerformed, "test", "", SearchPerformed{Query: q})
			if err := l.Log(TopicSearchPerformed, e); err != nil {
				t.Fatalf("Log failed: %v", err)
			}
		}

		events, err := l.GetEvents(time.Time{}, 0)
		if err != nil {
			t.Fatalf("GetEvents failed: %v", err)
		}
		if len(events) != 3 {
			t.Fatalf("got %d events, want 3", len(events))
		}

		var first SearchPerformed
		if err := DecodePayload(events[0].Event, &first); err != nil {
			t.Fatal(err)
		}
		if first.Query != "casa" || events[0].Topic != TopicSearchPerformed {
			t.Errorf("first event = %+v / %+v", events[0], first)
		}

		limited, err := l.GetEvents(time.Time{}, 2)
		if err != nil {
			t.Fatal(err)
		}
		if len(limited) != 2 {
			t.Errorf("limit 2 returned %d events", len(limited))
		}

		future, err := l.GetEvents(time.Now().Add(time.Hour), 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(future) != 0 {
			t.Errorf("expected no events after a future time, got %d", len(future))
		}
	})

	t.Run("SkipsMalformedLines", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "events.log")
		content := "not json\n" +
			`{"event":{"id":"ok"},"topic":"t","timestamp":"2026-01-02T03:04:05Z"}` + "\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		l, err := NewEventLogger(path, true)
		if err != nil {
			t.Fatal(err)
		}
		defer l.Close()

		events, err := l.GetEvents(time.Time{}, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(events) != 1 || events[0].Event.ID != "ok" {
			t.Errorf("events = %+v", events)
		}
	})

	t.Run("LogAfterClose", func(t *testing.T) {
		l, err := NewEventLogger(filepath.Join(t.TempDir(), "events.log"), true)
		if err != nil {
			t.Fatal(err)
		}
		l.Close()
		if err := l.Log("t", Event{ID: "e"}); err == nil {
			t.Error("Log after Close should error")
		}
	})
}

func TestEventLogger_Replay(t *testing.T) {
	l, err := NewEventLogger(filepath.Join(t.TempDir(), "events.log"), true)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	for i := 0; i < 4; i++ {
		l.Log(TopicSearchPerformed, NewEvent(TopicSearchPerformed, "test", "", nil))
	}

	b := NewMemoryBus(nil)
	defer b.Close()

	var wg sync.WaitGroup
	wg.Add(4)
	b.Subscribe(context.Background(), TopicSearchPerformed, func(ctx context.Context, event Event) error {
		wg.Done()
		return nil
	})

	n, err := l.Replay(context.Background(), b, time.Time{})
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if n != 4 {
		t.Errorf("replayed %d events, want 4", n)
	}
	waitGroup(t, &wg, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Replay(ctx, b, time.Time{}); err == nil {
		t.Error("Replay with cancelled context should error")
	}
}

func TestLoggedBus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	b, err := NewBus(config.BusConfig{Type: "memory", EventLog: path}, logger.Discard())
	if err != nil {
		t.Fatalf("NewBus failed: %v", err)
	}

	lb, ok := b.(*LoggedBus)
	if !ok {
		t.Fatalf("NewBus returned %T, want *LoggedBus", b)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	lb.Subscribe(context.Background(), TopicSearchPerformed, func(ctx context.Context, event Event) error {
		wg.Done()
		return nil
	})

	event := NewEvent(TopicSearchPerformed, "test", "req-1", SearchPerformed{Query: "mesa"})
	if err := lb.Publish(context.Background(), TopicSearchPerformed, event); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	waitGroup(t, &wg, time.Second)

	events, err := lb.EventLogger().GetEvents(time.Time{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Event.ID != event.ID || events[0].Event.CorrelationID != "req-1" {
		t.Errorf("journal = %+v", events)
	}

	if err := lb.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
