package bus

import (
	"context"
	"testing"

	"github.com/IBM/sarama"
)

func TestKafkaConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     KafkaConfig
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: KafkaConfig{
				Brokers:       []string{"localhost:9092"},
				ConsumerGroup: "test-group",
			},
			wantErr: false,
		},
		{
			name:    "empty brokers",
			cfg:     KafkaConfig{ConsumerGroup: "test-group"},
			wantErr: true,
		},
		{
			name:    "empty consumer group",
			cfg:     KafkaConfig{Brokers: []string{"localhost:9092"}},
			wantErr: true,
		},
		{
			name: "invalid kafka version",
			cfg: KafkaConfig{
				Brokers:       []string{"localhost:9092"},
				ConsumerGroup: "test-group",
				Version:       "invalid",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewKafkaBus(tt.cfg, nil)
			if b != nil {
				defer b.Close()
			}
			if (err != nil) != tt.wantErr {
				// Only the valid config needs a running broker.
				if tt.name == "valid config" && err != nil {
					t.Skip("Skipping test - Kafka not running")
				}
				t.Errorf("NewKafkaBus() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseKafkaBrokers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"single broker", "localhost:9092", []string{"localhost:9092"}},
		{"multiple brokers", "broker1:9092,broker2:9092,broker3:9092", []string{"broker1:9092", "broker2:9092", "broker3:9092"}},
		{"with whitespace", "broker1:9092 , broker2:9092 ", []string{"broker1:9092", "broker2:9092"}},
		{"trailing comma", "broker1:9092,", []string{"broker1:9092"}},
		{"empty string", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseKafkaBrokers(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseKafkaBrokers() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseKafkaBrokers()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestKafkaMessage_RoundTrip(t *testing.T) {
	event := NewEvent(TopicSearchPerformed, "http", "req-9", SearchPerformed{Query: "casa", ResultCount: 3})

	msg, err := encodeMessage(TopicSearchPerformed, event)
	if err != nil {
		t.Fatalf("encodeMessage() error = %v", err)
	}
	if msg.Topic != TopicSearchPerformed {
		t.Errorf("Topic = %s", msg.Topic)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != "req-9" {
		t.Errorf("Headers = %+v", msg.Headers)
	}

	value, err := msg.Value.Encode()
	if err != nil {
		t.Fatal(err)
	}
	got, err := decodeMessage(&sarama.ConsumerMessage{Value: value})
	if err != nil {
		t.Fatalf("decodeMessage() error = %v", err)
	}
	if got.ID != event.ID || got.CorrelationID != "req-9" {
		t.Errorf("decoded %+v", got)
	}

	var payload SearchPerformed
	if err := DecodePayload(got, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Query != "casa" || payload.ResultCount != 3 {
		t.Errorf("payload = %+v", payload)
	}
}

func TestKafkaMessage_CorrelationFromHeader(t *testing.T) {
	msg := &sarama.ConsumerMessage{
		Value: []byte(`{"id":"e1","type":"search.performed"}`),
		Headers: []*sarama.RecordHeader{
			{Key: []byte(correlationHeader), Value: []byte("test-correlation-123")},
		},
	}

	event, err := decodeMessage(msg)
	if err != nil {
		t.Fatalf("decodeMessage() error = %v", err)
	}
	if event.CorrelationID != "test-correlation-123" {
		t.Errorf("Correlation ID = %s, want test-correlation-123", event.CorrelationID)
	}

	if _, err := decodeMessage(&sarama.ConsumerMessage{Value: []byte("{")}); err == nil {
		t.Error("expected error for truncated JSON")
	}
}

func TestKafkaBus_Interface(t *testing.T) {
	var _ Bus = (*KafkaBus)(nil)
}

func TestKafkaBus_ClosedOperations(t *testing.T) {
	bus := &KafkaBus{
		handlers: make(map[string][]Handler),
		closed:   true,
	}

	if err := bus.Close(); err != nil {
		t.Errorf("Close() on closed bus returned error: %v", err)
	}
	if err := bus.Publish(context.Background(), "test", Event{ID: "test"}); err == nil {
		t.Error("Publish() after Close() should return error")
	}
	err := bus.Subscribe(context.Background(), "test", func(ctx context.Context, event Event) error {
		return nil
	})
	if err == nil {
		t.Error("Subscribe() after Close() should return error")
	}
}
