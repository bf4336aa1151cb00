package events

import (
	"context"
	"encoding/json"
	"testing"

	"tablebook/pkg/config"
	"tablebook/pkg/kafka"
	kafka_config "tablebook/pkg/kafka/config"
	"tablebook/pkg/logger"
	"tablebook/pkg/middleware"
	"tablebook/pkg/model"
)

type fakeProducer struct {
	published []kafka.Message
	closed    bool
}

func (f *fakeProducer) Publish(_ context.Context, msg kafka.Message) error {
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeProducer) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	fake := &fakeProducer{}
	p := &KafkaPublisher{producer: fake, source: "bookings"}

	booking := &model.Booking{ID: "507f1f77bcf86cd799439011", Date: "2024-05-01", Time: "19:00", Table: 3}
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")

	if err := p.Publish(ctx, NewEvent(TypeBookingCreated, booking.ID, booking)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if len(fake.published) != 1 {
		t.Fatalf("expected 1 message, got %d", len(fake.published))
	}
	msg := fake.published[0]
	if msg.Key != booking.ID {
		t.Errorf("expected booking id as key, got %q", msg.Key)
	}
	if msg.GetEventType() != TypeBookingCreated || msg.GetCorrelationID() != "req-1" {
		t.Errorf("unexpected headers %v", msg.Headers)
	}
	if msg.Headers[kafka.HeaderSource] != "bookings" {
		t.Errorf("expected source header, got %v", msg.Headers)
	}

	var decoded Event
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if decoded.Type != TypeBookingCreated || decoded.Booking == nil || decoded.Booking.Table != 3 {
		t.Errorf("unexpected payload %+v", decoded)
	}
}

func TestKafkaPublisher_Close(t *testing.T) {
	fake := &fakeProducer{}
	p := &KafkaPublisher{producer: fake}
	_ = p.Close()
	if !fake.closed {
		t.Error("expected producer to be closed")
	}
}

func TestNewPublisher_DisabledIsNoop(t *testing.T) {
	cfg := &config.Config{Log: logger.Discard(), Kafka: &kafka_config.Config{Enabled: false}}

	p, err := NewPublisher(cfg, "bookings")
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	if _, ok := p.(NoopPublisher); !ok {
		t.Errorf("expected NoopPublisher, got %T", p)
	}
	if err := p.Publish(context.Background(), NewEvent(TypeBookingDeleted, "x", nil)); err != nil {
		t.Errorf("noop publish should not fail, got %v", err)
	}
}

func TestNewPublisher_Enabled(t *testing.T) {
	cfg := &config.Config{
		Log:                logger.Discard(),
		BookingEventsTopic: "restaurant.bookings",
		Kafka: &kafka_config.Config{
			Enabled:             true,
			Brokers:             []string{"localhost:9092"},
			ProducerMaxAttempts: 1,
			EnableMiddleware:    true,
		},
	}

	p, err := NewPublisher(cfg, "bookings")
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	async, ok := p.(*AsyncPublisher)
	if !ok {
		t.Fatalf("expected *AsyncPublisher, got %T", p)
	}
	if _, ok := async.next.(*KafkaPublisher); !ok {
		t.Errorf("expected Kafka delivery behind the async publisher, got %T", async.next)
	}
	_ = p.Close()
}
