package events

import (
	"context"
	"fmt"
	"time"

	"tablebook/pkg/config"
	"tablebook/pkg/kafka"
	kafka_middleware "tablebook/pkg/kafka/middleware"
	"tablebook/pkg/middleware"
	"tablebook/pkg/model"
)

const (
	TypeBookingCreated = "booking.created"
	TypeBookingUpdated = "booking.updated"
	TypeBookingDeleted = "booking.deleted"

	schemaVersion = "1"
)

// Event is the payload published for every booking change. Booking is nil
// for deletions.
type Event struct {
	Type       string         `json:"type"`
	BookingID  string         `json:"bookingId"`
	Booking    *model.Booking `json:"booking,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

func NewEvent(eventType, bookingID string, booking *model.Booking) Event {
	return Event{
		Type:       eventType,
		BookingID:  bookingID,
		Booking:    booking,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type messagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	producer messagePublisher
	source   string
}

// NewPublisher returns an asynchronous Kafka-backed publisher when Kafka is
// enabled and a no-op publisher otherwise.
func NewPublisher(cfg *config.Config, source string) (Publisher, error) {
	if cfg.Kafka == nil || !cfg.Kafka.Enabled {
		cfg.Log.Info("Kafka disabled, booking events will not be published")
		return NoopPublisher{}, nil
	}

	producer, err := kafka.NewProducer(cfg.Kafka, cfg.BookingEventsTopic, cfg.BookingEventsDLQTopic, cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking events producer: %w", err)
	}
	if cfg.Kafka.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(kafka_middleware.MetricsProducerMiddleware())
	}

	cfg.Log.Info("Booking events producer ready", "topic", producer.Topic())
	return NewAsyncPublisher(&KafkaPublisher{producer: producer, source: source}, DefaultPublishTimeout, cfg.Log), nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := kafka.NewMessage().
		WithKey(event.BookingID).
		WithValue(event).
		WithEventType(event.Type).
		WithCorrelationID(middleware.RequestIDFromContext(ctx)).
		WithSchemaVersion(schemaVersion).
		WithSource(p.source).
		Build()
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

func (NoopPublisher) Close() error { return nil }
