package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	kafka_config "tablebook/pkg/kafka/config"
	"tablebook/pkg/logger"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
	ctxErrs  []error
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func newTestProducer(writer, dlq *fakeWriter) *Producer {
	p := &Producer{writer: writer, topic: "restaurant.bookings", dlqTopic: "dlq"}
	if dlq != nil {
		p.dlqWriter = dlq
	}
	return p
}

func buildMessage(t *testing.T) Message {
	t.Helper()
	msg, err := NewMessage().
		WithKey("507f1f77bcf86cd799439011").
		WithValue(map[string]any{"table": 3}).
		WithEventType("booking.created").
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return msg
}

func TestNewProducer_Validation(t *testing.T) {
	log := logger.Discard()
	cfg := &kafka_config.Config{Brokers: []string{"localhost:9092"}}

	if _, err := NewProducer(nil, "t", "", log); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := NewProducer(&kafka_config.Config{}, "t", "", log); err == nil {
		t.Error("expected error for missing brokers")
	}
	if _, err := NewProducer(cfg, "", "", log); err == nil {
		t.Error("expected error for empty topic")
	}

	p, err := NewProducer(cfg, "restaurant.bookings", "dlq", log)
	if err != nil {
		t.Fatalf("NewProducer() error = %v", err)
	}
	if p.Topic() != "restaurant.bookings" || p.dlqWriter == nil {
		t.Errorf("unexpected producer %+v", p)
	}
	_ = p.Close()
}

func TestPublish_WritesKeyValueAndHeaders(t *testing.T) {
	writer := &fakeWriter{}
	p := newTestProducer(writer, nil)

	if err := p.Publish(context.Background(), buildMessage(t)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if len(writer.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(writer.messages))
	}
	got := writer.messages[0]
	if string(got.Key) != "507f1f77bcf86cd799439011" || string(got.Value) != `{"table":3}` {
		t.Errorf("unexpected key/value %q %q", got.Key, got.Value)
	}
	if headerValue(got, HeaderEventType) != "booking.created" || headerValue(got, HeaderEventID) == "" {
		t.Errorf("expected event headers, got %v", got.Headers)
	}
}

func TestPublish_RejectsInvalidMessages(t *testing.T) {
	p := newTestProducer(&fakeWriter{}, nil)

	if err := p.Publish(context.Background(), Message{Value: []byte("x")}); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("expected ErrEmptyKey, got %v", err)
	}
	if err := p.Publish(context.Background(), Message{Key: "k"}); !errors.Is(err, ErrEmptyValue) {
		t.Errorf("expected ErrEmptyValue, got %v", err)
	}
}

func TestPublish_FailureGoesToDLQ(t *testing.T) {
	writeErr := errors.New("connection refused")
	writer := &fakeWriter{err: writeErr}
	dlq := &fakeWriter{}
	p := newTestProducer(writer, dlq)

	msg := buildMessage(t)
	err := p.Publish(context.Background(), msg)

	var kerr *KafkaError
	if !errors.As(err, &kerr) || !kerr.IsTransient() || !errors.Is(err, writeErr) {
		t.Fatalf("expected transient KafkaError wrapping the write error, got %v", err)
	}
	if len(dlq.messages) != 1 {
		t.Fatalf("expected 1 DLQ message, got %d", len(dlq.messages))
	}
	if headerValue(dlq.messages[0], HeaderOriginalTopic) != "restaurant.bookings" {
		t.Errorf("expected original topic header on DLQ message")
	}
	if headerValue(dlq.messages[0], HeaderDLQError) != "connection refused" {
		t.Errorf("expected dlq error header, got %v", dlq.messages[0].Headers)
	}
	if _, leaked := msg.Headers[HeaderDLQError]; leaked {
		t.Errorf("caller's headers must not be modified")
	}
}

func TestPublish_DLQSurvivesExpiredContext(t *testing.T) {
	writer := &fakeWriter{err: context.DeadlineExceeded}
	dlq := &fakeWriter{}
	p := newTestProducer(writer, dlq)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_ = p.Publish(ctx, buildMessage(t))

	if len(dlq.messages) != 1 {
		t.Fatalf("expected the message in the DLQ, got %d", len(dlq.messages))
	}
	if dlq.ctxErrs[0] != nil {
		t.Errorf("DLQ write got an expired context: %v", dlq.ctxErrs[0])
	}
}

func TestPublish_MiddlewareOrder(t *testing.T) {
	p := newTestProducer(&fakeWriter{}, nil)

	var order []string
	for _, name := range []string{"first", "second"} {
		name := name
		p.Use(func(ctx context.Context, msg Message, next func(ctx context.Context, msg Message) error) error {
			order = append(order, name+":"+msg.Topic)
			return next(ctx, msg)
		})
	}

	if err := p.Publish(context.Background(), buildMessage(t)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(order) != 2 || order[0] != "first:restaurant.bookings" || order[1] != "second:restaurant.bookings" {
		t.Errorf("unexpected middleware order %v", order)
	}
}

func TestPublish_AfterClose(t *testing.T) {
	writer := &fakeWriter{}
	p := newTestProducer(writer, nil)

	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !writer.closed {
		t.Error("expected writer to be closed")
	}
	if err := p.Publish(context.Background(), buildMessage(t)); !errors.Is(err, ErrProducerClosed) {
		t.Errorf("expected ErrProducerClosed, got %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close() should be a no-op, got %v", err)
	}
}

func TestMessageBuilder_EncodingFailure(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()

	var kerr *KafkaError
	if !errors.As(err, &kerr) || kerr.IsTransient() {
		t.Errorf("expected permanent KafkaError, got %v", err)
	}
}

func TestMessageBuilder_Defaults(t *testing.T) {
	msg, err := NewMessage().WithKey("k").WithValue("v").WithCorrelationID("").Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if msg.GetEventID() == "" || msg.Headers[HeaderTimestamp] == "" {
		t.Errorf("expected generated event id and timestamp, got %v", msg.Headers)
	}
	if _, ok := msg.Headers[HeaderCorrelationID]; ok {
		t.Errorf("empty correlation id should not be set")
	}
	if string(msg.Value) != `"v"` {
		t.Errorf("unexpected value %s", msg.Value)
	}
}
