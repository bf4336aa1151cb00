package kafka_middleware

import (
	"context"
	"errors"
	"testing"

	"tablebook/pkg/kafka"
	"tablebook/pkg/logger"
)

func TestLoggingProducerMiddleware_PassesThrough(t *testing.T) {
	mw := LoggingProducerMiddleware(logger.Discard())
	wantErr := errors.New("broker down")

	called := false
	err := mw(context.Background(), kafka.Message{Topic: "t", Key: "k"}, func(ctx context.Context, msg kafka.Message) error {
		called = true
		return wantErr
	})

	if !called {
		t.Error("expected next to be called")
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("expected error to be returned unchanged, got %v", err)
	}
}

func TestMetricsProducerMiddleware_PassesThrough(t *testing.T) {
	mw := MetricsProducerMiddleware()

	err := mw(context.Background(), kafka.Message{Topic: "t", Key: "k"}, func(ctx context.Context, msg kafka.Message) error {
		return nil
	})
	if err != nil {
		t.Errorf("unexpected error %v", err)
	}
}
