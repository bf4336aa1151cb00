package kafka_middleware

import (
	"context"
	"time"

	"tablebook/pkg/kafka"
	"tablebook/pkg/metrics"
)

// MetricsProducerMiddleware records every publish attempt in Prometheus.
func MetricsProducerMiddleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()

		err := next(ctx, msg)

		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeError
		}
		metrics.ObserveKafkaMessage(msg.Topic, outcome, time.Since(start))

		return err
	}
}
