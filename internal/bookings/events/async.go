package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"tablebook/pkg/logger"
)

const DefaultPublishTimeout = 10 * time.Second

var ErrPublisherClosed = errors.New("publisher is closed")

// AsyncPublisher hands events to next on a background goroutine. Each publish
// keeps the caller's context values but not its cancellation, and is bounded
// by timeout instead.
type AsyncPublisher struct {
	next    Publisher
	timeout time.Duration
	log     *logger.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewAsyncPublisher(next Publisher, timeout time.Duration, log *logger.Logger) *AsyncPublisher {
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	return &AsyncPublisher{
		next:    next,
		timeout: timeout,
		log:     log,
	}
}

func (p *AsyncPublisher) Publish(ctx context.Context, event Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()

		if err := p.next.Publish(ctx, event); err != nil {
			p.log.Warn("Failed to publish booking event",
				"type", event.Type,
				"id", event.BookingID,
				"error", err,
			)
		}
	}()
	return nil
}

// Close waits for in-flight publishes, then closes next.
func (p *AsyncPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.wg.Wait()
	return p.next.Close()
}
