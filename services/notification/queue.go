package notification

import (
	"context"

	"bookingpay/models"
)

// EventEnqueuer is implemented by tasks.Enqueuer.
type EventEnqueuer interface {
	EnqueueEvent(ctx context.Context, event models.BookingEvent) error
}

// QueueSink hands events to the background queue, where the push worker delivers and retries them.
type QueueSink struct {
	queue EventEnqueuer
}

func NewQueueSink(queue EventEnqueuer) *QueueSink {
	return &QueueSink{queue: queue}
}

func (s *QueueSink) Name() string { return "queue" }

func (s *QueueSink) Deliver(ctx context.Context, event models.BookingEvent) error {
	return s.queue.EnqueueEvent(ctx, event)
}
