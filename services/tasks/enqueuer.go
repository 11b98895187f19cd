package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookingpay/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Enqueuer puts background work on the asynq queue.
type Enqueuer struct {
	client *asynq.Client
	logger *zap.Logger
}

func NewEnqueuer(client *asynq.Client, logger *zap.Logger) *Enqueuer {
	return &Enqueuer{client: client, logger: logger}
}

// SchedulePayout queues a provider-leg retry. An already queued payout for the booking is not an error.
func (e *Enqueuer) SchedulePayout(ctx context.Context, bookingID string) error {
	task, opts, err := NewPayoutTask(bookingID)
	if err != nil {
		return err
	}
	return e.enqueue(ctx, task, opts, zap.String("bookingId", bookingID))
}

// ScheduleAutoComplete queues the automatic completion of a confirmed booking at fireAt.
func (e *Enqueuer) ScheduleAutoComplete(ctx context.Context, bookingID string, fireAt time.Time) error {
	task, opts, err := NewAutoCompleteTask(bookingID, fireAt)
	if err != nil {
		return err
	}
	return e.enqueue(ctx, task, opts, zap.String("bookingId", bookingID), zap.Time("fireAt", fireAt))
}

// EnqueueEvent queues push delivery of a booking event.
func (e *Enqueuer) EnqueueEvent(ctx context.Context, event models.BookingEvent) error {
	task, opts, err := NewNotifyTask(event)
	if err != nil {
		return err
	}
	return e.enqueue(ctx, task, opts, zap.String("eventId", event.ID), zap.String("bookingId", event.BookingID))
}

func (e *Enqueuer) enqueue(ctx context.Context, task *asynq.Task, opts []asynq.Option, fields ...zap.Field) error {
	info, err := e.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			e.logger.Debug("Task already queued", append(fields, zap.String("type", task.Type()))...)
			return nil
		}
		return fmt.Errorf("failed to enqueue %s: %w", task.Type(), err)
	}
	e.logger.Debug("Task enqueued", append(fields, zap.String("type", task.Type()), zap.String("taskId", info.ID))...)
	return nil
}
