package notification

import (
	"context"

	"bookingpay/models"

	"firebase.google.com/go/v4/messaging"
)

// Notifier receives state-change facts after they are committed. Notify never blocks the caller
// and delivery failures never reach it.
type Notifier interface {
	Notify(event models.BookingEvent)
}

// Sink delivers events to one channel (queue, live stream).
type Sink interface {
	Name() string
	Deliver(ctx context.Context, event models.BookingEvent) error
}

// MessageSender sends one FCM message. *messaging.Client satisfies it.
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// Nop discards events.
type Nop struct{}

func (Nop) Notify(models.BookingEvent) {}
