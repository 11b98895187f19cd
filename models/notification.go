package models

import "time"

// EventKind distinguishes booking transitions from payment changes.
type EventKind string

const (
	EventBookingStatus EventKind = "booking_status"
	EventPaymentStatus EventKind = "payment_status"
)

// BookingEvent is emitted after a committed booking transition or payment change.
// Booking is a full snapshot taken after the commit.
type BookingEvent struct {
	ID         string    `json:"id"`
	Kind       EventKind `json:"kind"`
	BookingID  string    `json:"bookingId"`
	NewStatus  string    `json:"newStatus"`
	Booking    Booking   `json:"booking"`
	Payment    *Payment  `json:"payment,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Recipients are the parties that should hear about the event.
func (e BookingEvent) Recipients() []string {
	return []string{e.Booking.ClientID, e.Booking.ProviderID}
}

// Notification is the rendered push message for one recipient.
type Notification struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data"`
}
