package notification

import (
	"fmt"

	"bookingpay/models"

	"github.com/shopspring/decimal"
)

// Render builds the push message a recipient sees for an event.
func Render(event models.BookingEvent, recipientID string) models.Notification {
	n := models.Notification{
		Data: map[string]string{
			"type":      string(event.Kind),
			"bookingId": event.BookingID,
			"status":    event.NewStatus,
		},
	}
	b := event.Booking
	when := b.ScheduledDate + " " + b.ScheduledTime
	isProvider := recipientID == b.ProviderID
	if isProvider {
		n.Data["role"] = "provider"
	} else {
		n.Data["role"] = "client"
	}

	switch event.Kind {
	case models.EventPaymentStatus:
		n.Title = "Payment update"
		switch {
		case event.Payment != nil && event.Payment.Payout() == models.PayoutSent && isProvider:
			n.Body = fmt.Sprintf("Your payout of %s for the booking on %s is on its way.", formatCents(event.Payment.ProviderCents), when)
		case event.NewStatus == string(models.PaymentCompleted):
			n.Body = fmt.Sprintf("Payment for the booking on %s is complete.", when)
		case event.NewStatus == string(models.PaymentFailed):
			n.Body = fmt.Sprintf("Payment for the booking on %s did not go through.", when)
		default:
			n.Body = fmt.Sprintf("Payment for the booking on %s is being processed.", when)
		}
	default:
		switch models.BookingStatus(event.NewStatus) {
		case models.BookingPending:
			n.Title = "New booking request"
			n.Body = fmt.Sprintf("You have a new request for %s.", when)
		case models.BookingConfirmed:
			n.Title = "Booking confirmed"
			n.Body = fmt.Sprintf("Your booking on %s is confirmed.", when)
		case models.BookingDeclined:
			n.Title = "Booking declined"
			n.Body = fmt.Sprintf("The booking on %s was declined.", when)
		case models.BookingCancelled:
			n.Title = "Booking cancelled"
			n.Body = fmt.Sprintf("The booking on %s was cancelled.", when)
		case models.BookingCompleted:
			n.Title = "Booking completed"
			if isProvider {
				n.Body = fmt.Sprintf("The booking on %s is marked complete.", when)
			} else {
				n.Body = fmt.Sprintf("How did it go? You can now review your booking on %s.", when)
			}
		default:
			n.Title = "Booking update"
			n.Body = fmt.Sprintf("Your booking on %s changed to %s.", when, event.NewStatus)
		}
	}
	return n
}

func formatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
