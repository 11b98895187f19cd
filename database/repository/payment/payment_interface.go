package paymentRepo

import (
	"context"

	"bookingpay/models"
)

// PaymentRepository defines methods for payment data access. At most one payment exists per booking.
type PaymentRepository interface {
	// GetByBookingID retrieves the payment of a booking.
	GetByBookingID(ctx context.Context, bookingID string) (*models.Payment, error)
	// Insert stores a new payment. It returns repository.ErrDuplicate if the booking already has one.
	Insert(ctx context.Context, payment *models.Payment) error
	// CompareAndSwap replaces the stored payment only if its version still equals payment.Version.
	// On success payment.Version is advanced; on a version mismatch it returns repository.ErrConflict.
	CompareAndSwap(ctx context.Context, payment *models.Payment) error
	// ListByState returns up to limit payments in the given state, oldest update first.
	ListByState(ctx context.Context, state models.PaymentState, limit int) ([]models.Payment, error)
}
