package bookingRepo

import (
	"context"
	"time"

	"bookingpay/models"
)

// BookingRepository defines methods for booking data access.
type BookingRepository interface {
	// Create inserts a new booking record.
	Create(ctx context.Context, booking *models.Booking) error
	// GetByID retrieves a booking by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	// UpdateStatus moves a booking from one status to another only if it is still in from.
	// It returns repository.ErrConflict when the stored status no longer matches.
	UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus, at time.Time) (*models.Booking, error)
	// ListByActor returns bookings where the actor is client or provider, newest first.
	ListByActor(ctx context.Context, actorID string, limit int) ([]models.Booking, error)
}
