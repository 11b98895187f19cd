package booking

import (
	"context"
	"time"

	"bookingpay/models"
)

// BookingService is the booking lifecycle exposed to transports and workers.
type BookingService interface {
	Create(ctx context.Context, clientID string, req CreateRequest) (*models.Booking, error)
	Accept(ctx context.Context, bookingID, actorID string) (*models.Booking, error)
	Decline(ctx context.Context, bookingID, actorID string) (*models.Booking, error)
	Cancel(ctx context.Context, bookingID, actorID string) (*models.Booking, error)
	Complete(ctx context.Context, bookingID, actorID string) (*models.Booking, error)
	AutoComplete(ctx context.Context, bookingID string) (*models.Booking, error)
	Get(ctx context.Context, bookingID, actorID string) (*models.Booking, error)
	List(ctx context.Context, actorID string, limit int) ([]models.Booking, error)
	ReviewEligible(ctx context.Context, bookingID, actorID string) (bool, error)
}

// AutoCompleteScheduler queues the automatic completion of a confirmed booking.
// Implemented by tasks.Enqueuer.
type AutoCompleteScheduler interface {
	ScheduleAutoComplete(ctx context.Context, bookingID string, fireAt time.Time) error
}

// CreateRequest is what a client submits to book a service.
type CreateRequest struct {
	ProviderID    string           `json:"providerId" binding:"required"`
	ServiceID     string           `json:"serviceId" binding:"required"`
	ScheduledDate string           `json:"scheduledDate" binding:"required"`
	ScheduledTime string           `json:"scheduledTime" binding:"required"`
	Notes         string           `json:"notes"`
	Location      *models.Location `json:"location"`
}
