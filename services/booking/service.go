// Package booking runs the booking state machine: create, accept, decline, cancel and complete.
// Every status change is a compare-and-set on the stored status.
package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"bookingpay/database/repository"
	bookingRepo "bookingpay/database/repository/booking"
	providerRepo "bookingpay/database/repository/provider"
	"bookingpay/models"
	"bookingpay/services/apperr"
	"bookingpay/services/notification"
	"bookingpay/services/settlement"
	"bookingpay/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultBookingService implements BookingService. Notifier and Scheduler may be nil.
type DefaultBookingService struct {
	Bookings  bookingRepo.BookingRepository
	Directory providerRepo.Directory
	Notifier  notification.Notifier
	Scheduler AutoCompleteScheduler

	// AutoCompleteAfter is added to the scheduled time of an accepted booking; zero disables it.
	AutoCompleteAfter time.Duration
	Currency          string
	Location          *time.Location
	Logger            *zap.Logger
	Now               func() time.Time
}

var _ BookingService = (*DefaultBookingService)(nil)

// Create books a service for clientID. The service price is copied onto the booking.
func (s *DefaultBookingService) Create(ctx context.Context, clientID string, req CreateRequest) (*models.Booking, error) {
	const op = "CreateBooking"
	if clientID == "" || clientID == utils.SystemActorID {
		return nil, apperr.E(apperr.KindForbidden, op, "a client is required")
	}
	if req.ProviderID == "" || req.ServiceID == "" {
		return nil, apperr.E(apperr.KindInvalid, op, "providerId and serviceId are required")
	}
	if req.ProviderID == clientID {
		return nil, apperr.E(apperr.KindInvalid, op, "providers cannot book their own services")
	}

	draft := models.Booking{ScheduledDate: strings.TrimSpace(req.ScheduledDate), ScheduledTime: strings.TrimSpace(req.ScheduledTime)}
	if _, err := draft.ScheduledAt(s.location()); err != nil {
		return nil, apperr.Wrap(apperr.KindInvalid, op, err, "scheduled date must be YYYY-MM-DD and time HH:MM")
	}

	provider, err := s.Directory.GetProvider(ctx, req.ProviderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.E(apperr.KindNotFound, op, "provider %s not found", req.ProviderID)
		}
		return nil, apperr.Wrap(apperr.KindInternal, op, err, "failed to load provider")
	}
	if !provider.Active {
		return nil, apperr.E(apperr.KindInvalid, op, "provider %s is not accepting bookings", provider.ID)
	}

	service, err := s.Directory.GetService(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.E(apperr.KindNotFound, op, "service %s not found", req.ServiceID)
		}
		return nil, apperr.Wrap(apperr.KindInternal, op, err, "failed to load service")
	}
	if service.ProviderID != provider.ID {
		return nil, apperr.E(apperr.KindInvalid, op, "service %s is not offered by provider %s", service.ID, provider.ID)
	}
	if !service.Active {
		return nil, apperr.E(apperr.KindInvalid, op, "service %s is not available", service.ID)
	}
	price := decimal.NewFromFloat(service.Price)
	if price.Sign() <= 0 {
		return nil, apperr.E(apperr.KindInvalid, op, "service %s has no valid price", service.ID)
	}

	currency := service.Currency
	if currency == "" {
		currency = s.Currency
	}
	now := s.now()
	booking := &models.Booking{
		ID:            uuid.NewString(),
		ClientID:      clientID,
		ProviderID:    provider.ID,
		ServiceID:     service.ID,
		Status:        models.BookingPending,
		ScheduledDate: draft.ScheduledDate,
		ScheduledTime: draft.ScheduledTime,
		PriceCents:    settlement.PriceToCents(price),
		Currency:      strings.ToLower(currency),
		Notes:         req.Notes,
		Location:      req.Location,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Bookings.Create(ctx, booking); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, op, err, "failed to save booking")
	}

	s.logger().Info("Booking created",
		zap.String("bookingId", booking.ID),
		zap.String("clientId", clientID),
		zap.String("providerId", provider.ID),
		zap.Int64("priceCents", booking.PriceCents))
	s.emit(booking)
	return booking, nil
}

func (s *DefaultBookingService) Accept(ctx context.Context, bookingID, actorID string) (*models.Booking, error) {
	booking, err := s.transition(ctx, OpAccept, bookingID, actorID)
	if err != nil {
		return nil, err
	}
	s.scheduleAutoComplete(ctx, booking)
	return booking, nil
}

func (s *DefaultBookingService) Decline(ctx context.Context, bookingID, actorID string) (*models.Booking, error) {
	return s.transition(ctx, OpDecline, bookingID, actorID)
}

func (s *DefaultBookingService) Cancel(ctx context.Context, bookingID, actorID string) (*models.Booking, error) {
	return s.transition(ctx, OpCancel, bookingID, actorID)
}

// Complete marks the work done. It does not depend on the payment.
func (s *DefaultBookingService) Complete(ctx context.Context, bookingID, actorID string) (*models.Booking, error) {
	return s.transition(ctx, OpComplete, bookingID, actorID)
}

// AutoComplete completes a booking on behalf of the system. A booking that already left
// CONFIRMED is returned unchanged.
func (s *DefaultBookingService) AutoComplete(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.transition(ctx, OpComplete, bookingID, utils.SystemActorID)
	if errors.Is(err, apperr.ErrInvalidTransition) {
		current, getErr := s.Get(ctx, bookingID, utils.SystemActorID)
		if getErr != nil {
			return nil, getErr
		}
		s.logger().Debug("Auto-complete skipped", zap.String("bookingId", bookingID), zap.String("status", string(current.Status)))
		return current, nil
	}
	return booking, err
}

// Get returns a booking to one of its parties.
func (s *DefaultBookingService) Get(ctx context.Context, bookingID, actorID string) (*models.Booking, error) {
	return s.load(ctx, "GetBooking", bookingID, actorID)
}

// List returns the actor's bookings as client or provider, newest first.
func (s *DefaultBookingService) List(ctx context.Context, actorID string, limit int) ([]models.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	bookings, err := s.Bookings.ListByActor(ctx, actorID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "ListBookings", err, "failed to list bookings")
	}
	return bookings, nil
}

// ReviewEligible reports whether actorID may review the provider of a booking: only the client,
// and only once the booking is COMPLETED.
func (s *DefaultBookingService) ReviewEligible(ctx context.Context, bookingID, actorID string) (bool, error) {
	booking, err := s.load(ctx, "ReviewEligible", bookingID, actorID)
	if err != nil {
		return false, err
	}
	return booking.Status == models.BookingCompleted && RoleOf(booking, actorID) == RoleClient, nil
}

// --- Internals ---

func (s *DefaultBookingService) transition(ctx context.Context, op Operation, bookingID, actorID string) (*models.Booking, error) {
	opName := string(op)
	booking, err := s.load(ctx, opName, bookingID, actorID)
	if err != nil {
		return nil, err
	}

	role := RoleOf(booking, actorID)
	if actorID == utils.SystemActorID {
		role = RoleSystem
	}
	if !CanPerform(op, role) {
		return nil, apperr.E(apperr.KindForbidden, opName, "%s cannot %s booking %s", roleName(role), op, bookingID)
	}
	next, ok := Next(op, booking.Status)
	if !ok {
		return nil, apperr.E(apperr.KindInvalidTransition, opName, "cannot %s a %s booking", op, booking.Status)
	}

	updated, err := s.Bookings.UpdateStatus(ctx, bookingID, booking.Status, next, s.now())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, apperr.Wrap(apperr.KindConcurrentModification, opName, err, "booking %s changed concurrently", bookingID)
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.E(apperr.KindNotFound, opName, "booking %s not found", bookingID)
		}
		return nil, apperr.Wrap(apperr.KindInternal, opName, err, "failed to update booking")
	}

	s.logger().Info("Booking transitioned",
		zap.String("bookingId", bookingID),
		zap.String("actorId", actorID),
		zap.String("from", string(booking.Status)),
		zap.String("to", string(next)))
	s.emit(updated)
	return updated, nil
}

// load applies the visibility rule: non-parties get NotFound. The system actor sees everything.
func (s *DefaultBookingService) load(ctx context.Context, op, bookingID, actorID string) (*models.Booking, error) {
	booking, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.E(apperr.KindNotFound, op, "booking %s not found", bookingID)
		}
		return nil, apperr.Wrap(apperr.KindInternal, op, err, "failed to load booking")
	}
	if actorID != utils.SystemActorID && !booking.IsParty(actorID) {
		return nil, apperr.E(apperr.KindNotFound, op, "booking %s not found", bookingID)
	}
	return booking, nil
}

func (s *DefaultBookingService) scheduleAutoComplete(ctx context.Context, booking *models.Booking) {
	if s.Scheduler == nil || s.AutoCompleteAfter <= 0 {
		return
	}
	at, err := booking.ScheduledAt(s.location())
	if err != nil {
		s.logger().Warn("Cannot schedule auto-complete", zap.String("bookingId", booking.ID), zap.Error(err))
		return
	}
	fireAt := at.Add(s.AutoCompleteAfter)
	if err := s.Scheduler.ScheduleAutoComplete(ctx, booking.ID, fireAt); err != nil {
		s.logger().Error("Failed to schedule auto-complete", zap.String("bookingId", booking.ID), zap.Error(err))
	}
}

func (s *DefaultBookingService) emit(booking *models.Booking) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.Notify(models.BookingEvent{
		ID:         uuid.NewString(),
		Kind:       models.EventBookingStatus,
		BookingID:  booking.ID,
		NewStatus:  string(booking.Status),
		Booking:    *booking,
		OccurredAt: s.now(),
	})
}

func roleName(r Role) string {
	if r == RoleNone {
		return "non-party"
	}
	return string(r)
}

func (s *DefaultBookingService) location() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.UTC
}

func (s *DefaultBookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *DefaultBookingService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
