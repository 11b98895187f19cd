// Package memory holds process-local stores used by tests and single-node development runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bookingpay/database/repository"
	bookingRepo "bookingpay/database/repository/booking"
	"bookingpay/models"
)

var _ bookingRepo.BookingRepository = (*BookingStore)(nil)

// BookingStore is an in-memory BookingRepository.
type BookingStore struct {
	mu       sync.RWMutex
	bookings map[string]models.Booking
}

func NewBookingStore() *BookingStore {
	return &BookingStore{bookings: make(map[string]models.Booking)}
}

func (s *BookingStore) Create(_ context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[booking.ID]; ok {
		return fmt.Errorf("booking %s: %w", booking.ID, repository.ErrDuplicate)
	}
	s.bookings[booking.ID] = copyBooking(booking)
	return nil
}

func (s *BookingStore) GetByID(_ context.Context, id string) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, repository.ErrNotFound)
	}
	out := copyBooking(&b)
	return &out, nil
}

func (s *BookingStore) UpdateStatus(_ context.Context, id string, from, to models.BookingStatus, at time.Time) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, repository.ErrNotFound)
	}
	if b.Status != from {
		return nil, fmt.Errorf("booking %s no longer %s: %w", id, from, repository.ErrConflict)
	}
	b.Status = to
	b.UpdatedAt = at
	s.bookings[id] = b
	out := copyBooking(&b)
	return &out, nil
}

func (s *BookingStore) ListByActor(_ context.Context, actorID string, limit int) ([]models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bookings := []models.Booking{}
	for _, b := range s.bookings {
		if b.IsParty(actorID) {
			bookings = append(bookings, copyBooking(&b))
		}
	}
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})
	if limit > 0 && len(bookings) > limit {
		bookings = bookings[:limit]
	}
	return bookings, nil
}

func copyBooking(b *models.Booking) models.Booking {
	out := *b
	if b.Location != nil {
		loc := *b.Location
		out.Location = &loc
	}
	return out
}
