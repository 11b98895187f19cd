package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"bookingpay/database/repository"
	paymentRepo "bookingpay/database/repository/payment"
	"bookingpay/models"
)

var _ paymentRepo.PaymentRepository = (*PaymentStore)(nil)

// PaymentStore is an in-memory PaymentRepository keyed by booking ID.
type PaymentStore struct {
	mu       sync.RWMutex
	payments map[string]models.Payment
}

func NewPaymentStore() *PaymentStore {
	return &PaymentStore{payments: make(map[string]models.Payment)}
}

func (s *PaymentStore) GetByBookingID(_ context.Context, bookingID string) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[bookingID]
	if !ok {
		return nil, fmt.Errorf("payment for booking %s: %w", bookingID, repository.ErrNotFound)
	}
	out := copyPayment(&p)
	return &out, nil
}

func (s *PaymentStore) Insert(_ context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[payment.BookingID]; ok {
		return fmt.Errorf("payment for booking %s: %w", payment.BookingID, repository.ErrDuplicate)
	}
	s.payments[payment.BookingID] = copyPayment(payment)
	return nil
}

func (s *PaymentStore) CompareAndSwap(_ context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.payments[payment.BookingID]
	if !ok {
		return fmt.Errorf("payment for booking %s: %w", payment.BookingID, repository.ErrNotFound)
	}
	if current.Version != payment.Version {
		return fmt.Errorf("payment for booking %s moved past version %d: %w", payment.BookingID, payment.Version, repository.ErrConflict)
	}
	payment.Version++
	s.payments[payment.BookingID] = copyPayment(payment)
	return nil
}

func (s *PaymentStore) ListByState(_ context.Context, state models.PaymentState, limit int) ([]models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payments := []models.Payment{}
	for _, p := range s.payments {
		if p.State == state {
			payments = append(payments, copyPayment(&p))
		}
	}
	sort.Slice(payments, func(i, j int) bool {
		return payments[i].UpdatedAt.Before(payments[j].UpdatedAt)
	})
	if limit > 0 && len(payments) > limit {
		payments = payments[:limit]
	}
	return payments, nil
}

func copyPayment(p *models.Payment) models.Payment {
	out := *p
	if p.TransferRailReference != nil {
		ref := *p.TransferRailReference
		out.TransferRailReference = &ref
	}
	if p.PaidAt != nil {
		t := *p.PaidAt
		out.PaidAt = &t
	}
	if p.SettledAt != nil {
		t := *p.SettledAt
		out.SettledAt = &t
	}
	return out
}
