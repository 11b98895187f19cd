package paymentRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookingpay/database/repository"
	"bookingpay/models"

	"gorm.io/gorm"
)

// paymentRow is the relational shape of a payment.
type paymentRow struct {
	ID                      string  `gorm:"primaryKey;size:64"`
	BookingID               string  `gorm:"size:64;not null;uniqueIndex"`
	ClientID                string  `gorm:"size:64;not null"`
	ProviderID              string  `gorm:"size:64;not null"`
	Currency                string  `gorm:"size:3;not null"`
	TotalCents              int64   `gorm:"not null"`
	ProviderCents           int64   `gorm:"not null"`
	PlatformFeeCents        int64   `gorm:"not null"`
	FeeRailReference        string  `gorm:"size:128"`
	FeeAttempt              int     `gorm:"not null"`
	TransferAuthorizationID string  `gorm:"size:128"`
	TransferRailReference   *string `gorm:"size:128"`
	TransferStatus          string  `gorm:"size:32"`
	State                   string  `gorm:"size:32;not null;index:idx_payments_state_updated,priority:1"`
	Status                  string  `gorm:"size:16;not null"`
	LastError               string  `gorm:"size:1000"`
	PaidAt                  *time.Time
	SettledAt               *time.Time
	Version                 int64 `gorm:"not null"`
	CreatedAt               time.Time
	UpdatedAt               time.Time `gorm:"index:idx_payments_state_updated,priority:2"`
}

func (paymentRow) TableName() string {
	return "payments"
}

func toPaymentRow(p *models.Payment) paymentRow {
	return paymentRow{
		ID:                      p.ID,
		BookingID:               p.BookingID,
		ClientID:                p.ClientID,
		ProviderID:              p.ProviderID,
		Currency:                p.Currency,
		TotalCents:              p.TotalCents,
		ProviderCents:           p.ProviderCents,
		PlatformFeeCents:        p.PlatformFeeCents,
		FeeRailReference:        p.FeeRailReference,
		FeeAttempt:              p.FeeAttempt,
		TransferAuthorizationID: p.TransferAuthorizationID,
		TransferRailReference:   p.TransferRailReference,
		TransferStatus:          p.TransferStatus,
		State:                   string(p.State),
		Status:                  string(p.Status),
		LastError:               p.LastError,
		PaidAt:                  p.PaidAt,
		SettledAt:               p.SettledAt,
		Version:                 p.Version,
		CreatedAt:               p.CreatedAt,
		UpdatedAt:               p.UpdatedAt,
	}
}

func (row paymentRow) toModel() *models.Payment {
	return &models.Payment{
		ID:                      row.ID,
		BookingID:               row.BookingID,
		ClientID:                row.ClientID,
		ProviderID:              row.ProviderID,
		Currency:                row.Currency,
		TotalCents:              row.TotalCents,
		ProviderCents:           row.ProviderCents,
		PlatformFeeCents:        row.PlatformFeeCents,
		FeeRailReference:        row.FeeRailReference,
		FeeAttempt:              row.FeeAttempt,
		TransferAuthorizationID: row.TransferAuthorizationID,
		TransferRailReference:   row.TransferRailReference,
		TransferStatus:          row.TransferStatus,
		State:                   models.PaymentState(row.State),
		Status:                  models.PaymentStatus(row.Status),
		LastError:               row.LastError,
		PaidAt:                  row.PaidAt,
		SettledAt:               row.SettledAt,
		Version:                 row.Version,
		CreatedAt:               row.CreatedAt,
		UpdatedAt:               row.UpdatedAt,
	}
}

// GormPaymentRepo implements PaymentRepository on a relational database through GORM.
type GormPaymentRepo struct {
	db *gorm.DB
}

// NewGormPaymentRepo migrates the payments table and returns the repository.
func NewGormPaymentRepo(db *gorm.DB) (PaymentRepository, error) {
	if err := db.AutoMigrate(&paymentRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate payments: %w", err)
	}
	return &GormPaymentRepo{db: db}, nil
}

func (r *GormPaymentRepo) GetByBookingID(ctx context.Context, bookingID string) (*models.Payment, error) {
	var row paymentRow
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment for booking %s: %w", bookingID, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("error fetching payment for booking %s: %w", bookingID, err)
	}
	return row.toModel(), nil
}

func (r *GormPaymentRepo) Insert(ctx context.Context, payment *models.Payment) error {
	row := toPaymentRow(payment)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("payment for booking %s: %w", payment.BookingID, repository.ErrDuplicate)
		}
		return fmt.Errorf("error creating payment: %w", err)
	}
	return nil
}

func (r *GormPaymentRepo) CompareAndSwap(ctx context.Context, payment *models.Payment) error {
	expected := payment.Version
	row := toPaymentRow(payment)
	row.Version = expected + 1

	// Select("*") writes zero values too, so cleared fields are persisted.
	res := r.db.WithContext(ctx).
		Model(&paymentRow{}).
		Where("booking_id = ? AND version = ?", payment.BookingID, expected).
		Select("*").
		Omit("id", "created_at").
		Updates(&row)
	if res.Error != nil {
		return fmt.Errorf("error updating payment for booking %s: %w", payment.BookingID, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByBookingID(ctx, payment.BookingID); err != nil {
			return err
		}
		return fmt.Errorf("payment for booking %s moved past version %d: %w", payment.BookingID, expected, repository.ErrConflict)
	}
	payment.Version = row.Version
	return nil
}

func (r *GormPaymentRepo) ListByState(ctx context.Context, state models.PaymentState, limit int) ([]models.Payment, error) {
	var rows []paymentRow
	q := r.db.WithContext(ctx).
		Where("state = ?", string(state)).
		Order("updated_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("error listing payments: %w", err)
	}
	payments := make([]models.Payment, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, *row.toModel())
	}
	return payments, nil
}
