package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookingpay/database/repository"
	"bookingpay/models"

	"gorm.io/gorm"
)

// bookingRow is the relational shape of a booking.
type bookingRow struct {
	ID              string `gorm:"primaryKey;size:64"`
	ClientID        string `gorm:"size:64;not null;index"`
	ProviderID      string `gorm:"size:64;not null;index"`
	ServiceID       string `gorm:"size:64;not null"`
	Status          string `gorm:"size:16;not null"`
	ScheduledDate   string `gorm:"size:10;not null"`
	ScheduledTime   string `gorm:"size:5;not null"`
	PriceCents      int64  `gorm:"not null"`
	Currency        string `gorm:"size:3;not null"`
	Notes           string `gorm:"size:1000"`
	HasLocation     bool
	LocationAddress string `gorm:"size:500"`
	LocationLat     float64
	LocationLng     float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (bookingRow) TableName() string {
	return "bookings"
}

func toBookingRow(b *models.Booking) bookingRow {
	row := bookingRow{
		ID:            b.ID,
		ClientID:      b.ClientID,
		ProviderID:    b.ProviderID,
		ServiceID:     b.ServiceID,
		Status:        string(b.Status),
		ScheduledDate: b.ScheduledDate,
		ScheduledTime: b.ScheduledTime,
		PriceCents:    b.PriceCents,
		Currency:      b.Currency,
		Notes:         b.Notes,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
	if b.Location != nil {
		row.HasLocation = true
		row.LocationAddress = b.Location.Address
		row.LocationLat = b.Location.Latitude
		row.LocationLng = b.Location.Longitude
	}
	return row
}

func (row bookingRow) toModel() *models.Booking {
	b := &models.Booking{
		ID:            row.ID,
		ClientID:      row.ClientID,
		ProviderID:    row.ProviderID,
		ServiceID:     row.ServiceID,
		Status:        models.BookingStatus(row.Status),
		ScheduledDate: row.ScheduledDate,
		ScheduledTime: row.ScheduledTime,
		PriceCents:    row.PriceCents,
		Currency:      row.Currency,
		Notes:         row.Notes,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	if row.HasLocation {
		b.Location = &models.Location{
			Address:   row.LocationAddress,
			Latitude:  row.LocationLat,
			Longitude: row.LocationLng,
		}
	}
	return b
}

// GormBookingRepo implements BookingRepository on a relational database through GORM.
type GormBookingRepo struct {
	db *gorm.DB
}

// NewGormBookingRepo migrates the bookings table and returns the repository.
func NewGormBookingRepo(db *gorm.DB) (BookingRepository, error) {
	if err := db.AutoMigrate(&bookingRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate bookings: %w", err)
	}
	return &GormBookingRepo{db: db}, nil
}

func (r *GormBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	row := toBookingRow(booking)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("booking %s: %w", booking.ID, repository.ErrDuplicate)
		}
		return fmt.Errorf("error creating booking: %w", err)
	}
	return nil
}

func (r *GormBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	var row bookingRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("booking %s: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("error fetching booking with id %s: %w", id, err)
	}
	return row.toModel(), nil
}

func (r *GormBookingRepo) UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus, at time.Time) (*models.Booking, error) {
	res := r.db.WithContext(ctx).
		Model(&bookingRow{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]any{"status": string(to), "updated_at": at})
	if res.Error != nil {
		return nil, fmt.Errorf("error updating booking %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("booking %s no longer %s: %w", id, from, repository.ErrConflict)
	}
	return r.GetByID(ctx, id)
}

func (r *GormBookingRepo) ListByActor(ctx context.Context, actorID string, limit int) ([]models.Booking, error) {
	var rows []bookingRow
	q := r.db.WithContext(ctx).
		Where("client_id = ? OR provider_id = ?", actorID, actorID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("error listing bookings: %w", err)
	}
	bookings := make([]models.Booking, 0, len(rows))
	for _, row := range rows {
		bookings = append(bookings, *row.toModel())
	}
	return bookings, nil
}
