package models

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingDeclined  BookingStatus = "DECLINED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// IsTerminal reports whether no further transitions leave this status.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingCompleted || s == BookingDeclined || s == BookingCancelled
}

// Location is the optional service address of a booking.
type Location struct {
	Address   string  `bson:"address" json:"address"`
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

// Booking is a client's request for a provider's service.
// PriceCents is the service price snapshot taken at creation and never rewritten.
type Booking struct {
	ID            string        `bson:"id" json:"id"`
	ClientID      string        `bson:"clientId" json:"clientId"`
	ProviderID    string        `bson:"providerId" json:"providerId"`
	ServiceID     string        `bson:"serviceId" json:"serviceId"`
	Status        BookingStatus `bson:"status" json:"status"`
	ScheduledDate string        `bson:"scheduledDate" json:"scheduledDate"` // YYYY-MM-DD
	ScheduledTime string        `bson:"scheduledTime" json:"scheduledTime"` // HH:MM, 24h
	PriceCents    int64         `bson:"priceCents" json:"priceCents"`
	Currency      string        `bson:"currency" json:"currency"`
	Notes         string        `bson:"notes,omitempty" json:"notes,omitempty"`
	Location      *Location     `bson:"location,omitempty" json:"location,omitempty"`
	CreatedAt     time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// IsParty reports whether actorID is the client or provider of record.
func (b *Booking) IsParty(actorID string) bool {
	return actorID != "" && (actorID == b.ClientID || actorID == b.ProviderID)
}

// ScheduledAt resolves the scheduled date and time in loc.
func (b *Booking) ScheduledAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", b.ScheduledDate+" "+b.ScheduledTime, loc)
}
