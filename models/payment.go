package models

import "time"

// PaymentStatus is the coarse status reported to clients and stored for queries.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// PaymentState is the settlement progress of a booking across both rails.
type PaymentState string

const (
	StateNotStarted     PaymentState = "NOT_STARTED"
	StateFeePending     PaymentState = "FEE_PENDING"
	StateFeeCompleted   PaymentState = "FEE_COMPLETED"
	StateFullySettled   PaymentState = "FULLY_SETTLED"
	StateFeeFailed      PaymentState = "FEE_FAILED"
	StateTransferFailed PaymentState = "TRANSFER_FAILED"
)

// Status derives the coarse payment status. The fee leg alone decides it.
func (s PaymentState) Status() PaymentStatus {
	switch s {
	case StateFeeCompleted, StateFullySettled, StateTransferFailed:
		return PaymentCompleted
	case StateFeeFailed:
		return PaymentFailed
	default:
		return PaymentPending
	}
}

// PayoutStatus describes the provider leg for display.
type PayoutStatus string

const (
	PayoutNotStarted PayoutStatus = "not_started"
	PayoutPending    PayoutStatus = "pending"
	PayoutSent       PayoutStatus = "sent"
	PayoutFailed     PayoutStatus = "failed"
)

// Payment is the single settlement record of a booking.
// TotalCents always equals ProviderCents + PlatformFeeCents.
type Payment struct {
	ID         string `bson:"id" json:"id"`
	BookingID  string `bson:"bookingId" json:"bookingId"`
	ClientID   string `bson:"clientId" json:"clientId"`
	ProviderID string `bson:"providerId" json:"providerId"`
	Currency   string `bson:"currency" json:"currency"`

	TotalCents       int64 `bson:"totalCents" json:"totalCents"`
	ProviderCents    int64 `bson:"providerCents" json:"providerCents"`
	PlatformFeeCents int64 `bson:"platformFeeCents" json:"platformFeeCents"`

	FeeRailReference string `bson:"feeRailReference,omitempty" json:"feeRailReference,omitempty"`
	FeeAttempt       int    `bson:"feeAttempt" json:"feeAttempt"`

	TransferAuthorizationID string  `bson:"transferAuthorizationId,omitempty" json:"-"`
	TransferRailReference   *string `bson:"transferRailReference,omitempty" json:"transferRailReference"`
	TransferStatus          string  `bson:"transferStatus,omitempty" json:"transferStatus,omitempty"`

	State     PaymentState  `bson:"state" json:"state"`
	Status    PaymentStatus `bson:"status" json:"status"`
	LastError string        `bson:"lastError,omitempty" json:"lastError,omitempty"`

	PaidAt    *time.Time `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	SettledAt *time.Time `bson:"settledAt,omitempty" json:"settledAt,omitempty"`
	Version   int64      `bson:"version" json:"-"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// SetState moves the payment to s and keeps Status consistent with it.
func (p *Payment) SetState(s PaymentState) {
	p.State = s
	p.Status = s.Status()
}

// Payout reports the provider leg progress.
func (p *Payment) Payout() PayoutStatus {
	switch p.State {
	case StateFullySettled:
		return PayoutSent
	case StateTransferFailed:
		return PayoutFailed
	case StateFeeCompleted:
		return PayoutPending
	default:
		return PayoutNotStarted
	}
}
