// Package rails adapts the two external money channels: the card-network fee rail and the
// bank-transfer rail that credits providers. Every error they return is an *apperr.Error of kind
// RailRejected or RailTransient.
package rails

import "context"

// ChargeStatus is the normalized state of a fee-rail charge.
type ChargeStatus string

const (
	ChargePending   ChargeStatus = "pending"
	ChargeSucceeded ChargeStatus = "succeeded"
	ChargeFailed    ChargeStatus = "failed"
)

// ChargeRequest describes a fee charge.
type ChargeRequest struct {
	AmountCents    int64
	Currency       string
	Description    string
	Metadata       map[string]string
	IdempotencyKey string
}

// Charge is the fee rail's view of a charge.
type Charge struct {
	Reference     string
	ClientSecret  string
	AmountCents   int64
	Currency      string
	Status        ChargeStatus
	Metadata      map[string]string
	FailureReason string
}

// FeeRail collects the platform fee from the client.
type FeeRail interface {
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)
	GetCharge(ctx context.Context, reference string) (*Charge, error)
}
