package settlement

import (
	"context"

	"bookingpay/models"
)

// SettlementService is the settlement surface exposed to transports.
type SettlementService interface {
	InitiateSettlement(ctx context.Context, bookingID, requesterID string) (*Initiation, error)
	ConfirmFeeLeg(ctx context.Context, bookingID, reference, requesterID string) (*models.Payment, error)
	SettleProviderLeg(ctx context.Context, bookingID, requesterID string) (*PayoutOutcome, error)
	GetPayment(ctx context.Context, bookingID, requesterID string) (*models.Payment, error)
	ReconcilePayment(ctx context.Context, bookingID string) (*models.Payment, error)
}

var _ SettlementService = (*Orchestrator)(nil)
