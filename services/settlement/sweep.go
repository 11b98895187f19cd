package settlement

import (
	"context"
	"errors"

	"bookingpay/models"
	"bookingpay/services/apperr"
	"bookingpay/utils"

	"go.uber.org/zap"
)

// SweepReport summarizes one background pass.
type SweepReport struct {
	Reconciled int
	Retried    int
	Failed     int
}

// Sweep reconciles fee-pending payments older than Config.StaleAfter and retries provider legs
// that already failed transiently. It is run periodically by the worker.
func (o *Orchestrator) Sweep(ctx context.Context, limit int) (SweepReport, error) {
	var report SweepReport
	cutoff := o.now().Add(-o.Config.StaleAfter)

	pending, err := o.Payments.ListByState(ctx, models.StateFeePending, limit)
	if err != nil {
		return report, apperr.Wrap(apperr.KindInternal, "Sweep", err, "failed to list pending payments")
	}
	for _, p := range pending {
		if p.UpdatedAt.After(cutoff) {
			break
		}
		if _, err := o.ReconcilePayment(ctx, p.BookingID); err != nil {
			report.Failed++
			o.logger().Warn("Reconcile failed", zap.String("bookingId", p.BookingID), zap.Error(err))
			continue
		}
		report.Reconciled++
	}

	collected, err := o.Payments.ListByState(ctx, models.StateFeeCompleted, limit)
	if err != nil {
		return report, apperr.Wrap(apperr.KindInternal, "Sweep", err, "failed to list collected payments")
	}
	for _, p := range collected {
		// Only payouts that were already attempted; the first attempt is a party's decision.
		if p.LastError == "" && p.TransferAuthorizationID == "" {
			continue
		}
		out, err := o.SettleProviderLeg(ctx, p.BookingID, utils.SystemActorID)
		if err != nil {
			if !errors.Is(err, apperr.ErrPayoutAccountNotVerified) {
				report.Failed++
			}
			o.logger().Debug("Payout retry skipped", zap.String("bookingId", p.BookingID), zap.Error(err))
			continue
		}
		if out.Failure != "" {
			report.Failed++
			continue
		}
		report.Retried++
	}
	return report, nil
}
