// Package settlement runs the two-rail payment protocol for a booking: the platform fee is
// collected on the card rail first, then the provider is credited on the bank-transfer rail.
// Each booking has exactly one Payment record, advanced by compare-and-swap on its version.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"bookingpay/database/repository"
	bookingRepo "bookingpay/database/repository/booking"
	paymentRepo "bookingpay/database/repository/payment"
	providerRepo "bookingpay/database/repository/provider"
	"bookingpay/models"
	"bookingpay/services/apperr"
	"bookingpay/services/notification"
	"bookingpay/services/rails"
	"bookingpay/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PayoutScheduler queues a background retry of the provider leg. Implemented by tasks.Enqueuer.
type PayoutScheduler interface {
	SchedulePayout(ctx context.Context, bookingID string) error
}

// Config holds the settlement parameters.
type Config struct {
	FeePercent decimal.Decimal
	Currency   string
	Retry      rails.RetryPolicy
	// StaleAfter is how long a fee-pending payment may sit before the sweep reconciles it.
	StaleAfter time.Duration
}

// Orchestrator drives settlement. Notifier and Payouts may be nil.
type Orchestrator struct {
	Bookings  bookingRepo.BookingRepository
	Payments  paymentRepo.PaymentRepository
	Directory providerRepo.Directory
	Fees      rails.FeeRail
	Transfers rails.TransferRail
	Notifier  notification.Notifier
	Payouts   PayoutScheduler
	Config    Config
	Logger    *zap.Logger
	Now       func() time.Time
}

// Initiation is what the client needs to confirm the fee charge on its side.
type Initiation struct {
	Payment          *models.Payment `json:"payment"`
	FeeRailReference string          `json:"feeRailReference"`
	ClientSecret     string          `json:"clientSecret,omitempty"`
	Reused           bool            `json:"reused"`
}

// PayoutOutcome reports the provider leg. A failed transfer after a collected fee is a partial
// outcome, not an error: the fee stands and the payout stays retryable.
type PayoutOutcome struct {
	Payment        *models.Payment     `json:"payment"`
	ProviderPayout models.PayoutStatus `json:"providerPayout"`
	Failure        string              `json:"failure,omitempty"`
	Retryable      bool                `json:"retryable"`
}

// InitiateSettlement opens (or resumes) the fee leg for a confirmed booking.
// Repeated calls never create a second charge for the same attempt.
func (o *Orchestrator) InitiateSettlement(ctx context.Context, bookingID, requesterID string) (*Initiation, error) {
	const op = "InitiateSettlement"
	booking, err := o.loadBooking(ctx, op, bookingID, requesterID)
	if err != nil {
		return nil, err
	}
	if requesterID != booking.ClientID {
		return nil, apperr.E(apperr.KindForbidden, op, "only the client can pay for booking %s", bookingID)
	}
	if booking.Status != models.BookingConfirmed {
		return nil, apperr.E(apperr.KindInvalidState, op, "booking %s is %s", bookingID, booking.Status)
	}

	// A lost insert race is retried once against the winner's record.
	for i := 0; i < 2; i++ {
		payment, err := o.loadPayment(ctx, op, bookingID)
		if err != nil {
			return nil, err
		}
		if payment == nil {
			payment, err = o.newPayment(booking)
			if err != nil {
				return nil, err
			}
			if err := o.Payments.Insert(ctx, payment); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					continue
				}
				return nil, apperr.Wrap(apperr.KindInternal, op, err, "failed to create payment")
			}
			o.logger().Info("Payment created",
				zap.String("bookingId", bookingID),
				zap.Int64("totalCents", payment.TotalCents),
				zap.Int64("platformFeeCents", payment.PlatformFeeCents))
			o.emit(booking, payment)
		}
		return o.resumeFeeLeg(ctx, booking, payment)
	}
	return nil, apperr.E(apperr.KindConcurrentModification, op, "payment for booking %s is being created concurrently", bookingID)
}

func (o *Orchestrator) resumeFeeLeg(ctx context.Context, booking *models.Booking, payment *models.Payment) (*Initiation, error) {
	const op = "InitiateSettlement"
	if !Allowed(payment.State, OpInitiate) {
		return nil, apperr.E(apperr.KindAlreadyPaid, op, "booking %s is already paid", booking.ID)
	}

	switch payment.State {
	case models.StateFeeFailed, models.StateNotStarted:
		// A failed charge is never revived; the next attempt gets a fresh idempotency key.
		if payment.State == models.StateFeeFailed {
			payment.FeeAttempt++
		}
		payment.FeeRailReference = ""
		payment.LastError = ""
		payment.SetState(models.StateFeePending)
		if err := o.save(ctx, op, payment); err != nil {
			return nil, err
		}
		o.emit(booking, payment)

	case models.StateFeePending:
		if payment.FeeRailReference != "" {
			charge, err := o.getCharge(ctx, payment.FeeRailReference)
			if err != nil {
				return nil, err
			}
			if charge.Status != rails.ChargeFailed {
				return &Initiation{
					Payment:          payment,
					FeeRailReference: payment.FeeRailReference,
					ClientSecret:     charge.ClientSecret,
					Reused:           true,
				}, nil
			}
			if err := o.markFeeFailed(ctx, booking, payment, charge.FailureReason); err != nil {
				return nil, err
			}
			return o.resumeFeeLeg(ctx, booking, payment)
		}
	}

	charge, err := o.createCharge(ctx, booking, payment)
	if err != nil {
		if errors.Is(err, apperr.ErrRailRejected) {
			if markErr := o.markFeeFailed(ctx, booking, payment, err.Error()); markErr != nil {
				o.logger().Warn("Could not record rejected fee charge", zap.String("bookingId", booking.ID), zap.Error(markErr))
			}
		}
		// Transient: the payment stays pending without a reference and the next call reuses the key.
		return nil, err
	}

	payment.FeeRailReference = charge.Reference
	if err := o.save(ctx, op, payment); err != nil {
		current, reloadErr := o.loadPayment(ctx, op, booking.ID)
		if reloadErr == nil && current != nil && current.FeeRailReference == charge.Reference {
			// A concurrent initiate attached the same charge.
			return &Initiation{Payment: current, FeeRailReference: charge.Reference, ClientSecret: charge.ClientSecret, Reused: true}, nil
		}
		return nil, err
	}
	o.logger().Info("Fee charge attached",
		zap.String("bookingId", booking.ID),
		zap.String("reference", charge.Reference),
		zap.Int("attempt", payment.FeeAttempt))
	return &Initiation{Payment: payment, FeeRailReference: charge.Reference, ClientSecret: charge.ClientSecret}, nil
}

// ConfirmFeeLeg records the fee as collected once the fee rail reports the charge succeeded.
func (o *Orchestrator) ConfirmFeeLeg(ctx context.Context, bookingID, reference, requesterID string) (*models.Payment, error) {
	const op = "ConfirmFeeLeg"
	booking, err := o.loadBooking(ctx, op, bookingID, requesterID)
	if err != nil {
		return nil, err
	}
	if requesterID != booking.ClientID {
		return nil, apperr.E(apperr.KindForbidden, op, "only the client can confirm payment for booking %s", bookingID)
	}
	if reference == "" {
		return nil, apperr.E(apperr.KindInvalid, op, "fee rail reference is required")
	}
	payment, err := o.loadPayment(ctx, op, bookingID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, apperr.E(apperr.KindPaymentNotCompleted, op, "no payment was initiated for booking %s", bookingID)
	}
	if payment.FeeRailReference != reference {
		return nil, apperr.E(apperr.KindInvalid, op, "reference %s does not belong to booking %s", reference, bookingID)
	}
	if payment.Status == models.PaymentCompleted {
		return payment, nil
	}
	if !Allowed(payment.State, OpConfirmFee) {
		return nil, apperr.E(apperr.KindPaymentNotCompleted, op, "payment for booking %s is %s", bookingID, payment.State)
	}

	charge, err := o.getCharge(ctx, reference)
	if err != nil {
		return nil, err
	}
	if charge.Metadata["bookingId"] != bookingID {
		return nil, apperr.E(apperr.KindInvalid, op, "charge %s was not issued for booking %s", reference, bookingID)
	}
	if charge.AmountCents != payment.PlatformFeeCents {
		return nil, apperr.E(apperr.KindInvalid, op, "charge %s amount %d does not match fee %d", reference, charge.AmountCents, payment.PlatformFeeCents)
	}

	switch charge.Status {
	case rails.ChargeSucceeded:
		return o.markFeeCompleted(ctx, booking, payment)
	case rails.ChargeFailed:
		if err := o.markFeeFailed(ctx, booking, payment, charge.FailureReason); err != nil {
			return nil, err
		}
		return nil, apperr.E(apperr.KindPaymentNotCompleted, op, "fee charge failed: %s", charge.FailureReason)
	default:
		if charge.FailureReason != "" {
			return nil, apperr.E(apperr.KindPaymentNotCompleted, op, "fee charge %s has not succeeded yet: %s", reference, charge.FailureReason)
		}
		return nil, apperr.E(apperr.KindPaymentNotCompleted, op, "fee charge %s has not succeeded yet", reference)
	}
}

// SettleProviderLeg credits the provider for a paid booking. The transfer idempotency key depends
// only on the booking, so repeated calls never move money twice.
func (o *Orchestrator) SettleProviderLeg(ctx context.Context, bookingID, requesterID string) (*PayoutOutcome, error) {
	const op = "SettleProviderLeg"
	booking, err := o.loadBooking(ctx, op, bookingID, requesterID)
	if err != nil {
		return nil, err
	}
	payment, err := o.loadPayment(ctx, op, bookingID)
	if err != nil {
		return nil, err
	}
	if payment == nil || payment.Status != models.PaymentCompleted || !Allowed(payment.State, OpSettleProvider) {
		return nil, apperr.E(apperr.KindPaymentNotCompleted, op, "the fee for booking %s has not been collected", bookingID)
	}
	if payment.State == models.StateFullySettled {
		return outcome(payment, ""), nil
	}
	if booking.Status == models.BookingCancelled || booking.Status == models.BookingDeclined {
		return nil, apperr.E(apperr.KindInvalidState, op, "booking %s is %s", bookingID, booking.Status)
	}

	provider, err := o.Directory.GetProvider(ctx, booking.ProviderID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, op, err, "failed to load provider")
	}
	if !provider.PayoutAccount.Verified {
		return nil, apperr.E(apperr.KindPayoutAccountNotVerified, op, "provider %s has no verified payout account", provider.ID)
	}

	req := rails.TransferRequest{
		Account: rails.Account{
			AccessToken: provider.PayoutAccount.AccessToken,
			AccountID:   provider.PayoutAccount.AccountID,
			LegalName:   provider.PayoutAccount.LegalName,
		},
		AmountCents:    payment.ProviderCents,
		Currency:       payment.Currency,
		Description:    "Booking payout",
		IdempotencyKey: TransferIdempotencyKey(bookingID),
	}

	if payment.TransferAuthorizationID == "" {
		var authID string
		err := o.Config.Retry.Do(ctx, func(ctx context.Context) error {
			id, err := o.Transfers.AuthorizeTransfer(ctx, req)
			authID = id
			return err
		})
		if err != nil {
			return o.payoutFailed(ctx, booking, payment, err)
		}
		payment.TransferAuthorizationID = authID
		if err := o.save(ctx, op, payment); err != nil {
			return nil, err
		}
	}

	var transfer *rails.Transfer
	err = o.Config.Retry.Do(ctx, func(ctx context.Context) error {
		t, err := o.Transfers.ExecuteTransfer(ctx, payment.TransferAuthorizationID, req)
		transfer = t
		return err
	})
	if err != nil {
		return o.payoutFailed(ctx, booking, payment, err)
	}

	now := o.now()
	ref := transfer.Reference
	payment.TransferRailReference = &ref
	payment.TransferStatus = string(transfer.Status)
	payment.LastError = ""
	if transfer.Status.Failed() {
		payment.LastError = transfer.FailureReason
		payment.SetState(models.StateTransferFailed)
	} else {
		payment.SettledAt = &now
		payment.SetState(models.StateFullySettled)
	}
	if err := o.save(ctx, op, payment); err != nil {
		current, reloadErr := o.loadPayment(ctx, op, bookingID)
		if reloadErr == nil && current != nil && current.TransferRailReference != nil {
			return outcome(current, ""), nil
		}
		return nil, err
	}
	o.logger().Info("Provider payout sent",
		zap.String("bookingId", bookingID),
		zap.String("reference", ref),
		zap.String("transferStatus", payment.TransferStatus))
	o.emit(booking, payment)
	return outcome(payment, payment.LastError), nil
}

// ReconcilePayment re-reads both rails and repairs a payment left behind by a crash or a lost
// response. It acts as the system and is safe to run repeatedly.
func (o *Orchestrator) ReconcilePayment(ctx context.Context, bookingID string) (*models.Payment, error) {
	const op = "ReconcilePayment"
	booking, err := o.loadBooking(ctx, op, bookingID, utils.SystemActorID)
	if err != nil {
		return nil, err
	}
	payment, err := o.loadPayment(ctx, op, bookingID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, apperr.E(apperr.KindNotFound, op, "no payment for booking %s", bookingID)
	}
	if !Allowed(payment.State, OpReconcile) {
		return payment, nil
	}

	switch payment.State {
	case models.StateFeePending:
		if payment.FeeRailReference == "" {
			if booking.Status != models.BookingConfirmed {
				return payment, nil
			}
			// The charge may exist on the rail without its reference stored; the same key returns it.
			charge, err := o.createCharge(ctx, booking, payment)
			if err != nil {
				if errors.Is(err, apperr.ErrRailRejected) {
					if markErr := o.markFeeFailed(ctx, booking, payment, err.Error()); markErr != nil {
						o.logger().Warn("Could not record rejected fee charge", zap.String("bookingId", booking.ID), zap.Error(markErr))
					}
				}
				return nil, err
			}
			payment.FeeRailReference = charge.Reference
			if err := o.save(ctx, op, payment); err != nil {
				return nil, err
			}
		}
		charge, err := o.getCharge(ctx, payment.FeeRailReference)
		if err != nil {
			return nil, err
		}
		switch charge.Status {
		case rails.ChargeSucceeded:
			return o.markFeeCompleted(ctx, booking, payment)
		case rails.ChargeFailed:
			if err := o.markFeeFailed(ctx, booking, payment, charge.FailureReason); err != nil {
				return nil, err
			}
		}
		return payment, nil

	default:
		if payment.TransferRailReference == nil {
			return payment, nil
		}
		var transfer *rails.Transfer
		err := o.Config.Retry.Do(ctx, func(ctx context.Context) error {
			t, err := o.Transfers.GetTransfer(ctx, *payment.TransferRailReference)
			transfer = t
			return err
		})
		if err != nil {
			return nil, err
		}
		changed := payment.TransferStatus != string(transfer.Status)
		payment.TransferStatus = string(transfer.Status)
		switch {
		case transfer.Status.Failed() && payment.State != models.StateTransferFailed:
			payment.LastError = transfer.FailureReason
			payment.SetState(models.StateTransferFailed)
			changed = true
		case !transfer.Status.Failed() && payment.State != models.StateFullySettled:
			now := o.now()
			payment.SettledAt = &now
			payment.LastError = ""
			payment.SetState(models.StateFullySettled)
			changed = true
		}
		if !changed {
			return payment, nil
		}
		if err := o.save(ctx, op, payment); err != nil {
			return nil, err
		}
		o.emit(booking, payment)
		return payment, nil
	}
}

// GetPayment returns the payment of a booking to one of its parties.
func (o *Orchestrator) GetPayment(ctx context.Context, bookingID, requesterID string) (*models.Payment, error) {
	const op = "GetPayment"
	if _, err := o.loadBooking(ctx, op, bookingID, requesterID); err != nil {
		return nil, err
	}
	payment, err := o.loadPayment(ctx, op, bookingID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, apperr.E(apperr.KindNotFound, op, "no payment for booking %s", bookingID)
	}
	return payment, nil
}

// --- Idempotency keys ---

// FeeIdempotencyKey identifies one fee charge attempt of a booking.
func FeeIdempotencyKey(bookingID string, attempt int) string {
	return fmt.Sprintf("fee:%s:%d", bookingID, attempt)
}

// TransferIdempotencyKey identifies the single provider credit of a booking.
func TransferIdempotencyKey(bookingID string) string {
	return "payout:" + bookingID
}

// --- Internals ---

func (o *Orchestrator) newPayment(booking *models.Booking) (*models.Payment, error) {
	split, err := SplitCents(booking.PriceCents, o.Config.FeePercent)
	if err != nil {
		return nil, err
	}
	currency := booking.Currency
	if currency == "" {
		currency = o.Config.Currency
	}
	now := o.now()
	p := &models.Payment{
		ID:               uuid.NewString(),
		BookingID:        booking.ID,
		ClientID:         booking.ClientID,
		ProviderID:       booking.ProviderID,
		Currency:         currency,
		TotalCents:       split.TotalCents,
		ProviderCents:    split.ProviderCents,
		PlatformFeeCents: split.PlatformFeeCents,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	p.SetState(models.StateFeePending)
	return p, nil
}

func (o *Orchestrator) createCharge(ctx context.Context, booking *models.Booking, payment *models.Payment) (*rails.Charge, error) {
	req := rails.ChargeRequest{
		AmountCents: payment.PlatformFeeCents,
		Currency:    payment.Currency,
		Description: "Booking fee " + booking.ID,
		Metadata: map[string]string{
			"bookingId":      booking.ID,
			"clientId":       booking.ClientID,
			"providerId":     booking.ProviderID,
			"providerAmount": centsString(payment.ProviderCents),
			"platformFee":    centsString(payment.PlatformFeeCents),
			"totalAmount":    centsString(payment.TotalCents),
			"feeAttempt":     strconv.Itoa(payment.FeeAttempt),
		},
		IdempotencyKey: FeeIdempotencyKey(booking.ID, payment.FeeAttempt),
	}
	var charge *rails.Charge
	err := o.Config.Retry.Do(ctx, func(ctx context.Context) error {
		c, err := o.Fees.CreateCharge(ctx, req)
		charge = c
		return err
	})
	return charge, err
}

func (o *Orchestrator) getCharge(ctx context.Context, reference string) (*rails.Charge, error) {
	var charge *rails.Charge
	err := o.Config.Retry.Do(ctx, func(ctx context.Context) error {
		c, err := o.Fees.GetCharge(ctx, reference)
		charge = c
		return err
	})
	return charge, err
}

func (o *Orchestrator) markFeeCompleted(ctx context.Context, booking *models.Booking, payment *models.Payment) (*models.Payment, error) {
	const op = "ConfirmFeeLeg"
	now := o.now()
	payment.PaidAt = &now
	payment.LastError = ""
	payment.SetState(models.StateFeeCompleted)
	if err := o.save(ctx, op, payment); err != nil {
		current, reloadErr := o.loadPayment(ctx, op, booking.ID)
		if reloadErr == nil && current != nil && current.Status == models.PaymentCompleted {
			return current, nil
		}
		return nil, err
	}
	o.logger().Info("Fee collected",
		zap.String("bookingId", booking.ID),
		zap.String("reference", payment.FeeRailReference),
		zap.Int64("platformFeeCents", payment.PlatformFeeCents))
	o.emit(booking, payment)
	return payment, nil
}

func (o *Orchestrator) markFeeFailed(ctx context.Context, booking *models.Booking, payment *models.Payment, reason string) error {
	payment.LastError = reason
	payment.SetState(models.StateFeeFailed)
	if err := o.save(ctx, "FeeFailed", payment); err != nil {
		return err
	}
	o.logger().Warn("Fee charge failed", zap.String("bookingId", booking.ID), zap.String("reason", reason))
	o.emit(booking, payment)
	return nil
}

func (o *Orchestrator) payoutFailed(ctx context.Context, booking *models.Booking, payment *models.Payment, cause error) (*PayoutOutcome, error) {
	retryable := errors.Is(cause, apperr.ErrRailTransient)
	payment.LastError = cause.Error()
	if !retryable {
		payment.TransferAuthorizationID = ""
		payment.SetState(models.StateTransferFailed)
	}
	if err := o.save(ctx, "SettleProviderLeg", payment); err != nil {
		o.logger().Warn("Could not record payout failure", zap.String("bookingId", booking.ID), zap.Error(err))
	}
	o.logger().Error("Provider payout failed",
		zap.String("bookingId", booking.ID),
		zap.Bool("retryable", retryable),
		zap.Error(cause))

	if retryable && o.Payouts != nil {
		if err := o.Payouts.SchedulePayout(ctx, booking.ID); err != nil {
			o.logger().Error("Could not schedule payout retry", zap.String("bookingId", booking.ID), zap.Error(err))
		}
	}
	o.emit(booking, payment)
	out := outcome(payment, cause.Error())
	out.Retryable = retryable
	return out, nil
}

func outcome(payment *models.Payment, failure string) *PayoutOutcome {
	return &PayoutOutcome{
		Payment:        payment,
		ProviderPayout: payment.Payout(),
		Failure:        failure,
		Retryable:      payment.State == models.StateFeeCompleted && failure != "",
	}
}

// loadBooking applies the visibility rule: non-parties see nothing. The system actor sees everything.
func (o *Orchestrator) loadBooking(ctx context.Context, op, bookingID, actorID string) (*models.Booking, error) {
	booking, err := o.Bookings.GetByID(ctx, bookingID)
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

func (o *Orchestrator) loadPayment(ctx context.Context, op, bookingID string) (*models.Payment, error) {
	payment, err := o.Payments.GetByBookingID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindInternal, op, err, "failed to load payment")
	}
	return payment, nil
}

func (o *Orchestrator) save(ctx context.Context, op string, payment *models.Payment) error {
	payment.UpdatedAt = o.now()
	if err := o.Payments.CompareAndSwap(ctx, payment); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return apperr.Wrap(apperr.KindConcurrentModification, op, err, "payment for booking %s changed concurrently", payment.BookingID)
		}
		return apperr.Wrap(apperr.KindInternal, op, err, "failed to save payment")
	}
	return nil
}

func (o *Orchestrator) emit(booking *models.Booking, payment *models.Payment) {
	if o.Notifier == nil {
		return
	}
	snapshot := *payment
	o.Notifier.Notify(models.BookingEvent{
		ID:         uuid.NewString(),
		Kind:       models.EventPaymentStatus,
		BookingID:  booking.ID,
		NewStatus:  string(payment.Status),
		Booking:    *booking,
		Payment:    &snapshot,
		OccurredAt: o.now(),
	})
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now().UTC()
}

func (o *Orchestrator) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func centsString(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
