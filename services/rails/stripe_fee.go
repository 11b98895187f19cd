package rails

import (
	"context"
	"errors"
	"net/http"

	"bookingpay/services/apperr"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"go.uber.org/zap"
)

// StripeConfig configures the Stripe fee rail. APIURL overrides the Stripe endpoint (tests, proxies).
type StripeConfig struct {
	Key        string
	APIURL     string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// StripeFeeRail implements FeeRail with Stripe PaymentIntents. The client confirms the intent
// with the returned client secret; the server only creates and reads it.
type StripeFeeRail struct {
	intents paymentintent.Client
	logger  *zap.Logger
}

func NewStripeFeeRail(cfg StripeConfig) *StripeFeeRail {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	// Retries are owned by the settlement layer, which knows the idempotency key is stable.
	backendCfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     logger.Sugar(),
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripe.String(cfg.APIURL)
	}
	if cfg.HTTPClient != nil {
		backendCfg.HTTPClient = cfg.HTTPClient
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg)
	return &StripeFeeRail{
		intents: paymentintent.Client{B: backend, Key: cfg.Key},
		logger:  logger,
	}
}

func (r *StripeFeeRail) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := r.intents.New(params)
	if err != nil {
		return nil, classifyStripeError("FeeRail.CreateCharge", err)
	}
	r.logger.Debug("Payment intent created",
		zap.String("reference", pi.ID),
		zap.Int64("amount", pi.Amount),
		zap.String("status", string(pi.Status)))
	return toCharge(pi), nil
}

func (r *StripeFeeRail) GetCharge(ctx context.Context, reference string) (*Charge, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := r.intents.Get(reference, params)
	if err != nil {
		return nil, classifyStripeError("FeeRail.GetCharge", err)
	}
	return toCharge(pi), nil
}

func toCharge(pi *stripe.PaymentIntent) *Charge {
	charge := &Charge{
		Reference:    pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		charge.Status = ChargeSucceeded
	case stripe.PaymentIntentStatusCanceled:
		charge.Status = ChargeFailed
		charge.FailureReason = string(pi.CancellationReason)
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		// A declined attempt leaves the intent open for another payment method.
		// Only canceled is terminal.
		charge.Status = ChargePending
		if pi.LastPaymentError != nil {
			charge.FailureReason = pi.LastPaymentError.Msg
		}
	default:
		charge.Status = ChargePending
	}
	return charge
}

func classifyStripeError(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch {
		case stripeErr.HTTPStatusCode == http.StatusTooManyRequests,
			stripeErr.HTTPStatusCode == http.StatusConflict,
			stripeErr.HTTPStatusCode >= http.StatusInternalServerError,
			stripeErr.Type == stripe.ErrorTypeAPI:
			return apperr.Wrap(apperr.KindRailTransient, op, err, "fee rail unavailable")
		default:
			return apperr.Wrap(apperr.KindRailRejected, op, err, "fee rail rejected request (%s)", stripeErr.Type)
		}
	}
	// Network failures and deadlines: the request may or may not have landed.
	return apperr.Wrap(apperr.KindRailTransient, op, err, "fee rail unreachable")
}
