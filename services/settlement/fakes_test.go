package settlement

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"bookingpay/database/repository/memory"
	"bookingpay/models"
	"bookingpay/services/apperr"
	"bookingpay/services/rails"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeFeeRail dedupes charges by idempotency key like a real payment-intent API.
type fakeFeeRail struct {
	mu         sync.Mutex
	byKey      map[string]*rails.Charge
	byRef      map[string]*rails.Charge
	keys       []string
	createErrs []error
	seq        int
}

func newFakeFeeRail() *fakeFeeRail {
	return &fakeFeeRail{byKey: map[string]*rails.Charge{}, byRef: map[string]*rails.Charge{}}
}

func (f *fakeFeeRail) CreateCharge(_ context.Context, req rails.ChargeRequest) (*rails.Charge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, req.IdempotencyKey)
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	if c, ok := f.byKey[req.IdempotencyKey]; ok {
		out := *c
		return &out, nil
	}
	f.seq++
	ref := fmt.Sprintf("pi_%d", f.seq)
	metadata := map[string]string{}
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	c := &rails.Charge{
		Reference:    ref,
		ClientSecret: ref + "_secret",
		AmountCents:  req.AmountCents,
		Currency:     req.Currency,
		Status:       rails.ChargePending,
		Metadata:     metadata,
	}
	f.byKey[req.IdempotencyKey] = c
	f.byRef[ref] = c
	out := *c
	return &out, nil
}

func (f *fakeFeeRail) GetCharge(_ context.Context, reference string) (*rails.Charge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byRef[reference]
	if !ok {
		return nil, apperr.E(apperr.KindRailRejected, "fake", "no such charge %s", reference)
	}
	out := *c
	return &out, nil
}

func (f *fakeFeeRail) setStatus(ref string, status rails.ChargeStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byRef[ref].Status = status
}

// decline leaves the charge open with the rail's decline reason, as a card decline does.
func (f *fakeFeeRail) decline(ref, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byRef[ref].Status = rails.ChargePending
	f.byRef[ref].FailureReason = reason
}

func (f *fakeFeeRail) setMetadata(ref, key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byRef[ref].Metadata[key] = value
}

func (f *fakeFeeRail) charges() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byRef)
}

// fakeTransferRail dedupes authorizations by key and transfers by authorization.
type fakeTransferRail struct {
	mu        sync.Mutex
	auths     map[string]string
	transfers map[string]*rails.Transfer
	authKeys  []string
	amounts   []int64
	authErrs  []error
	execErrs  []error
	seq       int
}

func newFakeTransferRail() *fakeTransferRail {
	return &fakeTransferRail{auths: map[string]string{}, transfers: map[string]*rails.Transfer{}}
}

func (f *fakeTransferRail) AuthorizeTransfer(_ context.Context, req rails.TransferRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authKeys = append(f.authKeys, req.IdempotencyKey)
	if len(f.authErrs) > 0 {
		err := f.authErrs[0]
		f.authErrs = f.authErrs[1:]
		if err != nil {
			return "", err
		}
	}
	if id, ok := f.auths[req.IdempotencyKey]; ok {
		return id, nil
	}
	f.seq++
	id := fmt.Sprintf("auth_%d", f.seq)
	f.auths[req.IdempotencyKey] = id
	return id, nil
}

func (f *fakeTransferRail) ExecuteTransfer(_ context.Context, authorizationID string, req rails.TransferRequest) (*rails.Transfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.execErrs) > 0 {
		err := f.execErrs[0]
		f.execErrs = f.execErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	if t, ok := f.transfers[authorizationID]; ok {
		out := *t
		return &out, nil
	}
	f.amounts = append(f.amounts, req.AmountCents)
	t := &rails.Transfer{Reference: "tr_" + authorizationID, Status: rails.TransferPending, AmountCents: req.AmountCents}
	f.transfers[authorizationID] = t
	out := *t
	return &out, nil
}

func (f *fakeTransferRail) GetTransfer(_ context.Context, reference string) (*rails.Transfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.transfers {
		if t.Reference == reference {
			out := *t
			return &out, nil
		}
	}
	return nil, apperr.E(apperr.KindRailRejected, "fake", "no such transfer %s", reference)
}

func (f *fakeTransferRail) setStatus(reference string, status rails.TransferStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.transfers {
		if t.Reference == reference {
			t.Status = status
		}
	}
}

func (f *fakeTransferRail) transferCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.transfers)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.BookingEvent
}

func (n *recordingNotifier) Notify(event models.BookingEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) statuses() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.NewStatus)
	}
	return out
}

type fakePayouts struct {
	mu       sync.Mutex
	bookings []string
}

func (p *fakePayouts) SchedulePayout(_ context.Context, bookingID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bookings = append(p.bookings, bookingID)
	return nil
}

const (
	testClient   = "client-1"
	testProvider = "prov-1"
	testBooking  = "booking-1"
)

type harness struct {
	orch      *Orchestrator
	bookings  *memory.BookingStore
	payments  *memory.PaymentStore
	directory *memory.Directory
	fees      *fakeFeeRail
	transfers *fakeTransferRail
	notifier  *recordingNotifier
	payouts   *fakePayouts
}

func newHarness(t *testing.T, status models.BookingStatus) *harness {
	t.Helper()
	h := &harness{
		bookings:  memory.NewBookingStore(),
		payments:  memory.NewPaymentStore(),
		directory: memory.NewDirectory(),
		fees:      newFakeFeeRail(),
		transfers: newFakeTransferRail(),
		notifier:  &recordingNotifier{},
		payouts:   &fakePayouts{},
	}
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, h.bookings.Create(context.Background(), &models.Booking{
		ID:            testBooking,
		ClientID:      testClient,
		ProviderID:    testProvider,
		ServiceID:     "svc-1",
		Status:        status,
		ScheduledDate: "2026-03-02",
		ScheduledTime: "10:00",
		PriceCents:    12000,
		Currency:      "usd",
		CreatedAt:     now,
		UpdatedAt:     now,
	}))
	h.directory.PutProvider(models.Provider{
		ID:     testProvider,
		Active: true,
		PayoutAccount: models.PayoutAccount{
			AccessToken: "access-1",
			AccountID:   "acc-1",
			LegalName:   "Pat Provider",
			Verified:    true,
		},
	})
	h.orch = &Orchestrator{
		Bookings:  h.bookings,
		Payments:  h.payments,
		Directory: h.directory,
		Fees:      h.fees,
		Transfers: h.transfers,
		Notifier:  h.notifier,
		Payouts:   h.payouts,
		Config: Config{
			FeePercent: decimal.NewFromInt(10),
			Currency:   "usd",
		},
		Logger: zap.NewNop(),
		Now:    func() time.Time { return now },
	}
	return h
}

func (h *harness) setBookingStatus(t *testing.T, from, to models.BookingStatus) {
	t.Helper()
	_, err := h.bookings.UpdateStatus(context.Background(), testBooking, from, to, time.Now())
	require.NoError(t, err)
}

// pay runs initiate and confirm with a succeeding charge.
func (h *harness) pay(t *testing.T) *models.Payment {
	t.Helper()
	ctx := context.Background()
	init, err := h.orch.InitiateSettlement(ctx, testBooking, testClient)
	require.NoError(t, err)
	h.fees.setStatus(init.FeeRailReference, rails.ChargeSucceeded)
	payment, err := h.orch.ConfirmFeeLeg(ctx, testBooking, init.FeeRailReference, testClient)
	require.NoError(t, err)
	return payment
}
