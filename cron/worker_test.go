package cron

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"bookingpay/models"
	"bookingpay/services/apperr"
	"bookingpay/services/settlement"
	"bookingpay/services/tasks"
	"bookingpay/utils"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePusher struct {
	events []models.BookingEvent
	err    error
}

func (p *fakePusher) Send(_ context.Context, event models.BookingEvent) error {
	p.events = append(p.events, event)
	return p.err
}

type fakeSettler struct {
	requesters []string
	outcome    *settlement.PayoutOutcome
	err        error
	report     settlement.SweepReport
	sweeps     int
}

func (s *fakeSettler) SettleProviderLeg(_ context.Context, _ string, requesterID string) (*settlement.PayoutOutcome, error) {
	s.requesters = append(s.requesters, requesterID)
	return s.outcome, s.err
}

func (s *fakeSettler) Sweep(_ context.Context, _ int) (settlement.SweepReport, error) {
	s.sweeps++
	return s.report, nil
}

type fakeCompleter struct {
	err error
}

func (c *fakeCompleter) AutoComplete(_ context.Context, bookingID string) (*models.Booking, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &models.Booking{ID: bookingID, Status: models.BookingCompleted}, nil
}

func payoutTask(t *testing.T) *asynq.Task {
	t.Helper()
	task, _, err := tasks.NewPayoutTask("b1")
	require.NoError(t, err)
	return task
}

func TestNotifyTaskPushesEvent(t *testing.T) {
	pusher := &fakePusher{}
	task, _, err := tasks.NewNotifyTask(models.BookingEvent{ID: "e1", BookingID: "b1", NewStatus: "CONFIRMED"})
	require.NoError(t, err)

	require.NoError(t, handleNotifyTask(pusher, zap.NewNop())(context.Background(), task))
	require.Len(t, pusher.events, 1)
	assert.Equal(t, "b1", pusher.events[0].BookingID)

	pusher.err = errors.New("fcm down")
	assert.Error(t, handleNotifyTask(pusher, zap.NewNop())(context.Background(), task))

	bad := asynq.NewTask(tasks.TypeNotifyEvent, []byte("{"))
	assert.ErrorIs(t, handleNotifyTask(pusher, zap.NewNop())(context.Background(), bad), asynq.SkipRetry)
}

func TestPayoutTaskOutcomes(t *testing.T) {
	ctx := context.Background()
	payment := &models.Payment{BookingID: "b1"}

	t.Run("settled", func(t *testing.T) {
		s := &fakeSettler{outcome: &settlement.PayoutOutcome{Payment: payment, ProviderPayout: models.PayoutSent}}
		require.NoError(t, handlePayoutTask(s, zap.NewNop())(ctx, payoutTask(t)))
		assert.Equal(t, []string{utils.SystemActorID}, s.requesters)
	})

	t.Run("still pending is retried", func(t *testing.T) {
		s := &fakeSettler{outcome: &settlement.PayoutOutcome{Payment: payment, Failure: "timeout", Retryable: true}}
		err := handlePayoutTask(s, zap.NewNop())(ctx, payoutTask(t))
		require.Error(t, err)
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("rejected ends the task", func(t *testing.T) {
		s := &fakeSettler{outcome: &settlement.PayoutOutcome{Payment: payment, ProviderPayout: models.PayoutFailed, Failure: "closed account"}}
		assert.NoError(t, handlePayoutTask(s, zap.NewNop())(ctx, payoutTask(t)))
	})

	t.Run("unverified account is not retried", func(t *testing.T) {
		s := &fakeSettler{err: apperr.E(apperr.KindPayoutAccountNotVerified, "SettleProviderLeg", "unverified")}
		assert.ErrorIs(t, handlePayoutTask(s, zap.NewNop())(ctx, payoutTask(t)), asynq.SkipRetry)
	})

	t.Run("conflict is retried", func(t *testing.T) {
		s := &fakeSettler{err: apperr.E(apperr.KindConcurrentModification, "SettleProviderLeg", "raced")}
		err := handlePayoutTask(s, zap.NewNop())(ctx, payoutTask(t))
		require.Error(t, err)
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	})
}

func TestAutoCompleteTask(t *testing.T) {
	task, _, err := tasks.NewAutoCompleteTask("b1", time.Now().Add(time.Hour))
	require.NoError(t, err)

	assert.NoError(t, handleAutoCompleteTask(&fakeCompleter{}, zap.NewNop())(context.Background(), task))

	missing := &fakeCompleter{err: apperr.E(apperr.KindNotFound, "AutoComplete", "gone")}
	assert.ErrorIs(t, handleAutoCompleteTask(missing, zap.NewNop())(context.Background(), task), asynq.SkipRetry)
}

func TestSweepTask(t *testing.T) {
	s := &fakeSettler{report: settlement.SweepReport{Reconciled: 2}}
	require.NoError(t, handleSweepTask(s, 0, zap.NewNop())(context.Background(), tasks.NewSweepTask()))
	assert.Equal(t, 1, s.sweeps)
}

func TestNewMuxRoutesKnownTypes(t *testing.T) {
	pusher := &fakePusher{}
	mux := NewMux(Handlers{Push: pusher, Settlement: &fakeSettler{}, Bookings: &fakeCompleter{}}, zap.NewNop())

	b, err := json.Marshal(models.BookingEvent{ID: "e2", BookingID: "b2"})
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeNotifyEvent, b)))
	assert.Len(t, pusher.events, 1)

	assert.Error(t, mux.ProcessTask(context.Background(), asynq.NewTask("unknown:type", nil)))
}
