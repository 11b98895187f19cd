package notification

import (
	"context"
	"errors"
	"testing"

	"bookingpay/database/repository/memory"
	"bookingpay/models"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	sent []*messaging.Message
	fail map[string]error
}

func (f *fakeSender) Send(_ context.Context, m *messaging.Message) (string, error) {
	if err := f.fail[m.Token]; err != nil {
		return "", err
	}
	f.sent = append(f.sent, m)
	return "msg-" + m.Token, nil
}

func confirmedEvent() models.BookingEvent {
	return models.BookingEvent{
		ID:        "evt-1",
		Kind:      models.EventBookingStatus,
		BookingID: "b1",
		NewStatus: string(models.BookingConfirmed),
		Booking: models.Booking{
			ID:            "b1",
			ClientID:      "client-1",
			ProviderID:    "prov-1",
			ScheduledDate: "2026-03-01",
			ScheduledTime: "10:00",
		},
	}
}

func TestPushServiceSendsToEveryDeviceOfBothParties(t *testing.T) {
	ctx := context.Background()
	dir := memory.NewDirectory()
	require.NoError(t, dir.RegisterDevice(ctx, models.Device{ActorID: "client-1", DeviceID: "phone", FCMToken: "tok-c1"}))
	require.NoError(t, dir.RegisterDevice(ctx, models.Device{ActorID: "client-1", DeviceID: "tablet", FCMToken: "tok-c2"}))
	require.NoError(t, dir.RegisterDevice(ctx, models.Device{ActorID: "prov-1", DeviceID: "phone", FCMToken: "tok-p1"}))

	sender := &fakeSender{}
	svc := NewPushService(dir, sender, zap.NewNop())
	require.NoError(t, svc.Send(ctx, confirmedEvent()))

	require.Len(t, sender.sent, 3)
	for _, m := range sender.sent {
		assert.Equal(t, "Booking confirmed", m.Notification.Title)
		assert.Equal(t, "b1", m.Data["bookingId"])
	}
	assert.Equal(t, "client", sender.sent[0].Data["role"])
	assert.Equal(t, "provider", sender.sent[2].Data["role"])
}

func TestPushServiceReportsFailedSends(t *testing.T) {
	ctx := context.Background()
	dir := memory.NewDirectory()
	require.NoError(t, dir.RegisterDevice(ctx, models.Device{ActorID: "client-1", DeviceID: "phone", FCMToken: "tok-c1"}))
	require.NoError(t, dir.RegisterDevice(ctx, models.Device{ActorID: "prov-1", DeviceID: "phone", FCMToken: "tok-p1"}))

	sender := &fakeSender{fail: map[string]error{"tok-c1": errors.New("fcm unavailable")}}
	svc := NewPushService(dir, sender, zap.NewNop())
	err := svc.Send(ctx, confirmedEvent())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fcm unavailable")
	assert.Len(t, sender.sent, 1)
}

func TestPushServiceSkipsActorsWithoutDevices(t *testing.T) {
	sender := &fakeSender{}
	svc := NewPushService(memory.NewDirectory(), sender, zap.NewNop())
	assert.NoError(t, svc.Send(context.Background(), confirmedEvent()))
	assert.Empty(t, sender.sent)
}

func TestRenderPayoutForProvider(t *testing.T) {
	event := confirmedEvent()
	event.Kind = models.EventPaymentStatus
	event.NewStatus = string(models.PaymentCompleted)
	event.Payment = &models.Payment{ProviderCents: 12000}
	event.Payment.SetState(models.StateFullySettled)

	provider := Render(event, "prov-1")
	assert.Contains(t, provider.Body, "120.00")

	client := Render(event, "client-1")
	assert.Contains(t, client.Body, "complete")
}
