package tasks

import (
	"encoding/json"
	"testing"
	"time"

	"bookingpay/models"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayoutTaskRoundTrip(t *testing.T) {
	task, opts, err := NewPayoutTask("b1")
	require.NoError(t, err)
	assert.Equal(t, TypeSettlementPayout, task.Type())
	assert.NotEmpty(t, opts)

	p, err := ParseBookingPayload(task)
	require.NoError(t, err)
	assert.Equal(t, "b1", p.BookingID)
}

func TestParseBookingPayloadRejectsMissingID(t *testing.T) {
	_, err := ParseBookingPayload(asynq.NewTask(TypeBookingAutoComplete, []byte(`{}`)))
	assert.Error(t, err)

	_, err = ParseBookingPayload(asynq.NewTask(TypeBookingAutoComplete, []byte(`not json`)))
	assert.Error(t, err)
}

func TestNotifyTaskCarriesEvent(t *testing.T) {
	event := models.BookingEvent{
		ID:         "evt-1",
		Kind:       models.EventBookingStatus,
		BookingID:  "b1",
		NewStatus:  string(models.BookingConfirmed),
		OccurredAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	task, _, err := NewNotifyTask(event)
	require.NoError(t, err)

	var decoded models.BookingEvent
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	assert.Equal(t, event.BookingID, decoded.BookingID)
	assert.Equal(t, event.NewStatus, decoded.NewStatus)
}
