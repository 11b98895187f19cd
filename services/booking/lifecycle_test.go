package booking

import (
	"testing"

	"bookingpay/models"

	"github.com/stretchr/testify/assert"
)

var allStatuses = []models.BookingStatus{
	models.BookingPending,
	models.BookingConfirmed,
	models.BookingCompleted,
	models.BookingDeclined,
	models.BookingCancelled,
}

func TestTransitionTable(t *testing.T) {
	want := map[Operation]map[models.BookingStatus]models.BookingStatus{
		OpAccept: {
			models.BookingPending: models.BookingConfirmed,
		},
		OpDecline: {
			models.BookingPending:   models.BookingDeclined,
			models.BookingConfirmed: models.BookingDeclined,
		},
		OpCancel: {
			models.BookingPending:   models.BookingCancelled,
			models.BookingConfirmed: models.BookingCancelled,
		},
		OpComplete: {
			models.BookingConfirmed: models.BookingCompleted,
		},
	}

	for op, allowed := range want {
		for _, from := range allStatuses {
			next, ok := Next(op, from)
			expected, legal := allowed[from]
			assert.Equal(t, legal, ok, "%s from %s", op, from)
			if legal {
				assert.Equal(t, expected, next, "%s from %s", op, from)
			}
		}
	}

	_, ok := Next(Operation("refund"), models.BookingConfirmed)
	assert.False(t, ok)
}

func TestTerminalStatusesHaveNoExit(t *testing.T) {
	for _, s := range allStatuses {
		if !s.IsTerminal() {
			continue
		}
		for op := range transitions {
			_, ok := Next(op, s)
			assert.False(t, ok, "%s must not leave %s", op, s)
		}
	}
}

func TestRoles(t *testing.T) {
	assert.True(t, CanPerform(OpAccept, RoleProvider))
	assert.False(t, CanPerform(OpAccept, RoleClient))
	assert.False(t, CanPerform(OpDecline, RoleClient))
	assert.True(t, CanPerform(OpCancel, RoleClient))
	assert.True(t, CanPerform(OpCancel, RoleProvider))
	assert.False(t, CanPerform(OpCancel, RoleSystem))
	assert.True(t, CanPerform(OpComplete, RoleSystem))
	assert.False(t, CanPerform(OpComplete, RoleClient))
	assert.False(t, CanPerform(OpAccept, RoleNone))

	b := &models.Booking{ClientID: "c", ProviderID: "p"}
	assert.Equal(t, RoleClient, RoleOf(b, "c"))
	assert.Equal(t, RoleProvider, RoleOf(b, "p"))
	assert.Equal(t, RoleNone, RoleOf(b, "x"))
	assert.Equal(t, RoleNone, RoleOf(b, ""))
}
