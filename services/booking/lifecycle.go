package booking

import "bookingpay/models"

// Operation is a booking transition requested by an actor.
type Operation string

const (
	OpAccept   Operation = "accept"
	OpDecline  Operation = "decline"
	OpCancel   Operation = "cancel"
	OpComplete Operation = "complete"
)

// Role is how an actor relates to a booking.
type Role string

const (
	RoleNone     Role = ""
	RoleClient   Role = "client"
	RoleProvider Role = "provider"
	RoleSystem   Role = "system"
)

type transition struct {
	roles []Role
	from  []models.BookingStatus
	to    models.BookingStatus
}

// transitions is the only place booking status changes are defined. Create is not listed: it has
// no prior status.
var transitions = map[Operation]transition{
	OpAccept: {
		roles: []Role{RoleProvider},
		from:  []models.BookingStatus{models.BookingPending},
		to:    models.BookingConfirmed,
	},
	OpDecline: {
		roles: []Role{RoleProvider},
		from:  []models.BookingStatus{models.BookingPending, models.BookingConfirmed},
		to:    models.BookingDeclined,
	},
	OpCancel: {
		roles: []Role{RoleClient, RoleProvider},
		from:  []models.BookingStatus{models.BookingPending, models.BookingConfirmed},
		to:    models.BookingCancelled,
	},
	OpComplete: {
		roles: []Role{RoleProvider, RoleSystem},
		from:  []models.BookingStatus{models.BookingConfirmed},
		to:    models.BookingCompleted,
	},
}

// RoleOf classifies actorID against the parties of b.
func RoleOf(b *models.Booking, actorID string) Role {
	switch {
	case actorID == "":
		return RoleNone
	case actorID == b.ProviderID:
		return RoleProvider
	case actorID == b.ClientID:
		return RoleClient
	}
	return RoleNone
}

// CanPerform reports whether role may request op at all.
func CanPerform(op Operation, role Role) bool {
	t, ok := transitions[op]
	if !ok {
		return false
	}
	for _, r := range t.roles {
		if r == role {
			return true
		}
	}
	return false
}

// Next returns the status op leads to from current, or false if op is not allowed from current.
func Next(op Operation, current models.BookingStatus) (models.BookingStatus, bool) {
	t, ok := transitions[op]
	if !ok {
		return "", false
	}
	for _, s := range t.from {
		if s == current {
			return t.to, true
		}
	}
	return "", false
}
