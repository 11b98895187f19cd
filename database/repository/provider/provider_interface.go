package providerRepo

import (
	"context"

	"bookingpay/models"
)

// Directory is the read side of the provider catalog the booking core depends on.
type Directory interface {
	// GetProvider retrieves a provider with its payout account.
	GetProvider(ctx context.Context, id string) (*models.Provider, error)
	// GetService retrieves a catalog service by its ID.
	GetService(ctx context.Context, id string) (*models.Service, error)
	// GetDevices lists the push targets registered for an actor.
	GetDevices(ctx context.Context, actorID string) ([]models.Device, error)
	// RegisterDevice stores or refreshes a push target.
	RegisterDevice(ctx context.Context, device models.Device) error
}
