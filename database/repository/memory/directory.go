package memory

import (
	"context"
	"fmt"
	"sync"

	"bookingpay/database/repository"
	providerRepo "bookingpay/database/repository/provider"
	"bookingpay/models"
)

var _ providerRepo.Directory = (*Directory)(nil)

// Directory is an in-memory provider catalog. Put* methods seed it.
type Directory struct {
	mu        sync.RWMutex
	providers map[string]models.Provider
	services  map[string]models.Service
	devices   map[string][]models.Device
}

func NewDirectory() *Directory {
	return &Directory{
		providers: make(map[string]models.Provider),
		services:  make(map[string]models.Service),
		devices:   make(map[string][]models.Device),
	}
}

func (d *Directory) PutProvider(p models.Provider) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.providers[p.ID] = p
}

func (d *Directory) PutService(s models.Service) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.services[s.ID] = s
}

func (d *Directory) GetProvider(_ context.Context, id string) (*models.Provider, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.providers[id]
	if !ok {
		return nil, fmt.Errorf("provider %s: %w", id, repository.ErrNotFound)
	}
	return &p, nil
}

func (d *Directory) GetService(_ context.Context, id string) (*models.Service, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.services[id]
	if !ok {
		return nil, fmt.Errorf("service %s: %w", id, repository.ErrNotFound)
	}
	return &s, nil
}

func (d *Directory) GetDevices(_ context.Context, actorID string) ([]models.Device, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]models.Device(nil), d.devices[actorID]...), nil
}

func (d *Directory) RegisterDevice(_ context.Context, device models.Device) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	list := d.devices[device.ActorID]
	for i := range list {
		if list[i].DeviceID == device.DeviceID {
			list[i] = device
			return nil
		}
	}
	d.devices[device.ActorID] = append(list, device)
	return nil
}
