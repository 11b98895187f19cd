package providerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookingpay/database/repository"
	"bookingpay/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDirectory implements Directory over the providers, services and devices collections.
type MongoDirectory struct {
	providers *mongo.Collection
	services  *mongo.Collection
	devices   *mongo.Collection
}

// NewMongoDirectory creates a Directory using MongoDB.
func NewMongoDirectory(db *mongo.Database) (Directory, error) {
	d := &MongoDirectory{
		providers: db.Collection("providers"),
		services:  db.Collection("services"),
		devices:   db.Collection("devices"),
	}
	if err := d.ensureIndexes(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *MongoDirectory) GetProvider(ctx context.Context, id string) (*models.Provider, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var provider models.Provider
	if err := d.providers.FindOne(ctx, bson.M{"id": id}).Decode(&provider); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("provider %s: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch provider with id %s: %w", id, err)
	}
	return &provider, nil
}

func (d *MongoDirectory) GetService(ctx context.Context, id string) (*models.Service, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var service models.Service
	if err := d.services.FindOne(ctx, bson.M{"id": id}).Decode(&service); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("service %s: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch service with id %s: %w", id, err)
	}
	return &service, nil
}

func (d *MongoDirectory) GetDevices(ctx context.Context, actorID string) ([]models.Device, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := d.devices.Find(ctx, bson.M{"actorId": actorID})
	if err != nil {
		return nil, fmt.Errorf("failed to find devices for %s: %w", actorID, err)
	}
	defer cursor.Close(ctx)

	var devices []models.Device
	for cursor.Next(ctx) {
		var dev models.Device
		if err := cursor.Decode(&dev); err != nil {
			return nil, fmt.Errorf("failed to decode device: %w", err)
		}
		devices = append(devices, dev)
	}
	return devices, cursor.Err()
}

func (d *MongoDirectory) RegisterDevice(ctx context.Context, device models.Device) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"actorId": device.ActorID, "deviceId": device.DeviceID}
	update := bson.M{"$set": device}
	if _, err := d.devices.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to register device %s: %w", device.DeviceID, err)
	}
	return nil
}
