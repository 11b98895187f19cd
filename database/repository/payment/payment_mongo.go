package paymentRepo

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

// MongoPaymentRepo implements PaymentRepository using MongoDB.
type MongoPaymentRepo struct {
	coll *mongo.Collection
}

// NewMongoPaymentRepo creates a PaymentRepository on the "payments" collection and ensures its indexes.
func NewMongoPaymentRepo(db *mongo.Database) (PaymentRepository, error) {
	repo := &MongoPaymentRepo{coll: db.Collection("payments")}
	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *MongoPaymentRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "bookingId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "state", Value: 1}, {Key: "updatedAt", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create payment indexes: %w", err)
	}
	return nil
}

func (r *MongoPaymentRepo) GetByBookingID(ctx context.Context, bookingID string) (*models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var payment models.Payment
	if err := r.coll.FindOne(ctx, bson.M{"bookingId": bookingID}).Decode(&payment); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("payment for booking %s: %w", bookingID, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("error fetching payment for booking %s: %w", bookingID, err)
	}
	return &payment, nil
}

func (r *MongoPaymentRepo) Insert(ctx context.Context, payment *models.Payment) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, payment); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("payment for booking %s: %w", payment.BookingID, repository.ErrDuplicate)
		}
		return fmt.Errorf("error creating payment: %w", err)
	}
	return nil
}

func (r *MongoPaymentRepo) CompareAndSwap(ctx context.Context, payment *models.Payment) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	expected := payment.Version
	next := *payment
	next.Version = expected + 1

	filter := bson.M{"bookingId": payment.BookingID, "version": expected}
	res, err := r.coll.ReplaceOne(ctx, filter, &next)
	if err != nil {
		return fmt.Errorf("error updating payment for booking %s: %w", payment.BookingID, err)
	}
	if res.MatchedCount == 0 {
		count, countErr := r.coll.CountDocuments(ctx, bson.M{"bookingId": payment.BookingID})
		if countErr != nil {
			return fmt.Errorf("error checking payment for booking %s: %w", payment.BookingID, countErr)
		}
		if count == 0 {
			return fmt.Errorf("payment for booking %s: %w", payment.BookingID, repository.ErrNotFound)
		}
		return fmt.Errorf("payment for booking %s moved past version %d: %w", payment.BookingID, expected, repository.ErrConflict)
	}
	payment.Version = next.Version
	return nil
}

func (r *MongoPaymentRepo) ListByState(ctx context.Context, state models.PaymentState, limit int) ([]models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: 1}}).SetLimit(int64(limit))
	cursor, err := r.coll.Find(ctx, bson.M{"state": state}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing payments: %w", err)
	}
	defer cursor.Close(ctx)

	payments := []models.Payment{}
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("error decoding payments: %w", err)
	}
	return payments, nil
}
